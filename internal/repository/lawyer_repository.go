package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"qanoon-go/internal/model"
)

// LawyerRepository serves the static lawyer directory, loaded once at
// startup and never mutated afterwards.
type LawyerRepository interface {
	// Snapshot returns the directory in original file order. The slice
	// is shared and must not be mutated.
	Snapshot() []model.LawyerRecord
}

type jsonLawyerRepository struct {
	records []model.LawyerRecord
}

// NewLawyerRepository loads the directory at path. A missing or corrupt
// file is an error; the service refuses to start without the directory.
func NewLawyerRepository(path string) (LawyerRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lawyer directory %s: %w", path, err)
	}

	var records []model.LawyerRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("corrupt lawyer directory %s: %w", path, err)
	}
	if records == nil {
		records = []model.LawyerRecord{}
	}
	return &jsonLawyerRepository{records: records}, nil
}

func (r *jsonLawyerRepository) Snapshot() []model.LawyerRecord {
	return r.records
}
