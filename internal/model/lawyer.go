package model

// LawyerRecord is one entry of the static lawyer directory, loaded once
// at startup and never mutated.
type LawyerRecord struct {
	Name          string   `json:"name"`
	Specialty     string   `json:"specialty"`
	SpecialtyTags []string `json:"specialty_tags"`
	Credentials   string   `json:"credentials"`
	Contact       string   `json:"contact"`
}

// Recommendation pairs a lawyer with its tag-overlap score for one query.
type Recommendation struct {
	Lawyer LawyerRecord `json:"lawyer"`
	Score  int          `json:"score"`
}
