// Package repository implements the data access layer over the JSON
// artifacts and Redis.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"qanoon-go/internal/model"
	"qanoon-go/pkg/log"
)

// ChunkRepository serves read-only snapshots of the chunk store artifact.
type ChunkRepository interface {
	// Snapshot returns the current chunk collection. The returned slice
	// must not be mutated; it is shared across requests.
	Snapshot() []model.Chunk
	// Reload re-reads the artifact and atomically swaps the snapshot.
	Reload() error
	// Watch reloads the snapshot whenever the artifact file changes,
	// until ctx is cancelled.
	Watch(ctx context.Context) error
}

type jsonChunkRepository struct {
	path     string
	snapshot atomic.Value // []model.Chunk
}

// NewChunkRepository loads the chunk store at path. A missing or corrupt
// artifact is an error; the caller decides whether that is fatal. An
// empty artifact is valid and yields an empty snapshot.
func NewChunkRepository(path string) (ChunkRepository, error) {
	r := &jsonChunkRepository{path: path}
	chunks, err := LoadChunks(path)
	if err != nil {
		return nil, err
	}
	r.snapshot.Store(chunks)
	return r, nil
}

func (r *jsonChunkRepository) Snapshot() []model.Chunk {
	return r.snapshot.Load().([]model.Chunk)
}

// Reload swaps in the freshly parsed artifact. On failure the previous
// snapshot stays in place and the service keeps serving it.
func (r *jsonChunkRepository) Reload() error {
	chunks, err := LoadChunks(r.path)
	if err != nil {
		return err
	}
	r.snapshot.Store(chunks)
	return nil
}

// Watch watches the artifact's directory (the indexer replaces the file
// by rename, which would silence a file-level watch) and reloads on
// create/write/rename events for the artifact path.
func (r *jsonChunkRepository) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch chunk store directory: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(r.path) {
					continue
				}
				if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
					continue
				}
				if err := r.Reload(); err != nil {
					log.Warnf("chunk store reload failed, keeping previous snapshot: %v", err)
					continue
				}
				log.Infof("chunk store reloaded, %d chunks", len(r.Snapshot()))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("chunk store watcher error: %v", err)
			}
		}
	}()
	return nil
}

// LoadChunks reads and validates a chunk store artifact.
func LoadChunks(path string) ([]model.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk store %s: %w", path, err)
	}

	var chunks []model.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("corrupt chunk store %s: %w", path, err)
	}

	seen := make(map[int]struct{}, len(chunks))
	for _, c := range chunks {
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("corrupt chunk store %s: duplicate chunk id %d", path, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	if chunks == nil {
		chunks = []model.Chunk{}
	}
	return chunks, nil
}

// WriteChunks writes the chunk collection to path atomically: the data is
// written to a temp file in the same directory and renamed into place, so
// a concurrent reader never observes a partial artifact.
func WriteChunks(path string, chunks []model.Chunk) error {
	if chunks == nil {
		chunks = []model.Chunk{}
	}
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chunk store: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create chunk store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".chunks-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp chunk store: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp chunk store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp chunk store: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace chunk store: %w", err)
	}
	return nil
}
