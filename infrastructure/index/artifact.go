package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// artifactVersion is the current on-disk format version.
const artifactVersion = 1

// ErrCorruptArtifact indicates an index file that fails validation.
var ErrCorruptArtifact = errors.New("corrupt index artifact")

type artifact struct {
	Version   int         `json:"version"`
	Dimension int         `json:"dimension"`
	Count     int         `json:"count"`
	Vectors   [][]float32 `json:"vectors"`
}

// Save writes the index to path. The write goes to a temporary file in the
// same directory and is renamed into place, so readers never observe a
// partial artifact.
func (f *Flat) Save(path string) error {
	data, err := json.Marshal(artifact{
		Version:   artifactVersion,
		Dimension: f.dim,
		Count:     f.Size(),
		Vectors:   f.vectors,
	})
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close index file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}

// Load reads and validates an index artifact. Any structural inconsistency
// is reported as ErrCorruptArtifact.
func Load(path string) (*Flat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	if a.Version != artifactVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptArtifact, a.Version)
	}
	if a.Dimension <= 0 {
		return nil, fmt.Errorf("%w: non-positive dimension %d", ErrCorruptArtifact, a.Dimension)
	}
	if a.Count != len(a.Vectors) {
		return nil, fmt.Errorf("%w: count %d does not match %d vectors", ErrCorruptArtifact, a.Count, len(a.Vectors))
	}
	for i, v := range a.Vectors {
		if len(v) != a.Dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrCorruptArtifact, i, len(v), a.Dimension)
		}
	}

	return &Flat{dim: a.Dimension, vectors: a.Vectors}, nil
}
