// Copyright PaperMind Labs, 2026. All rights reserved.

package index

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/papermind/papermind/pkg/types"
)

const (
	vectorsFile = "index.gob"
	papersFile  = "papers.yaml"
)

// savedIndex is the gob-encoded half of a persisted generation. Paper
// metadata is written separately as YAML so it stays human-readable.
type savedIndex struct {
	ID          uint64
	Fingerprint string
	Model       string
	Vectors     [][]float32
}

// SaveGeneration writes gen to dir as index.gob (vectors) and papers.yaml
// (metadata). model tags the snapshot with the embedding model that
// produced the vectors; LoadGeneration refuses a snapshot from a
// different model.
func SaveGeneration(gen *Generation, dir, model string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	vf, err := os.Create(filepath.Join(dir, vectorsFile))
	if err != nil {
		return fmt.Errorf("creating %s: %w", vectorsFile, err)
	}
	defer vf.Close()

	saved := savedIndex{
		ID:          gen.ID,
		Fingerprint: gen.Fingerprint,
		Model:       model,
		Vectors:     gen.Vectors,
	}
	if err := gob.NewEncoder(vf).Encode(saved); err != nil {
		return fmt.Errorf("encoding index vectors: %w", err)
	}

	data, err := yaml.Marshal(gen.Papers)
	if err != nil {
		return fmt.Errorf("encoding paper metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, papersFile), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", papersFile, err)
	}
	return nil
}

// LoadGeneration reads a generation saved by SaveGeneration and verifies
// it against the configured model and dimension before reuse. The
// positional-alignment invariant is checked on load: a snapshot whose
// vector and metadata counts disagree is rejected.
func LoadGeneration(dir, model string, dimension int) (*Generation, error) {
	vf, err := os.Open(filepath.Join(dir, vectorsFile))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", vectorsFile, err)
	}
	defer vf.Close()

	var saved savedIndex
	if err := gob.NewDecoder(vf).Decode(&saved); err != nil {
		return nil, fmt.Errorf("decoding index vectors: %w", err)
	}

	if saved.Model != model {
		return nil, fmt.Errorf("saved index was built with model %q, configured model is %q", saved.Model, model)
	}
	if dimension > 0 && len(saved.Vectors) > 0 && len(saved.Vectors[0]) != dimension {
		return nil, fmt.Errorf("saved index is %d-dim, configured dimension is %d", len(saved.Vectors[0]), dimension)
	}

	data, err := os.ReadFile(filepath.Join(dir, papersFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", papersFile, err)
	}
	var papers []types.Paper
	if err := yaml.Unmarshal(data, &papers); err != nil {
		return nil, fmt.Errorf("decoding paper metadata: %w", err)
	}

	if len(papers) != len(saved.Vectors) {
		return nil, fmt.Errorf("saved index has %d vectors but %d papers", len(saved.Vectors), len(papers))
	}

	return &Generation{
		ID:          saved.ID,
		Fingerprint: saved.Fingerprint,
		Vectors:     saved.Vectors,
		Papers:      papers,
	}, nil
}
