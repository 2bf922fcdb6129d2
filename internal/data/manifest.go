package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Manifest records which instance files one shard of a batch processed and
// where it wrote its results. The merge step uses manifests to check that
// the shards form a disjoint cover of the file set.
type Manifest struct {
	Parts      int      `json:"parts"`
	Part       int      `json:"part"`
	TotalFiles int      `json:"total_files"` // files matched before sharding
	Limit      int      `json:"limit"`       // per-shard file limit, 0 = none
	Files      []string `json:"files"`       // base names, in processing order
	Artifact   string   `json:"artifact"`    // instances CSV written by the shard
	CreatedAt  string   `json:"created_at"`  // RFC 3339
}

// LoadManifest loads a manifest from a JSON file.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	return &m, nil
}

// SaveManifest writes a manifest to a JSON file.
func SaveManifest(m *Manifest, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}
