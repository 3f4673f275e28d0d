package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFile is written into the target directory after a run.
const ManifestFile = "dataset.json"

// Manifest summarises a generated dataset.
type Manifest struct {
	Path            string    `json:"path"`
	AnnotationCount int       `json:"annotation_count"`
	RunID           string    `json:"run_id"`
	Sweep           string    `json:"sweep"`
	Engine          string    `json:"engine,omitempty"`
	BBoxSpace       string    `json:"bbox_space,omitempty"`
	Width           int       `json:"width,omitempty"`
	Height          int       `json:"height,omitempty"`
	Complete        bool      `json:"complete"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// WriteManifest writes m to dir/dataset.json via a temporary file.
func WriteManifest(dir string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace manifest: %w", err)
	}
	return nil
}

// ReadManifest reads dir/dataset.json.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return m, fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return m, nil
}
