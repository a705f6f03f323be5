// Package manifest writes a per-run summary next to the dated post folders.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/adbuilder/models"
)

// Dir is the folder under the date folder that holds run manifests.
const Dir = "runs"

// RunManifest is a lightweight overview of one batch: which listings were
// fetched and what happened to each descriptor.
type RunManifest struct {
	RunID       string    `yaml:"run_id"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Listings    []string  `yaml:"listings,omitempty"`
	Rendered    int       `yaml:"rendered"`
	Skipped     int       `yaml:"skipped"`
	Failed      int       `yaml:"failed"`
	Entries     []Entry   `yaml:"entries,omitempty"`
}

// Entry is the outcome of one image or video.
type Entry struct {
	PostFolder string `yaml:"post_folder"`
	Descriptor string `yaml:"descriptor"`
	Kind       string `yaml:"kind"`
	Status     string `yaml:"status"`
	Path       string `yaml:"path,omitempty"`
}

// Add appends an entry and updates the counters. Statuses other than rendered
// and skipped count as failures.
func (m *RunManifest) Add(e Entry) {
	m.Entries = append(m.Entries, e)
	switch e.Status {
	case models.StatusRendered:
		m.Rendered++
	case models.StatusSkipped:
		m.Skipped++
	default:
		m.Failed++
	}
}

// Path returns where the manifest of runID is written under dateDir.
func Path(dateDir, runID string) string {
	return filepath.Join(dateDir, Dir, runID+".yaml")
}

// Write saves m as YAML under dateDir and returns the file path.
func Write(dateDir string, m *RunManifest) (string, error) {
	path := Path(dateDir, m.RunID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create manifest folder: %w", err)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

// Load reads a manifest written by Write.
func Load(path string) (*RunManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m RunManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}
