// Package workspace lays out the dated working folders the pipeline writes into.
package workspace

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

const DateLayout = "2006/01/02"

// Manager resolves paths under <baseDir>/YYYY/MM/DD for a fixed day.
type Manager struct {
	baseDir string
	date    time.Time
}

// NewManager creates a Manager for the given day.
func NewManager(baseDir string, date time.Time) *Manager {
	if baseDir == "" {
		baseDir = "."
	}
	return &Manager{baseDir: baseDir, date: date}
}

// DateDir returns the folder for the manager's day.
func (m *Manager) DateDir() string {
	return filepath.Join(m.baseDir, filepath.FromSlash(m.date.Format(DateLayout)))
}

// PostDir returns the working folder of a post; an empty folder is the date folder itself.
func (m *Manager) PostDir(folder string) string {
	return filepath.Join(m.DateDir(), folder)
}

// ListingDir returns the resource folder for a listing URL.
func (m *Manager) ListingDir(listingURL string) (string, error) {
	id, err := ListingID(listingURL)
	if err != nil {
		return "", err
	}
	return m.PostDir(id), nil
}

// ListingID picks the path segment before the last non-empty one, which for
// /en/cars/<id>/<slug> URLs is the listing ID.
func ListingID(listingURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(listingURL))
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	segments := strings.Split(strings.TrimSuffix(u.Path, "/"), "/")
	if len(segments) < 2 {
		return "", fmt.Errorf("url %s has too few path segments", listingURL)
	}
	id := segments[len(segments)-2]
	if id == "" || id == "." || id == ".." {
		return "", fmt.Errorf("url %s has no listing segment", listingURL)
	}
	return id, nil
}
