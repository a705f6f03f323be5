package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// MetadataFile is the sidecar written next to the downloaded photos.
const MetadataFile = "data.json"

// ListingInfo holds the fields extracted from one language version of a listing.
type ListingInfo struct {
	Mileage     string `json:"mileage"`
	Model       string `json:"model"`
	Price       string `json:"price"`
	Tel         string `json:"tel,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Metadata is a loaded sidecar: language -> field -> value.
type Metadata map[string]map[string]string

// Lookup returns the value for key in lang, or "" when either is absent.
func (m Metadata) Lookup(lang, key string) (string, bool) {
	fields, ok := m[lang]
	if !ok {
		return "", false
	}
	v, ok := fields[key]
	return v, ok
}

// LoadMetadata reads a sidecar. A missing file returns (nil, nil).
func LoadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse metadata %s: %w", path, err)
	}
	return m, nil
}
