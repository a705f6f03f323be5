package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// IndexEntry lists the descriptors to render into one post folder.
type IndexEntry struct {
	Label       string
	Descriptors []string
}

// Folder returns the label as a folder name relative to the date folder.
// Dots are stripped, so "." addresses the date folder itself.
func (e IndexEntry) Folder() string {
	return strings.ReplaceAll(e.Label, ".", "")
}

// Index maps post folder labels to descriptor files, in file order.
type Index []IndexEntry

// ParseIndex decodes an index document while keeping the key order of the JSON object.
func ParseIndex(data []byte) (Index, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("index must be a JSON object")
	}

	var idx Index
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read index key: %w", err)
		}
		label, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected index key %v", tok)
		}
		var descriptors []string
		if err := dec.Decode(&descriptors); err != nil {
			return nil, fmt.Errorf("index entry %q: %w", label, err)
		}
		idx = append(idx, IndexEntry{Label: label, Descriptors: descriptors})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	return idx, nil
}

// LoadIndex reads an index file.
func LoadIndex(path string) (Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	return ParseIndex(data)
}
