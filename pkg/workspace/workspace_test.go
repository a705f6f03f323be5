package workspace

import (
	"path/filepath"
	"testing"
	"time"
)

func TestListingID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "slug", url: "https://example.qa/en/cars/12345/toyota-land-cruiser", want: "12345"},
		{name: "trailing slash", url: "https://example.qa/en/cars/12345/toyota-land-cruiser/", want: "12345"},
		{name: "query ignored", url: "https://example.qa/ar/cars/777/slug?ref=home", want: "777"},
		{name: "surrounding whitespace", url: "  https://example.qa/en/cars/9/x\n", want: "9"},
		{name: "root", url: "https://example.qa/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ListingID(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ListingID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ListingID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestManagerPaths(t *testing.T) {
	m := NewManager("out", time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC))

	if got, want := m.DateDir(), filepath.Join("out", "2026", "10", "18"); got != want {
		t.Errorf("DateDir() = %q, want %q", got, want)
	}
	if got, want := m.PostDir(""), m.DateDir(); got != want {
		t.Errorf("PostDir(\"\") = %q, want %q", got, want)
	}
	got, err := m.ListingDir("https://example.qa/en/cars/12345/slug")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("out", "2026", "10", "18", "12345"); got != want {
		t.Errorf("ListingDir() = %q, want %q", got, want)
	}
}
