package common

import (
	"reflect"
	"strings"
	"testing"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "https://example.com/en/cars/1/x", "https://example.com/en/cars/1/x"},
		{"whitespace", "  https://example.com/en/cars/1/x \t", "https://example.com/en/cars/1/x"},
		{"markdown link", "[car](https://example.com/en/cars/1/x)", "https://example.com/en/cars/1/x"},
		{"trailing comma", "https://example.com/en/cars/1/x,", "https://example.com/en/cars/1/x"},
		{"angle brackets", "<https://example.com/en/cars/1/x>", "https://example.com/en/cars/1/x"},
		{"quoted", `"https://example.com/en/cars/1/x"`, "https://example.com/en/cars/1/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeURL(tt.in); got != tt.want {
				t.Errorf("SanitizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"https://example.com/en/cars/1/x", false},
		{"http://localhost:8080/ar/cars/2/y", false},
		{"ftp://example.com/file", true},
		{"example.com/en/cars/1/x", true},
		{"https://example.com/a b", true},
		{"https://", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := ValidateURL(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestReadURLs(t *testing.T) {
	data := []byte("https://example.com/en/cars/1/x\n\n# comment\n  https://example.com/ar/cars/2/y  \n")
	got, err := ReadURLs(data)
	if err != nil {
		t.Fatalf("ReadURLs failed: %v", err)
	}
	want := []string{"https://example.com/en/cars/1/x", "https://example.com/ar/cars/2/y"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestReadURLsRejectsInvalid(t *testing.T) {
	_, err := ReadURLs([]byte("https://example.com/en/cars/1/x\nnot a url\n"))
	if err == nil || !strings.Contains(err.Error(), "not a url") {
		t.Fatalf("expected invalid url error, got %v", err)
	}
}
