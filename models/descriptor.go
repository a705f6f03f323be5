package models

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
)

// ErrMalformedDescriptor is returned when a descriptor is missing a required field
// or carries a value that cannot be used.
var ErrMalformedDescriptor = errors.New("malformed descriptor")

// ImagePlacement positions one source photo on the template.
type ImagePlacement struct {
	File       string `json:"file"`
	CropWidth  int    `json:"crop_width"`
	CropHeight int    `json:"crop_height"`
	FitWidth   int    `json:"fit_width"`
	FitHeight  int    `json:"fit_height"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
}

// Subfolder returns the first path component when File is subfolder-qualified.
func (p ImagePlacement) Subfolder() (string, bool) {
	parts := strings.Split(p.File, "/")
	if len(parts) > 1 {
		return parts[0], true
	}
	return "", false
}

// CaptionRegion is a text box filled from listing metadata.
type CaptionRegion struct {
	Lang       string `json:"lang"`
	Text       string `json:"text"` // key into the metadata record for Lang
	FontFile   string `json:"font_file"`
	FontSize   int    `json:"font_size"`
	FontColor  string `json:"font_color"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	PostFolder string `json:"post_folder,omitempty"`
}

// Color parses FontColor.
func (c CaptionRegion) Color() (color.NRGBA, error) {
	return ParseHexColor(c.FontColor)
}

// QRRegion renders a QR code of a metadata value, e.g. the seller's phone number.
type QRRegion struct {
	Lang       string `json:"lang"`
	Text       string `json:"text"`
	Prefix     string `json:"prefix,omitempty"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Size       int    `json:"size"`
	PostFolder string `json:"post_folder,omitempty"`
}

// VideoDescriptor is an ordered list of frame sources encoded into one video.
// ImageDuration is passed to the encoder as the input frame rate.
type VideoDescriptor struct {
	Name          string   `json:"name"`
	Images        []string `json:"images"`
	ImageDuration float64  `json:"image_duration"`
}

// PostDescriptor describes one composite image and optionally videos built from
// other descriptors.
type PostDescriptor struct {
	Template        string            `json:"template"`
	TemplateOverlay string            `json:"template_overlay"`
	Images          []ImagePlacement  `json:"images"`
	Captions        []CaptionRegion   `json:"captions"`
	QRCodes         []QRRegion        `json:"qr_codes,omitempty"`
	SaveFormats     []string          `json:"save_formats"`
	Videos          []VideoDescriptor `json:"videos,omitempty"`
}

// Composes reports whether the descriptor produces an image of its own.
// Video-only descriptors carry an empty save_formats list and no layers.
func (d *PostDescriptor) Composes() bool {
	return len(d.SaveFormats) > 0 || len(d.Images) > 0 || len(d.Captions) > 0 || len(d.QRCodes) > 0
}

// Validate checks the fields the compositor and video assembler rely on.
func (d *PostDescriptor) Validate() error {
	if d.Composes() {
		if d.Template == "" {
			return fmt.Errorf("%w: template is required", ErrMalformedDescriptor)
		}
		if d.TemplateOverlay == "" {
			return fmt.Errorf("%w: template_overlay is required", ErrMalformedDescriptor)
		}
	}
	for i, img := range d.Images {
		if img.File == "" {
			return fmt.Errorf("%w: images[%d].file is required", ErrMalformedDescriptor, i)
		}
		if img.FitWidth <= 0 || img.FitHeight <= 0 {
			return fmt.Errorf("%w: images[%d] fit size must be positive", ErrMalformedDescriptor, i)
		}
	}
	for i, c := range d.Captions {
		if c.FontFile == "" {
			return fmt.Errorf("%w: captions[%d].font_file is required", ErrMalformedDescriptor, i)
		}
		if c.Width <= 0 || c.Height <= 0 {
			return fmt.Errorf("%w: captions[%d] fit box must be positive", ErrMalformedDescriptor, i)
		}
		if _, err := c.Color(); err != nil {
			return fmt.Errorf("%w: captions[%d].font_color: %v", ErrMalformedDescriptor, i, err)
		}
	}
	for i, q := range d.QRCodes {
		if q.Size <= 0 {
			return fmt.Errorf("%w: qr_codes[%d].size must be positive", ErrMalformedDescriptor, i)
		}
	}
	for i, v := range d.Videos {
		if v.Name == "" {
			return fmt.Errorf("%w: videos[%d].name is required", ErrMalformedDescriptor, i)
		}
		if len(v.Images) == 0 {
			return fmt.Errorf("%w: videos[%d].images is empty", ErrMalformedDescriptor, i)
		}
		if v.ImageDuration <= 0 {
			return fmt.Errorf("%w: videos[%d].image_duration must be positive", ErrMalformedDescriptor, i)
		}
	}
	return nil
}

// ParseDescriptor decodes and validates a descriptor document.
func ParseDescriptor(data []byte) (*PostDescriptor, error) {
	var d PostDescriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadDescriptor reads a descriptor file.
func LoadDescriptor(path string) (*PostDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}
	d, err := ParseDescriptor(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// BaseName strips directory and extension from a descriptor or image file name.
// Outputs of a descriptor are named after it.
func BaseName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseHexColor parses #RRGGBB or #RRGGBBAA.
func ParseHexColor(s string) (color.NRGBA, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "#"))
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	switch len(raw) {
	case 3:
		return color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: 0xff}, nil
	case 4:
		return color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: raw[3]}, nil
	default:
		return color.NRGBA{}, fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", s)
	}
}
