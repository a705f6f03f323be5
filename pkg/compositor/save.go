package compositor

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// OutputPath names the file written for format ext, e.g. "post.jpg".
func OutputPath(dir, name, ext string) string {
	return filepath.Join(dir, name+"."+strings.TrimPrefix(ext, "."))
}

// Save writes img once per format. The encoder is chosen from the extension.
func (c *Compositor) Save(img image.Image, dir, name string, formats []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	var written []string
	for _, ext := range formats {
		path := OutputPath(dir, name, ext)
		if err := imaging.Save(img, path, imaging.JPEGQuality(c.opts.JPEGQuality)); err != nil {
			return written, fmt.Errorf("failed to save %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// Generated reports whether every requested format already exists in dir.
// An empty format list counts as generated.
func Generated(dir, name string, formats []string) bool {
	for _, ext := range formats {
		if _, err := os.Stat(OutputPath(dir, name, ext)); err != nil {
			return false
		}
	}
	return true
}
