package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/dtnitsch/adbuilder/models"
)

func (c *Compositor) drawCaption(canvas *image.NRGBA, cr models.CaptionRegion, meta models.Metadata, resourceDir string) error {
	meta, err := sidecar(meta, cr.PostFolder, resourceDir)
	if err != nil {
		return err
	}
	if meta == nil {
		c.logger.Debug("caption metadata missing", "post_folder", cr.PostFolder, "key", cr.Text)
		return nil
	}

	f, err := c.loadFont(cr.FontFile)
	if errors.Is(err, ErrMissingAsset) {
		c.logger.Warn("font not found, skipping caption", "font_file", cr.FontFile)
		return nil
	}
	if err != nil {
		return err
	}

	fg, err := cr.Color()
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrMalformedDescriptor, err)
	}

	text := c.resolveText(meta, cr.Lang, cr.Text)
	size := FitFontSize(f, text, cr.Width, cr.Height, c.opts.MaxFontSize)
	face, err := newFace(f, size)
	if err != nil {
		return err
	}
	defer face.Close()

	box := image.Rect(cr.X, cr.Y, cr.X+cr.Width, cr.Y+cr.Height)
	draw.Draw(canvas, box, image.NewUniform(c.opts.CaptionBackground), image.Point{}, draw.Src)

	w, h := measure(face, text)
	ascent := face.Metrics().Ascent.Ceil()
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(cr.X+(cr.Width-w)/2, cr.Y+(cr.Height-h)/2+ascent),
	}
	d.DrawString(text)
	return nil
}

// resolveText returns the shaped metadata value, or "" when the language or
// key is absent.
func (c *Compositor) resolveText(meta models.Metadata, lang, key string) string {
	v, ok := meta.Lookup(lang, key)
	if !ok {
		return ""
	}
	return c.shaper.Shape(v)
}

func (c *Compositor) loadFont(path string) (*opentype.Font, error) {
	if f, ok := c.fonts[path]; ok {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingAsset, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	c.fonts[path] = f
	return f, nil
}

// FitFontSize grows the point size from 8 while the rendered text stays
// strictly inside w x h and returns the last size that fit. It returns 7 when
// size 8 already overflows. The search stops at limit.
func FitFontSize(f *opentype.Font, text string, w, h, limit int) int {
	size := minFontSize
	for ; size <= limit; size++ {
		face, err := newFace(f, size)
		if err != nil {
			break
		}
		tw, th := measure(face, text)
		face.Close()
		if tw >= w || th >= h {
			break
		}
	}
	return size - 1
}

func newFace(f *opentype.Font, size int) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face at size %d: %w", size, err)
	}
	return face, nil
}

func measure(face font.Face, text string) (int, int) {
	m := face.Metrics()
	return font.MeasureString(face, text).Ceil(), (m.Ascent + m.Descent).Ceil()
}
