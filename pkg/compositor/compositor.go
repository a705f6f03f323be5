// Package compositor renders a post descriptor into a single image: photos
// pasted onto a template, an overlay on top, then captions and QR codes filled
// from listing metadata.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font/opentype"

	"github.com/dtnitsch/adbuilder/models"
	"github.com/dtnitsch/adbuilder/pkg/shaper"
)

// ErrMissingAsset means a template, overlay, photo or font file does not exist.
// Compose returns no image when it occurs; callers skip the unit of work.
var ErrMissingAsset = errors.New("missing asset")

const minFontSize = 8

type Options struct {
	TemplatesDir      string
	CaptionBackground color.NRGBA
	MaxFontSize       int
	JPEGQuality       int
}

type Compositor struct {
	opts   Options
	shaper *shaper.Shaper
	fonts  map[string]*opentype.Font
	logger *slog.Logger
}

func New(opts Options, sh *shaper.Shaper, logger *slog.Logger) *Compositor {
	if opts.MaxFontSize < minFontSize {
		opts.MaxFontSize = 512
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = 95
	}
	if sh == nil {
		sh = shaper.New()
	}
	return &Compositor{
		opts:   opts,
		shaper: sh,
		fonts:  make(map[string]*opentype.Font),
		logger: logger.With("component", "compositor"),
	}
}

// Compose builds the image described by desc. Photo paths and metadata are
// resolved relative to resourceDir.
func (c *Compositor) Compose(desc *models.PostDescriptor, resourceDir string) (*image.NRGBA, error) {
	if desc.Template == "" || desc.TemplateOverlay == "" {
		return nil, fmt.Errorf("%w: template and template_overlay are required", models.ErrMalformedDescriptor)
	}

	tpl, err := c.openLayer(desc.Template)
	if err != nil {
		return nil, err
	}
	overlay, err := c.openLayer(desc.TemplateOverlay)
	if err != nil {
		return nil, err
	}

	canvas := imaging.Clone(tpl)
	subfolders := false
	for _, p := range desc.Images {
		if _, ok := p.Subfolder(); ok {
			subfolders = true
		}
		canvas, err = c.placeImage(canvas, p, resourceDir)
		if err != nil {
			return nil, err
		}
	}

	canvas = Paste(canvas, overlay, image.Pt(0, 0))

	meta, err := models.LoadMetadata(filepath.Join(resourceDir, models.MetadataFile))
	if err != nil {
		return nil, err
	}

	// Captions only make sense once listing data is in place: either this
	// folder's sidecar or photos pulled from listing subfolders.
	if meta == nil && !subfolders {
		c.logger.Debug("no metadata, skipping captions", "resource_dir", resourceDir)
		return canvas, nil
	}

	for _, cr := range desc.Captions {
		if err := c.drawCaption(canvas, cr, meta, resourceDir); err != nil {
			return nil, err
		}
	}
	for _, q := range desc.QRCodes {
		canvas, err = c.placeQR(canvas, q, meta, resourceDir)
		if err != nil {
			return nil, err
		}
	}
	return canvas, nil
}

func (c *Compositor) templatePath(name string) string {
	dir := filepath.ToSlash(filepath.Clean(c.opts.TemplatesDir)) + "/"
	if strings.Contains(filepath.ToSlash(name), dir) {
		return name
	}
	return filepath.Join(c.opts.TemplatesDir, name)
}

func (c *Compositor) openLayer(name string) (image.Image, error) {
	return openAsset(c.templatePath(name))
}

func (c *Compositor) placeImage(canvas *image.NRGBA, p models.ImagePlacement, resourceDir string) (*image.NRGBA, error) {
	src, err := openAsset(filepath.Join(resourceDir, filepath.FromSlash(p.File)))
	if err != nil {
		return nil, err
	}
	src = CropCenter(src, p.CropWidth, p.CropHeight)
	fitted := imaging.Resize(src, p.FitWidth, p.FitHeight, imaging.Lanczos)
	return Paste(canvas, fitted, image.Pt(p.X, p.Y)), nil
}

// sidecar returns the metadata a region reads from: its own post folder's
// sidecar when set, otherwise the resource folder's.
func sidecar(meta models.Metadata, postFolder, resourceDir string) (models.Metadata, error) {
	if postFolder == "" {
		return meta, nil
	}
	return models.LoadMetadata(filepath.Join(resourceDir, filepath.FromSlash(postFolder), models.MetadataFile))
}

func openAsset(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingAsset, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}
