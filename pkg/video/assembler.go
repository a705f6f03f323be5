// Package video builds slideshow videos from composed post images.
package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dtnitsch/adbuilder/models"
	"github.com/dtnitsch/adbuilder/pkg/compositor"
	"github.com/dtnitsch/adbuilder/pkg/encoder"
	"github.com/dtnitsch/adbuilder/pkg/storage"
)

// Renderer composes a descriptor and writes it out. *compositor.Compositor
// satisfies it.
type Renderer interface {
	Compose(desc *models.PostDescriptor, resourceDir string) (*image.NRGBA, error)
	Save(img image.Image, dir, name string, formats []string) ([]string, error)
}

// Result is the outcome of one video. Err holds an encoder failure; the
// assembler moves on to the next video regardless.
type Result struct {
	Name   string
	Output string
	Frames int
	Err    error
}

type Assembler struct {
	renderer       Renderer
	encoder        encoder.Encoder
	storage        *storage.Storage
	descriptorsDir string
	logger         *slog.Logger
}

func NewAssembler(r Renderer, enc encoder.Encoder, descriptorsDir string, logger *slog.Logger) *Assembler {
	return &Assembler{
		renderer:       r,
		encoder:        enc,
		storage:        &storage.Storage{},
		descriptorsDir: descriptorsDir,
		logger:         logger.With("component", "video"),
	}
}

// Assemble renders every video of desc into postDir/<name>/<name>.mp4.
// Frames are numbered from 0 per video. A frame whose assets are missing is
// dropped without consuming a number. The returned error is reserved for
// failures that should stop the batch.
func (a *Assembler) Assemble(ctx context.Context, desc *models.PostDescriptor, postDir string) ([]Result, error) {
	var results []Result
	for _, v := range desc.Videos {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := a.assembleOne(ctx, v, postDir)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (a *Assembler) assembleOne(ctx context.Context, v models.VideoDescriptor, postDir string) (Result, error) {
	videoDir := filepath.Join(postDir, v.Name)
	res := Result{Name: v.Name, Output: filepath.Join(videoDir, v.Name+".mp4")}
	if err := os.MkdirAll(videoDir, 0755); err != nil {
		return res, fmt.Errorf("failed to create video folder: %w", err)
	}

	for _, source := range v.Images {
		ok, err := a.frame(source, postDir, videoDir, res.Frames)
		if err != nil {
			return res, err
		}
		if ok {
			res.Frames++
		}
	}

	logger := a.logger.With("video", v.Name, "frames", res.Frames)
	if res.Frames == 0 {
		logger.Warn("no frames rendered, skipping encode")
		return res, nil
	}

	res.Err = a.encoder.Encode(ctx, encoder.Job{
		Dir:       videoDir,
		FrameRate: v.ImageDuration,
		Output:    res.Output,
	})
	if res.Err != nil {
		if !errors.Is(res.Err, encoder.ErrEncoderFailure) {
			return res, res.Err
		}
		logger.Warn("video encoding failed", "error", res.Err)
		return res, nil
	}
	logger.Info("video written", "output", res.Output)
	return res, nil
}

// frame writes videoDir/<index>.jpg from source and reports whether a frame
// was produced.
func (a *Assembler) frame(source, postDir, videoDir string, index int) (bool, error) {
	// Keep the nested descriptor next to its outputs.
	if src := filepath.Join(a.descriptorsDir, source); a.storage.HasFile(src) {
		if err := a.storage.CopyFile(src, filepath.Join(postDir, source)); err != nil {
			return false, err
		}
	}

	name := strconv.Itoa(index)
	composed := filepath.Join(postDir, models.BaseName(source)+".jpg")
	if a.storage.HasFile(composed) {
		if err := a.storage.CopyFile(composed, filepath.Join(videoDir, name+".jpg")); err != nil {
			return false, err
		}
		return true, nil
	}

	descPath := filepath.Join(postDir, source)
	if !a.storage.HasFile(descPath) {
		a.logger.Warn("frame source not found, skipping", "source", source)
		return false, nil
	}
	desc, err := models.LoadDescriptor(descPath)
	if err != nil {
		return false, err
	}
	img, err := a.renderer.Compose(desc, postDir)
	if errors.Is(err, compositor.ErrMissingAsset) {
		a.logger.Warn("frame skipped", "source", source, "error", err)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := a.renderer.Save(img, videoDir, name, []string{"jpg"}); err != nil {
		return false, err
	}
	return true, nil
}
