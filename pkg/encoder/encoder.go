// Package encoder turns a directory of numbered frames into a video file by
// running an external encoder.
package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrEncoderFailure wraps any failure to start or complete the encoder process.
var ErrEncoderFailure = errors.New("encoder failure")

// FramePattern is the printf-style name of frame files inside a video folder.
const FramePattern = "%d.jpg"

// Job describes one video: frames 0.jpg, 1.jpg, ... in Dir, written to Output.
type Job struct {
	Dir       string
	FrameRate float64
	Output    string
}

type Encoder interface {
	Encode(ctx context.Context, job Job) error
}

type FFmpeg struct {
	Binary string
	Codec  string
	logger *slog.Logger
}

func NewFFmpeg(binary, codec string, logger *slog.Logger) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	if codec == "" {
		codec = "mpeg4"
	}
	return &FFmpeg{Binary: binary, Codec: codec, logger: logger.With("component", "encoder")}
}

// Args returns the encoder command line for job, without the binary.
func (f *FFmpeg) Args(job Job) []string {
	return []string{
		"-r", strconv.FormatFloat(job.FrameRate, 'f', -1, 64),
		"-start_number", "0",
		"-i", filepath.Join(job.Dir, FramePattern),
		"-vcodec", f.Codec,
		"-y", job.Output,
	}
}

func (f *FFmpeg) Encode(ctx context.Context, job Job) error {
	args := f.Args(job)
	f.logger.Info("encoding video", "output", job.Output, "args", strings.Join(args, " "))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.Binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s: %v: %s", ErrEncoderFailure, job.Output, err, lastLines(stderr.String(), 5))
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
