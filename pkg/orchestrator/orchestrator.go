// Package orchestrator runs a batch: fetch every listing, then render every
// descriptor named by the index into its dated post folder.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtnitsch/adbuilder/models"
	"github.com/dtnitsch/adbuilder/pkg/compositor"
	"github.com/dtnitsch/adbuilder/pkg/crawler"
	"github.com/dtnitsch/adbuilder/pkg/db"
	"github.com/dtnitsch/adbuilder/pkg/encoder"
	"github.com/dtnitsch/adbuilder/pkg/fetcher"
	"github.com/dtnitsch/adbuilder/pkg/manifest"
	"github.com/dtnitsch/adbuilder/pkg/shaper"
	"github.com/dtnitsch/adbuilder/pkg/storage"
	"github.com/dtnitsch/adbuilder/pkg/video"
	"github.com/dtnitsch/adbuilder/pkg/workspace"
)

// Ledger is the run history store. *db.DB satisfies it.
type Ledger interface {
	crawler.Ledger
	RecordRender(r db.Render) (int64, error)
}

type Option func(*Orchestrator)

// WithClock fixes the day used for the dated folders.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithLedger records listings and renders under the batch's run ID.
func WithLedger(l Ledger) Option {
	return func(o *Orchestrator) { o.ledger = l }
}

// WithEncoder replaces the ffmpeg encoder.
func WithEncoder(enc encoder.Encoder) Option {
	return func(o *Orchestrator) { o.encoder = enc }
}

type Orchestrator struct {
	cfg        *models.Config
	runID      string
	now        func() time.Time
	ledger     Ledger
	encoder    encoder.Encoder
	workspace  *workspace.Manager
	crawler    *crawler.Crawler
	compositor *compositor.Compositor
	assembler  *video.Assembler
	storage    *storage.Storage
	manifest   *manifest.RunManifest
	logger     *slog.Logger
}

func New(cfg *models.Config, logger *slog.Logger, opts ...Option) (*Orchestrator, error) {
	background, err := models.ParseHexColor(cfg.CaptionBackground)
	if err != nil {
		return nil, fmt.Errorf("invalid caption_background: %w", err)
	}

	o := &Orchestrator{
		cfg:     cfg,
		runID:   uuid.New().String(),
		now:     time.Now,
		storage: &storage.Storage{},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logger.With("run_id", o.runID)
	if o.encoder == nil {
		o.encoder = encoder.NewFFmpeg(cfg.FFmpegBinary, cfg.VideoCodec, o.logger)
	}

	o.workspace = workspace.NewManager(cfg.OutputRoot, o.now())
	o.crawler = crawler.New(fetcher.NewFetcher(cfg.HTTPTimeout, cfg.UserAgent), o.workspace, cfg.Selectors, o.logger)
	if o.ledger != nil {
		o.crawler.SetLedger(o.ledger, o.runID)
	}
	o.compositor = compositor.New(compositor.Options{
		TemplatesDir:      cfg.TemplatesDir,
		CaptionBackground: background,
		MaxFontSize:       cfg.MaxFontSize,
		JPEGQuality:       cfg.JPEGQuality,
	}, shaper.New(), o.logger)
	o.assembler = video.NewAssembler(o.compositor, o.encoder, cfg.DescriptorsDir, o.logger)
	return o, nil
}

func (o *Orchestrator) RunID() string {
	return o.runID
}

// Crawler exposes the listing fetcher configured for this run.
func (o *Orchestrator) Crawler() *crawler.Crawler {
	return o.crawler
}

// Run fetches urls in order, then renders the index. The first fetch error,
// malformed descriptor or I/O failure aborts the batch. Missing assets and
// encoder failures are logged and skipped. A run manifest is written under the
// date folder either way.
func (o *Orchestrator) Run(ctx context.Context, urls []string, index models.Index) error {
	started := o.now()
	o.manifest = &manifest.RunManifest{RunID: o.runID}
	defer o.writeManifest()
	o.logger.Info("batch started", "urls", len(urls), "post_folders", len(index), "date_dir", o.workspace.DateDir())

	for _, u := range urls {
		if _, err := o.crawler.Fetch(ctx, u); err != nil {
			return fmt.Errorf("failed to fetch %s: %w", u, err)
		}
		o.manifest.Listings = append(o.manifest.Listings, u)
	}

	for _, entry := range index {
		for _, file := range entry.Descriptors {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := o.render(ctx, entry.Folder(), file); err != nil {
				return fmt.Errorf("%s/%s: %w", entry.Label, file, err)
			}
		}
	}

	o.logger.Info("batch finished", "duration", o.now().Sub(started).String())
	return nil
}

func (o *Orchestrator) render(ctx context.Context, folder, file string) error {
	postDir := o.workspace.PostDir(folder)
	logger := o.logger.With("post_folder", folder, "descriptor", file)

	if src := filepath.Join(o.cfg.DescriptorsDir, file); o.storage.HasFile(src) {
		if err := o.storage.CopyFile(src, filepath.Join(postDir, file)); err != nil {
			return err
		}
	}
	desc, err := models.LoadDescriptor(filepath.Join(postDir, file))
	if err != nil {
		return err
	}

	name := models.BaseName(file)
	switch {
	case len(desc.SaveFormats) == 0:
	case compositor.Generated(postDir, name, desc.SaveFormats):
		logger.Info("image already generated")
		o.record(file, folder, models.KindImage, models.StatusSkipped, "")
	default:
		if err := o.compose(desc, postDir, name, file, folder, logger); err != nil {
			return err
		}
	}

	results, err := o.assembler.Assemble(ctx, desc, postDir)
	if err != nil {
		return err
	}
	for _, res := range results {
		status := models.StatusRendered
		switch {
		case res.Err != nil:
			status = models.StatusEncoderFailed
			logger.Warn("video not encoded", "video", res.Name, "error", res.Err)
		case res.Frames == 0:
			status = models.StatusMissingAsset
		}
		o.record(file, folder, models.KindVideo, status, res.Output)
	}
	return nil
}

func (o *Orchestrator) compose(desc *models.PostDescriptor, postDir, name, file, folder string, logger *slog.Logger) error {
	img, err := o.compositor.Compose(desc, postDir)
	if errors.Is(err, compositor.ErrMissingAsset) {
		logger.Warn("skipping descriptor with missing asset", "error", err)
		o.record(file, folder, models.KindImage, models.StatusMissingAsset, "")
		return nil
	}
	if err != nil {
		return err
	}

	written, err := o.compositor.Save(img, postDir, name, desc.SaveFormats)
	if err != nil {
		return err
	}
	logger.Info("image rendered", "files", written)
	o.record(file, folder, models.KindImage, models.StatusRendered, strings.Join(written, ","))
	return nil
}

func (o *Orchestrator) writeManifest() {
	o.manifest.GeneratedAt = o.now()
	path, err := manifest.Write(o.workspace.DateDir(), o.manifest)
	if err != nil {
		o.logger.Warn("failed to write run manifest", "error", err)
		return
	}
	o.logger.Info("run manifest written", "path", path,
		"rendered", o.manifest.Rendered, "skipped", o.manifest.Skipped, "failed", o.manifest.Failed)
}

func (o *Orchestrator) record(descriptor, folder, kind, status, path string) {
	if o.manifest != nil {
		o.manifest.Add(manifest.Entry{
			PostFolder: folder,
			Descriptor: descriptor,
			Kind:       kind,
			Status:     status,
			Path:       path,
		})
	}
	if o.ledger == nil {
		return
	}
	_, err := o.ledger.RecordRender(db.Render{
		RunID:      o.runID,
		Descriptor: descriptor,
		PostFolder: folder,
		Kind:       kind,
		Status:     status,
		Path:       path,
	})
	if err != nil {
		o.logger.Warn("failed to record render", "descriptor", descriptor, "error", err)
	}
}
