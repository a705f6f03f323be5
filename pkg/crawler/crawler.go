// Package crawler downloads a listing's photos and bilingual details into its
// dated resource folder.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"

	"github.com/dtnitsch/adbuilder/models"
	"github.com/dtnitsch/adbuilder/pkg/fetcher"
	"github.com/dtnitsch/adbuilder/pkg/locale"
	"github.com/dtnitsch/adbuilder/pkg/parser"
	"github.com/dtnitsch/adbuilder/pkg/storage"
	"github.com/dtnitsch/adbuilder/pkg/workspace"
)

// ErrMissingSelector means the page no longer has the structure a selector
// expects. The batch cannot continue past it.
var ErrMissingSelector = errors.New("missing selector match")

// Ledger records completed listing fetches. *db.DB satisfies it.
type Ledger interface {
	RecordListing(runID, url, outDir string, photoCount int, locales []string) (int64, error)
}

type Crawler struct {
	fetcher   *fetcher.Fetcher
	workspace *workspace.Manager
	storage   *storage.Storage
	parser    *parser.Parser
	detector  *locale.Detector
	selectors models.Selectors
	ledger    Ledger
	runID     string
	logger    *slog.Logger
}

func New(f *fetcher.Fetcher, ws *workspace.Manager, sel models.Selectors, logger *slog.Logger) *Crawler {
	return &Crawler{
		fetcher:   f,
		workspace: ws,
		storage:   &storage.Storage{},
		parser:    &parser.Parser{},
		selectors: sel,
		logger:    logger.With("component", "crawler"),
	}
}

// SetLedger makes Fetch record every listing it downloads under runID.
func (c *Crawler) SetLedger(l Ledger, runID string) {
	c.ledger = l
	c.runID = runID
}

// page is one language version of a listing.
type page struct {
	url  string
	doc  *goquery.Document
	html []byte
}

// Fetch downloads a listing into its resource folder and returns the folder.
// A folder that already exists is returned as is, without network access.
func (c *Crawler) Fetch(ctx context.Context, listingURL string) (string, error) {
	listingURL = strings.TrimSpace(listingURL)
	dir, err := c.workspace.ListingDir(listingURL)
	if err != nil {
		return "", err
	}
	logger := c.logger.With("url", listingURL, "dir", dir)

	if c.storage.HasFile(dir) {
		logger.Info("listing already fetched")
		return dir, nil
	}

	primary, err := c.load(ctx, listingURL)
	if err != nil {
		return "", err
	}

	info, err := c.extractInfo(primary)
	if err != nil {
		return "", fmt.Errorf("%s: %w", listingURL, err)
	}

	meta := map[locale.Locale]models.ListingInfo{}
	if loc, ok := locale.FromURL(listingURL); ok {
		meta[loc] = info
		other, err := c.counterpart(ctx, listingURL, loc)
		if err != nil {
			return "", err
		}
		meta[loc.Other()] = other
	} else {
		loc = c.detect(info)
		logger.Info("no locale in url, detected from page", "locale", loc)
		meta[loc] = info
	}

	images, err := c.imageURLs(primary)
	if err != nil {
		return "", err
	}
	if len(images) == 0 {
		logger.Warn("no listing images found", "selector", c.selectors.Images)
	}

	// The listing is assembled in a hidden sibling and renamed into place,
	// so a folder at dir is always complete.
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return "", fmt.Errorf("failed to create date folder: %w", err)
	}
	tmp, err := os.MkdirTemp(filepath.Dir(dir), "."+filepath.Base(dir)+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create listing folder: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := c.download(ctx, images, tmp, logger); err != nil {
		return "", err
	}

	record := make(map[string]models.ListingInfo, len(meta))
	var locales []string
	for _, l := range locale.All {
		if v, ok := meta[l]; ok {
			record[l.String()] = v
			locales = append(locales, l.String())
		}
	}
	if err := c.storage.SaveJSON(filepath.Join(tmp, models.MetadataFile), record); err != nil {
		return "", err
	}
	if err := os.Chmod(tmp, 0755); err != nil {
		return "", fmt.Errorf("failed to create listing folder: %w", err)
	}
	if err := os.Rename(tmp, dir); err != nil {
		return "", fmt.Errorf("failed to move listing folder into place: %w", err)
	}

	if c.ledger != nil {
		if _, err := c.ledger.RecordListing(c.runID, listingURL, dir, len(images), locales); err != nil {
			logger.Warn("failed to record listing", "error", err)
		}
	}
	logger.Info("listing fetched", "photos", len(images), "locales", locales)
	return dir, nil
}

func (c *Crawler) load(ctx context.Context, pageURL string) (*page, error) {
	doc, raw, err := c.fetcher.GetHtml(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return &page{url: pageURL, doc: doc, html: raw}, nil
}

func (c *Crawler) counterpart(ctx context.Context, listingURL string, from locale.Locale) (models.ListingInfo, error) {
	otherURL, err := locale.SwapURL(listingURL, from, from.Other())
	if err != nil {
		return models.ListingInfo{}, err
	}
	p, err := c.load(ctx, otherURL)
	if err != nil {
		return models.ListingInfo{}, err
	}
	info, err := c.extractInfo(p)
	if err != nil {
		return models.ListingInfo{}, fmt.Errorf("%s: %w", otherURL, err)
	}
	return info, nil
}

// detect guesses the page language from its model name, falling back to
// English.
func (c *Crawler) detect(info models.ListingInfo) locale.Locale {
	if c.detector == nil {
		c.detector = locale.NewDetector()
	}
	if loc, ok := c.detector.Detect(info.Model + " " + info.Title); ok {
		return loc
	}
	return locale.English
}

func (c *Crawler) download(ctx context.Context, images []string, dir string, logger *slog.Logger) error {
	var total int64
	for i, img := range images {
		dst := filepath.Join(dir, strconv.Itoa(i+1)+".jpg")
		n, err := c.fetcher.Download(ctx, img, dst)
		if err != nil {
			return fmt.Errorf("failed to download image %d: %w", i+1, err)
		}
		total += n
		logger.Info("downloaded image", "src", img, "file", filepath.Base(dst), "size", humanize.Bytes(uint64(n)))
	}
	if len(images) > 0 {
		logger.Info("images downloaded", "count", len(images), "total", humanize.Bytes(uint64(total)))
	}
	return nil
}

// imageURLs returns full-size photo URLs in page order.
func (c *Crawler) imageURLs(p *page) ([]string, error) {
	base, err := url.Parse(p.url)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	var urls []string
	p.doc.Find(c.selectors.Images).Each(func(i int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		src = strings.TrimSpace(src)
		if !ok || src == "" {
			return
		}
		if c.selectors.ThumbToken != "" {
			src = strings.ReplaceAll(src, c.selectors.ThumbToken, c.selectors.FullToken)
		}
		ref, err := url.Parse(src)
		if err != nil {
			c.logger.Warn("skipping bad image url", "src", src, "error", err)
			return
		}
		urls = append(urls, base.ResolveReference(ref).String())
	})
	return urls, nil
}
