package orchestrator

import (
	"context"
	"errors"
	"image/color"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/dtnitsch/adbuilder/models"
	"github.com/dtnitsch/adbuilder/pkg/db"
	"github.com/dtnitsch/adbuilder/pkg/encoder"
	"github.com/dtnitsch/adbuilder/pkg/manifest"
)

var testDate = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

type fakeEncoder struct {
	jobs []encoder.Job
}

func (e *fakeEncoder) Encode(ctx context.Context, job encoder.Job) error {
	e.jobs = append(e.jobs, job)
	return nil
}

type batch struct {
	cfg     *models.Config
	postDir string
	encoder *fakeEncoder
}

func setupBatch(t *testing.T, descriptor string) batch {
	t.Helper()
	root := t.TempDir()
	cfg := models.DefaultConfig()
	cfg.OutputRoot = root
	cfg.TemplatesDir = filepath.Join(root, "templates")
	cfg.DescriptorsDir = filepath.Join(root, "descriptors")

	postDir := filepath.Join(root, "2024", "01", "02", "post")
	for _, dir := range []string{cfg.TemplatesDir, cfg.DescriptorsDir, postDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	save := func(path string, c color.NRGBA, w, h int) {
		if err := imaging.Save(imaging.New(w, h, c), path); err != nil {
			t.Fatal(err)
		}
	}
	save(filepath.Join(cfg.TemplatesDir, "base.png"), color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, 60, 60)
	save(filepath.Join(cfg.TemplatesDir, "overlay.png"), color.NRGBA{}, 60, 60)
	save(filepath.Join(postDir, "1.jpg"), color.NRGBA{R: 0xff, A: 0xff}, 30, 30)

	if err := os.WriteFile(filepath.Join(cfg.DescriptorsDir, "post.json"), []byte(descriptor), 0644); err != nil {
		t.Fatal(err)
	}
	return batch{cfg: cfg, postDir: postDir, encoder: &fakeEncoder{}}
}

func (b batch) run(t *testing.T, ledger Ledger, urls []string, index string) (*Orchestrator, error) {
	t.Helper()
	idx, err := models.ParseIndex([]byte(index))
	if err != nil {
		t.Fatal(err)
	}
	opts := []Option{WithClock(func() time.Time { return testDate }), WithEncoder(b.encoder)}
	if ledger != nil {
		opts = append(opts, WithLedger(ledger))
	}
	o, err := New(b.cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
	if err != nil {
		t.Fatal(err)
	}
	return o, o.Run(context.Background(), urls, idx)
}

const photoDescriptor = `{
	"template": "base.png",
	"template_overlay": "overlay.png",
	"images": [{"file": "1.jpg", "crop_width": 0, "crop_height": 0, "fit_width": 20, "fit_height": 20, "x": 5, "y": 5}],
	"captions": [],
	"save_formats": ["jpg", "png"]
}`

func TestRunRendersAndIsIdempotent(t *testing.T) {
	b := setupBatch(t, photoDescriptor)
	const index = `{"post": ["post.json"]}`

	if _, err := b.run(t, nil, nil, index); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	outputs := []string{"post.jpg", "post.png"}
	old := testDate.Add(-time.Hour)
	for _, name := range outputs {
		path := filepath.Join(b.postDir, name)
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := os.Stat(filepath.Join(b.postDir, "post.json")); err != nil {
		t.Errorf("descriptor not copied into post folder: %v", err)
	}

	o, err := b.run(t, nil, nil, index)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	for _, name := range outputs {
		info, err := os.Stat(filepath.Join(b.postDir, name))
		if err != nil {
			t.Fatal(err)
		}
		if !info.ModTime().Equal(old) {
			t.Errorf("%s was rewritten on the second run", name)
		}
	}

	m, err := manifest.Load(manifest.Path(filepath.Dir(b.postDir), o.RunID()))
	if err != nil {
		t.Fatalf("run manifest: %v", err)
	}
	if m.Skipped != 1 || m.Rendered != 0 {
		t.Errorf("second run manifest = %+v, want one skip", m)
	}
}

func TestRunMissingAssetSkips(t *testing.T) {
	b := setupBatch(t, `{
		"template": "base.png",
		"template_overlay": "overlay.png",
		"images": [{"file": "9.jpg", "fit_width": 20, "fit_height": 20}],
		"captions": [],
		"save_formats": ["jpg"]
	}`)

	if _, err := b.run(t, nil, nil, `{"post": ["post.json"]}`); err != nil {
		t.Fatalf("missing asset must not abort the batch: %v", err)
	}
	if _, err := os.Stat(filepath.Join(b.postDir, "post.jpg")); !os.IsNotExist(err) {
		t.Error("no output expected for a descriptor with a missing asset")
	}
}

func TestRunMalformedDescriptorAborts(t *testing.T) {
	b := setupBatch(t, `{"template_overlay": "overlay.png", "save_formats": ["jpg"]}`)

	_, err := b.run(t, nil, nil, `{"post": ["post.json"]}`)
	if !errors.Is(err, models.ErrMalformedDescriptor) {
		t.Fatalf("expected ErrMalformedDescriptor, got %v", err)
	}
}

func TestRunFetchErrorAborts(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	b := setupBatch(t, photoDescriptor)

	_, err := b.run(t, nil, []string{server.URL + "/en/cars/1/x"}, `{"post": ["post.json"]}`)
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if _, err := os.Stat(filepath.Join(b.postDir, "post.jpg")); !os.IsNotExist(err) {
		t.Error("no rendering should happen after a failed fetch")
	}
}

func TestRunVideoAndLedger(t *testing.T) {
	b := setupBatch(t, photoDescriptor)
	reel := `{"template": "", "template_overlay": "", "images": [], "captions": [], "save_formats": [],
		"videos": [{"name": "reel", "images": ["post.json", "post.json"], "image_duration": 1}]}`
	if err := os.WriteFile(filepath.Join(b.cfg.DescriptorsDir, "reel.json"), []byte(reel), 0644); err != nil {
		t.Fatal(err)
	}

	ledger, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer ledger.Close()

	o, err := b.run(t, ledger, nil, `{"post": ["post.json", "reel.json"]}`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, name := range []string{"0.jpg", "1.jpg"} {
		if _, err := os.Stat(filepath.Join(b.postDir, "reel", name)); err != nil {
			t.Errorf("missing frame %s: %v", name, err)
		}
	}
	if len(b.encoder.jobs) != 1 {
		t.Fatalf("expected one encode, got %d", len(b.encoder.jobs))
	}

	rendered, err := ledger.CountRenders(o.RunID(), models.StatusRendered)
	if err != nil {
		t.Fatal(err)
	}
	if rendered != 2 {
		t.Errorf("rendered = %d, want 2 (image and video)", rendered)
	}
}
