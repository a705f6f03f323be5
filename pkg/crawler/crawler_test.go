package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dtnitsch/adbuilder/models"
	"github.com/dtnitsch/adbuilder/pkg/fetcher"
	"github.com/dtnitsch/adbuilder/pkg/workspace"
)

const listingPage = `<html><head><title>%[1]s</title></head><body>
<h2 class="h-carName">%[1]s</h2>
<span class="h-carPrice">%[2]s QAR</span>
<div class="h-carBestDetails clearfix">
  <div class="item">2019</div>
  <div class="item">
    %[3]s
    <span>km</span>
  </div>
</div>
<a href="tel:55512345">call</a>
<img class="img-responsive" src="/images/thumb/1.jpg">
<img class="img-responsive" src="http://%[4]s/images/thumb/2.jpg">
<img class="logo" src="/images/logo.png">
</body></html>`

type testSite struct {
	server   *httptest.Server
	requests atomic.Int32
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	site := &testSite{}
	mux := http.NewServeMux()
	page := func(model, price, mileage string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			site.requests.Add(1)
			fmt.Fprintf(w, listingPage, model, price, mileage, r.Host)
		}
	}
	for _, suffix := range []string{"", "/"} {
		mux.HandleFunc("/en/cars/123/land-cruiser"+suffix, page("Land Cruiser", "150,000", "30,000"))
		mux.HandleFunc("/ar/cars/123/land-cruiser"+suffix, page("لاند كروزر", "150,000", "30,000"))
	}
	mux.HandleFunc("/cars/555/patrol", page("Nissan Patrol Platinum", "99,000", "12,000"))
	// second photo points at an image the server does not have
	for _, lang := range []string{"en", "ar"} {
		mux.HandleFunc("/"+lang+"/cars/321/sunny", func(w http.ResponseWriter, r *http.Request) {
			site.requests.Add(1)
			body := fmt.Sprintf(listingPage, "Sunny", "20,000", "80,000", r.Host)
			fmt.Fprint(w, strings.Replace(body, "thumb/2.jpg", "thumb/9.jpg", 1))
		})
	}
	mux.HandleFunc("/en/cars/777/broken", func(w http.ResponseWriter, r *http.Request) {
		site.requests.Add(1)
		fmt.Fprint(w, `<html><body><h2 class="h-carName">Broken</h2></body></html>`)
	})
	mux.HandleFunc("/images/o_1.jpg", func(w http.ResponseWriter, r *http.Request) {
		site.requests.Add(1)
		w.Write([]byte("photo-one"))
	})
	mux.HandleFunc("/images/o_2.jpg", func(w http.ResponseWriter, r *http.Request) {
		site.requests.Add(1)
		w.Write([]byte("photo-two"))
	})
	site.server = httptest.NewServer(mux)
	t.Cleanup(site.server.Close)
	return site
}

type fakeLedger struct {
	urls    []string
	photos  []int
	locales [][]string
}

func (l *fakeLedger) RecordListing(runID, url, outDir string, photoCount int, locales []string) (int64, error) {
	l.urls = append(l.urls, url)
	l.photos = append(l.photos, photoCount)
	l.locales = append(l.locales, locales)
	return int64(len(l.urls)), nil
}

func newTestCrawler(t *testing.T) (*Crawler, string) {
	t.Helper()
	root := t.TempDir()
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(fetcher.NewFetcher(5*time.Second, "test"), workspace.NewManager(root, date), models.DefaultConfig().Selectors, logger)
	return c, root
}

func readMetadata(t *testing.T, dir string) map[string]models.ListingInfo {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, models.MetadataFile))
	if err != nil {
		t.Fatalf("metadata not written: %v", err)
	}
	var m map[string]models.ListingInfo
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("bad metadata: %v", err)
	}
	return m
}

func TestFetchBilingualListing(t *testing.T) {
	site := newTestSite(t)
	c, root := newTestCrawler(t)
	ledger := &fakeLedger{}
	c.SetLedger(ledger, "run-1")

	dir, err := c.Fetch(context.Background(), site.server.URL+"/en/cars/123/land-cruiser")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if want := filepath.Join(root, "2024", "01", "02", "123"); dir != want {
		t.Errorf("dir = %s, want %s", dir, want)
	}

	for name, body := range map[string]string{"1.jpg": "photo-one", "2.jpg": "photo-two"} {
		got, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("missing %s: %v", name, err)
			continue
		}
		if string(got) != body {
			t.Errorf("%s = %q, want %q", name, got, body)
		}
	}

	meta := readMetadata(t, dir)
	en, ar := meta["en"], meta["ar"]
	if en.Model != "Land Cruiser" || en.Price != "150,000" || en.Mileage != "30,000" || en.Tel != "55512345" {
		t.Errorf("unexpected en record %+v", en)
	}
	if ar.Model != "لاند كروزر" {
		t.Errorf("unexpected ar model %q", ar.Model)
	}

	raw, _ := os.ReadFile(filepath.Join(dir, models.MetadataFile))
	if !strings.Contains(string(raw), "لاند") {
		t.Error("arabic text must be written unescaped")
	}

	if len(ledger.urls) != 1 || ledger.photos[0] != 2 {
		t.Errorf("unexpected ledger calls %+v", ledger)
	}
	if len(ledger.locales[0]) != 2 || ledger.locales[0][0] != "ar" || ledger.locales[0][1] != "en" {
		t.Errorf("unexpected locales %v", ledger.locales[0])
	}
}

func TestFetchOnce(t *testing.T) {
	site := newTestSite(t)
	c, _ := newTestCrawler(t)
	url := site.server.URL + "/en/cars/123/land-cruiser/"

	first, err := c.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	before := site.requests.Load()

	second, err := c.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("second Fetch failed: %v", err)
	}
	if first != second {
		t.Errorf("dirs differ: %s vs %s", first, second)
	}
	if after := site.requests.Load(); after != before {
		t.Errorf("second fetch made %d requests", after-before)
	}
}

func TestFetchDetectsLocale(t *testing.T) {
	site := newTestSite(t)
	c, _ := newTestCrawler(t)

	dir, err := c.Fetch(context.Background(), site.server.URL+"/cars/555/patrol")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	meta := readMetadata(t, dir)
	if len(meta) != 1 {
		t.Fatalf("expected a single locale, got %v", meta)
	}
	if meta["en"].Model != "Nissan Patrol Platinum" {
		t.Errorf("unexpected record %+v", meta)
	}
}

func TestFetchMissingSelector(t *testing.T) {
	site := newTestSite(t)
	c, root := newTestCrawler(t)

	_, err := c.Fetch(context.Background(), site.server.URL+"/en/cars/777/broken")
	if !errors.Is(err, ErrMissingSelector) {
		t.Fatalf("expected ErrMissingSelector, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "2024", "01", "02", "777")); !os.IsNotExist(err) {
		t.Error("no folder should be created for a broken listing")
	}
}

func TestFetchFailedDownloadLeavesNoFolder(t *testing.T) {
	site := newTestSite(t)
	c, root := newTestCrawler(t)
	url := site.server.URL + "/en/cars/321/sunny"
	dateDir := filepath.Join(root, "2024", "01", "02")

	if _, err := c.Fetch(context.Background(), url); err == nil {
		t.Fatal("expected error for a missing photo")
	}
	if _, err := os.Stat(filepath.Join(dateDir, "321")); !os.IsNotExist(err) {
		t.Error("no folder should be left for a partial download")
	}
	entries, err := os.ReadDir(dateDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("leftover entries in date folder: %v", entries)
	}

	before := site.requests.Load()
	if _, err := c.Fetch(context.Background(), url); err == nil {
		t.Fatal("second Fetch must retry and fail again")
	}
	if site.requests.Load() == before {
		t.Error("second Fetch did not go back to the network")
	}
}

func TestFetchHTTPError(t *testing.T) {
	site := newTestSite(t)
	c, _ := newTestCrawler(t)

	if _, err := c.Fetch(context.Background(), site.server.URL+"/en/cars/404/missing"); err == nil {
		t.Fatal("expected error for missing page")
	}
}
