package db

import (
	"fmt"
	"strings"
	"time"
)

// Listing is a row of the listings table.
type Listing struct {
	ListingID  int64
	RunID      string
	URL        string
	OutDir     string
	PhotoCount int
	Locales    []string
	FetchedAt  time.Time
}

// Render is a row of the renders table.
type Render struct {
	RenderID   int64
	RunID      string
	Descriptor string
	PostFolder string
	Kind       string
	Status     string
	Path       string
	CreatedAt  time.Time
}

// RecordListing stores a completed listing fetch and returns its listing_id.
func (db *DB) RecordListing(runID, url, outDir string, photoCount int, locales []string) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO listings (run_id, url, out_dir, photo_count, locales)
		VALUES (?, ?, ?, ?, ?)
	`, runID, url, outDir, photoCount, strings.Join(locales, ","))
	if err != nil {
		return 0, fmt.Errorf("failed to insert listing: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get listing ID: %w", err)
	}
	return id, nil
}

// RecordRender stores the outcome of one descriptor render.
func (db *DB) RecordRender(r Render) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO renders (run_id, descriptor, post_folder, kind, status, path)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.RunID, r.Descriptor, r.PostFolder, r.Kind, r.Status, r.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to insert render: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get render ID: %w", err)
	}
	return id, nil
}

// ListListings returns the most recent listing fetches, newest first.
func (db *DB) ListListings(limit int) ([]Listing, error) {
	rows, err := db.Query(`
		SELECT listing_id, run_id, url, out_dir, photo_count, COALESCE(locales, ''), fetched_at
		FROM listings
		ORDER BY listing_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		var l Listing
		var locales string
		if err := rows.Scan(&l.ListingID, &l.RunID, &l.URL, &l.OutDir, &l.PhotoCount, &locales, &l.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		if locales != "" {
			l.Locales = strings.Split(locales, ",")
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// ListRenders returns the most recent renders, newest first.
func (db *DB) ListRenders(limit int) ([]Render, error) {
	rows, err := db.Query(`
		SELECT render_id, run_id, descriptor, post_folder, kind, status, COALESCE(path, ''), created_at
		FROM renders
		ORDER BY render_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query renders: %w", err)
	}
	defer rows.Close()

	var renders []Render
	for rows.Next() {
		var r Render
		if err := rows.Scan(&r.RenderID, &r.RunID, &r.Descriptor, &r.PostFolder, &r.Kind, &r.Status, &r.Path, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan render: %w", err)
		}
		renders = append(renders, r)
	}
	return renders, rows.Err()
}

// CountRenders returns how many renders of a run ended with status.
func (db *DB) CountRenders(runID, status string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM renders WHERE run_id = ? AND status = ?`, runID, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count renders: %w", err)
	}
	return n, nil
}
