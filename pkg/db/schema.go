package db

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- One row per listing fetch (fetch-once: re-runs on the same day hit the folder, not the network)
CREATE TABLE IF NOT EXISTS listings (
    listing_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    url TEXT NOT NULL,
    out_dir TEXT NOT NULL,
    photo_count INTEGER DEFAULT 0,
    locales TEXT,
    fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_listings_url ON listings(url);

-- Rendered or skipped artifacts per batch run
CREATE TABLE IF NOT EXISTS renders (
    render_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    descriptor TEXT NOT NULL,
    post_folder TEXT NOT NULL,
    kind TEXT NOT NULL,      -- image, video
    status TEXT NOT NULL,    -- rendered, skipped, missing_asset, encoder_failed
    path TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_renders_run ON renders(run_id);
`
