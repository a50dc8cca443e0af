package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- URLs table: normalized URL components of every cited page
CREATE TABLE IF NOT EXISTS urls (
    url_id INTEGER PRIMARY KEY AUTOINCREMENT,
    original_url TEXT NOT NULL UNIQUE,
    canonical_url TEXT,
    scheme TEXT NOT NULL,
    domain TEXT NOT NULL,
    path TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_urls_domain ON urls(domain);

-- Citations: every rendered quotation template
CREATE TABLE IF NOT EXISTS citations (
    citation_id INTEGER PRIMARY KEY AUTOINCREMENT,
    url_id INTEGER NOT NULL,
    kind TEXT NOT NULL,           -- social-post, discussion-comment, article, ...
    language TEXT NOT NULL,
    title TEXT,
    authors TEXT,                 -- JSON array of names
    archive_url TEXT,
    archive_date TEXT,
    citation TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (url_id) REFERENCES urls(url_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_citations_url ON citations(url_id);
CREATE INDEX IF NOT EXISTS idx_citations_kind ON citations(kind);
CREATE INDEX IF NOT EXISTS idx_citations_created ON citations(created_at DESC);

-- Archive captures: every archive wait, successful or not
CREATE TABLE IF NOT EXISTS archive_captures (
    capture_id INTEGER PRIMARY KEY AUTOINCREMENT,
    url_id INTEGER NOT NULL,
    archive_url TEXT,
    archive_date TEXT,
    captured BOOLEAN NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (url_id) REFERENCES urls(url_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_captures_url ON archive_captures(url_id);
CREATE INDEX IF NOT EXISTS idx_captures_captured ON archive_captures(captured);
`
