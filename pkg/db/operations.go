package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// InsertURL parses and inserts a URL, returning the url_id.
// If the URL already exists, returns the existing url_id.
func (db *DB) InsertURL(rawURL string) (int64, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return 0, fmt.Errorf("failed to parse URL: %q is not absolute", rawURL)
	}

	// Check if URL already exists
	var existingID int64
	err = db.QueryRow("SELECT url_id FROM urls WHERE original_url = ?", rawURL).Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check existing URL: %w", err)
	}

	// Extract canonical URL (scheme + host + path, no query/fragment)
	canonicalURL := fmt.Sprintf("%s://%s%s", parsed.Scheme, parsed.Host, parsed.Path)

	result, err := db.Exec(`
		INSERT INTO urls (original_url, canonical_url, scheme, domain, path)
		VALUES (?, ?, ?, ?, ?)
	`, rawURL, canonicalURL, parsed.Scheme, parsed.Host, parsed.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to insert URL: %w", err)
	}

	urlID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get URL ID: %w", err)
	}
	return urlID, nil
}

// GetURLID retrieves url_id for a URL.
func (db *DB) GetURLID(originalURL string) (int64, error) {
	var urlID int64
	err := db.QueryRow("SELECT url_id FROM urls WHERE original_url = ?", originalURL).Scan(&urlID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("URL %s: %w", originalURL, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get URL ID: %w", err)
	}
	return urlID, nil
}

// Capture is one archive wait recorded against a URL.
type Capture struct {
	ArchiveURL  string
	ArchiveDate string
	Captured    bool
	CreatedAt   time.Time
}

// RecordCapture stores the outcome of an archive wait. An empty archiveURL
// records a timeout.
func (db *DB) RecordCapture(urlID int64, archiveURL, archiveDate string) error {
	_, err := db.Exec(`
		INSERT INTO archive_captures (url_id, archive_url, archive_date, captured)
		VALUES (?, ?, ?, ?)
	`, urlID, NewNullString(archiveURL), NewNullString(archiveDate), archiveURL != "")
	if err != nil {
		return fmt.Errorf("failed to record capture: %w", err)
	}
	return nil
}

// RecordArchive registers pageURL if needed and records a capture for it.
func (db *DB) RecordArchive(pageURL, archiveURL, archiveDate string) error {
	urlID, err := db.InsertURL(pageURL)
	if err != nil {
		return err
	}
	return db.RecordCapture(urlID, archiveURL, archiveDate)
}

// LastCapture returns the most recent successful capture of urlID.
func (db *DB) LastCapture(urlID int64) (*Capture, error) {
	var c Capture
	var archiveURL, archiveDate sql.NullString
	err := db.QueryRow(`
		SELECT archive_url, archive_date, captured, created_at
		FROM archive_captures
		WHERE url_id = ? AND captured = 1
		ORDER BY created_at DESC, capture_id DESC
		LIMIT 1
	`, urlID).Scan(&archiveURL, &archiveDate, &c.Captured, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("capture for url %d: %w", urlID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last capture: %w", err)
	}
	c.ArchiveURL = archiveURL.String
	c.ArchiveDate = archiveDate.String
	return &c, nil
}

// Citation is one rendered citation.
type Citation struct {
	ID          int64     `json:"id" yaml:"id"`
	URL         string    `json:"url" yaml:"url"`
	Domain      string    `json:"domain" yaml:"domain"`
	Kind        string    `json:"kind" yaml:"kind"`
	Language    string    `json:"language" yaml:"language"`
	Title       string    `json:"title,omitempty" yaml:"title,omitempty"`
	Authors     []string  `json:"authors,omitempty" yaml:"authors,omitempty"`
	ArchiveURL  string    `json:"archive_url,omitempty" yaml:"archive_url,omitempty"`
	ArchiveDate string    `json:"archive_date,omitempty" yaml:"archive_date,omitempty"`
	Text        string    `json:"citation" yaml:"citation"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// InsertCitation stores c, registering its URL if needed, and returns the
// citation_id.
func (db *DB) InsertCitation(c Citation) (int64, error) {
	urlID, err := db.InsertURL(c.URL)
	if err != nil {
		return 0, err
	}

	authors, err := json.Marshal(c.Authors)
	if err != nil {
		return 0, fmt.Errorf("failed to encode authors: %w", err)
	}

	result, err := db.Exec(`
		INSERT INTO citations (url_id, kind, language, title, authors, archive_url, archive_date, citation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, urlID, c.Kind, c.Language, NewNullString(c.Title), string(authors),
		NewNullString(c.ArchiveURL), NewNullString(c.ArchiveDate), c.Text)
	if err != nil {
		return 0, fmt.Errorf("failed to insert citation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get citation ID: %w", err)
	}
	return id, nil
}

const citationColumns = `
	c.citation_id, u.original_url, u.domain, c.kind, c.language, c.title, c.authors,
	c.archive_url, c.archive_date, c.citation, c.created_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCitation(row rowScanner) (Citation, error) {
	var c Citation
	var title, authors, archiveURL, archiveDate sql.NullString
	if err := row.Scan(&c.ID, &c.URL, &c.Domain, &c.Kind, &c.Language, &title, &authors,
		&archiveURL, &archiveDate, &c.Text, &c.CreatedAt); err != nil {
		return Citation{}, err
	}
	c.Title = title.String
	c.ArchiveURL = archiveURL.String
	c.ArchiveDate = archiveDate.String
	if authors.Valid && authors.String != "" {
		if err := json.Unmarshal([]byte(authors.String), &c.Authors); err != nil {
			return Citation{}, fmt.Errorf("failed to decode authors: %w", err)
		}
	}
	return c, nil
}

// GetCitation retrieves one citation by id.
func (db *DB) GetCitation(id int64) (*Citation, error) {
	row := db.QueryRow(`SELECT `+citationColumns+`
		FROM citations c JOIN urls u ON c.url_id = u.url_id
		WHERE c.citation_id = ?`, id)
	c, err := scanCitation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("citation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get citation: %w", err)
	}
	return &c, nil
}

// HistoryFilter narrows ListCitations. Zero values match everything.
type HistoryFilter struct {
	Kind       string
	URLPattern string
	TodayOnly  bool
	Limit      int
}

// ListCitations returns citations newest first.
func (db *DB) ListCitations(f HistoryFilter) ([]Citation, error) {
	query := `SELECT ` + citationColumns + `
		FROM citations c JOIN urls u ON c.url_id = u.url_id`

	var conditions []string
	var args []interface{}

	if f.Kind != "" {
		conditions = append(conditions, "c.kind = ?")
		args = append(args, f.Kind)
	}
	if f.URLPattern != "" {
		conditions = append(conditions, "u.original_url LIKE ?")
		args = append(args, "%"+f.URLPattern+"%")
	}
	if f.TodayOnly {
		conditions = append(conditions, "DATE(c.created_at) = DATE('now')")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY c.created_at DESC, c.citation_id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query citations: %w", err)
	}
	defer rows.Close()

	var citations []Citation
	for rows.Next() {
		c, err := scanCitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan citation: %w", err)
		}
		citations = append(citations, c)
	}
	return citations, rows.Err()
}

// NewNullString creates a sql.NullString from a string (empty string = NULL)
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
