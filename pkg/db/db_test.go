package db

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Use in-memory database for tests
	database := &DB{path: ":memory:"}
	var err error
	database.DB, err = openDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	return database
}

func TestOpen_CreatesSchemaOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := first.InsertCitation(Citation{URL: "https://example.com/a", Kind: "article", Language: "en", Text: "#* {{quote-web|en|title=A}}"}); err != nil {
		t.Fatalf("InsertCitation() error = %v", err)
	}
	first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer second.Close()

	if second.Path() != path {
		t.Errorf("Path() = %q, want %q", second.Path(), path)
	}
	got, err := second.ListCitations(HistoryFilter{})
	if err != nil {
		t.Fatalf("ListCitations() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("ListCitations() returned %d rows after reopen, want 1", len(got))
	}
}

func TestInsertURL(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{
			name:    "simple HTTPS URL",
			url:     "https://example.com",
			wantErr: false,
		},
		{
			name:    "URL with path",
			url:     "https://www.reddit.com/r/test/comments/abc/comment/def/",
			wantErr: false,
		},
		{
			name:    "relative URL rejected",
			url:     "/just/a/path",
			wantErr: true,
		},
		{
			name:    "duplicate URL returns same ID",
			url:     "https://example.com",
			wantErr: false,
		},
	}

	var firstID int64
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urlID, err := db.InsertURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("InsertURL() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if urlID == 0 && !tt.wantErr {
				t.Error("InsertURL() returned 0 ID")
			}

			// First and last test use same URL, should get same ID
			if i == 0 {
				firstID = urlID
			}
			if i == len(tests)-1 && urlID != firstID {
				t.Errorf("Duplicate URL got different ID: got %d, want %d", urlID, firstID)
			}
		})
	}
}

func TestInsertURL_ParsesComponents(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	urlID, err := db.InsertURL("https://archive.org/details/mobydick/page/42")
	if err != nil {
		t.Fatalf("InsertURL() failed: %v", err)
	}

	var scheme, domain, path string
	err = db.QueryRow(`SELECT scheme, domain, path FROM urls WHERE url_id = ?`, urlID).Scan(&scheme, &domain, &path)
	if err != nil {
		t.Fatalf("failed to query URL: %v", err)
	}

	if scheme != "https" || domain != "archive.org" || path != "/details/mobydick/page/42" {
		t.Errorf("components = %q %q %q", scheme, domain, path)
	}

	gotID, err := db.GetURLID("https://archive.org/details/mobydick/page/42")
	if err != nil || gotID != urlID {
		t.Errorf("GetURLID() = %d, %v; want %d", gotID, err, urlID)
	}
	if _, err := db.GetURLID("https://nonexistent.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetURLID() error = %v, want ErrNotFound", err)
	}
}

func TestCitation_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	want := Citation{
		URL:         "https://www.reddit.com/r/test/comments/abc/comment/def/",
		Kind:        "discussion-comment",
		Language:    "en",
		Title:       "My Post",
		Authors:     []string{"u/alice"},
		ArchiveURL:  "https://archive.ph/Ab12C",
		ArchiveDate: "2024-01-15",
		Text:        "#* {{quote-web|en|author=u/alice|title=My Post}}",
	}
	id, err := db.InsertCitation(want)
	if err != nil {
		t.Fatalf("InsertCitation() error = %v", err)
	}

	got, err := db.GetCitation(id)
	if err != nil {
		t.Fatalf("GetCitation() error = %v", err)
	}
	if got.ID != id || got.Domain != "www.reddit.com" || got.CreatedAt.IsZero() {
		t.Errorf("GetCitation() = %+v", got)
	}

	got.ID, got.Domain, got.CreatedAt = 0, "", want.CreatedAt
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("GetCitation() =\n%+v\nwant\n%+v", *got, want)
	}

	if _, err := db.GetCitation(id + 100); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetCitation(missing) error = %v, want ErrNotFound", err)
	}
}

func TestListCitations_Filters(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	rows := []Citation{
		{URL: "https://x.com/jack/status/20", Kind: "social-post", Language: "en", Text: "one"},
		{URL: "https://www.nytimes.com/2024/01/15/a.html", Kind: "article", Language: "en", Text: "two"},
		{URL: "https://www.theguardian.com/world/2024/jan/15/b", Kind: "article", Language: "en", Text: "three"},
	}
	for _, c := range rows {
		if _, err := db.InsertCitation(c); err != nil {
			t.Fatalf("InsertCitation() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter HistoryFilter
		want   []string
	}{
		{name: "all newest first", filter: HistoryFilter{}, want: []string{"three", "two", "one"}},
		{name: "by kind", filter: HistoryFilter{Kind: "article"}, want: []string{"three", "two"}},
		{name: "by url", filter: HistoryFilter{URLPattern: "nytimes"}, want: []string{"two"}},
		{name: "limit", filter: HistoryFilter{Limit: 1}, want: []string{"three"}},
		{name: "today", filter: HistoryFilter{TodayOnly: true}, want: []string{"three", "two", "one"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ListCitations(tt.filter)
			if err != nil {
				t.Fatalf("ListCitations() error = %v", err)
			}
			var texts []string
			for _, c := range got {
				texts = append(texts, c.Text)
			}
			if !reflect.DeepEqual(texts, tt.want) {
				t.Errorf("ListCitations() = %q, want %q", texts, tt.want)
			}
		})
	}
}

func TestCaptures(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	urlID, err := db.InsertURL("https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := db.LastCapture(urlID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LastCapture() before any capture error = %v, want ErrNotFound", err)
	}

	if err := db.RecordCapture(urlID, "https://archive.ph/old", "2024-01-01"); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordCapture(urlID, "https://archive.ph/new", "2024-01-15"); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordCapture(urlID, "", ""); err != nil {
		t.Fatal(err)
	}

	got, err := db.LastCapture(urlID)
	if err != nil {
		t.Fatalf("LastCapture() error = %v", err)
	}
	if got.ArchiveURL != "https://archive.ph/new" || got.ArchiveDate != "2024-01-15" || !got.Captured {
		t.Errorf("LastCapture() = %+v, want the latest successful capture", got)
	}

	var timeouts int
	if err := db.QueryRow("SELECT COUNT(*) FROM archive_captures WHERE captured = 0").Scan(&timeouts); err != nil {
		t.Fatal(err)
	}
	if timeouts != 1 {
		t.Errorf("timeouts recorded = %d, want 1", timeouts)
	}
}

func TestRecordArchive_RegistersURL(t *testing.T) {
	db := setupTestDB(t)
	pageURL := "https://old.reddit.com/r/test/comments/abc/post/"

	if err := db.RecordArchive(pageURL, "https://archive.ph/Ab12C", "2024-01-15"); err != nil {
		t.Fatalf("RecordArchive() error = %v", err)
	}
	urlID, err := db.GetURLID(pageURL)
	if err != nil {
		t.Fatalf("GetURLID() error = %v", err)
	}
	got, err := db.LastCapture(urlID)
	if err != nil {
		t.Fatalf("LastCapture() error = %v", err)
	}
	if got.ArchiveURL != "https://archive.ph/Ab12C" {
		t.Errorf("LastCapture() = %+v", got)
	}

	if err := db.RecordArchive("not a url", "", ""); err == nil {
		t.Error("RecordArchive() accepted a relative URL")
	}
}
