package db

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	dbpkg "github.com/dtnitsch/enquote/pkg/db"
	"gopkg.in/yaml.v3"
)

func sampleCitations() []dbpkg.Citation {
	return []dbpkg.Citation{{
		ID:          7,
		URL:         "https://x.com/alice/status/1",
		Domain:      "x.com",
		Kind:        "social-post",
		Language:    "en",
		Authors:     []string{"@alice"},
		ArchiveURL:  "https://archive.ph/Ab12C",
		ArchiveDate: "2024-01-15",
		Text:        "#* {{quote-web|en|author=@alice}}",
		CreatedAt:   time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC),
	}}
}

func TestWriteHistory_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHistory(&buf, sampleCitations(), "text"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"2024-01-15 09:30:00", "social-post", "https://x.com/alice/status/1", "Total: 1 citations"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := WriteHistory(&buf, nil, "text"); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "No citations found" {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestWriteHistory_Structured(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHistory(&buf, sampleCitations(), "json"); err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(decoded) != 1 || decoded[0]["citation"] != "#* {{quote-web|en|author=@alice}}" {
		t.Errorf("decoded = %v", decoded)
	}

	buf.Reset()
	if err := WriteHistory(&buf, nil, "json"); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty json = %q", buf.String())
	}

	buf.Reset()
	if err := WriteHistory(&buf, sampleCitations(), "yaml"); err != nil {
		t.Fatal(err)
	}
	var fromYAML []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &fromYAML); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if len(fromYAML) != 1 || fromYAML[0]["archive_url"] != "https://archive.ph/Ab12C" {
		t.Errorf("yaml = %v", fromYAML)
	}
}

func TestWriteHistory_UnknownFormat(t *testing.T) {
	if err := WriteHistory(&bytes.Buffer{}, nil, "xml"); err == nil {
		t.Error("WriteHistory() accepted xml")
	}
}

func TestWriteCitation_LatestCapture(t *testing.T) {
	database, err := dbpkg.Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer database.Close()

	const pageURL = "https://www.reddit.com/r/test/comments/abc/comment/def/"
	id, err := database.InsertCitation(dbpkg.Citation{
		URL:      pageURL,
		Kind:     "discussion-comment",
		Language: "en",
		Text:     "#* {{quote-web|en|author=u/alice}}",
	})
	if err != nil {
		t.Fatal(err)
	}
	ct, err := database.GetCitation(id)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteCitation(&buf, database, ct); err != nil {
		t.Fatalf("WriteCitation() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != ct.Text {
		t.Errorf("output without captures = %q, want only the citation", buf.String())
	}

	if err := database.RecordArchive(pageURL, "", ""); err != nil {
		t.Fatal(err)
	}
	if err := database.RecordArchive(pageURL, "https://archive.ph/Xy9Zq", "2024-02-01"); err != nil {
		t.Fatal(err)
	}

	buf.Reset()
	if err := WriteCitation(&buf, database, ct); err != nil {
		t.Fatalf("WriteCitation() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Latest capture: https://archive.ph/Xy9Zq (2024-02-01)") {
		t.Errorf("output = %q, want the latest capture", buf.String())
	}
}

func TestWriteCitation_ArchivedCitationUnchanged(t *testing.T) {
	database, err := dbpkg.Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer database.Close()

	ct := &sampleCitations()[0]
	var buf bytes.Buffer
	if err := WriteCitation(&buf, database, ct); err != nil {
		t.Fatal(err)
	}
	if buf.String() != ct.Text+"\n" {
		t.Errorf("output = %q", buf.String())
	}
}
