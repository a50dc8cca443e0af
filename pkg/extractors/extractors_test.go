package extractors

import (
	"context"
	"errors"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dtnitsch/enquote/models"
	"github.com/dtnitsch/enquote/pkg/caching"
	"github.com/dtnitsch/enquote/pkg/fetcher"
	"github.com/dtnitsch/enquote/pkg/inspector"
)

const tabID = 11

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pageInspector(t *testing.T, page string) *inspector.Pages {
	t.Helper()
	p := inspector.NewPages()
	if err := p.SetHTML(tabID, page); err != nil {
		t.Fatalf("SetHTML() error = %v", err)
	}
	return p
}

func TestSocialPost_Extract(t *testing.T) {
	page := `<html><body>
<article><div data-testid="tweetText">quoted reply</div></article>
<article>
  <a aria-label="5:00 PM · Jan 15, 2024"><time datetime="2024-01-15T17:00:00.000Z"></time></a>
  <div data-testid="tweetText">The  main
post</div>
</article></body></html>`

	ex := NewSocialPost(pageInspector(t, page))
	md, err := ex.Extract(context.Background(), Request{TabID: tabID, URL: "https://x.com/jack/status/20", Captures: []string{"jack"}})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if !reflect.DeepEqual(md.Authors, []string{"@jack"}) {
		t.Errorf("Authors = %q", md.Authors)
	}
	if md.Date != "2024-01-15T17:00:00.000Z" {
		t.Errorf("Date = %q", md.Date)
	}
	if md.Passage != "The  main\npost" {
		t.Errorf("Passage = %q, want the focused post's raw text", md.Passage)
	}
	if md.Site != "w:Twitter" {
		t.Errorf("Site = %q", md.Site)
	}
}

func TestSocialPost_DeletedPostDegrades(t *testing.T) {
	ex := NewSocialPost(pageInspector(t, `<html><body><p>This post is unavailable.</p></body></html>`))
	md, err := ex.Extract(context.Background(), Request{TabID: tabID, URL: "https://x.com/jack/status/20", Captures: []string{"jack"}})
	if err != nil {
		t.Fatalf("Extract() error = %v, want soft failure", err)
	}
	if md.Passage != "" || md.Date != "" {
		t.Errorf("md = %+v, want empty passage and date", md)
	}
}

const commentPage = `<html><body>
<h1 slot="title">  My Post </h1>
<shreddit-comment>
  <a class="author-name-meta"> %s </a>
  <div slot="commentMeta"><time datetime="2024-01-15T09:30:00.000Z"></time></div>
  <div slot="comment"><div>Hello   world

Bye</div></div>
</shreddit-comment>
</body></html>`

func TestDiscussionComment_Extract(t *testing.T) {
	ex := NewDiscussionComment(pageInspector(t, strings.Replace(commentPage, "%s", "alice", 1)))
	md, err := ex.Extract(context.Background(), Request{
		TabID:    tabID,
		URL:      "https://www.reddit.com/r/test/comments/abc/comment/def/",
		Captures: []string{"test"},
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := &models.Metadata{
		Authors:  []string{"u/alice"},
		Title:    "My Post",
		Date:     "2024-01-15T09:30:00.000Z",
		Location: "r/test",
		Passage:  "Hello   world\n\nBye",
		Site:     "w:Reddit",
		URL:      "https://www.reddit.com/r/test/comments/abc/comment/def/",
	}
	if !reflect.DeepEqual(md, want) {
		t.Errorf("Extract() =\n%+v\nwant\n%+v", md, want)
	}
}

func TestDiscussionComment_DeletedAuthor(t *testing.T) {
	ex := NewDiscussionComment(pageInspector(t, strings.Replace(commentPage, "%s", "[deleted]", 1)))
	md, err := ex.Extract(context.Background(), Request{TabID: tabID, URL: "u", Captures: []string{"test"}})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(md.Authors) != 0 {
		t.Errorf("Authors = %q, want none for deleted author", md.Authors)
	}
}

func TestDiscussionPost_NoBody(t *testing.T) {
	page := `<html><body>
<h1 slot="title">Link post</h1>
<span class="author-name">bob</span>
<time datetime="2023-05-01T00:00:00Z"></time>
</body></html>`
	ex := NewDiscussionPost(pageInspector(t, page))
	md, err := ex.Extract(context.Background(), Request{TabID: tabID, URL: "u", Captures: []string{"golang"}})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if md.Passage != "" {
		t.Errorf("Passage = %q, want empty", md.Passage)
	}
	if md.Title != "Link post" || md.Location != "r/golang" || md.Authors[0] != "u/bob" {
		t.Errorf("md = %+v", md)
	}
}

func iaPage(metadata, body string) string {
	return `<html><body><input type="hidden" class="js-ia-metadata" value="` +
		html.EscapeString(metadata) + `">` + body + `</body></html>`
}

func TestTextCollection_Extract(t *testing.T) {
	meta := `{"metadata":{"mediatype":"texts","creator":["Melville, Herman"],"title":"Moby Dick",
"date":"1851","publisher":"New York : Harper & Brothers","isbn":["0142437247","9780142437247"]}}`

	tests := []struct {
		name     string
		body     string
		captures []string
		wantPage string
	}{
		{name: "page from url", captures: []string{"mobydick", "42"}, wantPage: "42"},
		{name: "leaf id falls back to locator", body: `<div class="BRcurrentpage">xii (14 of 300)</div>`, captures: []string{"mobydick", "n13"}, wantPage: "xii"},
		{
			name:     "locator nested in frames",
			body:     `<iframe srcdoc="` + html.EscapeString(`<iframe srcdoc="`+html.EscapeString(`<span class="BRcurrentpage">(14 of 300)</span>`)+`"></iframe>`) + `"></iframe>`,
			captures: []string{"mobydick", ""},
			wantPage: "14",
		},
		{name: "no locator", captures: []string{"mobydick", ""}, wantPage: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := NewTextCollection(pageInspector(t, iaPage(meta, tt.body)), 4)
			md, err := ex.Extract(context.Background(), Request{TabID: tabID, URL: "https://archive.org/details/mobydick", Captures: tt.captures})
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if md.Page != tt.wantPage {
				t.Errorf("Page = %q, want %q", md.Page, tt.wantPage)
			}
			if !reflect.DeepEqual(md.Authors, []string{"Melville, Herman"}) {
				t.Errorf("Authors = %q", md.Authors)
			}
			if md.Location != "New York" || md.Publisher != "Harper & Brothers" {
				t.Errorf("Location, Publisher = %q, %q", md.Location, md.Publisher)
			}
			if got := md.Identifier(models.IdentifierISBN); got != "9780142437247" {
				t.Errorf("isbn = %q, want the 13-digit one", got)
			}
			if md.Date != "1851" {
				t.Errorf("Date = %q", md.Date)
			}
		})
	}
}

func TestTextCollection_RejectsNonText(t *testing.T) {
	ex := NewTextCollection(pageInspector(t, iaPage(`{"metadata":{"mediatype":"movies","title":"Film"}}`, "")), 4)
	_, err := ex.Extract(context.Background(), Request{TabID: tabID, URL: "u", Captures: []string{"film", ""}})
	if !errors.Is(err, ErrUnsupportedMedia) {
		t.Fatalf("Extract() error = %v, want ErrUnsupportedMedia", err)
	}
}

func TestParseLocator(t *testing.T) {
	tests := []struct{ in, want string }{
		{"12 (14 of 300)", "12"},
		{"(14 of 300)", "14"},
		{" iv ( 6 of 120 ) ", "iv"},
		{"Page 7", "Page 7"},
	}
	for _, tt := range tests {
		if got := parseLocator(tt.in); got != tt.want {
			t.Errorf("parseLocator(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func catalogServer(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		switch r.URL.Path {
		case "/volumes/XV8X":
			_, _ = w.Write([]byte(`{"id":"XV8X","volumeInfo":{
"title":"Moby Dick","subtitle":"or, The Whale","authors":["Herman Melville","Editor Person"],
"publisher":"London: Penguin","publishedDate":"2003-02-01",
"industryIdentifiers":[{"type":"ISBN_10","identifier":"0142437247"},{"type":"ISBN_13","identifier":"9780142437247"}]}}`))
		case "/volumes/TEN":
			_, _ = w.Write([]byte(`{"id":"TEN","volumeInfo":{"title":"Old","publisher":"Penguin",
"industryIdentifiers":[{"type":"ISBN_10","identifier":"0140000000"},{"type":"OTHER","identifier":"X"}]}}`))
		default:
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		}
	}))
}

func TestCatalog_Extract(t *testing.T) {
	calls := 0
	srv := catalogServer(t, &calls)
	defer srv.Close()

	cache, err := caching.NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	ex := NewCatalog(fetcher.NewFetcher("test", 5*time.Second), cache, srv.URL+"/", quietLogger())

	req := Request{URL: "https://www.google.com/books/edition/_/XV8X", Captures: []string{"XV8X"}}
	md, err := ex.Extract(context.Background(), req)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if md.Title != "Moby Dick: or, The Whale" {
		t.Errorf("Title = %q", md.Title)
	}
	if md.Location != "London" || md.Publisher != "Penguin" {
		t.Errorf("Location, Publisher = %q, %q", md.Location, md.Publisher)
	}
	if got := md.Identifier(models.IdentifierISBN); got != "9780142437247" {
		t.Errorf("isbn = %q, want ISBN-13", got)
	}
	if !reflect.DeepEqual(md.Authors, []string{"Herman Melville", "Editor Person"}) {
		t.Errorf("Authors = %q", md.Authors)
	}

	if _, err := ex.Extract(context.Background(), req); err != nil {
		t.Fatalf("second Extract() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("catalog API called %d times, want 1 (second lookup cached)", calls)
	}
}

func TestCatalog_ISBN10Fallback(t *testing.T) {
	calls := 0
	srv := catalogServer(t, &calls)
	defer srv.Close()

	ex := NewCatalog(fetcher.NewFetcher("test", 5*time.Second), nil, srv.URL, quietLogger())
	md, err := ex.Extract(context.Background(), Request{URL: "u", Captures: []string{"TEN"}})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got := md.Identifier(models.IdentifierISBN); got != "0140000000" {
		t.Errorf("isbn = %q, want ISBN-10", got)
	}
	if md.Location != "" || md.Publisher != "Penguin" {
		t.Errorf("Location, Publisher = %q, %q", md.Location, md.Publisher)
	}
}

func TestCatalog_RemoteFailure(t *testing.T) {
	calls := 0
	srv := catalogServer(t, &calls)
	defer srv.Close()

	ex := NewCatalog(fetcher.NewFetcher("test", 5*time.Second), nil, srv.URL, quietLogger())
	_, err := ex.Extract(context.Background(), Request{URL: "u", Captures: []string{"missing"}})

	var statusErr *fetcher.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("Extract() error = %v, want 404 StatusError", err)
	}
}

func TestStructured_Extract(t *testing.T) {
	page := `<html><head>
<script type="application/ld+json">{ this is not json </script>
<script type="application/ld+json">{"@type":"BreadcrumbList","itemListElement":[]}</script>
<script type="application/ld+json">{"@context":"https://schema.org","@graph":[
  {"@type":"WebPage","name":"ignored"},
  {"@type":["NewsArticle","Article"],"headline":"Big News","datePublished":"2024-01-15T05:00:00-05:00",
   "author":[{"@type":"Person","name":"Jane Doe"},{"@type":"Person","name":"John Roe"}],
   "publisher":{"@type":"Organization","name":"The New York Times"}}
]}</script>
</head><body><h1>Big News</h1></body></html>`

	ex := NewStructured(pageInspector(t, page), quietLogger())
	md, err := ex.Extract(context.Background(), Request{TabID: tabID, URL: "https://www.nytimes.com/2024/01/15/story.html"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if md.Title != "Big News" || md.Publisher != "The New York Times" {
		t.Errorf("Title, Publisher = %q, %q", md.Title, md.Publisher)
	}
	if !reflect.DeepEqual(md.Authors, []string{"Jane Doe", "John Roe"}) {
		t.Errorf("Authors = %q", md.Authors)
	}
	if md.Date != "2024-01-15T05:00:00-05:00" {
		t.Errorf("Date = %q", md.Date)
	}
}

func TestStructured_FillsFromPageMetadata(t *testing.T) {
	page := `<html><head>
<meta property="og:title" content="Harbour Reopens">
<meta property="article:published_time" content="2024-03-02T10:00:00Z">
<script type="application/ld+json">{"@type":"NewsArticle","author":{"@type":"Person","name":"Jane Doe"}}</script>
</head><body><article><h1>Harbour Reopens</h1>
<p>The harbour reopened on Saturday after three weeks of repairs to the sea wall, officials said.</p>
</article></body></html>`

	ex := NewStructured(pageInspector(t, page), quietLogger())
	md, err := ex.Extract(context.Background(), Request{TabID: tabID, URL: "https://news.example.com/harbour"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if md.Title != "Harbour Reopens" {
		t.Errorf("Title = %q, want og:title fallback", md.Title)
	}
	if md.Date != "2024-03-02" {
		t.Errorf("Date = %q, want article:published_time fallback", md.Date)
	}
	if !reflect.DeepEqual(md.Authors, []string{"Jane Doe"}) {
		t.Errorf("Authors = %q", md.Authors)
	}
}

func TestStructured_AuthorShapes(t *testing.T) {
	tests := []struct {
		name   string
		author string
		want   []string
	}{
		{name: "bare string", author: `"Jane Doe"`, want: []string{"Jane Doe"}},
		{name: "byline string", author: `"By Jane Doe, John Roe and Ann Poe"`, want: []string{"Jane Doe", "John Roe", "Ann Poe"}},
		{name: "single object", author: `{"@type":"Person","name":"Jane Doe"}`, want: []string{"Jane Doe"}},
		{name: "list of objects", author: `[{"name":"A"},{"name":"B"},{"name":"C"}]`, want: []string{"A", "B", "C"}},
		{name: "mixed list", author: `["A",{"name":"B"}]`, want: []string{"A", "B"}},
		{name: "inverted names in objects", author: `[{"name":"Doe, Jane"},{"name":"Roe, John"}]`, want: []string{"Doe, Jane", "Roe, John"}},
		{name: "inverted name in single object", author: `{"@type":"Person","name":"Doe, Jane"}`, want: []string{"Doe, Jane"}},
		{name: "absent", author: `null`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := `<html><head><script type="application/ld+json">{"@type":"Article","headline":"H","datePublished":"2020-01-01","author":` +
				tt.author + `,"publisher":{"@id":"https://example.com/#org"}}</script></head></html>`
			ex := NewStructured(pageInspector(t, page), quietLogger())
			md, err := ex.Extract(context.Background(), Request{TabID: tabID, URL: "https://example.com/a"})
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if !reflect.DeepEqual(md.Authors, tt.want) {
				t.Errorf("Authors = %q, want %q", md.Authors, tt.want)
			}
			if md.Publisher != "https://example.com/#org" {
				t.Errorf("Publisher = %q, want @id fallback", md.Publisher)
			}
		})
	}
}

func TestStructured_NoArticle(t *testing.T) {
	tests := map[string]string{
		"no blocks":      `<html><body><p>plain</p></body></html>`,
		"only malformed": `<html><head><script type="application/ld+json">[{</script></head></html>`,
		"wrong type":     `<html><head><script type="application/ld+json">{"@type":"Product","name":"Widget"}</script></head></html>`,
	}
	for name, page := range tests {
		t.Run(name, func(t *testing.T) {
			ex := NewStructured(pageInspector(t, page), quietLogger())
			_, err := ex.Extract(context.Background(), Request{TabID: tabID, URL: "https://example.com/"})
			if !errors.Is(err, ErrNoStructuredData) {
				t.Errorf("Extract() error = %v, want ErrNoStructuredData", err)
			}
		})
	}
}

func TestSplitPublisher(t *testing.T) {
	tests := []struct {
		in, location, publisher string
	}{
		{"London: Penguin", "London", "Penguin"},
		{"New York : Harper & Brothers", "New York", "Harper & Brothers"},
		{"Penguin", "", "Penguin"},
		{"", "", ""},
	}
	for _, tt := range tests {
		loc, pub := splitPublisher(tt.in)
		if loc != tt.location || pub != tt.publisher {
			t.Errorf("splitPublisher(%q) = %q, %q; want %q, %q", tt.in, loc, pub, tt.location, tt.publisher)
		}
	}
}

func TestNewRegistry_CoversEveryKind(t *testing.T) {
	reg := NewRegistry(Deps{Inspector: inspector.NewPages(), Logger: quietLogger()})
	for _, kind := range models.Kinds {
		if reg[kind] == nil {
			t.Errorf("no extractor for %s", kind)
		}
	}
}
