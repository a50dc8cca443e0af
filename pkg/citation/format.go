package citation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dtnitsch/enquote/models"
)

// PassagePolicy decides whether the user's selection or the extracted
// passage is preferred. The title is always the last resort.
type PassagePolicy string

const (
	ClipboardFirst PassagePolicy = "clipboard-first"
	ExtractedFirst PassagePolicy = "extracted-first"
)

// ParsePassagePolicy validates a configured policy name.
func ParsePassagePolicy(s string) (PassagePolicy, error) {
	switch p := PassagePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case ClipboardFirst, ExtractedFirst:
		return p, nil
	default:
		return "", fmt.Errorf("unknown passage policy %q (want %s or %s)", s, ClipboardFirst, ExtractedFirst)
	}
}

// DefaultPolicy is the precedence used when none is configured for kind.
// Posts and comments carry their own text; articles and books are quoted
// from what the user selected.
func DefaultPolicy(kind models.SourceKind) PassagePolicy {
	switch {
	case kind == models.KindSocialPost, kind.IsDiscussion():
		return ExtractedFirst
	default:
		return ClipboardFirst
	}
}

// Options are the per-citation inputs that do not come from the page.
type Options struct {
	Language  string
	Kind      models.SourceKind
	Selection string        // clipboard or selected text
	Policy    PassagePolicy // empty means DefaultPolicy(Kind)
}

// Format builds and renders a citation.
func Format(md *models.Metadata, ar models.ArchiveResult, opts Options) string {
	return Build(md, ar, opts).String()
}

// Build arranges md and ar into the template grammar for opts.Kind.
func Build(md *models.Metadata, ar models.ArchiveResult, opts Options) Template {
	if md == nil {
		md = &models.Metadata{}
	}
	lang := strings.TrimSpace(opts.Language)
	if lang == "" {
		lang = "en"
	}

	t := Template{Name: TemplateWeb, Language: lang}
	shortcode, hasShortcode := "", false
	if opts.Kind.IsBook() {
		t.Name = TemplateBook
	} else if shortcode, hasShortcode = Shortcode(md.Publisher); hasShortcode {
		t.Name = "RQ:" + shortcode
		t.Language = ""
	}

	var f fieldList
	addAuthors(&f, md.Authors, md.Publisher)
	title := Normalize(md.Title)
	date := FormatDate(md.Date)
	archiveURL := escape(ar.ArchiveURL)
	archiveDate := FormatDate(ar.ArchiveDate)
	passage := choosePassage(md, opts)

	switch {
	case opts.Kind == models.KindSocialPost:
		f.add("site", Normalize(md.Site))
		f.add("url", escape(md.URL))
		f.add("archiveurl", archiveURL)
		f.add("archivedate", archiveDate)
		f.add("date", date)
	case opts.Kind.IsDiscussion():
		f.add("title", title)
		f.add("site", Normalize(md.Site))
		f.add("url", escape(md.URL))
		f.add("archiveurl", archiveURL)
		f.add("archivedate", archiveDate)
		f.add("location", Normalize(md.Location))
		f.add("date", date)
	case opts.Kind.IsBook():
		f.add("title", title)
		f.add("location", Normalize(md.Location))
		f.add("publisher", Normalize(md.Publisher))
		f.add("date", date)
		f.add("page", Normalize(md.Page))
		f.add("isbn", Normalize(md.Identifier(models.IdentifierISBN)))
		f.add("issn", Normalize(md.Identifier(models.IdentifierISSN)))
		f.add("url", escape(md.URL))
		f.add("archiveurl", archiveURL)
		f.add("archivedate", archiveDate)
	default:
		f.add("title", title)
		if !hasShortcode {
			f.add("site", Normalize(siteName(md.Site, md.Publisher, md.URL)))
		}
		f.add("url", escape(md.URL))
		f.add("archiveurl", archiveURL)
		f.add("archivedate", archiveDate)
		f.add("date", date)
	}
	f.add("passage", passage)

	t.Fields = f
	return t
}

// addAuthors numbers authors author, author2, ... and drops any that merely
// repeat the publisher.
func addAuthors(f *fieldList, authors []string, publisher string) {
	n := 0
	for _, a := range authors {
		a = Normalize(a)
		if a == "" || (publisher != "" && strings.EqualFold(a, Normalize(publisher))) {
			continue
		}
		n++
		name := "author"
		if n > 1 {
			name += strconv.Itoa(n)
		}
		f.add(name, a)
	}
}

func choosePassage(md *models.Metadata, opts Options) string {
	policy := opts.Policy
	if policy == "" {
		policy = DefaultPolicy(opts.Kind)
	}
	candidates := []string{opts.Selection, md.Passage}
	if policy == ExtractedFirst {
		candidates = []string{md.Passage, opts.Selection}
	}
	for _, c := range append(candidates, md.Title) {
		if p := Normalize(c); p != "" {
			return p
		}
	}
	return ""
}
