// Package classifier maps a page URL to the kind of source it cites.
package classifier

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/dtnitsch/enquote/models"
)

// Pattern pairs a source kind with the URL shape that identifies it.
// Capture groups become SourceMatch.Captures.
type Pattern struct {
	Kind models.SourceKind
	Expr *regexp.Regexp
}

// DefaultPatterns is the ordered pattern table. Order matters: a comment
// permalink is also a post URL, so comments are tested first.
var DefaultPatterns = []Pattern{
	{models.KindSocialPost, regexp.MustCompile(`^https://(?:www\.)?(?:x|twitter)\.com/([A-Za-z0-9_]+)/status/[0-9]+/?$`)},
	{models.KindDiscussionComment, regexp.MustCompile(`^https://(?:www|old|new)\.reddit\.com/r/([A-Za-z0-9_]+)/comments/[a-z0-9]+/(?:[^/]+/)?comment/[a-z0-9]+/?$`)},
	{models.KindDiscussionPost, regexp.MustCompile(`^https://(?:www|old|new)\.reddit\.com/r/([A-Za-z0-9_]+)/comments/`)},
	{models.KindTextCollection, regexp.MustCompile(`^https://archive\.org/details/([^/]+)(?:/page/([^/]+))?`)},
	{models.KindCatalogRecord, regexp.MustCompile(`^https://www\.google\.com/books/edition/[^/]*/([A-Za-z0-9_-]+)/?$`)},
}

type Classifier struct {
	patterns []Pattern
}

func New(patterns []Pattern) *Classifier {
	return &Classifier{patterns: patterns}
}

// Default returns a classifier over DefaultPatterns.
func Default() *Classifier {
	return New(DefaultPatterns)
}

// Classify returns the first matching kind and its captures, or a KindNone
// match with no captures.
func (c *Classifier) Classify(pageURL string) models.SourceMatch {
	for _, p := range c.patterns {
		groups := p.Expr.FindStringSubmatch(pageURL)
		if groups == nil {
			continue
		}
		captures := make([]string, len(groups)-1)
		copy(captures, groups[1:])
		return models.SourceMatch{Kind: p.Kind, Captures: captures}
	}
	return models.SourceMatch{Kind: models.KindNone}
}

// CleanURL strips the query string and fragment from a page URL.
func CleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}
