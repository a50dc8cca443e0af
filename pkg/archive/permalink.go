// Package archive submits pages to an archiving service and waits for the
// permanent link the service redirects to.
package archive

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// DefaultBase is archive.ph.
const DefaultBase = "https://archive.ph"

// SubmitURL is the address that asks the service at base to capture pageURL.
func SubmitURL(base, pageURL string) string {
	return strings.TrimRight(base, "/") + "/submit/?url=" + url.QueryEscape(pageURL)
}

// Permalink recognises the service's permanent links, including the
// in-progress "wip/" form.
type Permalink struct {
	base string
	re   *regexp.Regexp
}

func NewPermalink(base string) *Permalink {
	base = strings.TrimRight(base, "/")
	return &Permalink{
		base: base,
		re:   regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `/(wip/)?([a-zA-Z0-9]+)/?$`),
	}
}

// Match reports whether u is a permanent link and returns it with any
// "wip/" segment removed.
func (p *Permalink) Match(u string) (string, bool) {
	m := p.re.FindStringSubmatch(strings.TrimSpace(u))
	if m == nil {
		return "", false
	}
	return p.base + "/" + m[2], true
}

// captureDate reduces a datetime attribute such as "2024-01-15T10:00:00Z"
// to its date, falling back to now.
func captureDate(datetime string, now time.Time) string {
	if d, _, _ := strings.Cut(strings.TrimSpace(datetime), "T"); d != "" {
		return d
	}
	return now.UTC().Format("2006-01-02")
}
