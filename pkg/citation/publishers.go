package citation

import (
	"net/url"
	"strings"
)

// shortcodes maps canonical publisher names and hosts to the name of their
// dedicated RQ: template.
var shortcodes = map[string]string{
	"the new york times": "NYTimes",
	"new york times":     "NYTimes",
	"nytimes.com":        "NYTimes",
	"the guardian":       "Guardian",
	"guardian":           "Guardian",
	"theguardian.com":    "Guardian",
}

// Shortcode returns the RQ: template shortcode for a publisher name, a
// publisher URL, or a bare host.
func Shortcode(publisher string) (string, bool) {
	key := publisherKey(publisher)
	if key == "" {
		return "", false
	}
	code, ok := shortcodes[key]
	return code, ok
}

func publisherKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return ""
		}
		s = u.Hostname()
	}
	return strings.TrimPrefix(s, "www.")
}

// siteName is the generic template's site value: the extractor's site, else
// the publisher, else the page host.
func siteName(site, publisher, pageURL string) string {
	if site != "" {
		return site
	}
	if publisher != "" {
		return publisher
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
