package citation

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateLayout is how every date appears in a citation, e.g. "15 January 2024".
const DateLayout = "2 January 2006"

var (
	yearOnly  = regexp.MustCompile(`^[0-9]{4}$`)
	yearMonth = regexp.MustCompile(`^([0-9]{4})-([0-9]{2})$`)
)

// FormatDate renders an ISO or free-text date in DateLayout, in UTC.
// A bare year or year-month keeps its precision. Input that cannot be
// parsed is returned normalized rather than dropped.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if yearOnly.MatchString(s) {
		return s
	}
	if yearMonth.MatchString(s) {
		if t, err := time.Parse("2006-01", s); err == nil {
			return t.Format("January 2006")
		}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format(DateLayout)
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return Normalize(s)
	}
	return t.UTC().Format(DateLayout)
}
