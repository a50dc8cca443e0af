package extractors

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/dtnitsch/enquote/models"
	"github.com/dtnitsch/enquote/pkg/inspector"
)

const (
	iaMetadataSelector = "input.js-ia-metadata"
	iaLocatorSelector  = ".BRcurrentpage"
	defaultFrameDepth  = 8
)

var (
	// leafID matches viewer frame ids such as "n12", which are not page labels.
	leafID = regexp.MustCompile(`^n[0-9]+$`)
	// locatorText matches "12 (14 of 300)" and "(14 of 300)".
	locatorText = regexp.MustCompile(`^\s*([^\s(]*)\s*\(\s*([0-9]+)\s+of\s+[0-9]+\s*\)`)
)

type iaItem struct {
	Metadata struct {
		MediaType string     `json:"mediatype"`
		Creator   stringList `json:"creator"` // "Family, Given", so never split
		Title     stringList `json:"title"`
		Date      stringList `json:"date"`
		Year      stringList `json:"year"`
		Publisher stringList `json:"publisher"`
		ISBN      stringList `json:"isbn"`
		ISSN      stringList `json:"issn"`
	} `json:"metadata"`
}

// TextCollection extracts an Internet Archive text item from the metadata
// blob the item page embeds. Captures are [identifier, page].
type TextCollection struct {
	in       inspector.Inspector
	maxDepth int
}

func NewTextCollection(in inspector.Inspector, maxDepth int) *TextCollection {
	if maxDepth <= 0 {
		maxDepth = defaultFrameDepth
	}
	return &TextCollection{in: in, maxDepth: maxDepth}
}

func (t *TextCollection) Extract(ctx context.Context, req Request) (*models.Metadata, error) {
	blob, err := inspector.Run(ctx, t.in, req.TabID, inspector.Attr(iaMetadataSelector, "value"))
	if err != nil {
		return nil, fmt.Errorf("text collection metadata: %w", err)
	}

	var item iaItem
	if err := json.Unmarshal([]byte(blob), &item); err != nil {
		return nil, fmt.Errorf("text collection metadata: %w", err)
	}
	meta := item.Metadata
	if meta.MediaType != "texts" {
		return nil, fmt.Errorf("%s is %q: %w", req.Capture(0), meta.MediaType, ErrUnsupportedMedia)
	}

	md := &models.Metadata{
		Authors: meta.Creator.Values(),
		Title:   meta.Title.First(),
		Date:    meta.Date.First(),
		URL:     req.URL,
	}
	if md.Date == "" {
		md.Date = meta.Year.First()
	}
	md.Location, md.Publisher = splitPublisher(meta.Publisher.First())
	md.SetIdentifier(models.IdentifierISBN, preferISBN13(meta.ISBN))
	md.SetIdentifier(models.IdentifierISSN, meta.ISSN.First())

	md.Page, err = t.page(ctx, req)
	if err != nil {
		return nil, err
	}
	return md, nil
}

// page resolves the page label from the URL, else from the viewer's
// locator, which may sit several frames deep.
func (t *TextCollection) page(ctx context.Context, req Request) (string, error) {
	if p := req.Capture(1); p != "" && !leafID.MatchString(p) {
		return p, nil
	}

	text, err := inspector.Optional(ctx, t.in, req.TabID, func(doc inspector.Document) (string, error) {
		sel, err := inspector.FindInForest(doc, iaLocatorSelector, t.maxDepth)
		if err != nil {
			return "", err
		}
		return sel.Text(), nil
	})
	if err != nil {
		return "", fmt.Errorf("text collection page locator: %w", err)
	}
	return parseLocator(text), nil
}

func parseLocator(text string) string {
	m := locatorText.FindStringSubmatch(text)
	if m == nil {
		return strings.TrimSpace(text)
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// preferISBN13 picks a 13-digit ISBN when one is listed.
func preferISBN13(isbns stringList) string {
	for _, v := range isbns {
		if len(digits(v)) == 13 {
			return strings.TrimSpace(v)
		}
	}
	return isbns.First()
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == 'X' || r == 'x' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
