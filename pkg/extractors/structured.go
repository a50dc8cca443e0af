package extractors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"

	"github.com/dtnitsch/enquote/models"
	"github.com/dtnitsch/enquote/pkg/inspector"
	"github.com/dtnitsch/enquote/pkg/metrics"
)

const linkedDataSelector = `script[type="application/ld+json"]`

// articleTypes are the schema.org types accepted as a citable article.
var articleTypes = map[string]bool{
	"Article":              true,
	"NewsArticle":          true,
	"ReportageNewsArticle": true,
	"AnalysisNewsArticle":  true,
	"OpinionNewsArticle":   true,
	"BlogPosting":          true,
	"SocialMediaPosting":   true,
	"ScholarlyArticle":     true,
	"Report":               true,
	"LiveBlogPosting":      true,
}

// typeList accepts "@type" as a string or a list of strings.
type typeList []string

func (t *typeList) UnmarshalJSON(data []byte) error {
	var s stringList
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = typeList(s)
	return nil
}

func (t typeList) isArticle() bool {
	for _, v := range t {
		if articleTypes[v] {
			return true
		}
	}
	return false
}

// publisherRef accepts a publisher given as a name, an object with a name,
// or a bare {"@id": ...} reference.
type publisherRef string

func (p *publisherRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Name string `json:"name"`
			ID   string `json:"@id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if obj.Name != "" {
			*p = publisherRef(obj.Name)
		} else {
			*p = publisherRef(obj.ID)
		}
		return nil
	}
	var s stringList
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	*p = publisherRef(s.First())
	return nil
}

type linkedArticle struct {
	Type          typeList     `json:"@type"`
	Author        authorList   `json:"author"`
	DatePublished string       `json:"datePublished"`
	Headline      string       `json:"headline"`
	Publisher     publisherRef `json:"publisher"`
}

type pageData struct {
	blocks []string
	html   string
}

// Structured is the fallback for pages no URL pattern recognises. It reads
// the page's linked-data blocks and keeps the first article-like one.
type Structured struct {
	in     inspector.Inspector
	logger *slog.Logger
}

func NewStructured(in inspector.Inspector, logger *slog.Logger) *Structured {
	return &Structured{in: in, logger: logger}
}

func (s *Structured) Extract(ctx context.Context, req Request) (*models.Metadata, error) {
	page, err := inspector.Run(ctx, s.in, req.TabID, func(doc inspector.Document) (pageData, error) {
		blocks, err := inspector.All(linkedDataSelector)(doc)
		if err != nil {
			return pageData{}, err
		}
		return pageData{blocks: blocks, html: inspector.HTML(doc)}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("structured data scan: %w", err)
	}

	article, ok := s.firstArticle(req.URL, page.blocks)
	if !ok {
		return nil, ErrNoStructuredData
	}

	md := &models.Metadata{
		Authors:   article.Author,
		Title:     strings.TrimSpace(article.Headline),
		Date:      article.DatePublished,
		Publisher: strings.TrimSpace(string(article.Publisher)),
		URL:       req.URL,
	}
	if md.Title == "" || md.Date == "" {
		s.fillFromReadability(md, req.URL, page.html)
	}
	return md, nil
}

// firstArticle scans blocks in page order. A malformed block is skipped so
// one broken script cannot hide a valid one further down.
func (s *Structured) firstArticle(pageURL string, blocks []string) (linkedArticle, bool) {
	for i, block := range blocks {
		candidates, err := linkedDataObjects([]byte(block))
		if err != nil {
			metrics.StructuredBlocksSkipped.Inc()
			s.logger.Warn("skipping malformed linked-data block", "url", pageURL, "block", i, "error", err)
			continue
		}
		for _, raw := range candidates {
			var a linkedArticle
			if err := json.Unmarshal(raw, &a); err != nil {
				s.logger.Debug("skipping linked-data object", "url", pageURL, "block", i, "error", err)
				continue
			}
			if a.Type.isArticle() {
				return a, true
			}
		}
	}
	return linkedArticle{}, false
}

// linkedDataObjects flattens a block into candidate objects: the block
// itself, the items of a top-level array, and any @graph members.
func linkedDataObjects(block []byte) ([]json.RawMessage, error) {
	block = bytes.TrimSpace(block)
	if len(block) > 0 && block[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(block, &items); err != nil {
			return nil, err
		}
		var out []json.RawMessage
		for _, item := range items {
			nested, err := linkedDataObjects(item)
			if err != nil {
				continue
			}
			out = append(out, nested...)
		}
		return out, nil
	}

	var obj struct {
		Graph []json.RawMessage `json:"@graph"`
	}
	if err := json.Unmarshal(block, &obj); err != nil {
		return nil, err
	}
	return append([]json.RawMessage{block}, obj.Graph...), nil
}

// fillFromReadability fills a missing headline or date from the page's
// readable article metadata.
func (s *Structured) fillFromReadability(md *models.Metadata, pageURL, html string) {
	if html == "" {
		return
	}
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), parsedURL)
	if err != nil {
		s.logger.Debug("readability enrichment failed", "url", pageURL, "error", err)
		return
	}
	if md.Title == "" {
		md.Title = strings.TrimSpace(article.Title)
	}
	if md.Date == "" && article.PublishedTime != nil {
		md.Date = article.PublishedTime.Format("2006-01-02")
	}
}
