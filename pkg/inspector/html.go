package inspector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// ErrUnknownTab is returned by Exec for a tab the inspector does not hold.
var ErrUnknownTab = errors.New("unknown tab")

// HTMLDocument is a Document parsed from static HTML. Embedded frames are
// the srcdoc of iframe and frame elements, parsed on first use.
type HTMLDocument struct {
	root *goquery.Selection

	once   sync.Once
	frames []Document
}

// ParseHTML parses html into a document.
func ParseHTML(html string) (*HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &HTMLDocument{root: doc.Selection}, nil
}

func (d *HTMLDocument) Root() *goquery.Selection {
	return d.root
}

func (d *HTMLDocument) Frames() []Document {
	d.once.Do(func() {
		d.root.Find("iframe[srcdoc], frame[srcdoc]").Each(func(i int, s *goquery.Selection) {
			src, _ := s.Attr("srcdoc")
			child, err := ParseHTML(src)
			if err != nil {
				return
			}
			d.frames = append(d.frames, child)
		})
	})
	return d.frames
}

// HTML returns doc serialized, or "" when it cannot be rendered.
func HTML(doc Document) string {
	html, err := goquery.OuterHtml(doc.Root())
	if err != nil {
		return ""
	}
	return html
}

// Pages is an Inspector over documents held in memory, keyed by tab id.
type Pages struct {
	mu   sync.RWMutex
	docs map[int]Document
}

func NewPages() *Pages {
	return &Pages{docs: make(map[int]Document)}
}

// Set installs doc as the current document of tabID.
func (p *Pages) Set(tabID int, doc Document) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docs[tabID] = doc
}

// SetHTML parses html and installs it for tabID.
func (p *Pages) SetHTML(tabID int, html string) error {
	doc, err := ParseHTML(html)
	if err != nil {
		return err
	}
	p.Set(tabID, doc)
	return nil
}

// Remove forgets tabID.
func (p *Pages) Remove(tabID int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.docs, tabID)
}

func (p *Pages) Exec(ctx context.Context, tabID int, fn func(doc Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.RLock()
	doc, ok := p.docs[tabID]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("tab %d: %w", tabID, ErrUnknownTab)
	}
	return fn(doc)
}
