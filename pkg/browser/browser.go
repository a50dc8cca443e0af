// Package browser is a headless stand-in for a browser window: tabs are
// pages fetched over HTTP, and each tab's document can be inspected.
//
// A tab opened with OpenTab navigates in the background: it loads its
// address once, following HTTP redirects and then any meta refresh, until a
// page settles or a load fails. TabURL only reports where the tab currently
// is, so polling a tab never triggers another request.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/dtnitsch/enquote/models"
	"github.com/dtnitsch/enquote/pkg/fetcher"
	"github.com/dtnitsch/enquote/pkg/inspector"
)

var refreshTarget = regexp.MustCompile(`(?i)^\s*[0-9.]*\s*[;,]?\s*url\s*=\s*['"]?([^'"]+)['"]?\s*$`)

var errNothingLoaded = errors.New("no document loaded")

// maxRefreshHops bounds how many meta refreshes one navigation follows.
const maxRefreshHops = 10

type tab struct {
	models.Tab
	doc    *inspector.HTMLDocument
	err    error         // why navigation stopped, if it failed
	loaded chan struct{} // closed once navigation settles or fails
	cancel context.CancelFunc
}

func settled() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}

// Tabs holds the open tabs of one window.
type Tabs struct {
	fetcher *fetcher.Fetcher
	logger  *slog.Logger

	mu     sync.Mutex
	tabs   map[int]*tab
	nextID int
}

func New(f *fetcher.Fetcher, logger *slog.Logger) *Tabs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tabs{
		fetcher: f,
		logger:  logger,
		tabs:    make(map[int]*tab),
		nextID:  1,
	}
}

// Load fetches pageURL into a new active tab at the end of the window.
// The tab's URL is the address after redirects.
func (b *Tabs) Load(ctx context.Context, pageURL string) (models.Tab, error) {
	resp, err := b.fetcher.Get(ctx, pageURL)
	if err != nil {
		return models.Tab{}, fmt.Errorf("failed to load %s: %w", pageURL, err)
	}
	doc, err := inspector.ParseHTML(string(resp.Body))
	if err != nil {
		return models.Tab{}, err
	}
	return b.add(resp.FinalURL, doc), nil
}

// LoadHTML opens a tab showing html as if it had been served from pageURL.
func (b *Tabs) LoadHTML(pageURL, html string) (models.Tab, error) {
	doc, err := inspector.ParseHTML(html)
	if err != nil {
		return models.Tab{}, err
	}
	return b.add(pageURL, doc), nil
}

func (b *Tabs) add(pageURL string, doc *inspector.HTMLDocument) models.Tab {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.tabs {
		t.Active = false
	}
	t := &tab{
		Tab:    models.Tab{ID: b.nextID, Index: len(b.tabs), URL: pageURL, Active: true},
		doc:    doc,
		loaded: settled(),
	}
	b.nextID++
	b.tabs[t.ID] = t
	return t.Tab
}

func (b *Tabs) Tab(ctx context.Context, tabID int) (models.Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tabs[tabID]
	if !ok {
		return models.Tab{}, fmt.Errorf("tab %d: %w", tabID, inspector.ErrUnknownTab)
	}
	return t.Tab, nil
}

// List returns the tabs in window order.
func (b *Tabs) List() []models.Tab {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Tab, 0, len(b.tabs))
	for _, t := range b.tabs {
		out = append(out, t.Tab)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// OpenTab inserts a tab at index and starts navigating it to pageURL in the
// background. The navigation outlives ctx and ends when the tab is closed.
func (b *Tabs) OpenTab(ctx context.Context, pageURL string, index int, active bool) (models.Tab, error) {
	navCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index > len(b.tabs) {
		index = len(b.tabs)
	}
	for _, t := range b.tabs {
		if t.Index >= index {
			t.Index++
		}
		if active {
			t.Active = false
		}
	}
	t := &tab{
		Tab:    models.Tab{ID: b.nextID, Index: index, URL: pageURL, Active: active},
		loaded: make(chan struct{}),
		cancel: cancel,
	}
	b.nextID++
	b.tabs[t.ID] = t

	go b.navigate(navCtx, t, pageURL)
	return t.Tab, nil
}

// navigate loads target into t, then follows meta refreshes. A failed load
// ends the navigation; the tab keeps its last address and reports the error.
func (b *Tabs) navigate(ctx context.Context, t *tab, target string) {
	defer close(t.loaded)

	for hop := 0; target != ""; hop++ {
		if hop > maxRefreshHops {
			b.stop(ctx, t, fmt.Errorf("more than %d refreshes from %s", maxRefreshHops, t.URL))
			return
		}

		resp, err := b.fetcher.Get(ctx, target)
		if err != nil {
			b.stop(ctx, t, fmt.Errorf("failed to load %s: %w", target, err))
			return
		}
		doc, err := inspector.ParseHTML(string(resp.Body))
		if err != nil {
			b.stop(ctx, t, err)
			return
		}
		target = metaRefresh(doc, resp.FinalURL)

		b.mu.Lock()
		t.URL = resp.FinalURL
		t.doc = doc
		b.mu.Unlock()
		b.logger.Debug("tab navigated", "tab_id", t.ID, "url", resp.FinalURL, "refresh", target)
	}
}

func (b *Tabs) stop(ctx context.Context, t *tab, err error) {
	b.mu.Lock()
	t.err = err
	b.mu.Unlock()
	if ctx.Err() != nil {
		b.logger.Debug("tab navigation cancelled", "tab_id", t.ID, "error", err)
		return
	}
	b.logger.Warn("tab navigation failed", "tab_id", t.ID, "error", err)
}

// TabURL returns the tab's current address. A tab whose navigation failed
// reports the failure.
func (b *Tabs) TabURL(ctx context.Context, tabID int) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tabs[tabID]
	if !ok {
		return "", fmt.Errorf("tab %d: %w", tabID, inspector.ErrUnknownTab)
	}
	if t.err != nil {
		return t.URL, fmt.Errorf("tab %d: %w", tabID, t.err)
	}
	return t.URL, nil
}

// CloseTab removes the tab and stops its navigation.
func (b *Tabs) CloseTab(ctx context.Context, tabID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tabs[tabID]
	if !ok {
		return fmt.Errorf("tab %d: %w", tabID, inspector.ErrUnknownTab)
	}
	if t.cancel != nil {
		t.cancel()
	}
	delete(b.tabs, tabID)
	for _, other := range b.tabs {
		if other.Index > t.Index {
			other.Index--
		}
	}
	return nil
}

// Exec runs fn against the tab's current document. A tab that has not
// loaded anything yet is waited for.
func (b *Tabs) Exec(ctx context.Context, tabID int, fn func(doc inspector.Document) error) error {
	b.mu.Lock()
	t, ok := b.tabs[tabID]
	var doc *inspector.HTMLDocument
	if ok {
		doc = t.doc
	}
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("tab %d: %w", tabID, inspector.ErrUnknownTab)
	}
	if doc == nil {
		select {
		case <-t.loaded:
		case <-ctx.Done():
			return ctx.Err()
		}
		var err error
		b.mu.Lock()
		doc, err = t.doc, t.err
		b.mu.Unlock()
		if doc == nil {
			if err == nil {
				err = errNothingLoaded
			}
			return fmt.Errorf("tab %d: %w", tabID, err)
		}
	}
	return fn(doc)
}

// metaRefresh returns the absolute target of a <meta http-equiv="refresh">,
// or "".
func metaRefresh(doc *inspector.HTMLDocument, base string) string {
	var content string
	doc.Root().Find("meta[http-equiv]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if v, _ := s.Attr("http-equiv"); strings.EqualFold(v, "refresh") {
			content, _ = s.Attr("content")
			return false
		}
		return true
	})
	m := refreshTarget.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	target, err := baseURL.Parse(strings.TrimSpace(m[1]))
	if err != nil {
		return ""
	}
	return target.String()
}
