// Package extractors builds bibliographic metadata for each kind of source.
//
// Every strategy satisfies Extractor. Strategies that read the page go
// through an inspector.Inspector; the catalog strategy calls a remote API
// instead. A missing page element degrades the affected field to empty;
// anything else is returned to the caller.
package extractors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dtnitsch/enquote/models"
	"github.com/dtnitsch/enquote/pkg/caching"
	"github.com/dtnitsch/enquote/pkg/fetcher"
	"github.com/dtnitsch/enquote/pkg/inspector"
)

var (
	// ErrNoStructuredData means the page has no usable article block.
	ErrNoStructuredData = errors.New("no article structured data on page")
	// ErrUnsupportedMedia means a collection item is not a textual work.
	ErrUnsupportedMedia = errors.New("only textual works are supported")
)

// Request identifies the page being extracted.
type Request struct {
	TabID    int
	URL      string // cleaned page URL
	Captures []string
}

// Capture returns the i-th URL capture, or "".
func (r Request) Capture(i int) string {
	if i < 0 || i >= len(r.Captures) {
		return ""
	}
	return r.Captures[i]
}

// Extractor produces a Metadata record for one page.
type Extractor interface {
	Extract(ctx context.Context, req Request) (*models.Metadata, error)
}

// Deps are the collaborators shared by the strategies.
type Deps struct {
	Inspector     inspector.Inspector
	Fetcher       *fetcher.Fetcher
	Cache         *caching.Cache
	CatalogBase   string
	MaxFrameDepth int
	Logger        *slog.Logger
}

// Registry maps each source kind to its strategy. KindArticle holds the
// structured-data fallback used for unmatched URLs.
type Registry map[models.SourceKind]Extractor

// NewRegistry wires every strategy to deps.
func NewRegistry(deps Deps) Registry {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return Registry{
		models.KindSocialPost:        NewSocialPost(deps.Inspector),
		models.KindDiscussionComment: NewDiscussionComment(deps.Inspector),
		models.KindDiscussionPost:    NewDiscussionPost(deps.Inspector),
		models.KindTextCollection:    NewTextCollection(deps.Inspector, deps.MaxFrameDepth),
		models.KindCatalogRecord:     NewCatalog(deps.Fetcher, deps.Cache, deps.CatalogBase, logger),
		models.KindArticle:           NewStructured(deps.Inspector, logger),
	}
}
