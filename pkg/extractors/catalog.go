package extractors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/dtnitsch/enquote/models"
	"github.com/dtnitsch/enquote/pkg/caching"
	"github.com/dtnitsch/enquote/pkg/fetcher"
	"github.com/dtnitsch/enquote/pkg/metrics"
)

type volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title               string   `json:"title"`
		Subtitle            string   `json:"subtitle"`
		Authors             []string `json:"authors"`
		Publisher           string   `json:"publisher"`
		PublishedDate       string   `json:"publishedDate"`
		IndustryIdentifiers []struct {
			Type       string `json:"type"`
			Identifier string `json:"identifier"`
		} `json:"industryIdentifiers"`
	} `json:"volumeInfo"`
}

// Catalog looks a volume up in the Google Books API by the id captured from
// the edition URL. It never touches the page.
type Catalog struct {
	fetcher *fetcher.Fetcher
	cache   *caching.Cache
	base    string
	logger  *slog.Logger
}

func NewCatalog(f *fetcher.Fetcher, cache *caching.Cache, base string, logger *slog.Logger) *Catalog {
	return &Catalog{
		fetcher: f,
		cache:   cache,
		base:    strings.TrimRight(base, "/"),
		logger:  logger,
	}
}

func (c *Catalog) Extract(ctx context.Context, req Request) (*models.Metadata, error) {
	id := req.Capture(0)
	if id == "" {
		return nil, fmt.Errorf("catalog record %s: missing volume id capture", req.URL)
	}

	endpoint := c.base + "/volumes/" + url.PathEscape(id)
	body, hit, err := c.cache.Fetch("volume:"+id, func() ([]byte, error) {
		return c.fetcher.GetBytes(ctx, endpoint)
	})
	if hit {
		metrics.CatalogLookups.WithLabelValues("hit").Inc()
	} else {
		metrics.CatalogLookups.WithLabelValues("miss").Inc()
	}
	if err != nil && body == nil {
		return nil, fmt.Errorf("catalog lookup %s: %w", id, err)
	}
	if err != nil {
		c.logger.Warn("failed to cache catalog response", "volume_id", id, "error", err)
	}

	var v volume
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("catalog lookup %s: failed to decode volume: %w", id, err)
	}
	info := v.VolumeInfo

	md := &models.Metadata{
		Authors: info.Authors,
		Title:   info.Title,
		Date:    info.PublishedDate,
		URL:     req.URL,
	}
	if info.Subtitle != "" {
		md.Title = info.Title + ": " + info.Subtitle
	}
	md.Location, md.Publisher = splitPublisher(info.Publisher)

	isbn := map[string]string{}
	for _, ident := range info.IndustryIdentifiers {
		isbn[ident.Type] = ident.Identifier
	}
	if v := isbn["ISBN_13"]; v != "" {
		md.SetIdentifier(models.IdentifierISBN, v)
	} else {
		md.SetIdentifier(models.IdentifierISBN, isbn["ISBN_10"])
	}
	md.SetIdentifier(models.IdentifierISSN, isbn["ISSN"])

	c.logger.Debug("catalog volume resolved", "volume_id", id, "cache_hit", hit, "title", md.Title)
	return md, nil
}
