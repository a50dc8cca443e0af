package extractors

import (
	"context"
	"fmt"

	"github.com/dtnitsch/enquote/models"
	"github.com/dtnitsch/enquote/pkg/inspector"
)

const (
	tweetTimeSelector = `[aria-label*=" · "] > time`
	tweetTextSelector = `article:has([aria-label*=" · "]) [data-testid="tweetText"]`
)

// SocialPost extracts a single post on X/Twitter. The handle comes from
// the URL; the timestamp and body come from the focused post's article.
type SocialPost struct {
	in inspector.Inspector
}

func NewSocialPost(in inspector.Inspector) *SocialPost {
	return &SocialPost{in: in}
}

func (s *SocialPost) Extract(ctx context.Context, req Request) (*models.Metadata, error) {
	handle := req.Capture(0)
	if handle == "" {
		return nil, fmt.Errorf("social post %s: missing handle capture", req.URL)
	}

	md := &models.Metadata{
		Authors: []string{"@" + handle},
		Site:    "w:Twitter",
		URL:     req.URL,
	}

	date, err := inspector.Optional(ctx, s.in, req.TabID, inspector.Attr(tweetTimeSelector, "datetime"))
	if err != nil {
		return nil, fmt.Errorf("social post date: %w", err)
	}
	md.Date = date

	// Deleted or withheld posts have no text element.
	passage, err := inspector.Optional(ctx, s.in, req.TabID, inspector.Text(tweetTextSelector))
	if err != nil {
		return nil, fmt.Errorf("social post text: %w", err)
	}
	md.Passage = passage

	return md, nil
}
