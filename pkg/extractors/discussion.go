package extractors

import (
	"context"
	"fmt"
	"strings"

	"github.com/dtnitsch/enquote/models"
	"github.com/dtnitsch/enquote/pkg/inspector"
)

// deletedAuthor is what the site shows in place of a removed account.
const deletedAuthor = "[deleted]"

type discussionSelectors struct {
	author string
	title  string
	time   string
	body   string
}

// Discussion extracts a Reddit comment or post. The subreddit is the first
// URL capture.
type Discussion struct {
	in   inspector.Inspector
	kind models.SourceKind
	sel  discussionSelectors
}

func NewDiscussionComment(in inspector.Inspector) *Discussion {
	return &Discussion{
		in:   in,
		kind: models.KindDiscussionComment,
		sel: discussionSelectors{
			author: ".author-name-meta",
			title:  `[slot="title"]`,
			time:   `[slot="commentMeta"] time`,
			body:   `[slot="comment"] > div`,
		},
	}
}

func NewDiscussionPost(in inspector.Inspector) *Discussion {
	return &Discussion{
		in:   in,
		kind: models.KindDiscussionPost,
		sel: discussionSelectors{
			author: ".author-name",
			title:  `[slot="title"]`,
			time:   "time",
			body:   `[property="schema:articleBody"]`,
		},
	}
}

func (d *Discussion) Extract(ctx context.Context, req Request) (*models.Metadata, error) {
	subreddit := req.Capture(0)
	if subreddit == "" {
		return nil, fmt.Errorf("%s %s: missing subreddit capture", d.kind, req.URL)
	}

	md := &models.Metadata{
		Site:     "w:Reddit",
		Location: "r/" + subreddit,
		URL:      req.URL,
	}

	author, err := inspector.Optional(ctx, d.in, req.TabID, inspector.TrimmedText(d.sel.author))
	if err != nil {
		return nil, fmt.Errorf("%s author: %w", d.kind, err)
	}
	if author != "" && author != deletedAuthor {
		md.Authors = []string{"u/" + strings.TrimPrefix(author, "u/")}
	}

	if md.Title, err = inspector.Optional(ctx, d.in, req.TabID, inspector.TrimmedText(d.sel.title)); err != nil {
		return nil, fmt.Errorf("%s title: %w", d.kind, err)
	}
	if md.Date, err = inspector.Optional(ctx, d.in, req.TabID, inspector.Attr(d.sel.time, "datetime")); err != nil {
		return nil, fmt.Errorf("%s date: %w", d.kind, err)
	}
	// Removed comments and link posts have no body.
	if md.Passage, err = inspector.Optional(ctx, d.in, req.TabID, inspector.Text(d.sel.body)); err != nil {
		return nil, fmt.Errorf("%s body: %w", d.kind, err)
	}

	return md, nil
}
