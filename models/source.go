package models

// SourceKind is one of the page categories the pipeline knows how to cite.
type SourceKind string

const (
	KindNone              SourceKind = "none"
	KindSocialPost        SourceKind = "social-post"
	KindDiscussionComment SourceKind = "discussion-comment"
	KindDiscussionPost    SourceKind = "discussion-post"
	KindTextCollection    SourceKind = "text-collection"
	KindCatalogRecord     SourceKind = "catalog-record"
	KindArticle           SourceKind = "article" // structured-data fallback
)

// Kinds lists every kind that can appear in a SourceMatch, in classifier order.
var Kinds = []SourceKind{
	KindSocialPost,
	KindDiscussionComment,
	KindDiscussionPost,
	KindTextCollection,
	KindCatalogRecord,
	KindArticle,
}

// IsBook reports whether citations of this kind use the book grammar.
func (k SourceKind) IsBook() bool {
	return k == KindTextCollection || k == KindCatalogRecord
}

// IsDiscussion reports whether k is a discussion comment or post.
func (k SourceKind) IsDiscussion() bool {
	return k == KindDiscussionComment || k == KindDiscussionPost
}

// SourceMatch is the classifier's verdict for one URL.
// A KindNone match never carries captures.
type SourceMatch struct {
	Kind     SourceKind `json:"kind" yaml:"kind"`
	Captures []string   `json:"captures,omitempty" yaml:"captures,omitempty"`
}

// Capture returns the i-th capture or "" when absent.
func (m SourceMatch) Capture(i int) string {
	if i < 0 || i >= len(m.Captures) {
		return ""
	}
	return m.Captures[i]
}

// Tab is a browser tab as seen by the pipeline.
type Tab struct {
	ID     int    `json:"id"`
	Index  int    `json:"index"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}
