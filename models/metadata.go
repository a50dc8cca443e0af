package models

// Identifier kinds used in Metadata.Identifiers.
const (
	IdentifierISBN = "isbn"
	IdentifierISSN = "issn"
)

// Metadata is the bibliographic record built by an extractor.
// Missing fields are left empty; the formatter omits them.
type Metadata struct {
	Authors     []string          `json:"authors,omitempty"`
	Title       string            `json:"title,omitempty"`
	Date        string            `json:"date,omitempty"` // ISO timestamp or free text
	Publisher   string            `json:"publisher,omitempty"`
	Location    string            `json:"location,omitempty"`
	Identifiers map[string]string `json:"identifiers,omitempty"`
	Passage     string            `json:"passage,omitempty"`

	Page string `json:"page,omitempty"` // page or frame number in book viewers
	Site string `json:"site,omitempty"` // e.g. "w:Reddit"
	URL  string `json:"url,omitempty"`
}

// SetIdentifier records an identifier, ignoring empty values.
func (m *Metadata) SetIdentifier(kind, value string) {
	if value == "" {
		return
	}
	if m.Identifiers == nil {
		m.Identifiers = make(map[string]string)
	}
	m.Identifiers[kind] = value
}

// Identifier returns the identifier of the given kind, or "".
func (m *Metadata) Identifier(kind string) string {
	if m.Identifiers == nil {
		return ""
	}
	return m.Identifiers[kind]
}

// ArchiveResult is the outcome of one archive capture.
type ArchiveResult struct {
	ArchiveURL  string `json:"archiveUrl"`
	ArchiveDate string `json:"archiveDate"` // YYYY-MM-DD
}

// EmptyArchive denotes a failed or timed-out capture.
var EmptyArchive = ArchiveResult{}

// IsEmpty reports whether the capture failed.
func (r ArchiveResult) IsEmpty() bool {
	return r.ArchiveURL == ""
}
