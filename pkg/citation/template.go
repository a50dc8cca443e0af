package citation

import "strings"

// LinePrefix starts every rendered citation line.
const LinePrefix = "#* "

const (
	TemplateWeb  = "quote-web"
	TemplateBook = "quote-book"
)

// Field is one name=value pair of a template.
type Field struct {
	Name  string
	Value string
}

// Template is a built citation. Language is empty for RQ: templates, which
// carry their own.
type Template struct {
	Name     string
	Language string
	Fields   []Field
}

// Value returns the first value stored under name.
func (t Template) Value(name string) string {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// String renders the template. Fields with empty values are skipped.
func (t Template) String() string {
	var b strings.Builder
	b.WriteString(LinePrefix)
	b.WriteString("{{")
	b.WriteString(t.Name)
	if t.Language != "" {
		b.WriteString("|")
		b.WriteString(t.Language)
	}
	for _, f := range t.Fields {
		if f.Value == "" {
			continue
		}
		b.WriteString("|")
		b.WriteString(f.Name)
		b.WriteString("=")
		b.WriteString(f.Value)
	}
	b.WriteString("}}")
	return b.String()
}

// fieldList accumulates fields in insertion order, dropping empty values.
type fieldList []Field

func (l *fieldList) add(name, value string) {
	if value == "" {
		return
	}
	*l = append(*l, Field{Name: name, Value: value})
}
