package extractors

import (
	"bytes"
	"encoding/json"
	"strings"
)

// authorList normalizes an author field that may be a bare string, a single
// {"name": ...} object, or a list of either. Only the names survive. A bare
// string is treated as a byline and split; names inside objects and lists
// are kept whole, so "Doe, Jane" stays one author.
type authorList []string

func (a *authorList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = splitByline(s)
		return nil
	}
	names, err := authorNames(data)
	if err != nil {
		return err
	}
	*a = names
	return nil
}

// authorNames collects whole names from a string, an object or a list.
func authorNames(data []byte) ([]string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		if s = strings.TrimSpace(s); s != "" {
			return []string{s}, nil
		}
	case '{':
		var obj struct {
			Name json.RawMessage `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		var name string
		if err := json.Unmarshal(obj.Name, &name); err == nil {
			if name = strings.TrimSpace(name); name != "" {
				return []string{name}, nil
			}
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		var out []string
		for _, item := range items {
			names, err := authorNames(item)
			if err != nil {
				return nil, err
			}
			out = append(out, names...)
		}
		return out, nil
	}
	return nil, nil
}

// stringList accepts a string or a list of strings.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*s = items
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		// numbers and other scalars, e.g. a bare year
		*s = stringList{strings.Trim(string(data), `"`)}
		return nil
	}
	if one == "" {
		*s = nil
		return nil
	}
	*s = stringList{one}
	return nil
}

// First returns the first non-empty entry.
func (s stringList) First() string {
	for _, v := range s {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Values returns the non-empty entries, trimmed.
func (s stringList) Values() []string {
	var out []string
	for _, v := range s {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// splitByline turns a byline such as "By Jane Doe, John Roe and Ann Poe"
// into individual names.
func splitByline(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "By ")
	s = strings.TrimPrefix(s, "by ")
	s = strings.ReplaceAll(s, " and ", ", ")
	s = strings.ReplaceAll(s, " & ", ", ")

	var names []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

// splitPublisher splits a combined "Location: Publisher" field. Fields
// without the separator are returned as the publisher.
func splitPublisher(s string) (location, publisher string) {
	s = strings.TrimSpace(s)
	for _, sep := range []string{" : ", ": "} {
		if i := strings.Index(s, sep); i > 0 {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(sep):])
		}
	}
	return "", s
}
