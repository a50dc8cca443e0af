// Package inspector runs extraction routines against a tab's document.
//
// An Inspector owns the live documents; callers hand it a routine and get
// back whatever the routine returned. Documents form a forest: a page can
// embed sub-documents (frames), each of which is itself a Document.
package inspector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNotFound is returned when a routine's expected element is absent.
var ErrNotFound = errors.New("element not found")

// Document is one node of a tab's document forest.
type Document interface {
	Root() *goquery.Selection
	Frames() []Document
}

// Inspector executes fn in the document context of the given tab.
type Inspector interface {
	Exec(ctx context.Context, tabID int, fn func(doc Document) error) error
}

// Run executes fn through in and returns its result.
func Run[T any](ctx context.Context, in Inspector, tabID int, fn func(doc Document) (T, error)) (T, error) {
	var out T
	err := in.Exec(ctx, tabID, func(doc Document) error {
		v, err := fn(doc)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// Text returns a routine yielding the raw text content of the first element
// matching selector.
func Text(selector string) func(Document) (string, error) {
	return func(doc Document) (string, error) {
		sel := doc.Root().Find(selector).First()
		if sel.Length() == 0 {
			return "", fmt.Errorf("%s: %w", selector, ErrNotFound)
		}
		return sel.Text(), nil
	}
}

// TrimmedText is Text with surrounding whitespace removed.
func TrimmedText(selector string) func(Document) (string, error) {
	text := Text(selector)
	return func(doc Document) (string, error) {
		s, err := text(doc)
		return strings.TrimSpace(s), err
	}
}

// Attr returns a routine yielding attribute attr of the first element
// matching selector.
func Attr(selector, attr string) func(Document) (string, error) {
	return func(doc Document) (string, error) {
		sel := doc.Root().Find(selector).First()
		if sel.Length() == 0 {
			return "", fmt.Errorf("%s: %w", selector, ErrNotFound)
		}
		v, ok := sel.Attr(attr)
		if !ok {
			return "", fmt.Errorf("%s[%s]: %w", selector, attr, ErrNotFound)
		}
		return v, nil
	}
}

// All returns a routine yielding the text of every element matching selector.
func All(selector string) func(Document) ([]string, error) {
	return func(doc Document) ([]string, error) {
		var out []string
		doc.Root().Find(selector).Each(func(i int, s *goquery.Selection) {
			out = append(out, s.Text())
		})
		return out, nil
	}
}

// Optional runs fn and converts ErrNotFound into an empty result, so a
// missing element degrades a single field instead of failing the extraction.
func Optional(ctx context.Context, in Inspector, tabID int, fn func(Document) (string, error)) (string, error) {
	v, err := Run(ctx, in, tabID, fn)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// FindInForest searches doc and its embedded sub-documents for selector,
// breadth first. Documents deeper than maxDepth frames are not visited.
func FindInForest(doc Document, selector string, maxDepth int) (*goquery.Selection, error) {
	type item struct {
		doc   Document
		depth int
	}

	queue := []item{{doc: doc}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if sel := cur.doc.Root().Find(selector).First(); sel.Length() > 0 {
			return sel, nil
		}
		if cur.depth >= maxDepth {
			continue
		}
		for _, child := range cur.doc.Frames() {
			queue = append(queue, item{doc: child, depth: cur.depth + 1})
		}
	}
	return nil, fmt.Errorf("%s within %d frames: %w", selector, maxDepth, ErrNotFound)
}
