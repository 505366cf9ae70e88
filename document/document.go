// Package document exposes the parsed-document collaborators the diagram
// core depends on: getting a parsed ontology document by URI, resolving
// imports, and translating byte offsets into editor positions. Parsing the
// ontology language itself happens outside this module.
package document

import (
	"context"
	"sort"
	"sync"

	"github.com/c360studio/ontoview/diagram"
)

// Import is one import declaration of a document.
type Import struct {
	Prefix string `json:"prefix"`
	URI    string `json:"uri"`
}

// Statement is a top-level declaration carrying its name and source byte
// range.
type Statement struct {
	Name  string `json:"name"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Document is the AST root of one parsed ontology document.
type Document struct {
	URI        string      `json:"uri"`
	Namespace  string      `json:"namespace"`
	Prefix     string      `json:"prefix"`
	Imports    []Import    `json:"imports,omitempty"`
	Statements []Statement `json:"statements,omitempty"`
	// Text is the document source, kept for offset translation.
	Text string `json:"text"`

	lineIndex  sync.Once
	lineStarts []int
}

// Provider returns the parsed document for a URI, parsing on demand.
type Provider interface {
	Document(ctx context.Context, uri string) (*Document, error)
}

// ImportByPrefix returns the import declared under the given prefix.
func (d *Document) ImportByPrefix(prefix string) (Import, bool) {
	for _, imp := range d.Imports {
		if imp.Prefix == prefix {
			return imp, true
		}
	}
	return Import{}, false
}

// Statement returns the top-level declaration with the given name.
func (d *Document) Statement(name string) (Statement, bool) {
	for _, st := range d.Statements {
		if st.Name == name {
			return st, true
		}
	}
	return Statement{}, false
}

// Position converts a byte offset into a 1-based line and 0-based column.
// Safe for concurrent use; cached documents are shared across requests.
func (d *Document) Position(offset int) (line, column int) {
	d.lineIndex.Do(func() {
		d.lineStarts = []int{0}
		for i := 0; i < len(d.Text); i++ {
			if d.Text[i] == '\n' {
				d.lineStarts = append(d.lineStarts, i+1)
			}
		}
	})
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.Text) {
		offset = len(d.Text)
	}
	idx := sort.Search(len(d.lineStarts), func(i int) bool {
		return d.lineStarts[i] > offset
	}) - 1
	return idx + 1, offset - d.lineStarts[idx]
}

// Range translates a statement's byte range into a source range.
func (d *Document) Range(st Statement) diagram.SourceRange {
	sl, sc := d.Position(st.Start)
	el, ec := d.Position(st.End)
	return diagram.SourceRange{StartLine: sl, StartColumn: sc, EndLine: el, EndColumn: ec}
}
