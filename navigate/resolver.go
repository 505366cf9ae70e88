// Package navigate resolves clicked diagram identifiers back to source
// locations, following imports across documents when the member is
// qualified with a prefix.
package navigate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/c360studio/ontoview/diagram"
	"github.com/c360studio/ontoview/document"
	"github.com/c360studio/ontoview/ident"
)

// Location is a resolved navigation target. Lines are 1-based, columns
// 0-based, per the editor host convention.
type Location struct {
	URI         string `json:"uri,omitempty"`
	StartLine   int    `json:"startLine"`
	StartColumn int    `json:"startColumn"`
	EndLine     int    `json:"endLine"`
	EndColumn   int    `json:"endColumn"`
}

func locationOf(doc *document.Document, st document.Statement) *Location {
	r := doc.Range(st)
	return &Location{
		URI:         doc.URI,
		StartLine:   r.StartLine,
		StartColumn: r.StartColumn,
		EndLine:     r.EndLine,
		EndColumn:   r.EndColumn,
	}
}

// SourceRange converts the location back to the diagram range shape.
func (l *Location) SourceRange() diagram.SourceRange {
	return diagram.SourceRange{
		StartLine:   l.StartLine,
		StartColumn: l.StartColumn,
		EndLine:     l.EndLine,
		EndColumn:   l.EndColumn,
	}
}

// Resolver turns element identifiers into source locations. Misses are
// never errors: the caller gets nil and takes no action.
type Resolver struct {
	provider document.Provider
	logger   *slog.Logger
}

// NewResolver creates a resolver over the given document provider.
func NewResolver(provider document.Provider, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{provider: provider, logger: logger}
}

// Resolve decodes the identifier and finds the declaration it names,
// searching the current document first and imported documents for
// prefix-qualified members. A nil result means no navigation target.
func (r *Resolver) Resolve(ctx context.Context, uri, elementID string) *Location {
	doc, err := r.provider.Document(ctx, uri)
	if err != nil {
		r.logger.Warn("No document for navigation request", "uri", uri, "error", err.Error())
		return nil
	}

	// Fully-qualified namespace references resolve to the declaration
	// that introduces them, possibly in a transitively imported document.
	if strings.Contains(elementID, "://") {
		visited := map[string]bool{}
		if loc := r.resolveNamespace(ctx, doc, elementID, visited); loc != nil {
			return loc
		}
		r.logger.Debug("Namespace reference did not resolve", "uri", uri, "ref", elementID)
		return nil
	}

	name, _ := ident.Decode(elementID)

	// A prefixed member lives in the imported document the prefix maps to.
	if prefix, local, ok := strings.Cut(name, ":"); ok {
		imp, found := doc.ImportByPrefix(prefix)
		if !found {
			r.logger.Debug("Unknown import prefix", "uri", uri, "prefix", prefix)
			return nil
		}
		imported, err := r.provider.Document(ctx, imp.URI)
		if err != nil {
			r.logger.Warn("Imported document unavailable",
				"uri", imp.URI, "prefix", prefix, "error", err.Error())
			return nil
		}
		doc, name = imported, local
	}

	st, ok := doc.Statement(name)
	if !ok {
		r.logger.Debug("No declaration for member", "uri", doc.URI, "member", name)
		return nil
	}
	return locationOf(doc, st)
}

// resolveNamespace searches the document's top-level declarations for a
// namespace match, then recursively searches imports. The visited set
// guards against import cycles; first match wins.
func (r *Resolver) resolveNamespace(ctx context.Context, doc *document.Document, ns string, visited map[string]bool) *Location {
	if visited[doc.URI] {
		return nil
	}
	visited[doc.URI] = true

	for _, st := range doc.Statements {
		if st.Name == ns {
			return locationOf(doc, st)
		}
	}
	if doc.Namespace == ns {
		if len(doc.Statements) > 0 {
			return locationOf(doc, doc.Statements[0])
		}
	}

	for _, imp := range doc.Imports {
		imported, err := r.provider.Document(ctx, imp.URI)
		if err != nil {
			continue
		}
		if loc := r.resolveNamespace(ctx, imported, ns, visited); loc != nil {
			return loc
		}
	}
	return nil
}
