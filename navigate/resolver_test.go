package navigate

import (
	"context"
	"fmt"
	"testing"

	"github.com/c360studio/ontoview/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider serves documents from a map.
type fakeProvider struct {
	docs map[string]*document.Document
}

func (p *fakeProvider) Document(_ context.Context, uri string) (*document.Document, error) {
	d, ok := p.docs[uri]
	if !ok {
		return nil, fmt.Errorf("no document for %s", uri)
	}
	return d, nil
}

func testDocs() *fakeProvider {
	// mission.oml imports base.oml under the "base" prefix.
	base := &document.Document{
		URI:       "file:///base.oml",
		Namespace: "http://example.org/base#",
		Prefix:    "base",
		Text:      "vocabulary base\nconcept Named\nconcept Thing\n",
		Statements: []document.Statement{
			{Name: "Named", Start: 16, End: 29},
			{Name: "Thing", Start: 30, End: 43},
		},
	}
	mission := &document.Document{
		URI:       "file:///mission.oml",
		Namespace: "http://example.org/mission#",
		Prefix:    "mission",
		Text:      "vocabulary mission\nconcept Component\n",
		Imports: []document.Import{
			{Prefix: "base", URI: "file:///base.oml"},
		},
		Statements: []document.Statement{
			{Name: "Component", Start: 19, End: 36},
		},
	}
	return &fakeProvider{docs: map[string]*document.Document{
		base.URI:    base,
		mission.URI: mission,
	}}
}

func TestResolveLocalMember(t *testing.T) {
	r := NewResolver(testDocs(), nil)

	loc := r.Resolve(context.Background(), "file:///mission.oml", "Component")
	require.NotNil(t, loc)
	assert.Equal(t, "file:///mission.oml", loc.URI)
	assert.Equal(t, 2, loc.StartLine)
	assert.Equal(t, 0, loc.StartColumn)
}

func TestResolveImportedMember(t *testing.T) {
	r := NewResolver(testDocs(), nil)

	loc := r.Resolve(context.Background(), "file:///mission.oml", "base:Named")
	require.NotNil(t, loc)
	assert.Equal(t, "file:///base.oml", loc.URI)
	assert.Equal(t, 2, loc.StartLine)
}

func TestResolveDecodesSynthesizedIdentifier(t *testing.T) {
	r := NewResolver(testDocs(), nil)

	// A specialization edge id decodes to its source member.
	loc := r.Resolve(context.Background(), "file:///mission.oml", "[Component]->[base:Thing]")
	require.NotNil(t, loc)
	assert.Equal(t, "file:///mission.oml", loc.URI)

	// A role edge on an imported member follows the prefix.
	loc = r.Resolve(context.Background(), "file:///mission.oml", "base:Thing-edge1")
	require.NotNil(t, loc)
	assert.Equal(t, "file:///base.oml", loc.URI)
	assert.Equal(t, 3, loc.StartLine)
}

func TestResolveNamespaceReference(t *testing.T) {
	p := testDocs()
	// The base document declares the namespace as a statement name.
	p.docs["file:///base.oml"].Statements = append(
		p.docs["file:///base.oml"].Statements,
		document.Statement{Name: "http://example.org/other#", Start: 16, End: 29},
	)
	r := NewResolver(p, nil)

	loc := r.Resolve(context.Background(), "file:///mission.oml", "http://example.org/other#")
	require.NotNil(t, loc)
	assert.Equal(t, "file:///base.oml", loc.URI)
}

func TestResolveNamespaceFallsBackToDocumentNamespace(t *testing.T) {
	r := NewResolver(testDocs(), nil)

	// No statement carries the namespace; the importing search falls back
	// to the imported document whose own namespace matches.
	loc := r.Resolve(context.Background(), "file:///mission.oml", "http://example.org/base#")
	require.NotNil(t, loc)
	assert.Equal(t, "file:///base.oml", loc.URI)
	assert.Equal(t, 2, loc.StartLine)
}

func TestResolveNamespaceImportCycle(t *testing.T) {
	p := testDocs()
	// Make the import graph cyclic.
	p.docs["file:///base.oml"].Imports = []document.Import{
		{Prefix: "mission", URI: "file:///mission.oml"},
	}
	r := NewResolver(p, nil)

	// Must terminate and miss cleanly.
	loc := r.Resolve(context.Background(), "file:///mission.oml", "http://example.org/absent#")
	assert.Nil(t, loc)
}

func TestResolveMisses(t *testing.T) {
	r := NewResolver(testDocs(), nil)
	ctx := context.Background()

	assert.Nil(t, r.Resolve(ctx, "file:///mission.oml", "NoSuchMember"))
	assert.Nil(t, r.Resolve(ctx, "file:///mission.oml", "unknown:Member"))
	assert.Nil(t, r.Resolve(ctx, "file:///missing.oml", "Component"))
}

func TestLocationSourceRange(t *testing.T) {
	loc := &Location{StartLine: 3, StartColumn: 2, EndLine: 5, EndColumn: 1}
	r := loc.SourceRange()
	assert.Equal(t, 3, r.StartLine)
	assert.Equal(t, 5, r.EndLine)
}
