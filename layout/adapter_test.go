package layout

import (
	"context"
	"errors"
	"testing"

	"github.com/c360studio/ontoview/diagram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGraph() *diagram.VisualGraph {
	return &diagram.VisualGraph{
		URI: "file:///test.oml",
		Nodes: []diagram.VisualNode{
			{ID: "A", Label: "A", Size: diagram.Size{Width: 120, Height: 56}},
			{ID: "B", Label: "B", Size: diagram.Size{Width: 120, Height: 56}},
		},
		Edges: []diagram.VisualEdge{
			{ID: "r", Source: "A", Target: "B", Label: "rel", Placement: diagram.LabelTail},
		},
	}
}

func TestLayoutEngineFailureFailsSoft(t *testing.T) {
	engine := EngineFunc(func(ctx context.Context, g *ELKGraph) (*ELKGraph, error) {
		return nil, errors.New("engine exploded")
	})
	a := NewAdapter(engine, DefaultSpacing(), nil)

	g := testGraph()
	got := a.Layout(context.Background(), g)

	require.Same(t, g, got)
	for _, n := range got.Nodes {
		assert.Nil(t, n.Position)
	}
	for _, e := range got.Edges {
		assert.Nil(t, e.Route)
	}
}

func TestLayoutMismatchedResultFailsSoft(t *testing.T) {
	engine := EngineFunc(func(ctx context.Context, g *ELKGraph) (*ELKGraph, error) {
		// Result omits every node the request named.
		return &ELKGraph{ID: "root"}, nil
	})
	a := NewAdapter(engine, DefaultSpacing(), nil)

	got := a.Layout(context.Background(), testGraph())
	for _, n := range got.Nodes {
		assert.Nil(t, n.Position)
	}
}

func TestLayoutPartialResultLeavesGraphUntouched(t *testing.T) {
	engine := EngineFunc(func(ctx context.Context, g *ELKGraph) (*ELKGraph, error) {
		// Result positions every node but omits the edge.
		res := &ELKGraph{ID: g.ID}
		for _, n := range g.Children {
			res.Children = append(res.Children, &ELKNode{
				ID: n.ID, X: 42, Y: 42,
				Width: n.Width, Height: n.Height,
			})
		}
		return res, nil
	})
	a := NewAdapter(engine, DefaultSpacing(), nil)

	g := testGraph()
	got := a.Layout(context.Background(), g)

	require.Same(t, g, got)
	for _, n := range got.Nodes {
		assert.Nil(t, n.Position, n.ID)
	}
	for _, e := range got.Edges {
		assert.Nil(t, e.Route, e.ID)
	}
}

func TestLayoutAppliesPositionsAndRoutes(t *testing.T) {
	engine := EngineFunc(func(ctx context.Context, g *ELKGraph) (*ELKGraph, error) {
		res := &ELKGraph{ID: g.ID}
		for i, n := range g.Children {
			res.Children = append(res.Children, &ELKNode{
				ID: n.ID, X: float64(i) * 200, Y: 10,
				Width: n.Width, Height: n.Height,
			})
		}
		for _, e := range g.Edges {
			res.Edges = append(res.Edges, &ELKEdge{
				ID: e.ID,
				Sections: []ELKEdgeSection{{
					Start:      ELKPoint{X: 120, Y: 38},
					BendPoints: []ELKPoint{{X: 150, Y: 38}},
					End:        ELKPoint{X: 200, Y: 38},
				}},
				Labels: []*ELKLabel{{Text: "rel", X: 140, Y: 20}},
			})
		}
		return res, nil
	})
	a := NewAdapter(engine, DefaultSpacing(), nil)

	got := a.Layout(context.Background(), testGraph())

	require.NotNil(t, got.Nodes[0].Position)
	assert.Equal(t, 0.0, got.Nodes[0].Position.X)
	assert.Equal(t, 200.0, got.Nodes[1].Position.X)

	require.Len(t, got.Edges[0].Route, 3)
	assert.Equal(t, diagram.Point{X: 150, Y: 38}, got.Edges[0].Route[1])
}

func TestNudgeTailLabels(t *testing.T) {
	g := &diagram.VisualGraph{
		Edges: []diagram.VisualEdge{
			{
				ID:        "r",
				Placement: diagram.LabelTail,
				Route: []diagram.Point{
					{X: 0, Y: 0},
					{X: 100, Y: 0},
				},
				LabelPosition: &diagram.Point{X: 50, Y: 0},
			},
		},
	}

	nudgeTailLabels(g)

	// 12 units back from the arrowhead along the final segment.
	require.NotNil(t, g.Edges[0].LabelPosition)
	assert.InDelta(t, 88.0, g.Edges[0].LabelPosition.X, 1e-9)
	assert.InDelta(t, 0.0, g.Edges[0].LabelPosition.Y, 1e-9)
}

func TestNudgeTailLabelsSkipsDegenerateRoutes(t *testing.T) {
	orig := &diagram.Point{X: 5, Y: 5}
	g := &diagram.VisualGraph{
		Edges: []diagram.VisualEdge{
			{ID: "short", Placement: diagram.LabelTail, Route: []diagram.Point{{X: 1, Y: 1}}, LabelPosition: orig},
			{ID: "zero", Placement: diagram.LabelTail, Route: []diagram.Point{{X: 2, Y: 2}, {X: 2, Y: 2}}, LabelPosition: orig},
			{ID: "center", Placement: diagram.LabelCenter, Route: []diagram.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, LabelPosition: orig},
		},
	}

	nudgeTailLabels(g)

	for _, e := range g.Edges {
		assert.Same(t, orig, e.LabelPosition, e.ID)
	}
}

func TestBuildRequestOptions(t *testing.T) {
	a := NewAdapter(nil, DefaultSpacing(), nil)
	g := &diagram.VisualGraph{
		Nodes: []diagram.VisualNode{
			{ID: "A", Label: "A", Size: diagram.Size{Width: 120, Height: 56}},
			{ID: "B", Label: "B", Size: diagram.Size{Width: 120, Height: 56}},
		},
		Edges: []diagram.VisualEdge{
			{ID: "[A]->[B]", Source: "A", Target: "B", Routing: diagram.RoutingGeneralization},
			{ID: "r", Source: "A", Target: "B", Label: "rel", Routing: diagram.RoutingAssociation, Placement: diagram.LabelTail},
		},
	}

	req := a.buildRequest(g)

	require.NotNil(t, req.LayoutOptions)
	assert.Equal(t, "layered", req.LayoutOptions.Algorithm)

	require.Len(t, req.Edges, 2)
	require.NotNil(t, req.Edges[0].LayoutOptions)
	assert.Equal(t, "FIXED_SIDE", req.Edges[0].LayoutOptions.PortConstraints)
	assert.Equal(t, "NORTH", req.Edges[0].LayoutOptions.PortSide)

	require.Len(t, req.Edges[1].Labels, 1)
	assert.Equal(t, string(diagram.LabelTail), req.Edges[1].Labels[0].LayoutOptions.EdgeLabelPlacement)
}

func TestBuildRequestLabelWidthCountsRunes(t *testing.T) {
	a := NewAdapter(nil, DefaultSpacing(), nil)
	g := &diagram.VisualGraph{
		Nodes: []diagram.VisualNode{
			{ID: "A", Label: "entité", Size: diagram.Size{Width: 120, Height: 56}},
		},
		Edges: []diagram.VisualEdge{
			{ID: "r", Source: "A", Target: "A", Label: "reliéÀ"},
		},
	}

	req := a.buildRequest(g)

	require.Len(t, req.Children[0].Labels, 1)
	assert.Equal(t, charWidth*6, req.Children[0].Labels[0].Width)
	require.Len(t, req.Edges[0].Labels, 1)
	assert.Equal(t, charWidth*6, req.Edges[0].Labels[0].Width)
}
