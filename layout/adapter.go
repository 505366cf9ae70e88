package layout

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"unicode/utf8"

	"github.com/c360studio/ontoview/diagram"
)

// tailLabelOffset is how far before the arrowhead, in logical units, a
// TAIL-placed label sits after post-processing.
const tailLabelOffset = 12.0

// Adapter wraps a layout engine behind the diagram's fixed layout policy.
// It fails soft: any engine or decode error leaves the graph un-laid-out
// rather than propagating.
type Adapter struct {
	engine  Engine
	spacing Spacing
	logger  *slog.Logger
}

// NewAdapter creates an adapter around the given engine.
func NewAdapter(engine Engine, spacing Spacing, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{engine: engine, spacing: spacing, logger: logger}
}

// Layout computes positions and routes for the graph in place and returns
// it. On engine failure the graph is returned unchanged, with no positions
// populated; the error is logged, never surfaced.
func (a *Adapter) Layout(ctx context.Context, g *diagram.VisualGraph) *diagram.VisualGraph {
	req := a.buildRequest(g)

	res, err := a.engine.Layout(ctx, req)
	if err != nil {
		a.logger.Warn("Layout engine failed, rendering without positions",
			"uri", g.URI, "error", err.Error())
		return g
	}
	if err := applyResult(g, res); err != nil {
		a.logger.Warn("Layout result did not match the request graph",
			"uri", g.URI, "error", err.Error())
		return g
	}

	nudgeTailLabels(g)
	return g
}

func (a *Adapter) buildRequest(g *diagram.VisualGraph) *ELKGraph {
	req := &ELKGraph{
		ID:            "root",
		LayoutOptions: rootOptions(a.spacing),
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		en := &ELKNode{
			ID:     n.ID,
			Width:  n.Size.Width,
			Height: n.Size.Height,
			LayoutOptions: &ELKOpts{
				NodeLabelPlacement: "[H_CENTER, V_TOP, INSIDE]",
			},
		}
		if n.Label != "" {
			en.Labels = append(en.Labels, &ELKLabel{
				Text:   n.Label,
				Width:  charWidth * float64(utf8.RuneCountInString(n.Label)),
				Height: labelHeight,
			})
		}
		req.Children = append(req.Children, en)
	}

	for i := range g.Edges {
		e := &g.Edges[i]
		ee := &ELKEdge{
			ID:      e.ID,
			Sources: []string{e.Source},
			Targets: []string{e.Target},
		}
		if e.Routing == diagram.RoutingGeneralization {
			// Hierarchy edges anchor on fixed north/south sides.
			ee.LayoutOptions = &ELKOpts{
				PortConstraints: "FIXED_SIDE",
				PortSide:        "NORTH",
			}
		}
		if e.Label != "" {
			ee.Labels = append(ee.Labels, &ELKLabel{
				Text:   e.Label,
				Width:  charWidth * float64(utf8.RuneCountInString(e.Label)),
				Height: labelHeight,
				LayoutOptions: &ELKOpts{
					EdgeLabelPlacement: string(e.Placement),
				},
			})
		}
		req.Edges = append(req.Edges, ee)
	}

	return req
}

const (
	charWidth   = 7.5
	labelHeight = 14.0
)

// applyResult copies engine positions and routes back onto the graph.
// The graph is mutated only after every node and edge has been matched
// against the result, so a malformed result leaves it fully un-laid-out.
func applyResult(g *diagram.VisualGraph, res *ELKGraph) error {
	nodes := make(map[string]*ELKNode, len(res.Children))
	for _, n := range res.Children {
		nodes[n.ID] = n
	}
	edges := make(map[string]*ELKEdge, len(res.Edges))
	for _, e := range res.Edges {
		edges[e.ID] = e
	}

	matchedNodes := make([]*ELKNode, len(g.Nodes))
	for i := range g.Nodes {
		n, ok := nodes[g.Nodes[i].ID]
		if !ok {
			return fmt.Errorf("node %q missing from layout result", g.Nodes[i].ID)
		}
		matchedNodes[i] = n
	}
	matchedEdges := make([]*ELKEdge, len(g.Edges))
	for i := range g.Edges {
		e, ok := edges[g.Edges[i].ID]
		if !ok {
			return fmt.Errorf("edge %q missing from layout result", g.Edges[i].ID)
		}
		matchedEdges[i] = e
	}

	for i, n := range matchedNodes {
		g.Nodes[i].Position = &diagram.Point{X: n.X, Y: n.Y}
		g.Nodes[i].Size = diagram.Size{Width: n.Width, Height: n.Height}
	}
	for i, e := range matchedEdges {
		var route []diagram.Point
		for _, s := range e.Sections {
			route = append(route, diagram.Point{X: s.Start.X, Y: s.Start.Y})
			for _, bp := range s.BendPoints {
				route = append(route, diagram.Point{X: bp.X, Y: bp.Y})
			}
			route = append(route, diagram.Point{X: s.End.X, Y: s.End.Y})
		}
		g.Edges[i].Route = route
		if len(e.Labels) > 0 {
			g.Edges[i].LabelPosition = &diagram.Point{X: e.Labels[0].X, Y: e.Labels[0].Y}
		}
	}
	return nil
}

// nudgeTailLabels moves TAIL-placed labels to sit tailLabelOffset units
// before the arrowhead along the final routing segment's direction vector.
// Zero-length final segments are skipped.
func nudgeTailLabels(g *diagram.VisualGraph) {
	for i := range g.Edges {
		e := &g.Edges[i]
		if e.Placement != diagram.LabelTail || len(e.Route) < 2 {
			continue
		}
		last := e.Route[len(e.Route)-1]
		prev := e.Route[len(e.Route)-2]
		dx, dy := last.X-prev.X, last.Y-prev.Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		e.LabelPosition = &diagram.Point{
			X: last.X - tailLabelOffset*dx/length,
			Y: last.Y - tailLabelOffset*dy/length,
		}
	}
}
