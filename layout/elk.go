// Package layout drives an external layered graph-layout engine through a
// fixed ELK JSON request/response contract and maps the result back onto
// the visual graph. The engine itself is pluggable; the adapter owns the
// layout policy and all post-processing.
package layout

// ELKNode mirrors one node of the ELK JSON graph format.
type ELKNode struct {
	ID            string      `json:"id"`
	X             float64     `json:"x"`
	Y             float64     `json:"y"`
	Width         float64     `json:"width"`
	Height        float64     `json:"height"`
	Labels        []*ELKLabel `json:"labels,omitempty"`
	LayoutOptions *ELKOpts    `json:"layoutOptions,omitempty"`
}

// ELKLabel is a node or edge label with engine-assigned placement.
type ELKLabel struct {
	Text          string   `json:"text"`
	X             float64  `json:"x"`
	Y             float64  `json:"y"`
	Width         float64  `json:"width"`
	Height        float64  `json:"height"`
	LayoutOptions *ELKOpts `json:"layoutOptions,omitempty"`
}

// ELKPoint is a coordinate pair in the engine's coordinate space.
type ELKPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ELKEdgeSection is one routed run of an edge, start to end with bends.
type ELKEdgeSection struct {
	Start      ELKPoint   `json:"startPoint"`
	End        ELKPoint   `json:"endPoint"`
	BendPoints []ELKPoint `json:"bendPoints,omitempty"`
}

// ELKEdge mirrors one edge of the ELK JSON graph format.
type ELKEdge struct {
	ID            string           `json:"id"`
	Sources       []string         `json:"sources"`
	Targets       []string         `json:"targets"`
	Sections      []ELKEdgeSection `json:"sections,omitempty"`
	Labels        []*ELKLabel      `json:"labels,omitempty"`
	LayoutOptions *ELKOpts         `json:"layoutOptions,omitempty"`
}

// ELKGraph is the root of a layout request or response.
type ELKGraph struct {
	ID            string     `json:"id"`
	LayoutOptions *ELKOpts   `json:"layoutOptions,omitempty"`
	Children      []*ELKNode `json:"children,omitempty"`
	Edges         []*ELKEdge `json:"edges,omitempty"`
}

// ELKOpts carries the layout options understood by the engine. Only the
// options the adapter actually sets are declared.
type ELKOpts struct {
	Algorithm             string `json:"elk.algorithm,omitempty"`
	Direction             string `json:"elk.direction,omitempty"`
	LayeringStrategy      string `json:"elk.layered.layering.strategy,omitempty"`
	CycleBreakingStrategy string `json:"elk.layered.cycleBreaking.strategy,omitempty"`
	NodePlacementStrategy string `json:"elk.layered.nodePlacement.strategy,omitempty"`
	FixedAlignment        string `json:"elk.layered.nodePlacement.bk.fixedAlignment,omitempty"`
	EdgeRouting           string `json:"elk.edgeRouting,omitempty"`
	MergeEdges            string `json:"elk.layered.mergeEdges,omitempty"`

	NodeNodeBetweenLayersSpacing int `json:"spacing.nodeNodeBetweenLayers,omitempty"`
	NodeNodeSpacing              int `json:"elk.spacing.nodeNode,omitempty"`
	EdgeNodeSpacing              int `json:"elk.spacing.edgeNode,omitempty"`
	EdgeEdgeSpacing              int `json:"elk.spacing.edgeEdge,omitempty"`
	PortPortSpacing              int `json:"elk.spacing.portPort,omitempty"`

	SelfLoopDistribution string `json:"elk.layered.edgeRouting.selfLoopDistribution,omitempty"`
	SelfLoopOrdering     string `json:"elk.layered.edgeRouting.selfLoopOrdering,omitempty"`
	SelfLoopPlacement    string `json:"elk.layered.edgeRouting.selfLoopPlacement,omitempty"`
	SelfLoopSpacing      int    `json:"elk.spacing.nodeSelfLoop,omitempty"`

	NodeLabelPlacement string `json:"elk.nodeLabels.placement,omitempty"`
	EdgeLabelPlacement string `json:"elk.edgeLabels.placement,omitempty"`
	PortSide           string `json:"elk.port.side,omitempty"`
	PortConstraints    string `json:"elk.portConstraints,omitempty"`
}

// Spacing holds the explicit spacing constants applied to every request.
type Spacing struct {
	NodeNodeBetweenLayers int `json:"node_node_between_layers" yaml:"node_node_between_layers"`
	NodeNode              int `json:"node_node" yaml:"node_node"`
	EdgeNode              int `json:"edge_node" yaml:"edge_node"`
	EdgeEdge              int `json:"edge_edge" yaml:"edge_edge"`
	PortPort              int `json:"port_port" yaml:"port_port"`
	SelfLoop              int `json:"self_loop" yaml:"self_loop"`
}

// DefaultSpacing returns the spacing constants used by the diagram view.
func DefaultSpacing() Spacing {
	return Spacing{
		NodeNodeBetweenLayers: 40,
		NodeNode:              25,
		EdgeNode:              20,
		EdgeEdge:              15,
		PortPort:              10,
		SelfLoop:              32,
	}
}

// rootOptions builds the global policy for one layout request: layered
// algorithm laid out upward for the semantic hierarchy convention,
// longest-path layering, depth-first cycle breaking, Brandes-Koepf
// placement with centered alignment, polyline routing, and stacked
// north-side self-loops.
func rootOptions(sp Spacing) *ELKOpts {
	return &ELKOpts{
		Algorithm:             "layered",
		Direction:             "UP",
		LayeringStrategy:      "LONGEST_PATH",
		CycleBreakingStrategy: "DEPTH_FIRST",
		NodePlacementStrategy: "BRANDES_KOEPF",
		FixedAlignment:        "BALANCED",
		EdgeRouting:           "POLYLINE",
		MergeEdges:            "false",

		NodeNodeBetweenLayersSpacing: sp.NodeNodeBetweenLayers,
		NodeNodeSpacing:              sp.NodeNode,
		EdgeNodeSpacing:              sp.EdgeNode,
		EdgeEdgeSpacing:              sp.EdgeEdge,
		PortPortSpacing:              sp.PortPort,

		SelfLoopDistribution: "EQUALLY",
		SelfLoopOrdering:     "STACKED",
		SelfLoopPlacement:    "NORTH",
		SelfLoopSpacing:      sp.SelfLoop,
	}
}
