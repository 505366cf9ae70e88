package diagram

// RoutingKind is the layout hint derived from an edge's semantic kind.
type RoutingKind string

const (
	// RoutingGeneralization routes with fixed north/south anchor sides,
	// used for specialization and equivalence edges.
	RoutingGeneralization RoutingKind = "generalization"
	// RoutingAssociation routes as a free polyline.
	RoutingAssociation RoutingKind = "association"
)

// LabelPlacement selects where the layout engine places an edge label.
type LabelPlacement string

const (
	LabelCenter LabelPlacement = "CENTER"
	// LabelTail labels sit near the arrowhead; the adapter nudges them
	// along the final routing segment after layout.
	LabelTail LabelPlacement = "TAIL"
)

// Point is an absolute position in diagram coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a node's rendered extent.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// VisualNode is a drawable node derived from a SemanticNode.
type VisualNode struct {
	ID    string   `json:"id"`
	Kind  NodeKind `json:"kind"`
	Label string   `json:"label"`
	Types []string `json:"types,omitempty"`
	// Properties are rendered one per line inside the node body.
	Properties []string `json:"properties,omitempty"`
	Size       Size     `json:"size"`
	// CSSClasses carry the source range through the layout round trip.
	CSSClasses []string `json:"cssClasses,omitempty"`
	// GroupID names the semantic member every element of the same logical
	// diagram element shares. Synthetic nodes (equivalence hubs) carry the
	// member they fan out from.
	GroupID string `json:"groupId,omitempty"`

	// Filled by layout.
	Position *Point `json:"position,omitempty"`
}

// VisualEdge is a drawable edge with a synthesized, globally unique ID.
type VisualEdge struct {
	ID        string   `json:"id"`
	Kind      EdgeKind `json:"kind"`
	Source    string   `json:"source"`
	Target    string   `json:"target"`
	Label     string   `json:"label,omitempty"`
	HasMarker bool     `json:"hasMarker"`
	// LabelIndex offsets stacked self-loop labels; 0 for ordinary edges.
	LabelIndex int            `json:"labelIndex"`
	Routing    RoutingKind    `json:"routing"`
	Placement  LabelPlacement `json:"labelPlacement"`
	GroupID    string         `json:"groupId,omitempty"`
	CSSClasses []string       `json:"cssClasses,omitempty"`

	// Filled by layout.
	Route         []Point `json:"route,omitempty"`
	LabelPosition *Point  `json:"labelPosition,omitempty"`
}

// VisualGraph is the renderable graph, pre- or post-layout. A laid-out
// graph is the same value with positions and routes populated; a new
// computation pass fully replaces it.
type VisualGraph struct {
	URI   string       `json:"uri"`
	Nodes []VisualNode `json:"nodes"`
	Edges []VisualEdge `json:"edges"`
}

// EmptyGraph is the neutral result returned when model computation fails.
func EmptyGraph(uri string) *VisualGraph {
	return &VisualGraph{URI: uri, Nodes: []VisualNode{}, Edges: []VisualEdge{}}
}

// Node returns the visual node with the given id, or nil.
func (g *VisualGraph) Node(id string) *VisualNode {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}
