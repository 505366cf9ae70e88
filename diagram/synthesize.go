package diagram

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/c360studio/ontoview/ident"
)

// Node sizing constants. Width tracks the widest text line at roughly 7.5px
// per character; height stacks the type line, the label band and one 16px
// row per property.
const (
	minNodeWidth   = 120.0
	maxNodeWidth   = 600.0
	charWidth      = 7.5
	widthPadding   = 24.0
	minNodeHeight  = 56.0
	typeLineHeight = 12.0
	labelBand      = 32.0
	propertyRow    = 16.0
	heightPadding  = 8.0

	equivalenceHubSize = 12.0
)

// Warning reports a non-fatal model defect found during synthesis.
type Warning struct {
	Element string `json:"element"`
	Message string `json:"message"`
}

// Synthesizer converts a semantic model into a visual graph with
// synthesized identifiers. It is stateless across calls.
type Synthesizer struct {
	logger *slog.Logger
}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer(logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{logger: logger}
}

// Synthesize derives the visual graph for a semantic model in a single
// deterministic pass over nodes then edges. Edges referencing unknown nodes
// are reported as warnings and left un-drawn.
func (s *Synthesizer) Synthesize(model *SemanticModel) (*VisualGraph, []Warning) {
	g := &VisualGraph{URI: model.URI, Nodes: []VisualNode{}, Edges: []VisualEdge{}}
	var warnings []Warning

	drawn := make(map[string]bool, len(model.Nodes))
	kinds := make(map[string]NodeKind, len(model.Nodes))
	for _, n := range model.Nodes {
		kinds[n.ID] = n.Kind
		if n.Kind == NodeRelation {
			// Pure binary relations are drawn as edges only.
			continue
		}
		g.Nodes = append(g.Nodes, s.visualNode(n))
		drawn[n.ID] = true
	}

	b := &edgeBuilder{graph: g, drawn: drawn, warnings: &warnings, logger: s.logger}

	// Role-edge numbering is per relation member, in first-seen order.
	entityEdgeCount := make(map[string]int)
	instanceSourceCount := make(map[string]int)
	instanceTargetCount := make(map[string]int)

	// Equivalence axioms: edges sharing a non-empty explicit id and source
	// form one axiom; a lone edge is a direct equivalence.
	equivGroups := make(map[string][]SemanticEdge)
	var equivOrder []string
	groupIndex := make(map[string]int)

	// Unreified relations: collapse the relation node's two role edges
	// into a single visual edge carrying the relation as its label.
	collapsed := make(map[string]*collapsedRelation)
	var collapsedOrder []string

	for _, e := range model.Edges {
		switch e.Kind {
		case EdgeSpecialization:
			b.add(VisualEdge{
				ID:        ident.SpecializationID(e.Source, e.Target),
				Kind:      e.Kind,
				Source:    e.Source,
				Target:    e.Target,
				HasMarker: e.HasMarker,
				Routing:   RoutingGeneralization,
				Placement: LabelCenter,
				GroupID:   e.Source,
			})

		case EdgeEquivalence:
			var key string
			if e.ID == "" {
				// No axiom id: the edge is its own direct axiom.
				key = fmt.Sprintf("%s\x00%d", e.Source, len(equivOrder))
			} else {
				key = e.Source + "\x00id\x00" + e.ID
			}
			if len(equivGroups[key]) == 0 {
				equivOrder = append(equivOrder, key)
			}
			equivGroups[key] = append(equivGroups[key], e)

		case EdgeRelationSource, EdgeRelationTarget:
			switch kinds[e.Source] {
			case NodeRelation:
				c := collapsed[e.Source]
				if c == nil {
					c = &collapsedRelation{}
					collapsed[e.Source] = c
					collapsedOrder = append(collapsedOrder, e.Source)
				}
				c.apply(e)
				if c.ready() {
					b.add(c.visualEdge(e.Source))
				}
			case NodeRelationEntity:
				entityEdgeCount[e.Source]++
				b.add(roleEdge(e, ident.RelationEntityEdgeID(e.Source, entityEdgeCount[e.Source])))
			case NodeRelationInstance:
				var id string
				if e.Kind == EdgeRelationSource {
					instanceSourceCount[e.Source]++
					id = ident.RelationInstanceEdgeID(e.Source, ident.RoleSource, instanceSourceCount[e.Source])
				} else {
					instanceTargetCount[e.Source]++
					id = ident.RelationInstanceEdgeID(e.Source, ident.RoleTarget, instanceTargetCount[e.Source])
				}
				b.add(roleEdge(e, id))
			default:
				warnings = append(warnings, Warning{
					Element: e.Source,
					Message: fmt.Sprintf("role edge from %q which is not a relation member", e.Source),
				})
			}

		default:
			// Plain relation edge: the identifier is the member name
			// itself (identity decoding).
			id := e.ID
			if id == "" {
				id = e.Label
			}
			if id == "" {
				id = e.Source + "-" + e.Target
			}
			b.add(VisualEdge{
				ID:        id,
				Kind:      EdgeRelation,
				Source:    e.Source,
				Target:    e.Target,
				Label:     e.Label,
				HasMarker: e.HasMarker,
				Routing:   RoutingAssociation,
				Placement: LabelTail,
				GroupID:   id,
			})
		}
	}

	for _, member := range collapsedOrder {
		if c := collapsed[member]; !c.emitted {
			warnings = append(warnings, Warning{
				Element: member,
				Message: fmt.Sprintf("relation %q has only one role edge, not drawn", member),
			})
			s.logger.Warn("Relation missing a role edge", "element", member)
		}
	}

	for _, key := range equivOrder {
		group := equivGroups[key]
		if len(group) == 0 {
			continue
		}
		member := group[0].Source
		if len(group) == 1 {
			e := group[0]
			b.add(VisualEdge{
				ID:        ident.EquivalenceID(e.Source, e.Target),
				Kind:      EdgeEquivalence,
				Source:    e.Source,
				Target:    e.Target,
				HasMarker: e.HasMarker,
				Routing:   RoutingGeneralization,
				Placement: LabelCenter,
				GroupID:   member,
			})
			continue
		}

		// Several peers: a synthetic hub node with fan-out edges.
		idx := groupIndex[member]
		groupIndex[member]++
		hubID := ident.EquivalenceGroupID(member, idx)
		g.Nodes = append(g.Nodes, VisualNode{
			ID:      hubID,
			Kind:    NodeConcept,
			Size:    Size{Width: equivalenceHubSize, Height: equivalenceHubSize},
			GroupID: member,
		})
		drawn[hubID] = true
		b.add(VisualEdge{
			ID:      ident.EquivalenceGroupEdgeID(member, idx, 0),
			Kind:    EdgeEquivalence,
			Source:  member,
			Target:  hubID,
			Routing: RoutingGeneralization,
			GroupID: member,
		})
		for n, e := range group {
			b.add(VisualEdge{
				ID:        ident.EquivalenceGroupEdgeID(member, idx, n+1),
				Kind:      EdgeEquivalence,
				Source:    hubID,
				Target:    e.Target,
				HasMarker: e.HasMarker,
				Routing:   RoutingGeneralization,
				GroupID:   member,
			})
		}
	}

	assignSelfLoopIndexes(g.Edges)
	disambiguateIDs(g.Edges)
	return g, warnings
}

func (s *Synthesizer) visualNode(n SemanticNode) VisualNode {
	maxLen := utf8.RuneCountInString(n.Label)
	if t := utf8.RuneCountInString(typeAnnotation(n.Types)); t > maxLen {
		maxLen = t
	}
	for _, p := range n.Properties {
		if l := utf8.RuneCountInString(p); l > maxLen {
			maxLen = l
		}
	}
	width := widthPadding + charWidth*float64(maxLen)
	if width < minNodeWidth {
		width = minNodeWidth
	}
	if width > maxNodeWidth {
		width = maxNodeWidth
	}
	height := typeLineHeight + labelBand + float64(len(n.Properties))*propertyRow + heightPadding
	if height < minNodeHeight {
		height = minNodeHeight
	}

	classes := []string{string(n.Kind)}
	if n.Range != nil {
		classes = append(classes, rangeClass(*n.Range))
	}
	return VisualNode{
		ID:         n.ID,
		Kind:       n.Kind,
		Label:      n.Label,
		Types:      n.Types,
		Properties: n.Properties,
		Size:       Size{Width: width, Height: height},
		CSSClasses: classes,
		GroupID:    n.ID,
	}
}

// typeAnnotation renders the guillemet type line shown above the label.
func typeAnnotation(types []string) string {
	if len(types) == 0 {
		return ""
	}
	text := types[0]
	for _, t := range types[1:] {
		text += ", " + t
	}
	return "«" + text + "»"
}

// rangeClass encodes a source range as a CSS class so it survives the
// layout round trip.
func rangeClass(r SourceRange) string {
	return fmt.Sprintf("loc-%d-%d-%d-%d", r.StartLine, r.StartColumn, r.EndLine, r.EndColumn)
}

func roleEdge(e SemanticEdge, id string) VisualEdge {
	v := VisualEdge{
		ID:        id,
		Kind:      e.Kind,
		HasMarker: e.HasMarker,
		Label:     e.Label,
		Routing:   RoutingAssociation,
		Placement: LabelCenter,
		GroupID:   e.Source,
	}
	// Role edges are drawn end-to-member for sources and member-to-end
	// for targets, so arrows read in relation direction.
	if e.Kind == EdgeRelationSource {
		v.Source, v.Target = e.Target, e.Source
	} else {
		v.Source, v.Target = e.Source, e.Target
	}
	return v
}

type collapsedRelation struct {
	source, target string
	label          string
	hasMarker      bool
	emitted        bool
}

func (c *collapsedRelation) apply(e SemanticEdge) {
	if e.Kind == EdgeRelationSource {
		c.source = e.Target
	} else {
		c.target = e.Target
		c.hasMarker = e.HasMarker
	}
	if e.Label != "" {
		c.label = e.Label
	}
}

func (c *collapsedRelation) ready() bool {
	if c.emitted || c.source == "" || c.target == "" {
		return false
	}
	c.emitted = true
	return true
}

func (c *collapsedRelation) visualEdge(member string) VisualEdge {
	label := c.label
	if label == "" {
		label = member
	}
	return VisualEdge{
		ID:        member,
		Kind:      EdgeRelation,
		Source:    c.source,
		Target:    c.target,
		Label:     label,
		HasMarker: c.hasMarker,
		Routing:   RoutingAssociation,
		Placement: LabelTail,
		GroupID:   member,
	}
}

// edgeBuilder appends edges whose endpoints exist, warning on dangling
// references instead of failing.
type edgeBuilder struct {
	graph    *VisualGraph
	drawn    map[string]bool
	warnings *[]Warning
	logger   *slog.Logger
}

func (b *edgeBuilder) add(e VisualEdge) {
	for _, end := range []string{e.Source, e.Target} {
		if !b.drawn[end] {
			*b.warnings = append(*b.warnings, Warning{
				Element: e.ID,
				Message: fmt.Sprintf("edge %q references unknown node %q", e.ID, end),
			})
			b.logger.Warn("Dropping edge with dangling node reference",
				"edge", e.ID, "node", end)
			return
		}
	}
	b.graph.Edges = append(b.graph.Edges, e)
}

// assignSelfLoopIndexes numbers same-node self-loops 0,1,2... in first-seen
// order so their labels can stack without prior knowledge of the count.
func assignSelfLoopIndexes(edges []VisualEdge) {
	counts := make(map[string]int)
	for i := range edges {
		if edges[i].Source != edges[i].Target {
			continue
		}
		edges[i].LabelIndex = counts[edges[i].Source]
		counts[edges[i].Source]++
	}
}

// disambiguateIDs appends :1, :2, ... to colliding edge ids. Runs after the
// main pass, in edge-array order, so output is deterministic for a given
// input ordering.
func disambiguateIDs(edges []VisualEdge) {
	used := make(map[string]bool, len(edges))
	for i := range edges {
		id := edges[i].ID
		for n := 1; used[id]; n++ {
			id = fmt.Sprintf("%s:%d", edges[i].ID, n)
		}
		edges[i].ID = id
		used[id] = true
	}
}
