// Package diagram defines the semantic diagram model for ontology documents
// and the synthesizer that converts it into a visual graph ready for layout.
package diagram

// NodeKind classifies a semantic node.
type NodeKind string

const (
	NodeConcept          NodeKind = "concept"
	NodeRelationEntity   NodeKind = "relation-entity"
	NodeRelationInstance NodeKind = "relation-instance"
	NodeRelation         NodeKind = "relation"
)

// EdgeKind classifies a semantic edge.
type EdgeKind string

const (
	EdgeSpecialization EdgeKind = "specialization"
	EdgeEquivalence    EdgeKind = "equivalence"
	EdgeRelation       EdgeKind = "relation"
	// EdgeRelationSource and EdgeRelationTarget connect a reified relation
	// entity or a relation instance to its end members.
	EdgeRelationSource EdgeKind = "relation-source"
	EdgeRelationTarget EdgeKind = "relation-target"
)

// SourceRange locates a model element in its source document.
// Lines are 1-based, columns 0-based, matching editor host conventions.
type SourceRange struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

// SemanticNode is one declared entity of the ontology document.
// Immutable once produced per computation pass.
type SemanticNode struct {
	// ID is the stable qualified member name.
	ID         string       `json:"id"`
	Kind       NodeKind     `json:"kind"`
	Label      string       `json:"label"`
	Types      []string     `json:"types,omitempty"`
	Properties []string     `json:"properties,omitempty"`
	Range      *SourceRange `json:"range,omitempty"`
}

// SemanticEdge is one declared relationship.
// Self-loops (Source == Target) are legal. Equivalence edges that share a
// non-empty explicit ID belong to the same equivalence axiom.
type SemanticEdge struct {
	ID        string       `json:"id,omitempty"`
	Kind      EdgeKind     `json:"kind"`
	Source    string       `json:"source"`
	Target    string       `json:"target"`
	Label     string       `json:"label,omitempty"`
	HasMarker bool         `json:"hasMarker"`
	Range     *SourceRange `json:"range,omitempty"`
}

// SemanticModel is the computed diagram model for one document.
type SemanticModel struct {
	URI   string         `json:"uri"`
	Nodes []SemanticNode `json:"nodes"`
	Edges []SemanticEdge `json:"edges"`
}
