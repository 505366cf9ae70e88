// Package ident implements the identifier scheme shared between the
// rendering client and the navigation resolver. A synthesized identifier
// encodes, by syntax alone, which semantic relationship a drawn element
// represents, so no side-table has to be kept in sync with the rendering
// surface. Both consumers must decode with exactly this grammar.
package ident

import (
	"fmt"
	"regexp"
)

// Kind is the relationship class an identifier decodes to.
type Kind string

const (
	// KindSpecialization is a specialization edge: [A]->[B].
	KindSpecialization Kind = "specialization"
	// KindEquivalence is a direct equivalence edge: [A]<->[B].
	KindEquivalence Kind = "equivalence"
	// KindEquivalenceGroupNode is the synthetic hub of an equivalence
	// group: [A]<->[#].
	KindEquivalenceGroupNode Kind = "equivalence-group-node"
	// KindEquivalenceGroupEdge is one fan-out edge of an equivalence
	// group: [A]<->[#]-edge#.
	KindEquivalenceGroupEdge Kind = "equivalence-group-edge"
	// KindRelationEntityEdge is one of the two role edges of a reified
	// relation: Q-edge1, Q-edge2.
	KindRelationEntityEdge Kind = "relation-entity-edge"
	// KindRelationInstanceEdge is a relation instance role edge:
	// Q-source-edge#, Q-target-edge#.
	KindRelationInstanceEdge Kind = "relation-instance-edge"
	// KindIdentity means the identifier is a literal member name: a node
	// id or an unreified relation edge id.
	KindIdentity Kind = "identity"
)

var (
	specializationRe = regexp.MustCompile(`^\[(.+)\]->\[(.+)\]$`)
	equivalenceRe    = regexp.MustCompile(`^\[(.+)\]<->\[(.+)\]$`)
	groupNodeRe      = regexp.MustCompile(`^\[(.+)\]<->\[(\d+)\]$`)
	groupEdgeRe      = regexp.MustCompile(`^\[(.+)\]<->\[(\d+)\]-edge\d+$`)
	instanceEdgeRe   = regexp.MustCompile(`^(.+)-(?:source|target)-edge\d+$`)
	entityEdgeRe     = regexp.MustCompile(`^(.+)-edge\d+$`)
)

// Decode inverts a synthesized identifier to the originating member name.
// Patterns are evaluated in grammar-precedence order; anything that matches
// no pattern falls through to identity, so a malformed identifier degrades
// to a literal member lookup instead of an error.
//
// The relation-instance pattern is checked before the relation-entity one:
// the bare -edge# suffix textually subsumes -source-edge# and would
// otherwise capture the role word into the member name.
func Decode(id string) (string, Kind) {
	if m := specializationRe.FindStringSubmatch(id); m != nil {
		return m[1], KindSpecialization
	}
	if m := groupEdgeRe.FindStringSubmatch(id); m != nil {
		return m[1], KindEquivalenceGroupEdge
	}
	if m := equivalenceRe.FindStringSubmatch(id); m != nil {
		if groupNodeRe.MatchString(id) {
			return m[1], KindEquivalenceGroupNode
		}
		return m[1], KindEquivalence
	}
	if m := instanceEdgeRe.FindStringSubmatch(id); m != nil {
		return m[1], KindRelationInstanceEdge
	}
	if m := entityEdgeRe.FindStringSubmatch(id); m != nil {
		return m[1], KindRelationEntityEdge
	}
	return id, KindIdentity
}

// Member is shorthand for the member name alone.
func Member(id string) string {
	name, _ := Decode(id)
	return name
}

// Role names a relation-instance edge end.
type Role string

const (
	RoleSource Role = "source"
	RoleTarget Role = "target"
)

// SpecializationID encodes a specialization edge from a to b.
func SpecializationID(a, b string) string {
	return fmt.Sprintf("[%s]->[%s]", a, b)
}

// EquivalenceID encodes a direct equivalence edge between a and b.
func EquivalenceID(a, b string) string {
	return fmt.Sprintf("[%s]<->[%s]", a, b)
}

// EquivalenceGroupID encodes the hub node of a's idx-th equivalence group.
func EquivalenceGroupID(a string, idx int) string {
	return fmt.Sprintf("[%s]<->[%d]", a, idx)
}

// EquivalenceGroupEdgeID encodes fan-out edge n of a's idx-th group.
func EquivalenceGroupEdgeID(a string, idx, n int) string {
	return fmt.Sprintf("[%s]<->[%d]-edge%d", a, idx, n)
}

// RelationEntityEdgeID encodes role edge n (1 or 2) of reified relation q.
func RelationEntityEdgeID(q string, n int) string {
	return fmt.Sprintf("%s-edge%d", q, n)
}

// RelationInstanceEdgeID encodes the n-th role edge of relation instance q.
func RelationInstanceEdgeID(q string, role Role, n int) string {
	return fmt.Sprintf("%s-%s-edge%d", q, role, n)
}
