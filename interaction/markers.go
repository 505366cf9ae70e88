// Package interaction implements the client-side state layer of the
// diagram view: arrowhead marker selection, hover/selection propagation
// across the elements of one logical diagram element, pan/zoom, and the
// rendering session that talks to the backend.
package interaction

import (
	"math"

	"github.com/c360studio/ontoview/diagram"
)

// State is a visual interaction state of an element.
type State string

const (
	StateDefault  State = ""
	StateHover    State = "hover"
	StateSelected State = "selected"
)

// Marker family names; three state variants of each are pre-declared by
// the renderer and swapped by reference suffix.
const (
	MarkerClosedTriangle = "triangle-closed"
	MarkerEquivalence    = "triangle-bars"
	MarkerOpenArrow      = "arrow-open"
)

// MarkerFor picks the terminal arrowhead for an edge purely from its
// semantic kind and marker flag. Specialization always carries a closed
// triangle; equivalence and relation edges only when flagged.
func MarkerFor(kind diagram.EdgeKind, hasMarker bool, state State) string {
	var base string
	switch kind {
	case diagram.EdgeSpecialization:
		base = MarkerClosedTriangle
	case diagram.EdgeEquivalence:
		if !hasMarker {
			return ""
		}
		base = MarkerEquivalence
	default:
		if !hasMarker {
			return ""
		}
		base = MarkerOpenArrow
	}
	if state == StateDefault {
		return base
	}
	return base + "-" + string(state)
}

// SelfLoopLabelOffset computes the vertical label offset, in pixels, for
// the idx-th self-loop on a node. Loops alternate above and below in
// 10px steps so any number of them stack without overlap.
func SelfLoopLabelOffset(idx int) float64 {
	if idx <= 0 {
		return 0
	}
	pair := math.Ceil(float64(idx) / 2)
	if idx%2 == 1 {
		return -10 * pair
	}
	return 10 * pair
}
