package interaction

import (
	"math"

	"github.com/c360studio/ontoview/diagram"
)

// Scale bounds for all zoom operations.
const (
	MinScale = 0.2
	MaxScale = 3.0
)

const wheelStep = 1.1

// Mode is the viewport's interaction state.
type Mode int

const (
	ModeIdle Mode = iota
	ModePanning
	ModePinching
	ModeApplying
)

// Viewport is the pan/zoom state machine of one diagram view. It is not
// safe for concurrent use; all interaction runs on the single UI thread.
type Viewport struct {
	mode  Mode
	pan   diagram.Point
	scale float64

	// panning
	last diagram.Point

	// pinching, tracked from gesture start
	startDist  float64
	startScale float64
	startMid   diagram.Point
}

// NewViewport returns a viewport at the identity transform.
func NewViewport() *Viewport {
	return &Viewport{scale: 1}
}

// Mode returns the current interaction mode.
func (v *Viewport) Mode() Mode { return v.mode }

// Pan returns the current pan offset in local coordinates.
func (v *Viewport) Pan() diagram.Point { return v.pan }

// Scale returns the current zoom scale.
func (v *Viewport) Scale() float64 { return v.scale }

// Reset restores pan (0,0) and scale 1.
func (v *Viewport) Reset() {
	v.mode = ModeApplying
	v.pan = diagram.Point{}
	v.scale = 1
	v.mode = ModeIdle
}

// PointerDown begins a pan unless the pointer hit an interactive element;
// pointer-down on a node deliberately never turns into a drag-move.
func (v *Viewport) PointerDown(p diagram.Point, onElement bool) {
	if onElement || v.mode != ModeIdle {
		return
	}
	v.mode = ModePanning
	v.last = p
}

// PointerMove pans while a pan gesture is active.
func (v *Viewport) PointerMove(p diagram.Point) {
	if v.mode != ModePanning {
		return
	}
	v.pan.X += p.X - v.last.X
	v.pan.Y += p.Y - v.last.Y
	v.last = p
}

// PointerUp ends the active pointer gesture.
func (v *Viewport) PointerUp() {
	if v.mode == ModePanning || v.mode == ModePinching {
		v.mode = ModeIdle
	}
}

// Click handles a click or tap: on empty canvas it resets the view.
func (v *Viewport) Click(onElement bool) {
	if !onElement {
		v.Reset()
	}
}

// Wheel zooms by one step per notch, recentered on the pointer position.
func (v *Viewport) Wheel(deltaY float64, p diagram.Point) {
	if deltaY == 0 {
		return
	}
	factor := wheelStep
	if deltaY > 0 {
		factor = 1 / wheelStep
	}
	v.zoomAbout(factor, p)
}

// TouchStart begins a two-finger pinch; a single touch pans.
func (v *Viewport) TouchStart(points []diagram.Point) {
	switch len(points) {
	case 1:
		v.PointerDown(points[0], false)
	case 2:
		v.mode = ModePinching
		v.startDist = dist(points[0], points[1])
		v.startScale = v.scale
		v.startMid = mid(points[0], points[1])
	}
}

// TouchMove updates an active pinch from the current touch points, zooming
// about the midpoint tracked at gesture start.
func (v *Viewport) TouchMove(points []diagram.Point) {
	if v.mode != ModePinching || len(points) != 2 {
		if v.mode == ModePanning && len(points) == 1 {
			v.PointerMove(points[0])
		}
		return
	}
	if v.startDist == 0 {
		return
	}
	target := clampScale(v.startScale * dist(points[0], points[1]) / v.startDist)
	v.applyScale(target, v.startMid)
}

// TouchEnd ends the active touch gesture.
func (v *Viewport) TouchEnd() { v.PointerUp() }

// zoomAbout rescales by factor keeping the given local point fixed.
func (v *Viewport) zoomAbout(factor float64, p diagram.Point) {
	v.applyScale(clampScale(v.scale*factor), p)
}

// applyScale commits a clamped scale, correcting pan so the diagram
// coordinate under p stays put: pan' = pan + (1 - s1/s0)(p - pan).
func (v *Viewport) applyScale(s1 float64, p diagram.Point) {
	s0 := v.scale
	if s0 == 0 || s1 == s0 {
		v.scale = s1
		return
	}
	prev := v.mode
	v.mode = ModeApplying
	ratio := 1 - s1/s0
	v.pan.X += ratio * (p.X - v.pan.X)
	v.pan.Y += ratio * (p.Y - v.pan.Y)
	v.scale = s1
	v.mode = prev
}

// ToDiagram converts a local (screen) point to diagram coordinates under
// the current transform.
func (v *Viewport) ToDiagram(p diagram.Point) diagram.Point {
	return diagram.Point{
		X: (p.X - v.pan.X) / v.scale,
		Y: (p.Y - v.pan.Y) / v.scale,
	}
}

func clampScale(s float64) float64 {
	return math.Min(MaxScale, math.Max(MinScale, s))
}

func dist(a, b diagram.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func mid(a, b diagram.Point) diagram.Point {
	return diagram.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
