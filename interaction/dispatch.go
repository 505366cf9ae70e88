package interaction

import (
	"sync"

	"github.com/c360studio/ontoview/ident"
)

// Mutation is one observable state change applied to one element.
type Mutation struct {
	ElementID string
	State     State
	On        bool
}

// Dispatcher propagates hover and selection state across every element
// that represents the same logical diagram element, keyed by group id.
// It is an explicit subscription/dispatch mechanism: subscribers see one
// Mutation per actual change, and re-applying a state that already holds
// emits nothing, so observer feedback cannot loop.
type Dispatcher struct {
	mu       sync.Mutex
	groups   map[string][]string
	elements map[string]*elementState
	subs     []func(Mutation)
}

type elementState struct {
	groupID  string
	hover    bool
	selected bool
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		groups:   make(map[string][]string),
		elements: make(map[string]*elementState),
	}
}

// Subscribe registers a mutation observer. Observers run synchronously on
// the caller's goroutine, in registration order.
func (d *Dispatcher) Subscribe(fn func(Mutation)) {
	d.mu.Lock()
	d.subs = append(d.subs, fn)
	d.mu.Unlock()
}

// Register adds an element under its group. An empty groupID falls back to
// decoding the element id with the shared identifier grammar, so elements
// synthesized without an explicit group still cluster correctly.
func (d *Dispatcher) Register(elementID, groupID string) {
	if groupID == "" {
		groupID = ident.Member(elementID)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.elements[elementID]; ok {
		return
	}
	d.elements[elementID] = &elementState{groupID: groupID}
	d.groups[groupID] = append(d.groups[groupID], elementID)
}

// Clear drops all elements and state, keeping subscribers. Called when a
// new model replaces the current one.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	d.groups = make(map[string][]string)
	d.elements = make(map[string]*elementState)
	d.mu.Unlock()
}

// Set applies a state to the element and mirrors it onto every element of
// the same group. Idempotent per element: no mutation is emitted for an
// element already in the requested state.
func (d *Dispatcher) Set(elementID string, state State, on bool) {
	d.mu.Lock()
	el, ok := d.elements[elementID]
	if !ok {
		d.mu.Unlock()
		return
	}
	var emitted []Mutation
	for _, id := range d.groups[el.groupID] {
		member := d.elements[id]
		if member.get(state) == on {
			continue
		}
		member.set(state, on)
		emitted = append(emitted, Mutation{ElementID: id, State: state, On: on})
	}
	subs := d.subs
	d.mu.Unlock()

	for _, m := range emitted {
		for _, fn := range subs {
			fn(m)
		}
	}
}

// IsSet reports whether the element holds the given state.
func (d *Dispatcher) IsSet(elementID string, state State) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[elementID]
	return ok && el.get(state)
}

func (s *elementState) get(state State) bool {
	if state == StateSelected {
		return s.selected
	}
	return s.hover
}

func (s *elementState) set(state State, on bool) {
	if state == StateSelected {
		s.selected = on
	} else {
		s.hover = on
	}
}
