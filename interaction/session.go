package interaction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/c360studio/ontoview/diagram"
	"github.com/c360studio/ontoview/navigate"
)

// Requester is the point-to-point request channel to the backend. One
// request, one awaited response; the session does no client-side queuing.
type Requester interface {
	Request(ctx context.Context, subject string, data []byte) ([]byte, error)
}

// Session is the rendering session of one open diagram view. It owns the
// current laid-out graph (single writer, whole-model swap), the viewport
// and the state dispatcher, and issues model and navigation requests.
type Session struct {
	URI string
	// IDPrefix is the renderer's internal id prefix, stripped before an
	// element id is decoded or sent for navigation.
	IDPrefix string

	requester  Requester
	logger     *slog.Logger
	Viewport   *Viewport
	Dispatcher *Dispatcher

	seq     atomic.Uint64
	mu      sync.RWMutex
	model   *diagram.VisualGraph
	applied uint64
	theme   string
}

// NewSession creates a session for one document view.
func NewSession(uri string, requester Requester, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		URI:        uri,
		requester:  requester,
		logger:     logger,
		Viewport:   NewViewport(),
		Dispatcher: NewDispatcher(),
	}
}

// Model returns the currently displayed graph.
func (s *Session) Model() *diagram.VisualGraph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Theme returns the active display theme kind.
func (s *Session) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// RequestModel asks the backend for a fresh laid-out graph and applies the
// response unless a newer one has been applied in the meantime.
func (s *Session) RequestModel(ctx context.Context) error {
	seq := s.seq.Add(1)
	data, err := json.Marshal(diagram.ModelRequest{URI: s.URI, Seq: seq})
	if err != nil {
		return err
	}
	raw, err := s.requester.Request(ctx, diagram.ModelRequestSubject, data)
	if err != nil {
		return fmt.Errorf("model request for %s: %w", s.URI, err)
	}
	var res diagram.ModelResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	if res.Error {
		s.logger.Warn("Model computation failed, showing empty diagram", "uri", s.URI)
	}
	s.apply(seq, res.Model)
	return nil
}

// apply swaps in a model atomically, dropping responses older than the
// newest applied one.
func (s *Session) apply(seq uint64, model *diagram.VisualGraph) {
	if model == nil {
		model = diagram.EmptyGraph(s.URI)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied {
		s.logger.Debug("Dropping stale model response", "uri", s.URI, "seq", seq)
		return
	}
	s.applied = seq
	s.model = model

	s.Dispatcher.Clear()
	for i := range model.Nodes {
		s.Dispatcher.Register(model.Nodes[i].ID, model.Nodes[i].GroupID)
	}
	for i := range model.Edges {
		s.Dispatcher.Register(model.Edges[i].ID, model.Edges[i].GroupID)
	}
}

// HandleMessage processes a push from the host: theme notifications and
// whole-model updates. Unknown messages are ignored.
func (s *Session) HandleMessage(data []byte) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		s.logger.Debug("Ignoring malformed push message", "error", err.Error())
		return
	}
	switch head.Type {
	case "theme":
		var msg diagram.ThemeNotification
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		s.mu.Lock()
		s.theme = msg.Kind
		s.mu.Unlock()
	case "updateModel":
		var msg diagram.ModelUpdate
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		// A push always reflects the latest state; apply at the newest
		// issued sequence so it cannot be overwritten by an older reply.
		s.apply(s.seq.Load(), msg.Model)
	}
}

// ElementID derives the logical identifier of a clicked rendering element.
func (s *Session) ElementID(renderID string) string {
	return strings.TrimPrefix(renderID, s.IDPrefix)
}

// DoubleClick resolves a double-click: on empty canvas it resets the view
// and issues no navigation request; on an element it asks the backend for
// the source location. A nil location with nil error means no target.
func (s *Session) DoubleClick(ctx context.Context, renderID string) (*navigate.Location, error) {
	if renderID == "" {
		s.Viewport.Reset()
		return nil, nil
	}
	req := diagram.NavigateRequest{URI: s.URI, ElementID: s.ElementID(renderID)}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	raw, err := s.requester.Request(ctx, diagram.NavigateRequestSubject, data)
	if err != nil {
		return nil, fmt.Errorf("navigation request for %s: %w", req.ElementID, err)
	}
	var loc *navigate.Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return nil, fmt.Errorf("decode navigation response: %w", err)
	}
	return loc, nil
}

// Hover mirrors pointer hover state across the element's group.
func (s *Session) Hover(renderID string, on bool) {
	s.Dispatcher.Set(s.ElementID(renderID), StateHover, on)
}

// Select mirrors selection state across the element's group.
func (s *Session) Select(renderID string, on bool) {
	s.Dispatcher.Set(s.ElementID(renderID), StateSelected, on)
}
