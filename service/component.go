// Package service provides the diagram-api backend: a request/reply
// service that computes, lays out, and serves diagram models for ontology
// documents, recomputing when documents change.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360studio/ontoview/diagram"
	"github.com/c360studio/ontoview/document"
	"github.com/c360studio/ontoview/layout"
	"github.com/c360studio/ontoview/navigate"
	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go"
)

// Component implements the diagram-api processor.
type Component struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	conn       *nats.Conn
	logger     *slog.Logger

	computer    Computer
	synthesizer *diagram.Synthesizer
	adapter     *layout.Adapter
	resolver    *navigate.Resolver
	invalidator interface{ Invalidate(uri string) }
	sessions    *Sessions
	watcher     *Watcher

	// Lifecycle
	running       bool
	startTime     time.Time
	mu            sync.RWMutex
	cancel        context.CancelFunc
	subscriptions []*natsclient.Subscription
	savedSub      *nats.Subscription

	// Metrics
	modelRequests    atomic.Int64
	navigationHits   atomic.Int64
	navigationMisses atomic.Int64
	lastActivityMu   sync.RWMutex
	lastActivity     time.Time
}

// New creates a diagram-api component. The NATS connection reaches the
// external collaborators (model computer, layout engine, document parser,
// filesystem proxy) via point-to-point request/reply.
func New(rawConfig json.RawMessage, deps component.Dependencies, conn *nats.Conn) (*Component, error) {
	var config Config
	if err := json.Unmarshal(rawConfig, &config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	defaults := DefaultConfig()
	if config.Ports == nil {
		config.Ports = defaults.Ports
	}
	if len(config.Include) == 0 {
		config.Include = defaults.Include
	}
	if config.DebounceMS == 0 {
		config.DebounceMS = defaults.DebounceMS
	}
	if config.LayoutSubject == "" {
		config.LayoutSubject = defaults.LayoutSubject
	}
	if config.TimeoutSecs == 0 {
		config.TimeoutSecs = defaults.TimeoutSecs
	}
	if config.SessionIdleMins == 0 {
		config.SessionIdleMins = defaults.SessionIdleMins
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := deps.GetLogger()
	timeout := time.Duration(config.TimeoutSecs) * time.Second

	var fs document.FileSystem = document.OSFS{}
	if config.UseFSProxy {
		fs = document.NewProxyFS(conn, timeout)
	}
	provider := document.NewRemoteProvider(conn, fs, timeout)

	spacing := layout.DefaultSpacing()
	if config.Spacing != nil {
		spacing = *config.Spacing
	}

	c := &Component{
		name:        "diagram-api",
		config:      config,
		natsClient:  deps.NATSClient,
		conn:        conn,
		logger:      logger,
		computer:    NewRemoteComputer(conn, timeout),
		synthesizer: diagram.NewSynthesizer(logger),
		adapter:     layout.NewAdapter(layout.NewRemoteEngine(conn, config.LayoutSubject, timeout), spacing, logger),
		resolver:    navigate.NewResolver(provider, logger),
		invalidator: provider,
		sessions:    NewSessions(time.Duration(config.SessionIdleMins) * time.Minute),
	}
	return c, nil
}

// Initialize prepares the component.
func (c *Component) Initialize() error {
	c.logger.Debug("Initialized diagram-api",
		"workspace", c.config.Workspace,
		"layout_subject", c.config.LayoutSubject)
	return nil
}

// Start begins serving model and navigation requests and watching the
// workspace for changes.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("diagram-api already running")
	}
	if c.natsClient == nil {
		c.mu.Unlock()
		return fmt.Errorf("NATS client required")
	}
	c.running = true
	c.startTime = time.Now()

	subCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	for subject, handler := range map[string]func(context.Context, []byte) ([]byte, error){
		c.inputSubject(0, diagram.ModelRequestSubject):    c.handleModelRequest,
		c.inputSubject(1, diagram.NavigateRequestSubject): c.handleNavigateRequest,
	} {
		sub, err := c.natsClient.SubscribeForRequests(subCtx, subject, handler)
		if err != nil {
			c.rollbackStart()
			return fmt.Errorf("subscribe to %s: %w", subject, err)
		}
		c.mu.Lock()
		c.subscriptions = append(c.subscriptions, sub)
		c.mu.Unlock()
	}

	savedSub, err := c.conn.Subscribe(diagram.SavedSubject, c.handleSaved)
	if err != nil {
		c.rollbackStart()
		return fmt.Errorf("subscribe to %s: %w", diagram.SavedSubject, err)
	}
	c.mu.Lock()
	c.savedSub = savedSub
	c.mu.Unlock()

	if c.config.Workspace != "" {
		watcher, err := NewWatcher(WatcherConfig{
			Root:     c.config.Workspace,
			Include:  c.config.Include,
			Debounce: time.Duration(c.config.DebounceMS) * time.Millisecond,
			Logger:   c.logger,
		}, c.recompute)
		if err != nil {
			c.rollbackStart()
			return fmt.Errorf("create watcher: %w", err)
		}
		if err := watcher.Start(subCtx); err != nil {
			c.rollbackStart()
			return fmt.Errorf("start watcher: %w", err)
		}
		c.mu.Lock()
		c.watcher = watcher
		c.mu.Unlock()
	}

	c.logger.Info("diagram-api started",
		"workspace", c.config.Workspace,
		"layout_subject", c.config.LayoutSubject)
	return nil
}

func (c *Component) rollbackStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Component) inputSubject(i int, fallback string) string {
	if c.config.Ports != nil && len(c.config.Ports.Inputs) > i {
		return c.config.Ports.Inputs[i].Subject
	}
	return fallback
}

// handleModelRequest serves one model request: compute, synthesize,
// lay out. Computation failure yields an empty graph with the error flag
// so the view renders a neutral state instead of stale content.
func (c *Component) handleModelRequest(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.modelRequests.Add(1)
	c.updateLastActivity()
	started := time.Now()

	var req diagram.ModelRequest
	if err := json.Unmarshal(data, &req); err != nil || req.URI == "" {
		modelRequestsTotal.WithLabelValues("bad_request").Inc()
		return json.Marshal(diagram.ModelResponse{Model: diagram.EmptyGraph(""), Error: true})
	}

	c.sessions.Touch(req.URI)
	graph, failed := c.buildGraph(ctx, req.URI)

	outcome := "ok"
	if failed {
		outcome = "compute_failed"
	}
	modelRequestsTotal.WithLabelValues(outcome).Inc()
	modelRequestDuration.Observe(time.Since(started).Seconds())

	return json.Marshal(diagram.ModelResponse{Model: graph, Seq: req.Seq, Error: failed})
}

// buildGraph runs the full pipeline for one document.
func (c *Component) buildGraph(ctx context.Context, uri string) (*diagram.VisualGraph, bool) {
	model, err := c.computer.Compute(ctx, uri)
	if err != nil {
		c.logger.Warn("Model computation failed", "uri", uri, "error", err.Error())
		return diagram.EmptyGraph(uri), true
	}

	graph, warnings := c.synthesizer.Synthesize(model)
	for _, w := range warnings {
		c.logger.Warn("Model validation warning", "uri", uri, "element", w.Element, "message", w.Message)
	}

	graph = c.adapter.Layout(ctx, graph)
	if len(graph.Nodes) > 0 && graph.Nodes[0].Position == nil {
		layoutFailuresTotal.Inc()
	}
	return graph, false
}

// handleNavigateRequest resolves a clicked identifier to a source range.
// Misses answer null; the view takes no action on them.
func (c *Component) handleNavigateRequest(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.updateLastActivity()

	var req diagram.NavigateRequest
	if err := json.Unmarshal(data, &req); err != nil || req.URI == "" {
		navigationRequestsTotal.WithLabelValues("bad_request").Inc()
		return []byte("null"), nil
	}

	loc := c.resolver.Resolve(ctx, req.URI, req.ElementID)
	if loc == nil {
		c.navigationMisses.Add(1)
		navigationRequestsTotal.WithLabelValues("miss").Inc()
		return []byte("null"), nil
	}
	c.navigationHits.Add(1)
	navigationRequestsTotal.WithLabelValues("hit").Inc()
	return json.Marshal(loc)
}

// handleSaved recomputes immediately on a save notification, cancelling
// the document's pending debounce timer.
func (c *Component) handleSaved(msg *nats.Msg) {
	var req struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.URI == "" {
		return
	}
	c.mu.RLock()
	watcher := c.watcher
	c.mu.RUnlock()
	if watcher != nil {
		watcher.Flush(req.URI)
		return
	}
	c.recompute(req.URI)
}

// recompute rebuilds a changed document's graph and pushes it to open
// views. Documents without an active view are skipped.
func (c *Component) recompute(uri string) {
	if !c.sessions.Active(uri) {
		return
	}
	c.invalidator.Invalidate(uri)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Duration(c.config.TimeoutSecs)*time.Second)
	defer cancel()

	graph, failed := c.buildGraph(ctx, uri)
	if failed {
		c.logger.Debug("Pushing empty model after failed recomputation", "uri", uri)
	}

	payload := &GraphPayload{URI_: uri, Model: graph, UpdatedAt: time.Now()}
	if err := payload.Validate(); err != nil {
		c.logger.Warn("Not pushing invalid graph payload", "uri", uri, "error", err.Error())
		return
	}
	update, err := json.Marshal(diagram.ModelUpdate{Type: "updateModel", Model: graph})
	if err != nil {
		c.logger.Warn("Marshal model update", "uri", uri, "error", err.Error())
		return
	}
	if err := c.natsClient.Publish(ctx, diagram.ModelUpdateSubject, update); err != nil {
		c.logger.Warn("Publish model update", "uri", uri, "error", err.Error())
	}
}

// Stop gracefully stops the component.
func (c *Component) Stop(_ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	if c.savedSub != nil {
		_ = c.savedSub.Unsubscribe()
		c.savedSub = nil
	}
	if c.watcher != nil {
		_ = c.watcher.Close()
		c.watcher = nil
	}

	c.running = false
	c.logger.Info("diagram-api stopped",
		"model_requests", c.modelRequests.Load(),
		"navigation_hits", c.navigationHits.Load(),
		"navigation_misses", c.navigationMisses.Load())
	return nil
}

// Meta returns component metadata.
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		Name:        "diagram-api",
		Type:        "processor",
		Description: "Request/reply service for ontology diagram models and navigation",
		Version:     "1.0.0",
	}
}

// InputPorts returns configured input port definitions.
func (c *Component) InputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}
	ports := make([]component.Port, len(c.config.Ports.Inputs))
	for i, portDef := range c.config.Ports.Inputs {
		ports[i] = component.Port{
			Name:        portDef.Name,
			Direction:   component.DirectionInput,
			Required:    portDef.Required,
			Description: portDef.Description,
			Config: component.NATSPort{
				Subject: portDef.Subject,
			},
		}
	}
	return ports
}

// OutputPorts returns configured output port definitions.
func (c *Component) OutputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}
	ports := make([]component.Port, len(c.config.Ports.Outputs))
	for i, portDef := range c.config.Ports.Outputs {
		ports[i] = component.Port{
			Name:        portDef.Name,
			Direction:   component.DirectionOutput,
			Required:    portDef.Required,
			Description: portDef.Description,
			Config: component.NATSPort{
				Subject: portDef.Subject,
			},
		}
	}
	return ports
}

// ConfigSchema returns the configuration schema.
func (c *Component) ConfigSchema() component.ConfigSchema {
	return diagramAPISchema
}

// Health returns the current health status.
func (c *Component) Health() component.HealthStatus {
	c.mu.RLock()
	running := c.running
	startTime := c.startTime
	c.mu.RUnlock()

	status := "stopped"
	if running {
		status = "running"
	}
	return component.HealthStatus{
		Healthy:    running,
		LastCheck:  time.Now(),
		ErrorCount: 0,
		Uptime:     time.Since(startTime),
		Status:     status,
	}
}

// DataFlow returns current data flow metrics.
func (c *Component) DataFlow() component.FlowMetrics {
	return component.FlowMetrics{
		LastActivity: c.getLastActivity(),
	}
}

func (c *Component) updateLastActivity() {
	c.lastActivityMu.Lock()
	c.lastActivity = time.Now()
	c.lastActivityMu.Unlock()
}

func (c *Component) getLastActivity() time.Time {
	c.lastActivityMu.RLock()
	defer c.lastActivityMu.RUnlock()
	return c.lastActivity
}
