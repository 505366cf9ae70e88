package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Engine computes positions for an ELK graph. Implementations must be safe
// for concurrent use; the adapter reuses a single instance across requests.
type Engine interface {
	Layout(ctx context.Context, graph *ELKGraph) (*ELKGraph, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, graph *ELKGraph) (*ELKGraph, error)

// Layout calls f.
func (f EngineFunc) Layout(ctx context.Context, graph *ELKGraph) (*ELKGraph, error) {
	return f(ctx, graph)
}

// RemoteEngine reaches a layout engine over NATS request/reply, exchanging
// the ELK JSON graph verbatim.
type RemoteEngine struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
}

// NewRemoteEngine creates an engine client for the given subject.
func NewRemoteEngine(conn *nats.Conn, subject string, timeout time.Duration) *RemoteEngine {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteEngine{conn: conn, subject: subject, timeout: timeout}
}

// Layout sends the graph to the remote engine and decodes its reply.
func (e *RemoteEngine) Layout(ctx context.Context, graph *ELKGraph) (*ELKGraph, error) {
	data, err := json.Marshal(graph)
	if err != nil {
		return nil, fmt.Errorf("marshal layout request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	msg, err := e.conn.RequestWithContext(reqCtx, e.subject, data)
	if err != nil {
		return nil, fmt.Errorf("layout request on %s: %w", e.subject, err)
	}

	var out ELKGraph
	if err := json.Unmarshal(msg.Data, &out); err != nil {
		return nil, fmt.Errorf("decode layout response: %w", err)
	}
	return &out, nil
}
