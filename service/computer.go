package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/c360studio/ontoview/diagram"
	"github.com/nats-io/nats.go"
)

// ComputeSubject is the request/reply subject of the external
// model-computation collaborator.
const ComputeSubject = "diagram.compute.request"

// Computer produces the semantic diagram model for a document.
type Computer interface {
	Compute(ctx context.Context, uri string) (*diagram.SemanticModel, error)
}

type computeRequest struct {
	URI string `json:"uri"`
}

type computeResponse struct {
	Model *diagram.SemanticModel `json:"model,omitempty"`
	Error string                 `json:"error,omitempty"`
}

// RemoteComputer asks the model-computation collaborator over NATS.
type RemoteComputer struct {
	conn    *nats.Conn
	timeout time.Duration
}

// NewRemoteComputer creates a NATS-backed model computer.
func NewRemoteComputer(conn *nats.Conn, timeout time.Duration) *RemoteComputer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RemoteComputer{conn: conn, timeout: timeout}
}

// Compute requests a fresh semantic model for the document.
func (c *RemoteComputer) Compute(ctx context.Context, uri string) (*diagram.SemanticModel, error) {
	data, err := json.Marshal(computeRequest{URI: uri})
	if err != nil {
		return nil, err
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	msg, err := c.conn.RequestWithContext(reqCtx, ComputeSubject, data)
	if err != nil {
		return nil, fmt.Errorf("compute request for %s: %w", uri, err)
	}
	var res computeResponse
	if err := json.Unmarshal(msg.Data, &res); err != nil {
		return nil, fmt.Errorf("decode compute response: %w", err)
	}
	if res.Error != "" {
		return nil, errors.New(res.Error)
	}
	if res.Model == nil {
		return nil, fmt.Errorf("computer returned no model for %s", uri)
	}
	return res.Model, nil
}
