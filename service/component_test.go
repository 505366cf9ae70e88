package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/c360studio/ontoview/diagram"
	"github.com/c360studio/ontoview/document"
	"github.com/c360studio/ontoview/layout"
	"github.com/c360studio/ontoview/navigate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeComputer struct {
	model *diagram.SemanticModel
	err   error
}

func (f *fakeComputer) Compute(context.Context, string) (*diagram.SemanticModel, error) {
	return f.model, f.err
}

type fakeDocProvider struct {
	docs map[string]*document.Document
}

func (p *fakeDocProvider) Document(_ context.Context, uri string) (*document.Document, error) {
	d, ok := p.docs[uri]
	if !ok {
		return nil, errors.New("no document")
	}
	return d, nil
}

func (p *fakeDocProvider) Invalidate(string) {}

func testComponent(computer Computer, provider *fakeDocProvider) *Component {
	logger := slog.Default()
	engine := layout.EngineFunc(func(_ context.Context, g *layout.ELKGraph) (*layout.ELKGraph, error) {
		res := &layout.ELKGraph{ID: g.ID}
		for _, n := range g.Children {
			res.Children = append(res.Children, &layout.ELKNode{ID: n.ID, Width: n.Width, Height: n.Height})
		}
		for _, e := range g.Edges {
			res.Edges = append(res.Edges, &layout.ELKEdge{ID: e.ID})
		}
		return res, nil
	})
	if provider == nil {
		provider = &fakeDocProvider{docs: map[string]*document.Document{}}
	}
	return &Component{
		name:        "diagram-api",
		config:      DefaultConfig(),
		logger:      logger,
		computer:    computer,
		synthesizer: diagram.NewSynthesizer(logger),
		adapter:     layout.NewAdapter(engine, layout.DefaultSpacing(), logger),
		resolver:    navigate.NewResolver(provider, logger),
		invalidator: provider,
		sessions:    NewSessions(time.Minute),
	}
}

func TestHandleModelRequest(t *testing.T) {
	computer := &fakeComputer{model: &diagram.SemanticModel{
		URI: "file:///a.oml",
		Nodes: []diagram.SemanticNode{
			{ID: "A", Kind: diagram.NodeConcept, Label: "A"},
			{ID: "B", Kind: diagram.NodeConcept, Label: "B"},
		},
		Edges: []diagram.SemanticEdge{
			{Kind: diagram.EdgeSpecialization, Source: "A", Target: "B"},
		},
	}}
	c := testComponent(computer, nil)

	req, err := json.Marshal(diagram.ModelRequest{URI: "file:///a.oml", Seq: 7})
	require.NoError(t, err)

	raw, err := c.handleModelRequest(context.Background(), req)
	require.NoError(t, err)

	var res diagram.ModelResponse
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.False(t, res.Error)
	assert.Equal(t, uint64(7), res.Seq)
	require.NotNil(t, res.Model)
	assert.Len(t, res.Model.Nodes, 2)
	require.Len(t, res.Model.Edges, 1)
	assert.Equal(t, "[A]->[B]", res.Model.Edges[0].ID)

	// Serving the request opened a view session.
	assert.True(t, c.sessions.Active("file:///a.oml"))
}

func TestHandleModelRequestComputeFailure(t *testing.T) {
	c := testComponent(&fakeComputer{err: errors.New("parse failed")}, nil)

	req, _ := json.Marshal(diagram.ModelRequest{URI: "file:///broken.oml"})
	raw, err := c.handleModelRequest(context.Background(), req)
	require.NoError(t, err)

	var res diagram.ModelResponse
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.True(t, res.Error)
	require.NotNil(t, res.Model)
	assert.Empty(t, res.Model.Nodes)
	assert.Empty(t, res.Model.Edges)
}

func TestHandleModelRequestBadPayload(t *testing.T) {
	c := testComponent(&fakeComputer{}, nil)

	raw, err := c.handleModelRequest(context.Background(), []byte("not json"))
	require.NoError(t, err)

	var res diagram.ModelResponse
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.True(t, res.Error)
}

func TestHandleNavigateRequest(t *testing.T) {
	provider := &fakeDocProvider{docs: map[string]*document.Document{
		"file:///a.oml": {
			URI:  "file:///a.oml",
			Text: "vocabulary v\nconcept A\n",
			Statements: []document.Statement{
				{Name: "A", Start: 13, End: 22},
			},
		},
	}}
	c := testComponent(&fakeComputer{}, provider)

	req, _ := json.Marshal(diagram.NavigateRequest{URI: "file:///a.oml", ElementID: "A"})
	raw, err := c.handleNavigateRequest(context.Background(), req)
	require.NoError(t, err)

	var loc navigate.Location
	require.NoError(t, json.Unmarshal(raw, &loc))
	assert.Equal(t, "file:///a.oml", loc.URI)
	assert.Equal(t, 2, loc.StartLine)
}

func TestHandleNavigateRequestMiss(t *testing.T) {
	c := testComponent(&fakeComputer{}, nil)

	req, _ := json.Marshal(diagram.NavigateRequest{URI: "file:///a.oml", ElementID: "Nope"})
	raw, err := c.handleNavigateRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func TestRecomputeSkipsInactiveDocuments(t *testing.T) {
	computer := &fakeComputer{err: errors.New("must not be called")}
	c := testComponent(computer, nil)

	// No session for this document: recompute must return before touching
	// the computer or the (absent) NATS client.
	c.recompute("file:///idle.oml")
}

func TestComponentMeta(t *testing.T) {
	c := testComponent(&fakeComputer{}, nil)
	meta := c.Meta()
	assert.Equal(t, "diagram-api", meta.Name)
	assert.Equal(t, "processor", meta.Type)
}

func TestComponentPorts(t *testing.T) {
	c := testComponent(&fakeComputer{}, nil)

	inputs := c.InputPorts()
	require.Len(t, inputs, 2)
	assert.Equal(t, "model_requests", inputs[0].Name)
	assert.Equal(t, "navigate_requests", inputs[1].Name)

	outputs := c.OutputPorts()
	require.Len(t, outputs, 1)
	assert.Equal(t, "model_updates", outputs[0].Name)
}

func TestComponentHealth(t *testing.T) {
	c := testComponent(&fakeComputer{}, nil)

	h := c.Health()
	assert.False(t, h.Healthy)
	assert.Equal(t, "stopped", h.Status)
}
