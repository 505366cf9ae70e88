package service

import (
	"testing"

	"github.com/c360studio/ontoview/diagram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultComponentConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NotNil(t, cfg.Ports)
	require.Len(t, cfg.Ports.Inputs, 2)
	assert.Equal(t, "diagram.model.request", cfg.Ports.Inputs[0].Subject)
	assert.Equal(t, "diagram.navigate.request", cfg.Ports.Inputs[1].Subject)
	require.Len(t, cfg.Ports.Outputs, 1)
	assert.Equal(t, "diagram.model.update", cfg.Ports.Outputs[0].Subject)

	assert.Equal(t, []string{"**/*.oml"}, cfg.Include)
	assert.Equal(t, 300, cfg.DebounceMS)
	assert.Equal(t, "diagram.layout.request", cfg.LayoutSubject)
	assert.Equal(t, 15, cfg.TimeoutSecs)

	assert.NoError(t, cfg.Validate())
}

func TestComponentConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DebounceMS = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.TimeoutSecs = -1
	assert.Error(t, cfg.Validate())
}

func TestGraphPayloadValidate(t *testing.T) {
	p := &GraphPayload{}
	assert.Error(t, p.Validate())

	p.URI_ = "file:///a.oml"
	assert.Error(t, p.Validate())

	p.Model = diagram.EmptyGraph("file:///a.oml")
	assert.NoError(t, p.Validate())
	assert.Equal(t, "file:///a.oml", p.URI())
	assert.Equal(t, GraphType, p.Schema())
}
