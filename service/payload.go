package service

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/c360studio/ontoview/diagram"
	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/payloadregistry"
)

// payloadRegistry holds this package's payload registrations. semstreams
// removed the global component.RegisterPayload singleton (payload
// registration moved to the instance-based payloadregistry package), so
// the registration is kept here with the same init-time semantics.
var payloadRegistry = payloadregistry.New()

func init() {
	err := payloadRegistry.Register(&payloadregistry.Registration{
		Domain:      "diagram",
		Category:    "graph",
		Version:     "v1",
		Description: "Laid-out visual graph payload for diagram view updates",
		Factory:     func() any { return &GraphPayload{} },
	})
	if err != nil {
		panic("failed to register GraphPayload: " + err.Error())
	}
}

// GraphType is the message type for diagram graph payloads.
var GraphType = message.Type{Domain: "diagram", Category: "graph", Version: "v1"}

// GraphPayload implements message.Payload for model update pushes.
type GraphPayload struct {
	URI_      string               `json:"uri"`
	Model     *diagram.VisualGraph `json:"model"`
	UpdatedAt time.Time            `json:"updated_at"`
}

func (g *GraphPayload) URI() string          { return g.URI_ }
func (g *GraphPayload) Schema() message.Type { return GraphType }

func (g *GraphPayload) Validate() error {
	if g.URI_ == "" {
		return errors.New("document URI is required")
	}
	if g.Model == nil {
		return errors.New("model is required")
	}
	return nil
}

func (g *GraphPayload) MarshalJSON() ([]byte, error) {
	type Alias GraphPayload
	return json.Marshal((*Alias)(g))
}

func (g *GraphPayload) UnmarshalJSON(data []byte) error {
	type Alias GraphPayload
	return json.Unmarshal(data, (*Alias)(g))
}
