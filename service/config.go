package service

import (
	"fmt"
	"reflect"

	"github.com/c360studio/ontoview/layout"
	"github.com/c360studio/semstreams/component"
)

// diagramAPISchema defines the configuration schema.
var diagramAPISchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Config holds configuration for the diagram-api component.
type Config struct {
	Ports *component.PortConfig `json:"ports" schema:"type:ports,description:Port configuration,category:basic"`

	// Workspace is the directory containing the ontology documents.
	Workspace string `json:"workspace" schema:"type:string,description:Workspace root containing ontology documents,category:basic"`

	// Include selects the watched documents, relative to Workspace.
	Include []string `json:"include" schema:"type:array,description:Doublestar patterns of watched documents,category:basic"`

	// DebounceMS is the quiescence window for edit-triggered recomputation.
	DebounceMS int `json:"debounce_ms" schema:"type:integer,description:Debounce window for document edits in milliseconds,category:basic,default:300"`

	// LayoutSubject is where the external layout engine answers.
	LayoutSubject string `json:"layout_subject" schema:"type:string,description:Request subject of the layout engine,category:basic"`

	// TimeoutSecs bounds every collaborator request.
	TimeoutSecs int `json:"timeout_secs" schema:"type:integer,description:Collaborator request timeout in seconds,category:basic,default:15"`

	// SessionIdleMins is how long a view session stays active without a
	// model request before change-triggered recomputation stops for it.
	SessionIdleMins int `json:"session_idle_mins" schema:"type:integer,description:Idle minutes before a view session expires,category:basic,default:30"`

	// UseFSProxy routes document reads through the host filesystem proxy
	// instead of direct disk access.
	UseFSProxy bool `json:"use_fs_proxy" schema:"type:boolean,description:Read documents through the host filesystem proxy,category:basic"`

	// Spacing overrides the layout spacing constants.
	Spacing *layout.Spacing `json:"spacing,omitempty" schema:"type:object,description:Layout spacing overrides,category:advanced"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DebounceMS < 0 {
		return fmt.Errorf("debounce_ms must be non-negative")
	}
	if c.TimeoutSecs < 0 {
		return fmt.Errorf("timeout_secs must be non-negative")
	}
	return nil
}

// DefaultConfig returns the default configuration for diagram-api.
func DefaultConfig() Config {
	return Config{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "model_requests",
					Type:        "nats",
					Subject:     "diagram.model.request",
					Required:    true,
					Description: "Model request/reply subject",
				},
				{
					Name:        "navigate_requests",
					Type:        "nats",
					Subject:     "diagram.navigate.request",
					Required:    true,
					Description: "Navigation request/reply subject",
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        "model_updates",
					Type:        "nats",
					Subject:     "diagram.model.update",
					Required:    false,
					Description: "Model update push notifications",
				},
			},
		},
		Include:         []string{"**/*.oml"},
		DebounceMS:      300,
		LayoutSubject:   "diagram.layout.request",
		TimeoutSecs:     15,
		SessionIdleMins: 30,
	}
}
