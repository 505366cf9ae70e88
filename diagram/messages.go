package diagram

// NATS subjects of the diagram view protocol. The client and backend sides
// must agree on these, the same way they must agree on the identifier
// grammar.
const (
	// ModelRequestSubject serves {uri} -> ModelResponse.
	ModelRequestSubject = "diagram.model.request"
	// NavigateRequestSubject serves {uri, elementId} -> Location or null.
	NavigateRequestSubject = "diagram.navigate.request"
	// ModelUpdateSubject pushes a freshly laid-out graph to open views.
	ModelUpdateSubject = "diagram.model.update"
	// ThemeSubject notifies views of the host theme.
	ThemeSubject = "diagram.theme"
	// SavedSubject notifies the backend that a document was saved.
	SavedSubject = "diagram.document.saved"
)

// ModelRequest asks for the laid-out graph of one document.
type ModelRequest struct {
	URI string `json:"uri"`
	// Seq is the client's monotonically increasing request id, echoed in
	// the response so stale replies can be dropped.
	Seq uint64 `json:"seq,omitempty"`
}

// ModelResponse carries the laid-out graph, or an empty graph plus the
// error flag when model computation failed.
type ModelResponse struct {
	Model *VisualGraph `json:"model"`
	Seq   uint64       `json:"seq,omitempty"`
	Error bool         `json:"error,omitempty"`
}

// NavigateRequest asks for the source location of a clicked element.
type NavigateRequest struct {
	URI       string `json:"uri"`
	ElementID string `json:"elementId"`
}

// ThemeNotification tells views which display theme the host uses.
type ThemeNotification struct {
	Type string `json:"type"`
	Kind string `json:"kind"`
}

// ModelUpdate is the push message replacing a view's current model.
type ModelUpdate struct {
	Type  string       `json:"type"`
	Model *VisualGraph `json:"model"`
}
