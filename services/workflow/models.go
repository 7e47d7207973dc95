package workflow

import "time"

// Workflow represents a persisted workflow definition with its canvas graph
// of nodes and edges.
type Workflow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Node represents a single step in a workflow canvas. Its ID is stable only
// within an editing session; cross-save identity is recovered through the
// canvasId marker embedded in each node record's config.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// Position holds x/y coordinates for rendering the node on the canvas.
// Persisted as-is, never interpreted by the sync engine.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData holds the display and configuration data for a node. Metadata is
// an open map; known keys (action, outputVariable, timeoutSeconds,
// retryCount, condition, active, credentialId) are lifted into first-class
// record columns on sync, the rest travels opaquely in the record's config
// blob.
type NodeData struct {
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Edge represents a directed dependency between two nodes: Target depends on
// the output of Source.
type Edge struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"`
	Target       string         `json:"target"`
	Label        string         `json:"label,omitempty"`
	Type         string         `json:"type,omitempty"`
	SourceHandle string         `json:"sourceHandle,omitempty"`
	TargetHandle string         `json:"targetHandle,omitempty"`
	Animated     bool           `json:"animated,omitempty"`
	Style        map[string]any `json:"style,omitempty"`
	LabelStyle   map[string]any `json:"labelStyle,omitempty"`
}

// SaveRequest is the JSON body sent by the frontend when saving the canvas.
type SaveRequest struct {
	Name  string `json:"name"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// SyncSummary reports the outcome of one synchronization pass. Individual
// node failures never abort the pass; they are collected here for the caller
// to surface.
type SyncSummary struct {
	WorkflowID string        `json:"workflowId"`
	Created    int           `json:"created"`
	Updated    int           `json:"updated"`
	Deleted    int           `json:"deleted"`
	Failures   []NodeFailure `json:"failures,omitempty"`
}

// NodeFailure identifies a canvas node whose create, update, or link call
// failed during a pass.
type NodeFailure struct {
	NodeID string `json:"nodeId"`
	Error  string `json:"error"`
}

// Failed reports whether any per-node operation failed during the pass.
func (s *SyncSummary) Failed() bool {
	return len(s.Failures) > 0
}
