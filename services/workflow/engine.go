package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// maxLinkConcurrency bounds the fan-out of per-node dependency updates.
const maxLinkConcurrency = 8

// Engine reconciles a canvas graph against its persisted node records: it
// creates, updates, links, and deletes records so that after a pass the
// store mirrors the graph. A pass is idempotent; re-running it on an
// unchanged graph creates and deletes nothing.
type Engine struct {
	store RecordStore
}

// NewEngine creates an Engine backed by the given record store.
func NewEngine(store RecordStore) *Engine {
	return &Engine{store: store}
}

// Synchronize runs one full pass for the given workflow. The only error it
// returns is a failure of the initial record query, in which case nothing
// has been mutated. Per-node create/update/link/delete failures are logged
// and collected in the summary instead; a single bad node must not block
// saving the rest of the graph.
//
// The pass runs in three strictly ordered stages: create/update every node
// (extending the canvas-id to record-id map as records are created), then
// resolve and persist dependency links once every node has a durable id,
// then delete records whose canvas node is gone. Links cannot be written
// earlier because an edge may point at a node that has no record yet.
func (e *Engine) Synchronize(ctx context.Context, workflowID string, nodes []Node, edges []Edge) (*SyncSummary, error) {
	existing, err := e.store.Query(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("load existing node records: %w", err)
	}

	identity := buildIdentityMap(existing)
	orders := executionOrders(nodes, edges)
	summary := &SyncSummary{WorkflowID: workflowID}

	// Phase A: per-node create or update.
	for _, node := range nodes {
		fields := deriveFields(node, orders[node.ID])

		if recordID, ok := identity[node.ID]; ok {
			if err := e.store.Update(ctx, recordID, fields); err != nil {
				slog.Error("Failed to update node record",
					"workflowId", workflowID, "nodeId", node.ID, "recordId", recordID, "error", err)
				summary.Failures = append(summary.Failures, NodeFailure{NodeID: node.ID, Error: err.Error()})
				continue
			}
			summary.Updated++
			continue
		}

		fields[FieldWorkflowID] = workflowID
		recordID, err := e.store.Create(ctx, node.Type, fields)
		if err != nil {
			slog.Error("Failed to create node record",
				"workflowId", workflowID, "nodeId", node.ID, "error", err)
			summary.Failures = append(summary.Failures, NodeFailure{NodeID: node.ID, Error: err.Error()})
			continue
		}
		// Registered immediately so edges into this node resolve during
		// linking, regardless of how the node's own link update fares.
		identity[node.ID] = recordID
		summary.Created++
	}

	e.linkDependencies(ctx, nodes, edges, identity, summary)

	// Phase C: delete orphans. Records without a readable marker are kept;
	// we cannot prove they belong to a removed node.
	current := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		current[n.ID] = true
	}
	for _, rec := range existing {
		canvasID, ok := canvasMarker(rec.Config)
		if !ok || current[canvasID] {
			continue
		}
		if err := e.store.Delete(ctx, rec.ID); err != nil {
			slog.Error("Failed to delete orphaned node record",
				"workflowId", workflowID, "canvasId", canvasID, "recordId", rec.ID, "error", err)
			summary.Failures = append(summary.Failures, NodeFailure{NodeID: canvasID, Error: err.Error()})
			continue
		}
		summary.Deleted++
	}

	slog.Info("Synchronized workflow graph",
		"workflowId", workflowID,
		"created", summary.Created, "updated", summary.Updated,
		"deleted", summary.Deleted, "failed", len(summary.Failures))
	return summary, nil
}

// linkDependencies resolves each persisted node's dependsOn list from its
// incoming edges and writes it back. Nodes that never got a record are
// skipped, and edge sources without a record are dropped from the list. An
// empty list is still written: a user may remove an edge without removing
// either endpoint, and the stale link must not survive. The per-node
// updates are independent, so they fan out concurrently.
func (e *Engine) linkDependencies(ctx context.Context, nodes []Node, edges []Edge, identity map[string]string, summary *SyncSummary) {
	incoming := make(map[string][]string)
	for _, edge := range edges {
		src, ok := identity[edge.Source]
		if !ok {
			continue
		}
		incoming[edge.Target] = appendUnique(incoming[edge.Target], src)
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(maxLinkConcurrency)

	for _, node := range nodes {
		node := node
		recordID, ok := identity[node.ID]
		if !ok {
			continue
		}
		deps := incoming[node.ID]
		if deps == nil {
			deps = []string{}
		}

		g.Go(func() error {
			err := e.store.Update(ctx, recordID, Fields{FieldDependsOn: deps})
			if err != nil {
				slog.Error("Failed to update node dependencies",
					"nodeId", node.ID, "recordId", recordID, "error", err)
				mu.Lock()
				summary.Failures = append(summary.Failures, NodeFailure{NodeID: node.ID, Error: err.Error()})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
