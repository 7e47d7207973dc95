package workflow

import (
	"encoding/json"
	"log/slog"
)

// markerKey is the hidden config key carrying the originating canvas id.
// It is the only mechanism by which a later pass recognizes that a
// persisted record corresponds to a canvas node.
const markerKey = "canvasId"

// canvasMarker extracts the canvas-id marker from a record's config blob.
// Extraction is best-effort: a blob that fails to parse, or carries no
// marker, yields ok == false and is never an error. Such records cannot be
// matched for update and are conservatively preserved during orphan
// cleanup.
func canvasMarker(config []byte) (string, bool) {
	if len(config) == 0 {
		return "", false
	}
	var blob map[string]json.RawMessage
	if err := json.Unmarshal(config, &blob); err != nil {
		return "", false
	}
	raw, ok := blob[markerKey]
	if !ok {
		return "", false
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil || id == "" {
		return "", false
	}
	return id, true
}

// buildIdentityMap seeds the canvasID -> recordID map from existing
// records. The reconciler extends it in place as new records are created,
// so edges can be resolved to durable ids later in the same pass. When two
// records claim the same canvas id the first one wins; the duplicate is
// never matched for update but is preserved, not deleted.
func buildIdentityMap(records []StoredRecord) map[string]string {
	identity := make(map[string]string, len(records))
	for _, rec := range records {
		canvasID, ok := canvasMarker(rec.Config)
		if !ok {
			slog.Debug("Node record has no readable canvas marker", "recordId", rec.ID)
			continue
		}
		if _, exists := identity[canvasID]; exists {
			slog.Warn("Duplicate canvas marker", "canvasId", canvasID, "recordId", rec.ID)
			continue
		}
		identity[canvasID] = rec.ID
	}
	return identity
}
