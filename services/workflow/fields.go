package workflow

import "math"

// Known metadata keys lifted out of Data.Metadata into first-class record
// fields. Everything else stays inside the opaque config blob.
const (
	metaAction         = "action"
	metaOutputVariable = "outputVariable"
	metaTimeoutSeconds = "timeoutSeconds"
	metaRetryCount     = "retryCount"
	metaCondition      = "condition"
	metaActive         = "active"
	metaCredentialID   = "credentialId"
)

// deriveFields maps a canvas node onto record fields for one sync pass.
// Order, kind, position, and the config blob are always derivable; the
// extracted metadata fields are included only when the node actually
// carries them, so an update never clobbers store-side configuration the
// canvas knows nothing about. A known key whose value fails extraction
// (wrong type, fractional count) is not lifted and travels in the blob
// instead of being dropped.
func deriveFields(node Node, order int) Fields {
	fields := Fields{
		FieldKind:  node.Type,
		FieldOrder: order,
	}
	lifted := make(map[string]bool, 7)

	meta := node.Data.Metadata
	if v, ok := stringMeta(meta, metaAction); ok {
		fields[FieldAction] = v
		lifted[metaAction] = true
	}
	if v, ok := stringMeta(meta, metaOutputVariable); ok {
		fields[FieldOutputVariable] = v
		lifted[metaOutputVariable] = true
	}
	if v, ok := intMeta(meta, metaTimeoutSeconds); ok {
		fields[FieldTimeout] = v
		lifted[metaTimeoutSeconds] = true
	}
	if v, ok := intMeta(meta, metaRetryCount); ok {
		fields[FieldRetryCount] = v
		lifted[metaRetryCount] = true
	}
	if v, ok := stringMeta(meta, metaCondition); ok {
		fields[FieldCondition] = v
		lifted[metaCondition] = true
	}
	if v, ok := boolMeta(meta, metaActive); ok {
		fields[FieldActive] = v
		lifted[metaActive] = true
	}
	if v, ok := stringMeta(meta, metaCredentialID); ok {
		fields[FieldCredentialID] = v
		lifted[metaCredentialID] = true
	}

	fields[FieldPosition] = node.Position
	fields[FieldConfig] = configBlob(node, lifted)
	return fields
}

// configBlob builds the opaque config for a node: metadata not lifted into
// a first-class field, plus label and description, with the canvasId
// marker on top. The marker is what lets the next pass find this record
// again.
func configBlob(node Node, lifted map[string]bool) map[string]any {
	blob := make(map[string]any, len(node.Data.Metadata)+3)
	for k, v := range node.Data.Metadata {
		if !lifted[k] {
			blob[k] = v
		}
	}
	if node.Data.Label != "" {
		blob["label"] = node.Data.Label
	}
	if node.Data.Description != "" {
		blob["description"] = node.Data.Description
	}
	blob[markerKey] = node.ID
	return blob
}

func stringMeta(meta map[string]any, key string) (string, bool) {
	v, ok := meta[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// intMeta accepts int and integral float64; metadata decoded from JSON
// always arrives as float64. Fractional values are not lifted.
func intMeta(meta map[string]any, key string) (int, bool) {
	switch v := meta[key].(type) {
	case int:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}

func boolMeta(meta map[string]any, key string) (bool, bool) {
	v, ok := meta[key].(bool)
	return v, ok
}
