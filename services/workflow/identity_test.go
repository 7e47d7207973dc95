package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanvasMarker(t *testing.T) {
	tests := []struct {
		name   string
		config string
		wantID string
		wantOK bool
	}{
		{"present", `{"canvasId":"node-1","label":"A"}`, "node-1", true},
		{"missing", `{"label":"A"}`, "", false},
		{"empty value", `{"canvasId":""}`, "", false},
		{"wrong type", `{"canvasId":42}`, "", false},
		{"unparseable", `{not json`, "", false},
		{"empty blob", ``, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := canvasMarker([]byte(tt.config))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestBuildIdentityMap(t *testing.T) {
	records := []StoredRecord{
		{ID: "rec-1", Config: []byte(`{"canvasId":"a"}`)},
		{ID: "rec-2", Config: []byte(`{"canvasId":"b"}`)},
		{ID: "rec-3", Config: []byte(`{"label":"no marker"}`)},
		{ID: "rec-4", Config: []byte(`broken`)},
	}

	identity := buildIdentityMap(records)

	assert.Equal(t, map[string]string{"a": "rec-1", "b": "rec-2"}, identity)
}

func TestBuildIdentityMap_DuplicateMarkerFirstWins(t *testing.T) {
	records := []StoredRecord{
		{ID: "rec-1", Config: []byte(`{"canvasId":"a"}`)},
		{ID: "rec-2", Config: []byte(`{"canvasId":"a"}`)},
	}

	identity := buildIdentityMap(records)

	assert.Equal(t, map[string]string{"a": "rec-1"}, identity)
}
