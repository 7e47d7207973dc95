package workflow

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// HandleGetWorkflow loads a workflow definition from the database and
// returns it as JSON.
func (s *Service) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	slog.Debug("Getting workflow", "id", id)

	wf, err := s.repo.Get(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get workflow", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if wf == nil {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(wf)
}

// HandleSaveWorkflow persists the edited canvas and runs one sync pass so
// the node records match the new graph. The summary is returned to the
// frontend; per-node failures surface there rather than failing the save.
func (s *Service) HandleSaveWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	slog.Debug("Saving workflow", "id", id)

	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validateSaveRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repo.Save(r.Context(), id, req); err != nil {
		slog.Error("Failed to save workflow", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	summary, err := s.engine.Synchronize(r.Context(), id, req.Nodes, req.Edges)
	if err != nil {
		slog.Error("Workflow sync failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(summary)
}

// HandleSyncWorkflow re-runs synchronization from the stored definition,
// without changing the definition itself.
func (s *Service) HandleSyncWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	slog.Debug("Syncing workflow", "id", id)

	wf, err := s.repo.Get(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get workflow for sync", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if wf == nil {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}

	summary, err := s.engine.Synchronize(r.Context(), id, wf.Nodes, wf.Edges)
	if err != nil {
		slog.Error("Workflow sync failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(summary)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func validateSaveRequest(req SaveRequest) error {
	if req.Nodes == nil {
		return errMissing("nodes")
	}
	seen := make(map[string]bool, len(req.Nodes))
	for _, n := range req.Nodes {
		if n.ID == "" {
			return errMissing("node id")
		}
		if n.Type == "" {
			return errMissing("node type")
		}
		if seen[n.ID] {
			return errInvalid("node id")
		}
		seen[n.ID] = true
	}
	for _, e := range req.Edges {
		if e.Source == "" || e.Target == "" {
			return errMissing("edge endpoint")
		}
	}
	return nil
}

type validationError struct {
	field string
	kind  string
}

func (e *validationError) Error() string {
	if e.kind == "missing" {
		return e.field + " is required"
	}
	return e.field + " is invalid"
}

func errMissing(field string) error { return &validationError{field: field, kind: "missing"} }
func errInvalid(field string) error { return &validationError{field: field, kind: "invalid"} }
