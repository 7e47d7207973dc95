package workflow

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkflowRepo abstracts workflow definition persistence for testability.
type WorkflowRepo interface {
	Get(ctx context.Context, id string) (*Workflow, error)
	Save(ctx context.Context, id string, req SaveRequest) error
}

// Synchronizer abstracts the sync engine for testability.
type Synchronizer interface {
	Synchronize(ctx context.Context, workflowID string, nodes []Node, edges []Edge) (*SyncSummary, error)
}

// Service wires together the repository and sync engine for the workflow
// domain.
type Service struct {
	repo   WorkflowRepo
	engine Synchronizer
}

// NewService creates a Service with PostgreSQL-backed persistence for both
// the canvas definitions and the node records the sync engine maintains.
func NewService(pool *pgxpool.Pool) (*Service, error) {
	repo := NewRepository(pool)
	engine := NewEngine(NewPgRecordStore(pool))
	return &Service{repo: repo, engine: engine}, nil
}

// jsonMiddleware sets the Content-Type header to application/json.
func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// LoadRoutes registers workflow HTTP handlers on the given router.
func (s *Service) LoadRoutes(parentRouter *mux.Router) {
	router := parentRouter.PathPrefix("/workflows").Subrouter()
	router.StrictSlash(false)
	router.Use(jsonMiddleware)

	router.HandleFunc("/{id}", s.HandleGetWorkflow).Methods("GET")
	router.HandleFunc("/{id}", s.HandleSaveWorkflow).Methods("PUT")
	router.HandleFunc("/{id}/sync", s.HandleSyncWorkflow).Methods("POST")
}
