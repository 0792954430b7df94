package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodscope/foodscope"
	"github.com/foodscope/foodscope/application/service"
	"github.com/foodscope/foodscope/infrastructure/api/middleware"
	"github.com/foodscope/foodscope/infrastructure/api/v1/dto"
)

// HealthRouter reports the RAG service lifecycle state.
type HealthRouter struct {
	client *foodscope.Client
	logger *slog.Logger
}

// NewHealthRouter creates a HealthRouter.
func NewHealthRouter(client *foodscope.Client) *HealthRouter {
	return &HealthRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for health endpoints.
func (r *HealthRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", r.Health)
	return router
}

// Health handles GET /health. A degraded service reports 503 with the
// reason; any other state reports 200.
func (r *HealthRouter) Health(w http.ResponseWriter, req *http.Request) {
	state := r.client.RAG.State()

	status := http.StatusOK
	if state == service.StateDegraded {
		status = http.StatusServiceUnavailable
	}
	middleware.WriteJSON(w, status, dto.HealthResponse{
		Status: string(state),
		Reason: r.client.RAG.DegradedReason(),
	})
}
