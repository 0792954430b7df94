// Package v1 implements the v1 HTTP API.
package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodscope/foodscope"
	"github.com/foodscope/foodscope/application/service"
	"github.com/foodscope/foodscope/infrastructure/api/middleware"
	"github.com/foodscope/foodscope/infrastructure/api/v1/dto"
)

// AskRouter handles question-answering endpoints.
type AskRouter struct {
	client *foodscope.Client
	logger *slog.Logger
}

// NewAskRouter creates an AskRouter.
func NewAskRouter(client *foodscope.Client) *AskRouter {
	return &AskRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for ask endpoints.
func (r *AskRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", r.Ask)
	return router
}

// Ask handles POST /api/v1/ask.
func (r *AskRouter) Ask(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.AskRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err), r.logger)
		return
	}

	answer, err := r.client.RAG.Ask(ctx, body.Query)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, buildAskResponse(answer))
}

func buildAskResponse(answer service.Answer) dto.AskResponse {
	sources := make([]dto.SourceSchema, 0, len(answer.Sources()))
	for _, s := range answer.Sources() {
		sources = append(sources, dto.SourceSchema{
			County:     s.County(),
			State:      s.State(),
			IsHighRisk: s.HighRisk(),
			Similarity: s.Similarity(),
		})
	}
	return dto.AskResponse{Answer: answer.Text(), Sources: sources}
}
