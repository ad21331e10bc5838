package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/streamforge-labs/streamforge-go/internal/coordinator"
)

type jobLister interface {
	ListRunningJobs(ctx context.Context) coordinator.Outcome
}

type statusAPI struct {
	logger *slog.Logger
	client jobLister
}

func newStatusAPI(logger *slog.Logger, client jobLister) *statusAPI {
	return &statusAPI{logger: logger, client: client}
}

func (api *statusAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /jobs", api.handleRunningJobs)
}

// handleRunningJobs serves the running-jobs status document. Anything
// short of a complete, well-formed coordinator reply is reported as a
// client-visible failure with the reason in plain text.
func (api *statusAPI) handleRunningJobs(w http.ResponseWriter, r *http.Request) {
	outcome := api.client.ListRunningJobs(r.Context())
	if outcome.Kind != coordinator.OutcomeSuccess {
		api.logger.Warn("status query failed",
			"outcome", outcome.Kind.String(),
			"message", outcome.Message,
		)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, outcome.Message+"\n")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, coordinator.RenderRunningJobs(outcome.Jobs))
}
