package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/loanbox/orchestrator/internal/core/domain"
	"github.com/loanbox/orchestrator/internal/server"
)

type createRunRequest struct {
	ApplicationID int64 `json:"application_id"`
	PipelineID    int64 `json:"pipeline_id"`
}

func (h *Handler) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ApplicationID <= 0 {
		writeError(w, r, unprocessable(domain.ErrInvalidRequest("application_id must be greater than 0").WithParam("application_id")))
		return
	}
	if req.PipelineID <= 0 {
		writeError(w, r, unprocessable(domain.ErrInvalidRequest("pipeline_id must be greater than 0").WithParam("pipeline_id")))
		return
	}

	ctx := r.Context()
	server.AddLogField(ctx, "application_id", strconv.FormatInt(req.ApplicationID, 10))
	server.AddLogField(ctx, "pipeline_id", strconv.FormatInt(req.PipelineID, 10))

	run, err := h.executor.Execute(ctx, req.ApplicationID, req.PipelineID)
	if err != nil {
		if domain.IsNotFound(err) {
			writeError(w, r, err)
			return
		}
		h.logger.Error("pipeline execution failed",
			slog.String("request_id", server.GetRequestID(ctx)),
			slog.String("error", err.Error()))
		writeError(w, r, domain.ErrServer(fmt.Sprintf("Pipeline execution failed: %v", err)))
		return
	}

	server.AddLogField(ctx, "final_status", string(run.FinalStatus))
	writeJSON(w, http.StatusCreated, run)
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if opts.Limit == 0 {
		writeJSON(w, http.StatusOK, []*domain.Run{})
		return
	}

	runs, err := h.store.ListRuns(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	run, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, r, notFound(err, "Run not found"))
		return
	}
	writeJSON(w, http.StatusOK, run)
}
