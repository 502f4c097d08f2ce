package api

import (
	"net/http"

	"github.com/loanbox/orchestrator/internal/condition"
	"github.com/loanbox/orchestrator/internal/core/domain"
)

type createPipelineRequest struct {
	Name          string                `json:"name"`
	Description   *string               `json:"description"`
	Steps         []domain.StepConfig   `json:"steps"`
	TerminalRules []domain.TerminalRule `json:"terminal_rules"`
}

func (h *Handler) handleCreatePipeline(w http.ResponseWriter, r *http.Request) {
	var req createPipelineRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p := &domain.Pipeline{
		Name:          req.Name,
		Description:   req.Description,
		Steps:         req.Steps,
		TerminalRules: req.TerminalRules,
	}
	if err := p.Validate(); err != nil {
		writeError(w, r, unprocessable(err))
		return
	}
	if err := h.checkDefinition(p.Steps, p.TerminalRules); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.store.CreatePipeline(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleListPipelines(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if opts.Limit == 0 {
		writeJSON(w, http.StatusOK, []*domain.Pipeline{})
		return
	}

	pipelines, err := h.store.ListPipelines(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pipelines)
}

func (h *Handler) handleGetPipeline(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.store.GetPipeline(r.Context(), id)
	if err != nil {
		writeError(w, r, notFound(err, "Pipeline not found"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdatePipeline(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var update domain.PipelineUpdate
	if err := decodeBody(w, r, &update); err != nil {
		writeError(w, r, err)
		return
	}
	if err := update.Validate(); err != nil {
		writeError(w, r, unprocessable(err))
		return
	}
	if err := h.checkDefinition(update.Steps, update.TerminalRules); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.store.UpdatePipeline(r.Context(), id, &update)
	if err != nil {
		writeError(w, r, notFound(err, "Pipeline not found"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// checkDefinition rejects unregistered step types and, in strict mode,
// conditions that match no supported form.
func (h *Handler) checkDefinition(stepConfigs []domain.StepConfig, rules []domain.TerminalRule) error {
	if err := h.catalog.ValidateSteps(stepConfigs); err != nil {
		return err
	}
	if h.strictConditions {
		return condition.CheckRules(rules)
	}
	return nil
}
