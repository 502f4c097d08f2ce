package api

import (
	"net/http"

	"github.com/loanbox/orchestrator/internal/core/domain"
)

type createApplicationRequest struct {
	ApplicantName string `json:"applicant_name"`
	Amount        int64  `json:"amount"`
	MonthlyIncome int64  `json:"monthly_income"`
	DeclaredDebts int64  `json:"declared_debts"`
	Country       string `json:"country"`
	LoanPurpose   string `json:"loan_purpose"`
}

func (h *Handler) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	app := &domain.Application{
		ApplicantName: req.ApplicantName,
		Amount:        req.Amount,
		MonthlyIncome: req.MonthlyIncome,
		DeclaredDebts: req.DeclaredDebts,
		Country:       req.Country,
		LoanPurpose:   req.LoanPurpose,
		Status:        domain.StatusPending,
	}
	if err := app.Validate(); err != nil {
		writeError(w, r, unprocessable(err))
		return
	}

	if err := h.store.CreateApplication(r.Context(), app); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *Handler) handleListApplications(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if opts.Limit == 0 {
		writeJSON(w, http.StatusOK, []*domain.Application{})
		return
	}

	apps, err := h.store.ListApplications(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *Handler) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	app, err := h.store.GetApplication(r.Context(), id)
	if err != nil {
		writeError(w, r, notFound(err, "Application not found"))
		return
	}
	writeJSON(w, http.StatusOK, app)
}
