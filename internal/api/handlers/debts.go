package handlers

import (
	"net/http"

	"github.com/dvloznov/finance-ledger/internal/api/middleware"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/rs/zerolog"
)

// DebtsHandler handles debt and investment endpoints.
type DebtsHandler struct {
	ledger *ledger.Ledger
	log    zerolog.Logger
}

// NewDebtsHandler creates a new debts handler.
func NewDebtsHandler(l *ledger.Ledger, log zerolog.Logger) *DebtsHandler {
	return &DebtsHandler{ledger: l, log: log}
}

// ListDebts handles GET /api/debts
func (h *DebtsHandler) ListDebts(w http.ResponseWriter, r *http.Request) {
	debts := h.ledger.Debts()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"debts":        debts,
		"count":        len(debts),
		"netOpenDebts": h.ledger.NetOpenDebts(),
	})
}

// CreateDebt handles POST /api/debts
func (h *DebtsHandler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	var req domain.Debt
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.ledger.AddDebt(r.Context(), req)
	if err != nil {
		writeLedgerError(w, h.log, err, "create debt")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, d)
}

// UpdateDebt handles PUT /api/debts/{id}
func (h *DebtsHandler) UpdateDebt(w http.ResponseWriter, r *http.Request) {
	var req domain.Debt
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = r.PathValue("id")
	d, err := h.ledger.UpdateDebt(r.Context(), req)
	if err != nil {
		writeLedgerError(w, h.log, err, "update debt")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, d)
}

// SettleDebt handles POST /api/debts/{id}/settle. The body is optional;
// {"settled": false} reopens a debt.
func (h *DebtsHandler) SettleDebt(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Settled bool `json:"settled"`
	}{Settled: true}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	if err := h.ledger.SettleDebt(r.Context(), r.PathValue("id"), req.Settled); err != nil {
		writeLedgerError(w, h.log, err, "settle debt")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDebt handles DELETE /api/debts/{id}
func (h *DebtsHandler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.RemoveDebt(r.Context(), r.PathValue("id")); err != nil {
		writeLedgerError(w, h.log, err, "delete debt")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListInvestments handles GET /api/investments
func (h *DebtsHandler) ListInvestments(w http.ResponseWriter, r *http.Request) {
	investments := h.ledger.Investments()
	middleware.WriteJSON(w, http.StatusOK, listResponse("investments", investments, len(investments)))
}

// CreateInvestment handles POST /api/investments
func (h *DebtsHandler) CreateInvestment(w http.ResponseWriter, r *http.Request) {
	var req domain.Investment
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.ledger.AddInvestment(r.Context(), req)
	if err != nil {
		writeLedgerError(w, h.log, err, "create investment")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, inv)
}

// UpdateInvestment handles PUT /api/investments/{id}
func (h *DebtsHandler) UpdateInvestment(w http.ResponseWriter, r *http.Request) {
	var req domain.Investment
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = r.PathValue("id")
	if err := h.ledger.UpdateInvestment(r.Context(), req); err != nil {
		writeLedgerError(w, h.log, err, "update investment")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, req)
}

// DeleteInvestment handles DELETE /api/investments/{id}
func (h *DebtsHandler) DeleteInvestment(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.RemoveInvestment(r.Context(), r.PathValue("id")); err != nil {
		writeLedgerError(w, h.log, err, "delete investment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
