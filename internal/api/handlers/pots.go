package handlers

import (
	"net/http"

	"github.com/dvloznov/finance-ledger/internal/api/middleware"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PotsHandler handles savings pot endpoints.
type PotsHandler struct {
	ledger *ledger.Ledger
	log    zerolog.Logger
}

// NewPotsHandler creates a new pots handler.
func NewPotsHandler(l *ledger.Ledger, log zerolog.Logger) *PotsHandler {
	return &PotsHandler{ledger: l, log: log}
}

type potView struct {
	domain.SavingsPot
	Saved decimal.Decimal `json:"saved"`
	// Progress is saved/goal capped at 1; absent when the pot has no goal.
	Progress *decimal.Decimal `json:"progress,omitempty"`
}

func (h *PotsHandler) view(p domain.SavingsPot) potView {
	v := potView{SavingsPot: p, Saved: h.ledger.SavedAmount(p.ID)}
	if progress, ok, err := h.ledger.Progress(p.ID); err == nil && ok {
		v.Progress = &progress
	}
	return v
}

// ListPots handles GET /api/pots?account=
func (h *PotsHandler) ListPots(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account")
	if accountID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "account is required")
		return
	}
	if _, err := h.ledger.Account(accountID); err != nil {
		writeLedgerError(w, h.log, err, "list pots")
		return
	}

	pots := h.ledger.Pots(accountID)
	views := make([]potView, 0, len(pots))
	for _, p := range pots {
		views = append(views, h.view(p))
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"pots":  views,
		"count": len(views),
		"saved": h.ledger.TotalSavedInPots(accountID),
		"free":  h.ledger.FreeBalance(accountID),
	})
}

// CreatePot handles POST /api/pots
func (h *PotsHandler) CreatePot(w http.ResponseWriter, r *http.Request) {
	var req domain.SavingsPot
	if !decodeJSON(w, r, &req) {
		return
	}
	pot, err := h.ledger.AddPot(r.Context(), req)
	if err != nil {
		writeLedgerError(w, h.log, err, "create pot")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, h.view(pot))
}

// UpdatePot handles PUT /api/pots/{id}
func (h *PotsHandler) UpdatePot(w http.ResponseWriter, r *http.Request) {
	var req domain.SavingsPot
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = r.PathValue("id")
	pot, err := h.ledger.UpdatePot(r.Context(), req)
	if err != nil {
		writeLedgerError(w, h.log, err, "update pot")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.view(pot))
}

// DeletePot handles DELETE /api/pots/{id}
func (h *PotsHandler) DeletePot(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.RemovePot(r.Context(), r.PathValue("id")); err != nil {
		writeLedgerError(w, h.log, err, "delete pot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Deposit handles POST /api/pots/{id}/deposit
func (h *PotsHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, true)
}

// Withdraw handles POST /api/pots/{id}/withdraw
func (h *PotsHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, false)
}

func (h *PotsHandler) move(w http.ResponseWriter, r *http.Request, deposit bool) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	pot, err := h.ledger.Pot(r.PathValue("id"))
	if err != nil {
		writeLedgerError(w, h.log, err, "move money")
		return
	}

	var tx domain.Transaction
	if deposit {
		tx, err = h.ledger.MoveToPot(r.Context(), pot.AccountID, pot.ID, req.Amount)
	} else {
		tx, err = h.ledger.MoveFromPot(r.Context(), pot.AccountID, pot.ID, req.Amount)
	}
	if err != nil {
		writeLedgerError(w, h.log, err, "move money")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"transaction": tx,
		"pot":         h.view(pot),
	})
}
