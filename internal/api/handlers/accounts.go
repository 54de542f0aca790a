package handlers

import (
	"net/http"

	"github.com/dvloznov/finance-ledger/internal/api/middleware"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AccountsHandler handles account-related endpoints.
type AccountsHandler struct {
	ledger *ledger.Ledger
	log    zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(l *ledger.Ledger, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{ledger: l, log: log}
}

// accountView is an account with its derived figures.
type accountView struct {
	domain.Account
	Balance      decimal.Decimal `json:"balance"`
	GroupBalance decimal.Decimal `json:"groupBalance"`
	Saved        decimal.Decimal `json:"saved"`
	Free         decimal.Decimal `json:"free"`
}

func (h *AccountsHandler) view(acc domain.Account) accountView {
	return accountView{
		Account:      acc,
		Balance:      h.ledger.Balance(acc.ID),
		GroupBalance: h.ledger.GroupBalance(acc.ID),
		Saved:        h.ledger.TotalSavedInPots(acc.ID),
		Free:         h.ledger.FreeBalance(acc.ID),
	}
}

// ListAccounts handles GET /api/accounts
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := h.ledger.Accounts()
	views := make([]accountView, 0, len(accounts))
	for _, acc := range accounts {
		views = append(views, h.view(acc))
	}
	middleware.WriteJSON(w, http.StatusOK, listResponse("accounts", views, len(views)))
}

// GetAccount handles GET /api/accounts/{id}
func (h *AccountsHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := h.ledger.Account(r.PathValue("id"))
	if err != nil {
		writeLedgerError(w, h.log, err, "get account")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.view(acc))
}

// CreateAccount handles POST /api/accounts
func (h *AccountsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req domain.Account
	if !decodeJSON(w, r, &req) {
		return
	}
	acc, err := h.ledger.AddAccount(r.Context(), req)
	if err != nil {
		writeLedgerError(w, h.log, err, "create account")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, h.view(acc))
}

// UpdateAccount handles PUT /api/accounts/{id}
func (h *AccountsHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req domain.Account
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = r.PathValue("id")
	acc, err := h.ledger.UpdateAccount(r.Context(), req)
	if err != nil {
		writeLedgerError(w, h.log, err, "update account")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.view(acc))
}

// DeleteAccount handles DELETE /api/accounts/{id}
func (h *AccountsHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.RemoveAccount(r.Context(), r.PathValue("id")); err != nil {
		writeLedgerError(w, h.log, err, "delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPrimary handles POST /api/accounts/{id}/primary
func (h *AccountsHandler) SetPrimary(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.SetPrimary(r.Context(), r.PathValue("id")); err != nil {
		writeLedgerError(w, h.log, err, "set primary account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
