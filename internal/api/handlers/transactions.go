package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/finance-ledger/internal/api/middleware"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	ledger *ledger.Ledger
	log    zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(l *ledger.Ledger, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{ledger: l, log: log}
}

// transactionRequest is the writable part of a transaction. Dates may be
// given as plain days.
type transactionRequest struct {
	Date          string                 `json:"date"`
	Name          string                 `json:"name"`
	Amount        decimal.Decimal        `json:"amount"`
	Kind          domain.TransactionKind `json:"kind"`
	AccountID     *string                `json:"accountID,omitempty"`
	FromAccountID *string                `json:"fromAccountID,omitempty"`
	ToAccountID   *string                `json:"toAccountID,omitempty"`
	FromPotID     *string                `json:"fromPotID,omitempty"`
	ToPotID       *string                `json:"toPotID,omitempty"`
	Note          *string                `json:"note,omitempty"`
	CategoryID    *string                `json:"categoryID,omitempty"`
}

func (req transactionRequest) toDomain(id string) (domain.Transaction, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return domain.Transaction{}, err
	}
	return domain.Transaction{
		ID:            id,
		Date:          date,
		Name:          req.Name,
		Amount:        req.Amount,
		Kind:          req.Kind,
		AccountID:     req.AccountID,
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		FromPotID:     req.FromPotID,
		ToPotID:       req.ToPotID,
		Note:          req.Note,
		CategoryID:    req.CategoryID,
	}, nil
}

// ListTransactions handles GET /api/transactions
//
// Optional query parameters: account, start_date, end_date.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var txs []domain.Transaction
	if accountID := query.Get("account"); accountID != "" {
		txs = h.ledger.TransactionsForAccount(accountID)
	} else {
		txs = h.ledger.Transactions()
	}

	var startDate, endDate time.Time
	var err error
	if s := query.Get("start_date"); s != "" {
		if startDate, err = parseDate(s); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
	}
	if s := query.Get("end_date"); s != "" {
		if endDate, err = parseDate(s); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
	}

	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !startDate.IsZero() && tx.Date.Before(startDate) {
			continue
		}
		if !endDate.IsZero() && tx.Date.After(endDate.AddDate(0, 0, 1).Add(-time.Nanosecond)) {
			continue
		}
		out = append(out, tx)
	}

	middleware.WriteJSON(w, http.StatusOK, listResponse("transactions", out, len(out)))
}

// GetTransaction handles GET /api/transactions/{id}
func (h *TransactionsHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.ledger.Transaction(r.PathValue("id"))
	if err != nil {
		writeLedgerError(w, h.log, err, "get transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tx, err := req.toDomain("")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.ledger.InsertTransaction(r.Context(), tx)
	if err != nil {
		writeLedgerError(w, h.log, err, "create transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, created)
}

// UpdateTransaction handles PUT /api/transactions/{id}
//
// When the category changed, the response carries the number of older
// uncategorized transactions with the same name, so a client can offer
// ApplyCategory.
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tx, err := req.toDomain(r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.ledger.UpdateTransaction(r.Context(), tx)
	if err != nil {
		writeLedgerError(w, h.log, err, "update transaction")
		return
	}

	if stored, err := h.ledger.Transaction(tx.ID); err == nil {
		tx = stored
	}
	resp := map[string]interface{}{
		"transaction":        tx,
		"categoryChanged":    res.CategoryChanged,
		"previousCategoryID": res.PreviousCategoryID,
	}
	if res.CategoryChanged && tx.CategoryID != nil {
		resp["similarUncategorized"] = h.ledger.CountPastUncategorized(tx.Name, tx.Date)
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeLedgerError(w, h.log, err, "delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CountUncategorized handles GET /api/transactions/uncategorized?name=&before=
func (h *TransactionsHandler) CountUncategorized(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	before := time.Now()
	if s := r.URL.Query().Get("before"); s != "" {
		var err error
		if before, err = parseDate(s); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid before format")
			return
		}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]int{
		"count": h.ledger.CountPastUncategorized(name, before),
	})
}

// ApplyCategory handles POST /api/transactions/apply-category
func (h *TransactionsHandler) ApplyCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CategoryID string `json:"categoryID"`
		Name       string `json:"name"`
		Before     string `json:"before"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CategoryID == "" || strings.TrimSpace(req.Name) == "" || req.Before == "" {
		middleware.WriteError(w, http.StatusBadRequest, "categoryID, name and before are required")
		return
	}
	before, err := parseDate(req.Before)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := h.ledger.ApplyCategory(r.Context(), req.CategoryID, req.Name, before)
	if err != nil {
		writeLedgerError(w, h.log, err, "apply category")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]int{"updated": n})
}
