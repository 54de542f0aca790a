package handlers

import (
	"net/http"
	"strings"

	"github.com/dvloznov/finance-ledger/internal/api/middleware"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/rs/zerolog"
)

// CategoriesHandler handles category-related endpoints.
type CategoriesHandler struct {
	ledger *ledger.Ledger
	log    zerolog.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(l *ledger.Ledger, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{ledger: l, log: log}
}

// ListCategories handles GET /api/categories
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.ledger.Categories()
	middleware.WriteJSON(w, http.StatusOK, listResponse("categories", categories, len(categories)))
}

// CreateCategory handles POST /api/categories
func (h *CategoriesHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req domain.Category
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.ledger.AddCategory(r.Context(), req)
	if err != nil {
		writeLedgerError(w, h.log, err, "create category")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, c)
}

// UpdateCategory handles PUT /api/categories/{id}
func (h *CategoriesHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req domain.Category
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = r.PathValue("id")
	c, err := h.ledger.UpdateCategory(r.Context(), req)
	if err != nil {
		writeLedgerError(w, h.log, err, "update category")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, c)
}

// DeleteCategory handles DELETE /api/categories/{id}
func (h *CategoriesHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.RemoveCategory(r.Context(), r.PathValue("id")); err != nil {
		writeLedgerError(w, h.log, err, "delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SuggestCategory handles GET /api/categories/suggest?name=
func (h *CategoriesHandler) SuggestCategory(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	id, ok := h.ledger.SuggestedCategoryID(name)
	resp := map[string]interface{}{"found": ok}
	if ok {
		resp["categoryID"] = id
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}
