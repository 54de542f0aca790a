package handlers

import (
	"bytes"
	"net/http"

	"github.com/dvloznov/finance-ledger/internal/api/middleware"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/dvloznov/finance-ledger/internal/snapshot"
	"github.com/rs/zerolog"
)

// maxCSVBytes bounds uploaded bank statements.
const maxCSVBytes = 10 << 20

// SummaryHandler serves the aggregate totals and the import/export surface.
type SummaryHandler struct {
	ledger *ledger.Ledger
	log    zerolog.Logger
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(l *ledger.Ledger, log zerolog.Logger) *SummaryHandler {
	return &SummaryHandler{ledger: l, log: log}
}

// GetSummary handles GET /api/summary
func (h *SummaryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.ledger.Summary())
}

// ImportCSV handles POST /api/accounts/{id}/import with a CSV statement body.
func (h *SummaryHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxCSVBytes)
	res, err := h.ledger.ImportCSV(r.Context(), body, r.PathValue("id"))
	if err != nil {
		writeLedgerError(w, h.log, err, "import CSV")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]int{
		"imported": res.Imported,
		"skipped":  res.Skipped,
	})
}

// ExportCSV handles GET /api/export/csv?account=
func (h *SummaryHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.ledger.ExportCSV(&buf, r.URL.Query().Get("account")); err != nil {
		writeLedgerError(w, h.log, err, "export CSV")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ExportJSON handles GET /api/export/json: the full-state bundle.
func (h *SummaryHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	data, err := snapshot.Encode(h.ledger.State())
	if err != nil {
		writeLedgerError(w, h.log, err, "export JSON")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
