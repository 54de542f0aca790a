package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/finance-ledger/internal/api/middleware"
	"github.com/dvloznov/finance-ledger/internal/jobs"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/rs/zerolog"
)

// NewRouter registers every API route on a fresh ServeMux. store may be nil
// when persistence jobs are not tracked.
func NewRouter(l *ledger.Ledger, store jobs.JobStore, log zerolog.Logger) *http.ServeMux {
	accounts := NewAccountsHandler(l, log)
	transactions := NewTransactionsHandler(l, log)
	pots := NewPotsHandler(l, log)
	categories := NewCategoriesHandler(l, log)
	debts := NewDebtsHandler(l, log)
	summary := NewSummaryHandler(l, log)

	mux := http.NewServeMux()

	// Accounts endpoints
	mux.HandleFunc("GET /api/accounts", accounts.ListAccounts)
	mux.HandleFunc("POST /api/accounts", accounts.CreateAccount)
	mux.HandleFunc("GET /api/accounts/{id}", accounts.GetAccount)
	mux.HandleFunc("PUT /api/accounts/{id}", accounts.UpdateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", accounts.DeleteAccount)
	mux.HandleFunc("POST /api/accounts/{id}/primary", accounts.SetPrimary)
	mux.HandleFunc("POST /api/accounts/{id}/import", summary.ImportCSV)

	// Transactions endpoints
	mux.HandleFunc("GET /api/transactions", transactions.ListTransactions)
	mux.HandleFunc("POST /api/transactions", transactions.CreateTransaction)
	mux.HandleFunc("GET /api/transactions/uncategorized", transactions.CountUncategorized)
	mux.HandleFunc("POST /api/transactions/apply-category", transactions.ApplyCategory)
	mux.HandleFunc("GET /api/transactions/{id}", transactions.GetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", transactions.UpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", transactions.DeleteTransaction)

	// Pots endpoints
	mux.HandleFunc("GET /api/pots", pots.ListPots)
	mux.HandleFunc("POST /api/pots", pots.CreatePot)
	mux.HandleFunc("PUT /api/pots/{id}", pots.UpdatePot)
	mux.HandleFunc("DELETE /api/pots/{id}", pots.DeletePot)
	mux.HandleFunc("POST /api/pots/{id}/deposit", pots.Deposit)
	mux.HandleFunc("POST /api/pots/{id}/withdraw", pots.Withdraw)

	// Categories endpoints
	mux.HandleFunc("GET /api/categories", categories.ListCategories)
	mux.HandleFunc("POST /api/categories", categories.CreateCategory)
	mux.HandleFunc("GET /api/categories/suggest", categories.SuggestCategory)
	mux.HandleFunc("PUT /api/categories/{id}", categories.UpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", categories.DeleteCategory)

	// Debts and investments endpoints
	mux.HandleFunc("GET /api/debts", debts.ListDebts)
	mux.HandleFunc("POST /api/debts", debts.CreateDebt)
	mux.HandleFunc("PUT /api/debts/{id}", debts.UpdateDebt)
	mux.HandleFunc("POST /api/debts/{id}/settle", debts.SettleDebt)
	mux.HandleFunc("DELETE /api/debts/{id}", debts.DeleteDebt)
	mux.HandleFunc("GET /api/investments", debts.ListInvestments)
	mux.HandleFunc("POST /api/investments", debts.CreateInvestment)
	mux.HandleFunc("PUT /api/investments/{id}", debts.UpdateInvestment)
	mux.HandleFunc("DELETE /api/investments/{id}", debts.DeleteInvestment)

	// Totals and import/export
	mux.HandleFunc("GET /api/summary", summary.GetSummary)
	mux.HandleFunc("GET /api/export/csv", summary.ExportCSV)
	mux.HandleFunc("GET /api/export/json", summary.ExportJSON)

	// Jobs endpoints
	if store != nil {
		jobsHandler := NewJobsHandler(store, log)
		mux.HandleFunc("GET /api/jobs", jobsHandler.ListJobs)
		mux.HandleFunc("GET /api/jobs/{id}", jobsHandler.GetJob)
	}

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return mux
}
