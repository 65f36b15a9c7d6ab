package handler

import "net/http"

type Handlers struct {
	Accounts *AccountHandler
	Queries  *QueryHandler
	Admin    *AdminHandler
	Health   *HealthHandler

	// AdminAuth wraps the admin routes when set.
	AdminAuth func(http.Handler) http.Handler
}

func (h Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health/live", h.Health.Liveness)
	mux.HandleFunc("GET /health/ready", h.Health.Readiness)

	mux.HandleFunc("POST /api/v1/accounts", h.Accounts.Open)
	mux.HandleFunc("POST /api/v1/accounts/{id}/deposits", h.Accounts.Deposit)
	mux.HandleFunc("POST /api/v1/accounts/{id}/withdrawals", h.Accounts.Withdraw)
	mux.HandleFunc("POST /api/v1/accounts/{id}/transfers", h.Accounts.Transfer)
	mux.HandleFunc("POST /api/v1/accounts/{id}/freeze", h.Accounts.Freeze)
	mux.HandleFunc("POST /api/v1/accounts/{id}/unfreeze", h.Accounts.Unfreeze)
	mux.HandleFunc("POST /api/v1/accounts/{id}/close", h.Accounts.Close)
	mux.HandleFunc("POST /api/v1/accounts/{id}/fees", h.Accounts.ChargeFee)
	mux.HandleFunc("POST /api/v1/accounts/{id}/interest", h.Accounts.AccrueInterest)

	mux.HandleFunc("GET /api/v1/accounts", h.Queries.AccountsByStatus)
	mux.HandleFunc("GET /api/v1/accounts/{id}", h.Queries.Summary)
	mux.HandleFunc("GET /api/v1/accounts/{id}/transactions", h.Queries.Transactions)
	mux.HandleFunc("GET /api/v1/accounts/{id}/events", h.Queries.Events)
	mux.HandleFunc("GET /api/v1/accounts/{id}/as-of", h.Queries.AsOf)
	mux.HandleFunc("GET /api/v1/customers/{id}/accounts", h.Queries.CustomerAccounts)

	var rebuild http.Handler = http.HandlerFunc(h.Admin.RebuildProjections)
	if h.AdminAuth != nil {
		rebuild = h.AdminAuth(rebuild)
	}
	mux.Handle("POST /api/v1/admin/projections/rebuild", rebuild)
}
