package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	outboxStore "filmclub/internal/adapters/storage/outbox"
	"filmclub/internal/application/orchestrators"
	"filmclub/internal/domain/outbox"
)

// handleAdminPerf reports request and query timings.
// Query: window (Go duration, default 15m), top (default 10).
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}
	window := 15 * time.Minute
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeError(w, orchestrators.ErrInvalidInput)
			return
		}
		window = d
	}
	top := 10
	if v := r.URL.Query().Get("top"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			top = n
		}
	}
	writeJSON(w, http.StatusOK, perfCollector.Report(timeNow().Add(-window), top))
}

type accountView struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	Locked      bool      `json:"locked"`
	CreatedAt   time.Time `json:"createdAt"`
}

// handleListAccounts lists club accounts.
func handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := stores.AccountStore.List(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	now := timeNow()
	out := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountView{
			ID:          a.ID,
			Email:       a.Email,
			DisplayName: a.DisplayName,
			Role:        a.Role,
			Locked:      a.IsLocked(now),
			CreatedAt:   a.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type createAccountRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

// handleCreateAccount adds a club member or admin.
func handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := strictDecode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	id, err := orchestrators.ExecuteCreateAccount(r.Context(), orchestrators.CreateAccountInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		Role:        req.Role,
	}, orchestrators.CreateAccountDeps{
		AccountStore: stores.AccountStore,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type outboxView struct {
	ID              string    `json:"id"`
	ActionType      string    `json:"actionType"`
	Status          string    `json:"status"`
	Attempts        int       `json:"attempts"`
	MaxAttempts     int       `json:"maxAttempts"`
	LastAttemptedAt time.Time `json:"lastAttemptedAt"`
	CreatedAt       time.Time `json:"createdAt"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
}

// handleAdminOutboxList lists announcement deliveries.
// Query: status=failed (default) or status=pending for entries still retrying.
func handleAdminOutboxList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	var entries []outbox.Entry
	var err error
	switch r.URL.Query().Get("status") {
	case "", outbox.StatusFailed:
		entries, err = stores.OutboxStore.ListFailed(r.Context(), limit)
	case outbox.StatusPending:
		entries, err = stores.OutboxStore.ListRetryable(r.Context(), limit)
	default:
		writeError(w, orchestrators.ErrInvalidInput)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	out := make([]outboxView, 0, len(entries))
	for _, e := range entries {
		out = append(out, outboxView{
			ID:              e.ID,
			ActionType:      e.ActionType,
			Status:          e.Status,
			Attempts:        e.Attempts,
			MaxAttempts:     e.MaxAttempts,
			LastAttemptedAt: e.LastAttemptedAt,
			CreatedAt:       e.CreatedAt,
			ErrorMessage:    e.ErrorMessage,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAdminOutboxAbandon stops retrying an entry.
func handleAdminOutboxAbandon(w http.ResponseWriter, r *http.Request) {
	err := orchestrators.ExecuteAbandonOutboxEntry(r.Context(), r.PathValue("id"), stores.OutboxStore)
	switch {
	case errors.Is(err, outboxStore.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error(), Code: "not_found"})
	case err != nil:
		writeError(w, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
