package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"

	"filmclub/internal/adapters/http/middleware"
	"filmclub/internal/application/orchestrators"
	"filmclub/internal/domain/account"
	"filmclub/internal/domain/ballot"
	"filmclub/internal/domain/genre"
	"filmclub/internal/domain/nomination"
	"filmclub/internal/domain/week"
)

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps a domain or orchestrator error to its HTTP status and a
// stable machine-readable code. Unknown errors map to 500.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, week.ErrPhaseMismatch):
		return http.StatusConflict, "phase_mismatch"
	case errors.Is(err, nomination.ErrDuplicateNomination):
		return http.StatusConflict, "duplicate_nomination"
	case errors.Is(err, ballot.ErrDuplicateBallot):
		return http.StatusConflict, "duplicate_ballot"
	case errors.Is(err, orchestrators.ErrEmailAlreadyExists):
		return http.StatusConflict, "email_taken"
	case errors.Is(err, week.ErrQuorumNotMet):
		return http.StatusUnprocessableEntity, "quorum_not_met"
	case errors.Is(err, ballot.ErrInvalidRanking):
		return http.StatusBadRequest, "invalid_ranking"
	case errors.Is(err, orchestrators.ErrInvalidInput), errors.Is(err, week.ErrInvalidDate):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, week.ErrNotFound), errors.Is(err, nomination.ErrNotFound),
		errors.Is(err, genre.ErrNotFound), errors.Is(err, account.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, nomination.ErrNotNominator):
		return http.StatusForbidden, "not_nominator"
	case errors.Is(err, orchestrators.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, orchestrators.ErrAccountLocked):
		return http.StatusLocked, "account_locked"
	}
	return http.StatusInternalServerError, "internal"
}

// writeError reports err to the client. 5xx errors are logged and replaced
// with a generic body.
func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("internal_error", "error", err.Error())
		writeJSON(w, status, errorBody{Error: "internal server error", Code: code})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

// badRequest reports a malformed request body.
func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request: " + err.Error(), Code: "bad_request"})
}

// pathDate reads and normalizes the {date} path value.
func pathDate(r *http.Request) (string, error) {
	return week.ParseDate(r.PathValue("date"))
}

// currentSession returns the caller's session; routes guarded by
// RequireAuth always have one.
func currentSession(r *http.Request) middleware.Session {
	s, _ := middleware.GetSessionFromContext(r.Context())
	return s
}

// handleHealth reports liveness.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	AccountID     string `json:"accountId,omitempty"`
	Email         string `json:"email,omitempty"`
	DisplayName   string `json:"displayName,omitempty"`
	Role          string `json:"role,omitempty"`
	CSRFToken     string `json:"csrfToken,omitempty"`
}

// handleLogin authenticates a JSON or form body and starts a session.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := strictDecode(r, &req); err != nil {
			badRequest(w, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			badRequest(w, err)
			return
		}
		req = loginRequest{Email: r.FormValue("email"), Password: r.FormValue("password")}
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, orchestrators.LoginDeps{AccountStore: stores.AccountStore, Now: timeNow})
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := sessions.Create(result.AccountID, result.Email, result.DisplayName, result.Role)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)
	writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		AccountID:     result.AccountID,
		Email:         result.Email,
		DisplayName:   result.DisplayName,
		Role:          result.Role,
	})
}

// handleLogout ends the caller's session.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		sessions.Delete(token)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleSession describes the caller and issues a CSRF token for form posts.
func handleSession(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{CSRFToken: csrf.Token(r)}
	if s, ok := middleware.GetSessionFromContext(r.Context()); ok {
		resp.Authenticated = true
		resp.AccountID = s.AccountID
		resp.Email = s.Email
		resp.DisplayName = s.DisplayName
		resp.Role = s.Role
	}
	writeJSON(w, http.StatusOK, resp)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// handleChangePassword replaces the caller's password.
func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := strictDecode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		AccountID:       currentSession(r).AccountID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}, orchestrators.ChangePasswordDeps{AccountStore: stores.AccountStore})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
