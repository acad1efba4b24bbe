package web

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"filmclub/internal/adapters/http/middleware"
	"filmclub/internal/adapters/http/perf"
	accountStore "filmclub/internal/adapters/storage/account"
	ballotStore "filmclub/internal/adapters/storage/ballot"
	genreStore "filmclub/internal/adapters/storage/genre"
	nominationStore "filmclub/internal/adapters/storage/nomination"
	outboxStore "filmclub/internal/adapters/storage/outbox"
	weekStore "filmclub/internal/adapters/storage/week"
	"filmclub/internal/application/orchestrators"
	domainAccount "filmclub/internal/domain/account"
	"filmclub/internal/domain/week"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore    accountStore.Store
	WeekStore       weekStore.Store
	NominationStore nominationStore.Store
	BallotStore     ballotStore.Store
	GenreStore      genreStore.Store
	OutboxStore     outboxStore.Store
}

// Options configures the HTTP surface.
type Options struct {
	StaticDir      string // served at / when set
	Quorum         int
	CSRFKey        string // hex, 32 bytes; random per process when empty
	Production     bool
	TrustedOrigins []string
	Announcer      orchestrators.Announcer // optional
	Films          orchestrators.FilmLookup
}

// ErrBadCSRFKey is returned when the configured CSRF key is malformed.
var ErrBadCSRFKey = errors.New("FILMCLUB_CSRF_KEY must be 64 hex characters (32 bytes)")

// loadCSRFKey decodes the configured CSRF secret, generating a random one
// for development when none is set.
func loadCSRFKey(keyHex string) ([]byte, error) {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, ErrBadCSRFKey
		}
		return key, nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	slog.Warn("csrf_key_random", "hint", "sessions and form tokens reset on restart; set FILMCLUB_CSRF_KEY")
	return key, nil
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// Global options (set by NewMux)
var options Options

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// timeNow is a variable for testability.
var timeNow = time.Now

// NewMux wires HTTP handlers for the app. The returned stop halts the
// session sweeper and rate-limiter eviction.
func NewMux(s *Stores, opts Options, collector *perf.Collector) (http.Handler, func(), error) {
	csrfKey, err := loadCSRFKey(opts.CSRFKey)
	if err != nil {
		return nil, nil, err
	}
	if opts.Quorum <= 0 {
		opts.Quorum = week.DefaultQuorum
	}
	stores = s
	options = opts
	perfCollector = collector
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = opts.Production

	mux := http.NewServeMux()
	if opts.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(opts.StaticDir)))
	}
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)
	stopSweep := sessions.StartSweeper(10 * time.Minute)
	stopEvict := limiter.StartEviction(time.Minute)
	stop := func() {
		stopSweep()
		stopEvict()
	}

	origins := opts.TrustedOrigins
	if len(origins) == 0 && !opts.Production {
		origins = []string{"localhost:8080", "127.0.0.1:8080"}
	}

	// Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, opts.Production, origins),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(collector),
	), stop, nil
}

// registerRoutes maps the API surface onto mux.
func registerRoutes(mux *http.ServeMux) {
	member := middleware.RequireAuth
	admin := middleware.RequireRole(domainAccount.RoleAdmin)

	route := func(pattern string, h http.HandlerFunc, guards ...func(http.Handler) http.Handler) {
		var handler http.Handler = h
		for _, g := range guards {
			handler = g(handler)
		}
		mux.Handle(pattern, middleware.Route(handler))
	}

	route("GET /health", handleHealth)
	route("POST /login", handleLogin)
	route("POST /logout", handleLogout)
	route("GET /api/session", handleSession)
	route("POST /api/account/password", handleChangePassword, member)

	route("GET /api/genres", handleListGenres, member)
	route("GET /api/weeks/{date}", handleWeekOverview, member)
	route("POST /api/weeks/{date}/genre", handleSetGenre, admin)
	route("POST /api/weeks/{date}/nominations", handleProposeNomination, member)
	route("DELETE /api/nominations/{id}", handleRetractNomination, member)
	route("POST /api/weeks/{date}/voting", handleOpenVoting, admin)
	route("POST /api/weeks/{date}/ballots", handleSubmitBallot, member)
	route("POST /api/weeks/{date}/results", handleCalculateResults, admin)
	route("GET /api/weeks/{date}/results", handleWeekResults, member)
	route("GET /api/history", handleHistory, member)

	route("GET /api/admin/perf", handleAdminPerf, admin)
	route("GET /api/admin/accounts", handleListAccounts, admin)
	route("POST /api/admin/accounts", handleCreateAccount, admin)
	route("GET /api/admin/outbox", handleAdminOutboxList, admin)
	route("POST /api/admin/outbox/{id}/abandon", handleAdminOutboxAbandon, admin)
}
