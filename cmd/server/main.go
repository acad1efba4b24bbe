package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	emailPkg "filmclub/internal/adapters/email"
	web "filmclub/internal/adapters/http"
	"filmclub/internal/adapters/http/perf"
	"filmclub/internal/adapters/omdb"
	"filmclub/internal/adapters/storage"
	accountStore "filmclub/internal/adapters/storage/account"
	ballotStore "filmclub/internal/adapters/storage/ballot"
	genreStore "filmclub/internal/adapters/storage/genre"
	nominationStore "filmclub/internal/adapters/storage/nomination"
	outboxStore "filmclub/internal/adapters/storage/outbox"
	weekStore "filmclub/internal/adapters/storage/week"
	"filmclub/internal/adapters/telegram"
	"filmclub/internal/application/orchestrators"
	"filmclub/internal/config"
)

var version = "dev"

func generateID() string {
	return uuid.New().String()
}

func main() {
	config.LoadDotEnv(".env")
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if !cfg.IsProduction() {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	dsn := cfg.DatabaseURL
	if cfg.DBDriver == "sqlite" && !strings.Contains(dsn, "?") {
		dsn = storage.SQLiteDSN(dsn)
	}
	db, dialect, err := storage.Open(cfg.DBDriver, dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	ctx := context.Background()
	if err := storage.InitDB(ctx, db, dialect); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	collector := perf.NewCollector(perf.DefaultCapacity)
	timedDB := storage.NewTimedDB(db, dialect, collector)

	stores := &web.Stores{
		AccountStore:    accountStore.NewSQLStore(timedDB),
		WeekStore:       weekStore.NewSQLStore(timedDB),
		NominationStore: nominationStore.NewSQLStore(timedDB),
		BallotStore:     ballotStore.NewSQLStore(timedDB),
		GenreStore:      genreStore.NewSQLStore(timedDB),
		OutboxStore:     outboxStore.NewSQLStore(timedDB),
	}

	seedDeps := orchestrators.CreateAccountDeps{AccountStore: stores.AccountStore, GenerateID: generateID, Now: time.Now}
	if err := orchestrators.ExecuteSeedAdmin(ctx, seedDeps, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	if err := orchestrators.ExecuteSeedGenres(ctx, orchestrators.SeedGenresDeps{GenreStore: stores.GenreStore, GenerateID: generateID}); err != nil {
		log.Fatalf("failed to seed genres: %v", err)
	}

	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom, cfg.ReplyTo)
		slog.Info("email_sender_configured", "provider", "resend")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("email_delivery_disabled", "hint", "set FILMCLUB_RESEND_KEY")
		}
	}

	var chat orchestrators.ChatPoster = telegram.NoopPoster{}
	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBotPoster(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatalf("failed to connect telegram bot: %v", err)
		}
		chat = bot
		slog.Info("chat_poster_configured", "provider", "telegram", "chat_id", cfg.TelegramChatID)
	}

	delivery := orchestrators.AnnounceDeps{
		AccountStore: stores.AccountStore,
		Email:        sender,
		Chat:         chat,
		OutboxStore:  stores.OutboxStore,
		GenerateID:   generateID,
		Now:          time.Now,
	}
	stopOutbox := orchestrators.StartOutboxRetryScheduler(ctx, orchestrators.OutboxRetryDeps{
		OutboxStore: stores.OutboxStore,
		Delivery:    delivery,
		Now:         time.Now,
	}, cfg.OutboxInterval)
	defer stopOutbox()

	handler, stopWeb, err := web.NewMux(stores, web.Options{
		StaticDir:  "static",
		Quorum:     cfg.Quorum,
		CSRFKey:    cfg.CSRFKey,
		Production: cfg.IsProduction(),
		Announcer:  orchestrators.OutboxAnnouncer{Deps: delivery},
		Films:      omdb.NewClient(cfg.OMDbKey, cfg.OMDbURL),
	}, collector)
	if err != nil {
		log.Fatalf("failed to build HTTP handler: %v", err)
	}
	defer stopWeb()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "db", cfg.DBDriver, "quorum", cfg.Quorum)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-sigCtx.Done()
	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_shutdown_failed", "error", err)
	}
}
