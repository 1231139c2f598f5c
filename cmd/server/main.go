// Command server runs the payment gate: the webhook HTTP server and the
// Telegram bot loop, sharing one persisted state snapshot.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/vkoritsas/go-paygate-bot/internal/bot"
	"github.com/vkoritsas/go-paygate-bot/internal/config"
	httpapi "github.com/vkoritsas/go-paygate-bot/internal/http"
	"github.com/vkoritsas/go-paygate-bot/internal/observability"
	"github.com/vkoritsas/go-paygate-bot/internal/repo"
	"github.com/vkoritsas/go-paygate-bot/internal/services"
	"github.com/vkoritsas/go-paygate-bot/internal/state"
	"github.com/vkoritsas/go-paygate-bot/internal/sysutil"
	"github.com/vkoritsas/go-paygate-bot/internal/telegram"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if cfg.Telegram.BotToken == "" {
		log.Fatal().Msg("BOT_TOKEN is required")
	}
	if cfg.Telegram.AdminChatID == 0 {
		log.Fatal().Msg("ADMIN_CHAT_ID is required")
	}
	if cfg.WebhookSecret == "" {
		log.Warn().Msg("WEBHOOK_SECRET is empty; all webhook requests will be rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("data dir creation failed")
	}

	mgr := state.Open(cfg.StatePath())

	// The audit DB is best effort: the service runs without it.
	var auditDB *gorm.DB
	if db, err := repo.OpenSQLite(cfg.AuditDBPath()); err != nil {
		log.Warn().Err(err).Msg("audit db unavailable; webhook audit trail disabled")
	} else if err := repo.AutoMigrate(db); err != nil {
		log.Warn().Err(err).Msg("audit db migration failed; webhook audit trail disabled")
	} else {
		auditDB = db
	}

	client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.Timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram client init failed")
	}

	payments := services.NewPaymentService(mgr, client, cfg)
	admin := &services.AdminService{State: mgr, Messenger: client, Cfg: cfg, AuditDB: auditDB}
	gate := &services.Gatekeeper{State: mgr, Messenger: client, Cfg: cfg}

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	httpapi.RegisterRoutes(router, payments, auditDB, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go mgr.AutoSave(ctx, cfg.AutosaveInterval)

	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		b := bot.New(client, cfg, mgr, payments, admin, gate)
		b.Run(ctx, client.Updates(cfg.Telegram.PollTimeout))
	}()

	go func() {
		log.Info().Str("port", cfg.Port).Msg("webhook server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	client.Stop()
	<-botDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := otelShutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	if err := mgr.Flush(); err != nil {
		log.Error().Err(err).Msg("final state flush failed")
	}
	log.Info().Msg("bye")
}
