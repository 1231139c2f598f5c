// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes settings for the
// webhook HTTP server, the Telegram bot, the payment gateway secret, state
// persistence, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// TelegramConfig groups bot credentials and the compiled-in channel defaults.
// Channel identifiers may later be overridden by the persisted config overlay
// through admin commands; zero means "not configured".
type TelegramConfig struct {
	BotToken      string        // BOT_TOKEN
	AdminChatID   int64         // ADMIN_CHAT_ID: the only identity allowed to approve/decline
	VIPChannelID  int64         // VIP_CHANNEL_ID
	DarkChannelID int64         // DARK_CHANNEL_ID
	HelpContact   string        // HELP_CONTACT shown on declines and the help screen
	Timeout       time.Duration // TELEGRAM_TIMEOUT bound on outbound API calls
	PollTimeout   int           // POLL_TIMEOUT_SECONDS for long polling
}

// PaymentConfig holds compiled-in defaults for the payment display strings.
// The persisted overlay takes precedence once an admin has changed them.
type PaymentConfig struct {
	UPIID         string // UPI_ID
	UPIQRURL      string // UPI_QR_URL
	CryptoAddress string // CRYPTO_ADDRESS
	CryptoNetwork string // CRYPTO_NETWORK
	RemitlyInfo   string // REMITLY_INFO
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool

	// Gateway
	WebhookSecret string // WEBHOOK_SECRET: HMAC key for inbound webhook bodies

	// Persistence
	DataDir          string        // directory holding the snapshot and audit DB
	AutosaveInterval time.Duration // periodic flush safety net

	// Rate limiting (webhook endpoint)
	RateRPS   float64
	RateBurst int

	Telegram TelegramConfig
	Payment  PaymentConfig
	OTEL     OTELConfig
}

// StatePath returns the snapshot file location inside DataDir.
func (c Config) StatePath() string { return filepath.Join(c.DataDir, "paymentbot.json") }

// AuditDBPath returns the SQLite audit database location inside DataDir.
func (c Config) AuditDBPath() string { return filepath.Join(c.DataDir, "audit.db") }

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		WebhookSecret: getenv("WEBHOOK_SECRET", ""),

		DataDir:          getenv("DATA_DIR", "data"),
		AutosaveInterval: getdur("AUTOSAVE_INTERVAL", time.Minute),

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		Telegram: TelegramConfig{
			BotToken:      getenv("BOT_TOKEN", ""),
			AdminChatID:   getint64("ADMIN_CHAT_ID", 0),
			VIPChannelID:  getint64("VIP_CHANNEL_ID", 0),
			DarkChannelID: getint64("DARK_CHANNEL_ID", 0),
			HelpContact:   getenv("HELP_CONTACT", "@support"),
			Timeout:       getdur("TELEGRAM_TIMEOUT", 8*time.Second),
			PollTimeout:   getint("POLL_TIMEOUT_SECONDS", 50),
		},
		Payment: PaymentConfig{
			UPIID:         getenv("UPI_ID", ""),
			UPIQRURL:      getenv("UPI_QR_URL", ""),
			CryptoAddress: getenv("CRYPTO_ADDRESS", ""),
			CryptoNetwork: getenv("CRYPTO_NETWORK", "BEP20"),
			RemitlyInfo:   getenv("REMITLY_INFO", ""),
		},
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-paygate-bot"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return cfg, errors.New("DATA_DIR must not be empty")
	}
	if cfg.AutosaveInterval <= 0 {
		return cfg, errors.New("AUTOSAVE_INTERVAL must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Telegram.Timeout <= 0 || cfg.Telegram.Timeout > 30*time.Second {
		return cfg, errors.New("TELEGRAM_TIMEOUT must be in (0s, 30s]")
	}
	if cfg.Telegram.PollTimeout < 1 {
		return cfg, errors.New("POLL_TIMEOUT_SECONDS must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// IsAdmin reports whether the given chat id is the configured admin identity.
// A zero AdminChatID matches nobody: authorization fails closed.
func (c Config) IsAdmin(chatID int64) bool {
	return c.Telegram.AdminChatID != 0 && chatID == c.Telegram.AdminChatID
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
