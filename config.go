package botkit

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// tokenPattern matches the Telegram bot token format: <digits>:<alphanum+dash>.
var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// Update receiving modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Config holds the configuration for the bot.
type Config struct {
	// Token is the bot token from @BotFather.
	Token string

	// APIURL is the Bot API server base URL.
	// Defaults to "https://api.telegram.org" if empty.
	APIURL string

	// StateDir is the directory for small state files (synced command scopes).
	// Defaults to "./botkit-state" if empty.
	StateDir string

	// Logger is the logger to use. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Verbose enables debug logging for the HTTP transport.
	Verbose bool

	// RequestTimeout bounds a single HTTP request to the Bot API.
	// Defaults to 60s if zero. Long polling adds its own timeout on top.
	RequestTimeout time.Duration

	// MaxRetries is the number of retries for transient network failures.
	// Defaults to 3 if zero. Negative disables retries.
	MaxRetries int

	// MaxFloodWait is the longest retry_after the client sleeps through
	// on its own. Longer waits are returned to the caller.
	// Defaults to 60s if zero.
	MaxFloodWait time.Duration

	// Defaults are applied to outgoing requests that leave the field empty.
	Defaults *Defaults

	// Mode selects how updates are received: "polling" or "webhook".
	// Defaults to "polling" if empty.
	Mode string

	// Polling configures getUpdates long polling.
	Polling PollingConfig

	// Webhook configures the webhook server.
	Webhook WebhookConfig

	// Workers is the number of goroutines processing updates.
	// Defaults to 1, which keeps updates strictly ordered.
	Workers int

	// AlbumTimeout is the duration to wait for grouped messages.
	// Defaults to 500ms if zero.
	AlbumTimeout time.Duration

	// SyncCommands automatically syncs commands to Telegram after OnReady.
	// Commands registered in OnReady will be included.
	SyncCommands bool

	// BotInfo is the bot profile information to set on startup.
	BotInfo *BotInfo

	// Persistence stores user, chat and bot data and conversation states.
	// If nil, data lives in memory for the lifetime of the process.
	Persistence Persistence

	// MessageQueue enables rate-limited sending through Context.Queued.
	MessageQueue *MessageQueueConfig

	// Registerer receives the bot's Prometheus collectors. Nil skips registration.
	Registerer prometheus.Registerer

	// TracerProvider creates the tracer for API calls.
	// Defaults to the global otel provider.
	TracerProvider trace.TracerProvider
}

// PollingConfig holds getUpdates parameters.
type PollingConfig struct {
	// Timeout is the long polling timeout in seconds. Defaults to 30.
	Timeout int

	// Limit caps the number of updates per request (1-100). Zero means server default.
	Limit int

	// AllowedUpdates restricts the update kinds Telegram delivers.
	AllowedUpdates []string

	// DropPendingUpdates discards updates queued before the bot started.
	DropPendingUpdates bool
}

// WebhookConfig holds webhook server parameters.
type WebhookConfig struct {
	// ListenAddr is the local address to serve on. Defaults to ":8443".
	ListenAddr string

	// Path is the route updates are posted to. Defaults to "/webhook".
	Path string

	// URL is the public HTTPS URL registered with setWebhook.
	// Leave empty to manage the webhook registration yourself.
	URL string

	// SecretToken is sent by Telegram in X-Telegram-Bot-Api-Secret-Token.
	SecretToken string

	// MaxConnections is forwarded to setWebhook (1-100).
	MaxConnections int

	// AllowedUpdates restricts the update kinds Telegram delivers.
	AllowedUpdates []string

	// DropPendingUpdates discards updates queued before the webhook was set.
	DropPendingUpdates bool

	// ShutdownTimeout bounds the graceful shutdown of the server.
	// Defaults to 5s.
	ShutdownTimeout time.Duration

	// MetricsPath mounts the Prometheus handler on the webhook server when set.
	MetricsPath string
}

func (c *Config) setDefaults() {
	if c.APIURL == "" {
		c.APIURL = "https://api.telegram.org"
	}
	if c.StateDir == "" {
		c.StateDir = "./botkit-state"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 60 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.MaxFloodWait == 0 {
		c.MaxFloodWait = 60 * time.Second
	}
	if c.Mode == "" {
		c.Mode = ModePolling
	}
	if c.Polling.Timeout == 0 {
		c.Polling.Timeout = 30
	}
	if c.Webhook.ListenAddr == "" {
		c.Webhook.ListenAddr = ":8443"
	}
	if c.Webhook.Path == "" {
		c.Webhook.Path = "/webhook"
	}
	if c.Webhook.ShutdownTimeout <= 0 {
		c.Webhook.ShutdownTimeout = 5 * time.Second
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.AlbumTimeout == 0 {
		c.AlbumTimeout = 500 * time.Millisecond
	}
}

func (c *Config) validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if !tokenPattern.MatchString(c.Token) {
		return ErrInvalidToken
	}
	if c.Mode != ModePolling && c.Mode != ModeWebhook {
		return ErrInvalidMode
	}
	if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("botkit: api url must be a valid http/https URL, got %q", c.APIURL)
	}
	return nil
}

// zapLogger creates a zap logger matching the Verbose setting.
func (c *Config) zapLogger() *zap.Logger {
	var level zapcore.Level
	if c.Verbose {
		level = zapcore.DebugLevel
	} else {
		level = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			MessageKey:     "msg",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger.Named("botkit.http")
}
