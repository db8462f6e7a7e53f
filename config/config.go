package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Environment
	IsProd bool `json:"is_prod"`

	// Backend read endpoints
	Monitor MonitorConfig `json:"monitor"`

	// Push channel
	Push PushConfig `json:"push"`

	// Rendering and timers
	Dashboard DashboardConfig `json:"dashboard"`

	// Terminal display
	Terminal TerminalConfig `json:"terminal"`

	// Local status server
	StatusServer StatusServerConfig `json:"status_server"`

	// Metrics
	Metrics MetricsConfig `json:"metrics"`

	// Notice relay
	Discord  DiscordConfig  `json:"discord"`
	Telegram TelegramConfig `json:"telegram"`

	// Logging
	Log LogConfig `json:"log"`
}

// MonitorConfig holds the backend HTTP configuration.
type MonitorConfig struct {
	BaseURL        string        `json:"base_url"`
	RequestTimeout time.Duration `json:"request_timeout"` // 0 = no timeout
}

// PushConfig holds the Socket.IO push channel configuration.
type PushConfig struct {
	Path              string        `json:"path"`
	HandshakeTimeout  time.Duration `json:"handshake_timeout"`
	ReconnectDelay    time.Duration `json:"reconnect_delay"`
	MaxReconnectDelay time.Duration `json:"max_reconnect_delay"`
}

// DashboardConfig holds renderer and timer configuration.
type DashboardConfig struct {
	TickInterval     time.Duration `json:"tick_interval"`
	ErrorBannerTTL   time.Duration `json:"error_banner_ttl"`
	SuccessBannerTTL time.Duration `json:"success_banner_ttl"`
	TimeLayout       string        `json:"time_layout"` // absolute last-check time
	DateLayout       string        `json:"date_layout"` // token posted_at
	Timezone         string        `json:"timezone"`
}

// TerminalConfig holds terminal painter configuration.
type TerminalConfig struct {
	Enabled  bool          `json:"enabled"`
	Width    int           `json:"width"`
	Refresh  time.Duration `json:"refresh"`
	Commands bool          `json:"commands"` // read refresh commands from stdin
}

// StatusServerConfig holds local status server configuration.
type StatusServerConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

// MetricsConfig holds Prometheus configuration.
type MetricsConfig struct {
	Namespace string `json:"namespace"`
}

// DiscordConfig holds Discord-related configuration.
type DiscordConfig struct {
	BotToken      string `json:"-"` // Excluded - env var only
	ProdChannelID string `json:"prod_channel_id"`
	BetaChannelID string `json:"beta_channel_id"`
}

// TelegramConfig holds Telegram-related configuration.
type TelegramConfig struct {
	BotToken   string `json:"-"` // Excluded - env var only
	ProdChatID string `json:"prod_chat_id"`
	BetaChatID string `json:"beta_chat_id"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"` // empty = stderr
}

// Clone creates a copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// ToJSON serializes the config to JSON.
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Location resolves the dashboard timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	tz := strings.TrimSpace(c.Dashboard.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Local
	}
	return loc
}

// Defaults returns a config with hardcoded default values.
func Defaults() *Config {
	return &Config{
		IsProd: false,
		Monitor: MonitorConfig{
			BaseURL: "http://localhost:5000",
		},
		Push: PushConfig{
			Path:              "/socket.io/",
			HandshakeTimeout:  20 * time.Second,
			ReconnectDelay:    1 * time.Second,
			MaxReconnectDelay: 5 * time.Second,
		},
		Dashboard: DashboardConfig{
			TickInterval:     1 * time.Second,
			ErrorBannerTTL:   5 * time.Second,
			SuccessBannerTTL: 3 * time.Second,
			TimeLayout:       "3:04:05 PM",
			DateLayout:       "1/2/2006 3:04:05 PM",
			Timezone:         "Local",
		},
		Terminal: TerminalConfig{
			Enabled:  true,
			Width:    100,
			Refresh:  250 * time.Millisecond,
			Commands: true,
		},
		StatusServer: StatusServerConfig{
			Enabled: true,
			Port:    8090,
		},
		Metrics: MetricsConfig{
			Namespace: "tokendash",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadDotEnv loads the given .env files (default ".env") into the process
// environment. Existing variables win and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	d := Defaults()
	return &Config{
		IsProd: envBool("STAGE", "PROD"),

		Monitor: MonitorConfig{
			BaseURL:        strings.TrimRight(envString("MONITOR_BASE_URL", d.Monitor.BaseURL), "/"),
			RequestTimeout: envDuration("MONITOR_REQUEST_TIMEOUT", d.Monitor.RequestTimeout),
		},

		Push: PushConfig{
			Path:              envString("PUSH_PATH", d.Push.Path),
			HandshakeTimeout:  envDuration("PUSH_HANDSHAKE_TIMEOUT", d.Push.HandshakeTimeout),
			ReconnectDelay:    envDuration("PUSH_RECONNECT_DELAY", d.Push.ReconnectDelay),
			MaxReconnectDelay: envDuration("PUSH_MAX_RECONNECT_DELAY", d.Push.MaxReconnectDelay),
		},

		Dashboard: DashboardConfig{
			TickInterval:     envDuration("DASHBOARD_TICK_INTERVAL", d.Dashboard.TickInterval),
			ErrorBannerTTL:   envDuration("ERROR_BANNER_TTL", d.Dashboard.ErrorBannerTTL),
			SuccessBannerTTL: envDuration("SUCCESS_BANNER_TTL", d.Dashboard.SuccessBannerTTL),
			TimeLayout:       envString("DASHBOARD_TIME_LAYOUT", d.Dashboard.TimeLayout),
			DateLayout:       envString("DASHBOARD_DATE_LAYOUT", d.Dashboard.DateLayout),
			Timezone:         envString("DASHBOARD_TIMEZONE", d.Dashboard.Timezone),
		},

		Terminal: TerminalConfig{
			Enabled:  envBoolDefault("TERMINAL_ENABLED", d.Terminal.Enabled),
			Width:    envInt("TERMINAL_WIDTH", d.Terminal.Width),
			Refresh:  envDuration("TERMINAL_REFRESH", d.Terminal.Refresh),
			Commands: envBoolDefault("TERMINAL_COMMANDS", d.Terminal.Commands),
		},

		StatusServer: StatusServerConfig{
			Enabled: envBoolDefault("STATUS_SERVER_ENABLED", d.StatusServer.Enabled),
			Port:    envInt("STATUS_SERVER_PORT", d.StatusServer.Port),
		},

		Metrics: MetricsConfig{
			Namespace: envString("METRICS_NAMESPACE", d.Metrics.Namespace),
		},

		Discord: DiscordConfig{
			BotToken:      envString("DISCORD_BOT_TOKEN", ""),
			ProdChannelID: envString("DISCORD_PROD_CHANNEL_ID", ""),
			BetaChannelID: envString("DISCORD_BETA_CHANNEL_ID", ""),
		},

		Telegram: TelegramConfig{
			BotToken:   envString("TELEGRAM_BOT_KEY", ""),
			ProdChatID: envString("TELEGRAM_PROD_CHAT_ID", ""),
			BetaChatID: envString("TELEGRAM_BETA_CHAT_ID", ""),
		},

		Log: LogConfig{
			Level: envString("LOG_LEVEL", d.Log.Level),
			File:  envString("LOG_FILE", ""),
		},
	}
}

// Helper functions for parsing environment variables

func envString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func envBool(key, trueValue string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), trueValue)
}

func envBoolDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "1") || strings.EqualFold(v, "yes")
}
