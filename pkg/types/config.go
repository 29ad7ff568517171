package types

import "time"

// HTTPConfig holds shared HTTP settings used by clients that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "HistoricalTruthFinder/1.0").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// StoreConfig holds settings for the local SQLite store.
type StoreConfig struct {
	// Path is the SQLite database file (default "searches.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// BusyTimeout is how long SQLite waits on a locked database.
	BusyTimeout time.Duration `json:"busy_timeout" yaml:"busy_timeout" mapstructure:"busy_timeout"`
}

// PolicyConfig holds the usage-gating parameters.
type PolicyConfig struct {
	// FreeDailyCap is the number of searches a free identity may run per window (default 5).
	FreeDailyCap int `json:"free_daily_cap" yaml:"free_daily_cap" mapstructure:"free_daily_cap"`

	// Window is the trailing window the cap applies to (default 24h).
	Window time.Duration `json:"window" yaml:"window" mapstructure:"window"`

	// PremiumDuration is the length of a premium grant (default 30 days).
	PremiumDuration time.Duration `json:"premium_duration" yaml:"premium_duration" mapstructure:"premium_duration"`
}

// SearchConfig holds settings for the archive search client.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the advanced search URL (default archive.org advancedsearch.php).
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// RequestsPerSecond paces outbound calls to the archive (default 1).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// Burst is the pacing burst size (default 2).
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`
}

// AnalysisConfig holds settings for the sentiment inference client.
type AnalysisConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the inference model URL.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// Token is an optional bearer token for the inference API.
	Token string `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`
}

// PaymentConfig holds settings for the subscription checkout.
type PaymentConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the payment API base URL (default "https://api.stripe.com").
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// SecretKey authenticates against the payment provider. Empty disables checkout.
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty" mapstructure:"secret_key"`

	// BaseURL is the public URL of this application, used for callbacks.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// PriceCents is the monthly price in cents (default 399).
	PriceCents int `json:"price_cents" yaml:"price_cents" mapstructure:"price_cents"`

	// Currency is the ISO currency code (default "usd").
	Currency string `json:"currency" yaml:"currency" mapstructure:"currency"`
}

// SessionBackend selects where session tokens are mapped to identities.
type SessionBackend string

const (
	SessionMemory SessionBackend = "memory"
	SessionRedis  SessionBackend = "redis"
)

// SessionConfig holds settings for browsing sessions.
type SessionConfig struct {
	// Backend is memory (default) or redis.
	Backend SessionBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// IdleTTL is how long an unused session survives (default 24h).
	IdleTTL time.Duration `json:"idle_ttl" yaml:"idle_ttl" mapstructure:"idle_ttl"`

	// RedisAddr is the Redis address for the redis backend.
	RedisAddr string `json:"redis_addr" yaml:"redis_addr" mapstructure:"redis_addr"`

	// RedisPrefix namespaces session keys (default "truthfinder:session:").
	RedisPrefix string `json:"redis_prefix" yaml:"redis_prefix" mapstructure:"redis_prefix"`

	// CookieName is the HTTP cookie carrying the session token (default "tf_session").
	CookieName string `json:"cookie_name" yaml:"cookie_name" mapstructure:"cookie_name"`
}

// ServerConfig holds settings for the HTTP server.
type ServerConfig struct {
	Addr         string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text (default) or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings for the application.
type Config struct {
	Store    StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	Policy   PolicyConfig   `json:"policy" yaml:"policy" mapstructure:"policy"`
	Search   SearchConfig   `json:"search" yaml:"search" mapstructure:"search"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis" mapstructure:"analysis"`
	Payment  PaymentConfig  `json:"payment" yaml:"payment" mapstructure:"payment"`
	Session  SessionConfig  `json:"session" yaml:"session" mapstructure:"session"`
	Server   ServerConfig   `json:"server" yaml:"server" mapstructure:"server"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}

const defaultUserAgent = "HistoricalTruthFinder/1.0"

// DefaultConfig returns the settings used when no config file overrides them.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Path:        "searches.db",
			BusyTimeout: 5 * time.Second,
		},
		Policy: PolicyConfig{
			FreeDailyCap:    5,
			Window:          24 * time.Hour,
			PremiumDuration: 30 * 24 * time.Hour,
		},
		Search: SearchConfig{
			HTTPConfig:        HTTPConfig{Timeout: 15 * time.Second, UserAgent: defaultUserAgent},
			Endpoint:          "https://archive.org/advancedsearch.php",
			RequestsPerSecond: 1,
			Burst:             2,
		},
		Analysis: AnalysisConfig{
			HTTPConfig: HTTPConfig{Timeout: 10 * time.Second, UserAgent: defaultUserAgent},
			Endpoint:   "https://api-inference.huggingface.co/models/cardiffnlp/twitter-roberta-base-sentiment-latest",
		},
		Payment: PaymentConfig{
			HTTPConfig: HTTPConfig{Timeout: 10 * time.Second, UserAgent: defaultUserAgent},
			Endpoint:   "https://api.stripe.com",
			BaseURL:    "http://localhost:8501",
			PriceCents: 399,
			Currency:   "usd",
		},
		Session: SessionConfig{
			Backend:     SessionMemory,
			IdleTTL:     24 * time.Hour,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "truthfinder:session:",
			CookieName:  "tf_session",
		},
		Server: ServerConfig{
			Addr:         ":8501",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
