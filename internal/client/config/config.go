package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/casconsole/internal/client/auth"
	"github.com/dmitrijs2005/casconsole/internal/client/storage"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CASCONSOLE_"

// Backend modes.
const (
	APIModeHTTP = "http"
	APIModeMock = "mock"
)

// Session store kinds.
const (
	SessionStoreMemory = "memory"
	SessionStoreSQLite = "sqlite"
	SessionStoreRedis  = "redis"
)

// Credential modes.
const (
	AuthModeStatic   = "static"
	AuthModePassword = "password"
	AuthModeDevice   = "device"
)

// Config holds runtime settings for the console.
type Config struct {
	// APIBaseURL is the job and history backend, e.g. "http://host/api/".
	APIBaseURL string `env:"API_BASE_URL"`
	// APIMode selects the real HTTP backend or the in-process mock.
	APIMode        string        `env:"API_MODE"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	PollInterval   time.Duration `env:"POLL_INTERVAL"`
	DownloadDir    string        `env:"DOWNLOAD_DIR"`

	Storage StorageConfig `envPrefix:"STORAGE_"`
	Session SessionConfig `envPrefix:"SESSION_"`
	Auth    AuthConfig    `envPrefix:"AUTH_"`
	Log     LogConfig     `envPrefix:"LOG_"`
}

// StorageConfig selects and configures the document store.
type StorageConfig struct {
	Backend    string `env:"BACKEND"`
	BaseURL    string `env:"BASE_URL"`
	AuthSuffix string `env:"AUTH_SUFFIX"`
	Container  string `env:"CONTAINER"`

	S3 S3Config `envPrefix:"S3_"`
}

type S3Config struct {
	Bucket       string `env:"BUCKET"`
	Region       string `env:"REGION"`
	BaseEndpoint string `env:"ENDPOINT"`
	AccessKey    string `env:"ACCESS_KEY"`
	SecretKey    string `env:"SECRET_KEY"`
	Prefix       string `env:"PREFIX"`
	UsePathStyle bool   `env:"PATH_STYLE"`
}

// SessionConfig selects where the session flag is persisted.
type SessionConfig struct {
	Store         string        `env:"STORE"`
	SQLitePath    string        `env:"SQLITE_PATH"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB"`
	RedisPrefix   string        `env:"REDIS_PREFIX"`
	TTL           time.Duration `env:"TTL"`
}

// AuthConfig selects how bearer tokens are obtained. Static mode sends Token
// unchanged; password and device modes talk to the OIDC Issuer.
type AuthConfig struct {
	Mode         string   `env:"MODE"`
	Token        string   `env:"TOKEN"`
	Issuer       string   `env:"ISSUER"`
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	Scopes       []string `env:"SCOPES" envSeparator:","`
}

type LogConfig struct {
	Level  string `env:"LEVEL"`
	Format string `env:"FORMAT"`
}

// LoadDefaults populates c with defaults suitable for a local backend.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8000/api/"
	c.APIMode = APIModeHTTP
	c.RequestTimeout = 30 * time.Second
	c.PollInterval = 3 * time.Second
	c.DownloadDir = "downloads"

	c.Storage = StorageConfig{
		Backend: storage.BackendSAS,
		BaseURL: "http://127.0.0.1:10000/devstoreaccount1/documents",
	}
	c.Session = SessionConfig{
		Store:       SessionStoreSQLite,
		SQLitePath:  "casconsole.db",
		RedisAddr:   "127.0.0.1:6379",
		RedisPrefix: "casconsole:session:",
	}
	c.Auth = AuthConfig{
		Mode:   AuthModeStatic,
		Token:  auth.MockToken,
		Scopes: []string{"openid", "profile", "email", "offline_access"},
	}
	c.Log = LogConfig{Level: "info", Format: "text"}
}

// LoadConfig builds a Config from defaults, then a .env file and the
// environment, then the JSON file named by -c/-config, then flags. Later
// sources take precedence.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, os.Args[1:]); err != nil {
		return nil, err
	}

	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseEnv loads .env if present and overlays CASCONSOLE_* variables. Unset
// variables keep their current values.
func parseEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return fmt.Errorf("load .env file: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Sanitize normalizes values loaded from any source.
func (c *Config) Sanitize() {
	c.APIBaseURL = strings.TrimSpace(c.APIBaseURL)
	c.APIMode = strings.ToLower(strings.TrimSpace(c.APIMode))
	c.DownloadDir = strings.TrimSpace(c.DownloadDir)

	if c.PollInterval <= 0 {
		c.PollInterval = 3 * time.Second
	}
	if c.RequestTimeout < 0 {
		c.RequestTimeout = 0
	}

	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.Storage.BaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.BaseURL), "/")
	c.Session.Store = strings.ToLower(strings.TrimSpace(c.Session.Store))
	c.Auth.Mode = strings.ToLower(strings.TrimSpace(c.Auth.Mode))
	c.Auth.Issuer = strings.TrimSpace(c.Auth.Issuer)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))

	if c.DownloadDir == "" {
		c.DownloadDir = "downloads"
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.APIMode {
	case APIModeHTTP:
		u, err := url.Parse(c.APIBaseURL)
		if err != nil || !u.IsAbs() {
			return fmt.Errorf("api base url %q must be absolute", c.APIBaseURL)
		}
	case APIModeMock:
	default:
		return fmt.Errorf("unknown api mode %q", c.APIMode)
	}

	switch c.Storage.Backend {
	case storage.BackendSAS, storage.BackendAzBlob:
		if c.Storage.BaseURL == "" {
			return fmt.Errorf("storage backend %s requires a base url", c.Storage.Backend)
		}
	case storage.BackendS3:
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage backend s3 requires a bucket")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Session.Store {
	case SessionStoreMemory:
	case SessionStoreSQLite:
		if c.Session.SQLitePath == "" {
			return errors.New("sqlite session store requires a path")
		}
	case SessionStoreRedis:
		if c.Session.RedisAddr == "" {
			return errors.New("redis session store requires an address")
		}
	default:
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}

	switch c.Auth.Mode {
	case AuthModeStatic:
	case AuthModePassword, AuthModeDevice:
		if c.Auth.Issuer == "" || c.Auth.ClientID == "" {
			return fmt.Errorf("auth mode %s requires issuer and client id", c.Auth.Mode)
		}
	default:
		return fmt.Errorf("unknown auth mode %q", c.Auth.Mode)
	}
	return nil
}

// StoreConfig converts the storage settings for storage.New.
func (c StorageConfig) StoreConfig(httpClient *http.Client) storage.Config {
	return storage.Config{
		Backend:    c.Backend,
		BaseURL:    c.BaseURL,
		AuthSuffix: c.AuthSuffix,
		Container:  c.Container,
		S3: storage.S3Config{
			Bucket:       c.S3.Bucket,
			Region:       c.S3.Region,
			BaseEndpoint: c.S3.BaseEndpoint,
			AccessKey:    c.S3.AccessKey,
			SecretKey:    c.S3.SecretKey,
			Prefix:       c.S3.Prefix,
			UsePathStyle: c.S3.UsePathStyle,
		},
		HTTPClient: httpClient,
	}
}
