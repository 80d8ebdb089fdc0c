package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress   string        `env:"SERVER_ADDRESS" envDefault:":8080"`
	PublicBaseURL   string        `env:"PUBLIC_BASE_URL"`
	DataDir         string        `env:"DATA_DIR" envDefault:"./data"`
	UploadDir       string        `env:"UPLOAD_DIR" envDefault:"./uploads"`
	MaxUploadSizeMB int64         `env:"MAX_UPLOAD_SIZE_MB" envDefault:"10"`
	ScreenUploads   bool          `env:"SCREEN_UPLOADS" envDefault:"false"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	StorageDriver string        `env:"STORAGE_DRIVER" envDefault:"file"`
	MongoURI      string        `env:"MONGO_URI"`
	MongoDB       string        `env:"MONGO_DB" envDefault:"sleepoutside"`
	SQLitePath    string        `env:"SQLITE_PATH" envDefault:"./data/sleepoutside.db"`
	WatchStore    bool          `env:"WATCH_STORE" envDefault:"true"`
	WatchDebounce time.Duration `env:"WATCH_DEBOUNCE" envDefault:"150ms"`

	CatalogDir    string `env:"CATALOG_DIR" envDefault:"./json"`
	CatalogBucket string `env:"CATALOG_BUCKET"`
	CatalogPrefix string `env:"CATALOG_PREFIX"`

	JWTSecret         string        `env:"JWT_SECRET"`
	JWTExpiration     time.Duration `env:"JWT_EXPIRATION" envDefault:"24h"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`

	FirebaseProjectID       string   `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsJSON string   `env:"FIREBASE_CREDENTIALS_JSON"`
	FirebaseAdminUIDs       []string `env:"FIREBASE_ADMIN_UIDS" envSeparator:","`

	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	OrderFromEmail string `env:"ORDER_FROM_EMAIL"`
	OrderBccEmail  string `env:"ORDER_BCC_EMAIL"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`

	Development bool `env:"DEVELOPMENT" envDefault:"false"`
}

// DevJWTSecret signs admin tokens in development when JWT_SECRET is unset.
const DevJWTSecret = "sleepoutside-dev-secret"

// Secrets that have shipped in sample configs and must never sign real tokens.
var publicJWTSecrets = []string{DevJWTSecret, "your-secret-key-change-in-production"}

var storageDrivers = []string{"file", "memory", "mongo", "sqlite"}

// Load reads an optional .env file from the working directory and then
// parses the environment. Variables already set win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv parses the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	known := false
	for _, d := range storageDrivers {
		if c.StorageDriver == d {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("STORAGE_DRIVER must be one of %s, got %q", strings.Join(storageDrivers, ", "), c.StorageDriver)
	}
	if c.StorageDriver == "mongo" && c.MongoURI == "" {
		return errors.New("MONGO_URI is required when STORAGE_DRIVER=mongo")
	}
	if c.MaxUploadSizeMB <= 0 {
		return errors.New("MAX_UPLOAD_SIZE_MB must be positive")
	}
	if c.JWTExpiration <= 0 {
		return errors.New("JWT_EXPIRATION must be positive")
	}
	return nil
}

// ValidateServer checks what only the HTTP server needs. Admin tokens are
// signed with JWT_SECRET, so outside development it must be set to a
// private value. In development an empty secret falls back to DevJWTSecret.
func (c *Config) ValidateServer() error {
	if c.Development {
		if c.JWTSecret == "" {
			c.JWTSecret = DevJWTSecret
		}
		return nil
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required unless DEVELOPMENT=true")
	}
	for _, s := range publicJWTSecrets {
		if c.JWTSecret == s {
			return errors.New("JWT_SECRET is a published sample value; set a private secret")
		}
	}
	return nil
}

// MailEnabled reports whether order confirmations can be sent.
func (c *Config) MailEnabled() bool {
	return c.SendGridAPIKey != "" && c.OrderFromEmail != ""
}
