// Package config loads the scheduler's runtime configuration from the
// environment, optionally seeded from a dotenv file.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment key.
const Prefix = "SCHEDULER"

// EnvFileVariable names the variable pointing at the dotenv file.
const EnvFileVariable = "SCHEDULER_ENV_FILE"

var backends = []string{"none", "file", "sqlite", "postgres", "mongo", "badger"}

// StoreConfig selects and locates the snapshot backend.
type StoreConfig struct {
	StoreBackend  string `envconfig:"STORE_BACKEND" default:"file"`
	SnapshotPath  string `envconfig:"SNAPSHOT_PATH" default:"data/rooms.json"`
	SQLiteDSN     string `envconfig:"SQLITE_DSN" default:"data/rooms.db"`
	PostgresDSN   string `envconfig:"POSTGRES_DSN"`
	MongoURI      string `envconfig:"MONGO_URI"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"scheduler"`
	BadgerPath    string `envconfig:"BADGER_PATH" default:"data/badger"`
}

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort  int    `envconfig:"HTTP_PORT" default:"8080"`
	StaticDir string `envconfig:"STATIC_DIR" default:"public"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	StoreConfig

	FlushDebounce time.Duration `envconfig:"FLUSH_DEBOUNCE" default:"250ms"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"60s"`

	MaxMembers     int `envconfig:"MAX_MEMBERS" default:"60"`
	MaxUnavailable int `envconfig:"MAX_UNAVAILABLE" default:"5000"`
	MaxSpanDays    int `envconfig:"MAX_SPAN_DAYS" default:"21"`

	SessionSecret string `envconfig:"SESSION_SECRET"`
	ResumeTokens  bool   `envconfig:"RESUME_TOKENS" default:"true"`

	PinArgonMemoryKiB uint32 `envconfig:"PIN_ARGON_MEMORY_KIB" default:"19456"`
	PinArgonTime      uint32 `envconfig:"PIN_ARGON_TIME" default:"2"`

	AllowedOrigins []string `envconfig:"WS_ALLOWED_ORIGINS"`
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Load reads the optional dotenv file, then parses the process environment.
// Values already present in the environment win over the file. Every invalid
// or missing key is reported in a single error.
func Load() (Config, error) {
	var cfg Config
	if err := process(&cfg); err != nil {
		return Config{}, err
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadStore reads only the backend settings. Tools that inspect snapshots use
// it so they do not need the server's secrets.
func LoadStore() (StoreConfig, error) {
	var cfg StoreConfig
	if err := process(&cfg); err != nil {
		return StoreConfig{}, err
	}

	cfg.normalize()
	var missing, invalid []string
	cfg.validate(&missing, &invalid)
	if err := report(missing, invalid); err != nil {
		return StoreConfig{}, err
	}
	return cfg, nil
}

func process(target any) error {
	if err := loadEnvFile(); err != nil {
		return err
	}
	if err := envconfig.Process(Prefix, target); err != nil {
		var parseErr *envconfig.ParseError
		if errors.As(err, &parseErr) {
			return fmt.Errorf("invalid environment values: %s", parseErr.KeyName)
		}
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

func loadEnvFile() error {
	path := strings.TrimSpace(os.Getenv(EnvFileVariable))
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

func (c *StoreConfig) normalize() {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
}

func (c *Config) normalize() {
	c.StoreConfig.normalize()
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.SessionSecret = strings.TrimSpace(c.SessionSecret)

	origins := c.AllowedOrigins[:0]
	for _, origin := range c.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	c.AllowedOrigins = origins
}

// Validate checks cross-field rules that struct tags cannot express.
func (c Config) Validate() error {
	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		invalid = append(invalid, key("HTTP_PORT"))
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		invalid = append(invalid, key("LOG_LEVEL"))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		invalid = append(invalid, key("LOG_FORMAT"))
	}

	c.StoreConfig.validate(&missing, &invalid)

	if c.FlushDebounce <= 0 {
		invalid = append(invalid, key("FLUSH_DEBOUNCE"))
	}
	if c.SweepInterval <= 0 {
		invalid = append(invalid, key("SWEEP_INTERVAL"))
	}
	if c.MaxMembers <= 0 {
		invalid = append(invalid, key("MAX_MEMBERS"))
	}
	if c.MaxUnavailable <= 0 {
		invalid = append(invalid, key("MAX_UNAVAILABLE"))
	}
	if c.MaxSpanDays <= 0 {
		invalid = append(invalid, key("MAX_SPAN_DAYS"))
	}
	if c.PinArgonMemoryKiB < 8 {
		invalid = append(invalid, key("PIN_ARGON_MEMORY_KIB"))
	}
	if c.PinArgonTime == 0 {
		invalid = append(invalid, key("PIN_ARGON_TIME"))
	}
	if c.ResumeTokens && c.SessionSecret == "" {
		missing = append(missing, key("SESSION_SECRET"))
	}

	return report(missing, invalid)
}

func key(name string) string { return Prefix + "_" + name }

func (c StoreConfig) validate(missing, invalid *[]string) {
	required := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			*missing = append(*missing, key(name))
		}
	}
	switch c.StoreBackend {
	case "file":
		required(c.SnapshotPath, "SNAPSHOT_PATH")
	case "sqlite":
		required(c.SQLiteDSN, "SQLITE_DSN")
	case "postgres":
		required(c.PostgresDSN, "POSTGRES_DSN")
	case "mongo":
		required(c.MongoURI, "MONGO_URI")
		required(c.MongoDatabase, "MONGO_DATABASE")
	case "badger":
		required(c.BadgerPath, "BADGER_PATH")
	default:
		if !slices.Contains(backends, c.StoreBackend) {
			*invalid = append(*invalid, key("STORE_BACKEND"))
		}
	}
}

func report(missing, invalid []string) error {
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return nil
}
