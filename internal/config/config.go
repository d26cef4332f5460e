package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/RichardoC/aipro/internal/llm"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrCredentialMissing = errors.New("model credential missing: set AIPRO_MODEL_API_KEY or GOOGLE_API_KEY")

const envPrefix = "AIPRO"

type Config struct {
	Server struct {
		Addr            string        `mapstructure:"addr"`
		StaticDir       string        `mapstructure:"static_dir"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`

	Model struct {
		BaseURL           string        `mapstructure:"base_url"`
		Name              string        `mapstructure:"name"`
		APIKey            string        `mapstructure:"api_key"`
		Timeout           time.Duration `mapstructure:"timeout"`
		VerifyOnStart     bool          `mapstructure:"verify_on_start"`
		RequestsPerMinute int           `mapstructure:"requests_per_minute"`
		Temperature       float64       `mapstructure:"temperature"`
	} `mapstructure:"model"`

	Chat struct {
		Window int `mapstructure:"window"`
	} `mapstructure:"chat"`

	Session struct {
		TTL           time.Duration `mapstructure:"ttl"`
		SweepInterval time.Duration `mapstructure:"sweep_interval"`
	} `mapstructure:"session"`

	Store struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"store"`

	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8100")
	v.SetDefault("server.static_dir", "web")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("model.base_url", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("model.name", "gemini-2.0-flash")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.timeout", 60*time.Second)
	v.SetDefault("model.verify_on_start", true)
	v.SetDefault("model.requests_per_minute", 0)
	v.SetDefault("model.temperature", 0.0)

	v.SetDefault("chat.window", 5)

	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.sweep_interval", time.Minute)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", ":memory:")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// New returns a viper instance with defaults and environment bindings but
// no file. Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The credential is also picked up under the names hosted services
	// document.
	_ = v.BindEnv("model.api_key", envPrefix+"_MODEL_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY")
	return v
}

// Load reads .env (when present), then path (when set) and decodes the
// result. The returned config has been validated.
func Load(v *viper.Viper, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model.APIKey) == "" {
		return ErrCredentialMissing
	}
	if c.Chat.Window <= 0 {
		return fmt.Errorf("chat.window must be positive, got %d", c.Chat.Window)
	}
	switch c.Store.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("store.driver must be memory or sqlite, got %q", c.Store.Driver)
	}
	if c.Model.RequestsPerMinute < 0 {
		return fmt.Errorf("model.requests_per_minute must not be negative")
	}
	return nil
}

func (c *Config) LLM() llm.Config {
	return llm.Config{
		BaseURL:           c.Model.BaseURL,
		Model:             c.Model.Name,
		APIKey:            c.Model.APIKey,
		Timeout:           c.Model.Timeout,
		RequestsPerMinute: c.Model.RequestsPerMinute,
		Temperature:       c.Model.Temperature,
	}
}
