package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store and broker backends.
const (
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
	BackendRedis     = "redis"
	BackendAMQP      = "amqp"
	BackendNATS      = "nats"
	BackendNone      = "none"
)

// Config holds all configuration for the application.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	ClientURL                        string `mapstructure:"CLIENT_URL"`

	StoreBackend string `mapstructure:"STORE_BACKEND"` // firestore | memory
	FlagStore    string `mapstructure:"FLAG_STORE"`    // redis | memory

	RedisAddress   string `mapstructure:"REDIS_ADDRESS"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`
	RedisKeyPrefix string `mapstructure:"REDIS_KEY_PREFIX"`

	EventsBackend string `mapstructure:"EVENTS_BACKEND"` // amqp | nats | none
	EventsQueue   string `mapstructure:"EVENTS_QUEUE"`
	AMQPURL       string `mapstructure:"AMQP_URL"`
	NATSURL       string `mapstructure:"NATS_URL"`

	SnoozeDuration time.Duration `mapstructure:"SNOOZE_DURATION"`
	SessionIdleTTL time.Duration `mapstructure:"SESSION_IDLE_TTL"`

	SMTPHost   string `mapstructure:"SMTP_HOST"`
	SMTPPort   string `mapstructure:"SMTP_PORT"`
	SMTPUser   string `mapstructure:"SMTP_USER"`
	SMTPPass   string `mapstructure:"SMTP_PASS"`
	MailSender string `mapstructure:"MAIL_SENDER"`
}

var boundKeys = []string{
	"PORT", "GIN_MODE",
	"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64", "CLIENT_URL",
	"STORE_BACKEND", "FLAG_STORE",
	"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB", "REDIS_KEY_PREFIX",
	"EVENTS_BACKEND", "EVENTS_QUEUE", "AMQP_URL", "NATS_URL",
	"SNOOZE_DURATION", "SESSION_IDLE_TTL",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "MAIL_SENDER",
}

// LoadConfig loads configuration from the environment, an optional .env file (outside
// release mode) and an optional YAML file named by CONFIG_FILE.
func LoadConfig() (*Config, error) {
	if !strings.EqualFold(os.Getenv("GIN_MODE"), "release") {
		// A missing .env is normal; real environments set variables directly.
		_ = godotenv.Load()
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("STORE_BACKEND", BackendFirestore)
	v.SetDefault("FLAG_STORE", BackendRedis)
	v.SetDefault("REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "vyap:")
	v.SetDefault("EVENTS_BACKEND", BackendNone)
	v.SetDefault("EVENTS_QUEUE", "onboarding.completed")
	v.SetDefault("SNOOZE_DURATION", "168h")
	v.SetDefault("SESSION_IDLE_TTL", "24h")
	v.SetDefault("SMTP_HOST", "smtp.mailtrap.io")
	v.SetDefault("SMTP_PORT", "2525")

	for _, key := range boundKeys {
		_ = v.BindEnv(key)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and backend names.
func (c *Config) Validate() error {
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	switch c.StoreBackend {
	case BackendFirestore, BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendFirestore, BackendMemory, c.StoreBackend)
	}
	switch c.FlagStore {
	case BackendRedis:
		if c.RedisAddress == "" {
			return errors.New("REDIS_ADDRESS is required when FLAG_STORE=redis")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("FLAG_STORE must be %q or %q, got %q", BackendRedis, BackendMemory, c.FlagStore)
	}
	switch c.EventsBackend {
	case BackendAMQP:
		if c.AMQPURL == "" {
			return errors.New("AMQP_URL is required when EVENTS_BACKEND=amqp")
		}
	case BackendNATS:
		if c.NATSURL == "" {
			return errors.New("NATS_URL is required when EVENTS_BACKEND=nats")
		}
	case BackendNone:
	default:
		return fmt.Errorf("EVENTS_BACKEND must be one of amqp, nats, none; got %q", c.EventsBackend)
	}
	if c.SnoozeDuration <= 0 {
		return errors.New("SNOOZE_DURATION must be positive")
	}
	if c.SessionIdleTTL <= 0 {
		return errors.New("SESSION_IDLE_TTL must be positive")
	}
	return nil
}

// IsRelease reports whether Gin runs in release mode.
func (c *Config) IsRelease() bool {
	return strings.EqualFold(c.GinMode, "release")
}
