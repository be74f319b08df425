package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Values are read from the environment only; a local .env is loaded beforehand outside release mode.
type Config struct {
	// HTTP server
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"` // "debug" or "release"

	// Firebase Admin SDK. Credentials are optional: without a file or inline JSON the SDK
	// falls back to Application Default Credentials.
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	// Comma-separated dashboard origins, used by CORS and the board socket upgrader.
	ClientURL string `mapstructure:"CLIENT_URL"`

	// Membership cache. An empty RedisAddr disables it.
	RedisAddr          string        `mapstructure:"REDIS_ADDR"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int           `mapstructure:"REDIS_DB"`
	MembershipCacheTTL time.Duration `mapstructure:"MEMBERSHIP_CACHE_TTL"`

	// Provisioning events. An empty RabbitMQURL disables publishing; the notifier requires it.
	RabbitMQURL       string `mapstructure:"RABBITMQ_URL"`
	ProvisioningQueue string `mapstructure:"PROVISIONING_QUEUE"`

	// Welcome email, notifier only.
	SMTPHost   string `mapstructure:"SMTP_HOST"`
	SMTPPort   int    `mapstructure:"SMTP_PORT"`
	SMTPUser   string `mapstructure:"SMTP_USER"`
	SMTPPass   string `mapstructure:"SMTP_PASS"`
	MailSender string `mapstructure:"MAIL_SENDER"`
}

// envKeys must list every mapstructure key above. AutomaticEnv alone does not make Unmarshal
// see variables that have no default.
var envKeys = []string{
	"PORT",
	"GIN_MODE",
	"FIREBASE_PROJECT_ID",
	"GOOGLE_APPLICATION_CREDENTIALS",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"CLIENT_URL",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"MEMBERSHIP_CACHE_TTL",
	"RABBITMQ_URL",
	"PROVISIONING_QUEUE",
	"SMTP_HOST",
	"SMTP_PORT",
	"SMTP_USER",
	"SMTP_PASS",
	"MAIL_SENDER",
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Defaults for local development.
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MEMBERSHIP_CACHE_TTL", "10m")
	v.SetDefault("PROVISIONING_QUEUE", "flowproject.user-provisioned")
	v.SetDefault("SMTP_PORT", 2525)
	v.SetDefault("CLIENT_URL", "http://localhost:3000")

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.New("failed to bind env " + key + ": " + err.Error())
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	// Validate critical configurations.
	if cfg.FirebaseProjectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is required")
	}
	if cfg.MembershipCacheTTL <= 0 {
		return nil, errors.New("MEMBERSHIP_CACHE_TTL must be a positive duration")
	}
	return &cfg, nil
}

// IsRelease reports whether the service runs in gin release mode.
func (c *Config) IsRelease() bool {
	return strings.EqualFold(c.GinMode, "release")
}
