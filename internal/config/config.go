// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Challenge store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

const minTokenSecretLen = 32

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080). The wizard CLI dials it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN. Empty keeps profiles and audit logs in memory.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisURL is the Redis URL (redis://host:6379/0); required when CHALLENGE_STORE=redis.
	RedisURL string `mapstructure:"REDIS_URL"`
	// ChallengeStore selects where verification challenges live: memory, postgres or redis.
	ChallengeStore string `mapstructure:"CHALLENGE_STORE"`

	// TokenSecret is the HMAC key for challenge tokens. At least 32 bytes in production.
	TokenSecret string `mapstructure:"TOKEN_SECRET"`
	// TokenIssuer is the iss claim of challenge tokens.
	TokenIssuer string `mapstructure:"TOKEN_ISSUER"`
	// OTPTTL is how long a code stays valid (e.g. "10m").
	OTPTTL time.Duration `mapstructure:"OTP_TTL"`
	// OTPMaxAttempts is how many wrong codes a challenge tolerates.
	OTPMaxAttempts int `mapstructure:"OTP_MAX_ATTEMPTS"`
	// CooldownSeconds is the wait between code sends in the wizard.
	CooldownSeconds int `mapstructure:"COOLDOWN_SECONDS"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	// MailFrom is the From address of verification and welcome mail.
	MailFrom string `mapstructure:"MAIL_FROM"`

	// SMSLocalAPIKey is the API key for SMS Local. Required for phone codes unless dev OTP mode is on.
	SMSLocalAPIKey string `mapstructure:"SMS_LOCAL_API_KEY"`
	// SMSLocalSender is the optional sender ID for SMS Local.
	SMSLocalSender string `mapstructure:"SMS_LOCAL_SENDER"`
	// SMSLocalBaseURL is the SMS Local API base URL (default https://www.smslocal.com/dev/bulkV2).
	SMSLocalBaseURL string `mapstructure:"SMS_LOCAL_BASE_URL"`

	// OTPReturnToClient enables dev OTP mode: nothing is delivered, codes are readable via GetDevOTP.
	// Must not be true when Env is production.
	OTPReturnToClient bool `mapstructure:"OTP_RETURN_TO_CLIENT"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is the zap level (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// OTLPEndpoint is the OpenTelemetry collector (host:port or URL). Empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext to the collector even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// TelemetryKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for onboarding events.
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`
	// Worker-only: Loki URL for the telemetry worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the telemetry worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

var defaults = map[string]interface{}{
	"GRPC_ADDR":                   ":8080",
	"DATABASE_URL":                "",
	"REDIS_URL":                   "",
	"CHALLENGE_STORE":             StoreMemory,
	"TOKEN_SECRET":                "",
	"TOKEN_ISSUER":                "kyc-onboarding",
	"OTP_TTL":                     "10m",
	"OTP_MAX_ATTEMPTS":            5,
	"COOLDOWN_SECONDS":            60,
	"SMTP_HOST":                   "",
	"SMTP_PORT":                   587,
	"SMTP_USER":                   "",
	"SMTP_PASSWORD":               "",
	"MAIL_FROM":                   "",
	"SMS_LOCAL_API_KEY":           "",
	"SMS_LOCAL_SENDER":            "",
	"SMS_LOCAL_BASE_URL":          "https://www.smslocal.com/dev/bulkV2",
	"OTP_RETURN_TO_CLIENT":        false,
	"APP_ENV":                     "",
	"LOG_LEVEL":                   "info",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"OTEL_EXPORTER_OTLP_INSECURE": false,
	"KAFKA_BROKERS":               "",
	"TELEMETRY_KAFKA_TOPIC":       "kyc-onboarding-telemetry",
	"LOKI_URL":                    "",
	"KAFKA_GROUP_ID":              "kyc-telemetry-worker",
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.GRPCAddr == "" {
		return errors.New("config: GRPC_ADDR must be set")
	}
	if c.OTPReturnToClient && c.IsProduction() {
		return errors.New("config: OTP_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}
	c.ChallengeStore = strings.ToLower(strings.TrimSpace(c.ChallengeStore))
	switch c.ChallengeStore {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: CHALLENGE_STORE=postgres requires DATABASE_URL")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("config: CHALLENGE_STORE=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("config: CHALLENGE_STORE must be memory, postgres or redis, got %q", c.ChallengeStore)
	}
	if c.IsProduction() && len(c.TokenSecret) < minTokenSecretLen {
		return fmt.Errorf("config: TOKEN_SECRET must be at least %d bytes when APP_ENV=production", minTokenSecretLen)
	}
	if c.OTPTTL <= 0 {
		return errors.New("config: OTP_TTL must be positive")
	}
	if c.OTPMaxAttempts < 1 {
		return errors.New("config: OTP_MAX_ATTEMPTS must be at least 1")
	}
	if c.CooldownSeconds < 1 {
		return errors.New("config: COOLDOWN_SECONDS must be at least 1")
	}
	if c.SMTPPort < 0 || c.SMTPPort > 65535 {
		return errors.New("config: SMTP_PORT must be a valid port")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// DevOTP reports whether codes are kept for GetDevOTP instead of delivered.
func (c *Config) DevOTP() bool {
	return c.OTPReturnToClient && !c.IsProduction()
}

// MailEnabled reports whether SMTP delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.MailFrom != ""
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if Kafka telemetry is enabled (non-empty list) and to create the producer.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
