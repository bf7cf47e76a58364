package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every key Load reads; Viper ignores empty env vars, so defaults apply.
func clearEnv(t *testing.T) {
	t.Helper()
	for k := range defaults {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":8080" {
		t.Errorf("GRPCAddr = %q, want :8080", cfg.GRPCAddr)
	}
	if cfg.ChallengeStore != StoreMemory {
		t.Errorf("ChallengeStore = %q, want memory", cfg.ChallengeStore)
	}
	if cfg.OTPTTL != 10*time.Minute {
		t.Errorf("OTPTTL = %v, want 10m", cfg.OTPTTL)
	}
	if cfg.OTPMaxAttempts != 5 || cfg.CooldownSeconds != 60 || cfg.SMTPPort != 587 {
		t.Errorf("numeric defaults = %d/%d/%d", cfg.OTPMaxAttempts, cfg.CooldownSeconds, cfg.SMTPPort)
	}
	if cfg.SMSLocalBaseURL != "https://www.smslocal.com/dev/bulkV2" {
		t.Errorf("SMSLocalBaseURL = %q", cfg.SMSLocalBaseURL)
	}
	if cfg.OTPReturnToClient || cfg.DevOTP() || cfg.MailEnabled() {
		t.Error("dev OTP and mail should default to off")
	}
	if cfg.TelemetryKafkaTopic != "kyc-onboarding-telemetry" || cfg.KafkaGroupID != "kyc-telemetry-worker" {
		t.Errorf("kafka defaults = %q/%q", cfg.TelemetryKafkaTopic, cfg.KafkaGroupID)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("GRPC_ADDR", ":9090")
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("COOLDOWN_SECONDS", "30")
	t.Setenv("CHALLENGE_STORE", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("MAIL_FROM", "kyc@example.com")
	t.Setenv("OTP_RETURN_TO_CLIENT", "true")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":9090" || cfg.OTPTTL != 5*time.Minute || cfg.CooldownSeconds != 30 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.ChallengeStore != StoreRedis {
		t.Errorf("ChallengeStore = %q, want redis", cfg.ChallengeStore)
	}
	if !cfg.MailEnabled() || !cfg.DevOTP() {
		t.Error("mail and dev OTP should be enabled")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"dev otp in production", map[string]string{"APP_ENV": "production", "OTP_RETURN_TO_CLIENT": "true", "TOKEN_SECRET": strings.Repeat("s", 32)}, "OTP_RETURN_TO_CLIENT"},
		{"short secret in production", map[string]string{"APP_ENV": "production", "TOKEN_SECRET": "short"}, "TOKEN_SECRET"},
		{"unknown store", map[string]string{"CHALLENGE_STORE": "etcd"}, "CHALLENGE_STORE"},
		{"postgres without url", map[string]string{"CHALLENGE_STORE": "postgres"}, "DATABASE_URL"},
		{"redis without url", map[string]string{"CHALLENGE_STORE": "redis"}, "REDIS_URL"},
		{"zero attempts", map[string]string{"OTP_MAX_ATTEMPTS": "0"}, "OTP_MAX_ATTEMPTS"},
		{"negative cooldown", map[string]string{"COOLDOWN_SECONDS": "-1"}, "COOLDOWN_SECONDS"},
		{"bad smtp port", map[string]string{"SMTP_PORT": "70000"}, "SMTP_PORT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Load err = %v, want mention of %s", err, tc.want)
			}
		})
	}
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "Production")
	t.Setenv("TOKEN_SECRET", strings.Repeat("k", 32))
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.IsProduction() || cfg.DevOTP() {
		t.Errorf("IsProduction=%v DevOTP=%v", cfg.IsProduction(), cfg.DevOTP())
	}
}

func TestTelemetryKafkaBrokersList(t *testing.T) {
	var nilCfg *Config
	if nilCfg.TelemetryKafkaBrokersList() != nil {
		t.Error("nil config should yield nil")
	}
	c := &Config{TelemetryKafkaBrokers: " a:9092, ,b:9092 "}
	got := c.TelemetryKafkaBrokersList()
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("brokers = %v", got)
	}
}
