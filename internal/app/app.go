// Package app assembles the onboarding services from Config: stores, senders, signer and audit.
package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	auditpkg "kyc-onboarding/backend/internal/audit"
	auditrepo "kyc-onboarding/backend/internal/audit/repository"
	"kyc-onboarding/backend/internal/config"
	"kyc-onboarding/backend/internal/db"
	"kyc-onboarding/backend/internal/devotp"
	healthhandler "kyc-onboarding/backend/internal/health/handler"
	kychandler "kyc-onboarding/backend/internal/kyc/handler"
	"kyc-onboarding/backend/internal/notify/email"
	"kyc-onboarding/backend/internal/notify/sms"
	profilerepo "kyc-onboarding/backend/internal/profile/repository"
	profileservice "kyc-onboarding/backend/internal/profile/service"
	"kyc-onboarding/backend/internal/server/interceptors"
	"kyc-onboarding/backend/internal/telemetry"
	"kyc-onboarding/backend/internal/verification"
	verificationrepo "kyc-onboarding/backend/internal/verification/repository"
	verificationservice "kyc-onboarding/backend/internal/verification/service"
)

// App holds the assembled services and the connections they own.
type App struct {
	Verifier *verificationservice.Service
	Profiles *profileservice.ProfileService
	Audit    *auditpkg.Logger
	// DevOTP is set only when codes are kept for GetDevOTP instead of delivered.
	DevOTP *devotp.MemoryStore

	db      *sql.DB
	redis   *redis.Client
	pingers map[string]healthhandler.Pinger
	log     *zap.Logger
}

// Build opens the configured stores and wires the services. emitter may be nil.
// Call Close when done.
func Build(ctx context.Context, cfg *config.Config, emitter telemetry.EventEmitter, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if emitter == nil {
		emitter = telemetry.Nop{}
	}
	a := &App{pingers: make(map[string]healthhandler.Pinger), log: log}

	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.db = conn
		a.pingers["postgres"] = conn
	}

	challenges, err := a.challengeRepository(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	secret, err := tokenSecret(cfg, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	signer, err := verification.NewTokenSigner(secret, cfg.TokenIssuer)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("token signer: %w", err)
	}

	deps := verificationservice.Deps{Emitter: emitter, Log: log}
	var welcome profileservice.WelcomeSender
	if cfg.MailEnabled() {
		mailer, err := email.NewMailer(email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		deps.Email = mailer
		welcome = mailer
	}
	if cfg.SMSLocalAPIKey != "" {
		deps.SMS = sms.NewSMSLocalClient(cfg.SMSLocalAPIKey, cfg.SMSLocalBaseURL, cfg.SMSLocalSender)
	}
	if cfg.DevOTP() {
		a.DevOTP = devotp.NewMemoryStore()
		deps.DevStore = a.DevOTP
		log.Warn("dev OTP mode: codes are not delivered and can be read back with GetDevOTP")
	} else {
		if deps.Email == nil {
			log.Warn("SMTP not configured; email codes cannot be delivered")
		}
		if deps.SMS == nil {
			log.Warn("SMS_LOCAL_API_KEY not set; phone codes cannot be delivered")
		}
	}

	a.Verifier = verificationservice.NewService(challenges, signer, verificationservice.Config{
		TTL:         cfg.OTPTTL,
		MaxAttempts: cfg.OTPMaxAttempts,
	}, deps)

	var profiles profilerepo.Repository = profilerepo.NewMemoryRepository()
	var audits auditrepo.Repository = auditrepo.NewMemoryRepository()
	if a.db != nil {
		profiles = profilerepo.NewPostgresRepository(a.db)
		audits = auditrepo.NewPostgresRepository(a.db)
	}
	a.Profiles = profileservice.NewProfileService(profiles, welcome, emitter, log)
	a.Audit = auditpkg.NewLogger(audits, interceptors.ClientIP, log)
	return a, nil
}

func (a *App) challengeRepository(ctx context.Context, cfg *config.Config) (verificationrepo.Repository, error) {
	switch cfg.ChallengeStore {
	case config.StorePostgres:
		if a.db == nil {
			return nil, errors.New("challenge store postgres requires DATABASE_URL")
		}
		return verificationrepo.NewPostgresRepository(a.db), nil
	case config.StoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		a.redis = client
		a.pingers["redis"] = healthhandler.PingerFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		return verificationrepo.NewRedisRepository(client), nil
	default:
		return verificationrepo.NewMemoryRepository(), nil
	}
}

// tokenSecret returns the configured secret. Outside production an empty secret is replaced
// by a random one, so tokens do not survive a restart.
func tokenSecret(cfg *config.Config, log *zap.Logger) ([]byte, error) {
	if cfg.TokenSecret != "" {
		return []byte(cfg.TokenSecret), nil
	}
	if cfg.IsProduction() {
		return nil, errors.New("TOKEN_SECRET is required in production")
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate token secret: %w", err)
	}
	log.Warn("TOKEN_SECRET not set; using a random secret for this process")
	return b, nil
}

// Local returns an in-process implementation of the onboarding services.
func (a *App) Local() *kychandler.Local {
	return &kychandler.Local{Verifier: a.Verifier, Profiles: a.Profiles}
}

// RegisterHealth adds every open store to c.
func (a *App) RegisterHealth(c *healthhandler.Checker) {
	for name, p := range a.pingers {
		c.Add(name, p)
	}
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
