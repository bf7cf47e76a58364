// Wizard runs the contact onboarding wizard in the terminal.
//
//	go run ./cmd/wizard -address 0x... [-local] [-addr localhost:8080]
//
// With -local the services run in process over memory stores and codes are printed instead of
// delivered. Otherwise the wizard talks to the gRPC server at -addr (default GRPC_ADDR).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"kyc-onboarding/backend/internal/app"
	"kyc-onboarding/backend/internal/config"
	"kyc-onboarding/backend/internal/kyc/client"
	"kyc-onboarding/backend/internal/logger"
	"kyc-onboarding/backend/internal/onboarding/console"
	"kyc-onboarding/backend/internal/onboarding/wizard"
	profiledomain "kyc-onboarding/backend/internal/profile/domain"
)

type services interface {
	wizard.Services
	console.DevOTPReader
	FindProfileByAddress(ctx context.Context, address string) (*profiledomain.Profile, error)
}

func main() {
	address := flag.String("address", "", "Account address (0x + 40 hex digits) to link contacts to")
	local := flag.Bool("local", false, "Run services in process with dev OTP codes")
	addr := flag.String("addr", "", "OnboardingService address (default GRPC_ADDR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	// Keep the terminal for the wizard; only warnings go to stderr.
	log, err := logger.New(cfg.Env, "warn")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *address, *local, *addr); err != nil && !errors.Is(err, io.EOF) {
		fmt.Fprintln(os.Stderr, "wizard:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, address string, local bool, addr string) error {
	if !profiledomain.ValidAddress(address) {
		return fmt.Errorf("-address must be 0x followed by 40 hex digits, got %q", address)
	}
	var svc services
	if local {
		cfg.ChallengeStore = config.StoreMemory
		cfg.DatabaseURL = ""
		cfg.OTPReturnToClient = true
		if cfg.IsProduction() {
			return errors.New("-local is not available when APP_ENV=production")
		}
		a, err := app.Build(ctx, cfg, nil, log)
		if err != nil {
			return err
		}
		defer a.Close()
		svc = a.Local()
	} else {
		if addr == "" {
			addr = cfg.GRPCAddr
		}
		conn, err := grpc.NewClient(addr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithStatsHandler(otelgrpc.NewClientHandler()))
		if err != nil {
			return fmt.Errorf("dial %s: %w", addr, err)
		}
		defer conn.Close()
		svc = client.New(conn)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	existing, err := svc.FindProfileByAddress(lookupCtx, address)
	cancel()
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	c := console.New(os.Stdin, os.Stdout, svc)
	refresh := func(ctx context.Context) {
		p, err := svc.FindProfileByAddress(ctx, address)
		if err != nil || p == nil {
			log.Warn("profile refresh failed", zap.Error(err))
			return
		}
		fmt.Printf("Profile refreshed: email %s, phone %s\n", p.Email, p.Phone)
	}
	w, err := wizard.New(address, existing, refresh, svc,
		wizard.WithNotifier(c.Notifier()),
		wizard.WithLogger(log),
		wizard.WithCooldown(cfg.CooldownSeconds))
	if err != nil {
		return err
	}
	defer w.Close()

	_, err = c.Run(ctx, w)
	return err
}
