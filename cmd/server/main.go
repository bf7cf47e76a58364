// Server runs the kyc.onboarding.v1.OnboardingService gRPC API.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"

	"kyc-onboarding/backend/internal/app"
	"kyc-onboarding/backend/internal/config"
	healthhandler "kyc-onboarding/backend/internal/health/handler"
	"kyc-onboarding/backend/internal/kyc"
	kychandler "kyc-onboarding/backend/internal/kyc/handler"
	"kyc-onboarding/backend/internal/logger"
	"kyc-onboarding/backend/internal/server"
	"kyc-onboarding/backend/internal/telemetry"
	"kyc-onboarding/backend/internal/telemetry/otel"
	"kyc-onboarding/backend/internal/telemetry/producer"
)

const (
	serviceName         = "kyc-onboarding"
	healthCheckInterval = 15 * time.Second
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	providers, err := otel.NewProviders(ctx, otel.Options{
		Endpoint:       cfg.OTLPEndpoint,
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    cfg.Env,
		Insecure:       cfg.OTLPInsecure,
	}, log)
	if err != nil {
		return err
	}
	providers.SetGlobal()
	metrics, err := otel.NewMetricsEmitter(providers.MeterProvider)
	if err != nil {
		return err
	}

	kafkaProducer := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic, log)
	emitter := telemetry.Multi(otel.NewEventEmitter(providers.LoggerProvider), metrics, kafkaProducer)

	a, err := app.Build(ctx, cfg, emitter, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close stores", zap.Error(err))
		}
	}()

	healthSrv := health.NewServer()
	checker := healthhandler.NewChecker(healthSrv, kyc.ServiceName, log)
	a.RegisterHealth(checker)

	s := server.NewServer(server.Deps{
		Onboarding: kychandler.NewServer(a.Verifier, a.Profiles, log),
		Health:     healthSrv,
		Audit:      a.Audit,
		Emitter:    emitter,
		Log:        log,
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	defer lis.Close()

	checkCtx, cancelCheck := context.WithCancel(ctx)
	defer cancelCheck()
	go checker.Run(checkCtx, healthCheckInterval)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("gRPC server listening",
			zap.String("addr", cfg.GRPCAddr),
			zap.String("challenge_store", cfg.ChallengeStore),
			zap.Bool("dev_otp", cfg.DevOTP()))
		serveErr <- s.Serve(lis)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down gRPC server")
	healthSrv.Shutdown()
	s.GracefulStop()

	// Let async telemetry emits finish before the exporters go away.
	time.Sleep(telemetry.ShutdownDrainDuration)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn("otel shutdown", zap.Error(err))
	}
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Warn("kafka producer close", zap.Error(err))
		}
	}
	log.Info("gRPC server stopped")
	return nil
}
