package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"kyc-onboarding/backend/internal/audit"
	"kyc-onboarding/backend/internal/kyc"
	kychandler "kyc-onboarding/backend/internal/kyc/handler"
	"kyc-onboarding/backend/internal/server/interceptors"
	"kyc-onboarding/backend/internal/telemetry"
)

// Deps holds the service implementations and cross-cutting collaborators of the gRPC server.
type Deps struct {
	// Onboarding serves kyc.onboarding.v1.OnboardingService. Required.
	Onboarding kychandler.OnboardingServer
	// Health is the standard health server. If nil, grpc.health.v1 is not registered.
	Health *health.Server
	// Audit records every OnboardingService call. If nil, no RPCs are audited.
	Audit audit.AuditLogger
	// Emitter receives grpc_request events. If nil, none are emitted.
	Emitter telemetry.EventEmitter
	Log     *zap.Logger
}

// skipMethods are not audited, logged or emitted.
var skipMethods = map[string]bool{
	healthpb.Health_Check_FullMethodName: true,
	healthpb.Health_Watch_FullMethodName: true,
}

// NewServer builds a grpc.Server with tracing, request IDs, logging, telemetry and audit
// interceptors, and registers deps on it.
func NewServer(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	chain := []grpc.UnaryServerInterceptor{
		interceptors.RequestIDUnary(),
		interceptors.LoggingUnary(log, skipMethods),
		interceptors.TelemetryUnary(deps.Emitter, log, skipMethods),
		interceptors.AuditUnary(deps.Audit, skipMethods),
	}
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(chain...),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers OnboardingService and, when provided, the health service.
//
//   - kyc.onboarding.v1.OnboardingService → internal/kyc/handler
//   - grpc.health.v1.Health               → grpc/health, kept current by internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	kychandler.RegisterOnboardingServer(s, deps.Onboarding)
	if deps.Health != nil {
		healthpb.RegisterHealthServer(s, deps.Health)
		deps.Health.SetServingStatus(kyc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	}
}
