package handler

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// mockPinger implements Pinger for tests.
type mockPinger struct {
	pingErr error
}

func (m *mockPinger) PingContext(context.Context) error {
	return m.pingErr
}

const svc = "kyc.onboarding.v1.OnboardingService"

func statusOf(t *testing.T, srv *health.Server, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("Check(%q): %v", service, err)
	}
	return resp.GetStatus()
}

func TestCheck_NoDependenciesIsServing(t *testing.T) {
	srv := health.NewServer()
	if err := NewChecker(srv, svc, nil).Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if got := statusOf(t, srv, svc); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", got)
	}
}

func TestCheck_FailingDependency(t *testing.T) {
	srv := health.NewServer()
	c := NewChecker(srv, svc, nil)
	db := &mockPinger{}
	c.Add("postgres", db)
	c.Add("redis", PingerFunc(func(context.Context) error { return nil }))
	c.Add("ignored", nil)

	if err := c.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	db.pingErr = errors.New("connection refused")
	err := c.Check(context.Background())
	if err == nil || !errors.Is(err, db.pingErr) {
		t.Fatalf("Check err = %v, want wrapped ping error", err)
	}
	for _, s := range []string{"", svc} {
		if got := statusOf(t, srv, s); got != healthpb.HealthCheckResponse_NOT_SERVING {
			t.Errorf("status(%q) = %v, want NOT_SERVING", s, got)
		}
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	srv := health.NewServer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewChecker(srv, svc, nil).Run(ctx, 1)
	if got := statusOf(t, srv, svc); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING after initial check", got)
	}
}
