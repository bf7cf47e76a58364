// Package handler keeps the standard grpc.health.v1 status in step with backing stores.
package handler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger reports whether a dependency is reachable (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger (e.g. a Redis client's Ping).
type PingerFunc func(ctx context.Context) error

// PingContext calls f(ctx).
func (f PingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

const pingTimeout = 2 * time.Second

// Checker pings its dependencies and publishes SERVING or NOT_SERVING for service and for
// the overall server ("").
type Checker struct {
	srv     *health.Server
	service string
	pingers map[string]Pinger
	log     *zap.Logger
}

// NewChecker returns a checker that updates srv for service.
func NewChecker(srv *health.Server, service string, log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{srv: srv, service: service, pingers: make(map[string]Pinger), log: log}
}

// Add registers a dependency. A nil pinger is ignored. Not safe to call concurrently with Check.
func (c *Checker) Add(name string, p Pinger) {
	if p != nil {
		c.pingers[name] = p
	}
}

// Check pings every dependency, updates the health status and returns the first failure.
func (c *Checker) Check(ctx context.Context) error {
	names := make([]string, 0, len(c.pingers))
	for name := range c.pingers {
		names = append(names, name)
	}
	sort.Strings(names)
	var failed error
	for _, name := range names {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := c.pingers[name].PingContext(pctx)
		cancel()
		if err != nil {
			failed = fmt.Errorf("%s: %w", name, err)
			break
		}
	}
	st := healthpb.HealthCheckResponse_SERVING
	if failed != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
		c.log.Warn("health check failed", zap.Error(failed))
	}
	c.srv.SetServingStatus("", st)
	c.srv.SetServingStatus(c.service, st)
	return failed
}

// Run checks once immediately and then every interval until ctx is done.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	_ = c.Check(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = c.Check(ctx)
		}
	}
}
