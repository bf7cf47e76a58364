package interceptors

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"kyc-onboarding/backend/internal/audit"
)

type recordingAuditLogger struct {
	entries []audit.Entry
}

func (r *recordingAuditLogger) LogEvent(ctx context.Context, e audit.Entry) {
	r.entries = append(r.entries, e)
}

func TestAuditUnary_RecordsActionAndStatus(t *testing.T) {
	rec := &recordingAuditLogger{}
	interceptor := AuditUnary(rec, nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/kyc.onboarding.v1.OnboardingService/CreateProfile"}
	ctx := WithRequestID(context.Background(), "r1")

	wantErr := status.Error(codes.AlreadyExists, "dup")
	_, err := interceptor(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want handler error passed through", err)
	}
	if len(rec.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(rec.entries))
	}
	e := rec.entries[0]
	if e.Action != "create" || e.Resource != "profile" || e.Status != "AlreadyExists" || e.RequestID != "r1" {
		t.Errorf("entry = %+v", e)
	}
}

func TestAuditUnary_SkipAndNilLogger(t *testing.T) {
	rec := &recordingAuditLogger{}
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil }

	resp, err := AuditUnary(rec, map[string]bool{info.FullMethod: true})(context.Background(), nil, info, handler)
	if err != nil || resp != "ok" {
		t.Fatalf("resp = %v, err = %v", resp, err)
	}
	if len(rec.entries) != 0 {
		t.Errorf("skipped method audited: %+v", rec.entries)
	}
	if resp, _ := AuditUnary(nil, nil)(context.Background(), nil, info, handler); resp != "ok" {
		t.Errorf("nil logger resp = %v", resp)
	}
}
