package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"kyc-onboarding/backend/internal/audit"
)

// AuditUnary returns a unary server interceptor that records an audit entry after each RPC.
// skipMethods is the set of full method names to not audit (e.g. health checks).
// Logging is best-effort and never fails the RPC. A nil logger disables the interceptor.
func AuditUnary(logger audit.AuditLogger, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if logger == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		ar := audit.ParseFullMethod(info.FullMethod)
		requestID, _ := GetRequestID(ctx)
		logger.LogEvent(ctx, audit.Entry{
			RequestID: requestID,
			Action:    ar.Action,
			Resource:  ar.Resource,
			Status:    status.Code(err).String(),
		})
		return resp, err
	}
}
