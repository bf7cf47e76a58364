package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"kyc-onboarding/backend/internal/kyc"
)

// OnboardingServer is the server API for kyc.onboarding.v1.OnboardingService.
type OnboardingServer interface {
	FindProfileByEmail(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FindProfileByPhone(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FindProfileByAddress(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RequestEmailCode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyEmailCode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RequestPhoneCode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyPhoneCode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SendWelcomeNotification(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDevOTP(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryFunc func(OnboardingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, fn unaryFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(OnboardingServer)
			if interceptor == nil {
				return fn(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: kyc.FullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return fn(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ServiceDesc describes OnboardingService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: kyc.ServiceName,
	HandlerType: (*OnboardingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(kyc.MethodFindProfileByEmail, OnboardingServer.FindProfileByEmail),
		unary(kyc.MethodFindProfileByPhone, OnboardingServer.FindProfileByPhone),
		unary(kyc.MethodFindProfileByAddress, OnboardingServer.FindProfileByAddress),
		unary(kyc.MethodRequestEmailCode, OnboardingServer.RequestEmailCode),
		unary(kyc.MethodVerifyEmailCode, OnboardingServer.VerifyEmailCode),
		unary(kyc.MethodRequestPhoneCode, OnboardingServer.RequestPhoneCode),
		unary(kyc.MethodVerifyPhoneCode, OnboardingServer.VerifyPhoneCode),
		unary(kyc.MethodSendWelcomeNotification, OnboardingServer.SendWelcomeNotification),
		unary(kyc.MethodCreateProfile, OnboardingServer.CreateProfile),
		unary(kyc.MethodGetDevOTP, OnboardingServer.GetDevOTP),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "kyc/onboarding/v1/onboarding.proto",
}

// RegisterOnboardingServer registers srv on s.
func RegisterOnboardingServer(s grpc.ServiceRegistrar, srv OnboardingServer) {
	s.RegisterService(&ServiceDesc, srv)
}
