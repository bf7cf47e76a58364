// Package handler serves OnboardingService over gRPC and in process.
package handler

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"kyc-onboarding/backend/internal/kyc"
	profiledomain "kyc-onboarding/backend/internal/profile/domain"
	profileservice "kyc-onboarding/backend/internal/profile/service"
	"kyc-onboarding/backend/internal/verification"
	verificationdomain "kyc-onboarding/backend/internal/verification/domain"
	verificationservice "kyc-onboarding/backend/internal/verification/service"
)

const devOTPNote = "DEV MODE ONLY"

// Verifier issues and checks verification codes.
type Verifier interface {
	RequestCode(ctx context.Context, channel, destination string) (string, error)
	VerifyCode(ctx context.Context, channel, token, code string) (bool, error)
	DevOTP(ctx context.Context, channel, token string) (string, error)
}

// Profiles looks up, persists and welcomes profiles.
type Profiles interface {
	FindByEmail(ctx context.Context, email string) (*profiledomain.Profile, error)
	FindByPhone(ctx context.Context, phone string) (*profiledomain.Profile, error)
	FindByAddress(ctx context.Context, address string) (*profiledomain.Profile, error)
	Create(ctx context.Context, address, email, phone string) (*profiledomain.Profile, error)
	SendWelcome(ctx context.Context, email string) error
}

// Server implements OnboardingServer.
type Server struct {
	verifier Verifier
	profiles Profiles
	log      *zap.Logger
}

// NewServer returns an OnboardingService server.
func NewServer(verifier Verifier, profiles Profiles, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{verifier: verifier, profiles: profiles, log: log.Named("onboarding")}
}

// FindProfileByEmail returns {profile: <profile|null>}.
func (s *Server) FindProfileByEmail(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email := kyc.String(req, kyc.FieldEmail)
	if email == "" {
		return nil, status.Error(codes.InvalidArgument, "email is required")
	}
	p, err := s.profiles.FindByEmail(ctx, email)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return profileResponse(p), nil
}

// FindProfileByPhone returns {profile: <profile|null>}.
func (s *Server) FindProfileByPhone(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	phone := kyc.String(req, kyc.FieldPhone)
	if phone == "" {
		return nil, status.Error(codes.InvalidArgument, "phone is required")
	}
	p, err := s.profiles.FindByPhone(ctx, phone)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return profileResponse(p), nil
}

// FindProfileByAddress returns {profile: <profile|null>} for the account address.
func (s *Server) FindProfileByAddress(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	address := kyc.String(req, kyc.FieldAddress)
	if address == "" {
		return nil, status.Error(codes.InvalidArgument, "address is required")
	}
	p, err := s.profiles.FindByAddress(ctx, address)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return profileResponse(p), nil
}

// RequestEmailCode sends a code to email and returns {token}.
func (s *Server) RequestEmailCode(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.requestCode(ctx, verificationdomain.ChannelEmail, kyc.String(req, kyc.FieldEmail))
}

// RequestPhoneCode sends a code to phone and returns {token}.
func (s *Server) RequestPhoneCode(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.requestCode(ctx, verificationdomain.ChannelPhone, kyc.String(req, kyc.FieldPhone))
}

func (s *Server) requestCode(ctx context.Context, channel, destination string) (*structpb.Struct, error) {
	if destination == "" {
		return nil, status.Errorf(codes.InvalidArgument, "%s is required", channel)
	}
	token, err := s.verifier.RequestCode(ctx, channel, destination)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return kyc.Fields(map[string]string{kyc.FieldToken: token}), nil
}

// VerifyEmailCode returns {valid}.
func (s *Server) VerifyEmailCode(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.verifyCode(ctx, verificationdomain.ChannelEmail, req)
}

// VerifyPhoneCode returns {valid}.
func (s *Server) VerifyPhoneCode(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.verifyCode(ctx, verificationdomain.ChannelPhone, req)
}

func (s *Server) verifyCode(ctx context.Context, channel string, req *structpb.Struct) (*structpb.Struct, error) {
	token, code := kyc.String(req, kyc.FieldToken), kyc.String(req, kyc.FieldCode)
	if token == "" || code == "" {
		return nil, status.Error(codes.InvalidArgument, "token and code are required")
	}
	ok, err := s.verifier.VerifyCode(ctx, channel, token, code)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{kyc.FieldValid: structpb.NewBoolValue(ok)}}, nil
}

// SendWelcomeNotification mails the welcome notification to email.
func (s *Server) SendWelcomeNotification(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email := kyc.String(req, kyc.FieldEmail)
	if email == "" {
		return nil, status.Error(codes.InvalidArgument, "email is required")
	}
	if err := s.profiles.SendWelcome(ctx, email); err != nil {
		return nil, s.toStatus(err)
	}
	return &structpb.Struct{}, nil
}

// CreateProfile persists the verified contacts and returns {profile}.
func (s *Server) CreateProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.profiles.Create(ctx, kyc.String(req, kyc.FieldAddress), kyc.String(req, kyc.FieldEmail), kyc.String(req, kyc.FieldPhone))
	if err != nil {
		return nil, s.toStatus(err)
	}
	return profileResponse(p), nil
}

// GetDevOTP returns the undelivered code for {channel, token}. FailedPrecondition unless dev OTP mode is on.
func (s *Server) GetDevOTP(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	channel, token := kyc.String(req, kyc.FieldChannel), kyc.String(req, kyc.FieldToken)
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}
	otp, err := s.verifier.DevOTP(ctx, channel, token)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return kyc.Fields(map[string]string{kyc.FieldOTP: otp, kyc.FieldNote: devOTPNote}), nil
}

func profileResponse(p *profiledomain.Profile) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{kyc.FieldProfile: kyc.ProfileValue(p)}}
}

// toStatus maps service sentinels to gRPC status codes. Unknown errors are logged and hidden.
func (s *Server) toStatus(err error) error {
	switch {
	case errors.Is(err, verificationservice.ErrInvalidDestination),
		errors.Is(err, verificationservice.ErrInvalidChannel),
		errors.Is(err, profileservice.ErrInvalidProfile),
		errors.Is(err, verification.ErrInvalidToken):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, profileservice.ErrDuplicateContact):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, verificationservice.ErrDeliveryFailed):
		return status.Error(codes.Unavailable, verificationservice.ErrDeliveryFailed.Error())
	case errors.Is(err, verificationservice.ErrDevOTPDisabled):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, verificationservice.ErrDevOTPNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	s.log.Error("onboarding rpc failed", zap.Error(err))
	return status.Error(codes.Internal, "internal error")
}
