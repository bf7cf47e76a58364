// Package client calls OnboardingService over gRPC. Client satisfies wizard.Services.
package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"kyc-onboarding/backend/internal/kyc"
	profiledomain "kyc-onboarding/backend/internal/profile/domain"
	profileservice "kyc-onboarding/backend/internal/profile/service"
	verificationservice "kyc-onboarding/backend/internal/verification/service"
)

// Client is an OnboardingService client over one connection.
type Client struct {
	conn grpc.ClientConnInterface
}

// New returns a client using conn. The caller owns and closes conn.
func New(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, kyc.FullMethod(method), req, out); err != nil {
		return nil, fromStatus(err)
	}
	return out, nil
}

// FindProfileByEmail returns the profile holding email, or nil.
func (c *Client) FindProfileByEmail(ctx context.Context, email string) (*profiledomain.Profile, error) {
	out, err := c.invoke(ctx, kyc.MethodFindProfileByEmail, kyc.Fields(map[string]string{kyc.FieldEmail: email}))
	if err != nil {
		return nil, err
	}
	return kyc.ProfileFrom(out)
}

// FindProfileByPhone returns the profile holding phone, or nil.
func (c *Client) FindProfileByPhone(ctx context.Context, phone string) (*profiledomain.Profile, error) {
	out, err := c.invoke(ctx, kyc.MethodFindProfileByPhone, kyc.Fields(map[string]string{kyc.FieldPhone: phone}))
	if err != nil {
		return nil, err
	}
	return kyc.ProfileFrom(out)
}

// FindProfileByAddress returns the account's current profile, or nil.
func (c *Client) FindProfileByAddress(ctx context.Context, address string) (*profiledomain.Profile, error) {
	out, err := c.invoke(ctx, kyc.MethodFindProfileByAddress, kyc.Fields(map[string]string{kyc.FieldAddress: address}))
	if err != nil {
		return nil, err
	}
	return kyc.ProfileFrom(out)
}

// RequestEmailCode asks the server to send a code to email.
func (c *Client) RequestEmailCode(ctx context.Context, email string) (string, error) {
	return c.requestCode(ctx, kyc.MethodRequestEmailCode, kyc.FieldEmail, email)
}

// RequestPhoneCode asks the server to send a code to phone.
func (c *Client) RequestPhoneCode(ctx context.Context, phone string) (string, error) {
	return c.requestCode(ctx, kyc.MethodRequestPhoneCode, kyc.FieldPhone, phone)
}

func (c *Client) requestCode(ctx context.Context, method, field, value string) (string, error) {
	out, err := c.invoke(ctx, method, kyc.Fields(map[string]string{field: value}))
	if err != nil {
		return "", err
	}
	token := kyc.String(out, kyc.FieldToken)
	if token == "" {
		return "", fmt.Errorf("kyc: %s returned no token", method)
	}
	return token, nil
}

// VerifyEmailCode reports whether code answers the email challenge behind token.
func (c *Client) VerifyEmailCode(ctx context.Context, token, code string) (bool, error) {
	return c.verifyCode(ctx, kyc.MethodVerifyEmailCode, token, code)
}

// VerifyPhoneCode reports whether code answers the phone challenge behind token.
func (c *Client) VerifyPhoneCode(ctx context.Context, token, code string) (bool, error) {
	return c.verifyCode(ctx, kyc.MethodVerifyPhoneCode, token, code)
}

func (c *Client) verifyCode(ctx context.Context, method, token, code string) (bool, error) {
	out, err := c.invoke(ctx, method, kyc.Fields(map[string]string{kyc.FieldToken: token, kyc.FieldCode: code}))
	if err != nil {
		return false, err
	}
	return kyc.Bool(out, kyc.FieldValid), nil
}

// SendWelcomeNotification asks the server to mail the welcome notification.
func (c *Client) SendWelcomeNotification(ctx context.Context, email string) error {
	_, err := c.invoke(ctx, kyc.MethodSendWelcomeNotification, kyc.Fields(map[string]string{kyc.FieldEmail: email}))
	return err
}

// CreateProfile persists the verified contacts for address.
func (c *Client) CreateProfile(ctx context.Context, address, email, phone string) (*profiledomain.Profile, error) {
	out, err := c.invoke(ctx, kyc.MethodCreateProfile, kyc.Fields(map[string]string{
		kyc.FieldAddress: address,
		kyc.FieldEmail:   email,
		kyc.FieldPhone:   phone,
	}))
	if err != nil {
		return nil, err
	}
	return kyc.ProfileFrom(out)
}

// DevOTP reads back an undelivered code from a server running in dev OTP mode.
func (c *Client) DevOTP(ctx context.Context, channel, token string) (string, error) {
	out, err := c.invoke(ctx, kyc.MethodGetDevOTP, kyc.Fields(map[string]string{kyc.FieldChannel: channel, kyc.FieldToken: token}))
	if err != nil {
		return "", err
	}
	return kyc.String(out, kyc.FieldOTP), nil
}

// fromStatus maps gRPC codes back to the service sentinels, wrapping the status error.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var sentinel error
	switch st.Code() {
	case codes.AlreadyExists:
		sentinel = profileservice.ErrDuplicateContact
	case codes.Unavailable:
		if st.Message() != verificationservice.ErrDeliveryFailed.Error() {
			return err
		}
		sentinel = verificationservice.ErrDeliveryFailed
	case codes.FailedPrecondition:
		sentinel = verificationservice.ErrDevOTPDisabled
	case codes.NotFound:
		sentinel = verificationservice.ErrDevOTPNotFound
	default:
		return err
	}
	return fmt.Errorf("%w: %s", sentinel, st.Message())
}
