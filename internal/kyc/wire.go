// Package kyc describes the OnboardingService wire surface shared by its gRPC handler and client.
// Payloads are google.protobuf.Struct messages keyed by the Field* names below.
package kyc

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	profiledomain "kyc-onboarding/backend/internal/profile/domain"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "kyc.onboarding.v1.OnboardingService"

// Method names.
const (
	MethodFindProfileByEmail      = "FindProfileByEmail"
	MethodFindProfileByPhone      = "FindProfileByPhone"
	MethodFindProfileByAddress    = "FindProfileByAddress"
	MethodRequestEmailCode        = "RequestEmailCode"
	MethodVerifyEmailCode         = "VerifyEmailCode"
	MethodRequestPhoneCode        = "RequestPhoneCode"
	MethodVerifyPhoneCode         = "VerifyPhoneCode"
	MethodSendWelcomeNotification = "SendWelcomeNotification"
	MethodCreateProfile           = "CreateProfile"
	MethodGetDevOTP               = "GetDevOTP"
)

// FullMethod returns "/kyc.onboarding.v1.OnboardingService/<method>".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// Payload field names.
const (
	FieldAddress = "address"
	FieldEmail   = "email"
	FieldPhone   = "phone"
	FieldToken   = "token"
	FieldCode    = "code"
	FieldChannel = "channel"
	FieldValid   = "valid"
	FieldProfile = "profile"
	FieldOTP     = "otp"
	FieldNote    = "note"
	FieldID      = "id"
	FieldCreated = "created_at"
	FieldUpdated = "updated_at"
)

// String returns the string field name of s, or "" if absent or not a string.
func String(s *structpb.Struct, name string) string {
	if s == nil {
		return ""
	}
	v, ok := s.GetFields()[name]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

// Bool returns the bool field name of s.
func Bool(s *structpb.Struct, name string) bool {
	if s == nil {
		return false
	}
	return s.GetFields()[name].GetBoolValue()
}

// ProfileValue encodes p, or a null value when p is nil.
func ProfileValue(p *profiledomain.Profile) *structpb.Value {
	if p == nil {
		return structpb.NewNullValue()
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		FieldID:      structpb.NewStringValue(p.ID),
		FieldAddress: structpb.NewStringValue(p.Address),
		FieldEmail:   structpb.NewStringValue(p.Email),
		FieldPhone:   structpb.NewStringValue(p.Phone),
		FieldCreated: structpb.NewStringValue(p.CreatedAt.UTC().Format(time.RFC3339Nano)),
		FieldUpdated: structpb.NewStringValue(p.UpdatedAt.UTC().Format(time.RFC3339Nano)),
	}})
}

// ProfileFrom decodes the profile field of s. A missing or null field yields nil.
func ProfileFrom(s *structpb.Struct) (*profiledomain.Profile, error) {
	if s == nil {
		return nil, nil
	}
	v, ok := s.GetFields()[FieldProfile]
	if !ok {
		return nil, nil
	}
	if _, null := v.GetKind().(*structpb.Value_NullValue); null {
		return nil, nil
	}
	ps := v.GetStructValue()
	if ps == nil {
		return nil, fmt.Errorf("kyc: profile field is not an object")
	}
	p := &profiledomain.Profile{
		ID:      String(ps, FieldID),
		Address: String(ps, FieldAddress),
		Email:   String(ps, FieldEmail),
		Phone:   String(ps, FieldPhone),
	}
	var err error
	if p.CreatedAt, err = parseTime(String(ps, FieldCreated)); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(String(ps, FieldUpdated)); err != nil {
		return nil, err
	}
	return p, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("kyc: bad timestamp %q: %w", s, err)
	}
	return t, nil
}

// Fields builds a request or response struct from string fields.
func Fields(kv map[string]string) *structpb.Struct {
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(kv))}
	for k, v := range kv {
		out.Fields[k] = structpb.NewStringValue(v)
	}
	return out
}
