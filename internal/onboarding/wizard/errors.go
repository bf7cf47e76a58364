package wizard

import "errors"

// Outcome errors. Each is recovered by the caller; state is left as it was before the call.
var (
	ErrDuplicateContact     = errors.New("contact already in use")
	ErrSendFailed           = errors.New("sending failed")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrTermsNotAccepted     = errors.New("terms and conditions not accepted")
	ErrPersistFailed        = errors.New("saving contact failed")
)

// Guard errors: the call was rejected before any external effect.
var (
	ErrWrongStep      = errors.New("action not available in the current step")
	ErrCooldownActive = errors.New("a code was sent recently; wait for the cooldown to finish")
	ErrBusy           = errors.New("a request for this action is already in flight")
	ErrClosed         = errors.New("wizard closed")
	ErrMalformedCode  = errors.New("code must be six digits")
	ErrInvalidContact = errors.New("invalid contact value")
	ErrContactLocked  = errors.New("contact already linked to the existing profile")
	ErrInvalidAddress = errors.New("invalid account address")
)
