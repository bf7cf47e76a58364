package wizard

import "kyc-onboarding/backend/internal/onboarding/domain"

type channelNotices struct {
	duplicate, sent, sendFailed, verified, verifyFailed Notice
}

var noticesByChannel = map[domain.Channel]channelNotices{
	domain.ChannelEmail: {
		duplicate:    Notice{LevelError, "Email already in use", "Please enter a different email address"},
		sent:         Notice{LevelSuccess, "Email Verification code sent", "Check your email for the verification code"},
		sendFailed:   Notice{LevelError, "Email Verification failed", "Something went wrong, Enter a valid email address"},
		verified:     Notice{LevelSuccess, "Email verified successfully", "You can now complete your KYC"},
		verifyFailed: Notice{LevelError, "Failed to verify email.", "Invalid code or expired, please try again"},
	},
	domain.ChannelPhone: {
		duplicate:    Notice{LevelError, "Phone already in use", "Please enter a different phone number"},
		sent:         Notice{LevelSuccess, "Phone Verification code sent", "Check your phone for the verification code"},
		sendFailed:   Notice{LevelError, "Phone Verification failed", "Something went wrong, Enter a valid phone number"},
		verified:     Notice{LevelSuccess, "Phone verified successfully", "You can now complete your KYC"},
		verifyFailed: Notice{LevelError, "Failed to verify phone.", "Invalid code or expired, please try again"},
	},
}

var (
	noticeTermsRequired = Notice{LevelError, "You must agree to the terms and conditions", "Please read and agree to the terms and conditions"}
	noticeSaved         = Notice{LevelSuccess, "Contact saved successfully", "You can now complete your KYC"}
	noticeSaveFailed    = Notice{LevelError, "Failed to save contact.", "Something went wrong, please try again"}
	noticeTermsFailed   = Notice{LevelError, "Failed to submit terms.", "Something went wrong, please try again"}
)
