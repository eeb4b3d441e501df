package authsdk

import (
	"errors"
	"fmt"
)

// ============================================================================
// Error Codes
// ============================================================================

// Code identifies a failure class. Every error surfaced by the SDK carries
// exactly one Code; backend signals that map to nothing become CodeInternal,
// never silence.
type Code string

const (
	CodeInvalidEmail        Code = "invalid_email"
	CodeInvalidUserToken    Code = "invalid_user_token"
	CodeRequiresRecentLogin Code = "requires_recent_login"
	CodeWeakPassword        Code = "weak_password"
	CodeUserDisabled        Code = "user_disabled"
	CodeQuotaExceeded       Code = "quota_exceeded"
	CodeUserTokenExpired    Code = "user_token_expired"
	CodeTooManyRequests     Code = "too_many_requests"
	CodeUserNotFound        Code = "user_not_found"
	CodeUserMismatch        Code = "user_mismatch"
	CodeInvalidCredential   Code = "invalid_credential"
	CodeSecondFactorCode    Code = "invalid_second_factor_code"
	CodeNetworkError        Code = "network_error"
	CodeBadResponse         Code = "bad_response"
	CodeArchiveDecode       Code = "archive_decode"
	CodeInternal            Code = "internal_error"
)

// ============================================================================
// Error type
// ============================================================================

// Error is the SDK's error type. Instances with the same Code compare equal
// under errors.Is, so callers can match against the predefined values below
// regardless of the description the backend attached.
type Error struct {
	// Code is the machine-readable failure class.
	Code Code `json:"error"`

	// Description is a human-readable description of the failure.
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Description == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches any *Error carrying the same Code.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// ============================================================================
// Predefined errors
// ============================================================================

var (
	// ErrInvalidEmail is returned when the backend rejects an email address.
	ErrInvalidEmail = &Error{Code: CodeInvalidEmail, Description: "the email address is badly formatted"}

	// ErrInvalidUserToken is returned when the session's access token is no
	// longer accepted. Triggers auto sign-out.
	ErrInvalidUserToken = &Error{Code: CodeInvalidUserToken, Description: "the session token is no longer valid"}

	// ErrRequiresRecentLogin is returned when a sensitive operation needs a
	// fresh sign-in. Reauthenticate and retry.
	ErrRequiresRecentLogin = &Error{Code: CodeRequiresRecentLogin, Description: "this operation requires a recent sign-in"}

	// ErrWeakPassword is returned when the backend rejects a password.
	ErrWeakPassword = &Error{Code: CodeWeakPassword, Description: "the password does not meet strength requirements"}

	// ErrUserDisabled is returned when the account has been disabled by an
	// administrator. Triggers auto sign-out.
	ErrUserDisabled = &Error{Code: CodeUserDisabled, Description: "the account has been disabled"}

	// ErrQuotaExceeded is returned when an API quota has been exhausted.
	ErrQuotaExceeded = &Error{Code: CodeQuotaExceeded, Description: "the API quota for this operation has been exceeded"}

	// ErrUserTokenExpired is returned when the refresh token is expired or
	// revoked. Triggers auto sign-out.
	ErrUserTokenExpired = &Error{Code: CodeUserTokenExpired, Description: "the session has expired"}

	// ErrTooManyRequests is returned when requests are being throttled.
	ErrTooManyRequests = &Error{Code: CodeTooManyRequests, Description: "too many requests, try again later"}

	// ErrUserNotFound is returned when no account matches the session or
	// credential. Triggers auto sign-out on session operations.
	ErrUserNotFound = &Error{Code: CodeUserNotFound, Description: "no account matches this identifier"}

	// ErrUserMismatch is returned when reauthentication resolved to a
	// different account than the current session.
	ErrUserMismatch = &Error{Code: CodeUserMismatch, Description: "the credential belongs to a different account"}

	// ErrInvalidCredential is returned when a sign-in credential is rejected.
	ErrInvalidCredential = &Error{Code: CodeInvalidCredential, Description: "the supplied credential is invalid"}

	// ErrSecondFactorCode is returned when a second-factor code fails
	// validation.
	ErrSecondFactorCode = &Error{Code: CodeSecondFactorCode, Description: "the second factor code is incorrect"}

	// ErrNetwork is returned when the backend could not be reached. The call
	// may be retried by the caller; the SDK never retries on its own.
	ErrNetwork = &Error{Code: CodeNetworkError, Description: "a network error occurred"}

	// ErrBadResponse is returned when a backend response could not be
	// decoded. The session is left untouched.
	ErrBadResponse = &Error{Code: CodeBadResponse, Description: "the backend returned a malformed response"}

	// ErrArchiveDecode is returned when a serialized session payload is
	// corrupt or has an unknown schema version.
	ErrArchiveDecode = &Error{Code: CodeArchiveDecode, Description: "the session archive could not be decoded"}
)

// ============================================================================
// Backend signal mapping
// ============================================================================

// serverSignals maps the backend's error signal strings onto SDK errors.
// The backend contract guarantees a closed signal set; anything outside it
// falls through to CodeInternal.
var serverSignals = map[string]*Error{
	"INVALID_EMAIL":                  ErrInvalidEmail,
	"INVALID_ID_TOKEN":               ErrInvalidUserToken,
	"CREDENTIAL_TOO_OLD_LOGIN_AGAIN": ErrRequiresRecentLogin,
	"WEAK_PASSWORD":                  ErrWeakPassword,
	"USER_DISABLED":                  ErrUserDisabled,
	"QUOTA_EXCEEDED":                 ErrQuotaExceeded,
	"TOKEN_EXPIRED":                  ErrUserTokenExpired,
	"TOO_MANY_ATTEMPTS_TRY_LATER":    ErrTooManyRequests,
	"USER_NOT_FOUND":                 ErrUserNotFound,
	"INVALID_PASSWORD":               ErrInvalidCredential,
	"INVALID_IDP_RESPONSE":           ErrInvalidCredential,
	"INVALID_OTP":                    ErrSecondFactorCode,
}

// mapServerSignal converts a backend error signal into a typed SDK error.
func mapServerSignal(signal, description string) *Error {
	if e, ok := serverSignals[signal]; ok {
		if description == "" {
			return e
		}
		return &Error{Code: e.Code, Description: description}
	}

	desc := description
	if desc == "" {
		desc = fmt.Sprintf("unrecognised backend signal %q", signal)
	}
	return &Error{Code: CodeInternal, Description: desc}
}

// CodeOf extracts the Code from err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// sessionInvalidating is the enumerated set of codes that invalidate the
// whole session, not just the attempted operation.
var sessionInvalidating = map[Code]bool{
	CodeInvalidUserToken: true,
	CodeUserTokenExpired: true,
	CodeUserDisabled:     true,
	CodeUserNotFound:     true,
}

// invalidatesSession reports whether err must clear the current session.
func invalidatesSession(err error) bool {
	return err != nil && sessionInvalidating[CodeOf(err)]
}
