package authsdk

import (
	"slices"
	"time"

	"github.com/lumenauth/lumen/pkg/jwtx"
)

// expiryBuffer is subtracted from a token's expiry when deciding whether a
// cached token is still served, so a token is refreshed slightly before it
// actually lapses.
const expiryBuffer = 30 * time.Second

// SecondFactorTOTP is the value TokenState.SignInSecondFactor takes when the
// token's amr claim records a TOTP challenge.
const SecondFactorTOTP = "totp"

// amrTOTP is the amr claim entry the backend records for a TOTP challenge.
const amrTOTP = "otp"

// TokenState is an access/refresh token pair with the claims decoded from
// the access token. Claims are always derived from the token, never set
// independently; the whole value is replaced atomically whenever any RPC
// returns a new token. A forced refresh that returns the same token value is
// a legal no-op.
type TokenState struct {
	AccessToken  string
	RefreshToken string

	// Claims is the raw claim map decoded (unverified) from AccessToken.
	Claims map[string]any

	IssuedAt       time.Time
	AuthTime       time.Time
	ExpirationDate time.Time

	// SignInProvider is the provider used for the sign-in this token
	// descends from, as recorded by the backend.
	SignInProvider string

	// SignInSecondFactor is the second factor used during sign-in, or ""
	// when none was.
	SignInSecondFactor string
}

// newTokenState decodes accessToken and builds a consistent TokenState.
// An undecodable token yields ErrBadResponse: token values come only from
// backend responses, so failing to decode one means the response was broken.
func newTokenState(accessToken, refreshToken string) (*TokenState, error) {
	claims, err := jwtx.DecodeUnverified(accessToken)
	if err != nil {
		return nil, ErrBadResponse
	}

	authTime := jwtx.TimeClaim(claims, "auth_time")
	if authTime.IsZero() {
		authTime = jwtx.TimeClaim(claims, "iat")
	}

	var secondFactor string
	if slices.Contains(jwtx.StringsClaim(claims, "amr"), amrTOTP) {
		secondFactor = SecondFactorTOTP
	}

	return &TokenState{
		AccessToken:        accessToken,
		RefreshToken:       refreshToken,
		Claims:             claims,
		IssuedAt:           jwtx.TimeClaim(claims, "iat"),
		AuthTime:           authTime,
		ExpirationDate:     jwtx.TimeClaim(claims, "exp"),
		SignInProvider:     jwtx.StringClaim(claims, "provider"),
		SignInSecondFactor: secondFactor,
	}, nil
}

// expired reports whether the token should no longer be served from cache.
// Tokens without an exp claim never expire client-side; the backend still
// rejects them when stale.
func (t *TokenState) expired(now time.Time) bool {
	if t.ExpirationDate.IsZero() {
		return false
	}
	return !now.Before(t.ExpirationDate.Add(-expiryBuffer))
}

// clone returns a copy safe to hand to callers. The claim map is shared:
// callers treat it as read-only and the SDK never mutates it after decode.
func (t *TokenState) clone() *TokenState {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
