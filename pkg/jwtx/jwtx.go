// Package jwtx decodes claims from backend-issued access tokens.
//
// The SDK is a client: it does not hold the backend's signing keys, so tokens
// are decoded without signature verification. Trust comes from the TLS channel
// the token arrived on; verification is the backend's job on every RPC.
package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed reports a token that could not be decoded at all.
var ErrMalformed = errors.New("jwtx: malformed token")

// DecodeUnverified returns the raw claim map of a JWT without verifying its
// signature.
func DecodeUnverified(token string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return map[string]any(claims), nil
}

// StringClaim returns the named claim as a string, or "" when absent or not
// a string.
func StringClaim(claims map[string]any, name string) string {
	s, _ := claims[name].(string)
	return s
}

// StringsClaim returns the named claim as a string slice. JSON arrays decode
// as []any, so each element is converted individually.
func StringsClaim(claims map[string]any, name string) []string {
	raw, ok := claims[name].([]any)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// TimeClaim returns the named claim interpreted as seconds since the epoch.
// Absent or non-numeric claims return the zero time.
func TimeClaim(claims map[string]any, name string) time.Time {
	switch v := claims[name].(type) {
	case float64:
		return time.Unix(int64(v), 0).UTC()
	case int64:
		return time.Unix(v, 0).UTC()
	case jwt.NumericDate:
		return v.Time.UTC()
	default:
		return time.Time{}
	}
}
