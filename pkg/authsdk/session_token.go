package authsdk

import (
	"context"
	"time"
)

// IDTokenResult delivers the session's current token state, refreshing it
// first when forceRefresh is set or the cached token has expired. The cached
// path contacts no backend but still delivers its completion on the callback
// queue like every other operation.
//
// A forced refresh that returns the same token value is a success, not an
// error: the backend is free to serve an unexpired token again.
func (u *Session) IDTokenResult(ctx context.Context, forceRefresh bool, complete func(ctx context.Context, result *TokenState, err error)) {
	var result *TokenState
	u.run(ctx, func(ctx context.Context) error {
		// A restored session may carry no token state at all; treat that
		// like an expired token and go to the backend.
		cached := u.TokenState()
		if cached != nil && !forceRefresh && !cached.expired(time.Now()) {
			result = cached
			return nil
		}

		ts, err := u.refreshToken(ctx, forceRefresh)
		if err != nil {
			return err
		}
		result = ts.clone()
		return nil
	}, func(ctx context.Context, err error) {
		if complete != nil {
			complete(ctx, result, err)
		}
	})
}

// refreshToken exchanges the refresh token for a fresh access token and
// atomically replaces the session's token state. Runs on the work queue.
func (u *Session) refreshToken(ctx context.Context, force bool) (*TokenState, error) {
	c := u.coordinator
	resp, err := c.backend.SecureToken(ctx, &SecureTokenRequest{
		APIKey:       c.apiKey,
		RefreshToken: u.RefreshToken(),
		ForceRefresh: force,
	})
	if err != nil {
		return nil, err
	}

	refresh := resp.RefreshToken
	if refresh == "" {
		// Backend kept the refresh token; carry the current one forward.
		refresh = u.RefreshToken()
	}

	ts, err := newTokenState(resp.IDToken, refresh)
	if err != nil {
		return nil, err
	}

	u.applyToken(ts)
	return ts, nil
}
