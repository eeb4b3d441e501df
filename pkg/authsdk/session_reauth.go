package authsdk

import "context"

// Reauthenticate verifies the account's identity again with a fresh
// credential. The result is a transient snapshot of what the backend
// returned, decoupled from the live session: mutating the result touches
// nothing the coordinator tracks.
//
// If the credential resolves to a different account than this session, the
// completion receives ErrUserMismatch and the session is left completely
// unchanged. The session's token state is adopted from the exchange only
// after the uid check passes.
//
// Reauthentication failures never trigger auto sign-out: the round-trip
// proves nothing about the stored session token. A backend user-not-found
// during reauthentication surfaces as ErrUserMismatch.
func (u *Session) Reauthenticate(ctx context.Context, cred Credential, complete func(ctx context.Context, result *SignInResult, err error)) {
	c := u.coordinator
	c.work.Async(func(workCtx context.Context) {
		result, err := c.exchange(mergeValues(ctx, workCtx), cred)

		switch {
		case err != nil:
			if CodeOf(err) == CodeUserNotFound {
				err = ErrUserMismatch
			}

		case result.Session.UID() != u.UID():
			result, err = nil, ErrUserMismatch

		default:
			u.applyToken(result.Session.TokenState())
			c.persist(workCtx, u)
		}

		c.callbacks.Async(func(cbCtx context.Context) {
			if complete != nil {
				complete(cbCtx, result, err)
			}
		})
	})
}
