package authsdk

import "context"

// UpdateEmail asks the backend to change the account email and patches the
// session on success. Email validation is entirely the backend's job; the
// SDK sends whatever it is given.
//
// On success the session's identity fields are refreshed from the backend,
// so unrelated server-side changes (a display name edited elsewhere) become
// visible as a side effect.
func (u *Session) UpdateEmail(ctx context.Context, newEmail string, complete func(ctx context.Context, err error)) {
	u.run(ctx, func(ctx context.Context) error {
		return u.setAccountInfo(ctx, &SetAccountInfoRequest{Email: &newEmail})
	}, complete)
}

// UpdatePassword asks the backend to change the account password. No session
// field is patched directly, but the post-update account refresh can surface
// server-side drift the same way UpdateEmail does.
func (u *Session) UpdatePassword(ctx context.Context, newPassword string, complete func(ctx context.Context, err error)) {
	u.run(ctx, func(ctx context.Context) error {
		return u.setAccountInfo(ctx, &SetAccountInfoRequest{Password: &newPassword})
	}, complete)
}

// setAccountInfo performs one account mutation round-trip: send the change
// with the current access token, adopt the returned token pair, then resync
// identity fields. Runs on the work queue.
func (u *Session) setAccountInfo(ctx context.Context, req *SetAccountInfoRequest) error {
	c := u.coordinator
	req.APIKey = c.apiKey
	req.AccessToken = u.accessToken()

	resp, err := c.backend.SetAccountInfo(ctx, req)
	if err != nil {
		return err
	}

	ts, err := newTokenState(resp.IDToken, resp.RefreshToken)
	if err != nil {
		return err
	}
	u.applyToken(ts)

	return u.refreshAccountInfo(ctx)
}

// ============================================================================
// Profile changes
// ============================================================================

// ProfileChangeRequest accumulates profile attribute changes so that a
// single commit sends exactly the fields the caller set. Unset fields are
// omitted from the wire request, not sent as empty values.
//
// A ProfileChangeRequest is not safe for concurrent use and is consumed by
// its Commit call.
type ProfileChangeRequest struct {
	u           *Session
	displayName *string
	photoURL    *string
}

// NewProfileChangeRequest starts an empty profile change against u.
func (u *Session) NewProfileChangeRequest() *ProfileChangeRequest {
	return &ProfileChangeRequest{u: u}
}

// SetDisplayName stages a display name change. Setting "" clears the name.
func (p *ProfileChangeRequest) SetDisplayName(name string) {
	p.displayName = &name
}

// SetPhotoURL stages a photo URL change. Setting "" clears the URL.
func (p *ProfileChangeRequest) SetPhotoURL(url string) {
	p.photoURL = &url
}

// Commit sends the staged changes. Staging nothing is a valid no-op commit;
// the backend sees an empty update.
func (p *ProfileChangeRequest) Commit(ctx context.Context, complete func(ctx context.Context, err error)) {
	u := p.u
	u.run(ctx, func(ctx context.Context) error {
		return u.setAccountInfo(ctx, &SetAccountInfoRequest{
			DisplayName: p.displayName,
			PhotoURL:    p.photoURL,
		})
	}, complete)
}
