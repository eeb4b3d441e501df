package authsdk

import (
	"context"
	"sync"
)

// Session is the in-memory representation of a signed-in identity.
//
// Field reads are safe from any goroutine. Mutation happens only as the
// result of a completed backend round-trip, and only on the coordinator's
// work queue, which serializes mutating operations: partial-field patches
// (update email) and wholesale replacements (reload) never interleave.
//
// All operation completions are invoked exactly once, on the coordinator's
// callback queue regardless of whether the result came from cache or from
// the network.
type Session struct {
	coordinator *Coordinator

	mu            sync.RWMutex
	uid           string
	anonymous     bool
	emailVerified bool
	displayName   string
	email         string
	photoURL      string
	metadata      Metadata
	profiles      map[string]ProviderProfile
	token         *TokenState
}

// UID returns the backend-wide account identifier. Immutable for the life of
// the Session.
func (u *Session) UID() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.uid
}

// ProviderID returns the Session's top-level provider tag. Always
// SessionProviderID; per-provider tags live on the linked ProviderProfiles.
func (u *Session) ProviderID() string { return SessionProviderID }

// IsAnonymous reports whether the session belongs to an anonymous account.
func (u *Session) IsAnonymous() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.anonymous
}

// IsEmailVerified reports whether the backend has verified the account email.
func (u *Session) IsEmailVerified() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.emailVerified
}

// DisplayName returns the account display name, or "".
func (u *Session) DisplayName() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.displayName
}

// Email returns the account email, or "".
func (u *Session) Email() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.email
}

// PhotoURL returns the account photo URL, or "".
func (u *Session) PhotoURL() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.photoURL
}

// Metadata returns the account creation and last sign-in timestamps.
func (u *Session) Metadata() Metadata {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.metadata
}

// RefreshToken returns the session's current refresh token.
func (u *Session) RefreshToken() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.token == nil {
		return ""
	}
	return u.token.RefreshToken
}

// TokenState returns a copy of the current token state.
func (u *Session) TokenState() *TokenState {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.token.clone()
}

// ProviderProfiles returns the linked provider identities. The returned
// slice is a copy in unspecified order.
func (u *Session) ProviderProfiles() []ProviderProfile {
	u.mu.RLock()
	defer u.mu.RUnlock()

	out := make([]ProviderProfile, 0, len(u.profiles))
	for _, p := range u.profiles {
		out = append(out, p)
	}
	return out
}

// ProviderProfile returns the linked identity for one provider.
func (u *Session) ProviderProfile(providerID string) (ProviderProfile, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	p, ok := u.profiles[providerID]
	return p, ok
}

// accessToken returns the current access token for request construction.
func (u *Session) accessToken() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.token == nil {
		return ""
	}
	return u.token.AccessToken
}

// applyToken atomically replaces the session's token state.
func (u *Session) applyToken(ts *TokenState) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.token = ts
}

// applyAccountInfo replaces identity fields and the provider profile set
// wholesale from an account-info response. UID is never patched; it is fixed
// at sign-in.
func (u *Session) applyAccountInfo(info *GetAccountInfoResponse) {
	profiles := make(map[string]ProviderProfile, len(info.Providers))
	for _, p := range info.Providers {
		profiles[p.ProviderID] = ProviderProfile{
			ProviderID:  p.ProviderID,
			UID:         p.FederatedID,
			DisplayName: p.DisplayName,
			Email:       p.Email,
			PhotoURL:    p.PhotoURL,
			PhoneNumber: p.PhoneNumber,
		}
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.displayName = info.DisplayName
	u.email = info.Email
	u.photoURL = info.PhotoURL
	u.emailVerified = info.EmailVerified
	u.profiles = profiles
	u.metadata = Metadata{
		CreationDate:   parseEpochMillis(info.CreatedAt),
		LastSignInDate: parseEpochMillis(info.LastLoginAt),
	}
}

// refreshAccountInfo resyncs identity fields from the backend using the
// session's current access token. This is the single source-of-truth path;
// every successful call replaces the provider profile set wholesale.
func (u *Session) refreshAccountInfo(ctx context.Context) error {
	c := u.coordinator
	info, err := c.backend.GetAccountInfo(ctx, &GetAccountInfoRequest{
		APIKey:      c.apiKey,
		AccessToken: u.accessToken(),
	})
	if err != nil {
		return err
	}

	u.applyAccountInfo(info)
	return nil
}

// run executes op on the coordinator's work queue, applies the auto
// sign-out policy to its result, and delivers exactly one completion on the
// callback queue. Every mutating Session operation funnels through here.
func (u *Session) run(ctx context.Context, op func(ctx context.Context) error, complete func(ctx context.Context, err error)) {
	c := u.coordinator
	c.work.Async(func(workCtx context.Context) {
		err := op(mergeValues(ctx, workCtx))
		c.noteResult(ctx, u, err)
		c.callbacks.Async(func(cbCtx context.Context) {
			if complete != nil {
				complete(cbCtx, err)
			}
		})
	})
}

// mergeValues keeps the caller's cancellation and deadline while adding the
// work queue's identity values.
func mergeValues(caller, queue context.Context) context.Context {
	return &valueCtx{Context: caller, values: queue}
}

type valueCtx struct {
	context.Context
	values context.Context
}

func (c *valueCtx) Value(key any) any {
	if v := c.Context.Value(key); v != nil {
		return v
	}
	return c.values.Value(key)
}
