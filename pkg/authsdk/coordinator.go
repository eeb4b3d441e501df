package authsdk

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lumenauth/lumen/pkg/dispatch"
	"github.com/lumenauth/lumen/pkg/slogx"
)

// SessionStore is the persistence collaborator boundary. Implementations
// hold one serialized session archive; sessionstore.Store is the reference
// implementation. A nil store keeps sessions in memory only.
type SessionStore interface {
	Save(ctx context.Context, archive []byte) error
	Load(ctx context.Context) ([]byte, error)
	Delete(ctx context.Context) error
}

// ErrNoStoredSession is returned by SessionStore.Load when nothing has been
// saved.
var ErrNoStoredSession = errors.New("authsdk: no stored session")

// Config configures a Coordinator.
type Config struct {
	// APIKey identifies the calling application to the backend. Required.
	APIKey string

	// Backend is the network collaborator. Required.
	Backend Backend

	// Store persists the current session across process restarts. Optional.
	Store SessionStore

	// Logger receives structured SDK logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// Coordinator owns the process-wide "current session" (at most one) and
// routes every state transition through the backend contract. It is the only
// writer of the current-session pointer.
//
// Two serial queues drive it: the work queue serializes every operation that
// can patch a Session, and the callback queue is the single fixed context
// all completions are delivered on.
type Coordinator struct {
	apiKey  string
	backend Backend
	store   SessionStore
	log     *slog.Logger

	work      *dispatch.Queue
	callbacks *dispatch.Queue

	mu      sync.Mutex
	current *Session
}

// NewCoordinator validates cfg and starts the coordinator's queues. If a
// store is configured and holds a decodable session archive, that session
// becomes current immediately; a corrupt archive is logged and discarded
// rather than failing construction.
func NewCoordinator(cfg Config) (*Coordinator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("authsdk: config requires an APIKey")
	}
	if cfg.Backend == nil {
		return nil, errors.New("authsdk: config requires a Backend")
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	c := &Coordinator{
		apiKey:    cfg.APIKey,
		backend:   cfg.Backend,
		store:     cfg.Store,
		log:       log,
		work:      dispatch.NewQueue("authsdk-work"),
		callbacks: dispatch.NewQueue("authsdk-callbacks"),
	}

	c.restore()
	return c, nil
}

// Close stops the coordinator's queues after draining in-flight operations.
// The coordinator must not be used afterwards.
func (c *Coordinator) Close() {
	c.work.Close()
	c.callbacks.Close()
}

// Callbacks returns the completion delivery queue. Tests use its identity to
// verify the delivery contract.
func (c *Coordinator) Callbacks() *dispatch.Queue { return c.callbacks }

// CurrentSession returns the current session, or nil when signed out.
func (c *Coordinator) CurrentSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SignOut clears the current session and deletes any persisted archive.
// Signing out while already signed out is a no-op.
func (c *Coordinator) SignOut() {
	c.mu.Lock()
	was := c.current
	c.current = nil
	c.mu.Unlock()

	if was != nil && c.store != nil {
		if err := c.store.Delete(context.Background()); err != nil {
			c.log.Warn("failed to delete persisted session", "err", err)
		}
	}
}

// ============================================================================
// Sign-in
// ============================================================================

// SignInResult is what a credential exchange returned. For sign-in, Session
// is the live current session; for reauthentication it is a transient
// snapshot.
type SignInResult struct {
	Session            *Session
	AdditionalUserInfo *AdditionalUserInfo
}

// AdditionalUserInfo carries per-exchange data that is not part of the
// Session itself.
type AdditionalUserInfo struct {
	ProviderID string
	Username   string

	// Profile is the provider's raw profile payload, opaque to the SDK.
	Profile map[string]any

	IsNewUser bool
}

// SignInWithPassword establishes a session from an email/password pair. On
// success the new session becomes current, replacing any previous one; on
// failure the coordinator's state is untouched.
func (c *Coordinator) SignInWithPassword(ctx context.Context, email, password string, complete func(ctx context.Context, result *SignInResult, err error)) {
	c.SignInWithCredential(ctx, PasswordCredential(email, password), complete)
}

// SignInWithCredential establishes a session from any provider credential.
func (c *Coordinator) SignInWithCredential(ctx context.Context, cred Credential, complete func(ctx context.Context, result *SignInResult, err error)) {
	c.work.Async(func(workCtx context.Context) {
		result, err := c.exchange(mergeValues(ctx, workCtx), cred)
		if err == nil {
			c.setCurrent(result.Session)
			c.persist(workCtx, result.Session)
		}

		c.callbacks.Async(func(cbCtx context.Context) {
			if complete != nil {
				complete(cbCtx, result, err)
			}
		})
	})
}

// exchange verifies a credential with the backend and builds a Session from
// the resulting token pair plus a fresh account lookup. The session is not
// registered as current; callers decide that. Runs on the work queue.
func (c *Coordinator) exchange(ctx context.Context, cred Credential) (*SignInResult, error) {
	var (
		idToken, refreshToken string
		additional            *AdditionalUserInfo
	)

	switch cred.ProviderID() {
	case ProviderPassword:
		resp, err := c.backend.VerifyPassword(ctx, &VerifyPasswordRequest{
			APIKey:   c.apiKey,
			Email:    cred.email,
			Password: cred.password,
		})
		if err != nil {
			return nil, err
		}
		idToken, refreshToken = resp.IDToken, resp.RefreshToken
		additional = &AdditionalUserInfo{
			ProviderID: ProviderPassword,
			IsNewUser:  resp.IsNewUser,
		}

	default:
		resp, err := c.backend.VerifyAssertion(ctx, &VerifyAssertionRequest{
			APIKey:      c.apiKey,
			ProviderID:  cred.ProviderID(),
			IDToken:     cred.idToken,
			AccessToken: cred.accessToken,
		})
		if err != nil {
			return nil, err
		}
		idToken, refreshToken = resp.IDToken, resp.RefreshToken
		additional = &AdditionalUserInfo{
			ProviderID: resp.ProviderID,
			Username:   resp.Username,
			Profile:    resp.RawUserInfo,
			IsNewUser:  resp.IsNewUser,
		}
	}

	ts, err := newTokenState(idToken, refreshToken)
	if err != nil {
		return nil, err
	}

	info, err := c.backend.GetAccountInfo(ctx, &GetAccountInfoRequest{
		APIKey:      c.apiKey,
		AccessToken: ts.AccessToken,
	})
	if err != nil {
		return nil, err
	}

	session := &Session{coordinator: c, uid: info.LocalID}
	session.applyToken(ts)
	session.applyAccountInfo(info)

	c.log.Debug("credential exchange complete",
		"provider", cred.ProviderID(),
		"new_user", additional.IsNewUser,
	)

	return &SignInResult{Session: session, AdditionalUserInfo: additional}, nil
}

// ============================================================================
// Result policy
// ============================================================================

// setCurrent installs s as the current session.
func (c *Coordinator) setCurrent(s *Session) {
	c.mu.Lock()
	c.current = s
	c.mu.Unlock()
}

// noteResult applies the auto sign-out policy after a session operation and
// persists successful patches. It runs on the work queue, strictly before
// the operation's completion is enqueued, so completion handlers always
// observe the post-sign-out state.
func (c *Coordinator) noteResult(ctx context.Context, u *Session, err error) {
	if err == nil {
		if c.CurrentSession() == u {
			c.persist(ctx, u)
		}
		return
	}

	if !invalidatesSession(err) {
		return
	}

	c.mu.Lock()
	isCurrent := c.current == u
	if isCurrent {
		c.current = nil
	}
	c.mu.Unlock()

	if !isCurrent {
		return
	}

	c.log.Info("session invalidated, signing out", "code", CodeOf(err))
	if c.store != nil {
		if err := c.store.Delete(context.Background()); err != nil {
			c.log.Warn("failed to delete persisted session", "err", err)
		}
	}
}

// persist writes the session archive through the store, if one is set.
func (c *Coordinator) persist(ctx context.Context, u *Session) {
	if c.store == nil {
		return
	}

	archive, err := EncodeSession(u)
	if err != nil {
		c.log.Warn("failed to encode session for persistence", "err", err)
		return
	}

	if err := c.store.Save(ctx, archive); err != nil {
		c.log.Warn("failed to persist session", "err", err)
	}
}

// restore loads a previously persisted session, if any.
func (c *Coordinator) restore() {
	if c.store == nil {
		return
	}

	ctx := slogx.WithContext(context.Background(), c.log)
	archive, err := c.store.Load(ctx)
	if errors.Is(err, ErrNoStoredSession) {
		return
	}
	if err != nil {
		c.log.Warn("failed to load persisted session", "err", err)
		return
	}

	session, err := c.DecodeSession(archive)
	if err != nil {
		c.log.Warn("discarding undecodable session archive", "err", err)
		return
	}

	c.setCurrent(session)
	c.log.Debug("restored persisted session", "uid", session.UID())
}
