package authsdk

import (
	"context"
	"testing"

	"github.com/lumenauth/lumen/pkg/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runOp invokes a Session operation and waits for its completion, returning
// the queue identity the completion was delivered on and its error.
func runOp(t *testing.T, op func(complete func(ctx context.Context, err error))) (string, error) {
	t.Helper()

	done := make(chan struct{})
	var (
		opErr error
		cbID  string
	)
	op(func(ctx context.Context, err error) {
		opErr = err
		cbID = dispatch.QueueID(ctx).String()
		close(done)
	})
	await(t, done)
	return cbID, opErr
}

func TestUpdateEmail(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	session := env.signIn()
	oldToken := session.TokenState().AccessToken

	// A display name edited elsewhere while we change the email.
	env.backend.mu.Lock()
	env.backend.account.DisplayName = "Alice Renamed"
	env.backend.mu.Unlock()

	cbID, err := runOp(t, func(complete func(ctx context.Context, err error)) {
		session.UpdateEmail(context.Background(), "new@example.com", complete)
	})
	require.NoError(t, err)
	assert.Equal(t, env.coord.Callbacks().ID().String(), cbID)

	assert.Equal(t, "new@example.com", session.Email())

	// The post-update refresh made the unrelated server-side drift visible.
	assert.Equal(t, "Alice Renamed", session.DisplayName())

	// The token pair returned by the update was adopted.
	assert.NotEqual(t, oldToken, session.TokenState().AccessToken)

	// Only the email was sent on the wire.
	set := env.backend.lastSet
	require.NotNil(t, set)
	require.NotNil(t, set.Email)
	assert.Equal(t, "new@example.com", *set.Email)
	assert.Nil(t, set.Password)
	assert.Nil(t, set.DisplayName)
	assert.Nil(t, set.PhotoURL)
}

func TestUpdateEmailRejectedLeavesSessionUntouched(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	session := env.signIn()
	env.backend.fail("SetAccountInfo", ErrInvalidEmail)

	_, err := runOp(t, func(complete func(ctx context.Context, err error)) {
		session.UpdateEmail(context.Background(), "not-an-email", complete)
	})
	require.ErrorIs(t, err, ErrInvalidEmail)

	assert.Equal(t, "alice@example.com", session.Email())
	assert.Same(t, session, env.coord.CurrentSession())
}

func TestUpdateEmailInvalidTokenSignsOutBeforeCompletion(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	session := env.signIn()
	env.backend.fail("SetAccountInfo", ErrInvalidUserToken)

	done := make(chan struct{})
	var (
		opErr           error
		currentAtNotify *Session
		storedAtNotify  []byte
	)
	session.UpdateEmail(context.Background(), "new@example.com",
		func(_ context.Context, err error) {
			// Captured inside the completion: sign-out has already happened.
			opErr = err
			currentAtNotify = env.coord.CurrentSession()
			storedAtNotify = env.store.snapshot()
			close(done)
		})
	await(t, done)

	require.ErrorIs(t, opErr, ErrInvalidUserToken)
	assert.Nil(t, currentAtNotify)
	assert.Nil(t, storedAtNotify)
}

func TestUpdatePassword(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	session := env.signIn()

	_, err := runOp(t, func(complete func(ctx context.Context, err error)) {
		session.UpdatePassword(context.Background(), "battery-staple", complete)
	})
	require.NoError(t, err)

	env.backend.mu.Lock()
	newPassword := env.backend.password
	env.backend.mu.Unlock()
	assert.Equal(t, "battery-staple", newPassword)
}

func TestUpdatePasswordWeakPassword(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	session := env.signIn()
	env.backend.fail("SetAccountInfo", ErrWeakPassword)

	_, err := runOp(t, func(complete func(ctx context.Context, err error)) {
		session.UpdatePassword(context.Background(), "123", complete)
	})
	require.ErrorIs(t, err, ErrWeakPassword)
	assert.Same(t, session, env.coord.CurrentSession())
}

func TestUpdatePasswordRequiresRecentLogin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	session := env.signIn()
	env.backend.fail("SetAccountInfo", ErrRequiresRecentLogin)

	_, err := runOp(t, func(complete func(ctx context.Context, err error)) {
		session.UpdatePassword(context.Background(), "battery-staple", complete)
	})
	require.ErrorIs(t, err, ErrRequiresRecentLogin)

	// A stale sign-in fails the operation but never the session.
	assert.Same(t, session, env.coord.CurrentSession())
}

func TestProfileChangeCommit(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	session := env.signIn()

	change := session.NewProfileChangeRequest()
	change.SetDisplayName("Alice B.")

	_, err := runOp(t, func(complete func(ctx context.Context, err error)) {
		change.Commit(context.Background(), complete)
	})
	require.NoError(t, err)

	assert.Equal(t, "Alice B.", session.DisplayName())
	assert.Equal(t, "alice@example.com", session.Email())

	// Photo URL was never staged, so it was not sent.
	set := env.backend.lastSet
	require.NotNil(t, set)
	assert.Nil(t, set.PhotoURL)
	assert.Nil(t, set.Email)
}

func TestProfileChangeClearsWithEmptyString(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	session := env.signIn()

	change := session.NewProfileChangeRequest()
	change.SetPhotoURL("")

	_, err := runOp(t, func(complete func(ctx context.Context, err error)) {
		change.Commit(context.Background(), complete)
	})
	require.NoError(t, err)

	// "" was sent explicitly, distinct from not staging the field at all.
	set := env.backend.lastSet
	require.NotNil(t, set)
	require.NotNil(t, set.PhotoURL)
	assert.Equal(t, "", *set.PhotoURL)
	assert.Equal(t, "", session.PhotoURL())
}

func TestProfileChangeUserNotFoundSignsOut(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	session := env.signIn()
	env.backend.fail("SetAccountInfo", ErrUserNotFound)

	change := session.NewProfileChangeRequest()
	change.SetDisplayName("Ghost")

	_, err := runOp(t, func(complete func(ctx context.Context, err error)) {
		change.Commit(context.Background(), complete)
	})
	require.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, env.coord.CurrentSession())
}

func TestReloadReplacesProfilesWholesale(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	session := env.signIn()

	_, ok := session.ProviderProfile(ProviderPassword)
	require.True(t, ok)

	// The account got relinked server-side: password identity gone, GitHub in.
	env.backend.mu.Lock()
	env.backend.account.Providers = []ProviderUserInfo{{
		ProviderID:  ProviderGitHub,
		FederatedID: "gh-99",
		DisplayName: "alicehub",
	}}
	env.backend.account.EmailVerified = false
	env.backend.mu.Unlock()

	_, err := runOp(t, func(complete func(ctx context.Context, err error)) {
		session.Reload(context.Background(), complete)
	})
	require.NoError(t, err)

	_, ok = session.ProviderProfile(ProviderPassword)
	assert.False(t, ok, "stale provider profile survived a reload")

	gh, ok := session.ProviderProfile(ProviderGitHub)
	require.True(t, ok)
	assert.Equal(t, "gh-99", gh.UID)
	assert.False(t, session.IsEmailVerified())
}

func TestReloadQuotaExceededKeepsSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	session := env.signIn()
	env.backend.fail("GetAccountInfo", ErrQuotaExceeded)

	_, err := runOp(t, func(complete func(ctx context.Context, err error)) {
		session.Reload(context.Background(), complete)
	})
	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Same(t, session, env.coord.CurrentSession())
}

func TestReloadTokenExpiredSignsOut(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	session := env.signIn()
	env.backend.fail("GetAccountInfo", ErrUserTokenExpired)

	_, err := runOp(t, func(complete func(ctx context.Context, err error)) {
		session.Reload(context.Background(), complete)
	})
	require.ErrorIs(t, err, ErrUserTokenExpired)
	assert.Nil(t, env.coord.CurrentSession())
	assert.Nil(t, env.store.snapshot())
}

func TestAutoSignOutSparesReplacedSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	first := env.signIn()
	second := env.signIn()

	// A failure on a session that is no longer current must not sign out
	// the one that replaced it.
	env.backend.fail("GetAccountInfo", ErrUserDisabled)

	_, err := runOp(t, func(complete func(ctx context.Context, err error)) {
		first.Reload(context.Background(), complete)
	})
	require.ErrorIs(t, err, ErrUserDisabled)
	assert.Same(t, second, env.coord.CurrentSession())
}

func TestMutationsRunInSubmissionOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	session := env.signIn()

	done := make(chan struct{})
	var order []string
	session.UpdateEmail(context.Background(), "first@example.com",
		func(context.Context, error) { order = append(order, "email") })
	session.UpdatePassword(context.Background(), "second-password",
		func(context.Context, error) { order = append(order, "password") })
	session.Reload(context.Background(), func(context.Context, error) {
		order = append(order, "reload")
		close(done)
	})
	await(t, done)

	// Completions run on the serial callback queue in operation order, so
	// appending without locks is safe here.
	assert.Equal(t, []string{"email", "password", "reload"}, order)
	assert.Equal(t, "first@example.com", session.Email())
}
