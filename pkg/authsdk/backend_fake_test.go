package authsdk

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lumenauth/lumen/pkg/slogx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a stateful in-process Backend. It holds one account record
// that SetAccountInfo mutates and GetAccountInfo reads back, so multi-step
// operations see the same consistency a real backend would provide. Every
// method can be scripted to fail with a typed error instead.
type fakeBackend struct {
	mu sync.Mutex

	signingKey []byte

	account      GetAccountInfoResponse
	password     string
	refreshToken string
	refreshSeq   int

	// tokenTTL is the lifetime of minted access tokens.
	tokenTTL time.Duration

	// fixedToken, when set, is served by SecureToken instead of a freshly
	// minted one.
	fixedToken string

	// rotatedRefresh, when set, is returned by SecureToken as a rotated
	// refresh token; otherwise SecureToken omits the field.
	rotatedRefresh string

	isNewUser bool
	mfaSecret string
	mintSeq   int

	errs    map[string]error
	calls   []string
	lastSet *SetAccountInfoRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		signingKey: []byte("fake-backend-signing-key"),
		account: GetAccountInfoResponse{
			LocalID:       "user-1",
			DisplayName:   "Alice",
			Email:         "alice@example.com",
			PhotoURL:      "https://img.example.com/alice.png",
			EmailVerified: true,
			Providers: []ProviderUserInfo{{
				ProviderID:  ProviderPassword,
				FederatedID: "alice@example.com",
				Email:       "alice@example.com",
			}},
			CreatedAt:   "1700000000000",
			LastLoginAt: "1700000500000",
		},
		password:     "correct-horse",
		refreshToken: "refresh-0",
		tokenTTL:     time.Hour,
		errs:         map[string]error{},
	}
}

// fail scripts method to return err on its next calls.
func (f *fakeBackend) fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[method] = err
}

func (f *fakeBackend) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

// note records the call and returns the scripted error, if any. Callers must
// hold f.mu.
func (f *fakeBackend) note(method string) error {
	f.calls = append(f.calls, method)
	return f.errs[method]
}

// mint signs an access token for the fake's account. The jti claim makes
// every minted token distinct even within one clock second.
func (f *fakeBackend) mint(provider string, amr []string) string {
	f.mintSeq++
	now := time.Now()
	claims := jwt.MapClaims{
		"jti":       fmt.Sprintf("token-%d", f.mintSeq),
		"sub":       f.account.LocalID,
		"iat":       now.Unix(),
		"auth_time": now.Unix(),
		"exp":       now.Add(f.tokenTTL).Unix(),
		"provider":  provider,
	}
	if len(amr) > 0 {
		claims["amr"] = amr
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.signingKey)
	if err != nil {
		panic(err)
	}
	return token
}

func (f *fakeBackend) nextRefresh() string {
	f.refreshSeq++
	f.refreshToken = fmt.Sprintf("refresh-%d", f.refreshSeq)
	return f.refreshToken
}

func (f *fakeBackend) VerifyPassword(_ context.Context, req *VerifyPasswordRequest) (*VerifyPasswordResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.note("VerifyPassword"); err != nil {
		return nil, err
	}
	if req.Email != f.account.Email || req.Password != f.password {
		return nil, ErrInvalidCredential
	}
	return &VerifyPasswordResponse{
		IDToken:      f.mint(ProviderPassword, nil),
		RefreshToken: f.nextRefresh(),
		IsNewUser:    f.isNewUser,
	}, nil
}

func (f *fakeBackend) VerifyAssertion(_ context.Context, req *VerifyAssertionRequest) (*VerifyAssertionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.note("VerifyAssertion"); err != nil {
		return nil, err
	}
	return &VerifyAssertionResponse{
		IDToken:      f.mint(req.ProviderID, nil),
		RefreshToken: f.nextRefresh(),
		FederatedID:  "federated-1",
		ProviderID:   req.ProviderID,
		LocalID:      f.account.LocalID,
		DisplayName:  f.account.DisplayName,
		Email:        f.account.Email,
		RawUserInfo:  map[string]any{"login": "alicehub"},
		Username:     "alicehub",
		IsNewUser:    f.isNewUser,
	}, nil
}

func (f *fakeBackend) SetAccountInfo(_ context.Context, req *SetAccountInfoRequest) (*SetAccountInfoResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.note("SetAccountInfo"); err != nil {
		return nil, err
	}

	f.lastSet = req
	if req.Email != nil {
		f.account.Email = *req.Email
	}
	if req.Password != nil {
		f.password = *req.Password
	}
	if req.DisplayName != nil {
		f.account.DisplayName = *req.DisplayName
	}
	if req.PhotoURL != nil {
		f.account.PhotoURL = *req.PhotoURL
	}

	return &SetAccountInfoResponse{
		IDToken:      f.mint(ProviderPassword, nil),
		RefreshToken: f.nextRefresh(),
		Email:        f.account.Email,
	}, nil
}

func (f *fakeBackend) GetAccountInfo(_ context.Context, _ *GetAccountInfoRequest) (*GetAccountInfoResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.note("GetAccountInfo"); err != nil {
		return nil, err
	}

	info := f.account
	info.Providers = append([]ProviderUserInfo(nil), f.account.Providers...)
	return &info, nil
}

func (f *fakeBackend) SecureToken(_ context.Context, _ *SecureTokenRequest) (*SecureTokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.note("SecureToken"); err != nil {
		return nil, err
	}

	token := f.fixedToken
	if token == "" {
		token = f.mint(ProviderPassword, nil)
	}
	return &SecureTokenResponse{
		IDToken:      token,
		RefreshToken: f.rotatedRefresh,
	}, nil
}

func (f *fakeBackend) EnrollMFA(_ context.Context, _ *EnrollMFARequest) (*EnrollMFAResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.note("EnrollMFA"); err != nil {
		return nil, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "lumen",
		AccountName: f.account.Email,
	})
	if err != nil {
		return nil, err
	}
	f.mfaSecret = key.Secret()

	return &EnrollMFAResponse{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
	}, nil
}

func (f *fakeBackend) FinalizeMFA(_ context.Context, req *FinalizeMFARequest) (*FinalizeMFAResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.note("FinalizeMFA"); err != nil {
		return nil, err
	}
	if !totp.Validate(req.Code, f.mfaSecret) {
		return nil, ErrSecondFactorCode
	}
	return &FinalizeMFAResponse{
		IDToken:      f.mint(ProviderPassword, []string{"pwd", "otp"}),
		RefreshToken: f.nextRefresh(),
	}, nil
}

// ============================================================================
// In-memory store
// ============================================================================

type memStore struct {
	mu      sync.Mutex
	archive []byte
	saves   int
	deletes int
}

func (m *memStore) Save(_ context.Context, archive []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archive = append([]byte(nil), archive...)
	m.saves++
	return nil
}

func (m *memStore) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.archive == nil {
		return nil, ErrNoStoredSession
	}
	return append([]byte(nil), m.archive...), nil
}

func (m *memStore) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archive = nil
	m.deletes++
	return nil
}

func (m *memStore) snapshot() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.archive == nil {
		return nil
	}
	return append([]byte(nil), m.archive...)
}

// ============================================================================
// Harness
// ============================================================================

type testEnv struct {
	t       *testing.T
	backend *fakeBackend
	store   *memStore
	coord   *Coordinator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend := newFakeBackend()
	store := &memStore{}
	coord, err := NewCoordinator(Config{
		APIKey:  "test-api-key",
		Backend: backend,
		Store:   store,
		Logger:  slogx.New(slogx.Config{Service: "authsdk-test", Level: "error", Output: io.Discard}),
	})
	require.NoError(t, err)
	t.Cleanup(coord.Close)

	return &testEnv{t: t, backend: backend, store: store, coord: coord}
}

// signIn establishes a password session and waits for the completion.
func (e *testEnv) signIn() *Session {
	e.t.Helper()

	done := make(chan struct{})
	var (
		result *SignInResult
		err    error
	)
	e.coord.SignInWithPassword(context.Background(), "alice@example.com", "correct-horse",
		func(_ context.Context, r *SignInResult, e error) {
			result, err = r, e
			close(done)
		})
	await(e.t, done)

	require.NoError(e.t, err)
	require.NotNil(e.t, result)
	return result.Session
}

func await(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for completion")
	}
}
