package authsdk

import "context"

// Backend is the network collaborator the SDK drives. RESTBackend is the
// production implementation; tests substitute a scripted fake.
//
// Every method either returns a response or a *Error carrying one of the
// closed set of Codes. Implementations must map each distinct backend signal
// to exactly one Code and must never drop an error silently.
type Backend interface {
	// VerifyPassword exchanges an email/password pair for a token pair.
	VerifyPassword(ctx context.Context, req *VerifyPasswordRequest) (*VerifyPasswordResponse, error)

	// VerifyAssertion exchanges a provider assertion (OAuth tokens) for a
	// token pair plus federated identity data.
	VerifyAssertion(ctx context.Context, req *VerifyAssertionRequest) (*VerifyAssertionResponse, error)

	// SetAccountInfo updates account attributes. Nil optional fields are
	// omitted from the wire request entirely.
	SetAccountInfo(ctx context.Context, req *SetAccountInfoRequest) (*SetAccountInfoResponse, error)

	// GetAccountInfo fetches the authoritative account record.
	GetAccountInfo(ctx context.Context, req *GetAccountInfoRequest) (*GetAccountInfoResponse, error)

	// SecureToken exchanges a refresh token for a fresh access token.
	SecureToken(ctx context.Context, req *SecureTokenRequest) (*SecureTokenResponse, error)

	// EnrollMFA begins TOTP second-factor enrollment for the account.
	EnrollMFA(ctx context.Context, req *EnrollMFARequest) (*EnrollMFAResponse, error)

	// FinalizeMFA completes TOTP enrollment with a code from the
	// authenticator app.
	FinalizeMFA(ctx context.Context, req *FinalizeMFARequest) (*FinalizeMFAResponse, error)
}

// ============================================================================
// Credential exchange
// ============================================================================

type VerifyPasswordRequest struct {
	APIKey   string `json:"-"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyPasswordResponse struct {
	// IDToken is the access token for the signed-in account.
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	IsNewUser    bool   `json:"is_new_user"`
}

type VerifyAssertionRequest struct {
	APIKey     string `json:"-"`
	ProviderID string `json:"provider_id"`

	// IDToken and AccessToken are the provider's tokens; which are set
	// depends on the provider.
	IDToken     string `json:"provider_id_token,omitempty"`
	AccessToken string `json:"provider_access_token,omitempty"`
}

type VerifyAssertionResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`

	// FederatedID is the account's identity within the provider.
	FederatedID string `json:"federated_id"`
	ProviderID  string `json:"provider_id"`

	// LocalID is the backend-wide account id.
	LocalID     string `json:"local_id"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`

	// RawUserInfo is the provider's profile payload, passed through opaque.
	RawUserInfo map[string]any `json:"raw_user_info,omitempty"`
	Username    string         `json:"username,omitempty"`
	IsNewUser   bool           `json:"is_new_user"`
}

// ============================================================================
// Account info
// ============================================================================

type SetAccountInfoRequest struct {
	APIKey      string `json:"-"`
	AccessToken string `json:"access_token"`

	// Optional attribute updates. Nil means "leave unchanged" and is omitted
	// from the serialized request.
	Email       *string `json:"email,omitempty"`
	Password    *string `json:"password,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	PhotoURL    *string `json:"photo_url,omitempty"`

	DeleteAttributes []string `json:"delete_attributes,omitempty"`
	DeleteProviders  []string `json:"delete_providers,omitempty"`
}

type SetAccountInfoResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	Email        string `json:"email,omitempty"`
}

type GetAccountInfoRequest struct {
	APIKey      string `json:"-"`
	AccessToken string `json:"access_token"`
}

// ProviderUserInfo is a linked provider identity as reported by the backend.
type ProviderUserInfo struct {
	ProviderID  string `json:"provider_id"`
	FederatedID string `json:"federated_id"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type GetAccountInfoResponse struct {
	LocalID       string             `json:"local_id"`
	DisplayName   string             `json:"display_name,omitempty"`
	Email         string             `json:"email,omitempty"`
	PhotoURL      string             `json:"photo_url,omitempty"`
	EmailVerified bool               `json:"email_verified"`
	PasswordHash  string             `json:"password_hash,omitempty"`
	Providers     []ProviderUserInfo `json:"provider_user_info,omitempty"`

	// CreatedAt and LastLoginAt are epoch-millisecond strings.
	CreatedAt   string `json:"created_at,omitempty"`
	LastLoginAt string `json:"last_login_at,omitempty"`
}

// ============================================================================
// Token refresh
// ============================================================================

type SecureTokenRequest struct {
	APIKey       string `json:"-"`
	RefreshToken string `json:"refresh_token"`
	ForceRefresh bool   `json:"force_refresh,omitempty"`
}

type SecureTokenResponse struct {
	IDToken string `json:"id_token"`

	// RefreshToken is set only when the backend rotated it.
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ============================================================================
// Second factor
// ============================================================================

type EnrollMFARequest struct {
	APIKey      string `json:"-"`
	AccessToken string `json:"access_token"`
}

type EnrollMFAResponse struct {
	// Secret is the base32 TOTP shared secret. It exists client-side only
	// for the duration of the enrollment window.
	Secret string `json:"secret"`

	// ProvisioningURI is the otpauth:// URI for authenticator apps.
	ProvisioningURI string `json:"provisioning_uri"`
}

type FinalizeMFARequest struct {
	APIKey      string `json:"-"`
	AccessToken string `json:"access_token"`
	Code        string `json:"code"`
}

type FinalizeMFAResponse struct {
	// IDToken and RefreshToken are set when the backend reissued the token
	// pair with the second factor recorded.
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}
