package authsdk

// Provider identifiers. The set is open: backends may support providers the
// SDK has no dedicated factory for, reached via CustomCredential.
const (
	// ProviderPassword identifies email/password sign-in.
	ProviderPassword = "password"

	// ProviderGitHub identifies GitHub OAuth sign-in.
	ProviderGitHub = "github.com"

	// ProviderGoogle identifies Google OAuth sign-in.
	ProviderGoogle = "google.com"

	// SessionProviderID is the top-level provider tag carried by every
	// Session, independent of how it was established.
	SessionProviderID = "lumen"
)

// Credential is an opaque, provider-tagged proof of identity. It is immutable
// once built and consumed by a single sign-in or reauthenticate call. A
// Credential is never persisted; only its effect on a Session is.
//
// Payloads are opaque to the SDK. Malformed tokens or empty passwords pass
// through untouched; validating them is the backend's job.
type Credential struct {
	providerID  string
	email       string
	password    string
	idToken     string
	accessToken string
}

// ProviderID returns the credential's provider tag.
func (c Credential) ProviderID() string { return c.providerID }

// PasswordCredential builds an email/password credential.
func PasswordCredential(email, password string) Credential {
	return Credential{
		providerID: ProviderPassword,
		email:      email,
		password:   password,
	}
}

// GitHubCredential builds a credential from a GitHub OAuth access token.
func GitHubCredential(token string) Credential {
	return Credential{
		providerID:  ProviderGitHub,
		accessToken: token,
	}
}

// GoogleCredential builds a credential from a Google ID token and OAuth
// access token pair.
func GoogleCredential(idToken, accessToken string) Credential {
	return Credential{
		providerID:  ProviderGoogle,
		idToken:     idToken,
		accessToken: accessToken,
	}
}

// CustomCredential builds a credential for a provider the SDK has no
// dedicated factory for. The provider tag is passed to the backend verbatim.
func CustomCredential(providerID, idToken, accessToken string) Credential {
	return Credential{
		providerID:  providerID,
		idToken:     idToken,
		accessToken: accessToken,
	}
}
