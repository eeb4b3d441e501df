package authsdk

import (
	"strconv"
	"time"
)

// ProviderProfile is the linked-identity record for one provider attached to
// a Session. Profiles are keyed by ProviderID within a Session and replaced
// wholesale on every successful reload or account refresh; they are never
// partially merged.
type ProviderProfile struct {
	// ProviderID tags which provider this identity belongs to.
	ProviderID string `json:"provider_id"`

	// UID is the identity within that provider. Distinct from Session.UID:
	// for the password provider it is the email address, for OAuth providers
	// the federated id.
	UID string `json:"uid"`

	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// Metadata carries account timestamps reported by the backend.
type Metadata struct {
	CreationDate   time.Time `json:"creation_date"`
	LastSignInDate time.Time `json:"last_sign_in_date"`
}

// parseEpochMillis decodes the backend's epoch-millisecond string timestamps.
// Empty or malformed values return the zero time.
func parseEpochMillis(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}

	return time.UnixMilli(ms).UTC()
}
