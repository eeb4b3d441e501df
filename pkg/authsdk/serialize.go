package authsdk

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// archiveSchemaVersion is bumped whenever the archive layout changes in a
// way old readers cannot handle. Decoders reject versions they don't know.
const archiveSchemaVersion = 1

// sessionArchive is the serialized form of a Session. Every field of the
// session survives a round-trip bit-for-bit; token claims are not stored
// because they re-derive from the access token on decode.
type sessionArchive struct {
	SchemaVersion int `json:"schema_version"`

	UID           string            `json:"uid"`
	Anonymous     bool              `json:"anonymous"`
	EmailVerified bool              `json:"email_verified"`
	DisplayName   string            `json:"display_name,omitempty"`
	Email         string            `json:"email,omitempty"`
	PhotoURL      string            `json:"photo_url,omitempty"`
	CreationDate  time.Time         `json:"creation_date"`
	LastSignIn    time.Time         `json:"last_sign_in_date"`
	Profiles      []ProviderProfile `json:"provider_profiles,omitempty"`
	AccessToken   string            `json:"access_token"`
	RefreshToken  string            `json:"refresh_token"`
}

// EncodeSession serializes u into a versioned archive.
func EncodeSession(u *Session) ([]byte, error) {
	u.mu.RLock()
	arch := sessionArchive{
		SchemaVersion: archiveSchemaVersion,
		UID:           u.uid,
		Anonymous:     u.anonymous,
		EmailVerified: u.emailVerified,
		DisplayName:   u.displayName,
		Email:         u.email,
		PhotoURL:      u.photoURL,
		CreationDate:  u.metadata.CreationDate,
		LastSignIn:    u.metadata.LastSignInDate,
		Profiles:      make([]ProviderProfile, 0, len(u.profiles)),
	}
	for _, p := range u.profiles {
		arch.Profiles = append(arch.Profiles, p)
	}
	if u.token != nil {
		arch.AccessToken = u.token.AccessToken
		arch.RefreshToken = u.token.RefreshToken
	}
	u.mu.RUnlock()

	// Stable profile order keeps archives byte-comparable across encodes.
	sort.Slice(arch.Profiles, func(i, j int) bool {
		return arch.Profiles[i].ProviderID < arch.Profiles[j].ProviderID
	})

	data, err := json.Marshal(arch)
	if err != nil {
		return nil, fmt.Errorf("authsdk: failed to encode session: %w", err)
	}
	return data, nil
}

// DecodeSession reconstructs a Session from an archive produced by
// EncodeSession. Corrupt payloads and unknown schema versions return
// ErrArchiveDecode; the coordinator's state is untouched either way.
func (c *Coordinator) DecodeSession(archive []byte) (*Session, error) {
	var arch sessionArchive
	if err := json.Unmarshal(archive, &arch); err != nil {
		return nil, ErrArchiveDecode
	}
	if arch.SchemaVersion != archiveSchemaVersion {
		return nil, &Error{
			Code:        CodeArchiveDecode,
			Description: fmt.Sprintf("unsupported session archive version %d", arch.SchemaVersion),
		}
	}
	if arch.UID == "" {
		return nil, ErrArchiveDecode
	}

	var token *TokenState
	if arch.AccessToken != "" {
		ts, err := newTokenState(arch.AccessToken, arch.RefreshToken)
		if err != nil {
			return nil, ErrArchiveDecode
		}
		token = ts
	}

	profiles := make(map[string]ProviderProfile, len(arch.Profiles))
	for _, p := range arch.Profiles {
		profiles[p.ProviderID] = p
	}

	return &Session{
		coordinator:   c,
		uid:           arch.UID,
		anonymous:     arch.Anonymous,
		emailVerified: arch.EmailVerified,
		displayName:   arch.DisplayName,
		email:         arch.Email,
		photoURL:      arch.PhotoURL,
		metadata: Metadata{
			CreationDate:   arch.CreationDate,
			LastSignInDate: arch.LastSignIn,
		},
		profiles: profiles,
		token:    token,
	}, nil
}
