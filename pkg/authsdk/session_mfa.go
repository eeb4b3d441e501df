package authsdk

import (
	"context"

	"github.com/pquerna/otp/totp"
)

// MFAEnrollment is the state of an in-progress TOTP second-factor
// enrollment. The shared secret exists client-side only for the enrollment
// window; once ConfirmTOTP succeeds the backend alone holds it.
type MFAEnrollment struct {
	// Secret is the base32 TOTP shared secret to show or encode for the
	// user's authenticator app.
	Secret string

	// ProvisioningURI is the otpauth:// URI for QR provisioning.
	ProvisioningURI string
}

// ValidateCode checks a user-typed code against the enrollment secret
// locally, without a network round-trip. Use it to give immediate feedback
// before ConfirmTOTP.
func (e *MFAEnrollment) ValidateCode(code string) bool {
	return totp.Validate(code, e.Secret)
}

// EnrollTOTP begins TOTP second-factor enrollment for the session's
// account. The completion receives the provisioning material on success.
func (u *Session) EnrollTOTP(ctx context.Context, complete func(ctx context.Context, enrollment *MFAEnrollment, err error)) {
	var enrollment *MFAEnrollment
	u.run(ctx, func(ctx context.Context) error {
		c := u.coordinator
		resp, err := c.backend.EnrollMFA(ctx, &EnrollMFARequest{
			APIKey:      c.apiKey,
			AccessToken: u.accessToken(),
		})
		if err != nil {
			return err
		}

		enrollment = &MFAEnrollment{
			Secret:          resp.Secret,
			ProvisioningURI: resp.ProvisioningURI,
		}
		return nil
	}, func(ctx context.Context, err error) {
		if complete != nil {
			complete(ctx, enrollment, err)
		}
	})
}

// ConfirmTOTP completes enrollment with a code from the authenticator app.
// The code is checked locally against the enrollment secret first; a code
// that cannot possibly be right fails fast with ErrSecondFactorCode and no
// network traffic. When the backend reissues the token pair with the second
// factor recorded, the session adopts it.
func (u *Session) ConfirmTOTP(ctx context.Context, enrollment *MFAEnrollment, code string, complete func(ctx context.Context, err error)) {
	u.run(ctx, func(ctx context.Context) error {
		if !enrollment.ValidateCode(code) {
			return ErrSecondFactorCode
		}

		c := u.coordinator
		resp, err := c.backend.FinalizeMFA(ctx, &FinalizeMFARequest{
			APIKey:      c.apiKey,
			AccessToken: u.accessToken(),
			Code:        code,
		})
		if err != nil {
			return err
		}

		if resp.IDToken != "" {
			refresh := resp.RefreshToken
			if refresh == "" {
				refresh = u.RefreshToken()
			}
			ts, err := newTokenState(resp.IDToken, refresh)
			if err != nil {
				return err
			}
			u.applyToken(ts)
		}
		return nil
	}, complete)
}
