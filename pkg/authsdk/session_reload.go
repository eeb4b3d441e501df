package authsdk

import "context"

// Reload resyncs the session from the backend's account record: display
// name, email, photo URL, verification flag, metadata, and the full provider
// profile set are replaced with what the backend reports. The provider set
// is never merged with the previous one.
func (u *Session) Reload(ctx context.Context, complete func(ctx context.Context, err error)) {
	u.run(ctx, u.refreshAccountInfo, complete)
}
