/*
Package authsdk is the client SDK for the Lumen identity service.

# Overview

The package is organized around two main types:

  - Coordinator: owns the process-wide current session (at most one) and the
    sign-in/sign-out state machine
  - Session: a signed-in identity with its linked provider profiles, token
    state, and the mutating account operations

Create a Coordinator with a backend and sign in:

	backend := authsdk.NewRESTBackend("https://identity.example.com")
	coord, err := authsdk.NewCoordinator(authsdk.Config{
		APIKey:  "app-api-key",
		Backend: backend,
	})

	coord.SignInWithPassword(ctx, email, password, func(ctx context.Context, result *authsdk.SignInResult, err error) {
		if err != nil {
			// still signed out
			return
		}
		user := result.Session // == coord.CurrentSession()
	})

# Completions

Every operation is asynchronous and invokes its completion exactly once, on
the coordinator's callback queue (one fixed goroutine), regardless of whether
the result came from cache or the network. The context handed to a completion
carries the queue's identity (see the dispatch package), so delivery can be
asserted in tests:

	user.Reload(ctx, func(cbCtx context.Context, err error) {
		dispatch.QueueID(cbCtx) == coord.Callbacks().ID() // always true
	})

Mutating operations are serialized on a single work queue: a reload's
wholesale profile replacement can never interleave with an update-profile
patch.

# Auto sign-out

A mutating operation that fails with one of the session-invalidating codes
(CodeInvalidUserToken, CodeUserTokenExpired, CodeUserDisabled,
CodeUserNotFound) clears the current session before the completion runs:

	user.Reload(ctx, func(ctx context.Context, err error) {
		if errors.Is(err, authsdk.ErrUserTokenExpired) {
			coord.CurrentSession() // nil: already signed out
		}
	})

Any other failure leaves the session signed in and untouched. The SDK never
retries and never swallows an error; each completion receives exactly one of
a result or an error.

# Reauthentication

Reauthenticate verifies identity with a fresh credential and returns a
transient result decoupled from the live session. A credential resolving to a
different account yields ErrUserMismatch with the session unchanged:

	cred := authsdk.PasswordCredential(email, password)
	user.Reauthenticate(ctx, cred, func(ctx context.Context, result *authsdk.SignInResult, err error) { ... })

# Persistence

Sessions serialize to a versioned archive (EncodeSession / DecodeSession)
that round-trips every field. Configure a SessionStore (sessionstore.Store
is the reference implementation) and the coordinator persists the current
session after each applied patch and restores it on construction.

# Errors

All failures are *Error values carrying one Code from a closed set, matchable
with errors.Is against the predefined values (ErrInvalidEmail,
ErrWeakPassword, ...). Backend signals outside the known set map to
CodeInternal rather than being dropped.
*/
package authsdk
