// Command lumen is a small terminal client for the Lumen identity service.
// It drives the authsdk the way an application would: one coordinator, one
// persisted session, completions delivered on the SDK's callback queue.
//
// Usage:
//
//	lumen login <email> <password>
//	lumen whoami
//	lumen token [-force]
//	lumen reload
//	lumen signout
//
// Configuration is environment-based; see LoadConfig.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lumenauth/lumen/pkg/authsdk"
	"github.com/lumenauth/lumen/pkg/sessionstore"
	"github.com/lumenauth/lumen/pkg/slogx"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "lumen:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: lumen <login|whoami|token|reload|signout> [args]")
	}

	cfg := LoadConfig()
	if cfg.APIKey == "" {
		return fmt.Errorf("LUMEN_API_KEY is required")
	}
	if cfg.BackendURL == "" {
		return fmt.Errorf("LUMEN_BACKEND_URL is required")
	}
	if cfg.SessionSecret == "" {
		return fmt.Errorf("LUMEN_SESSION_SECRET is required")
	}

	log := slogx.New(slogx.Config{
		Service: "lumen-cli",
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	store, err := sessionstore.Open(sessionstore.Config{
		DSN:    cfg.DatabaseFile,
		Secret: []byte(cfg.SessionSecret),
		Slot:   cfg.SessionSlot,
	})
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	if err := store.ApplyMigrations(); err != nil {
		return fmt.Errorf("migrate session store: %w", err)
	}

	coord, err := authsdk.NewCoordinator(authsdk.Config{
		APIKey:  cfg.APIKey,
		Backend: authsdk.NewRESTBackend(cfg.BackendURL),
		Store:   store,
		Logger:  log,
	})
	if err != nil {
		return err
	}
	defer coord.Close()

	switch cmd := args[0]; cmd {
	case "login":
		if len(args) != 3 {
			return fmt.Errorf("usage: lumen login <email> <password>")
		}
		return login(coord, args[1], args[2])
	case "whoami":
		return whoami(coord)
	case "token":
		force := len(args) > 1 && args[1] == "-force"
		return token(coord, force)
	case "reload":
		return reload(coord)
	case "signout":
		coord.SignOut()
		fmt.Println("signed out")
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func login(coord *authsdk.Coordinator, email, password string) error {
	done := make(chan error, 1)
	coord.SignInWithPassword(context.Background(), email, password,
		func(_ context.Context, result *authsdk.SignInResult, err error) {
			if err == nil {
				fmt.Printf("signed in as %s (%s)\n", result.Session.Email(), result.Session.UID())
				if result.AdditionalUserInfo != nil && result.AdditionalUserInfo.IsNewUser {
					fmt.Println("welcome! this account is new")
				}
			}
			done <- err
		})
	return <-done
}

func whoami(coord *authsdk.Coordinator) error {
	session := coord.CurrentSession()
	if session == nil {
		return fmt.Errorf("not signed in")
	}

	fmt.Printf("uid:       %s\n", session.UID())
	fmt.Printf("email:     %s (verified: %v)\n", session.Email(), session.IsEmailVerified())
	if name := session.DisplayName(); name != "" {
		fmt.Printf("name:      %s\n", name)
	}
	for _, p := range session.ProviderProfiles() {
		fmt.Printf("provider:  %s (%s)\n", p.ProviderID, p.UID)
	}
	if created := session.Metadata().CreationDate; !created.IsZero() {
		fmt.Printf("created:   %s\n", created.Format("2006-01-02"))
	}
	return nil
}

func token(coord *authsdk.Coordinator, force bool) error {
	session := coord.CurrentSession()
	if session == nil {
		return fmt.Errorf("not signed in")
	}

	done := make(chan error, 1)
	session.IDTokenResult(context.Background(), force,
		func(_ context.Context, ts *authsdk.TokenState, err error) {
			if err == nil {
				fmt.Println(ts.AccessToken)
				fmt.Fprintf(os.Stderr, "expires %s\n", ts.ExpirationDate.Format("15:04:05"))
			}
			done <- err
		})
	return <-done
}

func reload(coord *authsdk.Coordinator) error {
	session := coord.CurrentSession()
	if session == nil {
		return fmt.Errorf("not signed in")
	}

	done := make(chan error, 1)
	session.Reload(context.Background(), func(_ context.Context, err error) {
		done <- err
	})
	if err := <-done; err != nil {
		return err
	}
	return whoami(coord)
}
