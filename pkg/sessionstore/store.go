// Package sessionstore persists serialized session archives in a local
// SQLite database, encrypted at rest. It is the reference implementation of
// the authsdk.SessionStore collaborator; the SDK itself only ever sees the
// interface.
package sessionstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"time"

	"github.com/lumenauth/lumen/pkg/authsdk"

	_ "modernc.org/sqlite"
)

// DefaultSlot is the archive slot used when Config.Slot is empty. Multiple
// coordinators sharing one database file use distinct slots.
const DefaultSlot = "default"

// Config configures a Store.
type Config struct {
	// DSN is the SQLite data source, typically a file path.
	DSN string

	// Secret is the key material archives are encrypted with. Required.
	// Losing it makes stored archives unreadable, which is equivalent to
	// being signed out.
	Secret []byte

	// Slot names the archive this store reads and writes.
	Slot string
}

// Store is an encrypted single-slot archive store backed by SQLite.
type Store struct {
	db   *sql.DB
	box  *secretBox
	slot string
}

// Open opens (creating if necessary) the store's database. Call
// ApplyMigrations before first use of a fresh database file.
func Open(cfg Config) (*Store, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("sessionstore: config requires a Secret")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	slot := cfg.Slot
	if slot == "" {
		slot = DefaultSlot
	}

	// Stretch arbitrary-length key material to the fixed AEAD key size.
	key := sha256.Sum256(cfg.Secret)

	box, err := newSecretBox(key[:])
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, box: box, slot: slot}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save writes the archive into the store's slot, replacing any previous one.
func (s *Store) Save(ctx context.Context, archive []byte) error {
	sealed, err := s.box.seal(archive)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_archives (slot, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (slot) DO UPDATE SET
			payload    = excluded.payload,
			updated_at = excluded.updated_at;
	`, s.slot, sealed, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// Load returns the archive in the store's slot, or
// authsdk.ErrNoStoredSession when the slot is empty. A payload that fails
// authentication (wrong secret, tampered file) is reported as an error, not
// as an empty slot.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	var sealed []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM session_archives WHERE slot = ?;
	`, s.slot).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authsdk.ErrNoStoredSession
	}
	if err != nil {
		return nil, err
	}

	return s.box.open(sealed)
}

// Delete removes the slot's archive. Deleting an empty slot is a no-op.
func (s *Store) Delete(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM session_archives WHERE slot = ?;
	`, s.slot)
	return err
}
