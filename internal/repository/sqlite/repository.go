// Package sqlite persists the application state as JSON blobs in a single
// key-value table, one well-known slot per concern.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/piggerypro/piggery/internal/domain/models"
)

const (
	snapshotSlot   = "piggery_data"
	credentialSlot = "piggery_google_client_id"
)

// Repository defines the local persistence operations.
type Repository interface {
	SaveSnapshot(ctx context.Context, snapshot models.Snapshot) error
	LoadSnapshot(ctx context.Context) (models.Snapshot, error)
	SaveCredential(ctx context.Context, clientID string) error
	LoadCredential(ctx context.Context) (string, error)
	Close() error
}

// SlotRepository implements Repository on a SQLite database file.
type SlotRepository struct {
	db   *sql.DB
	path string
}

// NewSlotRepository opens (or creates) the database and ensures the slots
// table exists.
func NewSlotRepository(path string) (*SlotRepository, error) {
	if path == "" {
		path = "piggery.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS slots (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create slots table: %w", err)
	}
	return &SlotRepository{db: db, path: path}, nil
}

// SaveSnapshot serializes the full snapshot into its slot, replacing the
// previous value wholesale.
func (r *SlotRepository) SaveSnapshot(ctx context.Context, snapshot models.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return r.put(ctx, snapshotSlot, payload)
}

// LoadSnapshot reads and decodes the snapshot slot. A missing slot yields an
// empty snapshot; a malformed payload degrades field by field through the
// tolerant decoder rather than blanking everything out.
func (r *SlotRepository) LoadSnapshot(ctx context.Context) (models.Snapshot, error) {
	payload, err := r.get(ctx, snapshotSlot)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EmptySnapshot(), nil
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("read snapshot slot: %w", err)
	}
	snapshot, err := models.DecodeSnapshot(payload)
	if err != nil {
		return models.Snapshot{}, err
	}
	return snapshot, nil
}

// SaveCredential stores the free-text cloud client ID.
func (r *SlotRepository) SaveCredential(ctx context.Context, clientID string) error {
	return r.put(ctx, credentialSlot, []byte(clientID))
}

// LoadCredential returns the stored client ID, or empty when none was saved.
func (r *SlotRepository) LoadCredential(ctx context.Context) (string, error) {
	payload, err := r.get(ctx, credentialSlot)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read credential slot: %w", err)
	}
	return string(payload), nil
}

// Close releases the underlying database handle.
func (r *SlotRepository) Close() error {
	return r.db.Close()
}

func (r *SlotRepository) put(ctx context.Context, key string, payload []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO slots(key, payload) VALUES(?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`, key, payload)
	if err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}

func (r *SlotRepository) get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM slots WHERE key = ?`, key).Scan(&payload)
	if err != nil {
		return nil, err
	}
	return payload, nil
}
