// Package ledger records the content hash of every published asset across
// builds, so a build can report which assets changed since the last run.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Entry is the ledger state of one asset after recording it
type Entry struct {
	Key       string
	SHA256    string
	SeenCount int
	// Changed is true when the asset is new or its hash differs from the last build
	Changed bool
}

// Ledger tracks asset hashes in a SQL table
type Ledger struct {
	db     *sql.DB
	driver string
}

// Open connects to the ledger database and ensures its table exists.
// postgres:// and postgresql:// DSNs use lib/pq; anything else is a SQLite
// path, optionally prefixed with sqlite://.
func Open(dsn string) (*Ledger, error) {
	driver, source := driverFor(dsn)

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	l, err := New(db, driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// New wraps an existing database handle opened with the named driver
func New(db *sql.DB, driver string) (*Ledger, error) {
	l := &Ledger{db: db, driver: driver}

	if err := l.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger table: %w", err)
	}

	return l, nil
}

func driverFor(dsn string) (string, string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn
	default:
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://")
	}
}

// rebind rewrites ? placeholders to $n for postgres
func (l *Ledger) rebind(query string) string {
	if l.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ensureTable creates the asset_ledger table if it doesn't exist
func (l *Ledger) ensureTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS asset_ledger (
			asset_key TEXT PRIMARY KEY,
			sha256 TEXT NOT NULL,
			bytes BIGINT NOT NULL,
			build_id TEXT NOT NULL,
			first_seen_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			last_seen_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			seen_count INTEGER DEFAULT 1
		)
	`

	if _, err := l.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create asset_ledger table: %w", err)
	}
	return nil
}

// Record stores the hash of an asset for a build and reports whether it changed
func (l *Ledger) Record(ctx context.Context, buildID, key, sha string, size int64) (Entry, error) {
	previous, err := l.Hash(ctx, key)
	if err != nil {
		return Entry{}, err
	}

	query := `
		INSERT INTO asset_ledger (asset_key, sha256, bytes, build_id, first_seen_at, last_seen_at, seen_count)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, 1)
		ON CONFLICT (asset_key) DO UPDATE
		SET last_seen_at = CURRENT_TIMESTAMP,
		    seen_count = asset_ledger.seen_count + 1,
		    sha256 = EXCLUDED.sha256,
		    bytes = EXCLUDED.bytes,
		    build_id = EXCLUDED.build_id
		RETURNING seen_count
	`

	var seenCount int
	if err := l.db.QueryRowContext(ctx, l.rebind(query), key, sha, size, buildID).Scan(&seenCount); err != nil {
		return Entry{}, fmt.Errorf("failed to record asset %s: %w", key, err)
	}

	return Entry{
		Key:       key,
		SHA256:    sha,
		SeenCount: seenCount,
		Changed:   previous != sha,
	}, nil
}

// Hash returns the last recorded hash for key, or "" if it was never seen
func (l *Ledger) Hash(ctx context.Context, key string) (string, error) {
	var sha string
	err := l.db.QueryRowContext(ctx, l.rebind(`SELECT sha256 FROM asset_ledger WHERE asset_key = ?`), key).Scan(&sha)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read asset %s: %w", key, err)
	}
	return sha, nil
}

// SeenCount returns how many builds recorded key
func (l *Ledger) SeenCount(ctx context.Context, key string) (int, error) {
	var seenCount int
	err := l.db.QueryRowContext(ctx, l.rebind(`SELECT seen_count FROM asset_ledger WHERE asset_key = ?`), key).Scan(&seenCount)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get seen count: %w", err)
	}
	return seenCount, nil
}

// Close closes the underlying database
func (l *Ledger) Close() error {
	return l.db.Close()
}
