// Package sqlite implements repository.Store on an embedded SQLite
// database via the pure-Go modernc.org/sqlite driver (no CGo, so the
// server cross-compiles to a single static binary).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/sjlee/walkinggo/internal/repository"
)

// Compile-time check that *DB satisfies the full store interface.
var _ repository.Store = (*DB)(nil)

// queryer is the subset of *sql.DB and *sql.Tx the repository methods use,
// so the same methods run inside and outside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a sql.DB connection and implements repository.Store.
// q is the connection pool normally, or the active transaction inside InTx.
type DB struct {
	conn *sql.DB
	q    queryer
}

// New opens (creating if needed) the SQLite database at dbPath and runs
// migrations. Use ":memory:" for an ephemeral database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// One connection total. SQLite serializes writers anyway, and a single
	// connection makes InTx a true critical section: a membership
	// transition holds the connection until commit, so a concurrent
	// transition cannot interleave its reads between ours. It also keeps
	// ":memory:" databases coherent in tests (each pool connection would
	// otherwise get its own empty database).
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn, q: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// InTx runs fn with a Store bound to a single transaction. fn returning an
// error rolls everything back; otherwise the transaction commits. The
// rollback on the error path is what guarantees no partial membership
// change is ever observable.
func (db *DB) InTx(ctx context.Context, fn func(repository.Store) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	if err := fn(&DB{conn: db.conn, q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("sqlite: rolling back after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe
// to run on every startup.
//
// The group_members primary key prevents the same user joining the same
// group twice, but the one-group-per-user rule is deliberately NOT a
// schema constraint — it is enforced procedurally by the service inside
// InTx, where violations can surface as typed errors instead of driver
// constraint failures.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                 TEXT PRIMARY KEY,
			username           TEXT NOT NULL UNIQUE,
			password_hash      TEXT NOT NULL,
			weight_kg          REAL,
			target_distance_km REAL,
			created_at         DATETIME NOT NULL,
			updated_at         DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user_groups (
			id                    TEXT PRIMARY KEY,
			name                  TEXT NOT NULL,
			description           TEXT,
			owner_id              TEXT NOT NULL REFERENCES users(id),
			is_public             INTEGER NOT NULL,
			participation_code    TEXT UNIQUE,
			total_distance_meters REAL NOT NULL DEFAULT 0,
			created_at            DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_user_groups_public_name
			ON user_groups(is_public, name);
	`)
	if err != nil {
		return fmt.Errorf("creating user_groups table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS group_members (
			group_id TEXT NOT NULL REFERENCES user_groups(id),
			user_id  TEXT NOT NULL REFERENCES users(id),
			PRIMARY KEY (group_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating group_members table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS walk_logs (
			id                TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL REFERENCES users(id),
			start_time        DATETIME NOT NULL,
			end_time          DATETIME NOT NULL,
			duration_seconds  INTEGER NOT NULL,
			distance_meters   REAL,
			steps             INTEGER NOT NULL DEFAULT 0,
			calories_burned   REAL NOT NULL DEFAULT 0,
			route_coordinates TEXT NOT NULL DEFAULT '',
			route_name        TEXT NOT NULL DEFAULT '',
			route_description TEXT NOT NULL DEFAULT '',
			is_public_route   INTEGER NOT NULL DEFAULT 0,
			created_at        DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_walk_logs_user_start
			ON walk_logs(user_id, start_time);
		CREATE INDEX IF NOT EXISTS idx_walk_logs_public
			ON walk_logs(is_public_route, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating walk_logs table: %w", err)
	}

	return nil
}
