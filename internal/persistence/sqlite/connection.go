package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ConnectionPool manages the SQLite database handle shared by the
// repositories. SQLite allows a single writer at a time; combined with the
// busy timeout this serializes read-modify-write cycles per database, which
// the meeting repository narrows to per-row atomic updates.
type ConnectionPool struct {
	db *sql.DB
}

// Open creates a connection pool for the DSN and applies the pragmas the
// repositories rely on.
func Open(dsn string) (*ConnectionPool, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:slotpoll.db"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", dsn, err)
	}

	// The modernc driver is not safe for concurrent writes over multiple
	// connections to the same file; a single connection avoids SQLITE_BUSY
	// storms and keeps update serialization trivial.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	return &ConnectionPool{db: db}, nil
}

// DB returns the underlying database handle.
func (cp *ConnectionPool) DB() *sql.DB {
	return cp.db
}

// Close closes the connection pool.
func (cp *ConnectionPool) Close() error {
	if cp == nil || cp.db == nil {
		return nil
	}
	return cp.db.Close()
}

// Ping tests the database connection.
func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// TransactionFunc represents a function that executes within a transaction.
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction executes fn inside a transaction, rolling back on error or
// panic and committing otherwise.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := cp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("sqlite: transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit transaction: %w", err)
	}
	return nil
}
