package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/slotpoll/internal/persistence"
	"github.com/example/slotpoll/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Meetings     persistence.MeetingRepository
	Participants persistence.ParticipantRepository
	Availability persistence.AvailabilityRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// also registers a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "slotpoll.db")
	pool, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Meetings:     sqlite.NewMeetingRepository(pool),
		Participants: sqlite.NewParticipantRepository(pool),
		Availability: sqlite.NewAvailabilityRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
