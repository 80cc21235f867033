package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/slotpoll/internal/persistence"
)

// AvailabilityRepository implements persistence.AvailabilityRepository on SQLite.
type AvailabilityRepository struct {
	pool *ConnectionPool
}

// NewAvailabilityRepository creates a SQLite-backed availability repository.
func NewAvailabilityRepository(pool *ConnectionPool) *AvailabilityRepository {
	return &AvailabilityRepository{pool: pool}
}

// UpsertAvailability replaces the participant's availability record.
func (r *AvailabilityRepository) UpsertAvailability(ctx context.Context, availability persistence.Availability) error {
	slotIDs, err := json.Marshal(availability.SlotIDs)
	if err != nil {
		return fmt.Errorf("sqlite: encode slot ids: %w", err)
	}

	_, err = r.pool.db.ExecContext(ctx,
		`INSERT INTO availabilities (participant_id, meeting_id, slot_ids_json, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(participant_id) DO UPDATE SET
			slot_ids_json = excluded.slot_ids_json,
			updated_at = excluded.updated_at`,
		availability.ParticipantID,
		availability.MeetingID,
		string(slotIDs),
		availability.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert availability: %w", err)
	}
	return nil
}

// ListAvailability returns the meeting's availability records ordered by
// participant ID.
func (r *AvailabilityRepository) ListAvailability(ctx context.Context, meetingID string) ([]persistence.Availability, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT participant_id, meeting_id, slot_ids_json, updated_at FROM availabilities
		 WHERE meeting_id = ? ORDER BY participant_id ASC`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list availability: %w", err)
	}
	defer rows.Close()

	records := make([]persistence.Availability, 0)
	for rows.Next() {
		var (
			availability persistence.Availability
			slotIDsJSON  string
			updatedAt    string
		)
		if err := rows.Scan(&availability.ParticipantID, &availability.MeetingID, &slotIDsJSON, &updatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan availability: %w", err)
		}
		if err := json.Unmarshal([]byte(slotIDsJSON), &availability.SlotIDs); err != nil {
			return nil, fmt.Errorf("sqlite: decode slot ids: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: parse updated_at: %w", err)
		}
		availability.UpdatedAt = parsed
		records = append(records, availability)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate availability: %w", err)
	}
	return records, nil
}

// DeleteAvailabilityForMeeting removes all availability records of a meeting.
func (r *AvailabilityRepository) DeleteAvailabilityForMeeting(ctx context.Context, meetingID string) error {
	if _, err := r.pool.db.ExecContext(ctx,
		`DELETE FROM availabilities WHERE meeting_id = ?`, meetingID); err != nil {
		return fmt.Errorf("sqlite: delete availability: %w", err)
	}
	return nil
}
