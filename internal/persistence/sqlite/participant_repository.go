package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/slotpoll/internal/persistence"
)

// ParticipantRepository implements persistence.ParticipantRepository on SQLite.
type ParticipantRepository struct {
	pool *ConnectionPool
}

// NewParticipantRepository creates a SQLite-backed participant repository.
func NewParticipantRepository(pool *ConnectionPool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

// CreateParticipant inserts a new participant.
func (r *ParticipantRepository) CreateParticipant(ctx context.Context, participant persistence.Participant) error {
	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO participants (id, meeting_id, name, is_host, created_at) VALUES (?, ?, ?, ?, ?)`,
		participant.ID,
		participant.MeetingID,
		participant.Name,
		boolToInt(participant.IsHost),
		participant.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.ErrDuplicate
		}
		return fmt.Errorf("sqlite: insert participant: %w", err)
	}
	return nil
}

// GetParticipant retrieves a participant by ID.
func (r *ParticipantRepository) GetParticipant(ctx context.Context, id string) (persistence.Participant, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT id, meeting_id, name, is_host, created_at FROM participants WHERE id = ?`, id)
	return scanParticipant(row.Scan)
}

// ListParticipants returns the meeting's participants ordered by creation.
func (r *ParticipantRepository) ListParticipants(ctx context.Context, meetingID string) ([]persistence.Participant, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT id, meeting_id, name, is_host, created_at FROM participants
		 WHERE meeting_id = ? ORDER BY created_at ASC, id ASC`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]persistence.Participant, 0)
	for rows.Next() {
		participant, err := scanParticipant(rows.Scan)
		if err != nil {
			return nil, err
		}
		participants = append(participants, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate participants: %w", err)
	}
	return participants, nil
}

// DeleteParticipantsExcept removes every participant of the meeting except
// keepID. Availability rows follow via ON DELETE CASCADE.
func (r *ParticipantRepository) DeleteParticipantsExcept(ctx context.Context, meetingID, keepID string) error {
	var err error
	if keepID == "" {
		_, err = r.pool.db.ExecContext(ctx,
			`DELETE FROM participants WHERE meeting_id = ?`, meetingID)
	} else {
		_, err = r.pool.db.ExecContext(ctx,
			`DELETE FROM participants WHERE meeting_id = ? AND id != ?`, meetingID, keepID)
	}
	if err != nil {
		return fmt.Errorf("sqlite: purge participants: %w", err)
	}
	return nil
}

func scanParticipant(scan func(...any) error) (persistence.Participant, error) {
	var (
		participant persistence.Participant
		isHost      int
		createdAt   string
	)

	if err := scan(&participant.ID, &participant.MeetingID, &participant.Name, &isHost, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Participant{}, persistence.ErrNotFound
		}
		return persistence.Participant{}, fmt.Errorf("sqlite: scan participant: %w", err)
	}

	participant.IsHost = isHost != 0
	parsed, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return persistence.Participant{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	participant.CreatedAt = parsed
	return participant, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
