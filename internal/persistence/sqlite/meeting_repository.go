package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/slotpoll/internal/persistence"
	"github.com/example/slotpoll/internal/voting"
)

const dateLayout = "2006-01-02"

// MeetingRepository implements persistence.MeetingRepository on SQLite. The
// meeting is stored document-style: scalar columns for the queryable fields
// and JSON columns for the creator snapshot and the vote ledger, so one row
// update is atomic for the whole document.
type MeetingRepository struct {
	pool *ConnectionPool
}

// NewMeetingRepository creates a SQLite-backed meeting repository.
func NewMeetingRepository(pool *ConnectionPool) *MeetingRepository {
	return &MeetingRepository{pool: pool}
}

const meetingColumns = `id, unique_id, title, organizer_name, start_date, end_date,
	start_hour, end_hour, slot_duration_minutes, voting_deadline, max_voters,
	creator_json, admin_key_hash, votes_json, created_at, updated_at`

// CreateMeeting inserts a new meeting document.
func (r *MeetingRepository) CreateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	creatorJSON, votesJSON, err := encodeMeetingDocuments(meeting)
	if err != nil {
		return err
	}

	query := `INSERT INTO meetings (` + meetingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.pool.db.ExecContext(ctx, query,
		meeting.ID,
		meeting.UniqueID,
		meeting.Title,
		meeting.OrganizerName,
		meeting.StartDate.UTC().Format(dateLayout),
		meeting.EndDate.UTC().Format(dateLayout),
		meeting.StartHour,
		meeting.EndHour,
		meeting.SlotDurationMinutes,
		nullableTime(meeting.VotingDeadline),
		meeting.MaxVoters,
		creatorJSON,
		meeting.AdminKeyHash,
		votesJSON,
		meeting.CreatedAt.UTC().Format(time.RFC3339),
		meeting.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.ErrDuplicate
		}
		return fmt.Errorf("sqlite: insert meeting: %w", err)
	}
	return nil
}

// GetMeeting retrieves a meeting by primary key.
func (r *MeetingRepository) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id)
	return scanMeeting(row)
}

// GetMeetingByUniqueID retrieves a meeting by its public share token.
func (r *MeetingRepository) GetMeetingByUniqueID(ctx context.Context, uniqueID string) (persistence.Meeting, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE unique_id = ?`, uniqueID)
	return scanMeeting(row)
}

// UpdateMeetingByUniqueID applies the update function inside a transaction so
// concurrent submissions against one meeting serialize on the row.
func (r *MeetingRepository) UpdateMeetingByUniqueID(ctx context.Context, uniqueID string, update persistence.UpdateFunc) (persistence.Meeting, error) {
	var result persistence.Meeting

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRow(`SELECT `+meetingColumns+` FROM meetings WHERE unique_id = ?`, uniqueID)
		current, err := scanMeeting(row)
		if err != nil {
			return err
		}

		updated, err := update(current)
		if err != nil {
			return err
		}
		updated.ID = current.ID
		updated.UniqueID = current.UniqueID

		creatorJSON, votesJSON, err := encodeMeetingDocuments(updated)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`UPDATE meetings SET
			title = ?, organizer_name = ?, start_date = ?, end_date = ?,
			start_hour = ?, end_hour = ?, slot_duration_minutes = ?,
			voting_deadline = ?, max_voters = ?, creator_json = ?,
			admin_key_hash = ?, votes_json = ?, updated_at = ?
			WHERE id = ?`,
			updated.Title,
			updated.OrganizerName,
			updated.StartDate.UTC().Format(dateLayout),
			updated.EndDate.UTC().Format(dateLayout),
			updated.StartHour,
			updated.EndHour,
			updated.SlotDurationMinutes,
			nullableTime(updated.VotingDeadline),
			updated.MaxVoters,
			creatorJSON,
			updated.AdminKeyHash,
			votesJSON,
			updated.UpdatedAt.UTC().Format(time.RFC3339),
			updated.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: update meeting: %w", err)
		}

		result = updated
		return nil
	})
	if err != nil {
		return persistence.Meeting{}, err
	}
	return result, nil
}

func encodeMeetingDocuments(meeting persistence.Meeting) (creatorJSON, votesJSON string, err error) {
	creator, err := json.Marshal(meeting.Creator)
	if err != nil {
		return "", "", fmt.Errorf("sqlite: encode creator: %w", err)
	}

	votes := meeting.Votes
	if votes == nil {
		votes = voting.NewLedger()
	}
	ledger, err := json.Marshal(votes)
	if err != nil {
		return "", "", fmt.Errorf("sqlite: encode ledger: %w", err)
	}

	return string(creator), string(ledger), nil
}

func scanMeeting(row *sql.Row) (persistence.Meeting, error) {
	var (
		meeting                      persistence.Meeting
		startDate, endDate           string
		deadline                     sql.NullString
		creatorJSON, votesJSON       string
		createdAtStr, updatedAtStr   string
	)

	err := row.Scan(
		&meeting.ID,
		&meeting.UniqueID,
		&meeting.Title,
		&meeting.OrganizerName,
		&startDate,
		&endDate,
		&meeting.StartHour,
		&meeting.EndHour,
		&meeting.SlotDurationMinutes,
		&deadline,
		&meeting.MaxVoters,
		&creatorJSON,
		&meeting.AdminKeyHash,
		&votesJSON,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Meeting{}, persistence.ErrNotFound
		}
		return persistence.Meeting{}, fmt.Errorf("sqlite: scan meeting: %w", err)
	}

	if meeting.StartDate, err = time.Parse(dateLayout, startDate); err != nil {
		return persistence.Meeting{}, fmt.Errorf("sqlite: parse start_date: %w", err)
	}
	if meeting.EndDate, err = time.Parse(dateLayout, endDate); err != nil {
		return persistence.Meeting{}, fmt.Errorf("sqlite: parse end_date: %w", err)
	}
	if deadline.Valid {
		ts, err := time.Parse(time.RFC3339, deadline.String)
		if err != nil {
			return persistence.Meeting{}, fmt.Errorf("sqlite: parse voting_deadline: %w", err)
		}
		meeting.VotingDeadline = &ts
	}
	if err := json.Unmarshal([]byte(creatorJSON), &meeting.Creator); err != nil {
		return persistence.Meeting{}, fmt.Errorf("sqlite: decode creator: %w", err)
	}
	if err := json.Unmarshal([]byte(votesJSON), &meeting.Votes); err != nil {
		return persistence.Meeting{}, fmt.Errorf("sqlite: decode ledger: %w", err)
	}
	if meeting.Votes == nil {
		meeting.Votes = voting.NewLedger()
	}
	if meeting.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Meeting{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if meeting.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Meeting{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}

	return meeting, nil
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed: UNIQUE")
}
