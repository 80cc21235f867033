package persistence

import (
	"time"

	"github.com/example/slotpoll/internal/voting"
)

// Meeting is the persisted meeting document. The vote ledger is stored inline
// as part of the document so a single atomic update covers both metadata and
// votes; candidate slots are never persisted, they are regenerated from the
// window fields on read.
type Meeting struct {
	ID                  string
	UniqueID            string
	Title               string
	OrganizerName       string
	StartDate           time.Time
	EndDate             time.Time
	StartHour           int
	EndHour             int
	SlotDurationMinutes int
	VotingDeadline      *time.Time
	MaxVoters           int
	Creator             voting.Voter
	AdminKeyHash        string
	Votes               voting.Ledger
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Participant is a named registry entry scoped to one meeting, distinct from
// the anonymous voter identities used by open voting links.
type Participant struct {
	ID        string
	MeetingID string
	Name      string
	IsHost    bool
	CreatedAt time.Time
}

// Availability records the slots one participant marked available. Records
// are superseded wholesale on resubmission.
type Availability struct {
	ParticipantID string
	MeetingID     string
	SlotIDs       []string
	UpdatedAt     time.Time
}
