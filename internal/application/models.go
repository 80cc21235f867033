package application

import (
	"time"

	"github.com/example/slotpoll/internal/timeslot"
	"github.com/example/slotpoll/internal/voting"
)

// MeetingState is the derived open/closed state of a meeting. It is computed
// against the clock on every read, never stored.
type MeetingState string

const (
	// MeetingStateOpen indicates the meeting still accepts vote mutations.
	MeetingStateOpen MeetingState = "open"
	// MeetingStateClosed indicates the voting deadline has passed. Reads
	// and aggregation remain available.
	MeetingStateClosed MeetingState = "closed"
)

// Meeting represents a scheduling poll exposed by the application services.
type Meeting struct {
	ID             string
	UniqueID       string
	Title          string
	OrganizerName  string
	Window         timeslot.Window
	VotingDeadline *time.Time
	MaxVoters      int
	Creator        voting.Voter
	Votes          voting.Ledger
	AdminKeyHash   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// State derives the meeting state at the reference instant. A meeting with no
// deadline is always open.
func (m Meeting) State(now time.Time) MeetingState {
	if m.VotingDeadline != nil && !now.Before(*m.VotingDeadline) {
		return MeetingStateClosed
	}
	return MeetingStateOpen
}

// SlotView is the derived per-slot aggregate exposed to readers.
type SlotView struct {
	ID              string
	Start           time.Time
	DurationMinutes int
	VoteCount       int
	Available       int
	Total           int
	Voters          []voting.Voter
}

// MeetingView bundles a meeting with its derived aggregates: per-slot
// tallies, availability ratios for calendar coloring, the current winner and
// the distinct-voter count.
type MeetingView struct {
	Meeting            Meeting
	State              MeetingState
	Slots              []SlotView
	MostVotedSlotID    string
	DistinctVoterCount int
}

// CreateMeetingParams wraps the data required to create a meeting.
type CreateMeetingParams struct {
	Title          string
	OrganizerName  string
	Window         timeslot.Window
	VotingDeadline *time.Time
	MaxVoters      int
	Creator        voting.Voter
}

// CreateMeetingResult carries the created meeting together with the organizer
// admin key, which is surfaced exactly once.
type CreateMeetingResult struct {
	Meeting  Meeting
	AdminKey string
}

// SubmitVoteParams wraps the data required to submit a voter's selection set.
// An empty SlotIDs list clears all of the voter's votes.
type SubmitVoteParams struct {
	UniqueID string
	SlotIDs  []string
	Voter    voting.Voter
}

// UpdateWindowParams wraps the data required to replace the meeting window.
type UpdateWindowParams struct {
	UniqueID string
	AdminKey string
	Window   timeslot.Window
}

// Participant is a named registry entry scoped to one meeting, distinct from
// anonymous voter identities.
type Participant struct {
	ID        string
	MeetingID string
	Name      string
	IsHost    bool
	CreatedAt time.Time
}

// Availability records the slot ids one participant marked available.
type Availability struct {
	ParticipantID string
	MeetingID     string
	SlotIDs       []string
	UpdatedAt     time.Time
}

// AddParticipantParams wraps the data required to register a participant.
type AddParticipantParams struct {
	UniqueID string
	Name     string
	IsHost   bool
}

// SubmitAvailabilityParams wraps the data required to replace a participant's
// availability record.
type SubmitAvailabilityParams struct {
	UniqueID      string
	ParticipantID string
	SlotIDs       []string
}
