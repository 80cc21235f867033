package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/slotpoll/internal/persistence"
	"github.com/example/slotpoll/internal/timeslot"
	"github.com/example/slotpoll/internal/voting"
)

var (
	meetingCounter     uint64
	participantCounter uint64
)

var referenceTime = time.Date(2025, time.June, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ---------------------------- Meeting fixtures ----------------------------

// MeetingFixture represents a deterministic meeting document that can be
// materialised for application or persistence tests.
type MeetingFixture struct {
	ID             string
	UniqueID       string
	Title          string
	OrganizerName  string
	Window         timeslot.Window
	VotingDeadline *time.Time
	MaxVoters      int
	Creator        voting.Voter
	AdminKeyHash   string
	Votes          voting.Ledger
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MeetingOption configures the generated meeting fixture.
type MeetingOption func(*MeetingFixture)

// NewMeetingFixture returns a deterministic meeting fixture with optional
// overrides. The default window spans a single day with two hourly slots.
func NewMeetingFixture(opts ...MeetingOption) MeetingFixture {
	idx := atomic.AddUint64(&meetingCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := MeetingFixture{
		ID:            fmt.Sprintf("meeting-%03d", idx),
		UniqueID:      fmt.Sprintf("token-%03d", idx),
		Title:         fmt.Sprintf("Meeting %03d", idx),
		OrganizerName: fmt.Sprintf("Organizer %03d", idx),
		Window: timeslot.Window{
			StartDate:           time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
			EndDate:             time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
			StartHour:           9,
			EndHour:             11,
			SlotDurationMinutes: 60,
		},
		Creator: voting.Voter{
			UID:         fmt.Sprintf("creator-%03d", idx),
			DisplayName: fmt.Sprintf("Creator %03d", idx),
		},
		AdminKeyHash: fmt.Sprintf("hash-%03d", idx),
		Votes:        voting.NewLedger(),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithMeetingWindow overrides the fixture window.
func WithMeetingWindow(window timeslot.Window) MeetingOption {
	return func(fixture *MeetingFixture) {
		fixture.Window = window
	}
}

// WithVotingDeadline sets the fixture voting deadline.
func WithVotingDeadline(deadline time.Time) MeetingOption {
	return func(fixture *MeetingFixture) {
		fixture.VotingDeadline = &deadline
	}
}

// WithMaxVoters sets the fixture distinct-voter cap.
func WithMaxVoters(maxVoters int) MeetingOption {
	return func(fixture *MeetingFixture) {
		fixture.MaxVoters = maxVoters
	}
}

// WithVote records a submission on the fixture ledger.
func WithVote(voter voting.Voter, slotIDs ...string) MeetingOption {
	return func(fixture *MeetingFixture) {
		if fixture.Votes == nil {
			fixture.Votes = voting.NewLedger()
		}
		fixture.Votes.Submit(slotIDs, voter)
	}
}

// Model materialises the fixture as a persistence document.
func (f MeetingFixture) Model() persistence.Meeting {
	return persistence.Meeting{
		ID:                  f.ID,
		UniqueID:            f.UniqueID,
		Title:               f.Title,
		OrganizerName:       f.OrganizerName,
		StartDate:           f.Window.StartDate,
		EndDate:             f.Window.EndDate,
		StartHour:           f.Window.StartHour,
		EndHour:             f.Window.EndHour,
		SlotDurationMinutes: f.Window.SlotDurationMinutes,
		VotingDeadline:      f.VotingDeadline,
		MaxVoters:           f.MaxVoters,
		Creator:             f.Creator,
		AdminKeyHash:        f.AdminKeyHash,
		Votes:               f.Votes.Clone(),
		CreatedAt:           f.CreatedAt,
		UpdatedAt:           f.UpdatedAt,
	}
}

// -------------------------- Participant fixtures --------------------------

// ParticipantFixture represents a deterministic participant record.
type ParticipantFixture struct {
	ID        string
	MeetingID string
	Name      string
	IsHost    bool
	CreatedAt time.Time
}

// ParticipantOption configures the generated participant fixture.
type ParticipantOption func(*ParticipantFixture)

// NewParticipantFixture returns a deterministic participant fixture with
// optional overrides.
func NewParticipantFixture(meetingID string, opts ...ParticipantOption) ParticipantFixture {
	idx := atomic.AddUint64(&participantCounter, 1)
	fixture := ParticipantFixture{
		ID:        fmt.Sprintf("participant-%03d", idx),
		MeetingID: meetingID,
		Name:      fmt.Sprintf("Participant %03d", idx),
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Second),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// AsHost marks the fixture as the meeting host.
func AsHost() ParticipantOption {
	return func(fixture *ParticipantFixture) {
		fixture.IsHost = true
	}
}

// Model materialises the fixture as a persistence record.
func (f ParticipantFixture) Model() persistence.Participant {
	return persistence.Participant{
		ID:        f.ID,
		MeetingID: f.MeetingID,
		Name:      f.Name,
		IsHost:    f.IsHost,
		CreatedAt: f.CreatedAt,
	}
}

// Availability materialises an availability record for the fixture.
func (f ParticipantFixture) Availability(slotIDs ...string) persistence.Availability {
	return persistence.Availability{
		ParticipantID: f.ID,
		MeetingID:     f.MeetingID,
		SlotIDs:       slotIDs,
		UpdatedAt:     f.CreatedAt,
	}
}
