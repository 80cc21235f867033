package application

import (
	"context"
	"time"
)

// EventKind labels a domain event emitted after a successful mutation.
type EventKind string

const (
	// EventParticipantJoined fires when a named participant registers.
	EventParticipantJoined EventKind = "participant_joined"
	// EventAvailabilityUpdated fires when a participant replaces their
	// availability record.
	EventAvailabilityUpdated EventKind = "availability_updated"
	// EventVoteSubmitted fires when a voter's selection set is applied,
	// including clears.
	EventVoteSubmitted EventKind = "vote_submitted"
	// EventMeetingReset fires when a meeting's votes and participants are
	// purged.
	EventMeetingReset EventKind = "meeting_reset"
)

// Event is the payload handed to the real-time transport. MeetingID is always
// set; the remaining fields depend on the kind.
type Event struct {
	Kind          EventKind
	MeetingID     string
	MeetingToken  string
	VoterUID      string
	ParticipantID string
	OccurredAt    time.Time
}

// EventSink consumes domain events. Delivery is fire-and-forget: sinks must
// not block and services ignore delivery failures.
type EventSink interface {
	Publish(ctx context.Context, event Event)
}

type discardSink struct{}

func (discardSink) Publish(context.Context, Event) {}

func sinkOrDiscard(sink EventSink) EventSink {
	if sink == nil {
		return discardSink{}
	}
	return sink
}
