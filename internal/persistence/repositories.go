package persistence

import "context"

// UpdateFunc transforms a meeting document inside an atomic update. Returning
// an error aborts the update and leaves the stored document untouched.
type UpdateFunc func(Meeting) (Meeting, error)

// MeetingRepository stores meeting documents. Implementations must serialize
// UpdateMeetingByUniqueID per meeting so two concurrent vote submissions
// never interleave their read-modify-write cycles; meetings are independent
// units of concurrency and share no locks.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting Meeting) error
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	GetMeetingByUniqueID(ctx context.Context, uniqueID string) (Meeting, error)
	UpdateMeetingByUniqueID(ctx context.Context, uniqueID string, update UpdateFunc) (Meeting, error)
}

// ParticipantRepository stores named participants per meeting.
type ParticipantRepository interface {
	CreateParticipant(ctx context.Context, participant Participant) error
	GetParticipant(ctx context.Context, id string) (Participant, error)
	// ListParticipants returns the meeting's participants ordered by
	// CreatedAt ascending with ID as tie-break.
	ListParticipants(ctx context.Context, meetingID string) ([]Participant, error)
	// DeleteParticipantsExcept removes every participant of the meeting
	// except keepID. An empty keepID removes them all.
	DeleteParticipantsExcept(ctx context.Context, meetingID, keepID string) error
}

// AvailabilityRepository stores one availability record per participant,
// replaced wholesale on each submission.
type AvailabilityRepository interface {
	UpsertAvailability(ctx context.Context, availability Availability) error
	ListAvailability(ctx context.Context, meetingID string) ([]Availability, error)
	DeleteAvailabilityForMeeting(ctx context.Context, meetingID string) error
}
