package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// MeetingDirectory resolves shareable tokens to meetings for participant
// operations.
type MeetingDirectory interface {
	GetMeetingByUniqueID(ctx context.Context, uniqueID string) (Meeting, error)
}

// ParticipantRepository stores named participants per meeting.
type ParticipantRepository interface {
	CreateParticipant(ctx context.Context, participant Participant) (Participant, error)
	GetParticipant(ctx context.Context, id string) (Participant, error)
	ListParticipants(ctx context.Context, meetingID string) ([]Participant, error)
}

// ParticipantService manages the named participant registry and its
// availability records.
type ParticipantService struct {
	meetings     MeetingDirectory
	participants ParticipantRepository
	availability AvailabilityRepository
	events       EventSink
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewParticipantService wires dependencies for participant operations.
func NewParticipantService(meetings MeetingDirectory, participants ParticipantRepository, availability AvailabilityRepository, events EventSink, idGenerator func() string, now func() time.Time) *ParticipantService {
	return NewParticipantServiceWithLogger(meetings, participants, availability, events, idGenerator, now, nil)
}

// NewParticipantServiceWithLogger wires dependencies for participant
// operations with a custom logger.
func NewParticipantServiceWithLogger(meetings MeetingDirectory, participants ParticipantRepository, availability AvailabilityRepository, events EventSink, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ParticipantService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ParticipantService{
		meetings:     meetings,
		participants: participants,
		availability: availability,
		events:       sinkOrDiscard(events),
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// AddParticipant registers a named participant on the meeting. At most one
// participant may hold the host flag.
func (s *ParticipantService) AddParticipant(ctx context.Context, params AddParticipantParams) (Participant, error) {
	if s == nil {
		return Participant{}, fmt.Errorf("ParticipantService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "participant", "add", "meeting_token", params.UniqueID)

	name := strings.TrimSpace(params.Name)
	if name == "" {
		vErr := &ValidationError{}
		vErr.add("name", "name is required")
		return Participant{}, vErr
	}

	meeting, err := s.meetings.GetMeetingByUniqueID(ctx, params.UniqueID)
	if err != nil {
		return Participant{}, err
	}

	if params.IsHost {
		existing, err := s.participants.ListParticipants(ctx, meeting.ID)
		if err != nil {
			return Participant{}, err
		}
		for _, participant := range existing {
			if participant.IsHost {
				logger.WarnContext(ctx, "host flag rejected", "error_kind", ErrorKind(ErrHostAlreadyAssigned), "existing_host_id", participant.ID)
				return Participant{}, ErrHostAlreadyAssigned
			}
		}
	}

	participant := Participant{
		ID:        s.idGenerator(),
		MeetingID: meeting.ID,
		Name:      name,
		IsHost:    params.IsHost,
		CreatedAt: s.now(),
	}
	created, err := s.participants.CreateParticipant(ctx, participant)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create participant", "error", err, "error_kind", ErrorKind(err))
		return Participant{}, err
	}

	s.events.Publish(ctx, Event{
		Kind:          EventParticipantJoined,
		MeetingID:     meeting.ID,
		MeetingToken:  meeting.UniqueID,
		ParticipantID: created.ID,
		OccurredAt:    s.now(),
	})
	logger.InfoContext(ctx, "participant added", "participant_id", created.ID, "is_host", created.IsHost)
	return created, nil
}

// ListParticipants returns the meeting's participants in registration order.
func (s *ParticipantService) ListParticipants(ctx context.Context, uniqueID string) ([]Participant, error) {
	if s == nil {
		return nil, fmt.Errorf("ParticipantService is nil")
	}
	meeting, err := s.meetings.GetMeetingByUniqueID(ctx, uniqueID)
	if err != nil {
		return nil, err
	}
	return s.participants.ListParticipants(ctx, meeting.ID)
}

// SubmitAvailability replaces the participant's availability record. Slot ids
// must lie inside the meeting's current window.
func (s *ParticipantService) SubmitAvailability(ctx context.Context, params SubmitAvailabilityParams) (Availability, error) {
	if s == nil {
		return Availability{}, fmt.Errorf("ParticipantService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "participant", "submit_availability", "meeting_token", params.UniqueID, "participant_id", params.ParticipantID)

	meeting, err := s.meetings.GetMeetingByUniqueID(ctx, params.UniqueID)
	if err != nil {
		return Availability{}, err
	}
	participant, err := s.participants.GetParticipant(ctx, params.ParticipantID)
	if err != nil {
		return Availability{}, err
	}
	if participant.MeetingID != meeting.ID {
		return Availability{}, ErrNotFound
	}

	slotIDs := uniqueSorted(params.SlotIDs)
	for _, slotID := range slotIDs {
		if !meeting.Window.Contains(slotID) {
			logger.WarnContext(ctx, "availability rejected", "error_kind", ErrorKind(ErrInvalidSlot), "slot_id", slotID)
			return Availability{}, fmt.Errorf("slot %q: %w", slotID, ErrInvalidSlot)
		}
	}

	record := Availability{
		ParticipantID: participant.ID,
		MeetingID:     meeting.ID,
		SlotIDs:       slotIDs,
		UpdatedAt:     s.now(),
	}
	if err := s.availability.UpsertAvailability(ctx, record); err != nil {
		logger.ErrorContext(ctx, "failed to store availability", "error", err)
		return Availability{}, err
	}

	s.events.Publish(ctx, Event{
		Kind:          EventAvailabilityUpdated,
		MeetingID:     meeting.ID,
		MeetingToken:  meeting.UniqueID,
		ParticipantID: participant.ID,
		OccurredAt:    s.now(),
	})
	logger.InfoContext(ctx, "availability updated", "slot_count", len(slotIDs))
	return record, nil
}

// ListAvailability returns the availability records of every participant of
// the meeting.
func (s *ParticipantService) ListAvailability(ctx context.Context, uniqueID string) ([]Availability, error) {
	if s == nil {
		return nil, fmt.Errorf("ParticipantService is nil")
	}
	meeting, err := s.meetings.GetMeetingByUniqueID(ctx, uniqueID)
	if err != nil {
		return nil, err
	}
	return s.availability.ListAvailability(ctx, meeting.ID)
}
