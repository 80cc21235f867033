package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/slotpoll/internal/persistence"
)

// Store is an in-memory persistence implementation. It clones records on the
// way in and out so callers never share map state with the store, and holds a
// dedicated mutex per meeting so concurrent updates to one meeting serialize
// without blocking updates to any other.
type Store struct {
	mu            sync.RWMutex
	meetings      map[string]persistence.Meeting
	uniqueIndex   map[string]string
	participants  map[string]persistence.Participant
	availability  map[string]persistence.Availability
	meetingLocksM sync.Mutex
	meetingLocks  map[string]*sync.Mutex
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		meetings:     make(map[string]persistence.Meeting),
		uniqueIndex:  make(map[string]string),
		participants: make(map[string]persistence.Participant),
		availability: make(map[string]persistence.Availability),
		meetingLocks: make(map[string]*sync.Mutex),
	}
}

// CreateMeeting stores a new meeting document.
func (s *Store) CreateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meetings[meeting.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.uniqueIndex[meeting.UniqueID]; ok {
		return persistence.ErrDuplicate
	}

	s.meetings[meeting.ID] = cloneMeeting(meeting)
	s.uniqueIndex[meeting.UniqueID] = meeting.ID
	return nil
}

// GetMeeting retrieves a meeting by primary key.
func (s *Store) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meeting, ok := s.meetings[id]
	if !ok {
		return persistence.Meeting{}, persistence.ErrNotFound
	}
	return cloneMeeting(meeting), nil
}

// GetMeetingByUniqueID retrieves a meeting by its public share token.
func (s *Store) GetMeetingByUniqueID(ctx context.Context, uniqueID string) (persistence.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.uniqueIndex[uniqueID]
	if !ok {
		return persistence.Meeting{}, persistence.ErrNotFound
	}
	return cloneMeeting(s.meetings[id]), nil
}

// UpdateMeetingByUniqueID applies the update function atomically with respect
// to other updates of the same meeting. The identifiers of the stored
// document are immutable; values returned by update are ignored for them.
func (s *Store) UpdateMeetingByUniqueID(ctx context.Context, uniqueID string, update persistence.UpdateFunc) (persistence.Meeting, error) {
	s.mu.RLock()
	id, ok := s.uniqueIndex[uniqueID]
	s.mu.RUnlock()
	if !ok {
		return persistence.Meeting{}, persistence.ErrNotFound
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	current, ok := s.meetings[id]
	s.mu.RUnlock()
	if !ok {
		return persistence.Meeting{}, persistence.ErrNotFound
	}

	updated, err := update(cloneMeeting(current))
	if err != nil {
		return persistence.Meeting{}, err
	}
	updated.ID = current.ID
	updated.UniqueID = current.UniqueID

	s.mu.Lock()
	s.meetings[id] = cloneMeeting(updated)
	s.mu.Unlock()

	return updated, nil
}

// CreateParticipant stores a new participant record.
func (s *Store) CreateParticipant(ctx context.Context, participant persistence.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[participant.ID]; ok {
		return persistence.ErrDuplicate
	}
	s.participants[participant.ID] = cloneParticipant(participant)
	return nil
}

// GetParticipant retrieves a participant by ID.
func (s *Store) GetParticipant(ctx context.Context, id string) (persistence.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	participant, ok := s.participants[id]
	if !ok {
		return persistence.Participant{}, persistence.ErrNotFound
	}
	return cloneParticipant(participant), nil
}

// ListParticipants returns the meeting's participants ordered by CreatedAt
// ascending with ID as tie-break.
func (s *Store) ListParticipants(ctx context.Context, meetingID string) ([]persistence.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	participants := make([]persistence.Participant, 0)
	for _, participant := range s.participants {
		if participant.MeetingID == meetingID {
			participants = append(participants, cloneParticipant(participant))
		}
	}

	sort.Slice(participants, func(i, j int) bool {
		if participants[i].CreatedAt.Equal(participants[j].CreatedAt) {
			return participants[i].ID < participants[j].ID
		}
		return participants[i].CreatedAt.Before(participants[j].CreatedAt)
	})

	return participants, nil
}

// DeleteParticipantsExcept removes every participant of the meeting except
// keepID, along with their availability records.
func (s *Store) DeleteParticipantsExcept(ctx context.Context, meetingID, keepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, participant := range s.participants {
		if participant.MeetingID != meetingID || id == keepID {
			continue
		}
		delete(s.participants, id)
		delete(s.availability, id)
	}
	return nil
}

// UpsertAvailability replaces the participant's availability record.
func (s *Store) UpsertAvailability(ctx context.Context, availability persistence.Availability) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.availability[availability.ParticipantID] = cloneAvailability(availability)
	return nil
}

// ListAvailability returns the meeting's availability records ordered by
// participant ID.
func (s *Store) ListAvailability(ctx context.Context, meetingID string) ([]persistence.Availability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]persistence.Availability, 0)
	for _, availability := range s.availability {
		if availability.MeetingID == meetingID {
			records = append(records, cloneAvailability(availability))
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ParticipantID < records[j].ParticipantID
	})

	return records, nil
}

// DeleteAvailabilityForMeeting removes all availability records of a meeting.
func (s *Store) DeleteAvailabilityForMeeting(ctx context.Context, meetingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, availability := range s.availability {
		if availability.MeetingID == meetingID {
			delete(s.availability, id)
		}
	}
	return nil
}

func (s *Store) lockFor(meetingID string) *sync.Mutex {
	s.meetingLocksM.Lock()
	defer s.meetingLocksM.Unlock()

	lock, ok := s.meetingLocks[meetingID]
	if !ok {
		lock = &sync.Mutex{}
		s.meetingLocks[meetingID] = lock
	}
	return lock
}

func cloneMeeting(meeting persistence.Meeting) persistence.Meeting {
	clone := meeting
	clone.VotingDeadline = cloneTime(meeting.VotingDeadline)
	clone.Votes = meeting.Votes.Clone()
	return clone
}

func cloneParticipant(participant persistence.Participant) persistence.Participant {
	return participant
}

func cloneAvailability(availability persistence.Availability) persistence.Availability {
	clone := availability
	clone.SlotIDs = append([]string(nil), availability.SlotIDs...)
	return clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
