package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/slotpoll/internal/timeslot"
	"github.com/example/slotpoll/internal/voting"
)

// MeetingRepository captures the persistence interactions needed by the
// meeting service. UpdateMeetingByUniqueID must apply the supplied transform
// atomically per meeting.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting Meeting) (Meeting, error)
	GetMeetingByUniqueID(ctx context.Context, uniqueID string) (Meeting, error)
	UpdateMeetingByUniqueID(ctx context.Context, uniqueID string, update func(Meeting) (Meeting, error)) (Meeting, error)
}

// ParticipantRegistry exposes the participant lookups and purges required by
// meeting resets.
type ParticipantRegistry interface {
	ListParticipants(ctx context.Context, meetingID string) ([]Participant, error)
	DeleteParticipantsExcept(ctx context.Context, meetingID, keepID string) error
}

// AvailabilityRepository stores per-participant availability records.
type AvailabilityRepository interface {
	UpsertAvailability(ctx context.Context, availability Availability) error
	ListAvailability(ctx context.Context, meetingID string) ([]Availability, error)
	DeleteAvailabilityForMeeting(ctx context.Context, meetingID string) error
}

// MeetingService orchestrates meeting lifecycle and vote operations.
type MeetingService struct {
	meetings       MeetingRepository
	participants   ParticipantRegistry
	availability   AvailabilityRepository
	events         EventSink
	idGenerator    func() string
	tokenGenerator func() string
	keyGenerator   func() string
	hashParams     Argon2idParams
	defaultCap     int
	now            func() time.Time
	logger         *slog.Logger
	views          *tallyCache
}

// SetDefaultMaxVoters sets the distinct-voter cap applied to meetings created
// without an explicit cap. Zero leaves such meetings uncapped.
func (s *MeetingService) SetDefaultMaxVoters(maxVoters int) {
	if s == nil || maxVoters < 0 {
		return
	}
	s.defaultCap = maxVoters
}

// SetViewCacheTTL sets how long derived meeting views may be served from the
// cache before being rebuilt. Non-positive values are ignored.
func (s *MeetingService) SetViewCacheTTL(ttl time.Duration) {
	if s == nil || ttl <= 0 {
		return
	}
	s.views = newTallyCache(ttl, 0, s.now)
}

// NewMeetingService wires dependencies for meeting operations.
func NewMeetingService(meetings MeetingRepository, participants ParticipantRegistry, availability AvailabilityRepository, events EventSink, idGenerator, tokenGenerator func() string, now func() time.Time) *MeetingService {
	return NewMeetingServiceWithLogger(meetings, participants, availability, events, idGenerator, tokenGenerator, now, nil)
}

// NewMeetingServiceWithLogger wires dependencies for meeting operations with a
// custom logger.
func NewMeetingServiceWithLogger(meetings MeetingRepository, participants ParticipantRegistry, availability AvailabilityRepository, events EventSink, idGenerator, tokenGenerator func() string, now func() time.Time, logger *slog.Logger) *MeetingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MeetingService{
		meetings:       meetings,
		participants:   participants,
		availability:   availability,
		events:         sinkOrDiscard(events),
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		keyGenerator:   GenerateAdminKey,
		hashParams:     DefaultArgon2idParams,
		now:            now,
		logger:         defaultLogger(logger),
		views:          newTallyCache(15*time.Second, 256, now),
	}
}

// CreateMeeting validates the request, mints identifiers and the organizer
// admin key, and persists the meeting. The plaintext admin key is returned
// exactly once in the result.
func (s *MeetingService) CreateMeeting(ctx context.Context, params CreateMeetingParams) (CreateMeetingResult, error) {
	if s == nil {
		return CreateMeetingResult{}, fmt.Errorf("MeetingService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "meeting", "create")

	vErr := &ValidationError{}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		vErr.add("title", "title is required")
	}
	validateWindow(params.Window, vErr)
	organizerName := strings.TrimSpace(params.OrganizerName)
	if organizerName == "" {
		vErr.add("organizerName", "organizerName is required")
	}
	if params.MaxVoters < 0 {
		vErr.add("maxVoters", "maxVoters must not be negative")
	}
	if vErr.HasErrors() {
		logger.WarnContext(ctx, "meeting validation failed", "error_kind", ErrorKind(vErr), "fields", len(vErr.FieldErrors))
		return CreateMeetingResult{}, vErr
	}

	adminKey := s.keyGenerator()
	adminKeyHash, err := HashAdminKey(adminKey, s.hashParams)
	if err != nil {
		logger.ErrorContext(ctx, "failed to hash admin key", "error", err)
		return CreateMeetingResult{}, fmt.Errorf("hash admin key: %w", err)
	}

	maxVoters := params.MaxVoters
	if maxVoters == 0 {
		maxVoters = s.defaultCap
	}

	createdAt := s.now()
	meeting := Meeting{
		ID:             s.idGenerator(),
		UniqueID:       s.tokenGenerator(),
		Title:          title,
		OrganizerName:  organizerName,
		Window:         params.Window,
		VotingDeadline: params.VotingDeadline,
		MaxVoters:      maxVoters,
		Creator:        normalizeVoter(params.Creator),
		Votes:          voting.NewLedger(),
		AdminKeyHash:   adminKeyHash,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}

	created, err := s.meetings.CreateMeeting(ctx, meeting)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create meeting", "error", err, "error_kind", ErrorKind(err))
		return CreateMeetingResult{}, err
	}

	logger.InfoContext(ctx, "meeting created", "meeting_id", created.ID, "slot_count", len(timeslot.Generate(created.Window)))
	return CreateMeetingResult{Meeting: created, AdminKey: adminKey}, nil
}

// GetMeeting loads a meeting by its shareable token and derives the full
// aggregate view: slots, tallies, availability ratios, current winner and
// open/closed state.
func (s *MeetingService) GetMeeting(ctx context.Context, uniqueID string) (MeetingView, error) {
	if s == nil {
		return MeetingView{}, fmt.Errorf("MeetingService is nil")
	}
	if view, ok := s.views.Get(uniqueID); ok {
		// The open/closed state is a function of the clock, not of the
		// meeting, so a cached view must not freeze it.
		view.State = view.Meeting.State(s.now())
		return view, nil
	}

	meeting, err := s.meetings.GetMeetingByUniqueID(ctx, uniqueID)
	if err != nil {
		return MeetingView{}, err
	}

	view := s.buildView(meeting)
	s.views.Store(uniqueID, view)
	return view, nil
}

// SubmitVote replaces the voter's selection set on the meeting. The previous
// selections are discarded, never merged. An empty SlotIDs list clears the
// voter's votes.
func (s *MeetingService) SubmitVote(ctx context.Context, params SubmitVoteParams) (Meeting, error) {
	if s == nil {
		return Meeting{}, fmt.Errorf("MeetingService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "meeting", "submit_vote", "meeting_token", params.UniqueID)

	voter := normalizeVoter(params.Voter)
	if voter.UID == "" {
		vErr := &ValidationError{}
		vErr.add("voter.uid", "voter uid is required")
		return Meeting{}, vErr
	}
	slotIDs := uniqueSorted(params.SlotIDs)

	updated, err := s.meetings.UpdateMeetingByUniqueID(ctx, params.UniqueID, func(meeting Meeting) (Meeting, error) {
		if meeting.State(s.now()) == MeetingStateClosed {
			return Meeting{}, ErrVotingClosed
		}
		for _, slotID := range slotIDs {
			if !meeting.Window.Contains(slotID) {
				return Meeting{}, fmt.Errorf("slot %q: %w", slotID, ErrInvalidSlot)
			}
		}
		if meeting.MaxVoters > 0 && len(slotIDs) > 0 && !meeting.Votes.HasVoter(voter.UID) && meeting.Votes.DistinctVoterCount() >= meeting.MaxVoters {
			return Meeting{}, ErrCapExceeded
		}
		if meeting.Votes == nil {
			meeting.Votes = voting.NewLedger()
		}
		meeting.Votes.Submit(slotIDs, voter)
		meeting.UpdatedAt = s.now()
		return meeting, nil
	})
	if err != nil {
		logger.WarnContext(ctx, "vote submission rejected", "error", err, "error_kind", ErrorKind(err))
		return Meeting{}, err
	}

	s.views.Invalidate(params.UniqueID)
	s.events.Publish(ctx, Event{
		Kind:         EventVoteSubmitted,
		MeetingID:    updated.ID,
		MeetingToken: updated.UniqueID,
		VoterUID:     voter.UID,
		OccurredAt:   s.now(),
	})
	logger.InfoContext(ctx, "vote submitted", "voter_uid", voter.UID, "slot_count", len(slotIDs))
	return updated, nil
}

// ClearVotes removes every vote cast by the voter. Clearing a voter who never
// voted succeeds without effect. Like submissions, clears are rejected once
// the deadline has passed.
func (s *MeetingService) ClearVotes(ctx context.Context, uniqueID, voterUID string) (Meeting, error) {
	if s == nil {
		return Meeting{}, fmt.Errorf("MeetingService is nil")
	}
	return s.SubmitVote(ctx, SubmitVoteParams{
		UniqueID: uniqueID,
		SlotIDs:  nil,
		Voter:    voting.Voter{UID: voterUID},
	})
}

// ResetMeeting purges all votes, availability records and participants except
// the host, keeping the meeting itself and its window intact. The caller must
// present the organizer admin key.
func (s *MeetingService) ResetMeeting(ctx context.Context, uniqueID, adminKey string) (Meeting, error) {
	if s == nil {
		return Meeting{}, fmt.Errorf("MeetingService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "meeting", "reset", "meeting_token", uniqueID)

	updated, err := s.meetings.UpdateMeetingByUniqueID(ctx, uniqueID, func(meeting Meeting) (Meeting, error) {
		if err := VerifyAdminKey(meeting.AdminKeyHash, adminKey); err != nil {
			return Meeting{}, err
		}
		meeting.Votes = voting.NewLedger()
		meeting.UpdatedAt = s.now()
		return meeting, nil
	})
	if err != nil {
		logger.WarnContext(ctx, "meeting reset rejected", "error", err, "error_kind", ErrorKind(err))
		return Meeting{}, err
	}

	keepID, err := s.hostParticipantID(ctx, updated.ID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to resolve host participant", "error", err)
		return Meeting{}, err
	}
	if err := s.availability.DeleteAvailabilityForMeeting(ctx, updated.ID); err != nil {
		logger.ErrorContext(ctx, "failed to purge availability", "error", err)
		return Meeting{}, err
	}
	if err := s.participants.DeleteParticipantsExcept(ctx, updated.ID, keepID); err != nil {
		logger.ErrorContext(ctx, "failed to purge participants", "error", err)
		return Meeting{}, err
	}

	s.views.Invalidate(uniqueID)
	s.events.Publish(ctx, Event{
		Kind:         EventMeetingReset,
		MeetingID:    updated.ID,
		MeetingToken: updated.UniqueID,
		OccurredAt:   s.now(),
	})
	logger.InfoContext(ctx, "meeting reset", "meeting_id", updated.ID, "kept_participant_id", keepID)
	return updated, nil
}

// UpdateWindow replaces the meeting window, pruning votes and availability
// entries that reference slots outside the new grid. The caller must present
// the organizer admin key.
func (s *MeetingService) UpdateWindow(ctx context.Context, params UpdateWindowParams) (Meeting, error) {
	if s == nil {
		return Meeting{}, fmt.Errorf("MeetingService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "meeting", "update_window", "meeting_token", params.UniqueID)

	vErr := &ValidationError{}
	validateWindow(params.Window, vErr)
	if vErr.HasErrors() {
		logger.WarnContext(ctx, "window validation failed", "error_kind", ErrorKind(vErr), "fields", len(vErr.FieldErrors))
		return Meeting{}, vErr
	}

	updated, err := s.meetings.UpdateMeetingByUniqueID(ctx, params.UniqueID, func(meeting Meeting) (Meeting, error) {
		if err := VerifyAdminKey(meeting.AdminKeyHash, params.AdminKey); err != nil {
			return Meeting{}, err
		}
		meeting.Window = params.Window
		meeting.Votes.Prune(params.Window.Contains)
		meeting.UpdatedAt = s.now()
		return meeting, nil
	})
	if err != nil {
		logger.WarnContext(ctx, "window update rejected", "error", err, "error_kind", ErrorKind(err))
		return Meeting{}, err
	}

	if err := s.pruneAvailability(ctx, updated.ID, params.Window); err != nil {
		logger.ErrorContext(ctx, "failed to prune availability", "error", err)
		return Meeting{}, err
	}

	s.views.Invalidate(params.UniqueID)
	logger.InfoContext(ctx, "window updated", "meeting_id", updated.ID, "slot_count", len(timeslot.Generate(updated.Window)))
	return updated, nil
}

// hostParticipantID resolves the participant to survive a reset: the flagged
// host, or the earliest registered participant when no host was flagged.
func (s *MeetingService) hostParticipantID(ctx context.Context, meetingID string) (string, error) {
	participants, err := s.participants.ListParticipants(ctx, meetingID)
	if err != nil {
		return "", err
	}
	for _, participant := range participants {
		if participant.IsHost {
			return participant.ID, nil
		}
	}
	if len(participants) > 0 {
		return participants[0].ID, nil
	}
	return "", nil
}

func (s *MeetingService) pruneAvailability(ctx context.Context, meetingID string, window timeslot.Window) error {
	records, err := s.availability.ListAvailability(ctx, meetingID)
	if err != nil {
		return err
	}
	for _, record := range records {
		kept := record.SlotIDs[:0:0]
		for _, slotID := range record.SlotIDs {
			if window.Contains(slotID) {
				kept = append(kept, slotID)
			}
		}
		if len(kept) == len(record.SlotIDs) {
			continue
		}
		record.SlotIDs = kept
		record.UpdatedAt = s.now()
		if err := s.availability.UpsertAvailability(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (s *MeetingService) buildView(meeting Meeting) MeetingView {
	slots := timeslot.Generate(meeting.Window)
	orderedIDs := make([]string, len(slots))
	views := make([]SlotView, len(slots))
	for i, slot := range slots {
		orderedIDs[i] = slot.ID
		available, total := voting.AvailabilityRatio(meeting.Votes, slot.ID)
		views[i] = SlotView{
			ID:              slot.ID,
			Start:           slot.Start,
			DurationMinutes: slot.DurationMinutes,
			VoteCount:       meeting.Votes.VoteCount(slot.ID),
			Available:       available,
			Total:           total,
			Voters:          meeting.Votes.VotersFor(slot.ID),
		}
	}
	winner, _ := voting.MostVotedSlot(meeting.Votes, orderedIDs)
	return MeetingView{
		Meeting:            meeting,
		State:              meeting.State(s.now()),
		Slots:              views,
		MostVotedSlotID:    winner,
		DistinctVoterCount: meeting.Votes.DistinctVoterCount(),
	}
}

func validateWindow(w timeslot.Window, vErr *ValidationError) {
	if w.StartDate.IsZero() {
		vErr.add("startDate", "startDate is required")
	}
	if w.EndDate.IsZero() {
		vErr.add("endDate", "endDate is required")
	}
	if !w.StartDate.IsZero() && !w.EndDate.IsZero() && w.EndDate.Before(w.StartDate) {
		vErr.add("endDate", "endDate must not be before startDate")
	}
	if w.StartHour < 0 || w.StartHour > 23 {
		vErr.add("startHour", "startHour must be between 0 and 23")
	}
	if w.EndHour < 0 || w.EndHour > 24 {
		vErr.add("endHour", "endHour must be between 0 and 24")
	}
	if w.StartHour > w.EndHour {
		vErr.add("endHour", "endHour must not be before startHour")
	}
	if w.SlotDurationMinutes <= 0 {
		vErr.add("slotDurationMinutes", "slotDurationMinutes must be positive")
	}
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	sort.Strings(result)
	return result
}
