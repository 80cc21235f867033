package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/slotpoll/internal/application"
	"github.com/example/slotpoll/internal/timeslot"
)

type meetingServiceStub struct {
	createResult application.CreateMeetingResult
	createErr    error

	view    application.MeetingView
	viewErr error

	submitErr error
	submitted application.SubmitVoteParams

	clearedUID string
	clearErr   error

	resetKey string
	resetErr error

	windowErr error
}

func (s *meetingServiceStub) CreateMeeting(ctx context.Context, params application.CreateMeetingParams) (application.CreateMeetingResult, error) {
	if s.createErr != nil {
		return application.CreateMeetingResult{}, s.createErr
	}
	return s.createResult, nil
}

func (s *meetingServiceStub) GetMeeting(ctx context.Context, uniqueID string) (application.MeetingView, error) {
	if s.viewErr != nil {
		return application.MeetingView{}, s.viewErr
	}
	return s.view, nil
}

func (s *meetingServiceStub) SubmitVote(ctx context.Context, params application.SubmitVoteParams) (application.Meeting, error) {
	if s.submitErr != nil {
		return application.Meeting{}, s.submitErr
	}
	s.submitted = params
	return s.view.Meeting, nil
}

func (s *meetingServiceStub) ClearVotes(ctx context.Context, uniqueID, voterUID string) (application.Meeting, error) {
	if s.clearErr != nil {
		return application.Meeting{}, s.clearErr
	}
	s.clearedUID = voterUID
	return s.view.Meeting, nil
}

func (s *meetingServiceStub) ResetMeeting(ctx context.Context, uniqueID, adminKey string) (application.Meeting, error) {
	if s.resetErr != nil {
		return application.Meeting{}, s.resetErr
	}
	s.resetKey = adminKey
	return s.view.Meeting, nil
}

func (s *meetingServiceStub) UpdateWindow(ctx context.Context, params application.UpdateWindowParams) (application.Meeting, error) {
	if s.windowErr != nil {
		return application.Meeting{}, s.windowErr
	}
	return s.view.Meeting, nil
}

type participantServiceStub struct {
	addResult application.Participant
	addErr    error

	list    []application.Participant
	listErr error

	availability    application.Availability
	availabilityErr error

	records []application.Availability
}

func (s *participantServiceStub) AddParticipant(ctx context.Context, params application.AddParticipantParams) (application.Participant, error) {
	if s.addErr != nil {
		return application.Participant{}, s.addErr
	}
	return s.addResult, nil
}

func (s *participantServiceStub) ListParticipants(ctx context.Context, uniqueID string) ([]application.Participant, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.list, nil
}

func (s *participantServiceStub) SubmitAvailability(ctx context.Context, params application.SubmitAvailabilityParams) (application.Availability, error) {
	if s.availabilityErr != nil {
		return application.Availability{}, s.availabilityErr
	}
	return s.availability, nil
}

func (s *participantServiceStub) ListAvailability(ctx context.Context, uniqueID string) ([]application.Availability, error) {
	return s.records, nil
}

func testView() application.MeetingView {
	start := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	return application.MeetingView{
		Meeting: application.Meeting{
			ID:       "meeting-1",
			UniqueID: "token-1",
			Title:    "Sprint Planning",
			Window: timeslot.Window{
				StartDate:           time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
				EndDate:             time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
				StartHour:           9,
				EndHour:             11,
				SlotDurationMinutes: 60,
			},
		},
		State: application.MeetingStateOpen,
		Slots: []application.SlotView{
			{ID: "2025-07-01T09:00", Start: start, DurationMinutes: 60, VoteCount: 2, Available: 2, Total: 2},
			{ID: "2025-07-01T10:00", Start: start.Add(time.Hour), DurationMinutes: 60},
		},
		MostVotedSlotID:    "2025-07-01T09:00",
		DistinctVoterCount: 2,
	}
}

func newTestRouter(meetings *meetingServiceStub, participants *participantServiceStub) http.Handler {
	now := func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	cfg := RouterConfig{
		Meetings: NewMeetingHandler(meetings, now, nil),
	}
	if participants != nil {
		cfg.Participants = NewParticipantHandler(participants, nil)
	}
	return NewRouter(cfg)
}

func TestMeetingHandlers(t *testing.T) {
	t.Run("create returns the view and the admin key", func(t *testing.T) {
		stub := &meetingServiceStub{
			createResult: application.CreateMeetingResult{Meeting: testView().Meeting, AdminKey: "secret-key"},
			view:         testView(),
		}
		router := newTestRouter(stub, nil)

		body := `{"title":"Sprint Planning","start_date":"2025-07-01","end_date":"2025-07-01","start_hour":9,"end_hour":11,"slot_duration_minutes":60}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/meetings", strings.NewReader(body)))

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp createMeetingResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.AdminKey != "secret-key" {
			t.Errorf("expected admin key in response, got %q", resp.AdminKey)
		}
		if resp.Meeting.UniqueID != "token-1" || len(resp.Meeting.Slots) != 2 {
			t.Errorf("unexpected meeting payload: %+v", resp.Meeting)
		}
	})

	t.Run("create rejects malformed dates", func(t *testing.T) {
		router := newTestRouter(&meetingServiceStub{}, nil)

		body := `{"title":"Sprint Planning","start_date":"July 1st","end_date":"2025-07-01"}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/meetings", strings.NewReader(body)))

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("get maps not found to 404", func(t *testing.T) {
		router := newTestRouter(&meetingServiceStub{viewErr: application.ErrNotFound}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meetings/missing", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("vote submission routes the token and voter", func(t *testing.T) {
		stub := &meetingServiceStub{view: testView()}
		router := newTestRouter(stub, nil)

		body := `{"slot_ids":["2025-07-01T09:00"],"voter":{"uid":"alice"}}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/meetings/token-1/votes", strings.NewReader(body)))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.submitted.UniqueID != "token-1" || stub.submitted.Voter.UID != "alice" {
			t.Errorf("unexpected params: %+v", stub.submitted)
		}
	})

	t.Run("vote after the deadline maps to 409", func(t *testing.T) {
		router := newTestRouter(&meetingServiceStub{submitErr: application.ErrVotingClosed}, nil)

		body := `{"slot_ids":["2025-07-01T09:00"],"voter":{"uid":"alice"}}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/meetings/token-1/votes", strings.NewReader(body)))

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		var resp errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ErrorCode != "VOTING_CLOSED" {
			t.Errorf("unexpected error code %q", resp.ErrorCode)
		}
	})

	t.Run("voter cap maps to 403 and invalid slot to 422", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
		}{
			{application.ErrCapExceeded, http.StatusForbidden},
			{application.ErrInvalidSlot, http.StatusUnprocessableEntity},
		}
		for _, tc := range cases {
			router := newTestRouter(&meetingServiceStub{submitErr: tc.err}, nil)
			body := `{"slot_ids":["2025-07-01T09:00"],"voter":{"uid":"alice"}}`
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/meetings/token-1/votes", strings.NewReader(body)))
			if rec.Code != tc.status {
				t.Errorf("expected %d for %v, got %d", tc.status, tc.err, rec.Code)
			}
		}
	})

	t.Run("clear votes routes the voter uid", func(t *testing.T) {
		stub := &meetingServiceStub{view: testView()}
		router := newTestRouter(stub, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/meetings/token-1/votes/alice", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if stub.clearedUID != "alice" {
			t.Errorf("expected voter uid alice, got %q", stub.clearedUID)
		}
	})

	t.Run("reset requires the admin key header", func(t *testing.T) {
		router := newTestRouter(&meetingServiceStub{view: testView()}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/meetings/token-1/reset", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("reset maps a rejected admin key to 403", func(t *testing.T) {
		router := newTestRouter(&meetingServiceStub{resetErr: application.ErrUnauthorized}, nil)

		req := httptest.NewRequest(http.MethodPost, "/meetings/token-1/reset", nil)
		req.Header.Set(adminKeyHeader, "wrong-key")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("reset forwards the admin key", func(t *testing.T) {
		stub := &meetingServiceStub{view: testView()}
		router := newTestRouter(stub, nil)

		req := httptest.NewRequest(http.MethodPost, "/meetings/token-1/reset", nil)
		req.Header.Set(adminKeyHeader, "secret-key")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if stub.resetKey != "secret-key" {
			t.Errorf("expected forwarded admin key, got %q", stub.resetKey)
		}
	})

	t.Run("calendar renders an iCalendar document", func(t *testing.T) {
		router := newTestRouter(&meetingServiceStub{view: testView()}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meetings/token-1/calendar.ics", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
			t.Errorf("unexpected content type %q", ct)
		}
		if !strings.Contains(rec.Body.String(), "BEGIN:VCALENDAR") {
			t.Errorf("expected iCalendar body, got %q", rec.Body.String())
		}
	})

	t.Run("rejects unsupported methods", func(t *testing.T) {
		router := newTestRouter(&meetingServiceStub{view: testView()}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/meetings/token-1", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
		if allow := rec.Header().Get("Allow"); allow != http.MethodGet {
			t.Errorf("unexpected Allow header %q", allow)
		}
	})
}

func TestParticipantHandlers(t *testing.T) {
	t.Run("create returns the participant", func(t *testing.T) {
		participants := &participantServiceStub{
			addResult: application.Participant{ID: "p-1", MeetingID: "meeting-1", Name: "Alice", IsHost: true},
		}
		router := newTestRouter(&meetingServiceStub{view: testView()}, participants)

		body := `{"name":"Alice","is_host":true}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/meetings/token-1/participants", strings.NewReader(body)))

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		var resp participantDTO
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ID != "p-1" || !resp.IsHost {
			t.Errorf("unexpected payload: %+v", resp)
		}
	})

	t.Run("maps a duplicate host to 409", func(t *testing.T) {
		participants := &participantServiceStub{addErr: application.ErrHostAlreadyAssigned}
		router := newTestRouter(&meetingServiceStub{view: testView()}, participants)

		body := `{"name":"Bob","is_host":true}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/meetings/token-1/participants", strings.NewReader(body)))

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("availability submission routes the participant id", func(t *testing.T) {
		participants := &participantServiceStub{
			availability: application.Availability{ParticipantID: "p-1", MeetingID: "meeting-1", SlotIDs: []string{"2025-07-01T09:00"}},
		}
		router := newTestRouter(&meetingServiceStub{view: testView()}, participants)

		body := `{"slot_ids":["2025-07-01T09:00"]}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/meetings/token-1/participants/p-1/availability", strings.NewReader(body)))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp availabilityDTO
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ParticipantID != "p-1" {
			t.Errorf("unexpected payload: %+v", resp)
		}
	})

	t.Run("lists are empty slices, never null", func(t *testing.T) {
		router := newTestRouter(&meetingServiceStub{view: testView()}, &participantServiceStub{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meetings/token-1/participants", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
			t.Errorf("expected empty array, got %q", body)
		}
	})
}
