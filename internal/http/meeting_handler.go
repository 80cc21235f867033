package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/slotpoll/internal/application"
	"github.com/example/slotpoll/internal/ical"
	"github.com/example/slotpoll/internal/timeslot"
	"github.com/example/slotpoll/internal/voting"
)

const (
	adminKeyHeader = "X-Admin-Key"
	dateLayout     = "2006-01-02"
)

type meetingService interface {
	CreateMeeting(ctx context.Context, params application.CreateMeetingParams) (application.CreateMeetingResult, error)
	GetMeeting(ctx context.Context, uniqueID string) (application.MeetingView, error)
	SubmitVote(ctx context.Context, params application.SubmitVoteParams) (application.Meeting, error)
	ClearVotes(ctx context.Context, uniqueID, voterUID string) (application.Meeting, error)
	ResetMeeting(ctx context.Context, uniqueID, adminKey string) (application.Meeting, error)
	UpdateWindow(ctx context.Context, params application.UpdateWindowParams) (application.Meeting, error)
}

type MeetingHandler struct {
	service   meetingService
	responder responder
	now       func() time.Time
}

func NewMeetingHandler(service meetingService, now func() time.Time, logger *slog.Logger) *MeetingHandler {
	if now == nil {
		now = time.Now
	}
	return &MeetingHandler{service: service, responder: newResponder(logger), now: now}
}

func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	window, vErr := req.toWindow()
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	result, err := h.service.CreateMeeting(r.Context(), application.CreateMeetingParams{
		Title:          req.Title,
		OrganizerName:  req.OrganizerName,
		Window:         window,
		VotingDeadline: req.VotingDeadline,
		MaxVoters:      req.MaxVoters,
		Creator:        req.Creator.toVoter(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	view, err := h.service.GetMeeting(r.Context(), result.Meeting.UniqueID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, createMeetingResponse{
		Meeting:  viewToResponse(view),
		AdminKey: result.AdminKey,
	})
}

func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, ok := MeetingTokenFromContext(r.Context())
	if !ok || strings.TrimSpace(token) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidToken)
		return
	}

	view, err := h.service.GetMeeting(r.Context(), token)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, viewToResponse(view))
}

func (h *MeetingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, ok := MeetingTokenFromContext(r.Context())
	if !ok || strings.TrimSpace(token) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidToken)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if _, err := h.service.SubmitVote(r.Context(), application.SubmitVoteParams{
		UniqueID: token,
		SlotIDs:  req.SlotIDs,
		Voter:    req.Voter.toVoter(),
	}); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderView(r.Context(), w, token, http.StatusOK)
}

func (h *MeetingHandler) ClearVotes(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, ok := MeetingTokenFromContext(r.Context())
	if !ok || strings.TrimSpace(token) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidToken)
		return
	}
	voterUID, ok := VoterUIDFromContext(r.Context())
	if !ok || strings.TrimSpace(voterUID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidVoterUID)
		return
	}

	if _, err := h.service.ClearVotes(r.Context(), token, voterUID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderView(r.Context(), w, token, http.StatusOK)
}

func (h *MeetingHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, ok := MeetingTokenFromContext(r.Context())
	if !ok || strings.TrimSpace(token) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidToken)
		return
	}
	adminKey := strings.TrimSpace(r.Header.Get(adminKeyHeader))
	if adminKey == "" {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAdminKey)
		return
	}

	if _, err := h.service.ResetMeeting(r.Context(), token, adminKey); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.responder.logger, "meeting", "reset", "meeting_token", token).
		InfoContext(r.Context(), "meeting reset")
	h.renderView(r.Context(), w, token, http.StatusOK)
}

func (h *MeetingHandler) UpdateWindow(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, ok := MeetingTokenFromContext(r.Context())
	if !ok || strings.TrimSpace(token) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidToken)
		return
	}
	adminKey := strings.TrimSpace(r.Header.Get(adminKeyHeader))
	if adminKey == "" {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAdminKey)
		return
	}

	var req windowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	window, vErr := req.toWindow()
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	if _, err := h.service.UpdateWindow(r.Context(), application.UpdateWindowParams{
		UniqueID: token,
		AdminKey: adminKey,
		Window:   window,
	}); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderView(r.Context(), w, token, http.StatusOK)
}

// Calendar renders the most voted slot as an iCalendar document.
func (h *MeetingHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, ok := MeetingTokenFromContext(r.Context())
	if !ok || strings.TrimSpace(token) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidToken)
		return
	}

	view, err := h.service.GetMeeting(r.Context(), token)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="meeting.ics"`)
	if err := ical.WriteWinner(w, view, h.now()); err != nil {
		handlerLogger(r.Context(), h.responder.logger, "meeting", "calendar", "meeting_token", token).
			ErrorContext(r.Context(), "failed to render calendar", "error", err)
	}
}

func (h *MeetingHandler) renderView(ctx context.Context, w http.ResponseWriter, token string, status int) {
	view, err := h.service.GetMeeting(ctx, token)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, status, viewToResponse(view))
}

type voterDTO struct {
	UID         string            `json:"uid"`
	DisplayName string            `json:"display_name,omitempty"`
	PhotoURL    string            `json:"photo_url,omitempty"`
	IsGuest     bool              `json:"is_guest,omitempty"`
	Weight      float64           `json:"weight,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (d voterDTO) toVoter() voting.Voter {
	return voting.Voter{
		UID:         d.UID,
		DisplayName: d.DisplayName,
		PhotoURL:    d.PhotoURL,
		IsGuest:     d.IsGuest,
		Weight:      d.Weight,
		Metadata:    d.Metadata,
	}
}

func voterToDTO(v voting.Voter) voterDTO {
	return voterDTO{
		UID:         v.UID,
		DisplayName: v.DisplayName,
		PhotoURL:    v.PhotoURL,
		IsGuest:     v.IsGuest,
		Weight:      v.Weight,
		Metadata:    v.Metadata,
	}
}

type windowRequest struct {
	StartDate           string `json:"start_date"`
	EndDate             string `json:"end_date"`
	StartHour           int    `json:"start_hour"`
	EndHour             int    `json:"end_hour"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
}

func (d windowRequest) toWindow() (timeslot.Window, *application.ValidationError) {
	fields := make(map[string]string)
	startDate, err := time.Parse(dateLayout, d.StartDate)
	if err != nil {
		fields["start_date"] = "start_date must be formatted as YYYY-MM-DD"
	}
	endDate, err := time.Parse(dateLayout, d.EndDate)
	if err != nil {
		fields["end_date"] = "end_date must be formatted as YYYY-MM-DD"
	}
	if len(fields) > 0 {
		return timeslot.Window{}, &application.ValidationError{FieldErrors: fields}
	}
	return timeslot.Window{
		StartDate:           startDate,
		EndDate:             endDate,
		StartHour:           d.StartHour,
		EndHour:             d.EndHour,
		SlotDurationMinutes: d.SlotDurationMinutes,
	}, nil
}

type meetingRequest struct {
	Title         string     `json:"title"`
	OrganizerName string     `json:"organizer_name"`
	windowRequest
	VotingDeadline *time.Time `json:"voting_deadline,omitempty"`
	MaxVoters      int        `json:"max_voters"`
	Creator        voterDTO   `json:"creator"`
}

type voteRequest struct {
	SlotIDs []string `json:"slot_ids"`
	Voter   voterDTO `json:"voter"`
}

type slotDTO struct {
	ID              string     `json:"id"`
	Start           time.Time  `json:"start"`
	DurationMinutes int        `json:"duration_minutes"`
	VoteCount       int        `json:"vote_count"`
	Available       int        `json:"available"`
	Total           int        `json:"total"`
	Voters          []voterDTO `json:"voters"`
}

type meetingResponse struct {
	ID                  string     `json:"id"`
	UniqueID            string     `json:"unique_id"`
	Title               string     `json:"title"`
	OrganizerName       string     `json:"organizer_name,omitempty"`
	StartDate           string     `json:"start_date"`
	EndDate             string     `json:"end_date"`
	StartHour           int        `json:"start_hour"`
	EndHour             int        `json:"end_hour"`
	SlotDurationMinutes int        `json:"slot_duration_minutes"`
	VotingDeadline      *time.Time `json:"voting_deadline,omitempty"`
	MaxVoters           int        `json:"max_voters"`
	State               string     `json:"state"`
	Slots               []slotDTO  `json:"slots"`
	MostVotedSlotID     string     `json:"most_voted_slot_id,omitempty"`
	DistinctVoterCount  int        `json:"distinct_voter_count"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type createMeetingResponse struct {
	Meeting  meetingResponse `json:"meeting"`
	AdminKey string          `json:"admin_key"`
}

func viewToResponse(view application.MeetingView) meetingResponse {
	slots := make([]slotDTO, len(view.Slots))
	for i, slot := range view.Slots {
		voters := make([]voterDTO, len(slot.Voters))
		for j, voter := range slot.Voters {
			voters[j] = voterToDTO(voter)
		}
		slots[i] = slotDTO{
			ID:              slot.ID,
			Start:           slot.Start,
			DurationMinutes: slot.DurationMinutes,
			VoteCount:       slot.VoteCount,
			Available:       slot.Available,
			Total:           slot.Total,
			Voters:          voters,
		}
	}

	return meetingResponse{
		ID:                  view.Meeting.ID,
		UniqueID:            view.Meeting.UniqueID,
		Title:               view.Meeting.Title,
		OrganizerName:       view.Meeting.OrganizerName,
		StartDate:           view.Meeting.Window.StartDate.Format(dateLayout),
		EndDate:             view.Meeting.Window.EndDate.Format(dateLayout),
		StartHour:           view.Meeting.Window.StartHour,
		EndHour:             view.Meeting.Window.EndHour,
		SlotDurationMinutes: view.Meeting.Window.SlotDurationMinutes,
		VotingDeadline:      view.Meeting.VotingDeadline,
		MaxVoters:           view.Meeting.MaxVoters,
		State:               string(view.State),
		Slots:               slots,
		MostVotedSlotID:     view.MostVotedSlotID,
		DistinctVoterCount:  view.DistinctVoterCount,
		CreatedAt:           view.Meeting.CreatedAt,
		UpdatedAt:           view.Meeting.UpdatedAt,
	}
}
