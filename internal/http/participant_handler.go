package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/slotpoll/internal/application"
)

type participantService interface {
	AddParticipant(ctx context.Context, params application.AddParticipantParams) (application.Participant, error)
	ListParticipants(ctx context.Context, uniqueID string) ([]application.Participant, error)
	SubmitAvailability(ctx context.Context, params application.SubmitAvailabilityParams) (application.Availability, error)
	ListAvailability(ctx context.Context, uniqueID string) ([]application.Availability, error)
}

type ParticipantHandler struct {
	service   participantService
	responder responder
}

func NewParticipantHandler(service participantService, logger *slog.Logger) *ParticipantHandler {
	return &ParticipantHandler{service: service, responder: newResponder(logger)}
}

func (h *ParticipantHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, ok := MeetingTokenFromContext(r.Context())
	if !ok || strings.TrimSpace(token) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidToken)
		return
	}

	var req participantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	participant, err := h.service.AddParticipant(r.Context(), application.AddParticipantParams{
		UniqueID: token,
		Name:     req.Name,
		IsHost:   req.IsHost,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, participantToDTO(participant))
}

func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, ok := MeetingTokenFromContext(r.Context())
	if !ok || strings.TrimSpace(token) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidToken)
		return
	}

	participants, err := h.service.ListParticipants(r.Context(), token)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]participantDTO, 0, len(participants))
	for _, participant := range participants {
		payload = append(payload, participantToDTO(participant))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

func (h *ParticipantHandler) SubmitAvailability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, ok := MeetingTokenFromContext(r.Context())
	if !ok || strings.TrimSpace(token) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidToken)
		return
	}
	participantID, ok := ParticipantIDFromContext(r.Context())
	if !ok || strings.TrimSpace(participantID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidParticipant)
		return
	}

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	record, err := h.service.SubmitAvailability(r.Context(), application.SubmitAvailabilityParams{
		UniqueID:      token,
		ParticipantID: participantID,
		SlotIDs:       req.SlotIDs,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityToDTO(record))
}

func (h *ParticipantHandler) ListAvailability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, ok := MeetingTokenFromContext(r.Context())
	if !ok || strings.TrimSpace(token) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidToken)
		return
	}

	records, err := h.service.ListAvailability(r.Context(), token)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]availabilityDTO, 0, len(records))
	for _, record := range records {
		payload = append(payload, availabilityToDTO(record))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

type participantRequest struct {
	Name   string `json:"name"`
	IsHost bool   `json:"is_host"`
}

type participantDTO struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meeting_id"`
	Name      string    `json:"name"`
	IsHost    bool      `json:"is_host"`
	CreatedAt time.Time `json:"created_at"`
}

func participantToDTO(p application.Participant) participantDTO {
	return participantDTO{
		ID:        p.ID,
		MeetingID: p.MeetingID,
		Name:      p.Name,
		IsHost:    p.IsHost,
		CreatedAt: p.CreatedAt,
	}
}

type availabilityRequest struct {
	SlotIDs []string `json:"slot_ids"`
}

type availabilityDTO struct {
	ParticipantID string    `json:"participant_id"`
	MeetingID     string    `json:"meeting_id"`
	SlotIDs       []string  `json:"slot_ids"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func availabilityToDTO(a application.Availability) availabilityDTO {
	return availabilityDTO{
		ParticipantID: a.ParticipantID,
		MeetingID:     a.MeetingID,
		SlotIDs:       a.SlotIDs,
		UpdatedAt:     a.UpdatedAt,
	}
}
