package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/slotpoll/internal/application"
)

var (
	errBadRequestBody     = errors.New("invalid request body")
	errInvalidToken       = errors.New("invalid meeting token")
	errInvalidVoterUID    = errors.New("invalid voter uid")
	errInvalidParticipant = errors.New("invalid participant id")
	errMissingAdminKey    = errors.New("admin key is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "the requested resource was not found"})
	case errors.Is(err, application.ErrVotingClosed):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "VOTING_CLOSED",
			Message:   "the voting deadline has passed",
		})
	case errors.Is(err, application.ErrCapExceeded):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "VOTER_CAP_EXCEEDED",
			Message:   "the meeting has reached its voter limit",
		})
	case errors.Is(err, application.ErrHostAlreadyAssigned):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "HOST_ALREADY_ASSIGNED",
			Message:   "the meeting already has a host",
		})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "ADMIN_KEY_REJECTED",
			Message:   "the admin key is not valid for this meeting",
		})
	case errors.Is(err, application.ErrInvalidSlot):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "INVALID_SLOT",
			Message:   err.Error(),
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "the request contains invalid fields",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err, "error_kind", application.ErrorKind(err))
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "the request is malformed"
	case http.StatusUnauthorized:
		return "authentication is required"
	case http.StatusForbidden:
		return "the operation is not permitted"
	case http.StatusNotFound:
		return "the requested resource was not found"
	case http.StatusConflict:
		return "the request conflicts with the current resource state"
	case http.StatusUnprocessableEntity:
		return "the request contains invalid fields"
	default:
		return "internal server error"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
