package http

import "context"

type contextKey string

const (
	meetingTokenContextKey  contextKey = "meeting_token"
	voterUIDContextKey      contextKey = "voter_uid"
	participantIDContextKey contextKey = "participant_id"
)

// ContextWithMeetingToken injects the shareable meeting token resolved from
// the request path.
func ContextWithMeetingToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, meetingTokenContextKey, token)
}

// MeetingTokenFromContext extracts a meeting token previously associated with
// the context.
func MeetingTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(meetingTokenContextKey).(string)
	return token, ok
}

// ContextWithVoterUID injects the voter identifier resolved from the request
// path.
func ContextWithVoterUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, voterUIDContextKey, uid)
}

// VoterUIDFromContext extracts a voter identifier previously associated with
// the context.
func VoterUIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(voterUIDContextKey).(string)
	return uid, ok
}

// ContextWithParticipantID injects the participant identifier resolved from
// the request path.
func ContextWithParticipantID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, participantIDContextKey, id)
}

// ParticipantIDFromContext extracts a participant identifier previously
// associated with the context.
func ParticipantIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(participantIDContextKey).(string)
	return id, ok
}
