// Package http provides HTTP handlers and middleware for the meeting voting
// API.
//
// The router exposes the following endpoints:
//   - POST /meetings: creates a meeting from the `meetingRequest` payload and
//     returns the derived meeting view together with the organizer admin key,
//     which is surfaced exactly once.
//   - GET /meetings/{token}: returns the meeting view addressed by its
//     shareable token: the regenerated slot grid, per-slot tallies and voter
//     lists, availability ratios, the current winner and the derived
//     open/closed state.
//   - PUT /meetings/{token}/votes: replaces a voter's selection set from the
//     `voteRequest` payload. An empty slot list clears the voter's votes.
//   - DELETE /meetings/{token}/votes/{uid}: clears every vote cast by the
//     voter.
//   - POST /meetings/{token}/reset: purges votes, availability and non-host
//     participants. Requires the organizer admin key in the `X-Admin-Key`
//     header.
//   - PUT /meetings/{token}/window: replaces the slot window, pruning votes
//     and availability outside the new grid. Requires the `X-Admin-Key`
//     header.
//   - GET /meetings/{token}/calendar.ics: renders the most voted slot as an
//     iCalendar document.
//   - GET /meetings/{token}/participants, POST /meetings/{token}/participants:
//     named participant registry endpoints exchanging the `participantDTO`
//     payload defined in participant_handler.go.
//   - PUT /meetings/{token}/participants/{id}/availability: replaces the
//     participant's availability record.
//   - GET /meetings/{token}/availability: lists availability records for the
//     meeting.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
