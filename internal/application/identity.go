package application

import (
	"strings"

	"github.com/google/uuid"

	"github.com/example/slotpoll/internal/voting"
)

// guestUIDPrefix marks locally issued guest identities. Authenticated users
// arrive with provider-issued uids; the core treats both uniformly.
const guestUIDPrefix = "guest-"

// NewGuestVoter mints a guest identity for an actor without a resolved
// account. The caller is responsible for persisting the identity (browser
// local storage or similar) so the uid stays stable across submissions.
func NewGuestVoter(displayName string) voting.Voter {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = "Guest"
	}
	return voting.Voter{
		UID:         guestUIDPrefix + uuid.NewString(),
		DisplayName: name,
		IsGuest:     true,
	}
}

// IsGuestUID reports whether the uid was issued by NewGuestVoter.
func IsGuestUID(uid string) bool {
	return strings.HasPrefix(uid, guestUIDPrefix)
}

// normalizeVoter trims the identity fields and marks guest-prefixed uids.
func normalizeVoter(voter voting.Voter) voting.Voter {
	voter.UID = strings.TrimSpace(voter.UID)
	voter.DisplayName = strings.TrimSpace(voter.DisplayName)
	if voter.DisplayName == "" {
		voter.DisplayName = "Guest"
	}
	if IsGuestUID(voter.UID) {
		voter.IsGuest = true
	}
	return voter
}
