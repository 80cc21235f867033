package voting

import "sort"

// Voter is an identity casting votes in a meeting. Guests and authenticated
// users are treated uniformly; guest uids carry a marker prefix assigned by
// the identity layer. Weight and Metadata are stored verbatim and never
// interpreted by aggregation.
type Voter struct {
	UID         string            `json:"uid"`
	DisplayName string            `json:"display_name"`
	PhotoURL    string            `json:"photo_url,omitempty"`
	IsGuest     bool              `json:"is_guest,omitempty"`
	Weight      float64           `json:"weight,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Ledger maps each slot identifier to the voters who currently select it,
// keyed by voter uid. A uid appears under a slot iff that voter's latest
// submission included the slot.
type Ledger map[string]map[string]Voter

// NewLedger returns an empty ledger.
func NewLedger() Ledger {
	return make(Ledger)
}

// Submit records the voter's full selection set. All prior slot memberships
// of the uid are removed first, so resubmission is a replace, never a merge.
// An empty slot list clears the voter entirely.
func (l Ledger) Submit(slotIDs []string, voter Voter) {
	l.Clear(voter.UID)

	if voter.Weight == 0 {
		voter.Weight = 1
	}

	for _, slotID := range slotIDs {
		entry, ok := l[slotID]
		if !ok {
			entry = make(map[string]Voter)
			l[slotID] = entry
		}
		entry[voter.UID] = voter
	}
}

// Clear removes every slot membership of the uid. Equivalent to submitting an
// empty selection.
func (l Ledger) Clear(uid string) {
	for slotID, entry := range l {
		if _, ok := entry[uid]; !ok {
			continue
		}
		delete(entry, uid)
		if len(entry) == 0 {
			delete(l, slotID)
		}
	}
}

// VotersFor returns the voters currently selecting the slot, ordered by uid
// for deterministic iteration.
func (l Ledger) VotersFor(slotID string) []Voter {
	entry, ok := l[slotID]
	if !ok || len(entry) == 0 {
		return nil
	}

	voters := make([]Voter, 0, len(entry))
	for _, voter := range entry {
		voters = append(voters, voter)
	}
	sort.Slice(voters, func(i, j int) bool { return voters[i].UID < voters[j].UID })
	return voters
}

// VoteCount returns the number of voters currently selecting the slot.
func (l Ledger) VoteCount(slotID string) int {
	return len(l[slotID])
}

// HasVoter reports whether the uid currently selects any slot.
func (l Ledger) HasVoter(uid string) bool {
	for _, entry := range l {
		if _, ok := entry[uid]; ok {
			return true
		}
	}
	return false
}

// VoterUIDs returns the sorted union of uids across all slots.
func (l Ledger) VoterUIDs() []string {
	seen := make(map[string]struct{})
	for _, entry := range l {
		for uid := range entry {
			seen[uid] = struct{}{}
		}
	}

	uids := make([]string, 0, len(seen))
	for uid := range seen {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}

// DistinctVoterCount returns the size of the uid union across all slots. The
// voter cap is checked against this value, not any per-slot count.
func (l Ledger) DistinctVoterCount() int {
	seen := make(map[string]struct{})
	for _, entry := range l {
		for uid := range entry {
			seen[uid] = struct{}{}
		}
	}
	return len(seen)
}

// Prune drops ledger entries whose slot id is not accepted by valid. Window
// changes invalidate stale slot references this way instead of erroring on
// the next resubmission.
func (l Ledger) Prune(valid func(slotID string) bool) {
	for slotID := range l {
		if !valid(slotID) {
			delete(l, slotID)
		}
	}
}

// Clone returns a deep copy so readers can aggregate against a stable
// snapshot while writers mutate the original.
func (l Ledger) Clone() Ledger {
	if l == nil {
		return nil
	}
	clone := make(Ledger, len(l))
	for slotID, entry := range l {
		cloned := make(map[string]Voter, len(entry))
		for uid, voter := range entry {
			cloned[uid] = voter
		}
		clone[slotID] = cloned
	}
	return clone
}
