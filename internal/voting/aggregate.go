package voting

import "sort"

// SlotTally pairs a slot identifier with its derived vote count.
type SlotTally struct {
	SlotID string
	Count  int
}

// MostVotedSlot returns the slot with the highest vote count. Ties resolve to
// the slot appearing first in the supplied canonical ordering, so repeated
// calls over the same ledger and slot set always agree. The second return is
// false when no slot has any votes.
func MostVotedSlot(l Ledger, orderedSlotIDs []string) (string, bool) {
	best := ""
	bestCount := 0
	for _, slotID := range orderedSlotIDs {
		if count := l.VoteCount(slotID); count > bestCount {
			best = slotID
			bestCount = count
		}
	}
	return best, bestCount > 0
}

// AvailabilityRatio reports how many of the meeting's distinct voters selected
// the slot. The denominator counts voters who cast any vote in the meeting: a
// slot with no votes in a meeting where five people voted yields (0, 5).
func AvailabilityRatio(l Ledger, slotID string) (available, total int) {
	return l.VoteCount(slotID), l.DistinctVoterCount()
}

// Tallies derives the vote count for every slot in canonical order.
func Tallies(l Ledger, orderedSlotIDs []string) []SlotTally {
	tallies := make([]SlotTally, len(orderedSlotIDs))
	for i, slotID := range orderedSlotIDs {
		tallies[i] = SlotTally{SlotID: slotID, Count: l.VoteCount(slotID)}
	}
	return tallies
}

// RankSlots orders slots by vote count descending with slot id ascending as
// the tie-break, filtered to counts of at least minAvailability (treated as 1
// when lower) and truncated to maxResults (unlimited when non-positive).
func RankSlots(l Ledger, orderedSlotIDs []string, minAvailability, maxResults int) []SlotTally {
	if minAvailability < 1 {
		minAvailability = 1
	}

	ranked := make([]SlotTally, 0, len(orderedSlotIDs))
	for _, slotID := range orderedSlotIDs {
		if count := l.VoteCount(slotID); count >= minAvailability {
			ranked = append(ranked, SlotTally{SlotID: slotID, Count: count})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].SlotID < ranked[j].SlotID
	})

	if maxResults > 0 && len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	return ranked
}
