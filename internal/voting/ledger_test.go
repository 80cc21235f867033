package voting

import (
	"reflect"
	"testing"
)

func voter(uid string) Voter {
	return Voter{UID: uid, DisplayName: "Voter " + uid}
}

func TestLedger_SubmitReplacesPriorSelection(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	ledger.Submit([]string{"2024-01-01T09:00", "2024-01-01T10:00"}, voter("a"))
	ledger.Submit([]string{"2024-01-01T10:00", "2024-01-01T11:00"}, voter("a"))

	if ledger.VoteCount("2024-01-01T09:00") != 0 {
		t.Error("stale membership survived resubmission")
	}
	if ledger.VoteCount("2024-01-01T10:00") != 1 {
		t.Error("retained slot missing after resubmission")
	}
	if ledger.VoteCount("2024-01-01T11:00") != 1 {
		t.Error("new slot missing after resubmission")
	}
	if ledger.DistinctVoterCount() != 1 {
		t.Errorf("expected 1 distinct voter, got %d", ledger.DistinctVoterCount())
	}
}

func TestLedger_SubmitEmptySetClears(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	ledger.Submit([]string{"2024-01-01T09:00"}, voter("a"))
	ledger.Submit(nil, voter("a"))

	if ledger.HasVoter("a") {
		t.Error("voter still present after empty submission")
	}
	if ledger.DistinctVoterCount() != 0 {
		t.Errorf("expected empty ledger, got %d voters", ledger.DistinctVoterCount())
	}
}

func TestLedger_ClearRemovesOnlyTargetVoter(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	ledger.Submit([]string{"2024-01-01T09:00"}, voter("a"))
	ledger.Submit([]string{"2024-01-01T09:00"}, voter("b"))
	ledger.Clear("a")

	if ledger.HasVoter("a") {
		t.Error("cleared voter still present")
	}
	if !ledger.HasVoter("b") {
		t.Error("unrelated voter removed by clear")
	}
	if ledger.VoteCount("2024-01-01T09:00") != 1 {
		t.Errorf("expected 1 vote remaining, got %d", ledger.VoteCount("2024-01-01T09:00"))
	}
}

func TestLedger_VotersForSortedByUID(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	ledger.Submit([]string{"2024-01-01T09:00"}, voter("charlie"))
	ledger.Submit([]string{"2024-01-01T09:00"}, voter("alice"))
	ledger.Submit([]string{"2024-01-01T09:00"}, voter("bob"))

	voters := ledger.VotersFor("2024-01-01T09:00")
	uids := make([]string, len(voters))
	for i, v := range voters {
		uids[i] = v.UID
	}
	if !reflect.DeepEqual(uids, []string{"alice", "bob", "charlie"}) {
		t.Errorf("unexpected voter order: %v", uids)
	}

	if got := ledger.VotersFor("2024-01-01T10:00"); got != nil {
		t.Errorf("expected nil for empty slot, got %v", got)
	}
}

func TestLedger_DistinctVoterCountIsUnionAcrossSlots(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	ledger.Submit([]string{"2024-01-01T09:00", "2024-01-01T10:00"}, voter("a"))
	ledger.Submit([]string{"2024-01-01T10:00"}, voter("b"))
	ledger.Submit([]string{"2024-01-01T11:00"}, voter("c"))

	if got := ledger.DistinctVoterCount(); got != 3 {
		t.Errorf("expected 3 distinct voters, got %d", got)
	}
	if uids := ledger.VoterUIDs(); !reflect.DeepEqual(uids, []string{"a", "b", "c"}) {
		t.Errorf("unexpected uid union: %v", uids)
	}
}

func TestLedger_SubmitDefaultsWeight(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	ledger.Submit([]string{"2024-01-01T09:00"}, Voter{UID: "a"})
	ledger.Submit([]string{"2024-01-01T09:00"}, Voter{UID: "b", Weight: 2.5})

	voters := ledger.VotersFor("2024-01-01T09:00")
	if voters[0].Weight != 1 {
		t.Errorf("expected default weight 1, got %v", voters[0].Weight)
	}
	if voters[1].Weight != 2.5 {
		t.Errorf("expected explicit weight preserved, got %v", voters[1].Weight)
	}
}

func TestLedger_PruneDropsStaleSlots(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	ledger.Submit([]string{"2024-01-01T09:00", "2024-01-05T09:00"}, voter("a"))

	ledger.Prune(func(slotID string) bool { return slotID == "2024-01-01T09:00" })

	if ledger.VoteCount("2024-01-05T09:00") != 0 {
		t.Error("stale slot survived prune")
	}
	if ledger.VoteCount("2024-01-01T09:00") != 1 {
		t.Error("valid slot removed by prune")
	}
}

func TestLedger_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	ledger.Submit([]string{"2024-01-01T09:00"}, voter("a"))

	clone := ledger.Clone()
	clone.Submit([]string{"2024-01-01T09:00"}, voter("b"))

	if ledger.VoteCount("2024-01-01T09:00") != 1 {
		t.Error("mutation of clone leaked into original")
	}
	if clone.VoteCount("2024-01-01T09:00") != 2 {
		t.Error("clone did not accept mutation")
	}
}
