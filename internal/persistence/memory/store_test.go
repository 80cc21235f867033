package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/slotpoll/internal/persistence"
	"github.com/example/slotpoll/internal/voting"
)

func testMeeting(id, uniqueID string) persistence.Meeting {
	created := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
	return persistence.Meeting{
		ID:                  id,
		UniqueID:            uniqueID,
		Title:               "Team sync",
		OrganizerName:       "Dana",
		StartDate:           time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:             time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		StartHour:           9,
		EndHour:             11,
		SlotDurationMinutes: 60,
		Votes:               voting.NewLedger(),
		CreatedAt:           created,
		UpdatedAt:           created,
	}
}

func TestStore_CreateAndGetMeeting(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	if err := store.CreateMeeting(ctx, testMeeting("m-1", "u-1")); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	got, err := store.GetMeeting(ctx, "m-1")
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if got.Title != "Team sync" {
		t.Errorf("unexpected title %q", got.Title)
	}

	byUnique, err := store.GetMeetingByUniqueID(ctx, "u-1")
	if err != nil {
		t.Fatalf("GetMeetingByUniqueID failed: %v", err)
	}
	if byUnique.ID != "m-1" {
		t.Errorf("unique index resolved wrong meeting %q", byUnique.ID)
	}
}

func TestStore_CreateMeetingRejectsDuplicates(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	if err := store.CreateMeeting(ctx, testMeeting("m-1", "u-1")); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}
	if err := store.CreateMeeting(ctx, testMeeting("m-1", "u-other")); !errors.Is(err, persistence.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for reused id, got %v", err)
	}
	if err := store.CreateMeeting(ctx, testMeeting("m-other", "u-1")); !errors.Is(err, persistence.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for reused unique id, got %v", err)
	}
}

func TestStore_GetMeetingNotFound(t *testing.T) {
	t.Parallel()

	store := NewStore()
	if _, err := store.GetMeeting(context.Background(), "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetMeetingByUniqueID(context.Background(), "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateMeetingAppliesFunction(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	if err := store.CreateMeeting(ctx, testMeeting("m-1", "u-1")); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	updated, err := store.UpdateMeetingByUniqueID(ctx, "u-1", func(m persistence.Meeting) (persistence.Meeting, error) {
		m.Votes.Submit([]string{"2024-01-01T09:00"}, voting.Voter{UID: "a"})
		return m, nil
	})
	if err != nil {
		t.Fatalf("UpdateMeetingByUniqueID failed: %v", err)
	}
	if updated.Votes.VoteCount("2024-01-01T09:00") != 1 {
		t.Error("update result missing submitted vote")
	}

	stored, err := store.GetMeeting(ctx, "m-1")
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if stored.Votes.VoteCount("2024-01-01T09:00") != 1 {
		t.Error("stored document missing submitted vote")
	}
}

func TestStore_UpdateMeetingErrorLeavesDocumentUnchanged(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	if err := store.CreateMeeting(ctx, testMeeting("m-1", "u-1")); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	boom := errors.New("rejected")
	_, err := store.UpdateMeetingByUniqueID(ctx, "u-1", func(m persistence.Meeting) (persistence.Meeting, error) {
		m.Votes.Submit([]string{"2024-01-01T09:00"}, voting.Voter{UID: "a"})
		return m, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected update error to propagate, got %v", err)
	}

	stored, _ := store.GetMeeting(ctx, "m-1")
	if stored.Votes.DistinctVoterCount() != 0 {
		t.Error("rejected update mutated the stored document")
	}
}

func TestStore_UpdateMeetingSerializesConcurrentSubmissions(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	if err := store.CreateMeeting(ctx, testMeeting("m-1", "u-1")); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	const voters = 16
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			uid := string(rune('a' + n))
			_, err := store.UpdateMeetingByUniqueID(ctx, "u-1", func(m persistence.Meeting) (persistence.Meeting, error) {
				m.Votes.Submit([]string{"2024-01-01T09:00"}, voting.Voter{UID: uid})
				return m, nil
			})
			if err != nil {
				t.Errorf("concurrent update failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	stored, _ := store.GetMeeting(ctx, "m-1")
	if got := stored.Votes.DistinctVoterCount(); got != voters {
		t.Errorf("lost updates: expected %d voters, got %d", voters, got)
	}
}

func TestStore_ParticipantsOrderedAndPurged(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	base := time.Date(2024, time.January, 2, 10, 0, 0, 0, time.UTC)

	records := []persistence.Participant{
		{ID: "p-2", MeetingID: "m-1", Name: "Second", CreatedAt: base.Add(time.Minute)},
		{ID: "p-1", MeetingID: "m-1", Name: "First", IsHost: true, CreatedAt: base},
		{ID: "p-3", MeetingID: "m-other", Name: "Elsewhere", CreatedAt: base},
	}
	for _, record := range records {
		if err := store.CreateParticipant(ctx, record); err != nil {
			t.Fatalf("CreateParticipant failed: %v", err)
		}
	}

	listed, err := store.ListParticipants(ctx, "m-1")
	if err != nil {
		t.Fatalf("ListParticipants failed: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "p-1" || listed[1].ID != "p-2" {
		t.Fatalf("unexpected participant order: %+v", listed)
	}

	if err := store.UpsertAvailability(ctx, persistence.Availability{ParticipantID: "p-2", MeetingID: "m-1", SlotIDs: []string{"2024-01-01T09:00"}}); err != nil {
		t.Fatalf("UpsertAvailability failed: %v", err)
	}

	if err := store.DeleteParticipantsExcept(ctx, "m-1", "p-1"); err != nil {
		t.Fatalf("DeleteParticipantsExcept failed: %v", err)
	}

	listed, _ = store.ListParticipants(ctx, "m-1")
	if len(listed) != 1 || listed[0].ID != "p-1" {
		t.Fatalf("host not preserved: %+v", listed)
	}

	// The other meeting is untouched and the purged participant's
	// availability went with it.
	other, _ := store.ListParticipants(ctx, "m-other")
	if len(other) != 1 {
		t.Error("unrelated meeting participants were purged")
	}
	availability, _ := store.ListAvailability(ctx, "m-1")
	if len(availability) != 0 {
		t.Errorf("expected purged availability, got %+v", availability)
	}
}

func TestStore_AvailabilityUpsertReplaces(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	first := persistence.Availability{ParticipantID: "p-1", MeetingID: "m-1", SlotIDs: []string{"2024-01-01T09:00", "2024-01-01T10:00"}}
	second := persistence.Availability{ParticipantID: "p-1", MeetingID: "m-1", SlotIDs: []string{"2024-01-01T10:00"}}

	if err := store.UpsertAvailability(ctx, first); err != nil {
		t.Fatalf("UpsertAvailability failed: %v", err)
	}
	if err := store.UpsertAvailability(ctx, second); err != nil {
		t.Fatalf("UpsertAvailability failed: %v", err)
	}

	records, err := store.ListAvailability(ctx, "m-1")
	if err != nil {
		t.Fatalf("ListAvailability failed: %v", err)
	}
	if len(records) != 1 || len(records[0].SlotIDs) != 1 || records[0].SlotIDs[0] != "2024-01-01T10:00" {
		t.Fatalf("expected wholesale replacement, got %+v", records)
	}
}

func TestStore_ClonesProtectInternalState(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	meeting := testMeeting("m-1", "u-1")
	if err := store.CreateMeeting(ctx, meeting); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	// Mutating the ledger held by the caller must not reach the store.
	meeting.Votes.Submit([]string{"2024-01-01T09:00"}, voting.Voter{UID: "a"})

	stored, _ := store.GetMeeting(ctx, "m-1")
	if stored.Votes.DistinctVoterCount() != 0 {
		t.Error("caller mutation leaked into stored meeting")
	}

	stored.Votes.Submit([]string{"2024-01-01T09:00"}, voting.Voter{UID: "b"})
	again, _ := store.GetMeeting(ctx, "m-1")
	if again.Votes.DistinctVoterCount() != 0 {
		t.Error("reader mutation leaked into stored meeting")
	}
}
