package application

import (
	"testing"
	"time"

	"github.com/example/slotpoll/internal/voting"
)

func TestTallyCache(t *testing.T) {
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("expires entries after the ttl", func(t *testing.T) {
		current := base
		cache := newTallyCache(10*time.Second, 4, func() time.Time { return current })

		cache.Store("token-1", MeetingView{MostVotedSlotID: "2025-07-01T09:00"})
		if _, ok := cache.Get("token-1"); !ok {
			t.Fatal("expected fresh entry to be served")
		}

		current = base.Add(11 * time.Second)
		if _, ok := cache.Get("token-1"); ok {
			t.Fatal("expected entry to expire")
		}
	})

	t.Run("invalidate removes the entry", func(t *testing.T) {
		cache := newTallyCache(time.Minute, 4, func() time.Time { return base })

		cache.Store("token-1", MeetingView{})
		cache.Invalidate("token-1")
		if _, ok := cache.Get("token-1"); ok {
			t.Fatal("expected entry to be gone after invalidation")
		}
	})

	t.Run("returned views are isolated from the cache", func(t *testing.T) {
		cache := newTallyCache(time.Minute, 4, func() time.Time { return base })

		view := MeetingView{Meeting: Meeting{Votes: voting.NewLedger()}}
		view.Meeting.Votes.Submit([]string{"2025-07-01T09:00"}, voting.Voter{UID: "alice"})
		cache.Store("token-1", view)

		first, ok := cache.Get("token-1")
		if !ok {
			t.Fatal("expected cached entry")
		}
		first.Meeting.Votes.Clear("alice")

		second, _ := cache.Get("token-1")
		if second.Meeting.Votes.VoteCount("2025-07-01T09:00") != 1 {
			t.Error("mutating a returned view must not affect the cache")
		}
	})

	t.Run("evicts an entry when full", func(t *testing.T) {
		current := base
		cache := newTallyCache(time.Minute, 2, func() time.Time { return current })

		cache.Store("a", MeetingView{})
		current = current.Add(time.Second)
		cache.Store("b", MeetingView{})
		current = current.Add(time.Second)
		cache.Store("c", MeetingView{})

		if len(cache.entries) > 2 {
			t.Errorf("expected at most 2 entries, got %d", len(cache.entries))
		}
		if _, ok := cache.Get("c"); !ok {
			t.Error("expected newest entry to survive eviction")
		}
	})
}
