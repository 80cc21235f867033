package application

import (
	"sync"
	"time"

	"github.com/example/slotpoll/internal/voting"
)

// tallyCache stores recently derived meeting views to avoid regenerating the
// slot grid and recounting the ledger for repeated reads of an unchanged
// meeting. Entries are invalidated on every mutation of their meeting.
type tallyCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]tallyCacheEntry
}

type tallyCacheEntry struct {
	view      MeetingView
	expiresAt time.Time
}

func newTallyCache(ttl time.Duration, maxEntries int, now func() time.Time) *tallyCache {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if now == nil {
		now = time.Now
	}
	return &tallyCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]tallyCacheEntry),
	}
}

func (c *tallyCache) Get(uniqueID string) (MeetingView, bool) {
	if c == nil {
		return MeetingView{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[uniqueID]
	c.mu.RUnlock()
	if !ok {
		return MeetingView{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, uniqueID)
		c.mu.Unlock()
		return MeetingView{}, false
	}
	return cloneView(entry.view), true
}

func (c *tallyCache) Store(uniqueID string, view MeetingView) {
	if c == nil {
		return
	}
	cloned := cloneView(view)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[uniqueID] = tallyCacheEntry{view: cloned, expiresAt: expiry}
}

func (c *tallyCache) Invalidate(uniqueID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, uniqueID)
	c.mu.Unlock()
}

func (c *tallyCache) cleanupLocked() {
	reference := c.now()
	for key, entry := range c.entries {
		if reference.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *tallyCache) evictOneLocked() {
	var (
		oldestKey string
		oldest    time.Time
		first     = true
	)
	for key, entry := range c.entries {
		if first || entry.expiresAt.Before(oldest) {
			oldestKey = key
			oldest = entry.expiresAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

func cloneView(view MeetingView) MeetingView {
	clone := view
	clone.Meeting.Votes = view.Meeting.Votes.Clone()
	if view.Meeting.VotingDeadline != nil {
		deadline := *view.Meeting.VotingDeadline
		clone.Meeting.VotingDeadline = &deadline
	}
	clone.Slots = make([]SlotView, len(view.Slots))
	for i, slot := range view.Slots {
		cloned := slot
		cloned.Voters = append([]voting.Voter(nil), slot.Voters...)
		clone.Slots[i] = cloned
	}
	return clone
}
