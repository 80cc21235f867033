package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/example/slotpoll/internal/application"
	"github.com/example/slotpoll/internal/config"
	"github.com/example/slotpoll/internal/persistence"
	"github.com/example/slotpoll/internal/persistence/memory"
	"github.com/example/slotpoll/internal/voting"
)

func TestOpenRepositoriesSelectsMemoryStore(t *testing.T) {
	repos, kind, err := openRepositories(context.Background(), config.Config{})
	if err != nil {
		t.Fatalf("openRepositories returned error: %v", err)
	}
	defer repos.close()

	if kind != "memory" {
		t.Fatalf("expected memory storage, got %q", kind)
	}
	if repos.meetings == nil || repos.participants == nil || repos.availability == nil {
		t.Fatal("expected all repositories to be wired")
	}
}

func TestTranslatePersistenceError(t *testing.T) {
	if err := translatePersistenceError(persistence.ErrNotFound); !errors.Is(err, application.ErrNotFound) {
		t.Errorf("expected application.ErrNotFound, got %v", err)
	}
	if err := translatePersistenceError(application.ErrVotingClosed); !errors.Is(err, application.ErrVotingClosed) {
		t.Errorf("application errors must pass through, got %v", err)
	}
	if err := translatePersistenceError(nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestMeetingAdapterRoundTrip(t *testing.T) {
	store := memory.NewStore()
	adapter := &meetingRepositoryAdapter{repo: store}

	deadline := time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC)
	meeting := application.Meeting{
		ID:             "meeting-1",
		UniqueID:       "token-1",
		Title:          "Sprint Planning",
		VotingDeadline: &deadline,
		Votes:          voting.NewLedger(),
		CreatedAt:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	meeting.Window.StartDate = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	meeting.Window.EndDate = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	meeting.Window.StartHour = 9
	meeting.Window.EndHour = 11
	meeting.Window.SlotDurationMinutes = 60

	if _, err := adapter.CreateMeeting(context.Background(), meeting); err != nil {
		t.Fatalf("CreateMeeting returned error: %v", err)
	}

	loaded, err := adapter.GetMeetingByUniqueID(context.Background(), "token-1")
	if err != nil {
		t.Fatalf("GetMeetingByUniqueID returned error: %v", err)
	}
	if loaded.Title != meeting.Title || loaded.Window != meeting.Window {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
	if loaded.VotingDeadline == nil || !loaded.VotingDeadline.Equal(deadline) {
		t.Errorf("unexpected deadline %v", loaded.VotingDeadline)
	}

	updated, err := adapter.UpdateMeetingByUniqueID(context.Background(), "token-1", func(m application.Meeting) (application.Meeting, error) {
		m.Votes.Submit([]string{"2025-07-01T09:00"}, voting.Voter{UID: "alice"})
		return m, nil
	})
	if err != nil {
		t.Fatalf("UpdateMeetingByUniqueID returned error: %v", err)
	}
	if updated.Votes.VoteCount("2025-07-01T09:00") != 1 {
		t.Error("expected vote to survive the adapter round trip")
	}

	if _, err := adapter.GetMeetingByUniqueID(context.Background(), "missing"); !errors.Is(err, application.ErrNotFound) {
		t.Errorf("expected application.ErrNotFound, got %v", err)
	}
}

func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for name, want := range cases {
		if got := logLevel(name); got != want {
			t.Errorf("logLevel(%q) = %v, want %v", name, got, want)
		}
	}
}
