package testfixtures

import (
	"context"
	"testing"

	"github.com/example/slotpoll/internal/application"
	"github.com/example/slotpoll/internal/timeslot"
)

type capturingMeetingRepo struct {
	created application.Meeting
}

func (c *capturingMeetingRepo) CreateMeeting(ctx context.Context, meeting application.Meeting) (application.Meeting, error) {
	c.created = meeting
	return meeting, nil
}

func (c *capturingMeetingRepo) GetMeetingByUniqueID(ctx context.Context, uniqueID string) (application.Meeting, error) {
	return application.Meeting{}, application.ErrNotFound
}

func (c *capturingMeetingRepo) UpdateMeetingByUniqueID(ctx context.Context, uniqueID string, update func(application.Meeting) (application.Meeting, error)) (application.Meeting, error) {
	return application.Meeting{}, application.ErrNotFound
}

func TestServiceFactoryNewMeetingService(t *testing.T) {
	factory := NewServiceFactory()
	repo := &capturingMeetingRepo{}

	svc := factory.NewMeetingService(MeetingServiceDeps{Meetings: repo})

	result, err := svc.CreateMeeting(context.Background(), application.CreateMeetingParams{
		Title:         "Sprint Planning",
		OrganizerName: "Alice",
		Window:        timeslot.Window{
			StartDate:           ReferenceTime(),
			EndDate:             ReferenceTime(),
			StartHour:           9,
			EndHour:             11,
			SlotDurationMinutes: 60,
		},
	})
	if err != nil {
		t.Fatalf("CreateMeeting returned error: %v", err)
	}

	if result.Meeting.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", result.Meeting.ID)
	}
	if result.Meeting.UniqueID != "id-2" {
		t.Fatalf("expected generated token id-2, got %q", result.Meeting.UniqueID)
	}
	if repo.created.ID != result.Meeting.ID {
		t.Fatalf("repository received unexpected ID: %q", repo.created.ID)
	}
	if !result.Meeting.CreatedAt.Equal(factory.Clock.Current()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Current(), result.Meeting.CreatedAt)
	}
	if result.AdminKey == "" {
		t.Fatal("expected a plaintext admin key")
	}
}
