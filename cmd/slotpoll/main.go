package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/example/slotpoll/internal/application"
	"github.com/example/slotpoll/internal/config"
	"github.com/example/slotpoll/internal/events"
	httptransport "github.com/example/slotpoll/internal/http"
	"github.com/example/slotpoll/internal/persistence"
	"github.com/example/slotpoll/internal/persistence/memory"
	"github.com/example/slotpoll/internal/persistence/sqlite"
	"github.com/example/slotpoll/internal/timeslot"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "slotpoll",
		Usage: "Meeting slot voting and availability service.",
		Commands: []*cli.Command{
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "Override the configured HTTP port."},
			&cli.StringFlag{Name: "sqlite-dsn", Usage: "Override the configured SQLite DSN."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if c.IsSet("port") {
				cfg.HTTPPort = c.Int("port")
			}
			if c.IsSet("sqlite-dsn") {
				cfg.SQLiteDSN = c.String("sqlite-dsn")
			}
			return serve(c.Context, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, storageKind, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := repos.close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	bus := events.NewBus()
	defer bus.Close()

	eventCh, cancelSub := bus.Subscribe(cfg.EventBufferSize)
	defer cancelSub()
	go func() {
		for event := range eventCh {
			logger.Info("domain event",
				"kind", event.Kind,
				"meeting_id", event.MeetingID,
				"voter_uid", event.VoterUID,
				"participant_id", event.ParticipantID,
			)
		}
	}()

	idGenerator := uuid.NewString
	tokenGenerator := uuid.NewString
	now := time.Now

	meetings := &meetingRepositoryAdapter{repo: repos.meetings}
	participants := &participantRepositoryAdapter{repo: repos.participants}
	availability := &availabilityRepositoryAdapter{repo: repos.availability}

	meetingService := application.NewMeetingServiceWithLogger(meetings, participants, availability, bus, idGenerator, tokenGenerator, now, logger)
	meetingService.SetDefaultMaxVoters(cfg.DefaultMaxVoters)
	meetingService.SetViewCacheTTL(cfg.ViewCacheTTL)
	participantService := application.NewParticipantServiceWithLogger(meetings, participants, availability, bus, idGenerator, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Meetings:     httptransport.NewMeetingHandler(meetingService, now, logger),
		Participants: httptransport.NewParticipantHandler(participantService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("slotpoll API listening", "addr", server.Addr, "storage", storageKind)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type repositories struct {
	meetings     persistence.MeetingRepository
	participants persistence.ParticipantRepository
	availability persistence.AvailabilityRepository
	close        func() error
}

func openRepositories(ctx context.Context, cfg config.Config) (repositories, string, error) {
	if cfg.SQLiteDSN == "" {
		store := memory.NewStore()
		return repositories{
			meetings:     store,
			participants: store,
			availability: store,
			close:        func() error { return nil },
		}, "memory", nil
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		return repositories{}, "", fmt.Errorf("open storage: %w", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		_ = pool.Close()
		return repositories{}, "", fmt.Errorf("apply migrations: %w", err)
	}
	return repositories{
		meetings:     sqlite.NewMeetingRepository(pool),
		participants: sqlite.NewParticipantRepository(pool),
		availability: sqlite.NewAvailabilityRepository(pool),
		close:        pool.Close,
	}, "sqlite", nil
}

// translatePersistenceError maps storage sentinel errors onto the application
// error taxonomy. Errors raised inside update callbacks are already
// application errors and pass through unchanged.
func translatePersistenceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("duplicate resource: %w", err)
	default:
		return err
	}
}

type meetingRepositoryAdapter struct {
	repo persistence.MeetingRepository
}

func (a *meetingRepositoryAdapter) CreateMeeting(ctx context.Context, meeting application.Meeting) (application.Meeting, error) {
	if err := a.repo.CreateMeeting(ctx, meetingToModel(meeting)); err != nil {
		return application.Meeting{}, translatePersistenceError(err)
	}
	return meeting, nil
}

func (a *meetingRepositoryAdapter) GetMeetingByUniqueID(ctx context.Context, uniqueID string) (application.Meeting, error) {
	model, err := a.repo.GetMeetingByUniqueID(ctx, uniqueID)
	if err != nil {
		return application.Meeting{}, translatePersistenceError(err)
	}
	return meetingFromModel(model), nil
}

func (a *meetingRepositoryAdapter) UpdateMeetingByUniqueID(ctx context.Context, uniqueID string, update func(application.Meeting) (application.Meeting, error)) (application.Meeting, error) {
	model, err := a.repo.UpdateMeetingByUniqueID(ctx, uniqueID, func(current persistence.Meeting) (persistence.Meeting, error) {
		updated, err := update(meetingFromModel(current))
		if err != nil {
			return persistence.Meeting{}, err
		}
		return meetingToModel(updated), nil
	})
	if err != nil {
		return application.Meeting{}, translatePersistenceError(err)
	}
	return meetingFromModel(model), nil
}

type participantRepositoryAdapter struct {
	repo persistence.ParticipantRepository
}

func (a *participantRepositoryAdapter) CreateParticipant(ctx context.Context, participant application.Participant) (application.Participant, error) {
	if err := a.repo.CreateParticipant(ctx, persistence.Participant(participant)); err != nil {
		return application.Participant{}, translatePersistenceError(err)
	}
	return participant, nil
}

func (a *participantRepositoryAdapter) GetParticipant(ctx context.Context, id string) (application.Participant, error) {
	model, err := a.repo.GetParticipant(ctx, id)
	if err != nil {
		return application.Participant{}, translatePersistenceError(err)
	}
	return application.Participant(model), nil
}

func (a *participantRepositoryAdapter) ListParticipants(ctx context.Context, meetingID string) ([]application.Participant, error) {
	models, err := a.repo.ListParticipants(ctx, meetingID)
	if err != nil {
		return nil, translatePersistenceError(err)
	}
	participants := make([]application.Participant, 0, len(models))
	for _, model := range models {
		participants = append(participants, application.Participant(model))
	}
	return participants, nil
}

func (a *participantRepositoryAdapter) DeleteParticipantsExcept(ctx context.Context, meetingID, keepID string) error {
	return translatePersistenceError(a.repo.DeleteParticipantsExcept(ctx, meetingID, keepID))
}

type availabilityRepositoryAdapter struct {
	repo persistence.AvailabilityRepository
}

func (a *availabilityRepositoryAdapter) UpsertAvailability(ctx context.Context, availability application.Availability) error {
	return translatePersistenceError(a.repo.UpsertAvailability(ctx, persistence.Availability(availability)))
}

func (a *availabilityRepositoryAdapter) ListAvailability(ctx context.Context, meetingID string) ([]application.Availability, error) {
	models, err := a.repo.ListAvailability(ctx, meetingID)
	if err != nil {
		return nil, translatePersistenceError(err)
	}
	records := make([]application.Availability, 0, len(models))
	for _, model := range models {
		records = append(records, application.Availability(model))
	}
	return records, nil
}

func (a *availabilityRepositoryAdapter) DeleteAvailabilityForMeeting(ctx context.Context, meetingID string) error {
	return translatePersistenceError(a.repo.DeleteAvailabilityForMeeting(ctx, meetingID))
}

func meetingToModel(meeting application.Meeting) persistence.Meeting {
	return persistence.Meeting{
		ID:                  meeting.ID,
		UniqueID:            meeting.UniqueID,
		Title:               meeting.Title,
		OrganizerName:       meeting.OrganizerName,
		StartDate:           meeting.Window.StartDate,
		EndDate:             meeting.Window.EndDate,
		StartHour:           meeting.Window.StartHour,
		EndHour:             meeting.Window.EndHour,
		SlotDurationMinutes: meeting.Window.SlotDurationMinutes,
		VotingDeadline:      meeting.VotingDeadline,
		MaxVoters:           meeting.MaxVoters,
		Creator:             meeting.Creator,
		AdminKeyHash:        meeting.AdminKeyHash,
		Votes:               meeting.Votes,
		CreatedAt:           meeting.CreatedAt,
		UpdatedAt:           meeting.UpdatedAt,
	}
}

func meetingFromModel(model persistence.Meeting) application.Meeting {
	return application.Meeting{
		ID:            model.ID,
		UniqueID:      model.UniqueID,
		Title:         model.Title,
		OrganizerName: model.OrganizerName,
		Window: timeslot.Window{
			StartDate:           model.StartDate,
			EndDate:             model.EndDate,
			StartHour:           model.StartHour,
			EndHour:             model.EndHour,
			SlotDurationMinutes: model.SlotDurationMinutes,
		},
		VotingDeadline: model.VotingDeadline,
		MaxVoters:      model.MaxVoters,
		Creator:        model.Creator,
		AdminKeyHash:   model.AdminKeyHash,
		Votes:          model.Votes,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}
