package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/slotpoll/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// MeetingServiceDeps captures dependencies for constructing a meeting service.
type MeetingServiceDeps struct {
	Meetings       application.MeetingRepository
	Participants   application.ParticipantRegistry
	Availability   application.AvailabilityRepository
	Events         application.EventSink
	IDGenerator    func() string
	TokenGenerator func() string
	Now            func() time.Time
	Logger         *slog.Logger
}

// NewMeetingService builds a meeting service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewMeetingService(deps MeetingServiceDeps) *application.MeetingService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	token := deps.TokenGenerator
	if token == nil {
		token = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewMeetingServiceWithLogger(
		deps.Meetings,
		deps.Participants,
		deps.Availability,
		deps.Events,
		idGen,
		token,
		now,
		deps.Logger,
	)
}

// ParticipantServiceDeps captures dependencies for constructing a participant
// service.
type ParticipantServiceDeps struct {
	Meetings     application.MeetingDirectory
	Participants application.ParticipantRepository
	Availability application.AvailabilityRepository
	Events       application.EventSink
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewParticipantService builds a participant service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewParticipantService(deps ParticipantServiceDeps) *application.ParticipantService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewParticipantServiceWithLogger(
		deps.Meetings,
		deps.Participants,
		deps.Availability,
		deps.Events,
		idGen,
		now,
		deps.Logger,
	)
}
