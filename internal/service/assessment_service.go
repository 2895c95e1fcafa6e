// Package service exposes the assessment operations. It owns locking, the
// all-or-nothing commit of a submission, events and metrics; the lifecycle,
// scoring, selection and aggregation rules live in their own packages.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"assessment-service/internal/aggregate"
	"assessment-service/internal/apperrors"
	"assessment-service/internal/event"
	"assessment-service/internal/lifecycle"
	"assessment-service/internal/lock"
	"assessment-service/internal/metrics"
	"assessment-service/internal/models"
	"assessment-service/internal/repository"
	"assessment-service/internal/scoring"
	"assessment-service/internal/selection"
)

type Dependencies struct {
	Questions   repository.QuestionRepository
	Sessions    repository.SessionRepository
	Submissions repository.SubmissionRepository
	// Locker defaults to an in-process keyed mutex.
	Locker lock.Locker
	// Publisher may be nil when events are not wanted.
	Publisher event.Publisher
	// Lifecycle and Selector default to wall-clock and randomly seeded instances.
	Lifecycle *lifecycle.Manager
	Selector  *selection.Selector
}

type AssessmentService struct {
	questions   repository.QuestionRepository
	sessions    repository.SessionRepository
	submissions repository.SubmissionRepository
	locker      lock.Locker
	publisher   event.Publisher
	lifecycle   *lifecycle.Manager
	selector    *selection.Selector
	scoring     *scoring.Engine
	aggregator  *aggregate.Aggregator
}

func NewAssessmentService(deps Dependencies) *AssessmentService {
	if deps.Locker == nil {
		deps.Locker = lock.NewKeyedMutex()
	}
	if deps.Lifecycle == nil {
		deps.Lifecycle = lifecycle.NewManager()
	}
	if deps.Selector == nil {
		deps.Selector = selection.NewSelector()
	}
	return &AssessmentService{
		questions:   deps.Questions,
		sessions:    deps.Sessions,
		submissions: deps.Submissions,
		locker:      deps.Locker,
		publisher:   deps.Publisher,
		lifecycle:   deps.Lifecycle,
		selector:    deps.Selector,
		scoring:     scoring.NewEngine(deps.Lifecycle),
		aggregator:  aggregate.NewAggregator(deps.Lifecycle),
	}
}

// CreateSession selects questions for cfg and stores a new CREATED session.
// A pool smaller than requested yields a shorter session.
func (s *AssessmentService) CreateSession(ctx context.Context, owner string, cfg models.SessionConfig) (*models.AssessmentSession, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: owner is required", apperrors.ErrValidation)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := s.questions.Fetch(ctx, cfg.Filter())
	if err != nil {
		return nil, fmt.Errorf("fetch candidate pool: %w", err)
	}

	result, err := s.selector.Select(pool, selection.CriteriaFromConfig(&cfg))
	if err != nil {
		return nil, err
	}
	if shortfall := result.Shortfall(); shortfall > 0 {
		log.Printf("Selection shortfall for user %s: requested %d, selected %d from %d candidates",
			owner, result.Requested, len(result.QuestionIDs), result.TotalCandidates)
		metrics.SelectionShortfall.Inc()
	}

	session := s.lifecycle.Create(owner, result.QuestionIDs, cfg)
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	metrics.SessionsCreated.WithLabelValues(string(cfg.SelectionStrategy)).Inc()
	s.publish(ctx, event.NewSessionEvent(event.SessionCreated, session, session.CreatedAt))
	return session, nil
}

func (s *AssessmentService) Start(ctx context.Context, id, owner string) (*models.AssessmentSession, error) {
	return s.transition(ctx, id, requireOwner(owner), event.SessionStarted, s.lifecycle.Start)
}

func (s *AssessmentService) Pause(ctx context.Context, id, owner string) (*models.AssessmentSession, error) {
	return s.transition(ctx, id, requireOwner(owner), event.SessionPaused, s.lifecycle.Pause)
}

func (s *AssessmentService) Resume(ctx context.Context, id, owner string) (*models.AssessmentSession, error) {
	return s.transition(ctx, id, requireOwner(owner), event.SessionResumed, s.lifecycle.Resume)
}

func (s *AssessmentService) Abandon(ctx context.Context, id, owner string) (*models.AssessmentSession, error) {
	return s.transition(ctx, id, requireOwner(owner), event.SessionAbandoned, s.lifecycle.Abandon)
}

// Expire is a system operation for the timer collaborator; it skips the owner
// check and does not itself test whether time ran out.
func (s *AssessmentService) Expire(ctx context.Context, id string) (*models.AssessmentSession, error) {
	return s.transition(ctx, id, systemAccess, event.SessionExpired, s.lifecycle.Expire)
}

// Get returns the session if owner may see it.
func (s *AssessmentService) Get(ctx context.Context, id, owner string) (*models.AssessmentSession, error) {
	return s.load(ctx, id, requireOwner(owner))
}

type accessCheck func(*models.AssessmentSession) error

func requireOwner(owner string) accessCheck {
	return func(session *models.AssessmentSession) error {
		if owner == "" || session.UserID != owner {
			return fmt.Errorf("session %s: %w", session.ID, apperrors.ErrAuthorization)
		}
		return nil
	}
}

func systemAccess(*models.AssessmentSession) error { return nil }

func (s *AssessmentService) load(ctx context.Context, id string, access accessCheck) (*models.AssessmentSession, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access(session); err != nil {
		return nil, err
	}
	return session, nil
}

// transition applies op to the session under its lock and writes it back with
// a version check. A transition that completes the session also emits the
// completion event.
func (s *AssessmentService) transition(ctx context.Context, id string, access accessCheck, eventType string, op func(*models.AssessmentSession) error) (*models.AssessmentSession, error) {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lock session %s: %w", id, err)
	}
	defer unlock()

	session, err := s.load(ctx, id, access)
	if err != nil {
		return nil, err
	}
	before := session.Status
	expected := session.Version

	if err := op(session); err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, session, expected); err != nil {
		return nil, fmt.Errorf("store session %s: %w", id, err)
	}

	s.recordTransition(ctx, before, session, eventType)
	return session, nil
}

func (s *AssessmentService) recordTransition(ctx context.Context, before models.SessionStatus, session *models.AssessmentSession, eventType string) {
	at := s.lifecycle.Now()
	if eventType != "" {
		s.publish(ctx, event.NewSessionEvent(eventType, session, at))
	}
	if before == session.Status {
		return
	}

	metrics.SessionTransitions.WithLabelValues(string(session.Status)).Inc()
	switch {
	case before == models.SessionStatusCreated && session.Status == models.SessionStatusActive:
		metrics.ActiveSessions.Inc()
	case session.Status.IsTerminal():
		metrics.ActiveSessions.Dec()
	}
	if session.Status == models.SessionStatusCompleted && eventType != event.SessionCompleted {
		s.publish(ctx, event.NewSessionEvent(event.SessionCompleted, session, at))
	}
}

func (s *AssessmentService) publish(ctx context.Context, e *event.AssessmentEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		log.Printf("Error publishing %s for session %s: %v", e.EventType, e.SessionID, err)
	}
}

// isNotFound reports store misses that callers translate into domain errors.
func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrQuestionNotFound)
}
