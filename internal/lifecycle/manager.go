// Package lifecycle owns the session state machine: status, timing with pause
// accounting, and the question pointer. Callers serialize access per session.
package lifecycle

import (
	"fmt"
	"math"
	"time"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/models"

	"github.com/google/uuid"
)

// Manager applies lifecycle transitions to sessions.
type Manager struct {
	now func() time.Time
}

// NewManager creates a manager using the wall clock.
func NewManager() *Manager {
	return &Manager{now: time.Now}
}

// NewManagerWithClock creates a manager with a custom clock, for tests.
func NewManagerWithClock(now func() time.Time) *Manager {
	return &Manager{now: now}
}

// Now exposes the manager's clock so collaborators stamp records consistently.
func (m *Manager) Now() time.Time {
	return m.now()
}

// Create builds a CREATED session over the selected question ids.
func (m *Manager) Create(owner string, questionIDs []string, cfg models.SessionConfig) *models.AssessmentSession {
	now := m.now()
	// TotalQuestions is the effective count; Config keeps what was requested.
	return &models.AssessmentSession{
		ID:             uuid.NewString(),
		UserID:         owner,
		QuestionIDs:    append([]string(nil), questionIDs...),
		TotalQuestions: len(questionIDs),
		Status:         models.SessionStatusCreated,
		Config:         cfg.Clone(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (m *Manager) Start(s *models.AssessmentSession) error {
	if err := requireStatus(s, "start", models.SessionStatusCreated); err != nil {
		return err
	}
	now := m.now()
	s.Status = models.SessionStatusActive
	s.StartTime = &now
	s.UpdatedAt = now
	return nil
}

func (m *Manager) Pause(s *models.AssessmentSession) error {
	if err := requireStatus(s, "pause", models.SessionStatusActive); err != nil {
		return err
	}
	now := m.now()
	s.Status = models.SessionStatusPaused
	s.PauseTime = &now
	s.UpdatedAt = now
	return nil
}

func (m *Manager) Resume(s *models.AssessmentSession) error {
	if err := requireStatus(s, "resume", models.SessionStatusPaused); err != nil {
		return err
	}
	now := m.now()
	m.closePause(s, now)
	s.Status = models.SessionStatusActive
	s.UpdatedAt = now
	return nil
}

// Advance moves the pointer forward and completes the session once every
// question has been answered or skipped. It reports whether it completed.
func (m *Manager) Advance(s *models.AssessmentSession) (bool, error) {
	if err := requireStatus(s, "advance", models.SessionStatusActive); err != nil {
		return false, err
	}
	if s.CurrentQuestionIndex >= s.TotalQuestions {
		return false, fmt.Errorf("%w: pointer already exhausted", apperrors.ErrInvalidState)
	}
	s.CurrentQuestionIndex++
	s.UpdatedAt = m.now()
	if s.CurrentQuestionIndex >= s.TotalQuestions {
		m.complete(s)
		return true, nil
	}
	return false, nil
}

// Skip records a skipped answer for the current question and advances.
func (m *Manager) Skip(s *models.AssessmentSession) (bool, error) {
	if err := requireStatus(s, "skip", models.SessionStatusActive); err != nil {
		return false, err
	}
	if s.CurrentQuestionIndex >= s.TotalQuestions {
		return false, fmt.Errorf("%w: nothing left to skip", apperrors.ErrInvalidState)
	}
	s.SkippedAnswers++
	return m.Advance(s)
}

// Complete finishes an active session early or on exhaustion.
func (m *Manager) Complete(s *models.AssessmentSession) error {
	if err := requireStatus(s, "complete", models.SessionStatusActive); err != nil {
		return err
	}
	m.complete(s)
	return nil
}

func (m *Manager) complete(s *models.AssessmentSession) {
	now := m.now()
	s.Status = models.SessionStatusCompleted
	s.EndTime = &now
	s.UpdatedAt = now
	s.MaxScore = float64(s.TotalQuestions) * s.Config.PerQuestionMax()

	switch {
	case s.MaxScore > 0:
		s.Percentage = round2(s.Score / s.MaxScore * 100)
	case s.TotalQuestions > 0:
		s.Percentage = round2(float64(s.CorrectAnswers) / float64(s.TotalQuestions) * 100)
	default:
		s.Percentage = 0
	}
}

// Abandon ends an active or paused session without scoring it.
func (m *Manager) Abandon(s *models.AssessmentSession) error {
	return m.end(s, "abandon", models.SessionStatusAbandoned)
}

// Expire ends an active or paused session whose time ran out. The decision to
// expire is made by the caller.
func (m *Manager) Expire(s *models.AssessmentSession) error {
	return m.end(s, "expire", models.SessionStatusExpired)
}

func (m *Manager) end(s *models.AssessmentSession, op string, to models.SessionStatus) error {
	if err := requireStatus(s, op, models.SessionStatusActive, models.SessionStatusPaused); err != nil {
		return err
	}
	now := m.now()
	m.closePause(s, now)
	s.Status = to
	s.EndTime = &now
	s.UpdatedAt = now
	return nil
}

// closePause folds an open pause into the accumulated pause duration.
func (m *Manager) closePause(s *models.AssessmentSession, now time.Time) {
	if s.PauseTime == nil {
		return
	}
	if d := now.Sub(*s.PauseTime).Seconds(); d > 0 {
		s.TotalPauseDuration += d
	}
	s.PauseTime = nil
}

// Elapsed is the active time in seconds since start, excluding pauses.
func (m *Manager) Elapsed(s *models.AssessmentSession) float64 {
	if s.StartTime == nil {
		return 0
	}
	end := m.now()
	if s.EndTime != nil {
		end = *s.EndTime
	}
	elapsed := end.Sub(*s.StartTime).Seconds() - s.TotalPauseDuration
	if s.PauseTime != nil {
		elapsed -= end.Sub(*s.PauseTime).Seconds()
	}
	return math.Max(elapsed, 0)
}

// TimeRemaining returns the seconds left under the time limit, nil when the
// session has no limit and 0 once it has ended.
func (m *Manager) TimeRemaining(s *models.AssessmentSession) *float64 {
	if s.Config.TimeLimit == nil {
		return nil
	}
	remaining := 0.0
	switch {
	case s.Status.IsTerminal():
	case s.StartTime == nil:
		remaining = float64(*s.Config.TimeLimit)
	default:
		remaining = math.Max(float64(*s.Config.TimeLimit)-m.Elapsed(s), 0)
	}
	return &remaining
}

// IsOverdue reports whether a running session has used up its time limit.
func (m *Manager) IsOverdue(s *models.AssessmentSession) bool {
	if s.Status != models.SessionStatusActive && s.Status != models.SessionStatusPaused {
		return false
	}
	remaining := m.TimeRemaining(s)
	return remaining != nil && *remaining <= 0
}

func requireStatus(s *models.AssessmentSession, op string, allowed ...models.SessionStatus) error {
	for _, status := range allowed {
		if s.Status == status {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s a %s session", apperrors.ErrInvalidState, op, s.Status)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
