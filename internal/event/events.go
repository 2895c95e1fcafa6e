package event

import (
	"time"

	"assessment-service/internal/models"
)

// Routing keys on the assessment topic exchange.
const (
	SessionCreated   = "assessment.session.created"
	SessionStarted   = "assessment.session.started"
	SessionPaused    = "assessment.session.paused"
	SessionResumed   = "assessment.session.resumed"
	SessionCompleted = "assessment.session.completed"
	SessionAbandoned = "assessment.session.abandoned"
	SessionExpired   = "assessment.session.expired"
	AnswerSubmitted  = "assessment.answer.submitted"
	QuestionSkipped  = "assessment.question.skipped"
)

type AssessmentEvent struct {
	EventType  string               `json:"event_type"`
	SessionID  string               `json:"session_id"`
	UserID     string               `json:"user_id"`
	Status     models.SessionStatus `json:"status"`
	Score      float64              `json:"score"`
	Percentage float64              `json:"percentage,omitempty"`
	Passed     *bool                `json:"passed,omitempty"`
	QuestionID string               `json:"question_id,omitempty"`
	IsCorrect  *bool                `json:"is_correct,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
}

// NewSessionEvent snapshots s for eventType. Completed sessions carry their
// pass verdict.
func NewSessionEvent(eventType string, s *models.AssessmentSession, at time.Time) *AssessmentEvent {
	e := &AssessmentEvent{
		EventType:  eventType,
		SessionID:  s.ID,
		UserID:     s.UserID,
		Status:     s.Status,
		Score:      s.Score,
		Percentage: s.Percentage,
		Timestamp:  at,
	}
	if s.Status == models.SessionStatusCompleted {
		passed := s.Percentage >= s.Config.PassingScore
		e.Passed = &passed
	}
	return e
}

// NewAnswerEvent describes one graded submission.
func NewAnswerEvent(s *models.AssessmentSession, sub *models.Submission) *AssessmentEvent {
	e := NewSessionEvent(AnswerSubmitted, s, sub.SubmittedAt)
	e.QuestionID = sub.QuestionID
	correct := sub.IsCorrect
	e.IsCorrect = &correct
	return e
}
