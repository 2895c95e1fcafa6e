// Package scoring validates and scores a single answer against its session.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"assessment-service/internal/analytics"
	"assessment-service/internal/apperrors"
	"assessment-service/internal/lifecycle"
	"assessment-service/internal/models"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

const (
	correctPoints  = 1.0
	timeBonus      = 0.1
	fastAnswerRate = 0.5
)

// Engine scores submissions and drives the session pointer through the
// lifecycle manager.
type Engine struct {
	lifecycle *lifecycle.Manager
}

func NewEngine(lm *lifecycle.Manager) *Engine {
	return &Engine{lifecycle: lm}
}

// Answer is one submission attempt.
type Answer struct {
	QuestionID string
	UserAnswer string
	TimeTaken  float64
}

// Outcome is everything a successful submission changes. The session passed to
// Evaluate has already been updated in place; the caller persists Submission and
// the session, then applies Observation to the question.
type Outcome struct {
	Submission  *models.Submission
	Observation analytics.Observation
	Completed   bool
}

// Evaluate checks every precondition before touching the session, so a
// returned error leaves it exactly as it was. question is nil when the store
// has no such question; alreadyAnswered reports an existing submission.
func (e *Engine) Evaluate(s *models.AssessmentSession, question *models.Question, ans Answer, alreadyAnswered bool) (*Outcome, error) {
	if s.Status != models.SessionStatusActive {
		return nil, fmt.Errorf("%w: session is %s", apperrors.ErrSessionNotActive, s.Status)
	}
	if alreadyAnswered {
		return nil, fmt.Errorf("%w: question %s", apperrors.ErrDuplicateSubmission, ans.QuestionID)
	}
	position := s.IndexOf(ans.QuestionID)
	if question == nil || position < 0 {
		return nil, fmt.Errorf("%w: %s is not part of the session", apperrors.ErrQuestionNotFound, ans.QuestionID)
	}
	if position != s.CurrentQuestionIndex {
		return nil, fmt.Errorf("%w: got %s at position %d, current position is %d",
			apperrors.ErrOutOfSequence, ans.QuestionID, position, s.CurrentQuestionIndex)
	}
	if ans.TimeTaken < 0 || math.IsNaN(ans.TimeTaken) || math.IsInf(ans.TimeTaken, 0) {
		return nil, fmt.Errorf("%w: time_taken must be a non-negative number", apperrors.ErrValidation)
	}

	isCorrect := IsCorrect(ans.UserAnswer, question.CorrectAnswer)
	points := Score(&s.Config, isCorrect, ans.TimeTaken)

	submission := &models.Submission{
		ID:          uuid.NewString(),
		SessionID:   s.ID,
		QuestionID:  question.ID,
		UserAnswer:  ans.UserAnswer,
		IsCorrect:   isCorrect,
		Score:       points,
		TimeTaken:   ans.TimeTaken,
		Status:      models.SubmissionStatusEvaluated,
		Sequence:    position,
		SubmittedAt: e.lifecycle.Now(),
	}

	if isCorrect {
		s.CorrectAnswers++
	} else {
		s.IncorrectAnswers++
	}
	s.Score += points

	completed, err := e.lifecycle.Advance(s)
	if err != nil {
		// Unreachable for an active session with a valid pointer.
		return nil, err
	}

	return &Outcome{
		Submission:  submission,
		Observation: analytics.Observation{Correct: isCorrect, TimeTaken: ans.TimeTaken},
		Completed:   completed,
	}, nil
}

// Score computes the points for one answer: 1.0 when correct plus a 0.1 bonus
// for answering in under half the per-question budget; incorrect answers cost
// the negative marking ratio when enabled.
func Score(cfg *models.SessionConfig, isCorrect bool, timeTaken float64) float64 {
	if !isCorrect {
		if cfg.NegativeMarking {
			return -cfg.NegativeMarkingRatio
		}
		return 0
	}
	points := correctPoints
	if cfg.TimePerQuestion != nil && timeTaken < fastAnswerRate*float64(*cfg.TimePerQuestion) {
		points += timeBonus
	}
	return points
}

// IsCorrect compares answers after trimming whitespace and Unicode case folding.
func IsCorrect(userAnswer, correctAnswer string) bool {
	return normalize(userAnswer) == normalize(correctAnswer)
}

func normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
