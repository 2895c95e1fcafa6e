package service

import (
	"context"
	"fmt"
	"log"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/event"
	"assessment-service/internal/metrics"
	"assessment-service/internal/models"
	"assessment-service/internal/scoring"

	"github.com/prometheus/client_golang/prometheus"
)

// SubmitAnswer scores one answer and commits the submission, the session and
// the question analytics as a unit. On any error none of the three change.
func (s *AssessmentService) SubmitAnswer(ctx context.Context, id, owner string, ans scoring.Answer) (*models.Submission, bool, error) {
	timer := prometheus.NewTimer(metrics.SubmissionDuration)
	defer timer.ObserveDuration()

	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("lock session %s: %w", id, err)
	}
	defer unlock()

	session, err := s.load(ctx, id, requireOwner(owner))
	if err != nil {
		return nil, false, err
	}
	previous := session.Clone()
	expected := session.Version

	answered, err := s.submissions.Exists(ctx, id, ans.QuestionID)
	if err != nil {
		return nil, false, err
	}
	var question *models.Question
	if session.IndexOf(ans.QuestionID) >= 0 {
		question, err = s.questions.FindByID(ctx, ans.QuestionID)
		if err != nil && !isNotFound(err) {
			return nil, false, err
		}
	}

	outcome, err := s.scoring.Evaluate(session, question, ans, answered)
	if err != nil {
		metrics.Submissions.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, false, err
	}

	if err := s.commit(ctx, previous, session, expected, outcome); err != nil {
		return nil, false, err
	}

	result := metrics.ResultIncorrect
	if outcome.Submission.IsCorrect {
		result = metrics.ResultCorrect
	}
	metrics.Submissions.WithLabelValues(result).Inc()
	metrics.AnswerTime.Observe(ans.TimeTaken)
	s.publish(ctx, event.NewAnswerEvent(session, outcome.Submission))
	s.recordTransition(ctx, previous.Status, session, "")

	return outcome.Submission, outcome.Completed, nil
}

// commit inserts the submission, writes the session, then applies analytics,
// undoing earlier steps when a later one fails.
func (s *AssessmentService) commit(ctx context.Context, previous, session *models.AssessmentSession, expected int64, outcome *scoring.Outcome) error {
	sub := outcome.Submission
	if err := s.submissions.Create(ctx, sub); err != nil {
		return fmt.Errorf("store submission: %w", err)
	}

	if err := s.sessions.Update(ctx, session, expected); err != nil {
		metrics.CommitCompensations.WithLabelValues("session").Inc()
		s.removeSubmission(ctx, sub)
		return fmt.Errorf("store session %s: %w", session.ID, err)
	}

	if _, err := s.questions.ApplyObservation(ctx, sub.QuestionID, outcome.Observation); err != nil {
		metrics.CommitCompensations.WithLabelValues("analytics").Inc()
		if rerr := s.sessions.Update(context.WithoutCancel(ctx), previous, session.Version); rerr != nil {
			log.Printf("Error restoring session %s after failed analytics update: %v", session.ID, rerr)
		}
		s.removeSubmission(ctx, sub)
		return fmt.Errorf("apply analytics for question %s: %w", sub.QuestionID, err)
	}
	return nil
}

func (s *AssessmentService) removeSubmission(ctx context.Context, sub *models.Submission) {
	// The request context may be the reason the commit failed.
	if err := s.submissions.Delete(context.WithoutCancel(ctx), sub.ID); err != nil {
		log.Printf("Error removing submission %s of session %s: %v", sub.ID, sub.SessionID, err)
	}
}

// Skip moves past the current question without a submission. questionID, when
// given, must name the current question.
func (s *AssessmentService) Skip(ctx context.Context, id, owner, questionID string) (*models.AssessmentSession, error) {
	return s.transition(ctx, id, requireOwner(owner), event.QuestionSkipped, func(session *models.AssessmentSession) error {
		if questionID != "" {
			position := session.IndexOf(questionID)
			if position < 0 {
				return fmt.Errorf("%w: %s is not part of the session", apperrors.ErrQuestionNotFound, questionID)
			}
			if session.Status == models.SessionStatusActive && position != session.CurrentQuestionIndex {
				return fmt.Errorf("%w: cannot skip %s at position %d, current position is %d",
					apperrors.ErrOutOfSequence, questionID, position, session.CurrentQuestionIndex)
			}
		}
		_, err := s.lifecycle.Skip(session)
		return err
	})
}
