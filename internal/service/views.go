package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/models"
	"assessment-service/internal/selection"
)

func (s *AssessmentService) Progress(ctx context.Context, id, owner string) (*models.ProgressView, error) {
	session, err := s.load(ctx, id, requireOwner(owner))
	if err != nil {
		return nil, err
	}
	submissions, err := s.submissions.FindBySession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}
	return s.aggregator.Progress(session, len(submissions)), nil
}

func (s *AssessmentService) Results(ctx context.Context, id, owner string) (*models.ResultsView, error) {
	session, err := s.load(ctx, id, requireOwner(owner))
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusCompleted {
		return nil, fmt.Errorf("%w: session %s is %s", apperrors.ErrInvalidState, id, session.Status)
	}

	submissions, err := s.submissions.FindBySession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}
	questions, err := s.questions.FindByIDs(ctx, session.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return s.aggregator.Results(session, submissions, questions)
}

// CurrentQuestion returns the question at the pointer without its answer.
// Shuffled options keep the same order for a given session and question.
func (s *AssessmentService) CurrentQuestion(ctx context.Context, id, owner string) (*models.PresentedQuestion, error) {
	session, err := s.load(ctx, id, requireOwner(owner))
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusActive {
		return nil, fmt.Errorf("%w: session is %s", apperrors.ErrSessionNotActive, session.Status)
	}
	questionID := session.CurrentQuestionID()
	if questionID == "" {
		return nil, fmt.Errorf("%w: no question left", apperrors.ErrInvalidState)
	}

	question, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		return nil, err
	}

	var rng *rand.Rand
	if session.Config.RandomizeOptions {
		rng = rand.New(rand.NewSource(optionSeed(session.ID, questionID)))
	}
	presented := question.Present(session.CurrentQuestionIndex, rng)
	return &presented, nil
}

func optionSeed(sessionID, questionID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(sessionID))
	h.Write([]byte{0})
	h.Write([]byte(questionID))
	return int64(h.Sum64())
}

func (s *AssessmentService) Submissions(ctx context.Context, id, owner string) ([]models.Submission, error) {
	if _, err := s.load(ctx, id, requireOwner(owner)); err != nil {
		return nil, err
	}
	return s.submissions.FindBySession(ctx, id)
}

// PoolInfo reports how the pool for cfg would serve a session, without
// creating one.
func (s *AssessmentService) PoolInfo(ctx context.Context, cfg models.SessionConfig) (*models.PoolInfo, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := s.questions.Fetch(ctx, cfg.Filter())
	if err != nil {
		return nil, fmt.Errorf("fetch candidate pool: %w", err)
	}
	return selection.AnalyzePool(pool, &cfg), nil
}
