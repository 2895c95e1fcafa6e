// Package repository stores questions, sessions and submissions. Each store
// has a MongoDB implementation and an in-memory one for local mode and tests.
package repository

import (
	"context"

	"assessment-service/internal/analytics"
	"assessment-service/internal/models"
)

type QuestionRepository interface {
	// Fetch returns every question matching filter.
	Fetch(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error)
	FindByID(ctx context.Context, id string) (*models.Question, error)
	// FindByIDs returns the questions found, keyed by id. Missing ids are absent.
	FindByIDs(ctx context.Context, ids []string) (map[string]*models.Question, error)
	Create(ctx context.Context, q *models.Question) error
	// ApplyObservation atomically folds one observation into the question's
	// analytics and returns the new values.
	ApplyObservation(ctx context.Context, id string, obs analytics.Observation) (analytics.Stats, error)
}

type SessionRepository interface {
	Create(ctx context.Context, s *models.AssessmentSession) error
	FindByID(ctx context.Context, id string) (*models.AssessmentSession, error)
	// Update writes s if the stored version equals expectedVersion and bumps
	// s.Version on success. A mismatch yields apperrors.ErrVersionConflict.
	Update(ctx context.Context, s *models.AssessmentSession, expectedVersion int64) error
	ListByStatus(ctx context.Context, statuses ...models.SessionStatus) ([]models.AssessmentSession, error)
}

type SubmissionRepository interface {
	// Create fails with apperrors.ErrDuplicateSubmission when the session
	// already holds a submission for the question.
	Create(ctx context.Context, sub *models.Submission) error
	Exists(ctx context.Context, sessionID, questionID string) (bool, error)
	// FindBySession returns submissions ordered by sequence.
	FindBySession(ctx context.Context, sessionID string) ([]models.Submission, error)
	Delete(ctx context.Context, id string) error
}

var (
	_ QuestionRepository   = (*MemoryQuestionRepository)(nil)
	_ QuestionRepository   = (*MongoQuestionRepository)(nil)
	_ SessionRepository    = (*MemorySessionRepository)(nil)
	_ SessionRepository    = (*MongoSessionRepository)(nil)
	_ SubmissionRepository = (*MemorySubmissionRepository)(nil)
	_ SubmissionRepository = (*MongoSubmissionRepository)(nil)
)

func matchesFilter(q *models.Question, f models.QuestionFilter) bool {
	if f.ActiveOnly && !q.IsActive {
		return false
	}
	if f.ApprovedOnly && !q.IsApproved {
		return false
	}
	if len(f.Types) > 0 && !contains(f.Types, q.Type) {
		return false
	}
	if len(f.Categories) > 0 && !contains(f.Categories, q.Category) {
		return false
	}
	if len(f.DifficultyLevels) > 0 && !contains(f.DifficultyLevels, q.Difficulty) {
		return false
	}
	if len(f.CompanyTags) > 0 && !overlaps(f.CompanyTags, q.CompanyTags) {
		return false
	}
	if len(f.TopicTags) > 0 && !overlaps(f.TopicTags, q.TopicTags) {
		return false
	}
	if contains(f.ExcludeIDs, q.ID) {
		return false
	}
	return true
}

func contains[T comparable](items []T, v T) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

func overlaps(want, have []string) bool {
	for _, h := range have {
		if contains(want, h) {
			return true
		}
	}
	return false
}
