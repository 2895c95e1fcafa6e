package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"assessment-service/internal/analytics"
	"assessment-service/internal/apperrors"
	"assessment-service/internal/lock"
	"assessment-service/internal/models"

	"github.com/google/uuid"
)

// MemoryQuestionRepository keeps questions in insertion order.
type MemoryQuestionRepository struct {
	mu        sync.RWMutex
	order     []string
	questions map[string]*models.Question
	// analytics serializes read-modify-write per question.
	analytics *lock.KeyedMutex
}

func NewMemoryQuestionRepository() *MemoryQuestionRepository {
	return &MemoryQuestionRepository{
		questions: make(map[string]*models.Question),
		analytics: lock.NewKeyedMutex(),
	}
}

func (r *MemoryQuestionRepository) Fetch(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Question
	for _, id := range r.order {
		q := r.questions[id]
		if matchesFilter(q, filter) {
			out = append(out, copyQuestion(q))
		}
	}
	return out, nil
}

func (r *MemoryQuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.questions[id]
	if !ok {
		return nil, fmt.Errorf("question %s: %w", id, apperrors.ErrQuestionNotFound)
	}
	c := copyQuestion(q)
	return &c, nil
}

func (r *MemoryQuestionRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*models.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*models.Question, len(ids))
	for _, id := range ids {
		if q, ok := r.questions[id]; ok {
			c := copyQuestion(q)
			out[id] = &c
		}
	}
	return out, nil
}

func (r *MemoryQuestionRepository) Create(ctx context.Context, q *models.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if _, exists := r.questions[q.ID]; exists {
		return fmt.Errorf("%w: question %s already exists", apperrors.ErrValidation, q.ID)
	}
	c := copyQuestion(q)
	r.questions[q.ID] = &c
	r.order = append(r.order, q.ID)
	return nil
}

func (r *MemoryQuestionRepository) ApplyObservation(ctx context.Context, id string, obs analytics.Observation) (analytics.Stats, error) {
	unlock, err := r.analytics.Lock(ctx, id)
	if err != nil {
		return analytics.Stats{}, err
	}
	defer unlock()

	r.mu.RLock()
	q, ok := r.questions[id]
	var current analytics.Stats
	if ok {
		current = analytics.Of(q)
	}
	r.mu.RUnlock()
	if !ok {
		return analytics.Stats{}, fmt.Errorf("question %s: %w", id, apperrors.ErrQuestionNotFound)
	}

	next := current.Apply(obs)

	r.mu.Lock()
	next.WriteTo(q)
	r.mu.Unlock()
	return next, nil
}

func copyQuestion(q *models.Question) models.Question {
	c := *q
	c.Options = append([]models.Option(nil), q.Options...)
	c.CompanyTags = append([]string(nil), q.CompanyTags...)
	c.TopicTags = append([]string(nil), q.TopicTags...)
	analytics.Of(q).WriteTo(&c)
	return c
}

type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*models.AssessmentSession
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]*models.AssessmentSession)}
}

func (r *MemorySessionRepository) Create(ctx context.Context, s *models.AssessmentSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if _, exists := r.sessions[s.ID]; exists {
		return fmt.Errorf("%w: session %s already exists", apperrors.ErrValidation, s.ID)
	}
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *MemorySessionRepository) FindByID(ctx context.Context, id string) (*models.AssessmentSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, apperrors.ErrSessionNotFound)
	}
	return s.Clone(), nil
}

func (r *MemorySessionRepository) Update(ctx context.Context, s *models.AssessmentSession, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sessions[s.ID]
	if !ok {
		return fmt.Errorf("session %s: %w", s.ID, apperrors.ErrSessionNotFound)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("session %s at version %d, expected %d: %w",
			s.ID, stored.Version, expectedVersion, apperrors.ErrVersionConflict)
	}
	s.Version = expectedVersion + 1
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *MemorySessionRepository) ListByStatus(ctx context.Context, statuses ...models.SessionStatus) ([]models.AssessmentSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.AssessmentSession
	for _, s := range r.sessions {
		if contains(statuses, s.Status) {
			out = append(out, *s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type MemorySubmissionRepository struct {
	mu          sync.RWMutex
	submissions map[string]models.Submission
	// byPair indexes submission ids by session and question.
	byPair map[string]string
}

func NewMemorySubmissionRepository() *MemorySubmissionRepository {
	return &MemorySubmissionRepository{
		submissions: make(map[string]models.Submission),
		byPair:      make(map[string]string),
	}
}

func pairKey(sessionID, questionID string) string {
	return sessionID + "/" + questionID
}

func (r *MemorySubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(sub.SessionID, sub.QuestionID)
	if _, exists := r.byPair[key]; exists {
		return fmt.Errorf("question %s in session %s: %w", sub.QuestionID, sub.SessionID, apperrors.ErrDuplicateSubmission)
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	r.submissions[sub.ID] = *sub
	r.byPair[key] = sub.ID
	return nil
}

func (r *MemorySubmissionRepository) Exists(ctx context.Context, sessionID, questionID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.byPair[pairKey(sessionID, questionID)]
	return exists, nil
}

func (r *MemorySubmissionRepository) FindBySession(ctx context.Context, sessionID string) ([]models.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Submission
	for _, sub := range r.submissions {
		if sub.SessionID == sessionID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (r *MemorySubmissionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.submissions[id]
	if !ok {
		return nil
	}
	delete(r.submissions, id)
	delete(r.byPair, pairKey(sub.SessionID, sub.QuestionID))
	return nil
}
