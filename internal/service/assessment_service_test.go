package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"assessment-service/internal/analytics"
	"assessment-service/internal/apperrors"
	"assessment-service/internal/event"
	"assessment-service/internal/lifecycle"
	"assessment-service/internal/models"
	"assessment-service/internal/repository"
	"assessment-service/internal/scoring"
	"assessment-service/internal/selection"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(ctx context.Context, e *event.AssessmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e.EventType)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == eventType {
			n++
		}
	}
	return n
}

type fixture struct {
	svc         *AssessmentService
	clock       *fakeClock
	questions   *repository.MemoryQuestionRepository
	sessions    *repository.MemorySessionRepository
	submissions *repository.MemorySubmissionRepository
	events      *recordingPublisher
}

func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	f := &fixture{
		clock:       &fakeClock{t: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)},
		questions:   repository.NewMemoryQuestionRepository(),
		sessions:    repository.NewMemorySessionRepository(),
		submissions: repository.NewMemorySubmissionRepository(),
		events:      &recordingPublisher{},
	}
	seed(t, f.questions, n)
	f.svc = f.build(f.questions)
	return f
}

func (f *fixture) build(questions repository.QuestionRepository) *AssessmentService {
	return NewAssessmentService(Dependencies{
		Questions:   questions,
		Sessions:    f.sessions,
		Submissions: f.submissions,
		Publisher:   f.events,
		Lifecycle:   lifecycle.NewManagerWithClock(f.clock.Now),
		Selector:    selection.NewSelectorWithSource(rand.NewSource(11)),
	})
}

func seed(t *testing.T, repo *repository.MemoryQuestionRepository, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		q := &models.Question{
			ID:            fmt.Sprintf("q%02d", i),
			Content:       fmt.Sprintf("Question %d", i),
			Type:          "mcq",
			Options:       []models.Option{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}, {ID: "c", Text: "C"}, {ID: "d", Text: "D"}},
			CorrectAnswer: "a",
			Category:      []string{"algorithms", "databases"}[i%2],
			Difficulty:    i%5 + 1,
			IsActive:      true,
			IsApproved:    true,
		}
		if err := repo.Create(context.Background(), q); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
}

func intPtr(v int) *int { return &v }

func (f *fixture) startSession(t *testing.T, owner string, cfg models.SessionConfig) *models.AssessmentSession {
	t.Helper()
	ctx := context.Background()
	session, err := f.svc.CreateSession(ctx, owner, cfg)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	session, err = f.svc.Start(ctx, session.ID, owner)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return session
}

func (f *fixture) submit(t *testing.T, session *models.AssessmentSession, index int, answer string, timeTaken float64) (*models.Submission, bool) {
	t.Helper()
	sub, done, err := f.svc.SubmitAnswer(context.Background(), session.ID, session.UserID, scoring.Answer{
		QuestionID: session.QuestionIDs[index],
		UserAnswer: answer,
		TimeTaken:  timeTaken,
	})
	if err != nil {
		t.Fatalf("SubmitAnswer %d failed: %v", index, err)
	}
	return sub, done
}

func TestFullSessionWithTimeBonus(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	cfg := models.DefaultSessionConfig()
	cfg.TotalQuestions = 20
	cfg.TimePerQuestion = intPtr(30)

	session := f.startSession(t, "user-1", cfg)
	if session.TotalQuestions != 20 {
		t.Fatalf("Expected 20 questions, got %d", session.TotalQuestions)
	}

	for i := 0; i < 20; i++ {
		f.clock.Advance(10 * time.Second)
		sub, done := f.submit(t, session, i, " A ", 10)
		if !sub.IsCorrect || math.Abs(sub.Score-1.1) > 1e-9 {
			t.Fatalf("Expected correct 1.1 submission, got %+v", sub)
		}
		if done != (i == 19) {
			t.Fatalf("Expected completion only on the last answer, got %v at %d", done, i)
		}
	}

	results, err := f.svc.Results(ctx, session.ID, "user-1")
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}
	if math.Abs(results.Score-22) > 1e-9 || math.Abs(results.MaxScore-22) > 1e-9 {
		t.Errorf("Expected score and max 22, got %v/%v", results.Score, results.MaxScore)
	}
	if results.Percentage != 100 || !results.Passed {
		t.Errorf("Expected 100%% and passed, got %v/%v", results.Percentage, results.Passed)
	}
	if results.Duration != 200 {
		t.Errorf("Expected 200s duration, got %v", results.Duration)
	}
	if len(results.Review) != 20 {
		t.Errorf("Expected 20 review items, got %d", len(results.Review))
	}

	for _, id := range session.QuestionIDs {
		q, _ := f.questions.FindByID(ctx, id)
		if q.UsageCount != 1 || q.SuccessRate == nil || *q.SuccessRate != 100 {
			t.Errorf("Expected one successful observation on %s, got %+v", id, q)
		}
	}

	if n := f.events.count(event.AnswerSubmitted); n != 20 {
		t.Errorf("Expected 20 answer events, got %d", n)
	}
	if n := f.events.count(event.SessionCompleted); n != 1 {
		t.Errorf("Expected one completion event, got %d", n)
	}
}

func TestNegativeMarking(t *testing.T) {
	f := newFixture(t, 5)
	cfg := models.DefaultSessionConfig()
	cfg.TotalQuestions = 5
	cfg.NegativeMarking = true
	cfg.NegativeMarkingRatio = 0.25

	session := f.startSession(t, "user-1", cfg)
	for i := 0; i < 4; i++ {
		f.submit(t, session, i, "a", 20)
	}
	wrong, done := f.submit(t, session, 4, "b", 20)
	if wrong.Score != -0.25 || !done {
		t.Fatalf("Expected -0.25 on a completing wrong answer, got %v/%v", wrong.Score, done)
	}

	results, err := f.svc.Results(context.Background(), session.ID, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(results.Score-3.75) > 1e-9 {
		t.Errorf("Expected 3.75, got %v", results.Score)
	}
	if results.Percentage != 75 {
		t.Errorf("Expected 75%%, got %v", results.Percentage)
	}
}

func TestDuplicateSubmissionLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	cfg := models.DefaultSessionConfig()
	cfg.TotalQuestions = 3
	session := f.startSession(t, "user-1", cfg)

	f.submit(t, session, 0, "a", 5)
	before, _ := f.sessions.FindByID(ctx, session.ID)

	_, _, err := f.svc.SubmitAnswer(ctx, session.ID, "user-1", scoring.Answer{QuestionID: session.QuestionIDs[0], UserAnswer: "a", TimeTaken: 5})
	if !errors.Is(err, apperrors.ErrDuplicateSubmission) {
		t.Fatalf("Expected ErrDuplicateSubmission, got %v", err)
	}

	after, _ := f.sessions.FindByID(ctx, session.ID)
	if after.Version != before.Version || after.Score != before.Score || after.CurrentQuestionIndex != before.CurrentQuestionIndex {
		t.Errorf("Expected session unchanged, before %+v after %+v", before, after)
	}
	q, _ := f.questions.FindByID(ctx, session.QuestionIDs[0])
	if q.UsageCount != 1 {
		t.Errorf("Expected analytics applied once, got %d", q.UsageCount)
	}
}

func TestConcurrentDuplicateSubmissions(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	cfg := models.DefaultSessionConfig()
	cfg.TotalQuestions = 3
	session := f.startSession(t, "user-1", cfg)

	const racers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		dupes     int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.svc.SubmitAnswer(ctx, session.ID, "user-1", scoring.Answer{
				QuestionID: session.QuestionIDs[0], UserAnswer: "a", TimeTaken: 3,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperrors.ErrDuplicateSubmission):
				dupes++
			default:
				t.Errorf("Unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || dupes != racers-1 {
		t.Errorf("Expected exactly one success, got %d successes and %d duplicates", succeeded, dupes)
	}
	subs, _ := f.submissions.FindBySession(ctx, session.ID)
	if len(subs) != 1 {
		t.Errorf("Expected one stored submission, got %d", len(subs))
	}
	q, _ := f.questions.FindByID(ctx, session.QuestionIDs[0])
	if q.UsageCount != 1 {
		t.Errorf("Expected usage count 1, got %d", q.UsageCount)
	}
}

func TestConcurrentSessionsShareQuestionAnalytics(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	cfg := models.DefaultSessionConfig()
	cfg.TotalQuestions = 1

	const users = 12
	sessions := make([]*models.AssessmentSession, users)
	for i := range sessions {
		sessions[i] = f.startSession(t, fmt.Sprintf("user-%d", i), cfg)
	}

	var wg sync.WaitGroup
	for i, s := range sessions {
		wg.Add(1)
		go func(i int, s *models.AssessmentSession) {
			defer wg.Done()
			answer := "a"
			if i%3 == 0 {
				answer = "c"
			}
			if _, _, err := f.svc.SubmitAnswer(ctx, s.ID, s.UserID, scoring.Answer{QuestionID: "q00", UserAnswer: answer, TimeTaken: 12}); err != nil {
				t.Errorf("SubmitAnswer failed: %v", err)
			}
		}(i, s)
	}
	wg.Wait()

	q, _ := f.questions.FindByID(ctx, "q00")
	if q.UsageCount != users {
		t.Errorf("Expected usage count %d, got %d", users, q.UsageCount)
	}
	if q.SuccessRate == nil || *q.SuccessRate < 0 || *q.SuccessRate > 100 || math.Abs(*q.SuccessRate-200.0/3) > 1e-6 {
		t.Errorf("Expected success rate 66.67, got %v", q.SuccessRate)
	}
}

func TestSubmissionPreconditions(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()
	cfg := models.DefaultSessionConfig()
	cfg.TotalQuestions = 3
	session := f.startSession(t, "user-1", cfg)

	outside := ""
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("q%02d", i)
		if session.IndexOf(id) < 0 {
			outside = id
		}
	}

	testCases := []struct {
		name  string
		owner string
		ans   scoring.Answer
		want  error
	}{
		{"other owner", "user-2", scoring.Answer{QuestionID: session.QuestionIDs[0]}, apperrors.ErrAuthorization},
		{"out of sequence", "user-1", scoring.Answer{QuestionID: session.QuestionIDs[1]}, apperrors.ErrOutOfSequence},
		{"not in session", "user-1", scoring.Answer{QuestionID: outside}, apperrors.ErrQuestionNotFound},
		{"unknown question", "user-1", scoring.Answer{QuestionID: "nope"}, apperrors.ErrQuestionNotFound},
		{"negative time", "user-1", scoring.Answer{QuestionID: session.QuestionIDs[0], TimeTaken: -1}, apperrors.ErrValidation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.svc.SubmitAnswer(ctx, session.ID, tc.owner, tc.ans)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, _, err := f.svc.SubmitAnswer(ctx, "missing", "user-1", scoring.Answer{}); !errors.Is(err, apperrors.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}

	stored, _ := f.sessions.FindByID(ctx, session.ID)
	if stored.CurrentQuestionIndex != 0 || stored.Answered() != 0 {
		t.Errorf("Expected untouched session, got %+v", stored)
	}
}

func TestPauseBlocksSubmissions(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	cfg := models.DefaultSessionConfig()
	cfg.TotalQuestions = 3
	cfg.TimeLimit = intPtr(300)
	session := f.startSession(t, "user-1", cfg)

	f.clock.Advance(60 * time.Second)
	if _, err := f.svc.Pause(ctx, session.ID, "user-1"); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(120 * time.Second)

	_, _, err := f.svc.SubmitAnswer(ctx, session.ID, "user-1", scoring.Answer{QuestionID: session.QuestionIDs[0], UserAnswer: "a"})
	if !errors.Is(err, apperrors.ErrSessionNotActive) {
		t.Errorf("Expected ErrSessionNotActive while paused, got %v", err)
	}
	progress, err := f.svc.Progress(ctx, session.ID, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if progress.TimeRemaining == nil || *progress.TimeRemaining != 240 {
		t.Errorf("Expected 240s remaining while paused, got %v", progress.TimeRemaining)
	}

	resumed, err := f.svc.Resume(ctx, session.ID, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if resumed.TotalPauseDuration != 120 {
		t.Errorf("Expected 120s pause, got %v", resumed.TotalPauseDuration)
	}
	f.submit(t, resumed, 0, "a", 10)

	if _, err := f.svc.Resume(ctx, session.ID, "user-1"); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState resuming an active session, got %v", err)
	}
}

func TestSkipAndInvariants(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()
	cfg := models.DefaultSessionConfig()
	cfg.TotalQuestions = 4
	session := f.startSession(t, "user-1", cfg)

	f.submit(t, session, 0, "a", 5)
	if _, err := f.svc.Skip(ctx, session.ID, "user-1", session.QuestionIDs[2]); !errors.Is(err, apperrors.ErrOutOfSequence) {
		t.Errorf("Expected ErrOutOfSequence skipping ahead, got %v", err)
	}
	if _, err := f.svc.Skip(ctx, session.ID, "user-1", session.QuestionIDs[1]); err != nil {
		t.Fatalf("Skip failed: %v", err)
	}
	f.submit(t, session, 2, "wrong", 5)
	last, err := f.svc.Skip(ctx, session.ID, "user-1", "")
	if err != nil {
		t.Fatalf("Skip failed: %v", err)
	}

	if last.Status != models.SessionStatusCompleted {
		t.Fatalf("Expected skip of the last question to complete, got %s", last.Status)
	}
	if last.CurrentQuestionIndex != last.Answered() || last.Answered() > last.TotalQuestions {
		t.Errorf("Expected index == answered <= total, got %d/%d/%d", last.CurrentQuestionIndex, last.Answered(), last.TotalQuestions)
	}
	if last.CorrectAnswers != 1 || last.IncorrectAnswers != 1 || last.SkippedAnswers != 2 {
		t.Errorf("Unexpected counters %+v", last)
	}

	subs, _ := f.svc.Submissions(ctx, session.ID, "user-1")
	if len(subs) != 2 {
		t.Errorf("Expected skips to produce no submissions, got %d", len(subs))
	}
	if n := f.events.count(event.QuestionSkipped); n != 2 {
		t.Errorf("Expected 2 skip events, got %d", n)
	}
}

func TestAuthorization(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	cfg := models.DefaultSessionConfig()
	cfg.TotalQuestions = 2
	session, err := f.svc.CreateSession(ctx, "owner", cfg)
	if err != nil {
		t.Fatal(err)
	}

	calls := map[string]func() error{
		"start":    func() error { _, err := f.svc.Start(ctx, session.ID, "intruder"); return err },
		"pause":    func() error { _, err := f.svc.Pause(ctx, session.ID, "intruder"); return err },
		"abandon":  func() error { _, err := f.svc.Abandon(ctx, session.ID, "intruder"); return err },
		"progress": func() error { _, err := f.svc.Progress(ctx, session.ID, "intruder"); return err },
		"results":  func() error { _, err := f.svc.Results(ctx, session.ID, "intruder"); return err },
		"question": func() error { _, err := f.svc.CurrentQuestion(ctx, session.ID, "intruder"); return err },
		"answers":  func() error { _, err := f.svc.Submissions(ctx, session.ID, "intruder"); return err },
		"skip":     func() error { _, err := f.svc.Skip(ctx, session.ID, "intruder", ""); return err },
		"no owner": func() error { _, err := f.svc.Start(ctx, session.ID, ""); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			if err := call(); !errors.Is(err, apperrors.ErrAuthorization) {
				t.Errorf("Expected ErrAuthorization, got %v", err)
			}
		})
	}
}

func TestCreateSessionErrors(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	if _, err := f.svc.CreateSession(ctx, "user-1", models.DefaultSessionConfig()); !errors.Is(err, apperrors.ErrInsufficientCandidates) {
		t.Errorf("Expected ErrInsufficientCandidates, got %v", err)
	}

	bad := models.DefaultSessionConfig()
	bad.PassingScore = 120
	if _, err := f.svc.CreateSession(ctx, "user-1", bad); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
	if _, err := f.svc.CreateSession(ctx, "", models.DefaultSessionConfig()); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("Expected ErrValidation for missing owner, got %v", err)
	}
}

func TestCreateSessionShortPool(t *testing.T) {
	f := newFixture(t, 3)
	cfg := models.DefaultSessionConfig()
	cfg.TotalQuestions = 10

	session, err := f.svc.CreateSession(context.Background(), "user-1", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if session.TotalQuestions != 3 || len(session.QuestionIDs) != 3 {
		t.Errorf("Expected a 3-question session, got %d", session.TotalQuestions)
	}
	if session.Config.TotalQuestions != 10 {
		t.Errorf("Expected requested count to be kept, got %d", session.Config.TotalQuestions)
	}
}

func TestResultsBeforeCompletion(t *testing.T) {
	f := newFixture(t, 2)
	cfg := models.DefaultSessionConfig()
	cfg.TotalQuestions = 2
	session := f.startSession(t, "user-1", cfg)

	if _, err := f.svc.Results(context.Background(), session.ID, "user-1"); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState, got %v", err)
	}
}

func TestCurrentQuestionHidesAnswer(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	cfg := models.DefaultSessionConfig()
	cfg.TotalQuestions = 2
	cfg.RandomizeOptions = true
	session := f.startSession(t, "user-1", cfg)

	first, err := f.svc.CurrentQuestion(ctx, session.ID, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	again, _ := f.svc.CurrentQuestion(ctx, session.ID, "user-1")
	if first.ID != session.QuestionIDs[0] || first.Sequence != 0 {
		t.Errorf("Expected first question at sequence 0, got %+v", first)
	}
	if len(first.Options) != 4 {
		t.Fatalf("Expected 4 options, got %d", len(first.Options))
	}
	for i := range first.Options {
		if first.Options[i] != again.Options[i] {
			t.Errorf("Expected a stable option order for the same question")
			break
		}
	}

	stored, _ := f.questions.FindByID(ctx, first.ID)
	if stored.Options[0].ID != "a" || stored.Options[3].ID != "d" {
		t.Errorf("Expected canonical options untouched, got %+v", stored.Options)
	}

	f.submit(t, session, 0, "a", 1)
	next, _ := f.svc.CurrentQuestion(ctx, session.ID, "user-1")
	if next.ID != session.QuestionIDs[1] || next.Sequence != 1 {
		t.Errorf("Expected the pointer to move, got %+v", next)
	}
}

type failingAnalytics struct {
	*repository.MemoryQuestionRepository
}

func (failingAnalytics) ApplyObservation(ctx context.Context, id string, obs analytics.Observation) (analytics.Stats, error) {
	return analytics.Stats{}, errors.New("analytics store unavailable")
}

func TestSubmitRollsBackOnAnalyticsFailure(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	f.svc = f.build(failingAnalytics{f.questions})
	cfg := models.DefaultSessionConfig()
	cfg.TotalQuestions = 2
	session := f.startSession(t, "user-1", cfg)

	_, _, err := f.svc.SubmitAnswer(ctx, session.ID, "user-1", scoring.Answer{QuestionID: session.QuestionIDs[0], UserAnswer: "a", TimeTaken: 4})
	if err == nil {
		t.Fatal("Expected analytics failure to surface")
	}

	stored, _ := f.sessions.FindByID(ctx, session.ID)
	if stored.CurrentQuestionIndex != 0 || stored.Score != 0 || stored.CorrectAnswers != 0 {
		t.Errorf("Expected session restored, got %+v", stored)
	}
	if exists, _ := f.submissions.Exists(ctx, session.ID, session.QuestionIDs[0]); exists {
		t.Error("Expected submission to be removed")
	}

	// The same answer goes through once analytics recover.
	f.svc = f.build(f.questions)
	if _, _, err := f.svc.SubmitAnswer(ctx, session.ID, "user-1", scoring.Answer{QuestionID: session.QuestionIDs[0], UserAnswer: "a", TimeTaken: 4}); err != nil {
		t.Errorf("Expected retry to succeed, got %v", err)
	}
}

func TestExpireOverdue(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	limited := models.DefaultSessionConfig()
	limited.TotalQuestions = 2
	limited.TimeLimit = intPtr(60)
	overdue := f.startSession(t, "user-1", limited)

	roomy := limited.Clone()
	roomy.TimeLimit = intPtr(600)
	fresh := f.startSession(t, "user-2", roomy)

	unlimited := models.DefaultSessionConfig()
	unlimited.TotalQuestions = 2
	open := f.startSession(t, "user-3", unlimited)

	f.clock.Advance(90 * time.Second)
	n, err := f.svc.ExpireOverdue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("Expected one expired session, got %d", n)
	}

	for id, want := range map[string]models.SessionStatus{
		overdue.ID: models.SessionStatusExpired,
		fresh.ID:   models.SessionStatusActive,
		open.ID:    models.SessionStatusActive,
	} {
		s, _ := f.sessions.FindByID(ctx, id)
		if s.Status != want {
			t.Errorf("Expected %s for %s, got %s", want, id, s.Status)
		}
	}
	if n := f.events.count(event.SessionExpired); n != 1 {
		t.Errorf("Expected one expiry event, got %d", n)
	}

	if _, err := f.svc.Expire(ctx, overdue.ID); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("Expected expiring twice to fail, got %v", err)
	}
}

func TestPoolInfo(t *testing.T) {
	f := newFixture(t, 10)
	cfg := models.DefaultSessionConfig()
	cfg.TotalQuestions = 20
	cfg.SelectionStrategy = models.StrategyDifficultyWeighted

	info, err := f.svc.PoolInfo(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if info.TotalCandidates != 10 || info.EffectiveQuestions != 10 {
		t.Errorf("Unexpected pool info %+v", info)
	}
	if info.SatisfiesDistribution {
		t.Error("Expected a 10-question pool to fall short of 20")
	}
	if info.MissingByDifficulty[3] != 6 {
		t.Errorf("Expected 6 missing at difficulty 3, got %v", info.MissingByDifficulty)
	}
}
