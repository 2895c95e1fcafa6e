// Package aggregate derives progress and result views from a session and its
// submissions. It performs no I/O; callers load everything first.
package aggregate

import (
	"fmt"
	"math"
	"sort"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/lifecycle"
	"assessment-service/internal/models"
)

type Aggregator struct {
	lifecycle *lifecycle.Manager
}

func NewAggregator(lm *lifecycle.Manager) *Aggregator {
	return &Aggregator{lifecycle: lm}
}

// Progress reports where a session stands.
func (a *Aggregator) Progress(s *models.AssessmentSession, submissionsCount int) *models.ProgressView {
	view := &models.ProgressView{
		SessionID:            s.ID,
		Status:               s.Status,
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		TotalQuestions:       s.TotalQuestions,
		TimeRemaining:        a.lifecycle.TimeRemaining(s),
		SubmissionsCount:     submissionsCount,
		Score:                s.Score,
		SkippedAnswers:       s.SkippedAnswers,
	}
	if s.TotalQuestions > 0 {
		view.ProgressPercentage = float64(s.CurrentQuestionIndex) / float64(s.TotalQuestions) * 100
	}
	if graded := s.CorrectAnswers + s.IncorrectAnswers; graded > 0 {
		view.AccuracyPercentage = float64(s.CorrectAnswers) / float64(graded) * 100
	}
	return view
}

// Results builds the final report of a completed session. questions is keyed
// by id; submissions whose question is missing count under "unknown".
func (a *Aggregator) Results(s *models.AssessmentSession, submissions []models.Submission, questions map[string]*models.Question) (*models.ResultsView, error) {
	if s.Status != models.SessionStatusCompleted {
		return nil, fmt.Errorf("%w: results are available once the session is completed, session is %s",
			apperrors.ErrInvalidState, s.Status)
	}

	view := &models.ResultsView{
		SessionID:        s.ID,
		Score:            s.Score,
		MaxScore:         s.MaxScore,
		Percentage:       s.Percentage,
		Passed:           s.Percentage >= s.Config.PassingScore,
		PassingScore:     s.Config.PassingScore,
		TotalQuestions:   s.TotalQuestions,
		CorrectAnswers:   s.CorrectAnswers,
		IncorrectAnswers: s.IncorrectAnswers,
		SkippedAnswers:   s.SkippedAnswers,
		Duration:         a.lifecycle.Elapsed(s),
	}
	if !s.Config.ShowResults {
		return view, nil
	}

	ordered := append([]models.Submission(nil), submissions...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Sequence < ordered[j].Sequence })

	categories := make(map[string]*accumulator)
	difficulties := make(map[int]*accumulator)
	for _, sub := range ordered {
		category, difficulty := "unknown", 0
		if q, ok := questions[sub.QuestionID]; ok {
			category, difficulty = q.Category, q.Difficulty
		}
		accumulate(categories, category, sub)
		accumulate(difficulties, difficulty, sub)
	}

	view.CategoryPerformance = make(map[string]models.PerformanceBreakdown, len(categories))
	for k, acc := range categories {
		view.CategoryPerformance[k] = acc.breakdown()
	}
	view.DifficultyPerformance = make(map[int]models.PerformanceBreakdown, len(difficulties))
	for k, acc := range difficulties {
		view.DifficultyPerformance[k] = acc.breakdown()
	}
	view.TimeAnalysis = timeAnalysis(ordered, s.Config.TimeLimit)

	if s.Config.AllowReview {
		view.Review = make([]models.ReviewItem, 0, len(ordered))
		for _, sub := range ordered {
			item := models.ReviewItem{
				QuestionID: sub.QuestionID,
				Sequence:   sub.Sequence,
				UserAnswer: sub.UserAnswer,
				IsCorrect:  sub.IsCorrect,
				Score:      sub.Score,
				TimeTaken:  sub.TimeTaken,
			}
			if q, ok := questions[sub.QuestionID]; ok {
				item.CorrectAnswer = q.CorrectAnswer
			}
			view.Review = append(view.Review, item)
		}
	}

	return view, nil
}

type accumulator struct {
	count     int
	correct   int
	totalTime float64
	score     float64
}

func accumulate[K comparable](groups map[K]*accumulator, key K, sub models.Submission) {
	acc, ok := groups[key]
	if !ok {
		acc = &accumulator{}
		groups[key] = acc
	}
	acc.count++
	if sub.IsCorrect {
		acc.correct++
	}
	acc.totalTime += sub.TimeTaken
	acc.score += sub.Score
}

func (a *accumulator) breakdown() models.PerformanceBreakdown {
	n := float64(a.count)
	return models.PerformanceBreakdown{
		Count:        a.count,
		CorrectCount: a.correct,
		Accuracy:     float64(a.correct) / n * 100,
		AverageTime:  a.totalTime / n,
		AverageScore: a.score / n,
	}
}

func timeAnalysis(submissions []models.Submission, timeLimit *int) *models.TimeAnalysis {
	ta := &models.TimeAnalysis{}
	if len(submissions) > 0 {
		ta.MinTime = math.Inf(1)
		ta.MaxTime = math.Inf(-1)
		for _, sub := range submissions {
			ta.TotalTime += sub.TimeTaken
			ta.MinTime = math.Min(ta.MinTime, sub.TimeTaken)
			ta.MaxTime = math.Max(ta.MaxTime, sub.TimeTaken)
		}
		ta.AverageTime = ta.TotalTime / float64(len(submissions))
	}
	if timeLimit != nil && *timeLimit > 0 {
		efficiency := ta.TotalTime / float64(*timeLimit)
		ta.TimeEfficiency = &efficiency
	}
	return ta
}
