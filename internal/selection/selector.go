package selection

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/models"
)

// Selector picks question ids from a candidate pool. It never mutates the
// questions it is given and is safe for concurrent use.
type Selector struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewSelector creates a selector seeded from the clock.
func NewSelector() *Selector {
	return NewSelectorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewSelectorWithSource creates a selector with a fixed source, for tests.
func NewSelectorWithSource(src rand.Source) *Selector {
	return &Selector{rand: rand.New(src)}
}

// Select chooses up to criteria.Count distinct questions from pool. A pool
// smaller than the count yields all of it; an empty pool is an error.
func (s *Selector) Select(pool []models.Question, criteria *SelectionCriteria) (*SelectionResult, error) {
	if criteria == nil || criteria.Count <= 0 {
		return nil, fmt.Errorf("%w: question count must be positive", apperrors.ErrValidation)
	}

	candidates := dedupe(pool)
	if len(candidates) == 0 {
		return nil, apperrors.ErrInsufficientCandidates
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var selected []*models.Question
	var backfilled int
	switch criteria.Strategy {
	case models.StrategyRandom, "":
		selected = s.sample(candidates, criteria.Count)
	case models.StrategyDifficultyWeighted:
		selected, backfilled = s.selectDifficultyWeighted(candidates, criteria)
	case models.StrategyBalanced:
		selected, backfilled = s.selectBalanced(candidates, criteria.Count)
	default:
		return nil, fmt.Errorf("%w: unknown selection strategy %q", apperrors.ErrValidation, criteria.Strategy)
	}

	if criteria.Shuffle {
		s.rand.Shuffle(len(selected), func(i, j int) {
			selected[i], selected[j] = selected[j], selected[i]
		})
	}

	ids := make([]string, len(selected))
	for i, q := range selected {
		ids[i] = q.ID
	}

	return &SelectionResult{
		QuestionIDs:     ids,
		TotalCandidates: len(candidates),
		Requested:       criteria.Count,
		Backfilled:      backfilled,
	}, nil
}

// selectDifficultyWeighted takes floor(count*fraction) per level, then fills
// any shortfall from whatever remains irrespective of level.
func (s *Selector) selectDifficultyWeighted(candidates []*models.Question, criteria *SelectionCriteria) ([]*models.Question, int) {
	groups := groupByDifficulty(candidates)
	levelCounts := calculateLevelCounts(criteria.Distribution, criteria.Count)

	selected := make([]*models.Question, 0, criteria.Count)
	for _, level := range sortedLevels(levelCounts) {
		levelQuestions := groups[level]
		if len(levelQuestions) == 0 {
			continue
		}
		selected = append(selected, s.sample(levelQuestions, levelCounts[level])...)
	}

	return s.backfill(candidates, selected, criteria.Count)
}

// selectBalanced spreads the count evenly over (category, difficulty) groups,
// preferring historically harder questions inside each group.
func (s *Selector) selectBalanced(candidates []*models.Question, count int) ([]*models.Question, int) {
	keys, groups := groupByCategoryAndDifficulty(candidates)

	quota := count / len(keys)
	if quota < 1 {
		quota = 1
	}

	selected := make([]*models.Question, 0, count)
	for _, key := range keys {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			return successRate(group[i]) < successRate(group[j])
		})

		take := min(quota, len(group), count-len(selected))
		if take <= 0 {
			break
		}
		selected = append(selected, group[:take]...)
	}

	return s.backfill(candidates, selected, count)
}

// backfill samples from the not-yet-selected candidates until count is
// reached or the pool runs out. It returns the selection and how many were added.
func (s *Selector) backfill(candidates, selected []*models.Question, count int) ([]*models.Question, int) {
	if len(selected) >= count {
		return selected, 0
	}
	remaining := getAllRemainingQuestions(candidates, selected)
	additional := s.sample(remaining, count-len(selected))
	return append(selected, additional...), len(additional)
}

// sample draws up to count items uniformly without replacement, keeping the
// draw order.
func (s *Selector) sample(questions []*models.Question, count int) []*models.Question {
	if count <= 0 {
		return nil
	}
	if count > len(questions) {
		count = len(questions)
	}
	picked := make([]*models.Question, 0, count)
	for _, idx := range s.rand.Perm(len(questions))[:count] {
		picked = append(picked, questions[idx])
	}
	return picked
}

// calculateLevelCounts determines how many questions each difficulty level
// contributes before backfill.
func calculateLevelCounts(distribution map[int]float64, total int) map[int]int {
	counts := make(map[int]int, len(distribution))
	for level, fraction := range distribution {
		// Epsilon keeps 0.4*20 from flooring to 7.
		counts[level] = int(math.Floor(float64(total)*fraction + 1e-9))
	}
	return counts
}

func sortedLevels(counts map[int]int) []int {
	levels := make([]int, 0, len(counts))
	for level := range counts {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}

func groupByDifficulty(questions []*models.Question) map[int][]*models.Question {
	groups := make(map[int][]*models.Question)
	for _, q := range questions {
		groups[q.Difficulty] = append(groups[q.Difficulty], q)
	}
	return groups
}

// groupByCategoryAndDifficulty returns the groups plus their first-seen order.
func groupByCategoryAndDifficulty(questions []*models.Question) ([]groupKey, map[groupKey][]*models.Question) {
	var keys []groupKey
	groups := make(map[groupKey][]*models.Question)
	for _, q := range questions {
		key := groupKey{category: q.Category, difficulty: q.Difficulty}
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], q)
	}
	return keys, groups
}

func getAllRemainingQuestions(candidates, selected []*models.Question) []*models.Question {
	selectedIDs := make(map[string]bool, len(selected))
	for _, q := range selected {
		selectedIDs[q.ID] = true
	}

	var remaining []*models.Question
	for _, q := range candidates {
		if !selectedIDs[q.ID] {
			remaining = append(remaining, q)
		}
	}
	return remaining
}

func successRate(q *models.Question) float64 {
	if q.SuccessRate == nil {
		return unknownSuccessRate
	}
	return *q.SuccessRate
}

// dedupe keeps the first occurrence of each id and drops questions without one.
func dedupe(pool []models.Question) []*models.Question {
	seen := make(map[string]bool, len(pool))
	out := make([]*models.Question, 0, len(pool))
	for i := range pool {
		q := &pool[i]
		if q.ID == "" || seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	return out
}
