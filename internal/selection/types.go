package selection

import "assessment-service/internal/models"

// SelectionCriteria defines how a candidate pool is turned into a session.
type SelectionCriteria struct {
	Count        int                      `json:"count"`
	Strategy     models.SelectionStrategy `json:"strategy"`
	Distribution map[int]float64          `json:"distribution"`
	Shuffle      bool                     `json:"shuffle"`
}

// SelectionResult contains the chosen ids and how the pool measured up.
type SelectionResult struct {
	QuestionIDs     []string `json:"question_ids"`
	TotalCandidates int      `json:"total_candidates"`
	Requested       int      `json:"requested"`
	Backfilled      int      `json:"backfilled"`
}

// Shortfall is how many fewer questions were selected than requested.
func (r *SelectionResult) Shortfall() int {
	if d := r.Requested - len(r.QuestionIDs); d > 0 {
		return d
	}
	return 0
}

// CriteriaFromConfig maps a session config onto selection criteria.
func CriteriaFromConfig(cfg *models.SessionConfig) *SelectionCriteria {
	return &SelectionCriteria{
		Count:        cfg.TotalQuestions,
		Strategy:     cfg.SelectionStrategy,
		Distribution: cfg.Distribution(),
		Shuffle:      cfg.RandomizeQuestions,
	}
}

// groupKey identifies a balanced-strategy group.
type groupKey struct {
	category   string
	difficulty int
}

// unknownSuccessRate ranks questions that have never been answered.
const unknownSuccessRate = 50.0
