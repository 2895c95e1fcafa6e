package selection

import "assessment-service/internal/models"

// AnalyzePool reports how a candidate pool is distributed and whether it can
// serve cfg without backfill.
func AnalyzePool(pool []models.Question, cfg *models.SessionConfig) *models.PoolInfo {
	candidates := dedupe(pool)

	info := &models.PoolInfo{
		TotalCandidates:    len(candidates),
		DifficultyCounts:   make(map[int]int),
		CategoryCounts:     make(map[string]int),
		RequestedQuestions: cfg.TotalQuestions,
		EffectiveQuestions: min(cfg.TotalQuestions, len(candidates)),
	}
	for _, q := range candidates {
		info.DifficultyCounts[q.Difficulty]++
		info.CategoryCounts[q.Category]++
	}

	info.SatisfiesDistribution = len(candidates) >= cfg.TotalQuestions
	if cfg.SelectionStrategy != models.StrategyDifficultyWeighted {
		return info
	}

	for level, required := range calculateLevelCounts(cfg.Distribution(), cfg.TotalQuestions) {
		if missing := required - info.DifficultyCounts[level]; missing > 0 {
			if info.MissingByDifficulty == nil {
				info.MissingByDifficulty = make(map[int]int)
			}
			info.MissingByDifficulty[level] = missing
			info.SatisfiesDistribution = false
		}
	}
	return info
}
