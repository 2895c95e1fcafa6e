package models

type ProgressView struct {
	SessionID            string        `json:"session_id"`
	Status               SessionStatus `json:"status"`
	CurrentQuestionIndex int           `json:"current_question_index"`
	TotalQuestions       int           `json:"total_questions"`
	ProgressPercentage   float64       `json:"progress_percentage"`
	AccuracyPercentage   float64       `json:"accuracy_percentage"`
	TimeRemaining        *float64      `json:"time_remaining"`
	SubmissionsCount     int           `json:"submissions_count"`
	Score                float64       `json:"score"`
	SkippedAnswers       int           `json:"skipped_answers"`
}

// PerformanceBreakdown summarizes the submissions sharing a category or difficulty.
type PerformanceBreakdown struct {
	Count        int     `json:"count"`
	CorrectCount int     `json:"correct_count"`
	Accuracy     float64 `json:"accuracy"`
	AverageTime  float64 `json:"average_time"`
	AverageScore float64 `json:"average_score"`
}

type TimeAnalysis struct {
	TotalTime      float64  `json:"total_time"`
	AverageTime    float64  `json:"average_time"`
	MinTime        float64  `json:"min_time"`
	MaxTime        float64  `json:"max_time"`
	TimeEfficiency *float64 `json:"time_efficiency,omitempty"`
}

type ReviewItem struct {
	QuestionID    string  `json:"question_id"`
	Sequence      int     `json:"sequence"`
	UserAnswer    string  `json:"user_answer"`
	CorrectAnswer string  `json:"correct_answer"`
	IsCorrect     bool    `json:"is_correct"`
	Score         float64 `json:"score"`
	TimeTaken     float64 `json:"time_taken"`
}

type ResultsView struct {
	SessionID             string                          `json:"session_id"`
	Score                 float64                         `json:"score"`
	MaxScore              float64                         `json:"max_score"`
	Percentage            float64                         `json:"percentage"`
	Passed                bool                            `json:"passed"`
	PassingScore          float64                         `json:"passing_score"`
	TotalQuestions        int                             `json:"total_questions"`
	CorrectAnswers        int                             `json:"correct_answers"`
	IncorrectAnswers      int                             `json:"incorrect_answers"`
	SkippedAnswers        int                             `json:"skipped_answers"`
	Duration              float64                         `json:"duration"`
	CategoryPerformance   map[string]PerformanceBreakdown `json:"category_performance,omitempty"`
	DifficultyPerformance map[int]PerformanceBreakdown    `json:"difficulty_performance,omitempty"`
	TimeAnalysis          *TimeAnalysis                   `json:"time_analysis,omitempty"`
	Review                []ReviewItem                    `json:"review,omitempty"`
}

// PoolInfo describes a candidate pool before a session is created from it.
type PoolInfo struct {
	TotalCandidates       int            `json:"total_candidates"`
	DifficultyCounts      map[int]int    `json:"difficulty_counts"`
	CategoryCounts        map[string]int `json:"category_counts"`
	RequestedQuestions    int            `json:"requested_questions"`
	EffectiveQuestions    int            `json:"effective_questions"`
	SatisfiesDistribution bool           `json:"satisfies_distribution"`
	MissingByDifficulty   map[int]int    `json:"missing_by_difficulty,omitempty"`
}
