package models

import (
	"fmt"
	"math"

	"assessment-service/internal/apperrors"

	"github.com/go-playground/validator/v10"
)

type SelectionStrategy string

const (
	StrategyRandom             SelectionStrategy = "random"
	StrategyDifficultyWeighted SelectionStrategy = "difficulty_weighted"
	StrategyBalanced           SelectionStrategy = "balanced"
)

// DefaultDifficultyDistribution is used when a config carries no distribution.
var DefaultDifficultyDistribution = map[int]float64{
	1: 0.10,
	2: 0.20,
	3: 0.40,
	4: 0.20,
	5: 0.10,
}

// SessionConfig is snapshotted onto the session at creation and never changes.
type SessionConfig struct {
	TotalQuestions         int               `bson:"total_questions" json:"total_questions" validate:"required,min=1,max=200"`
	TimeLimit              *int              `bson:"time_limit,omitempty" json:"time_limit,omitempty" validate:"omitempty,min=1"`
	TimePerQuestion        *int              `bson:"time_per_question,omitempty" json:"time_per_question,omitempty" validate:"omitempty,min=1"`
	QuestionTypes          []string          `bson:"question_types,omitempty" json:"question_types,omitempty" validate:"dive,required"`
	Categories             []string          `bson:"categories,omitempty" json:"categories,omitempty" validate:"dive,required"`
	DifficultyLevels       []int             `bson:"difficulty_levels,omitempty" json:"difficulty_levels,omitempty" validate:"dive,min=1,max=5"`
	CompanyTags            []string          `bson:"company_tags,omitempty" json:"company_tags,omitempty"`
	TopicTags              []string          `bson:"topic_tags,omitempty" json:"topic_tags,omitempty"`
	SelectionStrategy      SelectionStrategy `bson:"selection_strategy" json:"selection_strategy" validate:"required,oneof=random difficulty_weighted balanced"`
	RandomizeQuestions     bool              `bson:"randomize_questions" json:"randomize_questions"`
	RandomizeOptions       bool              `bson:"randomize_options" json:"randomize_options"`
	AllowReview            bool              `bson:"allow_review" json:"allow_review"`
	ShowResults            bool              `bson:"show_results" json:"show_results"`
	PassingScore           float64           `bson:"passing_score" json:"passing_score" validate:"min=0,max=100"`
	NegativeMarking        bool              `bson:"negative_marking" json:"negative_marking"`
	NegativeMarkingRatio   float64           `bson:"negative_marking_ratio" json:"negative_marking_ratio" validate:"min=0,max=1"`
	DifficultyDistribution map[int]float64   `bson:"difficulty_distribution,omitempty" json:"difficulty_distribution,omitempty"`
}

// DefaultSessionConfig returns the defaults a request is decoded on top of.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		TotalQuestions:       10,
		SelectionStrategy:    StrategyRandom,
		RandomizeQuestions:   true,
		AllowReview:          true,
		ShowResults:          true,
		PassingScore:         60,
		NegativeMarkingRatio: 0.25,
	}
}

var validate = validator.New()

// Validate checks struct constraints and the difficulty distribution.
func (c *SessionConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	sum := 0.0
	for level, fraction := range c.DifficultyDistribution {
		if level < 1 || level > 5 {
			return fmt.Errorf("%w: difficulty_distribution level %d outside 1..5", apperrors.ErrValidation, level)
		}
		if fraction < 0 || fraction > 1 || math.IsNaN(fraction) {
			return fmt.Errorf("%w: difficulty_distribution fraction %v for level %d outside [0,1]", apperrors.ErrValidation, fraction, level)
		}
		sum += fraction
	}
	if sum > 1+1e-9 {
		return fmt.Errorf("%w: difficulty_distribution fractions sum to %.3f", apperrors.ErrValidation, sum)
	}
	return nil
}

// Distribution returns the configured distribution or the default one.
func (c *SessionConfig) Distribution() map[int]float64 {
	if len(c.DifficultyDistribution) == 0 {
		return DefaultDifficultyDistribution
	}
	return c.DifficultyDistribution
}

// PerQuestionMax is the best score one question can yield: 1.0 plus the time
// bonus when a per-question budget exists.
func (c *SessionConfig) PerQuestionMax() float64 {
	if c.TimePerQuestion != nil {
		return 1.1
	}
	return 1.0
}

// Filter derives the candidate-pool filter from the config.
func (c *SessionConfig) Filter() QuestionFilter {
	return QuestionFilter{
		Types:            c.QuestionTypes,
		Categories:       c.Categories,
		DifficultyLevels: c.DifficultyLevels,
		CompanyTags:      c.CompanyTags,
		TopicTags:        c.TopicTags,
		ActiveOnly:       true,
		ApprovedOnly:     true,
	}
}

func (c SessionConfig) Clone() SessionConfig {
	out := c
	if c.TimeLimit != nil {
		v := *c.TimeLimit
		out.TimeLimit = &v
	}
	if c.TimePerQuestion != nil {
		v := *c.TimePerQuestion
		out.TimePerQuestion = &v
	}
	out.QuestionTypes = append([]string(nil), c.QuestionTypes...)
	out.Categories = append([]string(nil), c.Categories...)
	out.DifficultyLevels = append([]int(nil), c.DifficultyLevels...)
	out.CompanyTags = append([]string(nil), c.CompanyTags...)
	out.TopicTags = append([]string(nil), c.TopicTags...)
	if c.DifficultyDistribution != nil {
		out.DifficultyDistribution = make(map[int]float64, len(c.DifficultyDistribution))
		for k, v := range c.DifficultyDistribution {
			out.DifficultyDistribution[k] = v
		}
	}
	return out
}
