package models

import "math/rand"

type Option struct {
	ID   string `bson:"id" json:"id"`
	Text string `bson:"text" json:"text"`
}

// Question is owned by the content service; this service only applies analytics to it.
type Question struct {
	ID            string   `bson:"_id,omitempty" json:"id"`
	Content       string   `bson:"content" json:"content"`
	Type          string   `bson:"type" json:"type"`
	Options       []Option `bson:"options" json:"options"`
	CorrectAnswer string   `bson:"correct_answer" json:"correct_answer"`
	Category      string   `bson:"category" json:"category"`
	Subcategory   string   `bson:"subcategory" json:"subcategory"`
	Difficulty    int      `bson:"difficulty" json:"difficulty"`
	CompanyTags   []string `bson:"company_tags" json:"company_tags"`
	TopicTags     []string `bson:"topic_tags" json:"topic_tags"`
	IsActive      bool     `bson:"is_active" json:"is_active"`
	IsApproved    bool     `bson:"is_approved" json:"is_approved"`

	// Analytics. SuccessRate and AverageTime stay nil until the first observation.
	UsageCount  int      `bson:"usage_count" json:"usage_count"`
	SuccessRate *float64 `bson:"success_rate,omitempty" json:"success_rate,omitempty"`
	AverageTime *float64 `bson:"average_time,omitempty" json:"average_time,omitempty"`
}

// QuestionFilter narrows the candidate pool fetched from the question store.
// Empty slices match everything.
type QuestionFilter struct {
	Types            []string
	Categories       []string
	DifficultyLevels []int
	CompanyTags      []string
	TopicTags        []string
	ExcludeIDs       []string
	ActiveOnly       bool
	ApprovedOnly     bool
}

// PresentedQuestion is what a candidate sees: no correct answer, and options
// optionally shuffled on a copy.
type PresentedQuestion struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Type        string   `json:"type"`
	Options     []Option `json:"options"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Difficulty  int      `json:"difficulty"`
	Sequence    int      `json:"sequence"`
}

// Present builds the candidate-facing copy of q. When rng is non-nil the
// options are shuffled; q itself is never modified.
func (q *Question) Present(sequence int, rng *rand.Rand) PresentedQuestion {
	options := make([]Option, len(q.Options))
	copy(options, q.Options)
	if rng != nil {
		rng.Shuffle(len(options), func(i, j int) {
			options[i], options[j] = options[j], options[i]
		})
	}
	return PresentedQuestion{
		ID:          q.ID,
		Content:     q.Content,
		Type:        q.Type,
		Options:     options,
		Category:    q.Category,
		Subcategory: q.Subcategory,
		Difficulty:  q.Difficulty,
		Sequence:    sequence,
	}
}
