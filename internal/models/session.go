package models

import "time"

type SessionStatus string

const (
	SessionStatusCreated   SessionStatus = "created"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusPaused    SessionStatus = "paused"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusAbandoned SessionStatus = "abandoned"
	SessionStatusExpired   SessionStatus = "expired"
)

// IsTerminal reports whether no further transition is possible from s.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusAbandoned || s == SessionStatusExpired
}

type AssessmentSession struct {
	ID                   string        `bson:"_id,omitempty" json:"id"`
	UserID               string        `bson:"user_id" json:"user_id"`
	QuestionIDs          []string      `bson:"question_ids" json:"question_ids"`
	CurrentQuestionIndex int           `bson:"current_question_index" json:"current_question_index"`
	TotalQuestions       int           `bson:"total_questions" json:"total_questions"`
	Status               SessionStatus `bson:"status" json:"status"`
	StartTime            *time.Time    `bson:"start_time,omitempty" json:"start_time,omitempty"`
	EndTime              *time.Time    `bson:"end_time,omitempty" json:"end_time,omitempty"`
	PauseTime            *time.Time    `bson:"pause_time,omitempty" json:"pause_time,omitempty"`
	TotalPauseDuration   float64       `bson:"total_pause_duration" json:"total_pause_duration"`
	Score                float64       `bson:"score" json:"score"`
	MaxScore             float64       `bson:"max_score" json:"max_score"`
	Percentage           float64       `bson:"percentage" json:"percentage"`
	CorrectAnswers       int           `bson:"correct_answers" json:"correct_answers"`
	IncorrectAnswers     int           `bson:"incorrect_answers" json:"incorrect_answers"`
	SkippedAnswers       int           `bson:"skipped_answers" json:"skipped_answers"`
	Config               SessionConfig `bson:"config" json:"config"`
	Version              int64         `bson:"version" json:"version"`
	CreatedAt            time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time     `bson:"updated_at" json:"updated_at"`
}

// Answered is the number of questions the pointer has moved past.
func (s *AssessmentSession) Answered() int {
	return s.CorrectAnswers + s.IncorrectAnswers + s.SkippedAnswers
}

// CurrentQuestionID returns the id at the pointer, or "" once exhausted.
func (s *AssessmentSession) CurrentQuestionID() string {
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.QuestionIDs) {
		return ""
	}
	return s.QuestionIDs[s.CurrentQuestionIndex]
}

// IndexOf returns the position of questionID in the session, or -1.
func (s *AssessmentSession) IndexOf(questionID string) int {
	for i, id := range s.QuestionIDs {
		if id == questionID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so a failed commit can restore the previous state.
func (s *AssessmentSession) Clone() *AssessmentSession {
	c := *s
	c.QuestionIDs = append([]string(nil), s.QuestionIDs...)
	c.StartTime = cloneTime(s.StartTime)
	c.EndTime = cloneTime(s.EndTime)
	c.PauseTime = cloneTime(s.PauseTime)
	c.Config = s.Config.Clone()
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
