package models

import "time"

const SubmissionStatusEvaluated = "evaluated"

// Submission is the immutable record of one answer. At most one exists per
// (session, question).
type Submission struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	SessionID   string    `bson:"session_id" json:"session_id"`
	QuestionID  string    `bson:"question_id" json:"question_id"`
	UserAnswer  string    `bson:"user_answer" json:"user_answer"`
	IsCorrect   bool      `bson:"is_correct" json:"is_correct"`
	Score       float64   `bson:"score" json:"score"`
	TimeTaken   float64   `bson:"time_taken" json:"time_taken"`
	Status      string    `bson:"status" json:"status"`
	Sequence    int       `bson:"sequence" json:"sequence"`
	SubmittedAt time.Time `bson:"submitted_at" json:"submitted_at"`
}
