package models

import "time"

// SessionAnswer is the per-question audit row written when a session is
// submitted. Rows are written best-effort; the session document remains the
// authoritative record of the attempt.
type SessionAnswer struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	SessionID     string    `bson:"session_id" json:"session_id"`
	QuestionIndex int       `bson:"question_index" json:"question_index"`
	UserAnswer    string    `bson:"user_answer" json:"user_answer"`
	CorrectAnswer string    `bson:"correct_answer" json:"correct_answer"`
	IsCorrect     bool      `bson:"is_correct" json:"is_correct"`
	AnsweredAt    time.Time `bson:"answered_at" json:"answered_at"`
}
