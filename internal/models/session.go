package models

import (
	"fmt"
	"time"
)

// AnonymousUserID marks sessions created through the ungated practice
// endpoint. Anonymous sessions are scored normally but never feed the
// points/streak pipeline.
const AnonymousUserID = "anonymous"

type QuizSession struct {
	ID         string `bson:"_id,omitempty" json:"id"`
	UserID     string `bson:"user_id" json:"user_id"`
	Topic      string `bson:"topic" json:"topic"`
	Title      string `bson:"title" json:"title"`
	Difficulty string `bson:"difficulty" json:"difficulty"`

	Questions      []string   `bson:"questions" json:"questions"`
	Options        [][]string `bson:"options" json:"options"`
	CorrectAnswers []string   `bson:"correct_answers" json:"-"`
	Explanations   []string   `bson:"explanations" json:"explanations,omitempty"`

	StartTime       time.Time `bson:"start_time" json:"start_time"`
	EndTime         time.Time `bson:"end_time" json:"end_time"`
	DurationSeconds int       `bson:"duration_seconds" json:"duration_seconds"`

	UserAnswers          []*string `bson:"user_answers" json:"user_answers"`
	CurrentQuestionIndex int       `bson:"current_question_index" json:"current_question_index"`
	LastSaved            time.Time `bson:"last_saved" json:"last_saved"`

	Score       int    `bson:"score" json:"score"`
	TimeTaken   string `bson:"time_taken" json:"time_taken"`
	IsCompleted bool   `bson:"is_completed" json:"is_completed"`
}

// ElapsedSeconds derives how long the session has been running as of now.
// Expiry is always computed from this, never stored, so it cannot drift
// from real time.
func (s *QuizSession) ElapsedSeconds(now time.Time) int {
	return int(now.Sub(s.StartTime).Seconds())
}

// RemainingSeconds clamps the nominal window remainder at zero.
func (s *QuizSession) RemainingSeconds(now time.Time) int {
	remaining := s.DurationSeconds - s.ElapsedSeconds(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsExpired reports whether the nominal answering window has closed.
// Late submission inside the grace period is a separate check owned by
// the lifecycle service.
func (s *QuizSession) IsExpired(now time.Time) bool {
	return s.ElapsedSeconds(now) >= s.DurationSeconds
}

// FormatTimeTaken renders elapsed seconds as "Xm Ys" for the terminal
// time_taken field.
func FormatTimeTaken(elapsedSeconds int) string {
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	return fmt.Sprintf("%dm %ds", elapsedSeconds/60, elapsedSeconds%60)
}
