package models

import "time"

// PracticeLog aggregates one user's practice for one calendar day. There is
// at most one log per (user, day); the date is normalized to midnight UTC.
// Logs are never deleted, they are the historical record streaks are
// derived from.
type PracticeLog struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	UserID          string    `bson:"user_id" json:"user_id"`
	Date            time.Time `bson:"date" json:"date"`
	TestsAttempted  int       `bson:"tests_attempted" json:"tests_attempted"`
	TotalScore      int       `bson:"total_score" json:"total_score"`
	AverageScore    float64   `bson:"average_score" json:"average_score"`
	BestScore       int       `bson:"best_score" json:"best_score"`
	PracticeMinutes int       `bson:"practice_minutes" json:"practice_minutes"`
	TestTypes       []string  `bson:"test_types" json:"test_types"`
	Streak          int       `bson:"streak" json:"streak"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

// DayOf normalizes t to midnight UTC, the identity of a practice day.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DailyAggregate is one entry of a zero-filled daily progress series.
type DailyAggregate struct {
	Date            time.Time `json:"date"`
	TestsAttempted  int       `json:"tests_attempted"`
	TotalScore      int       `json:"total_score"`
	AverageScore    float64   `json:"average_score"`
	BestScore       int       `json:"best_score"`
	PracticeMinutes int       `json:"practice_minutes"`
	TestTypes       []string  `json:"test_types"`
}
