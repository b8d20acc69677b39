package models

import "time"

// Badge keys, one per streak milestone. Flags are achievements, not status:
// once set they stay set even after the streak resets.
const (
	BadgeFirstStep      = "first_step"
	BadgeWeekWarrior    = "week_warrior"
	BadgeFortnightFocus = "fortnight_focus"
	BadgeMonthlyMaster  = "monthly_master"
	BadgeCenturyClub    = "century_club"
)

// User is the streak-relevant projection of a platform user. Identity and
// credentials live in the auth service; this service only tracks scoring
// and streak state.
type User struct {
	ID            string          `bson:"_id" json:"id"`
	Points        int             `bson:"points" json:"points"`
	TestAttended  int             `bson:"test_attended" json:"test_attended"`
	CurrentStreak int             `bson:"current_streak" json:"current_streak"`
	LongestStreak int             `bson:"longest_streak" json:"longest_streak"`
	StreakBadges  map[string]bool `bson:"streak_badges" json:"streak_badges"`
	UpdatedAt     time.Time       `bson:"updated_at" json:"updated_at"`
}
