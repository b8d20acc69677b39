package badge

import "practice-service/internal/models"

// Milestone maps a streak length to the badge it unlocks.
type Milestone struct {
	Days  int
	Badge string
}

// Milestones in ascending order. Badges are achievements, not status: they
// are earned once and never revoked when the streak resets.
var Milestones = []Milestone{
	{1, models.BadgeFirstStep},
	{7, models.BadgeWeekWarrior},
	{14, models.BadgeFortnightFocus},
	{30, models.BadgeMonthlyMaster},
	{100, models.BadgeCenturyClub},
}

// Evaluate returns the badges newly earned by reaching currentStreak, given
// the flags the user already holds. The result only ever contains true
// entries; existing badges are never cleared.
func Evaluate(currentStreak int, existing map[string]bool) map[string]bool {
	earned := make(map[string]bool)
	for _, m := range Milestones {
		if currentStreak >= m.Days && !existing[m.Badge] {
			earned[m.Badge] = true
		}
	}
	return earned
}

// Apply merges newly earned badges into the user's flag set in place.
func Apply(user *models.User, earned map[string]bool) {
	if user.StreakBadges == nil {
		user.StreakBadges = make(map[string]bool)
	}
	for badge, ok := range earned {
		if ok {
			user.StreakBadges[badge] = true
		}
	}
}
