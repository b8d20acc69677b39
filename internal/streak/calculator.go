package streak

import (
	"sort"
	"time"
)

// DefaultLookbackDays bounds how far back current-streak derivation reads.
// A gap older than the window is treated as "no data" rather than a broken
// streak, an approximation that keeps the lookup cheap.
const DefaultLookbackDays = 120

// Summary is the calculator's output for one user.
type Summary struct {
	Current int `json:"current_streak"`
	Longest int `json:"longest_streak"`
}

// Calculate derives both streaks from the set of active days. Days must be
// midnight-normalized; order and duplicates do not matter.
func Calculate(activeDays []time.Time, today time.Time) Summary {
	set := daySet(activeDays)
	return Summary{
		Current: current(set, today),
		Longest: longest(set),
	}
}

// Current counts consecutive active days ending at today. If the user has
// not practiced today the current streak is 0; being active yesterday earns
// no credit.
func Current(activeDays []time.Time, today time.Time) int {
	return current(daySet(activeDays), today)
}

// Longest scans all active days ascending, counting consecutive runs and
// keeping the maximum. An isolated active day counts as a run of 1.
func Longest(activeDays []time.Time) int {
	return longest(daySet(activeDays))
}

func daySet(days []time.Time) map[time.Time]bool {
	set := make(map[time.Time]bool, len(days))
	for _, d := range days {
		set[normalize(d)] = true
	}
	return set
}

func normalize(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func current(set map[time.Time]bool, today time.Time) int {
	day := normalize(today)
	if !set[day] {
		return 0
	}
	count := 0
	for i := 0; i < DefaultLookbackDays; i++ {
		if !set[day] {
			break
		}
		count++
		day = day.AddDate(0, 0, -1)
	}
	return count
}

func longest(set map[time.Time]bool) int {
	if len(set) == 0 {
		return 0
	}
	days := make([]time.Time, 0, len(set))
	for d := range set {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	best := 0
	run := 0
	var prev time.Time
	for i, d := range days {
		if i > 0 && d.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
		prev = d
	}
	return best
}
