package service

import (
	"context"
	"testing"
	"time"

	"practice-service/internal/clock"
	"practice-service/internal/event"
	"practice-service/internal/models"
)

type pipelineEnv struct {
	logs  *fakeLogStore
	users *fakeUserStore
	pub   *fakePublisher
	clk   *clock.Fake
	svc   *ProgressService
}

func newPipelineEnv() *pipelineEnv {
	logs := newFakeLogStore()
	users := newFakeUserStore()
	pub := &fakePublisher{}
	clk := clock.NewFake(testBase)
	return &pipelineEnv{
		logs:  logs,
		users: users,
		pub:   pub,
		clk:   clk,
		svc:   NewProgressService(logs, users, nil, pub, clk, 120),
	}
}

func TestRecordSubmissionCreatesAndAggregates(t *testing.T) {
	env := newPipelineEnv()
	ctx := context.Background()

	if err := env.svc.RecordSubmission(ctx, "u1", "aptitude", 8, 10, 300); err != nil {
		t.Fatalf("first submission failed: %v", err)
	}

	today := models.DayOf(env.clk.Now())
	entry, err := env.logs.FindByUserAndDate(ctx, "u1", today)
	if err != nil {
		t.Fatalf("today's log missing: %v", err)
	}
	if entry.TestsAttempted != 1 || entry.TotalScore != 8 || entry.BestScore != 8 {
		t.Errorf("log after first submission = %+v", entry)
	}
	if entry.AverageScore != 8 {
		t.Errorf("average = %v, want 8", entry.AverageScore)
	}
	if entry.PracticeMinutes != 5 {
		t.Errorf("practice minutes = %d, want 5", entry.PracticeMinutes)
	}

	// Second submission the same day updates additively.
	if err := env.svc.RecordSubmission(ctx, "u1", "verbal", 4, 10, 90); err != nil {
		t.Fatalf("second submission failed: %v", err)
	}
	entry, _ = env.logs.FindByUserAndDate(ctx, "u1", today)
	if entry.TestsAttempted != 2 || entry.TotalScore != 12 {
		t.Errorf("attempted/total = %d/%d, want 2/12", entry.TestsAttempted, entry.TotalScore)
	}
	if entry.AverageScore != 6 {
		t.Errorf("average = %v, want 6", entry.AverageScore)
	}
	if entry.BestScore != 8 {
		t.Errorf("best = %d, want 8 (monotonic)", entry.BestScore)
	}
	if entry.PracticeMinutes != 7 {
		t.Errorf("practice minutes = %d, want 7", entry.PracticeMinutes)
	}
	if len(entry.TestTypes) != 2 {
		t.Errorf("test types = %v, want two distinct topics", entry.TestTypes)
	}
	if env.logs.count() != 1 {
		t.Errorf("practice logs = %d, want a single row per day", env.logs.count())
	}
}

func TestRecordSubmissionDistinctTopicsDeduplicated(t *testing.T) {
	env := newPipelineEnv()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := env.svc.RecordSubmission(ctx, "u1", "aptitude", 5, 10, 60); err != nil {
			t.Fatalf("submission %d failed: %v", i, err)
		}
	}
	entry, _ := env.logs.FindByUserAndDate(ctx, "u1", models.DayOf(env.clk.Now()))
	if len(entry.TestTypes) != 1 {
		t.Errorf("test types = %v, want single deduplicated topic", entry.TestTypes)
	}
}

func TestRecordSubmissionCreationRace(t *testing.T) {
	env := newPipelineEnv()
	ctx := context.Background()
	today := models.DayOf(env.clk.Now())

	// Another device wins the first-of-day insert between our miss and our
	// create; the pipeline must fold into the existing row instead of
	// surfacing the duplicate-key failure.
	env.logs.raceEntry = &models.PracticeLog{
		UserID:         "u1",
		Date:           today,
		TestsAttempted: 1,
		TotalScore:     6,
		AverageScore:   6,
		BestScore:      6,
		TestTypes:      []string{"verbal"},
	}

	if err := env.svc.RecordSubmission(ctx, "u1", "aptitude", 9, 10, 120); err != nil {
		t.Fatalf("racing submission failed: %v", err)
	}
	if env.logs.count() != 1 {
		t.Fatalf("practice logs = %d, want exactly 1 after race", env.logs.count())
	}
	entry, _ := env.logs.FindByUserAndDate(ctx, "u1", today)
	if entry.TestsAttempted != 2 || entry.TotalScore != 15 {
		t.Errorf("attempted/total = %d/%d, want 2/15", entry.TestsAttempted, entry.TotalScore)
	}
	if entry.BestScore != 9 {
		t.Errorf("best = %d, want 9", entry.BestScore)
	}
}

func TestStreakGrowsAcrossConsecutiveDays(t *testing.T) {
	env := newPipelineEnv()
	ctx := context.Background()

	for day := 0; day < 7; day++ {
		if err := env.svc.RecordSubmission(ctx, "u1", "aptitude", 7, 10, 180); err != nil {
			t.Fatalf("day %d submission failed: %v", day, err)
		}
		if day < 6 {
			env.clk.Advance(24 * time.Hour)
		}
	}

	user, err := env.users.FindByID(ctx, "u1")
	if err != nil {
		t.Fatalf("user missing: %v", err)
	}
	if user.CurrentStreak != 7 {
		t.Errorf("current streak = %d, want 7", user.CurrentStreak)
	}
	if user.LongestStreak != 7 {
		t.Errorf("longest streak = %d, want 7", user.LongestStreak)
	}
	if !user.StreakBadges[models.BadgeWeekWarrior] {
		t.Error("week_warrior should be earned at streak 7")
	}
	if !user.StreakBadges[models.BadgeFirstStep] {
		t.Error("first_step should be earned")
	}
	if user.StreakBadges[models.BadgeFortnightFocus] {
		t.Error("fortnight_focus must not be earned at streak 7")
	}
	if !env.pub.has(event.BadgeEarned) {
		t.Error("badge earned event should be published")
	}
	if !env.pub.has(event.StreakUpdated) {
		t.Error("streak updated event should be published")
	}
}

func TestStreakResetsAfterGapButBadgesPersist(t *testing.T) {
	env := newPipelineEnv()
	ctx := context.Background()

	for day := 0; day < 7; day++ {
		if err := env.svc.RecordSubmission(ctx, "u1", "aptitude", 7, 10, 180); err != nil {
			t.Fatalf("day %d submission failed: %v", day, err)
		}
		env.clk.Advance(24 * time.Hour)
	}

	// Two idle days break the run; the next submission starts over at 1.
	env.clk.Advance(48 * time.Hour)
	if err := env.svc.RecordSubmission(ctx, "u1", "aptitude", 7, 10, 180); err != nil {
		t.Fatalf("post-gap submission failed: %v", err)
	}

	user, _ := env.users.FindByID(ctx, "u1")
	if user.CurrentStreak != 1 {
		t.Errorf("current streak = %d, want 1 after gap", user.CurrentStreak)
	}
	if user.LongestStreak != 7 {
		t.Errorf("longest streak = %d, want 7 preserved", user.LongestStreak)
	}
	if !user.StreakBadges[models.BadgeWeekWarrior] {
		t.Error("week_warrior must survive the streak reset")
	}
}

func TestLongestStreakCacheNeverShrinks(t *testing.T) {
	env := newPipelineEnv()
	ctx := context.Background()

	// A longest streak earned outside the lookback window stays on the user
	// even when the bounded recompute sees a shorter history.
	env.users.UpdateStreaks(ctx, "u1", 0, 30, nil)

	if err := env.svc.RecordSubmission(ctx, "u1", "aptitude", 5, 10, 60); err != nil {
		t.Fatalf("submission failed: %v", err)
	}
	user, _ := env.users.FindByID(ctx, "u1")
	if user.LongestStreak != 30 {
		t.Errorf("longest streak = %d, want cached 30", user.LongestStreak)
	}
	if user.CurrentStreak != 1 {
		t.Errorf("current streak = %d, want 1", user.CurrentStreak)
	}
}

func TestDailyProgressZeroFilled(t *testing.T) {
	env := newPipelineEnv()
	ctx := context.Background()

	// Practice on day 1 and day 3 of a five-day window.
	env.svc.RecordSubmission(ctx, "u1", "aptitude", 5, 10, 60)
	env.clk.Advance(2 * 24 * time.Hour)
	env.svc.RecordSubmission(ctx, "u1", "verbal", 8, 10, 120)
	env.clk.Advance(2 * 24 * time.Hour)

	series, err := env.svc.DailyProgress(ctx, "u1", 5)
	if err != nil {
		t.Fatalf("DailyProgress failed: %v", err)
	}
	if len(series) != 5 {
		t.Fatalf("series length = %d, want 5", len(series))
	}
	for i := 1; i < len(series); i++ {
		if !series[i].Date.After(series[i-1].Date) {
			t.Fatal("series must be ordered oldest first")
		}
	}
	if series[0].TestsAttempted != 1 || series[2].TestsAttempted != 1 {
		t.Error("active days should carry their aggregates")
	}
	if series[1].TestsAttempted != 0 || series[3].TestsAttempted != 0 || series[4].TestsAttempted != 0 {
		t.Error("inactive days should be zero-filled")
	}
}

func TestStreakSummary(t *testing.T) {
	env := newPipelineEnv()
	ctx := context.Background()

	env.svc.RecordSubmission(ctx, "u1", "aptitude", 5, 10, 60)
	env.clk.Advance(24 * time.Hour)
	env.svc.RecordSubmission(ctx, "u1", "aptitude", 9, 10, 60)

	info, err := env.svc.StreakSummary(ctx, "u1")
	if err != nil {
		t.Fatalf("StreakSummary failed: %v", err)
	}
	if info.CurrentStreak != 2 {
		t.Errorf("current streak = %d, want 2", info.CurrentStreak)
	}
	if info.LongestStreak != 2 {
		t.Errorf("longest streak = %d, want 2", info.LongestStreak)
	}
	if info.Today.TestsAttempted != 1 || info.Today.BestScore != 9 {
		t.Errorf("today aggregate = %+v", info.Today)
	}
}

func TestStreakSummaryInactiveToday(t *testing.T) {
	env := newPipelineEnv()
	ctx := context.Background()

	env.svc.RecordSubmission(ctx, "u1", "aptitude", 5, 10, 60)
	env.clk.Advance(24 * time.Hour)
	env.svc.RecordSubmission(ctx, "u1", "aptitude", 5, 10, 60)
	env.clk.Advance(24 * time.Hour)

	// Active yesterday and the day before, inactive today: no credit.
	info, err := env.svc.StreakSummary(ctx, "u1")
	if err != nil {
		t.Fatalf("StreakSummary failed: %v", err)
	}
	if info.CurrentStreak != 0 {
		t.Errorf("current streak = %d, want 0 when today is inactive", info.CurrentStreak)
	}
	if info.LongestStreak != 2 {
		t.Errorf("longest streak = %d, want 2", info.LongestStreak)
	}
	if info.Today.TestsAttempted != 0 {
		t.Errorf("today aggregate should be empty, got %+v", info.Today)
	}
}

func TestRankDeterministicUnderTies(t *testing.T) {
	env := newPipelineEnv()
	ctx := context.Background()

	env.users.AddPoints(ctx, "alice", 50)
	env.users.AddPoints(ctx, "bob", 30)
	env.users.AddPoints(ctx, "carol", 30)
	env.users.AddPoints(ctx, "dave", 10)

	testCases := []struct {
		userID string
		want   int64
	}{
		{"alice", 1},
		// ties broken by id ascending
		{"bob", 2},
		{"carol", 3},
		{"dave", 4},
	}
	for _, tc := range testCases {
		t.Run(tc.userID, func(t *testing.T) {
			rank, err := env.svc.Rank(ctx, tc.userID)
			if err != nil {
				t.Fatalf("Rank failed: %v", err)
			}
			if rank != tc.want {
				t.Errorf("rank = %d, want %d", rank, tc.want)
			}
		})
	}
}

func TestRankUnknownUser(t *testing.T) {
	env := newPipelineEnv()
	_, err := env.svc.Rank(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected not found error")
	}
}

func TestTopFallsBackToUserStore(t *testing.T) {
	env := newPipelineEnv()
	ctx := context.Background()

	env.users.AddPoints(ctx, "alice", 50)
	env.users.AddPoints(ctx, "bob", 70)
	env.users.AddPoints(ctx, "carol", 20)

	entries, err := env.svc.Top(ctx, 2)
	if err != nil {
		t.Fatalf("Top failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].UserID != "bob" || entries[0].Rank != 1 {
		t.Errorf("first entry = %+v, want bob at rank 1", entries[0])
	}
	if entries[1].UserID != "alice" || entries[1].Rank != 2 {
		t.Errorf("second entry = %+v, want alice at rank 2", entries[1])
	}
}

func TestPracticeMinutes(t *testing.T) {
	testCases := []struct {
		seconds int
		want    int
	}{
		{0, 1},
		{5, 1},
		{60, 1},
		{61, 2},
		{600, 10},
	}
	for _, tc := range testCases {
		if got := practiceMinutes(tc.seconds); got != tc.want {
			t.Errorf("practiceMinutes(%d) = %d, want %d", tc.seconds, got, tc.want)
		}
	}
}
