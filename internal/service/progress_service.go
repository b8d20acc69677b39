package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"practice-service/internal/apperrors"
	"practice-service/internal/badge"
	"practice-service/internal/clock"
	"practice-service/internal/event"
	"practice-service/internal/leaderboard"
	"practice-service/internal/models"
	"practice-service/internal/repository"
	"practice-service/internal/streak"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ProgressService maintains the per-day practice logs and everything derived
// from them: streaks, badges, points and leaderboard rank. It sits behind
// the submission path as a best-effort pipeline; callers log failures and
// move on.
type ProgressService struct {
	Logs      PracticeLogStore
	Users     UserStore
	Board     *leaderboard.Leaderboard
	Publisher Publisher

	clk          clock.Clock
	lookbackDays int
}

func NewProgressService(
	logs PracticeLogStore,
	users UserStore,
	board *leaderboard.Leaderboard,
	publisher Publisher,
	clk clock.Clock,
	lookbackDays int,
) *ProgressService {
	if lookbackDays <= 0 {
		lookbackDays = streak.DefaultLookbackDays
	}
	return &ProgressService{
		Logs:         logs,
		Users:        users,
		Board:        board,
		Publisher:    publisher,
		clk:          clk,
		lookbackDays: lookbackDays,
	}
}

// StreakInfo is the streak summary served to clients.
type StreakInfo struct {
	CurrentStreak int                   `json:"current_streak"`
	LongestStreak int                   `json:"longest_streak"`
	Today         models.DailyAggregate `json:"today"`
}

// RecordSubmission runs the post-submit pipeline for one completed test:
// points credit, today's practice log, streak recompute, badge evaluation
// and leaderboard refresh. Steps are independent; an early failure is
// logged and later steps still run where they remain meaningful.
func (p *ProgressService) RecordSubmission(ctx context.Context, userID, topic string, score, totalQuestions, elapsedSeconds int) error {
	if err := p.Users.AddPoints(ctx, userID, score); err != nil {
		log.Printf("failed to credit points to user %s: %v", userID, err)
	}

	now := p.clk.Now()
	entry, err := p.upsertDailyLog(ctx, userID, topic, score, elapsedSeconds, now)
	if err != nil {
		return fmt.Errorf("practice log update: %w", err)
	}

	summary, err := p.computeStreaks(ctx, userID, now)
	if err != nil {
		return fmt.Errorf("streak recompute: %w", err)
	}

	user, err := p.Users.FindByID(ctx, userID)
	if err != nil {
		// AddPoints upserts the projection, so this is unexpected; fall back
		// to an empty projection rather than dropping the streak write.
		log.Printf("failed to load user %s after points credit: %v", userID, err)
		user = &models.User{ID: userID}
	}

	longest := summary.Longest
	if user.LongestStreak > longest {
		longest = user.LongestStreak
	}
	earned := badge.Evaluate(summary.Current, user.StreakBadges)

	if err := p.Users.UpdateStreaks(ctx, userID, summary.Current, longest, earned); err != nil {
		log.Printf("failed to persist streaks for user %s: %v", userID, err)
	}
	if err := p.Logs.Update(ctx, entry.ID, bson.M{"streak": summary.Current}); err != nil {
		log.Printf("failed to cache streak on practice log %s: %v", entry.ID, err)
	}

	if p.Board != nil {
		if err := p.Board.SetPoints(ctx, userID, int64(user.Points)); err != nil {
			log.Printf("failed to refresh leaderboard for user %s: %v", userID, err)
		}
	}

	if p.Publisher != nil {
		_ = p.Publisher.Publish(event.StreakUpdated, map[string]interface{}{
			"user_id":        userID,
			"current_streak": summary.Current,
			"longest_streak": longest,
		})
		for b := range earned {
			_ = p.Publisher.Publish(event.BadgeEarned, map[string]interface{}{
				"user_id": userID,
				"badge":   b,
			})
		}
	}
	return nil
}

// upsertDailyLog applies one submission to today's log, creating it on the
// first practice event of the day. Creation races from concurrent devices
// resolve through the unique index: the loser re-fetches and updates.
func (p *ProgressService) upsertDailyLog(ctx context.Context, userID, topic string, score, elapsedSeconds int, now time.Time) (*models.PracticeLog, error) {
	today := models.DayOf(now)
	minutes := practiceMinutes(elapsedSeconds)

	entry, err := p.Logs.FindByUserAndDate(ctx, userID, today)
	if err == mongo.ErrNoDocuments {
		fresh := &models.PracticeLog{
			UserID:          userID,
			Date:            today,
			TestsAttempted:  1,
			TotalScore:      score,
			AverageScore:    float64(score),
			BestScore:       score,
			PracticeMinutes: minutes,
			TestTypes:       testTypes(nil, topic),
			UpdatedAt:       now,
		}
		createErr := p.Logs.Create(ctx, fresh)
		if createErr == nil {
			return fresh, nil
		}
		if !repository.IsDuplicate(createErr) {
			return nil, createErr
		}
		// Another request created today's log first; fall through to the
		// additive update path.
		entry, err = p.Logs.FindByUserAndDate(ctx, userID, today)
	}
	if err != nil {
		return nil, err
	}

	entry.TestsAttempted++
	entry.TotalScore += score
	entry.AverageScore = float64(entry.TotalScore) / float64(entry.TestsAttempted)
	if score > entry.BestScore {
		entry.BestScore = score
	}
	entry.PracticeMinutes += minutes
	entry.TestTypes = testTypes(entry.TestTypes, topic)
	entry.UpdatedAt = now

	err = p.Logs.Update(ctx, entry.ID, bson.M{
		"tests_attempted":  entry.TestsAttempted,
		"total_score":      entry.TotalScore,
		"average_score":    entry.AverageScore,
		"best_score":       entry.BestScore,
		"practice_minutes": entry.PracticeMinutes,
		"test_types":       entry.TestTypes,
		"updated_at":       entry.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (p *ProgressService) computeStreaks(ctx context.Context, userID string, now time.Time) (streak.Summary, error) {
	since := models.DayOf(now).AddDate(0, 0, -p.lookbackDays)
	activeDays, err := p.Logs.FindActiveDays(ctx, userID, since)
	if err != nil {
		return streak.Summary{}, err
	}
	return streak.Calculate(activeDays, now), nil
}

// DailyProgress returns the last N days of aggregates, oldest first, with
// zero-filled entries for days the user did not practice.
func (p *ProgressService) DailyProgress(ctx context.Context, userID string, days int) ([]models.DailyAggregate, error) {
	if days <= 0 {
		days = 7
	}
	if days > p.lookbackDays {
		days = p.lookbackDays
	}
	today := models.DayOf(p.clk.Now())
	from := today.AddDate(0, 0, -(days - 1))

	logs, err := p.Logs.FindRange(ctx, userID, from, today)
	if err != nil {
		return nil, err
	}
	byDate := make(map[time.Time]models.PracticeLog, len(logs))
	for _, entry := range logs {
		byDate[entry.Date] = entry
	}

	series := make([]models.DailyAggregate, 0, days)
	for d := from; !d.After(today); d = d.AddDate(0, 0, 1) {
		agg := models.DailyAggregate{Date: d, TestTypes: []string{}}
		if entry, ok := byDate[d]; ok {
			agg.TestsAttempted = entry.TestsAttempted
			agg.TotalScore = entry.TotalScore
			agg.AverageScore = entry.AverageScore
			agg.BestScore = entry.BestScore
			agg.PracticeMinutes = entry.PracticeMinutes
			if entry.TestTypes != nil {
				agg.TestTypes = entry.TestTypes
			}
		}
		series = append(series, agg)
	}
	return series, nil
}

// StreakSummary derives the current streak state plus today's aggregate.
func (p *ProgressService) StreakSummary(ctx context.Context, userID string) (*StreakInfo, error) {
	now := p.clk.Now()
	summary, err := p.computeStreaks(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	longest := summary.Longest
	if user, err := p.Users.FindByID(ctx, userID); err == nil && user.LongestStreak > longest {
		longest = user.LongestStreak
	}

	info := &StreakInfo{
		CurrentStreak: summary.Current,
		LongestStreak: longest,
		Today:         models.DailyAggregate{Date: models.DayOf(now), TestTypes: []string{}},
	}
	if entry, err := p.Logs.FindByUserAndDate(ctx, userID, models.DayOf(now)); err == nil {
		info.Today.TestsAttempted = entry.TestsAttempted
		info.Today.TotalScore = entry.TotalScore
		info.Today.AverageScore = entry.AverageScore
		info.Today.BestScore = entry.BestScore
		info.Today.PracticeMinutes = entry.PracticeMinutes
		if entry.TestTypes != nil {
			info.Today.TestTypes = entry.TestTypes
		}
	}
	return info, nil
}

// Rank returns the user's 1-based position on the points leaderboard. The
// Redis board answers when configured and warm; the users collection is the
// authoritative fallback.
func (p *ProgressService) Rank(ctx context.Context, userID string) (int64, error) {
	user, err := p.Users.FindByID(ctx, userID)
	if err == mongo.ErrNoDocuments {
		return 0, apperrors.NewNotFound("user %s not found", userID)
	}
	if err != nil {
		return 0, err
	}

	if p.Board != nil {
		if rank, err := p.Board.Rank(ctx, userID); err == nil && rank > 0 {
			return rank, nil
		}
	}
	return p.Users.Rank(ctx, user)
}

// Top returns the highest scoring users, best first.
func (p *ProgressService) Top(ctx context.Context, limit int64) ([]leaderboard.Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if p.Board != nil {
		if entries, err := p.Board.Top(ctx, limit); err == nil && len(entries) > 0 {
			return entries, nil
		}
	}
	users, err := p.Users.TopByPoints(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]leaderboard.Entry, len(users))
	for i, u := range users {
		entries[i] = leaderboard.Entry{UserID: u.ID, Points: int64(u.Points), Rank: int64(i) + 1}
	}
	return entries, nil
}

// practiceMinutes rounds elapsed time up to whole minutes, crediting at
// least one minute per completed test.
func practiceMinutes(elapsedSeconds int) int {
	if elapsedSeconds <= 0 {
		return 1
	}
	return (elapsedSeconds + 59) / 60
}

func testTypes(existing []string, topic string) []string {
	if topic == "" {
		return existing
	}
	for _, t := range existing {
		if t == topic {
			return existing
		}
	}
	return append(existing, topic)
}
