package leaderboard

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const pointsKey = "leaderboard:points"

// Entry is one row of the points leaderboard.
type Entry struct {
	UserID string `json:"user_id"`
	Points int64  `json:"points"`
	Rank   int64  `json:"rank"`
}

// Leaderboard caches user points in a Redis ZSet for cheap rank and top-N
// reads. It is a cache: the users collection stays authoritative and the
// service falls back to it when Redis is not configured.
type Leaderboard struct {
	client *redis.Client
}

func New(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

// SetPoints records a user's current points total.
func (l *Leaderboard) SetPoints(ctx context.Context, userID string, points int64) error {
	return l.client.ZAdd(ctx, pointsKey, redis.Z{
		Score:  float64(points),
		Member: userID,
	}).Err()
}

// Rank returns the user's 1-based rank by points, 0 if the user is not on
// the board.
func (l *Leaderboard) Rank(ctx context.Context, userID string) (int64, error) {
	rank, err := l.client.ZRevRank(ctx, pointsKey, userID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rank + 1, nil
}

// Top returns the highest scoring users, best first.
func (l *Leaderboard) Top(ctx context.Context, limit int64) ([]Entry, error) {
	results, err := l.client.ZRevRangeWithScores(ctx, pointsKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(results))
	for i, result := range results {
		entries[i] = Entry{
			UserID: result.Member.(string),
			Points: int64(result.Score),
			Rank:   int64(i) + 1,
		}
	}
	return entries, nil
}
