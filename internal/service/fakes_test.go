package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"practice-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// In-memory store fakes. They mirror the Mongo repositories closely enough
// for lifecycle and pipeline tests: not-found is mongo.ErrNoDocuments and a
// practice-log insert conflict surfaces as a duplicate-key write exception.

var errDuplicateKey = mongo.WriteException{
	WriteErrors: []mongo.WriteError{{Code: 11000, Message: "duplicate key"}},
}

type fakeSessionStore struct {
	mu       sync.Mutex
	seq      int
	sessions map[string]*models.QuizSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*models.QuizSession)}
}

func (f *fakeSessionStore) FindByID(_ context.Context, id string) (*models.QuizSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	clone := *session
	return &clone, nil
}

func (f *fakeSessionStore) Create(_ context.Context, session *models.QuizSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	session.ID = fmt.Sprintf("session-%d", f.seq)
	clone := *session
	f.sessions[session.ID] = &clone
	return nil
}

func (f *fakeSessionStore) Update(_ context.Context, id string, update bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	for key, value := range update {
		switch key {
		case "user_answers":
			session.UserAnswers = value.([]*string)
		case "current_question_index":
			session.CurrentQuestionIndex = value.(int)
		case "last_saved":
			session.LastSaved = value.(time.Time)
		case "score":
			session.Score = value.(int)
		case "time_taken":
			session.TimeTaken = value.(string)
		case "is_completed":
			session.IsCompleted = value.(bool)
		}
	}
	return nil
}

func (f *fakeSessionStore) FindByUser(_ context.Context, userID string, limit int64) ([]models.QuizSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.QuizSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.After(result[j].StartTime) })
	if int64(len(result)) > limit {
		result = result[:limit]
	}
	return result, nil
}

type fakeLogStore struct {
	mu   sync.Mutex
	seq  int
	logs map[string]*models.PracticeLog // key: userID|date

	// raceEntry, when set, simulates another device winning the creation
	// race: the next Create inserts raceEntry and fails with a duplicate key.
	raceEntry *models.PracticeLog
}

func newFakeLogStore() *fakeLogStore {
	return &fakeLogStore{logs: make(map[string]*models.PracticeLog)}
}

func logKey(userID string, date time.Time) string {
	return userID + "|" + date.Format("2006-01-02")
}

func (f *fakeLogStore) FindByUserAndDate(_ context.Context, userID string, date time.Time) (*models.PracticeLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.logs[logKey(userID, date)]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	clone := *entry
	clone.TestTypes = append([]string(nil), entry.TestTypes...)
	return &clone, nil
}

func (f *fakeLogStore) Create(_ context.Context, entry *models.PracticeLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.raceEntry != nil {
		race := *f.raceEntry
		f.seq++
		race.ID = fmt.Sprintf("log-%d", f.seq)
		f.logs[logKey(race.UserID, race.Date)] = &race
		f.raceEntry = nil
		return errDuplicateKey
	}
	key := logKey(entry.UserID, entry.Date)
	if _, exists := f.logs[key]; exists {
		return errDuplicateKey
	}
	f.seq++
	entry.ID = fmt.Sprintf("log-%d", f.seq)
	clone := *entry
	f.logs[key] = &clone
	return nil
}

func (f *fakeLogStore) Update(_ context.Context, id string, update bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, entry := range f.logs {
		if entry.ID != id {
			continue
		}
		for key, value := range update {
			switch key {
			case "tests_attempted":
				entry.TestsAttempted = value.(int)
			case "total_score":
				entry.TotalScore = value.(int)
			case "average_score":
				entry.AverageScore = value.(float64)
			case "best_score":
				entry.BestScore = value.(int)
			case "practice_minutes":
				entry.PracticeMinutes = value.(int)
			case "test_types":
				entry.TestTypes = value.([]string)
			case "updated_at":
				entry.UpdatedAt = value.(time.Time)
			case "streak":
				entry.Streak = value.(int)
			}
		}
		return nil
	}
	return mongo.ErrNoDocuments
}

func (f *fakeLogStore) FindActiveDays(_ context.Context, userID string, since time.Time) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var days []time.Time
	for _, entry := range f.logs {
		if entry.UserID == userID && entry.TestsAttempted > 0 && !entry.Date.Before(since) {
			days = append(days, entry.Date)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

func (f *fakeLogStore) FindRange(_ context.Context, userID string, from, to time.Time) ([]models.PracticeLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []models.PracticeLog
	for _, entry := range f.logs {
		if entry.UserID == userID && !entry.Date.Before(from) && !entry.Date.After(to) {
			entries = append(entries, *entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
	return entries, nil
}

func (f *fakeLogStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logs)
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	clone := *user
	clone.StreakBadges = make(map[string]bool, len(user.StreakBadges))
	for k, v := range user.StreakBadges {
		clone.StreakBadges[k] = v
	}
	return &clone, nil
}

func (f *fakeUserStore) AddPoints(_ context.Context, id string, points int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		user = &models.User{ID: id, StreakBadges: make(map[string]bool)}
		f.users[id] = user
	}
	user.Points += points
	user.TestAttended++
	return nil
}

func (f *fakeUserStore) UpdateStreaks(_ context.Context, id string, current, longest int, earned map[string]bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		user = &models.User{ID: id, StreakBadges: make(map[string]bool)}
		f.users[id] = user
	}
	user.CurrentStreak = current
	user.LongestStreak = longest
	for badge, set := range earned {
		if set {
			user.StreakBadges[badge] = true
		}
	}
	return nil
}

func (f *fakeUserStore) Rank(_ context.Context, target *models.User) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rank int64 = 1
	for _, u := range f.users {
		if u.Points > target.Points {
			rank++
		} else if u.Points == target.Points && u.ID < target.ID {
			rank++
		}
	}
	return rank, nil
}

func (f *fakeUserStore) TopByPoints(_ context.Context, limit int64) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []models.User
	for _, u := range f.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Points != users[j].Points {
			return users[i].Points > users[j].Points
		}
		return users[i].ID < users[j].ID
	})
	if int64(len(users)) > limit {
		users = users[:limit]
	}
	return users, nil
}

type fakeAnswerStore struct {
	mu      sync.Mutex
	answers []models.SessionAnswer
}

func (f *fakeAnswerStore) CreateMany(_ context.Context, answers []models.SessionAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, answers...)
	return nil
}

func (f *fakeAnswerStore) FindBySession(_ context.Context, sessionID string) ([]models.SessionAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.SessionAnswer
	for _, a := range f.answers {
		if a.SessionID == sessionID {
			result = append(result, a)
		}
	}
	return result, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (f *fakePublisher) Publish(eventType string, _ interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
	return nil
}

func (f *fakePublisher) has(eventType string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e == eventType {
			return true
		}
	}
	return false
}
