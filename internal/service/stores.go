package service

import (
	"context"
	"time"

	"practice-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

// Store interfaces consumed by the services. The Mongo repositories satisfy
// them in production; tests substitute in-memory fakes so timing rules can
// be exercised against a fake clock.

type SessionStore interface {
	FindByID(ctx context.Context, id string) (*models.QuizSession, error)
	Create(ctx context.Context, session *models.QuizSession) error
	Update(ctx context.Context, id string, update bson.M) error
	FindByUser(ctx context.Context, userID string, limit int64) ([]models.QuizSession, error)
}

type PracticeLogStore interface {
	FindByUserAndDate(ctx context.Context, userID string, date time.Time) (*models.PracticeLog, error)
	Create(ctx context.Context, entry *models.PracticeLog) error
	Update(ctx context.Context, id string, update bson.M) error
	FindActiveDays(ctx context.Context, userID string, since time.Time) ([]time.Time, error)
	FindRange(ctx context.Context, userID string, from, to time.Time) ([]models.PracticeLog, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	AddPoints(ctx context.Context, id string, points int) error
	UpdateStreaks(ctx context.Context, id string, current, longest int, earned map[string]bool) error
	Rank(ctx context.Context, user *models.User) (int64, error)
	TopByPoints(ctx context.Context, limit int64) ([]models.User, error)
}

type AnswerStore interface {
	CreateMany(ctx context.Context, answers []models.SessionAnswer) error
	FindBySession(ctx context.Context, sessionID string) ([]models.SessionAnswer, error)
}

// Publisher matches the AMQP event publisher; call sites tolerate a nil
// implementation.
type Publisher interface {
	Publish(eventType string, payload interface{}) error
}
