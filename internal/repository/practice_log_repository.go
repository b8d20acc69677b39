package repository

import (
	"context"
	"time"

	"practice-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PracticeLogRepository struct {
	Col *mongo.Collection
}

func NewPracticeLogRepository(db *mongo.Database) *PracticeLogRepository {
	return &PracticeLogRepository{Col: db.Collection("practice_logs")}
}

func (r *PracticeLogRepository) FindByUserAndDate(ctx context.Context, userID string, date time.Time) (*models.PracticeLog, error) {
	var entry models.PracticeLog
	err := r.Col.FindOne(ctx, bson.M{"user_id": userID, "date": date}).Decode(&entry)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create inserts a new daily log. A duplicate-key error means another
// request created today's log first; callers re-fetch and update instead
// of failing.
func (r *PracticeLogRepository) Create(ctx context.Context, entry *models.PracticeLog) error {
	res, err := r.Col.InsertOne(ctx, entry)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid.Hex()
	}
	return nil
}

// IsDuplicate reports whether err is a uniqueness conflict on insert.
func IsDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func (r *PracticeLogRepository) Update(ctx context.Context, id string, update bson.M) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	_, err = r.Col.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": update})
	return err
}

// FindActiveDays returns the normalized dates of days with at least one
// completed test since the cutoff, ascending. This is the streak
// calculator's whole input.
func (r *PracticeLogRepository) FindActiveDays(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	filter := bson.M{
		"user_id":         userID,
		"tests_attempted": bson.M{"$gt": 0},
		"date":            bson.M{"$gte": since},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}}).
		SetProjection(bson.M{"date": 1})
	cur, err := r.Col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var days []time.Time
	for cur.Next(ctx) {
		var entry models.PracticeLog
		if err := cur.Decode(&entry); err != nil {
			return nil, err
		}
		days = append(days, entry.Date)
	}
	return days, nil
}

// FindRange returns all logs for a user with date in [from, to], ascending.
func (r *PracticeLogRepository) FindRange(ctx context.Context, userID string, from, to time.Time) ([]models.PracticeLog, error) {
	filter := bson.M{
		"user_id": userID,
		"date":    bson.M{"$gte": from, "$lte": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cur, err := r.Col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var entries []models.PracticeLog
	for cur.Next(ctx) {
		var entry models.PracticeLog
		if err := cur.Decode(&entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
