package repository

import (
	"context"
	"time"

	"practice-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	Col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{Col: db.Collection("users")}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// AddPoints credits a completed test to the user, creating the projection
// document on first use.
func (r *UserRepository) AddPoints(ctx context.Context, id string, points int) error {
	update := bson.M{
		"$inc": bson.M{"points": points, "test_attended": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.Col.UpdateOne(ctx, bson.M{"_id": id}, update, opts)
	return err
}

// UpdateStreaks writes the calculator's output back onto the user together
// with any newly earned badges. earned only ever contains true flags, so
// badges are set-once: a later write without the key leaves it untouched.
func (r *UserRepository) UpdateStreaks(ctx context.Context, id string, current, longest int, earned map[string]bool) error {
	set := bson.M{
		"current_streak": current,
		"longest_streak": longest,
		"updated_at":     time.Now(),
	}
	for badge, ok := range earned {
		if ok {
			set["streak_badges."+badge] = true
		}
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.Col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts)
	return err
}

// Rank returns the user's 1-based leaderboard position by points. Ties are
// broken deterministically by _id ascending so two users never share a rank.
func (r *UserRepository) Rank(ctx context.Context, user *models.User) (int64, error) {
	ahead, err := r.Col.CountDocuments(ctx, bson.M{"points": bson.M{"$gt": user.Points}})
	if err != nil {
		return 0, err
	}
	tied, err := r.Col.CountDocuments(ctx, bson.M{
		"points": user.Points,
		"_id":    bson.M{"$lt": user.ID},
	})
	if err != nil {
		return 0, err
	}
	return ahead + tied + 1, nil
}

// TopByPoints returns the highest scoring users, points descending with the
// same _id tie-break as Rank.
func (r *UserRepository) TopByPoints(ctx context.Context, limit int64) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "points", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)
	cur, err := r.Col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
