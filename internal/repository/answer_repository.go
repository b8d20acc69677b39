package repository

import (
	"context"

	"practice-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type AnswerRepository struct {
	Col *mongo.Collection
}

func NewAnswerRepository(db *mongo.Database) *AnswerRepository {
	return &AnswerRepository{Col: db.Collection("session_answers")}
}

// CreateMany writes the graded answer rows for one submission in a single
// insert.
func (r *AnswerRepository) CreateMany(ctx context.Context, answers []models.SessionAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	docs := make([]interface{}, len(answers))
	for i := range answers {
		docs[i] = answers[i]
	}
	_, err := r.Col.InsertMany(ctx, docs)
	return err
}

func (r *AnswerRepository) FindBySession(ctx context.Context, sessionID string) ([]models.SessionAnswer, error) {
	cur, err := r.Col.Find(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var answers []models.SessionAnswer
	for cur.Next(ctx) {
		var a models.SessionAnswer
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, nil
}
