package repository

import (
	"context"
	"errors"
	"fmt"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoSessionRepository struct {
	Col *mongo.Collection
}

func NewMongoSessionRepository(db *mongo.Database) *MongoSessionRepository {
	return &MongoSessionRepository{Col: db.Collection("assessment_sessions")}
}

func (r *MongoSessionRepository) CreateIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}

func (r *MongoSessionRepository) Create(ctx context.Context, s *models.AssessmentSession) error {
	if _, err := r.Col.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("insert session %s: %w", s.ID, err)
	}
	return nil
}

func (r *MongoSessionRepository) FindByID(ctx context.Context, id string) (*models.AssessmentSession, error) {
	var s models.AssessmentSession
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("session %s: %w", id, apperrors.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find session %s: %w", id, err)
	}
	return &s, nil
}

func (r *MongoSessionRepository) Update(ctx context.Context, s *models.AssessmentSession, expectedVersion int64) error {
	next := s.Clone()
	next.Version = expectedVersion + 1

	res, err := r.Col.ReplaceOne(ctx, bson.M{"_id": s.ID, "version": expectedVersion}, next)
	if err != nil {
		return fmt.Errorf("update session %s: %w", s.ID, err)
	}
	if res.MatchedCount == 0 {
		count, err := r.Col.CountDocuments(ctx, bson.M{"_id": s.ID})
		if err == nil && count == 0 {
			return fmt.Errorf("session %s: %w", s.ID, apperrors.ErrSessionNotFound)
		}
		return fmt.Errorf("session %s expected version %d: %w", s.ID, expectedVersion, apperrors.ErrVersionConflict)
	}
	s.Version = next.Version
	return nil
}

func (r *MongoSessionRepository) ListByStatus(ctx context.Context, statuses ...models.SessionStatus) ([]models.AssessmentSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.Col.Find(ctx, bson.M{"status": bson.M{"$in": statuses}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer cur.Close(ctx)
	var sessions []models.AssessmentSession
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, nil
}
