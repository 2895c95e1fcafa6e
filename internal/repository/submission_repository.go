package repository

import (
	"context"
	"fmt"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoSubmissionRepository struct {
	Col *mongo.Collection
}

func NewMongoSubmissionRepository(db *mongo.Database) *MongoSubmissionRepository {
	return &MongoSubmissionRepository{Col: db.Collection("assessment_submissions")}
}

// CreateIndexes installs the unique (session_id, question_id) index that
// backs duplicate detection across replicas.
func (r *MongoSubmissionRepository) CreateIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "question_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("session_question_unique"),
	})
	return err
}

func (r *MongoSubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	_, err := r.Col.InsertOne(ctx, sub)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("question %s in session %s: %w", sub.QuestionID, sub.SessionID, apperrors.ErrDuplicateSubmission)
	}
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (r *MongoSubmissionRepository) Exists(ctx context.Context, sessionID, questionID string) (bool, error) {
	count, err := r.Col.CountDocuments(ctx,
		bson.M{"session_id": sessionID, "question_id": questionID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check submission: %w", err)
	}
	return count > 0, nil
}

func (r *MongoSubmissionRepository) FindBySession(ctx context.Context, sessionID string) ([]models.Submission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})
	cur, err := r.Col.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find submissions: %w", err)
	}
	defer cur.Close(ctx)
	var submissions []models.Submission
	for cur.Next(ctx) {
		var sub models.Submission
		if err := cur.Decode(&sub); err != nil {
			return nil, fmt.Errorf("decode submission: %w", err)
		}
		submissions = append(submissions, sub)
	}
	return submissions, cur.Err()
}

func (r *MongoSubmissionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.Col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
