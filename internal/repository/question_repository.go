package repository

import (
	"context"
	"errors"
	"fmt"

	"assessment-service/internal/analytics"
	"assessment-service/internal/apperrors"
	"assessment-service/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// maxObservationAttempts bounds the compare-and-swap loop in ApplyObservation.
const maxObservationAttempts = 16

type MongoQuestionRepository struct {
	Col *mongo.Collection
}

func NewMongoQuestionRepository(db *mongo.Database) *MongoQuestionRepository {
	return &MongoQuestionRepository{Col: db.Collection("questions")}
}

func (r *MongoQuestionRepository) Fetch(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error) {
	cur, err := r.Col.Find(ctx, questionQuery(filter))
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	defer cur.Close(ctx)
	var questions []models.Question
	for cur.Next(ctx) {
		var q models.Question
		if err := cur.Decode(&q); err != nil {
			return nil, fmt.Errorf("decode question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, cur.Err()
}

func questionQuery(f models.QuestionFilter) bson.M {
	query := bson.M{}
	if f.ActiveOnly {
		query["is_active"] = true
	}
	if f.ApprovedOnly {
		query["is_approved"] = true
	}
	if len(f.Types) > 0 {
		query["type"] = bson.M{"$in": f.Types}
	}
	if len(f.Categories) > 0 {
		query["category"] = bson.M{"$in": f.Categories}
	}
	if len(f.DifficultyLevels) > 0 {
		query["difficulty"] = bson.M{"$in": f.DifficultyLevels}
	}
	if len(f.CompanyTags) > 0 {
		query["company_tags"] = bson.M{"$in": f.CompanyTags}
	}
	if len(f.TopicTags) > 0 {
		query["topic_tags"] = bson.M{"$in": f.TopicTags}
	}
	if len(f.ExcludeIDs) > 0 {
		query["_id"] = bson.M{"$nin": f.ExcludeIDs}
	}
	return query
}

func (r *MongoQuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&question)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("question %s: %w", id, apperrors.ErrQuestionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find question %s: %w", id, err)
	}
	return &question, nil
}

func (r *MongoQuestionRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*models.Question, error) {
	out := make(map[string]*models.Question, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.Col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var q models.Question
		if err := cur.Decode(&q); err != nil {
			return nil, fmt.Errorf("decode question: %w", err)
		}
		out[q.ID] = &q
	}
	return out, cur.Err()
}

func (r *MongoQuestionRepository) Create(ctx context.Context, q *models.Question) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	_, err := r.Col.InsertOne(ctx, q)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: question %s already exists", apperrors.ErrValidation, q.ID)
	}
	return err
}

// ApplyObservation reads the current analytics and writes the folded values
// only if usage_count is still what was read, retrying on a lost race.
func (r *MongoQuestionRepository) ApplyObservation(ctx context.Context, id string, obs analytics.Observation) (analytics.Stats, error) {
	for attempt := 0; attempt < maxObservationAttempts; attempt++ {
		q, err := r.FindByID(ctx, id)
		if err != nil {
			return analytics.Stats{}, err
		}
		next := analytics.Of(q).Apply(obs)

		filter := bson.M{"_id": id, "usage_count": q.UsageCount}
		if q.UsageCount == 0 {
			// Seeded documents may not carry the field yet.
			filter = bson.M{"_id": id, "$or": bson.A{
				bson.M{"usage_count": 0},
				bson.M{"usage_count": bson.M{"$exists": false}},
			}}
		}
		update := bson.M{"$set": bson.M{
			"usage_count":  next.UsageCount,
			"success_rate": *next.SuccessRate,
			"average_time": *next.AverageTime,
		}}

		res, err := r.Col.UpdateOne(ctx, filter, update)
		if err != nil {
			return analytics.Stats{}, fmt.Errorf("apply observation to %s: %w", id, err)
		}
		if res.MatchedCount == 1 {
			return next, nil
		}
	}
	return analytics.Stats{}, fmt.Errorf("apply observation to %s after %d attempts: %w",
		id, maxObservationAttempts, apperrors.ErrVersionConflict)
}
