package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore keeps questions, contexts and answers in three collections.
type MongoStore struct {
	questions *mongo.Collection
	contexts  *mongo.Collection
	answers   *mongo.Collection
}

func NewMongoStore(database *mongo.Database) *MongoStore {
	return &MongoStore{
		questions: database.Collection("questions"),
		contexts:  database.Collection("contexts"),
		answers:   database.Collection("answers"),
	}
}

// InitializeIndexes creates the unique answer key and the lookup indexes.
func (s *MongoStore) InitializeIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "student_id", Value: 1},
				{Key: "question_id", Value: 1},
				{Key: "context_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "question_id", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "context_id", Value: 1},
				{Key: "student_id", Value: 1},
			},
		},
	}
	if _, err := s.answers.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create answer indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) PutQuestion(ctx context.Context, q Question) error {
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().Unix()
	}
	_, err := s.questions.ReplaceOne(ctx, bson.M{"_id": q.ID}, q, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to put question: %w", err)
	}
	return nil
}

func (s *MongoStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	var q Question
	if err := s.questions.FindOne(ctx, bson.M{"_id": id}).Decode(&q); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Question{}, ErrNotFound
		}
		return Question{}, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

func (s *MongoStore) PutContext(ctx context.Context, c Context) error {
	_, err := s.contexts.ReplaceOne(ctx, bson.M{"_id": c.ID}, c, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to put context: %w", err)
	}
	return nil
}

func (s *MongoStore) GetContext(ctx context.Context, id string) (Context, error) {
	var c Context
	if err := s.contexts.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Context{}, ErrNotFound
		}
		return Context{}, fmt.Errorf("failed to get context: %w", err)
	}
	return c, nil
}

func (s *MongoStore) UpsertAnswer(ctx context.Context, a Answer) error {
	filter := bson.M{
		"student_id":  a.StudentID,
		"question_id": a.QuestionID,
		"context_id":  a.ContextID,
	}
	set := bson.M{
		"value":          a.Value,
		"manual_score":   a.ManualScore,
		"points_awarded": a.PointsAwarded,
		"max_score":      a.MaxScore,
		"is_correct":     a.IsCorrect,
		"status":         a.Status,
		"reason":         a.Reason,
		"updated_at":     a.UpdatedAt,
	}
	if a.FinalizedAt != nil {
		set["finalized_at"] = *a.FinalizedAt
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"first_seen": a.UpdatedAt},
	}
	if _, err := s.answers.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert answer: %w", err)
	}
	return nil
}

func (s *MongoStore) ListByStudentContext(ctx context.Context, studentID, contextID string) ([]Answer, error) {
	return s.find(ctx, bson.M{"student_id": studentID, "context_id": contextID})
}

func (s *MongoStore) ListByQuestion(ctx context.Context, questionID string) ([]Answer, error) {
	return s.find(ctx, bson.M{"question_id": questionID})
}

func (s *MongoStore) ListByContext(ctx context.Context, contextID string) ([]Answer, error) {
	return s.find(ctx, bson.M{"context_id": contextID})
}

func (s *MongoStore) find(ctx context.Context, filter bson.M) ([]Answer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "first_seen", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.answers.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find answers: %w", err)
	}
	defer cur.Close(ctx)

	out := []Answer{}
	for cur.Next(ctx) {
		var a Answer
		if err := cur.Decode(&a); err != nil {
			return nil, fmt.Errorf("failed to decode answer: %w", err)
		}
		out = append(out, a)
	}
	return out, cur.Err()
}
