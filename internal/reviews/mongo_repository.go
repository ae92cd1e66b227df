package reviews

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, review Review) error {
	if _, err := r.col.InsertOne(ctx, review); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (Review, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) GetByAppointment(ctx context.Context, appointmentID string) (Review, error) {
	return r.findOne(ctx, bson.M{"appointment_id": appointmentID})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (Review, error) {
	var review Review
	if err := r.col.FindOne(ctx, filter).Decode(&review); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Review{}, ErrNotFound
		}
		return Review{}, err
	}
	return review, nil
}

func (r *MongoRepository) Update(ctx context.Context, review Review) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": review.ID}, bson.M{"$set": bson.M{
		"rating":     review.Rating,
		"comment":    review.Comment,
		"updated_at": review.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) ListByConsultant(ctx context.Context, consultantID string, limit, offset int64) ([]Review, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	cursor, err := r.col.Find(ctx, bson.M{"consultant_id": consultantID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Review, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) Summary(ctx context.Context, consultantID string) (Summary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"consultant_id": consultantID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$consultant_id",
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return Summary{}, err
	}
	defer cursor.Close(ctx)

	summary := Summary{ConsultantID: consultantID}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&summary); err != nil {
			return Summary{}, err
		}
	}
	if err := cursor.Err(); err != nil {
		return Summary{}, err
	}
	return summary, nil
}
