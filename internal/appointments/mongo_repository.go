package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"consult-backend/internal/schedule"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const maxVersionRetries = 5

// MongoRepository needs a replica set: booking runs in a multi-document
// transaction.
type MongoRepository struct {
	client *mongo.Client
	col    *mongo.Collection
	locks  *mongo.Collection
}

func NewMongoRepository(client *mongo.Client, col, locks *mongo.Collection) *MongoRepository {
	return &MongoRepository{client: client, col: col, locks: locks}
}

func (r *MongoRepository) Book(ctx context.Context, a Appointment) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		// Every booking for this consultant writes the same lock document, so
		// two concurrent transactions hit a write conflict and the loser is
		// retried against the winner's committed insert.
		_, err := r.locks.UpdateOne(sc,
			bson.M{"_id": a.ConsultantID},
			bson.M{"$inc": bson.M{"seq": 1}, "$set": bson.M{"updated_at": a.CreatedAt}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return nil, err
		}

		conflict, err := r.hasConflict(sc, a.ConsultantID, a.AppointmentDate, a.EndsAt)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, ErrSlotTaken
		}

		if _, err := r.col.InsertOne(sc, a); err != nil {
			return nil, err
		}
		return nil, nil
	}, txOpts)
	return err
}

func (r *MongoRepository) HasConflict(ctx context.Context, consultantID string, start, end time.Time) (bool, error) {
	return r.hasConflict(ctx, consultantID, start, end)
}

func (r *MongoRepository) hasConflict(ctx context.Context, consultantID string, start, end time.Time) (bool, error) {
	filter := activeOverlapFilter(consultantID, schedule.Interval{Start: start, End: end})
	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func activeOverlapFilter(consultantID string, window schedule.Interval) bson.M {
	return bson.M{
		"consultant_id":    consultantID,
		"status":           bson.M{"$in": activeStatusStrings()},
		"appointment_date": bson.M{"$lt": window.End},
		"ends_at":          bson.M{"$gt": window.Start},
	}
}

func (r *MongoRepository) Get(ctx context.Context, id string) (Appointment, error) {
	var a Appointment
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Appointment{}, ErrNotFound
		}
		return Appointment{}, err
	}
	return a, nil
}

// Transition uses the version field as an optimistic lock; a lost race
// reloads and re-runs fn against the fresh state.
func (r *MongoRepository) Transition(ctx context.Context, id string, fn TransitionFunc) (Appointment, error) {
	for attempt := 0; attempt < maxVersionRetries; attempt++ {
		current, err := r.Get(ctx, id)
		if err != nil {
			return Appointment{}, err
		}
		next, err := fn(current)
		if err != nil {
			return current, err
		}
		next.Version = current.Version + 1

		res, err := r.col.ReplaceOne(ctx, bson.M{"_id": id, "version": current.Version}, next)
		if err != nil {
			return Appointment{}, err
		}
		if res.MatchedCount == 1 {
			return next, nil
		}
	}
	return Appointment{}, fmt.Errorf("appointment %s: too many concurrent updates", id)
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	query := bson.M{}
	if filter.ClientID != "" {
		query["client_id"] = filter.ClientID
	}
	if filter.ConsultantID != "" {
		query["consultant_id"] = filter.ConsultantID
	}
	if filter.UpcomingOnly {
		query["appointment_date"] = bson.M{"$gt": filter.Now}
		query["status"] = bson.M{"$in": activeStatusStrings()}
	}

	opts := options.Find().SetSort(bson.D{{Key: "appointment_date", Value: 1}})
	return r.find(ctx, query, opts)
}

func (r *MongoRepository) ActiveIntervals(ctx context.Context, consultantID string, window schedule.Interval) ([]schedule.Interval, error) {
	items, err := r.find(ctx, activeOverlapFilter(consultantID, window), options.Find())
	if err != nil {
		return nil, err
	}
	intervals := make([]schedule.Interval, 0, len(items))
	for _, a := range items {
		intervals = append(intervals, a.Interval())
	}
	return intervals, nil
}

func (r *MongoRepository) DueForCompletion(ctx context.Context, now time.Time, limit int64) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "ends_at", Value: 1}}).
		SetLimit(limit)
	cursor, err := r.col.Find(ctx, bson.M{
		"status":  string(StatusConfirmed),
		"ends_at": bson.M{"$lte": now},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	ids := make([]string, 0)
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *MongoRepository) Stats(ctx context.Context, consultantID string, from, to time.Time) (Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"consultant_id":    consultantID,
			"status":           string(StatusCompleted),
			"appointment_date": bson.M{"$gte": from, "$lt": to},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"count": bson.M{"$sum": 1},
			"paid": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$payment_status", string(PaymentPaid)}},
				"$fee",
				0,
			}}},
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return Stats{}, err
	}
	defer cursor.Close(ctx)

	stats := Stats{ConsultantID: consultantID, From: from, To: to}
	if cursor.Next(ctx) {
		var row struct {
			Count int64 `bson:"count"`
			Paid  int64 `bson:"paid"`
		}
		if err := cursor.Decode(&row); err != nil {
			return Stats{}, err
		}
		stats.CompletedCount = row.Count
		stats.PaidFeesTotal = row.Paid
	}
	if err := cursor.Err(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (r *MongoRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]Appointment, error) {
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Appointment, 0)
	for cursor.Next(ctx) {
		var a Appointment
		if err := cursor.Decode(&a); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
