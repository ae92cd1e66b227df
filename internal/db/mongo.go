package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collections struct {
	Users           *mongo.Collection
	Appointments    *mongo.Collection
	ConsultantLocks *mongo.Collection
	Reviews         *mongo.Collection
}

// Connect requires a replica set deployment when booking through Mongo, since
// bookings run in multi-document transactions.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *Collections, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}

	db := client.Database(dbName)

	cols := &Collections{
		Users:           db.Collection("users"),
		Appointments:    db.Collection("appointments"),
		ConsultantLocks: db.Collection("consultant_locks"),
		Reviews:         db.Collection("reviews"),
	}

	return client, cols, nil
}

func EnsureIndexes(ctx context.Context, cols *Collections) error {
	indexTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := cols.Appointments.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "consultant_id", Value: 1}, {Key: "appointment_date", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "appointment_date", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "ends_at", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Reviews.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "appointment_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "consultant_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return err
	}

	return nil
}
