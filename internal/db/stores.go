package db

import (
	"context"
	"fmt"
	"time"

	"consult-backend/internal/appointments"
	"consult-backend/internal/config"
	"consult-backend/internal/reviews"
	"consult-backend/internal/users"
)

// Stores bundles the repositories for the configured driver.
type Stores struct {
	Driver       string
	Users        users.Directory
	Appointments appointments.Repository
	Reviews      reviews.Repository
	Close        func(ctx context.Context) error
}

func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, cols, err := Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		if err := EnsureIndexes(ctx, cols); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return &Stores{
			Driver:       cfg.StoreDriver,
			Users:        users.NewMongoDirectory(cols.Users),
			Appointments: appointments.NewMongoRepository(client, cols.Appointments, cols.ConsultantLocks),
			Reviews:      reviews.NewMongoRepository(cols.Reviews),
			Close:        client.Disconnect,
		}, nil

	case config.StorePostgres:
		gdb, err := OpenPostgres(cfg.DatabaseURL, cfg.LogLevel < 0)
		if err != nil {
			return nil, fmt.Errorf("postgres open: %w", err)
		}
		if err := Migrate(gdb, &users.User{}, &appointments.Appointment{}, &reviews.Review{}); err != nil {
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(pingCtx); err != nil {
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		return &Stores{
			Driver:       cfg.StoreDriver,
			Users:        users.NewGormDirectory(gdb),
			Appointments: appointments.NewGormRepository(gdb),
			Reviews:      reviews.NewGormRepository(gdb),
			Close: func(context.Context) error {
				return sqlDB.Close()
			},
		}, nil

	case config.StoreMemory:
		return &Stores{
			Driver:       cfg.StoreDriver,
			Users:        users.NewMemoryDirectory(users.DemoUsers()...),
			Appointments: appointments.NewMemoryRepository(),
			Reviews:      reviews.NewMemoryRepository(),
			Close:        func(context.Context) error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
