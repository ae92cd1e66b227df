package db

import (
	"context"
	"testing"
	"time"

	"consult-backend/internal/config"
)

func TestOpenMemoryStores(t *testing.T) {
	cfg := &config.Config{StoreDriver: config.StoreMemory, Timezone: time.UTC}

	stores, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer stores.Close(context.Background())

	u, err := stores.Users.Get(context.Background(), "consultant-1")
	if err != nil {
		t.Fatalf("expected demo consultant, got %v", err)
	}
	if u.FullName == "" {
		t.Fatalf("expected demo user to carry a name")
	}
	if stores.Appointments == nil || stores.Reviews == nil {
		t.Fatalf("expected repositories to be wired")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), &config.Config{StoreDriver: "sqlite"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
