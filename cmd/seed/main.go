package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"consult-backend/internal/auth"
	"consult-backend/internal/config"
	"consult-backend/internal/db"
	"consult-backend/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.StoreDriver == config.StoreMemory {
		log.Println("seed: memory store is seeded at startup, nothing to do")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	stores, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer stores.Close(context.Background())

	now := time.Now().In(cfg.Timezone)
	seeded := users.DemoUsers()
	for _, u := range seeded {
		u.CreatedAt = now
		if err := stores.Users.Upsert(ctx, u); err != nil {
			log.Fatalf("seed user error for %s: %v", u.ID, err)
		}
	}
	log.Printf("seed: %d users upserted into %s", len(seeded), stores.Driver)

	if cfg.JWTSecret == "" {
		log.Println("seed: JWT_SECRET missing, skipping demo tokens")
		return
	}
	manager := &auth.Manager{
		Secret:    []byte(cfg.JWTSecret),
		AccessTTL: time.Duration(cfg.AccessTTLMinutes) * time.Minute,
		Issuer:    "consult-backend",
	}
	for _, u := range seeded {
		token, err := manager.NewAccessToken(u.ID, u.Roles)
		if err != nil {
			log.Fatalf("token error for %s: %v", u.ID, err)
		}
		fmt.Printf("%-14s %s\n", u.ID, token)
	}

	log.Println("seed completed")
}
