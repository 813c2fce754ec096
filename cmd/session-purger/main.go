package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	userjobs "github.com/Apurer/go-gin-marketplace/internal/domains/users/adapters/jobs"
	userpostgres "github.com/Apurer/go-gin-marketplace/internal/domains/users/adapters/persistence/postgres"
	platformpostgres "github.com/Apurer/go-gin-marketplace/internal/platform/postgres"
)

func main() {
	_ = godotenv.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectOptional(ctx, os.Getenv("POSTGRES_DSN"), logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot purge sessions")
	}

	removed, err := userjobs.NewSessionPurgeJob(userpostgres.NewSessionStore(db), logger).PurgeOnce(ctx)
	if err != nil {
		log.Fatalf("failed to purge sessions: %v", err)
	}
	logger.Info("session purge completed", slog.Int64("removed", removed))
}
