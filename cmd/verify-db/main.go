// verify-db applies the embedded goose migrations and reports the schema version.
//
// Usage: go run ./cmd/verify-db [up|down|version]
package main

import (
	"context"
	"os"
	"time"

	"retail-ops/internal/config"
	"retail-ops/internal/db"
	"retail-ops/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.Must(cfg.App.Env)
	defer func() { _ = log.Sync() }()

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()

	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	pool, err := db.NewPool(connCtx, cfg.Database.URL)
	cancel()
	if err != nil {
		log.Fatal("[CONNECT] failed", zap.Error(err))
	}
	pool.Close()
	log.Info("[CONNECT] success")

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		if err := db.Migrate(ctx, cfg.Database.URL); err != nil {
			log.Fatal("[MIGRATE] failed", zap.Error(err))
		}
	case "down":
		if err := db.MigrateDown(ctx, cfg.Database.URL); err != nil {
			log.Fatal("[MIGRATE] rollback failed", zap.Error(err))
		}
	case "version":
	default:
		log.Fatal("unknown command (want up, down or version)", zap.String("command", cmd))
	}

	version, err := db.Version(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal("[VERSION] failed", zap.Error(err))
	}
	log.Info("[DONE] schema version", zap.Int64("version", version))
}
