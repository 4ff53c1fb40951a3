// Package bootstrap builds the application graph from configuration.
package bootstrap

import (
	"context"
	"fmt"

	"retail-ops/internal/app"
	"retail-ops/internal/config"
	"retail-ops/internal/core"
	"retail-ops/internal/db"
	"retail-ops/internal/metrics"
	"retail-ops/internal/seed"
	"retail-ops/internal/store/memory"
	"retail-ops/internal/store/postgres"

	"go.uber.org/zap"
)

// OpenRepository returns the repository selected by STORE_DRIVER and a function
// releasing its resources.
func OpenRepository(ctx context.Context, cfg config.Config, log *zap.Logger) (core.Repository, func(), error) {
	switch cfg.Store.Driver {
	case "memory":
		repo := memory.New()
		if err := seed.Memory(ctx, repo); err != nil {
			return nil, nil, fmt.Errorf("failed to seed memory store: %w", err)
		}
		log.Info("using in-memory store with demo data")
		return repo, func() {}, nil
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("database connected")
		return postgres.New(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// NewApp wires the core services over repo.
func NewApp(repo core.Repository, cfg config.Config, log *zap.Logger, rec *metrics.Recorder) app.ApplicationService {
	ledger := core.NewLedgerService(repo)
	orders := core.NewOrderService(repo, ledger, core.OrderOptions{ReserveStock: cfg.Orders.ReserveStock})
	reporting := core.NewReportingService(repo, cfg.Stock.LowStockThreshold)
	return app.NewAppService(repo, ledger, orders, reporting, log, rec)
}
