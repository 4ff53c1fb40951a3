// restore-seed is a one-shot tool that loads the demo directory into the database
// and books opening stock through the ledger when the warehouses hold none.
// Run it after verify-db on a fresh database.
//
// Usage: go run ./cmd/restore-seed
package main

import (
	"context"

	"retail-ops/internal/config"
	"retail-ops/internal/core"
	"retail-ops/internal/db"
	"retail-ops/internal/logger"
	"retail-ops/internal/seed"
	"retail-ops/internal/store/postgres"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.Must(cfg.App.Env)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect", zap.Error(err))
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatal("Failed to begin transaction", zap.Error(err))
	}
	defer tx.Rollback(ctx)

	log.Info("Upserting warehouses...")
	for _, w := range seed.Warehouses {
		_, err = tx.Exec(ctx, `
			INSERT INTO warehouses (id, code, name, address, capacity, manager)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				code = EXCLUDED.code, name = EXCLUDED.name, address = EXCLUDED.address,
				capacity = EXCLUDED.capacity, manager = EXCLUDED.manager
		`, w.ID, w.Code, w.Name, w.Address, w.Capacity, w.Manager)
		if err != nil {
			log.Fatal("Failed to upsert warehouse", zap.String("code", w.Code), zap.Error(err))
		}
	}

	log.Info("Upserting stores...")
	for _, s := range seed.Stores {
		_, err = tx.Exec(ctx, `
			INSERT INTO stores (id, code, name, address, warehouse_id)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				code = EXCLUDED.code, name = EXCLUDED.name, address = EXCLUDED.address,
				warehouse_id = EXCLUDED.warehouse_id
		`, s.ID, s.Code, s.Name, s.Address, s.WarehouseID)
		if err != nil {
			log.Fatal("Failed to upsert store", zap.String("code", s.Code), zap.Error(err))
		}
	}

	log.Info("Upserting suppliers...")
	for _, s := range seed.Suppliers {
		_, err = tx.Exec(ctx, `
			INSERT INTO suppliers (id, name, contact)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, contact = EXCLUDED.contact
		`, s.ID, s.Name, s.Contact)
		if err != nil {
			log.Fatal("Failed to upsert supplier", zap.String("name", s.Name), zap.Error(err))
		}
	}

	log.Info("Advancing id sequences past seeded rows...")
	_, err = tx.Exec(ctx, `
		SELECT setval('warehouses_id_seq', (SELECT MAX(id) FROM warehouses));
		SELECT setval('stores_id_seq', (SELECT MAX(id) FROM stores));
		SELECT setval('suppliers_id_seq', (SELECT MAX(id) FROM suppliers));
	`)
	if err != nil {
		log.Fatal("Failed to advance sequences", zap.Error(err))
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatal("Failed to commit directory", zap.Error(err))
	}

	var records int64
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM stock_records").Scan(&records); err != nil {
		log.Fatal("Failed to count stock records", zap.Error(err))
	}
	if records > 0 {
		log.Info("Stock already present; skipping opening stock", zap.Int64("records", records))
		return
	}

	log.Info("Booking opening stock...")
	ledger := core.NewLedgerService(postgres.New(pool))
	if err := seed.BookOpeningStock(ctx, ledger, "restore-seed"); err != nil {
		log.Fatal("Failed to book opening stock", zap.Error(err))
	}
	log.Info("Seed restored.")
}
