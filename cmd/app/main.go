package main

import (
	"context"
	"fmt"
	"os"

	"retail-ops/internal/adapters/cli"
	"retail-ops/internal/bootstrap"
	"retail-ops/internal/config"
	"retail-ops/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Service logs go to stderr; command output goes to stdout.
	log := logger.Must(cfg.App.Env)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	repo, closeRepo, err := bootstrap.OpenRepository(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Unable to open store:", err)
		os.Exit(1)
	}
	defer closeRepo()

	svc := bootstrap.NewApp(repo, cfg, log, nil)
	if err := cli.Run(ctx, svc, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		closeRepo()
		os.Exit(1)
	}
}
