// Command idlesim runs the idle-game simulation engine: it loads a save,
// opens the HTTP API, and advances the save's active action in real time
// until interrupted.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/idlecore/internal/api"
	"github.com/talgya/idlecore/internal/catalog"
	"github.com/talgya/idlecore/internal/config"
	"github.com/talgya/idlecore/internal/persistence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	slog.Info("idlecore starting", "save", cfg.SaveID, "seed", cfg.Seed, "dbPath", cfg.DBPath)

	reg, err := catalog.Load()
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded",
		"items", len(reg.Items), "actions", len(reg.Actions), "shop", len(reg.Shop))

	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	if cfg.AdminKey == "" {
		slog.Warn("IDLECORE_ADMIN_KEY not set — admin POST endpoints will be disabled")
	}

	server, err := api.NewServer(reg, db, cfg.SaveID, cfg.Seed, cfg.APIPort, cfg.AdminKey, cfg.MaxHP)
	if err != nil {
		slog.Error("failed to initialize server", "error", err)
		os.Exit(1)
	}
	server.Start()

	ctx, cancel := context.WithCancel(context.Background())
	go server.AutoAdvanceLoop(ctx, time.Second)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("idlecore is running: save %q, %s items cataloged, %s actions available.\n",
		cfg.SaveID, humanize.Comma(int64(len(reg.Items))), humanize.Comma(int64(len(reg.Actions))))
	fmt.Printf("API: http://localhost:%d/api/v1/state\n", cfg.APIPort)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)
	cancel()

	fmt.Println("Simulation stopped. Save persisted.")
}
