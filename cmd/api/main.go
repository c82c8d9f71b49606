package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/riponahmed2201/taskmgr/internal/config"
	"github.com/riponahmed2201/taskmgr/internal/db"
	"github.com/riponahmed2201/taskmgr/internal/repo"
	"github.com/riponahmed2201/taskmgr/internal/scheduler"
)

func main() {

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	setupLogger(cfg.LogFormat)

	// Connect to database FIRST
	database, err := db.Connect(
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBUser,
		cfg.DBPass,
		cfg.DBMaxOpenConns,
		cfg.DBMaxIdleConns,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	slog.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	// Apply pending migrations
	if err := db.Run(cfg.DatabaseURL()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Background housekeeping (audit log retention)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scheduler.Run(ctx, repo.NewAuditRepo(database), cfg.AuditRetentionDays)

	r := newRouter(database, cfg)

	// Start server LAST
	addr := ":" + cfg.Port
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		slog.Info("starting server with TLS", "addr", addr)
		err = http.ListenAndServeTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile, r)
	} else {
		slog.Info("starting server", "addr", addr)
		err = http.ListenAndServe(addr, r)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// setupLogger installs the process-wide slog handler ("text" or "json").
func setupLogger(format string) {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}
