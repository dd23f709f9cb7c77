package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"gnmapgrep/db"
	"gnmapgrep/internal/config"
	"gnmapgrep/internal/grep"
	"gnmapgrep/internal/history"
)

// Diagnostics go to stderr; stdout carries only host:port records so the
// output stays pipeable.
var (
	errorLogger = log.New(os.Stderr, "", log.LstdFlags)
	debugLogger = log.New(io.Discard, "", log.LstdFlags)
)

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		errorLogger.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Verbosity >= 1 {
		debugLogger.SetOutput(os.Stderr)
	}

	ctx := context.Background()

	var historyService *history.HistoryService
	if cfg.HistoryDBPath != "" {
		sqliteDB, err := db.ConnectToSQLite(cfg.HistoryDBPath)
		if err != nil {
			errorLogger.Fatalf("Failed to connect to SQLite: %v", err)
		}
		defer sqliteDB.Close()

		if err := db.InitializeSchema(sqliteDB); err != nil {
			errorLogger.Fatalf("Failed to initialize database schema: %v", err)
		}
		historyService = history.NewHistoryService(db.NewSQLiteRunRepository(sqliteDB))
	}

	if cfg.ShowHistory > 0 {
		runs, err := historyService.RecentRuns(ctx, cfg.ShowHistory)
		if err != nil {
			errorLogger.Fatalf("Failed to list run history: %v", err)
		}
		for _, run := range runs {
			fmt.Println(history.Summarize(run))
		}
		return
	}

	service := grep.NewGrepService(cfg, historyService, os.Stdout, debugLogger)
	count, err := service.Run(ctx)
	if err != nil {
		errorLogger.Fatalf("%v", err)
	}

	if count == 0 {
		errorLogger.Printf("Warning: no ports found for service substring %q in input file %q", cfg.ServiceSubstr, cfg.NmapOutPath)
		return
	}
	debugLogger.Printf("Parsed %d Host/Port records", count)
}
