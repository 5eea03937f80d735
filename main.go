package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fintrack/cmd"
	"fintrack/config"
	"fintrack/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			if err := handleMigrationCommand(); err != nil {
				log.Fatal("Migration error: ", err)
			}
			return
		case "scan":
			if err := cmd.ScanOnce(signalContext()); err != nil {
				log.Fatal("Scan error: ", err)
			}
			return
		case "snapshot":
			if err := cmd.CaptureSnapshot(signalContext()); err != nil {
				log.Fatal("Snapshot error: ", err)
			}
			return
		}
	}

	if err := cmd.Run(signalContext()); err != nil {
		log.Fatal("Application error: ", err)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	return ctx
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: fintrack migrate [up|down|status] [args...]")
	}

	databaseURL := config.Get().GetDatabaseURL()

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp(databaseURL)
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(databaseURL, steps)
	case "status":
		return database.MigrateStatus(databaseURL)
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}
