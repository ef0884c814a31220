package main

import (
	"flag"
	"os"

	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"

	"github.com/fdg312/diet-planner/internal/config"
	"github.com/fdg312/diet-planner/internal/dbmigrate"
	"github.com/fdg312/diet-planner/internal/logging"
)

func main() {
	dir := flag.String("dir", dbmigrate.DefaultMigrationsDir, "migrations directory, or \"embed\" for the built-in set")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatalf("usage: go run ./cmd/migrate [-dir path] [up|status|down]")
	}

	command := flag.Arg(0)
	switch command {
	case "up", "status", "down":
	default:
		log.Fatalf("unsupported command %q (allowed: up, status, down)", command)
	}

	cfg := config.Load()
	logging.Setup(logging.SetupParams{LogLevel: cfg.LogLevel, LogFormatJSON: cfg.LogFormat == "json", Output: os.Stderr})

	dbURL, source, warning, err := dbmigrate.SelectDatabaseURL(cfg, false)
	if err != nil {
		log.Fatal(err)
	}

	if warning != "" {
		log.Warnf("migrate: %s", warning)
	}
	log.WithFields(log.Fields{"command": command, "using": source, "dir": *dir}).Info("migrate")

	if err := dbmigrate.Run(command, dbURL, *dir); err != nil {
		log.Fatal(err)
	}

	log.Infof("migrate: %s completed successfully", command)
}
