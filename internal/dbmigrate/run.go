package dbmigrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/fdg312/diet-planner/migrations"
)

// Run applies a goose command. An empty migrationsDir uses the SQL files embedded in the binary.
func Run(command string, dbURL string, migrationsDir string) error {
	return RunContext(context.Background(), command, dbURL, migrationsDir)
}

func RunContext(ctx context.Context, command string, dbURL string, migrationsDir string) error {
	if dbURL == "" {
		return fmt.Errorf("database URL is empty")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	dir, source := resolveSource(migrationsDir)
	goose.SetBaseFS(source)
	defer goose.SetBaseFS(nil)

	if err := goose.RunContext(ctx, command, db, dir); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	return nil
}

// resolveSource returns the directory and filesystem goose should read from.
// A nil filesystem means the OS filesystem.
func resolveSource(migrationsDir string) (string, fs.FS) {
	if migrationsDir == "" || migrationsDir == EmbeddedMigrationsDir {
		return ".", migrations.FS
	}
	return migrationsDir, nil
}
