package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"

	"github.com/fdg312/diet-planner/internal/config"
	"github.com/fdg312/diet-planner/internal/dbmigrate"
	"github.com/fdg312/diet-planner/internal/httpserver"
	"github.com/fdg312/diet-planner/internal/logging"
)

func main() {
	cfg := config.Load()

	logging.Setup(logging.SetupParams{
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormat == "json",
	})

	printStartupBanner(cfg)

	if err := validateProductionConfig(cfg); err != nil {
		log.Fatalf("FATAL config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrationsOnStartup {
		dbURL, source, _, err := dbmigrate.SelectDatabaseURL(cfg, true)
		if err != nil {
			log.Fatalf("FATAL startup migrations: %v", err)
		}

		log.WithField("using", source).Info("startup migrations: up")
		if err := dbmigrate.RunContext(ctx, "up", dbURL, dbmigrate.DefaultMigrationsDir); err != nil {
			log.Fatalf("FATAL startup migrations failed: %v", err)
		}
		log.Info("startup migrations: completed")
	}

	server, err := httpserver.New(ctx, cfg, log.StandardLogger())
	if err != nil {
		log.Fatalf("FATAL server init: %v", err)
	}
	defer server.Close()

	if err := server.Start(ctx); err != nil {
		log.Errorf("server stopped: %v", err)
	}
}

// printStartupBanner logs a one-time summary of the resolved configuration.
// Secrets are only reported as "set" / "not set".
func printStartupBanner(cfg *config.Config) {
	log.WithFields(log.Fields{
		"env":        cfg.Env,
		"port":       cfg.Port,
		"log_level":  cfg.LogLevel,
		"log_format": cfg.LogFormat,
	}).Info("diet planner api")

	log.WithFields(log.Fields{
		"runtime_url":           describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled),
		"pooled":                setOrNot(cfg.DatabaseURLPooled),
		"direct":                setOrNot(cfg.DatabaseURLDirect),
		"sqlite_path":           nonEmptyOrDash(cfg.SQLitePath),
		"migrations_on_startup": cfg.RunMigrationsOnStartup,
	}).Info("database")

	log.WithFields(log.Fields{
		"catalog_path":      nonEmptyOrDash(cfg.CatalogPath),
		"calc_max_entries":  cfg.CalculatorMaxEntries,
		"calc_max_quantity": cfg.CalculatorMaxQuantityG,
	}).Info("catalog")

	log.WithFields(log.Fields{
		"auth_mode":     cfg.AuthMode,
		"auth_required": cfg.AuthRequired,
		"jwt_secret":    secretStatus(cfg.JWTSecret, config.DevJWTSecret),
	}).Info("auth")

	blobFields := log.Fields{
		"blob_mode":    cfg.Blob.Mode,
		"exports_mode": displayExportsMode(cfg),
		"effective":    cfg.Blob.EffectiveExportsMode(),
		"list_limit":   cfg.ExportsListLimit,
	}
	if cfg.Blob.EffectiveExportsMode() != config.BlobModeLocal {
		blobFields["s3"] = cfg.Blob.S3.DiagnosticsSummary()
	}
	log.WithFields(blobFields).Info("exports")

	log.WithFields(log.Fields{
		"metrics":    cfg.MetricsEnabled,
		"rate_rps":   cfg.RateLimitRPS,
		"rate_burst": cfg.RateLimitBurst,
		"cors":       strings.Join(cfg.CORSAllowedOrigins, ","),
	}).Info("http")
}

// validateProductionConfig performs checks that only matter outside local envs,
// plus the S3 hard mode which fails everywhere.
func validateProductionConfig(cfg *config.Config) error {
	isProd := cfg.Env == "production" || cfg.Env == "prod" || cfg.Env == "staging"

	if cfg.Blob.EffectiveExportsMode() == config.BlobModeS3 {
		if missing := cfg.Blob.S3.MissingRequired(); len(missing) > 0 {
			return fmt.Errorf("EXPORTS_MODE is 's3' but S3 config is incomplete, missing: %s", strings.Join(missing, ", "))
		}
	}

	if isProd && cfg.AuthMode == config.AuthModeDev {
		return fmt.Errorf("AUTH_MODE=dev is not allowed in %s", cfg.Env)
	}
	if isProd && cfg.JWTSecret == config.DevJWTSecret {
		return fmt.Errorf("JWT_SECRET must not be the dev default in %s", cfg.Env)
	}

	if isProd && cfg.DatabaseURL == "" && cfg.SQLitePath == "" {
		return fmt.Errorf("no DATABASE_URL or SQLITE_PATH configured in %s", cfg.Env)
	}
	return nil
}

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func nonEmptyOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func secretStatus(v, insecureDefault string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "not set"
	}
	if v == insecureDefault {
		return "set (insecure dev default)"
	}
	return "set (custom)"
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}

func displayExportsMode(cfg *config.Config) string {
	if cfg.Blob.ExportsModeSet {
		return cfg.Blob.ExportsMode
	}
	return fmt.Sprintf("(inherits BLOB_MODE=%s)", cfg.Blob.Mode)
}
