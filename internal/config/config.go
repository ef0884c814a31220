package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	BlobModeLocal = "local"
	BlobModeS3    = "s3"
	BlobModeAuto  = "auto"
)

type S3Config struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKeyID       string
	SecretAccessKey   string
	PublicBaseURL     string
	PresignTTLSeconds int
	PreferPublicURL   bool
}

// required lists the S3 settings exports need, keyed by env name, in reporting order.
func (c S3Config) required() [][2]string {
	return [][2]string{
		{"S3_ENDPOINT", c.Endpoint},
		{"S3_REGION", c.Region},
		{"S3_BUCKET", c.Bucket},
		{"S3_ACCESS_KEY_ID", c.AccessKeyID},
		{"S3_SECRET_ACCESS_KEY", c.SecretAccessKey},
		{"S3_PUBLIC_BASE_URL", c.PublicBaseURL},
	}
}

// MissingRequired returns env names of the unset S3 settings.
func (c S3Config) MissingRequired() []string {
	var missing []string
	for _, kv := range c.required() {
		if strings.TrimSpace(kv[1]) == "" {
			missing = append(missing, kv[0])
		}
	}
	return missing
}

func (c S3Config) IsConfigured() bool {
	return len(c.MissingRequired()) == 0
}

// Diagnostics classifies the S3 config for the startup log.
func (c S3Config) Diagnostics() (level string, code string, msg string) {
	missing := c.MissingRequired()
	switch len(missing) {
	case 0:
		return "INFO", "s3_ready", "ready"
	case len(c.required()):
		return "INFO", "s3_not_configured", "not configured (all empty)"
	default:
		return "WARN", "s3_partial_config", fmt.Sprintf("partial config, missing=%v", missing)
	}
}

// DiagnosticsSummary renders the S3 config for logs; credentials only as set/not set.
func (c S3Config) DiagnosticsSummary() string {
	parts := []string{
		"endpoint=" + nonEmptyOrDash(c.Endpoint),
		"region=" + nonEmptyOrDash(c.Region),
		"bucket=" + nonEmptyOrDash(c.Bucket),
		"public_base_url=" + nonEmptyOrDash(c.PublicBaseURL),
		fmt.Sprintf("presign_ttl=%ds", c.PresignTTLSeconds),
		fmt.Sprintf("prefer_public_url=%t", c.PreferPublicURL),
		"access_key_id=" + setOrNotSet(c.AccessKeyID),
		"secret_access_key=" + setOrNotSet(c.SecretAccessKey),
	}
	return strings.Join(parts, " ")
}

func setOrNotSet(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func nonEmptyOrDash(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return "-"
	}
	return v
}

type BlobConfig struct {
	Mode           string // local|s3|auto
	ExportsMode    string // local|s3|auto (override)
	ExportsModeSet bool
	S3             S3Config
}

func (c BlobConfig) EffectiveExportsMode() string {
	if c.ExportsModeSet {
		return c.ExportsMode
	}
	return c.Mode
}

// Config содержит конфигурацию приложения
type Config struct {
	Env       string // local | staging | prod
	Port      int
	LogLevel  string
	LogFormat string // text | json

	// Database
	DatabaseURL       string // runtime connection (resolved: pooled > url > direct)
	DatabaseURLRaw    string // DATABASE_URL as provided
	DatabaseURLPooled string // DATABASE_URL_POOLED as provided
	DatabaseURLDirect string // for migrations / DDL (may be empty)
	SQLitePath        string // single-node file storage when no DATABASE_URL

	// Catalog
	CatalogPath string // TOML file overriding the embedded catalogs

	// CORS
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	// Rate Limiting
	RateLimitRPS   int
	RateLimitBurst int

	// Blob storage for exports
	Blob BlobConfig

	// Exports
	ExportsListLimit int

	// Calculator
	CalculatorMaxEntries   int
	CalculatorMaxQuantityG float64

	// Authentication
	AuthMode      string // none | dev
	AuthRequired  bool
	JWTSecret     string
	JWTIssuer     string
	JWTTTLMinutes int

	// Metrics
	MetricsEnabled bool

	// Migrations
	RunMigrationsOnStartup bool
}

const (
	AuthModeNone = "none"
	AuthModeDev  = "dev"

	// DevJWTSecret is used in dev auth mode when JWT_SECRET is empty.
	DevJWTSecret = "dev-secret-change-me"
)

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	// APP_ENV (fallback to ENV for backward compat, default: local)
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = os.Getenv("ENV")
	}
	if env == "" {
		env = "local"
	}

	// LOG_LEVEL (default: info), LOG_FORMAT (default: text)
	logLevel := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if logFormat != "json" {
		logFormat = "text"
	}

	// ---------- Database ----------
	// Priority: DATABASE_URL_POOLED > DATABASE_URL > DATABASE_URL_DIRECT
	dbPooled := strings.TrimSpace(os.Getenv("DATABASE_URL_POOLED"))
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	dbDirect := strings.TrimSpace(os.Getenv("DATABASE_URL_DIRECT"))

	runtimeDB := dbPooled
	if runtimeDB == "" {
		runtimeDB = dbURL
	}
	if runtimeDB == "" {
		runtimeDB = dbDirect
	}

	sqlitePath := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	catalogPath := strings.TrimSpace(os.Getenv("CATALOG_PATH"))

	// ---------- Migrations ----------
	runMigrationsOnStartup := parseBoolEnv("RUN_MIGRATIONS_ON_STARTUP")

	// ---------- CORS ----------
	corsOrigins := parseCORSOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"), env)
	corsAllowCreds := os.Getenv("CORS_ALLOW_CREDENTIALS") == "1"

	// ---------- Rate Limiting ----------
	rateLimitRPS := envInt("RATE_LIMIT_RPS", 0)
	rateLimitBurst := envInt("RATE_LIMIT_BURST", 0)

	// ---------- Blob / S3 ----------
	blobMode := parseBlobMode("BLOB_MODE", BlobModeLocal)
	exportsModeRaw := strings.ToLower(strings.TrimSpace(os.Getenv("EXPORTS_MODE")))
	exportsModeSet := exportsModeRaw != ""
	exportsMode := exportsModeRaw
	if exportsMode == "" {
		exportsMode = BlobModeLocal
	}
	if exportsMode != BlobModeLocal && exportsMode != BlobModeS3 && exportsMode != BlobModeAuto {
		log.Warnf("unknown EXPORTS_MODE=%q, fallback to %s", exportsMode, BlobModeLocal)
		exportsMode = BlobModeLocal
	}

	// S3_PRESIGN_TTL_SECONDS (default: 900, enforce > 0)
	s3PresignTTL := envInt("S3_PRESIGN_TTL_SECONDS", 900)
	if s3PresignTTL <= 0 {
		s3PresignTTL = 900
	}

	s3Cfg := S3Config{
		Endpoint:          strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		Region:            strings.TrimSpace(os.Getenv("S3_REGION")),
		Bucket:            strings.TrimSpace(os.Getenv("S3_BUCKET")),
		AccessKeyID:       strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
		SecretAccessKey:   strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
		PublicBaseURL:     strings.TrimSpace(os.Getenv("S3_PUBLIC_BASE_URL")),
		PresignTTLSeconds: s3PresignTTL,
		PreferPublicURL:   parseBoolEnv("S3_PREFER_PUBLIC_URL"),
	}

	blobCfg := BlobConfig{
		Mode:           blobMode,
		ExportsMode:    exportsMode,
		ExportsModeSet: exportsModeSet,
		S3:             s3Cfg,
	}

	// EXPORTS_LIST_LIMIT (default: 50)
	exportsListLimit := envInt("EXPORTS_LIST_LIMIT", 50)
	if exportsListLimit <= 0 {
		exportsListLimit = 50
	}

	// CALCULATOR_MAX_ENTRIES (default: 50), CALCULATOR_MAX_QUANTITY_G (default: 5000)
	calculatorMaxEntries := envInt("CALCULATOR_MAX_ENTRIES", 50)
	calculatorMaxQuantity := envFloat("CALCULATOR_MAX_QUANTITY_G", 5000)
	if calculatorMaxQuantity <= 0 {
		calculatorMaxQuantity = 5000
	}

	// ---------- Auth ----------
	authMode := strings.ToLower(strings.TrimSpace(os.Getenv("AUTH_MODE")))
	switch authMode {
	case "":
		authMode = AuthModeNone
	case AuthModeNone, AuthModeDev:
	default:
		log.Warnf("unknown AUTH_MODE=%q, fallback to %s", authMode, AuthModeNone)
		authMode = AuthModeNone
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" && authMode == AuthModeDev {
		jwtSecret = DevJWTSecret
		log.Warn("JWT_SECRET is empty, using insecure dev secret")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "diet-planner"
	}

	// METRICS_ENABLED (default: on)
	metricsEnabled := true
	if raw := strings.TrimSpace(os.Getenv("METRICS_ENABLED")); raw != "" {
		metricsEnabled = parseBoolEnv("METRICS_ENABLED")
	}

	return &Config{
		Env:       env,
		Port:      envInt("PORT", 8080),
		LogLevel:  logLevel,
		LogFormat: logFormat,

		DatabaseURL:       runtimeDB,
		DatabaseURLRaw:    dbURL,
		DatabaseURLPooled: dbPooled,
		DatabaseURLDirect: dbDirect,
		SQLitePath:        sqlitePath,

		CatalogPath: catalogPath,

		CORSAllowedOrigins:   corsOrigins,
		CORSAllowCredentials: corsAllowCreds,

		RateLimitRPS:   rateLimitRPS,
		RateLimitBurst: rateLimitBurst,

		Blob: blobCfg,

		ExportsListLimit: exportsListLimit,

		CalculatorMaxEntries:   calculatorMaxEntries,
		CalculatorMaxQuantityG: calculatorMaxQuantity,

		AuthMode:      authMode,
		AuthRequired:  parseBoolEnv("AUTH_REQUIRED"),
		JWTSecret:     jwtSecret,
		JWTIssuer:     jwtIssuer,
		JWTTTLMinutes: envInt("JWT_TTL_MINUTES", 60*24*30),

		MetricsEnabled: metricsEnabled,

		RunMigrationsOnStartup: runMigrationsOnStartup,
	}
}

// AuthEnabled reports whether bearer tokens are issued and checked.
func (c *Config) AuthEnabled() bool {
	return c.AuthMode != AuthModeNone
}

// parseCORSOrigins parses CORS_ALLOWED_ORIGINS env var.
// In local mode, defaults to localhost origins if empty.
func parseCORSOrigins(raw, env string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if env == "local" {
			return []string{"http://localhost:3000", "http://localhost:5173"}
		}
		return nil // prod: deny by default
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func parseBlobMode(key string, defaultVal string) string {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if mode == "" {
		return defaultVal
	}
	switch mode {
	case BlobModeLocal, BlobModeS3, BlobModeAuto:
		return mode
	default:
		log.Warnf("unknown %s=%q, fallback to %s", key, mode, defaultVal)
		return defaultVal
	}
}

// envInt reads an int env var with a default value.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return defaultVal
	}
	return v
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
