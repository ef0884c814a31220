package blob

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	appcfg "github.com/fdg312/diet-planner/internal/config"
)

// NewBlobStore builds the exports blob store using mode local|s3|auto.
// Local mode returns a nil Store: exports are then kept in the database.
func NewBlobStore(ctx context.Context, cfg appcfg.BlobConfig, logger logrus.FieldLogger) (Store, string, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger = logger.WithField("component", "blob")

	mode := strings.ToLower(strings.TrimSpace(cfg.EffectiveExportsMode()))
	if mode == "" {
		mode = appcfg.BlobModeLocal
	}

	switch mode {
	case appcfg.BlobModeLocal:
		logger.WithField("mode", "local").Info("blob store disabled (forced)")
		return nil, appcfg.BlobModeLocal, nil

	case appcfg.BlobModeAuto:
		if !cfg.S3.IsConfigured() {
			level, code, msg := cfg.S3.Diagnostics()
			entry := logger.WithFields(logrus.Fields{"code": code, "s3": cfg.S3.DiagnosticsSummary()})
			if level == "WARN" {
				entry.Warn(msg)
			} else {
				entry.Info(msg)
			}
			logger.WithField("mode", "local").Info("blob store disabled (auto, S3 not configured)")
			return nil, appcfg.BlobModeLocal, nil
		}

		store, err := newS3FromConfig(ctx, cfg.S3, logger)
		if err != nil {
			logger.WithError(err).Warn("S3 init failed, fallback to local")
			return nil, appcfg.BlobModeLocal, nil
		}

		logger.WithField("mode", "s3").Info("blob store ready (auto, configured)")
		return store, appcfg.BlobModeS3, nil

	case appcfg.BlobModeS3:
		if !cfg.S3.IsConfigured() {
			missing := cfg.S3.MissingRequired()
			logger.WithFields(logrus.Fields{
				"code":    "s3_config_incomplete",
				"missing": missing,
				"s3":      cfg.S3.DiagnosticsSummary(),
			}).Error("S3 requested but not configured")
			return nil, "", fmt.Errorf("BLOB_MODE=s3 requested but missing required config: %s", strings.Join(missing, ", "))
		}

		store, err := newS3FromConfig(ctx, cfg.S3, logger)
		if err != nil {
			return nil, "", fmt.Errorf("BLOB_MODE=s3 init failed: %w", err)
		}

		logger.WithField("mode", "s3").Info("blob store ready (forced)")
		return store, appcfg.BlobModeS3, nil

	default:
		return nil, "", fmt.Errorf("unsupported blob mode: %s", mode)
	}
}

func newS3FromConfig(ctx context.Context, s3cfg appcfg.S3Config, logger logrus.FieldLogger) (*S3Store, error) {
	logger.WithFields(logrus.Fields{"code": "s3_ready", "s3": s3cfg.DiagnosticsSummary()}).Info("initializing S3 client")
	return NewS3Store(ctx, s3cfg.Endpoint, s3cfg.Region, s3cfg.Bucket, s3cfg.AccessKeyID, s3cfg.SecretAccessKey)
}
