package exports

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fdg312/diet-planner/internal/blob"
	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/metrics"
	"github.com/fdg312/diet-planner/internal/planner"
	"github.com/fdg312/diet-planner/internal/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PlanSource resolves a user's saved selection. *plans.Service implements it.
type PlanSource interface {
	Selection(ctx context.Context, ownerUserID, catalogID string) (*catalog.Catalog, planner.SelectionSet, error)
}

type Options struct {
	PresignTTLSeconds int
	PublicBaseURL     string
	PreferPublicURL   bool
	ListLimit         int
}

// Service renders plan exports and keeps them either in the database (local mode)
// or in object storage.
type Service struct {
	exportsStorage storage.ExportsStorage
	plans          PlanSource
	blobStore      blob.Store
	opts           Options
	metrics        *metrics.Manager
	logger         logrus.FieldLogger
	localMode      bool
	now            func() time.Time
}

func NewService(
	exportsStorage storage.ExportsStorage,
	plans PlanSource,
	blobStore blob.Store,
	opts Options,
	m *metrics.Manager,
	logger logrus.FieldLogger,
) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.PresignTTLSeconds <= 0 {
		opts.PresignTTLSeconds = 900
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = 50
	}
	return &Service{
		exportsStorage: exportsStorage,
		plans:          plans,
		blobStore:      blobStore,
		opts:           opts,
		metrics:        m,
		logger:         logger.WithField("component", "exports"),
		localMode:      blobStore == nil,
		now:            time.Now,
	}
}

// LocalMode reports whether files are kept in the database instead of object storage.
func (s *Service) LocalMode() bool {
	return s.localMode
}

// Render builds the file for the owner's current selection without storing it.
func (s *Service) Render(ctx context.Context, ownerUserID, catalogID, format string) ([]byte, *catalog.Catalog, error) {
	format = normalizeFormat(format)
	if !validFormat(format) {
		return nil, nil, ErrInvalidFormat
	}

	c, sel, err := s.plans.Selection(ctx, ownerUserID, catalogID)
	if err != nil {
		return nil, nil, err
	}

	data, err := Render(format, BuildDocument(c, sel, s.now()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to render export: %w", err)
	}
	return data, c, nil
}

// Create renders the export and stores it.
func (s *Service) Create(ctx context.Context, ownerUserID string, req CreateExportRequest) (*storage.ExportRecord, error) {
	format := normalizeFormat(req.Format)
	data, c, err := s.Render(ctx, ownerUserID, req.CatalogID, format)
	if err != nil {
		return nil, err
	}

	rec := &storage.ExportRecord{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		CatalogID:   c.ID,
		Format:      format,
		SizeBytes:   int64(len(data)),
	}

	destination := "local"
	if s.localMode {
		rec.Data = data
	} else {
		objectKey := fmt.Sprintf("exports/%s/%s.%s", url.PathEscape(ownerUserID), rec.ID.String(), format)
		if _, err := s.blobStore.PutObject(ctx, objectKey, data, contentType(format)); err != nil {
			return nil, fmt.Errorf("failed to upload export: %w", err)
		}
		rec.ObjectKey = &objectKey
		destination = "s3"
	}

	if err := s.exportsStorage.CreateExport(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save export metadata: %w", err)
	}

	if s.metrics != nil {
		s.metrics.CounterExports.WithLabelValues(format, destination).Inc()
	}
	s.logger.WithFields(logrus.Fields{
		"export_id": rec.ID,
		"catalog":   rec.CatalogID,
		"format":    format,
		"bytes":     rec.SizeBytes,
	}).Debug("export created")

	return rec, nil
}

// Get returns the export if it belongs to the owner.
func (s *Service) Get(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.ExportRecord, error) {
	rec, err := s.exportsStorage.GetExport(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrExportNotFound
		}
		return nil, err
	}
	if rec.OwnerUserID != strings.TrimSpace(ownerUserID) {
		return nil, ErrExportNotFound
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, ownerUserID string, limit, offset int) ([]storage.ExportRecord, error) {
	if limit <= 0 || limit > s.opts.ListLimit {
		limit = s.opts.ListLimit
	}
	if offset < 0 {
		offset = 0
	}
	recs, err := s.exportsStorage.ListExports(ctx, ownerUserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	return recs, nil
}

func (s *Service) Delete(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	rec, err := s.Get(ctx, ownerUserID, id)
	if err != nil {
		return err
	}

	if !s.localMode && rec.ObjectKey != nil {
		if err := s.blobStore.DeleteObject(ctx, *rec.ObjectKey); err != nil {
			// metadata deletion still goes ahead
			s.logger.WithError(err).WithField("object_key", *rec.ObjectKey).Warn("failed to delete export object")
		}
	}

	if err := s.exportsStorage.DeleteExport(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrExportNotFound
		}
		return fmt.Errorf("failed to delete export metadata: %w", err)
	}
	return nil
}

// DownloadURL points at the API download endpoint in local mode, otherwise at object storage.
func (s *Service) DownloadURL(ctx context.Context, rec *storage.ExportRecord, baseURL string) (string, error) {
	if s.localMode {
		return fmt.Sprintf("%s/v1/exports/%s/download", strings.TrimSuffix(baseURL, "/"), rec.ID.String()), nil
	}
	if rec.ObjectKey == nil {
		return "", fmt.Errorf("object key is missing")
	}
	if s.opts.PreferPublicURL && s.opts.PublicBaseURL != "" {
		return strings.TrimSuffix(s.opts.PublicBaseURL, "/") + "/" + *rec.ObjectKey, nil
	}

	url, err := s.blobStore.PresignGet(ctx, *rec.ObjectKey, s.opts.PresignTTLSeconds)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}

// Data returns the file bytes and their content type.
func (s *Service) Data(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.ExportRecord, []byte, error) {
	rec, err := s.Get(ctx, ownerUserID, id)
	if err != nil {
		return nil, nil, err
	}
	if s.localMode || rec.ObjectKey == nil {
		return rec, rec.Data, nil
	}

	data, err := s.blobStore.GetObject(ctx, *rec.ObjectKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch export object: %w", err)
	}
	return rec, data, nil
}

func (s *Service) toDTO(ctx context.Context, rec *storage.ExportRecord, baseURL string) ExportDTO {
	url, err := s.DownloadURL(ctx, rec, baseURL)
	if err != nil {
		s.logger.WithError(err).WithField("export_id", rec.ID).Warn("failed to build download url")
	}
	return ExportDTO{
		ID:          rec.ID,
		CatalogID:   rec.CatalogID,
		Format:      rec.Format,
		DownloadURL: url,
		SizeBytes:   rec.SizeBytes,
		CreatedAt:   rec.CreatedAt,
	}
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return FormatPDF
	}
	return format
}
