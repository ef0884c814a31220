package exports

import (
	"errors"
	"time"

	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/planner"
	"github.com/google/uuid"
)

const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
)

var (
	ErrInvalidFormat  = errors.New("invalid format")
	ErrExportNotFound = errors.New("export not found")
)

// CreateExportRequest is the body of POST /v1/exports
type CreateExportRequest struct {
	CatalogID string `json:"catalog_id"`
	Format    string `json:"format"`
}

// ExportDTO is the response representation of a stored export
type ExportDTO struct {
	ID          uuid.UUID `json:"id"`
	CatalogID   string    `json:"catalog_id"`
	Format      string    `json:"format"`
	DownloadURL string    `json:"download_url"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

type ExportsResponse struct {
	Exports []ExportDTO `json:"exports"`
}

// PlanDocument is what gets rendered: the selected meals of one catalog in slot order.
type PlanDocument struct {
	CatalogID   string
	CatalogName string
	Kind        catalog.Kind
	GeneratedAt time.Time
	Rows        []PlanRow
	Totals      planner.AggregateTotals
}

type PlanRow struct {
	Slot catalog.MealSlot
	Meal catalog.NutritionFact
}

func contentType(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}

func validFormat(format string) bool {
	return format == FormatPDF || format == FormatCSV
}
