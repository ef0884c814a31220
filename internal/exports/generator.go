package exports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/planner"
	"github.com/jung-kurt/gofpdf"
)

// BuildDocument resolves the selection against the catalog. Ids the catalog
// does not know are skipped, same as in totals.
func BuildDocument(c *catalog.Catalog, sel planner.SelectionSet, now time.Time) PlanDocument {
	doc := PlanDocument{
		CatalogID:   c.ID,
		CatalogName: c.Name,
		Kind:        c.Kind,
		GeneratedAt: now.UTC(),
		Rows:        []PlanRow{},
		Totals:      planner.ComputeTotals(sel, c).Rounded(),
	}
	for _, slot := range catalog.Slots {
		for _, id := range sel[slot] {
			meal, ok := c.Lookup(id)
			if !ok {
				continue
			}
			doc.Rows = append(doc.Rows, PlanRow{Slot: slot, Meal: meal})
		}
	}
	return doc
}

// Render encodes doc in the requested format.
func Render(format string, doc PlanDocument) ([]byte, error) {
	switch format {
	case FormatPDF:
		return renderPDF(doc)
	case FormatCSV:
		return renderCSV(doc)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, format)
	}
}

func renderCSV(doc PlanDocument) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"slot", "meal", "diet_type", "protein_g", "carbs_g", "fat_g", "calories"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range doc.Rows {
		record := []string{
			string(row.Slot),
			row.Meal.Name,
			string(row.Meal.DietType),
			formatGrams(row.Meal.ProteinG),
			formatGrams(row.Meal.CarbsG),
			formatGrams(row.Meal.FatG),
			formatGrams(row.Meal.Calories),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	total := []string{
		"total", "", "",
		formatGrams(doc.Totals.ProteinG),
		formatGrams(doc.Totals.CarbsG),
		formatGrams(doc.Totals.FatG),
		formatGrams(doc.Totals.Calories),
	}
	if err := w.Write(total); err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderPDF uses the built-in Helvetica so no font files are needed at runtime.
func renderPDF(doc PlanDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(doc.CatalogName+" diet plan", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(doc.CatalogName+" diet plan"))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s", doc.GeneratedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Protein: %s g", formatGrams(doc.Totals.ProteinG)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Calories: %s kcal", formatGrams(doc.Totals.Calories)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Carbs: %s g, fat: %s g", formatGrams(doc.Totals.CarbsG), formatGrams(doc.Totals.FatG)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(25, 6, "Slot", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Meal", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Diet", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Protein", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Carbs", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Fat", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Kcal", "1", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	if len(doc.Rows) == 0 {
		pdf.CellFormat(185, 6, "No meals selected", "1", 1, "C", false, 0, "")
	}
	for _, row := range doc.Rows {
		pdf.CellFormat(25, 6, string(row.Slot), "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, tr(row.Meal.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, string(row.Meal.DietType), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, formatGrams(row.Meal.ProteinG), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, formatGrams(row.Meal.CarbsG), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, formatGrams(row.Meal.FatG), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, formatGrams(row.Meal.Calories), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func formatGrams(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
