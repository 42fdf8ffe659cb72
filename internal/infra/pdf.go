package infra

// pdf.go: product sales report rendered with go-pdf/fpdf.
// Layout (A4 portrait):
//   - Product name, category and generation time
//   - Sales table (date, qty, unit price, revenue), newest first
//   - Bold totals: units sold and revenue
//
// The document is written straight to w; nothing touches the filesystem.

import (
	"fmt"
	"io"
	"time"

	"salescatalog/internal/dto"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const reportNameMax = 60

// RenderSalesReport writes the sales report of one product as a PDF to w.
func RenderSalesReport(w io.Writer, d *dto.ProductDetail, generatedAt time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(fmt.Sprintf("Sales report: product %d", d.ID), true)
	pdf.AddPage()

	// Core fonts are cp1252; descriptions are UTF-8.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	name := "Product"
	if d.Description != nil && *d.Description != "" {
		name = *d.Description
	}
	if r := []rune(name); len(r) > reportNameMax {
		name = string(r[:reportNameMax-1]) + "..."
	}
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tr(name), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	meta := fmt.Sprintf("Product #%d   Price %s", d.ID, d.SalePrice.StringFixed(2))
	if d.Category != nil && *d.Category != "" {
		meta += "   Category " + *d.Category
	}
	pdf.CellFormat(contentW, 5, tr(meta), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Generated "+generatedAt.UTC().Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Sales table ──────────────────────────────────────────────────────────
	col1 := contentW * 0.40 // date
	col2 := contentW * 0.15 // qty
	col3 := contentW * 0.20 // unit price
	col4 := contentW * 0.25 // revenue

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(col1, 7, "Date (UTC)", "B", 0, "L", true, 0, "")
	pdf.CellFormat(col2, 7, "Qty", "B", 0, "R", true, 0, "")
	pdf.CellFormat(col3, 7, "Unit price", "B", 0, "R", true, 0, "")
	pdf.CellFormat(col4, 7, "Revenue", "B", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	if len(d.Sales) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(contentW, 7, "No sales recorded.", "", 1, "L", false, 0, "")
	}
	for _, s := range d.Sales {
		revenue := s.SalePrice.Mul(decimal.NewFromInt(int64(s.SaleQty)))
		pdf.CellFormat(col1, 6, s.SaleDate.UTC().Format("2006-01-02 15:04"), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, fmt.Sprintf("%d", s.SaleQty), "", 0, "R", false, 0, "")
		pdf.CellFormat(col3, 6, s.SalePrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, revenue.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	y := pdf.GetY()
	pdf.Line(15, y, pageW-15, y)
	pdf.Ln(2)

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(col1+col2+col3, 6, "Units sold:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 6, fmt.Sprintf("%d", d.TotalSales), "", 1, "R", false, 0, "")
	pdf.CellFormat(col1+col2+col3, 6, "Total revenue:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 6, d.TotalRevenue.StringFixed(2), "", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: render report: %w", err)
	}
	return nil
}
