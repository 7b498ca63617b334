package infra

// pdf.go: kitchen ticket generation using go-pdf/fpdf.
// One narrow thermal-style page per order:
//   - order number, large, for the pass
//   - creation time
//   - one row per line item (quantity, name, kind)
//   - total
//
// The file is saved to storagePath/ticket_{day}_{number}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// KitchenTicketLine is one printed row.
type KitchenTicketLine struct {
	Name     string
	Kind     string
	Quantity int
}

// KitchenTicket is everything printed on the ticket. Day is the order's day key.
type KitchenTicket struct {
	OrderNumber string
	Day         string
	CreatedAt   time.Time
	Lines       []KitchenTicketLine
	Total       decimal.Decimal
}

// GenerateKitchenTicketPDF writes the ticket and returns the file path.
func GenerateKitchenTicketPDF(t KitchenTicket, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("ticket_%s_%s.pdf", t.Day, t.OrderNumber)
	filePath := filepath.Join(storagePath, fileName)

	// 80mm roll; height grows with the number of lines
	height := 60 + float64(len(t.Lines))*6
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: height},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, tr("Commande"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(contentW, 14, t.OrderNumber, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, t.CreatedAt.Format("02/01/2006  15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Lines ────────────────────────────────────────────────────────────────
	colQty := contentW * 0.15
	colName := contentW * 0.60
	colKind := contentW * 0.25

	pdf.SetFont("Helvetica", "B", 10)
	for _, l := range t.Lines {
		name := []rune(l.Name)
		if len(name) > 24 {
			name = append(name[:23], '.')
		}
		pdf.CellFormat(colQty, 6, fmt.Sprintf("%dx", l.Quantity), "", 0, "L", false, 0, "")
		pdf.CellFormat(colName, 6, tr(string(name)), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(colKind, 6, tr(l.Kind), "", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Total ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(colQty+colName, 6, "TOTAL", "", 0, "L", false, 0, "")
	pdf.CellFormat(colKind, 6, tr(t.Total.StringFixed(2)+" €"), "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
