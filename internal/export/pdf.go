package export

import (
	"fmt"
	"io"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/reporting"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMarginL = 15.0
	pdfMarginR = 15.0
	pdfRowH    = 6.5
)

var (
	pdfPrimary = [3]int{30, 64, 124}
	pdfMuted   = [3]int{110, 110, 110}
	pdfStripe  = [3]int{243, 246, 250}
)

// PDFOptions controls the revenue report header
type PDFOptions struct {
	Title       string
	CompanyName string
	GeneratedAt time.Time
}

// WritePDF renders the revenue report as an A4 document
func WritePDF(w io.Writer, report domain.RevenueReport, opts PDFOptions) error {
	if opts.Title == "" {
		opts.Title = "Report Fatturato"
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - pdfMarginL - pdfMarginR

	pdf.SetTitle(opts.Title, true)
	pdf.SetMargins(pdfMarginL, 15, pdfMarginR)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "", 7)
		setText(pdf, pdfMuted)
		pdf.CellFormat(contentW/2, 6, tr(opts.CompanyName), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW/2, 6, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	setText(pdf, pdfPrimary)
	pdf.CellFormat(contentW, 10, tr(fmt.Sprintf("%s %d", opts.Title, report.Year)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	setText(pdf, pdfMuted)
	pdf.CellFormat(contentW, 5, tr("Generato il "+opts.GeneratedAt.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	kpiRows := [][][2]string{
		{
			{"Fatturato totale", reporting.FormatEuro(report.TotalRevenue)},
			{"Fatturato mese corrente", reporting.FormatEuro(report.CurrentMonthRevenue)},
			{"Trattative vinte", fmt.Sprintf("%d", report.WonDeals)},
		},
		{
			{"Tasso di conversione", fmt.Sprintf("%d%%", report.ConversionRate)},
			{"Valore medio trattativa", reporting.FormatEuro(report.AverageDealValue)},
			{"Attività questo mese", fmt.Sprintf("%d", report.ActivitiesThisMonth)},
		},
	}
	for _, kpis := range kpiRows {
		boxW := contentW / float64(len(kpis))
		y := pdf.GetY()
		for i, kpi := range kpis {
			x := pdfMarginL + float64(i)*boxW
			setFill(pdf, pdfStripe)
			pdf.Rect(x+1, y, boxW-2, 16, "F")
			pdf.SetXY(x+3, y+2)
			pdf.SetFont("Helvetica", "", 8)
			setText(pdf, pdfMuted)
			pdf.CellFormat(boxW-6, 4, tr(kpi[0]), "", 2, "L", false, 0, "")
			pdf.SetFont("Helvetica", "B", 13)
			setText(pdf, pdfPrimary)
			pdf.CellFormat(boxW-6, 8, tr(kpi[1]), "", 0, "L", false, 0, "")
		}
		pdf.SetXY(pdfMarginL, y+18)
	}
	pdf.Ln(2)

	quarterly := make([][]string, 0, len(report.QuarterlyRevenue))
	for _, q := range report.QuarterlyRevenue {
		quarterly = append(quarterly, []string{q.Label, fmt.Sprintf("%d", q.DealsCount), reporting.FormatEuro(q.Revenue)})
	}
	table(pdf, tr, contentW, "Fatturato per trimestre",
		[]string{"Trimestre", "Trattative", "Fatturato"}, []float64{0.4, 0.25, 0.35}, quarterly)

	trend := make([][]string, 0, len(report.MonthlyTrend))
	for _, m := range report.MonthlyTrend {
		trend = append(trend, []string{m.Label, fmt.Sprintf("%d", m.DealsCount), reporting.FormatEuro(m.Revenue)})
	}
	table(pdf, tr, contentW, "Andamento mensile",
		[]string{"Mese", "Trattative", "Fatturato"}, []float64{0.4, 0.25, 0.35}, trend)

	byClient := make([][]string, 0, len(report.RevenueByClient))
	for _, c := range report.RevenueByClient {
		byClient = append(byClient, []string{c.CompanyName, fmt.Sprintf("%d", c.DealsCount), reporting.FormatEuro(c.Revenue), reporting.FormatEuro(c.AverageDeal)})
	}
	table(pdf, tr, contentW, "Fatturato per cliente",
		[]string{"Cliente", "Vinte", "Fatturato", "Medio"}, []float64{0.4, 0.14, 0.23, 0.23}, byClient)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func table(pdf *gofpdf.Fpdf, tr func(string) string, width float64, title string, headers []string, ratios []float64, rows [][]string) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 12)
	setText(pdf, pdfPrimary)
	pdf.CellFormat(width, 8, tr(title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	setFill(pdf, pdfPrimary)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(width*ratios[i], pdfRowH, tr(h), "", 0, align(i), true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	setText(pdf, [3]int{40, 40, 40})
	if len(rows) == 0 {
		pdf.CellFormat(width, pdfRowH, "Nessun dato", "", 1, "L", false, 0, "")
		return
	}
	setFill(pdf, pdfStripe)
	for r, row := range rows {
		for i, cell := range row {
			pdf.CellFormat(width*ratios[i], pdfRowH, tr(cell), "", 0, align(i), r%2 == 1, 0, "")
		}
		pdf.Ln(-1)
	}
}

func align(col int) string {
	if col == 0 {
		return "L"
	}
	return "R"
}

func setFill(pdf *gofpdf.Fpdf, c [3]int) { pdf.SetFillColor(c[0], c[1], c[2]) }
func setText(pdf *gofpdf.Fpdf, c [3]int) { pdf.SetTextColor(c[0], c[1], c[2]) }
