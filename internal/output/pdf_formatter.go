package output

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// PDFFormatter renders an A4 report: summary page followed by the baseline table.
type PDFFormatter struct{}

func (p PDFFormatter) Name() string { return "pdf" }

func (p PDFFormatter) Format(r *Report) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetCreationDate(r.Meta.Timestamp)
	pdf.SetModificationDate(r.Meta.Timestamp)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	s := Summarize(r)
	addSummaryPage(pdf, tr, r, s)
	addBaselinePages(pdf, tr, r)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func heading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(contentWidth, 8, text, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(50, 50, 50)
}

func labelValue(pdf *fpdf.Fpdf, label, value string) {
	pdf.CellFormat(60, 6, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(contentWidth-60, 6, value, "", 1, "L", false, 0, "")
}

func addSummaryPage(pdf *fpdf.Fpdf, tr func(string) string, r *Report, s Summary) {
	p := r.Payload
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.SetTextColor(0, 51, 102)
	title := "Cash Buffer Plan"
	if r.Name != "" {
		title += ": " + r.Name
	}
	pdf.CellFormat(contentWidth, 12, tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "I", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Generated %s", r.Meta.Timestamp.Format("2 January 2006")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	if p.Feasible90 {
		pdf.SetFillColor(240, 248, 255)
		pdf.SetTextColor(0, 51, 102)
	} else {
		pdf.SetFillColor(253, 232, 232)
		pdf.SetTextColor(155, 28, 28)
	}
	pdf.MultiCell(contentWidth, 5, tr(s.Banner), "1", "L", true)
	pdf.Ln(4)

	heading(pdf, "Inputs")
	in := r.Inputs
	labelValue(pdf, "Your age", fmt.Sprintf("%d", in.Age))
	labelValue(pdf, "Retirement age", fmt.Sprintf("%d (%d yrs; %d)", in.RetireAge, s.Hints.YearsToRetirement, s.Hints.RetirementYear))
	labelValue(pdf, "All-in spending", FormatMoney(in.Spend))
	labelValue(pdf, "SS at 70", FormatMoney(in.SS70)+"/yr")
	labelValue(pdf, "Starting cash", FormatMoney(in.StartCash))
	labelValue(pdf, "Starting stocks", FormatMoney(in.StartStocks))
	labelValue(pdf, "Initial cash coverage", fmt.Sprintf("%d year(s)", p.InitialCoveredYears))
	pdf.Ln(3)

	heading(pdf, "Results")
	labelValue(pdf, "Start cash needed (year 1)", FormatMoney(s.StartCashNeeded))
	labelValue(pdf, "Start stocks needed", FormatMoney(s.StartStocksNeeded))
	labelValue(pdf, "Starting cash status", string(s.Cash))
	labelValue(pdf, "Starting stocks status", string(s.Stocks))
	labelValue(pdf, "Chance of success", FormatPercent(p.SuccessPct))
	labelValue(pdf, "First trouble", s.FirstTrouble)
	if !p.Feasible90 {
		labelValue(pdf, "Max achievable success", FormatPercent(p.MaxSuccessCap))
	}
	pdf.Ln(3)

	heading(pdf, "Recommendations")
	for _, rec := range s.Recommendations {
		pdf.MultiCell(contentWidth, 5, tr("- "+rec), "", "L", false)
	}
	pdf.Ln(3)

	heading(pdf, "Assumptions")
	pdf.SetFont("Arial", "", 9)
	for _, a := range DefaultAssumptions {
		pdf.MultiCell(contentWidth, 4.5, tr("- "+a), "", "L", false)
	}
	pdf.MultiCell(contentWidth, 4.5, tr(fmt.Sprintf("- Policy: %s; %d trials; mean %s, stdev %s",
		r.Meta.Policy, r.Meta.Trials, FormatPercent(r.Meta.Mean*100), FormatPercent(r.Meta.Stdev*100))), "", "L", false)
}

var baselineColumns = []struct {
	title string
	width float64
}{
	{"Year", 14}, {"Age", 10}, {"Spend", 20}, {"SS", 18}, {"Cash Used", 20},
	{"Emergency", 20}, {"Recovery", 20}, {"Cash End", 20}, {"Stocks End", 24}, {"Ahead", 14},
}

func baselineHeader(pdf *fpdf.Fpdf) {
	pdf.SetFillColor(0, 51, 102)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 8)
	for _, c := range baselineColumns {
		pdf.CellFormat(c.width, 6, c.title, "", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 8)
	pdf.SetTextColor(50, 50, 50)
}

func addBaselinePages(pdf *fpdf.Fpdf, tr func(string) string, r *Report) {
	rows := r.Payload.BaselineRows
	pdf.AddPage()
	heading(pdf, "Baseline Path")
	if len(rows) == 0 {
		pdf.CellFormat(contentWidth, 6, tr("No retirement years before age 95."), "", 1, "L", false, 0, "")
		return
	}
	baselineHeader(pdf)
	for _, row := range rows {
		if pdf.GetY() > 265 {
			pdf.AddPage()
			baselineHeader(pdf)
		}
		switch {
		case row.Shortfall > 0:
			pdf.SetFillColor(253, 236, 236)
		case row.RefillAmount > 0:
			pdf.SetFillColor(240, 247, 255)
		default:
			pdf.SetFillColor(255, 255, 255)
		}
		cells := []string{
			fmt.Sprintf("%d", row.Year), fmt.Sprintf("%d", row.Age),
			FormatMoney(row.Spend), FormatMoney(row.Benefit), FormatMoney(row.CashUsed),
			dashIfZero(row.SoldEmergency), dashIfZero(row.SoldRecovery),
			FormatMoney(row.CashEnd), FormatMoney(row.StocksEnd), fmt.Sprintf("%d", row.FundedAhead),
		}
		for i, c := range baselineColumns {
			align := "R"
			if i < 2 {
				align = "C"
			}
			pdf.CellFormat(c.width, 5, tr(cells[i]), "B", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
	}
}
