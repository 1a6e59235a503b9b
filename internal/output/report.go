package output

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/domain"
	"github.com/shopspring/decimal"
)

// Report is the export document: the inputs, the engine payload and run metadata.
type Report struct {
	Name    string               `json:"name,omitempty"`
	Inputs  domain.PlanRequest   `json:"inputs"`
	Payload *domain.PlanResponse `json:"payload"`
	Meta    Meta                 `json:"meta"`
}

// Meta records how a payload was produced.
type Meta struct {
	Timestamp time.Time `json:"ts"`
	Trials    int       `json:"trials"`
	Mean      float64   `json:"mean"`
	Stdev     float64   `json:"stdev"`
	Policy    string    `json:"policy"`
}

// NewReport wraps a payload for export.
func NewReport(req domain.PlanRequest, resp *domain.PlanResponse, market calculation.Market, now time.Time) *Report {
	trials := calculation.DefaultTrials
	if resp != nil && resp.SuccessTrials > 0 {
		trials = resp.SuccessTrials
	}
	return &Report{
		Inputs:  req,
		Payload: resp,
		Meta: Meta{
			Timestamp: now.UTC(),
			Trials:    trials,
			Mean:      market.Mean,
			Stdev:     market.Stdev,
			Policy:    Policy,
		},
	}
}

// Status compares a holding against the displayed need.
type Status string

const (
	StatusShort  Status = "Short"
	StatusEnough Status = "Enough"
	StatusExtra  Status = "Extra"
)

var (
	thousand = decimal.NewFromInt(1000)
	stepS    = decimal.NewFromInt(25000)
	stepM    = decimal.NewFromInt(50000)
	stepL    = decimal.NewFromInt(100000)
)

// RoundCash rounds a cash need up to the next $1,000.
func RoundCash(n float64) float64 {
	return ceilTo(decimal.NewFromFloat(n), thousand).InexactFloat64()
}

// RoundStocks rounds a stock need up to $25k steps under $500k, $50k steps up to $2M
// and $100k steps above.
func RoundStocks(n float64) float64 {
	d := decimal.NewFromFloat(n)
	switch {
	case n < 500000:
		return ceilTo(d, stepS).InexactFloat64()
	case n <= 2000000:
		return ceilTo(d, stepM).InexactFloat64()
	default:
		return ceilTo(d, stepL).InexactFloat64()
	}
}

func ceilTo(d, step decimal.Decimal) decimal.Decimal {
	return d.Div(step).Ceil().Mul(step)
}

// CashStatus grades starting cash against the rounded year-one need with a $1,000 band.
func CashStatus(startingCash, startCashNeeded float64) Status {
	need := RoundCash(startCashNeeded)
	switch {
	case startingCash < need-1000:
		return StatusShort
	case startingCash > need+1000:
		return StatusExtra
	default:
		return StatusEnough
	}
}

// StocksStatus grades starting stocks against the rounded stocks needed. The band is
// $25,000 once the need reaches $500,000 and $1,000 below that.
func StocksStatus(startingStocks, startStocksNeeded float64) Status {
	need := RoundStocks(startStocksNeeded)
	band := 1000.0
	if need >= 500000 {
		band = 25000
	}
	switch {
	case startingStocks < need-band:
		return StatusShort
	case startingStocks > need+band:
		return StatusExtra
	default:
		return StatusEnough
	}
}

// Summary is the headline view of a report shared by every formatter.
type Summary struct {
	StartCashNeeded   float64
	StartStocksNeeded float64
	Cash              Status
	Stocks            Status
	SuccessPct        float64
	FirstTrouble      string
	Banner            string
	Recommendations   []string
	Hints             Hints
}

// Summarize derives the headline figures from a report.
func Summarize(r *Report) Summary {
	p := r.Payload
	s := Summary{
		StartCashNeeded:   RoundCash(p.StartCashNeeded),
		StartStocksNeeded: RoundStocks(p.StartStocksNeeded),
		Cash:              CashStatus(p.StartingCash, p.StartCashNeeded),
		Stocks:            StocksStatus(p.StartingStocks, p.StartStocksNeeded),
		SuccessPct:        p.SuccessPct,
		FirstTrouble:      "None expected",
		Banner:            Banner(p),
		Recommendations:   Recommendations(p),
		Hints:             DeriveHints(r.Inputs, r.Meta.Timestamp.Year()),
	}
	if p.FirstTroubleYearAge != nil {
		s.FirstTrouble = fmt.Sprintf("Age %d", *p.FirstTroubleYearAge)
	}
	return s
}

// Banner is the one-line headline above the results.
func Banner(p *domain.PlanResponse) string {
	if !p.Feasible90 {
		return fmt.Sprintf("We can't reach a >=90%% success plan with the current Starting Cash and rules. "+
			"Max achievable success is %s. Try increasing Starting Cash, lowering yearly spending, or delaying retirement.",
			FormatPercent(p.MaxSuccessCap))
	}
	return "All amounts are in today's dollars (inflation-adjusted). We use real, after-inflation market returns."
}

// Recommendations lists the follow-up actions for an infeasible plan.
func Recommendations(p *domain.PlanResponse) []string {
	if p.Feasible90 {
		return []string{"No recommendations, plan looks feasible."}
	}
	if p.MinCashFor90 == nil {
		return []string{"Even with a full 10-year buffer, the >=90% standard is not reachable under current assumptions. " +
			"Consider lowering spending, delaying retirement, or relaxing the refill rule."}
	}
	recs := []string{"Minimum Starting Cash to reach >=90%: " + FormatMoney(*p.MinCashFor90)}
	if p.StocksNeededAtMinCash != nil {
		recs = append(recs, "Start Stocks Needed at that cash: "+FormatMoney(*p.StocksNeededAtMinCash))
	}
	return recs
}

// Hints are the calendar facts derived from the ages alone.
type Hints struct {
	YearsToRetirement int
	RetirementYear    int
	BenefitStartYear  int
}

// DeriveHints computes hints relative to the given calendar year.
func DeriveHints(req domain.PlanRequest, currentYear int) Hints {
	return Hints{
		YearsToRetirement: req.YearsToRetirement(),
		RetirementYear:    req.RetirementYear(currentYear),
		BenefitStartYear:  req.BenefitStartYear(currentYear),
	}
}

func (h Hints) String() string {
	return fmt.Sprintf("Retirement starts in %d year(s) (Year %d). Social Security starts in Year %d (when you turn %d).",
		h.YearsToRetirement, h.RetirementYear, h.BenefitStartYear, domain.BenefitStartAge)
}

// FormatCurrency formats a decimal as currency
func FormatCurrency(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// FormatPercentage formats a decimal as percentage
func FormatPercentage(amount decimal.Decimal) string {
	return amount.StringFixed(2) + "%"
}

// FormatMoney renders whole dollars with thousands separators, e.g. $1,234,567.
func FormatMoney(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "-"
	}
	s := decimal.NewFromFloat(n).Round(0).Abs().String()
	var b strings.Builder
	if n <= -0.5 {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// FormatPercent renders a percentage with one decimal.
func FormatPercent(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(1) + "%"
}

// WriteFormatted renders a report and writes it to a timestamped file in the working
// directory, returning the filename.
func WriteFormatted(f Formatter, r *Report, ext string) (string, error) {
	data, err := f.Format(r)
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("plan_report_%s.%s", time.Now().Format("20060102_150405"), ext)
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return filename, nil
}
