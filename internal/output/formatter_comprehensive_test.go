package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func buildTestReport() *Report {
	req := domain.PlanRequest{Age: 52, RetireAge: 60, Spend: 180000, SS70: 60000, StartCash: 500000, StartStocks: 900000}
	resp := &domain.PlanResponse{
		Feasible90:          true,
		MaxSuccessCap:       99.9,
		StartCashNeeded:     180000,
		StartStocksNeeded:   5753918.24,
		StartingCash:        500000,
		StartingStocks:      900000,
		SuccessPct:          0.4,
		FirstTroubleYearAge: ptr(66),
		InitialCoveredYears: 2,
		SeriesYears:         []int{1, 2},
		Stocks:              domain.Bands{P10: []float64{723687.66, 600000}, P50: []float64{950000, 900000}, P90: []float64{1163754.14, 1250000}},
		Coverage:            domain.Bands{P10: []float64{1, 0}, P50: []float64{1, 1}, P90: []float64{2, 3}},
		BaselineRows: []domain.BaselineRow{
			{Year: 2034, Age: 60, Spend: 180000, CashUsed: 180000, CashEnd: 180000, StocksEnd: 1135513.80, FundedAhead: 1},
			{
				Year: 2035, Age: 61, Spend: 180000, CashUsed: 180000, SoldEmergency: 175026.76, RefillAmount: 175026.76,
				CashEnd: 175026.76, StocksEnd: 1348170.38, FundedAhead: 1,
				Debug: domain.RowDebug{Emergency: &domain.EmergencyTrace{PreSaleStocks: 1523197.14, SellNow: 40000, TargetYears: 2, Budget: 135026.76}},
			},
		},
		SuccessTrials: 1000,
		SolverTrials:  1000,
		SuccessSE:     0.2,
		SolverSE:      0.9,
	}
	r := NewReport(req, resp, calculation.DefaultMarket(), time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))
	r.Name = "reference"
	return r
}

func buildInfeasibleReport(withCash bool) *Report {
	r := buildTestReport()
	r.Payload.Feasible90 = false
	r.Payload.MaxSuccessCap = 42.5
	if withCash {
		r.Payload.MinCashFor90 = ptr(700000.0)
		r.Payload.StocksNeededAtMinCash = ptr(854.5)
	}
	return r
}

func TestFormatterFunc_Format(t *testing.T) {
	called := false
	var received *Report

	formatter := FormatterFunc{
		ID: "test-formatter",
		F: func(r *Report) ([]byte, error) {
			called = true
			received = r
			return []byte("test output"), nil
		},
	}

	report := buildTestReport()
	out, err := formatter.Format(report)

	assert.NoError(t, err)
	assert.True(t, called, "Should call the function")
	assert.Same(t, report, received, "Should pass the report")
	assert.Equal(t, []byte("test output"), out)
	assert.Equal(t, "test-formatter", formatter.Name())
}

func TestWriteFormatted(t *testing.T) {
	t.Chdir(t.TempDir())

	formatter := FormatterFunc{
		ID: "test-formatter",
		F:  func(r *Report) ([]byte, error) { return []byte("test output content"), nil },
	}

	filename, err := WriteFormatted(formatter, buildTestReport(), "txt")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "plan_report_"), "Should have correct prefix")
	assert.True(t, strings.HasSuffix(filename, ".txt"), "Should have correct extension")
	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "test output content", string(content))
}

func TestWriteFormatted_FormatterError(t *testing.T) {
	formatter := FormatterFunc{
		ID: "error-formatter",
		F:  func(r *Report) ([]byte, error) { return nil, fmt.Errorf("formatter error") },
	}

	filename, err := WriteFormatted(formatter, buildTestReport(), "txt")

	assert.Error(t, err)
	assert.Empty(t, filename, "Should return empty filename on error")
	assert.Contains(t, err.Error(), "formatter error")
}

func TestRoundCash(t *testing.T) {
	assert.Equal(t, 180000.0, RoundCash(180000))
	assert.Equal(t, 181000.0, RoundCash(180000.01))
	assert.Equal(t, 0.0, RoundCash(0))
}

func TestRoundStocks(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{276312.29, 300000},
		{475000, 475000},
		{500000, 500000},
		{563611.16, 600000},
		{2000000, 2000000},
		{2000001, 2100000},
		{5753918.24, 5800000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundStocks(tt.in), "RoundStocks(%.2f)", tt.in)
	}
}

func TestCashStatus(t *testing.T) {
	assert.Equal(t, StatusExtra, CashStatus(500000, 180000))
	assert.Equal(t, StatusEnough, CashStatus(180000, 180000))
	assert.Equal(t, StatusEnough, CashStatus(179500, 179200), "need displays as 180000")
	assert.Equal(t, StatusShort, CashStatus(178000, 180000))
}

func TestStocksStatus(t *testing.T) {
	assert.Equal(t, StatusShort, StocksStatus(900000, 5753918.24))
	assert.Equal(t, StatusEnough, StocksStatus(5800000, 5753918.24))
	assert.Equal(t, StatusEnough, StocksStatus(5825000, 5753918.24), "$25k band above $500k")
	assert.Equal(t, StatusExtra, StocksStatus(5830000, 5753918.24))

	assert.Equal(t, StatusEnough, StocksStatus(300500, 276312.29), "$1k band below $500k")
	assert.Equal(t, StatusExtra, StocksStatus(301001, 276312.29))
}

func TestRecommendations(t *testing.T) {
	assert.Equal(t, []string{"No recommendations, plan looks feasible."}, Recommendations(buildTestReport().Payload))

	none := Recommendations(buildInfeasibleReport(false).Payload)
	require.Len(t, none, 1)
	assert.Contains(t, none[0], "full 10-year buffer")

	recs := Recommendations(buildInfeasibleReport(true).Payload)
	assert.Equal(t, []string{
		"Minimum Starting Cash to reach >=90%: $700,000",
		"Start Stocks Needed at that cash: $855",
	}, recs)
}

func TestBanner(t *testing.T) {
	assert.Contains(t, Banner(buildTestReport().Payload), "today's dollars")
	assert.Contains(t, Banner(buildInfeasibleReport(false).Payload), "Max achievable success is 42.5%")
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$0", FormatMoney(0))
	assert.Equal(t, "$999", FormatMoney(999))
	assert.Equal(t, "$1,000", FormatMoney(1000))
	assert.Equal(t, "$1,234,567", FormatMoney(1234567.4))
	assert.Equal(t, "-$2,500", FormatMoney(-2500))
	assert.Equal(t, "91.0%", FormatPercent(91))
}

func TestDeriveHints(t *testing.T) {
	h := DeriveHints(domain.PlanRequest{Age: 52, RetireAge: 60}, 2026)

	assert.Equal(t, Hints{YearsToRetirement: 8, RetirementYear: 2034, BenefitStartYear: 2044}, h)
	assert.Equal(t, "Retirement starts in 8 year(s) (Year 2034). Social Security starts in Year 2044 (when you turn 70).", h.String())
}

func TestNewReport(t *testing.T) {
	local := time.Date(2026, time.March, 1, 7, 0, 0, 0, time.FixedZone("EST", -5*3600))
	r := NewReport(domain.PlanRequest{}, &domain.PlanResponse{SuccessTrials: 500}, calculation.Market{Mean: 0.04, Stdev: 0.2}, local)

	assert.Equal(t, 500, r.Meta.Trials)
	assert.Equal(t, 0.04, r.Meta.Mean)
	assert.Equal(t, 0.2, r.Meta.Stdev)
	assert.Equal(t, Policy, r.Meta.Policy)
	assert.Equal(t, time.UTC, r.Meta.Timestamp.Location())

	assert.Equal(t, calculation.DefaultTrials, NewReport(domain.PlanRequest{}, &domain.PlanResponse{}, calculation.DefaultMarket(), local).Meta.Trials)
}

func TestConsoleFormatter_Format(t *testing.T) {
	formatter := ConsoleFormatter{}
	assert.Equal(t, "console", formatter.Name())

	out, err := formatter.Format(buildTestReport())
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "CASH BUFFER & STOCK SUSTAINABILITY ANALYSIS")
	assert.Contains(t, content, "Plan: reference")
	assert.Contains(t, content, "Start Stocks Needed:        $5,800,000")
	assert.Contains(t, content, "Your Starting Cash:         $500,000 [Extra]")
	assert.Contains(t, content, "Your Starting Stocks:       $900,000 [Short]")
	assert.Contains(t, content, "First trouble:              Age 66")
	assert.Contains(t, content, "No recommendations")
	assert.Contains(t, content, "2035")
	assert.Contains(t, content, "$175,027")
	assert.NotContains(t, content, "emergency:", "traces only in debug mode")
}

func TestConsoleFormatter_Debug(t *testing.T) {
	formatter := ConsoleFormatter{Debug: true}
	assert.Equal(t, "console-debug", formatter.Name())

	out, err := formatter.Format(buildTestReport())
	require.NoError(t, err)
	assert.Contains(t, string(out), "emergency: preS=1523197 sellNow=40000")
}

func TestConsoleFormatter_EmptyHorizon(t *testing.T) {
	r := buildTestReport()
	r.Payload.BaselineRows = nil

	out, err := ConsoleFormatter{}.Format(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), "no retirement years")
}

func TestConsoleLiteFormatter_Format(t *testing.T) {
	formatter := ConsoleLiteFormatter{}
	assert.Equal(t, "console-lite", formatter.Name())

	out, err := formatter.Format(buildInfeasibleReport(true))
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "PLAN SUMMARY")
	assert.Contains(t, content, "Max achievable success is 42.5%")
	assert.Contains(t, content, "Minimum Starting Cash to reach >=90%: $700,000")
}

func TestCSVFormatter_Format(t *testing.T) {
	formatter := CSVFormatter{}
	assert.Equal(t, "csv", formatter.Name())

	out, err := formatter.Format(buildTestReport())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Year,Age,Spend,Benefit,CashUsed,SoldEmergency,SoldRecovery,RefillAmount,CashEnd,StocksEnd,FundedAhead,Shortfall", lines[0])
	assert.Equal(t, "2035,61,180000.00,0.00,180000.00,175026.76,0.00,175026.76,175026.76,1348170.38,1,0.00", lines[2])
}

func TestBandsCSVFormatter_Format(t *testing.T) {
	out, err := BandsCSVFormatter{}.Format(buildTestReport())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "1,723687.66,950000.00,1163754.14,1,1,2", lines[1])
}

func TestBandsCSVFormatter_LengthMismatch(t *testing.T) {
	r := buildTestReport()
	r.Payload.Stocks.P90 = r.Payload.Stocks.P90[:1]

	_, err := BandsCSVFormatter{}.Format(r)
	assert.ErrorContains(t, err, "stocks.p90")
}

func TestJSONFormatter_Format(t *testing.T) {
	formatter := JSONFormatter{Pretty: true}
	assert.Equal(t, "json", formatter.Name())

	out, err := formatter.Format(buildTestReport())
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Contains(t, doc, "inputs")
	assert.Contains(t, doc, "payload")
	assert.Contains(t, doc, "meta")

	content := string(out)
	assert.Contains(t, content, `"retireAge": 60`)
	assert.Contains(t, content, `"policy": "cash-only spending; refill on high-water-mark; 10-year max buffer"`)
	assert.Contains(t, content, `"ts": "2026-03-01T12:00:00Z"`)
	assert.Contains(t, content, `"Ke": 2`)
}

func TestHTMLFormatter_Format(t *testing.T) {
	formatter := HTMLFormatter{}
	assert.Equal(t, "html", formatter.Name())

	out, err := formatter.Format(buildInfeasibleReport(true))
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "<!DOCTYPE html>")
	assert.Contains(t, content, "<title>Cash Buffer Plan: reference</title>")
	assert.Contains(t, content, `class="banner infeasible"`)
	assert.Contains(t, content, `<tr class="refill">`)
	assert.Contains(t, content, "$700,000")
}

func TestPDFFormatter_Format(t *testing.T) {
	formatter := PDFFormatter{}
	assert.Equal(t, "pdf", formatter.Name())

	out, err := formatter.Format(buildTestReport())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF-"), "Should be a PDF document")
	assert.Contains(t, string(out), "%%EOF")
}

func TestAvailableFormatterNames(t *testing.T) {
	names := AvailableFormatterNames()

	for _, want := range []string{"console", "console-debug", "console-lite", "csv", "bands-csv", "json", "html", "pdf"} {
		assert.Contains(t, names, want)
	}
	assert.IsIncreasing(t, names)
}

func TestAvailableFormatAliases(t *testing.T) {
	aliases := AvailableFormatAliases()

	assert.Contains(t, aliases, "verbose")
	assert.Contains(t, aliases, "console-verbose")
	assert.Contains(t, aliases, "summary")
}

func TestGetFormatterByName(t *testing.T) {
	f := GetFormatterByName("console-lite")
	require.NotNil(t, f)
	assert.Equal(t, "console-lite", f.Name())

	f = GetFormatterByName(" VERBOSE ")
	require.NotNil(t, f)
	assert.Equal(t, "console", f.Name())

	assert.Nil(t, GetFormatterByName("non-existent"))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "csv", Extension(CSVFormatter{}))
	assert.Equal(t, "csv", Extension(BandsCSVFormatter{}))
	assert.Equal(t, "pdf", Extension(PDFFormatter{}))
	assert.Equal(t, "json", Extension(JSONFormatter{}))
	assert.Equal(t, "html", Extension(HTMLFormatter{}))
	assert.Equal(t, "txt", Extension(ConsoleFormatter{}))
}
