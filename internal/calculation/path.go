package calculation

import (
	"math"

	"github.com/rgehrsitz/bufferplan/internal/domain"
)

const (
	// emergencyReserve is the share of pre-sale stocks an emergency prefill must leave untouched.
	emergencyReserve = 0.65
	// emergencyAnnualCap bounds total emergency selling in one year as a share of pre-sale stocks.
	emergencyAnnualCap = 0.35
	// recoveryReserve is the share of stocks a profit-taking sale must leave untouched.
	recoveryReserve = 0.7
	// referenceDepth is the drawdown at which the depth factor saturates.
	referenceDepth = 0.3
	// returnFloor is the worst annual return a path can draw.
	returnFloor = -0.95
	// epsilon guards divisions by quantities that may be zero.
	epsilon = 1e-9
)

// Market describes the annual real return distribution.
type Market struct {
	Mean  float64 `json:"mean" toml:"mean"`
	Stdev float64 `json:"stdev" toml:"stdev"`
}

// DefaultMarket is 5% mean with 18% volatility.
func DefaultMarket() Market {
	return Market{Mean: 0.05, Stdev: 0.18}
}

// Profile holds the tuning constants of the refill rules.
type Profile struct {
	Name string
	// EmergencyYearsScale and EmergencyYearsMax shape the prefill target after an emergency sale.
	EmergencyYearsScale float64
	EmergencyYearsMax   int
	// RecoveryBaseYears is both the floor and the abundance slope of the profit-taking target.
	RecoveryBaseYears float64
	// RecoveryAbundanceDivisor scales how quickly abundant stocks unlock profit-taking.
	RecoveryAbundanceDivisor float64
}

// TrialProfile drives every Monte Carlo trial and therefore every success figure.
var TrialProfile = Profile{
	Name:                     "trial",
	EmergencyYearsScale:      3,
	EmergencyYearsMax:        6,
	RecoveryBaseYears:        3,
	RecoveryAbundanceDivisor: 2,
}

// BaselineProfile drives the single diagnostic path shown as a table.
var BaselineProfile = Profile{
	Name:                     "baseline",
	EmergencyYearsScale:      2,
	EmergencyYearsMax:        3,
	RecoveryBaseYears:        5,
	RecoveryAbundanceDivisor: 1,
}

// TrialResult is the outcome of one simulated path.
type TrialResult struct {
	// ShortfallAge is the first age at which spending could not be met, nil on success.
	ShortfallAge *int
	Stocks       []float64
	Coverage     []int
}

// Success reports whether the path never ran short.
func (r TrialResult) Success() bool { return r.ShortfallAge == nil }

// YearTrace is the detailed record of one simulated year.
type YearTrace struct {
	Year          int
	CashUsed      float64
	SoldEmergency float64
	SoldRecovery  float64
	CashEnd       float64
	StocksEnd     float64
	FundedAhead   int
	Shortfall     float64
	Emergency     *domain.EmergencyTrace
	Recovery      *domain.RecoveryTrace
}

// PathSimulator runs one path of the cash ladder plus stock portfolio.
type PathSimulator struct {
	Profile Profile
	Market  Market
}

// NewPathSimulator returns a simulator with the given profile and market.
func NewPathSimulator(p Profile, m Market) PathSimulator {
	return PathSimulator{Profile: p, Market: m}
}

// Simulate runs one trial. cover is cloned, never mutated.
func (ps PathSimulator) Simulate(stocks float64, needs NeedLadder, cover CoverLadder, seed uint32) TrialResult {
	h := needs.Len()
	res := TrialResult{Stocks: make([]float64, h), Coverage: make([]int, h)}
	ps.walk(stocks, needs, cover, seed, func(y int, s *pathState, yt *YearTrace) {
		res.Stocks[y] = s.stocks
		res.Coverage[y] = consecutiveFunded(s.cover, needs.Needs, y)
		if s.shortfallAge != nil && res.ShortfallAge == nil {
			res.ShortfallAge = s.shortfallAge
		}
	}, false)
	return res
}

// Trace runs one path and returns a full per-year record.
func (ps PathSimulator) Trace(stocks float64, needs NeedLadder, cover CoverLadder, seed uint32) []YearTrace {
	rows := make([]YearTrace, 0, needs.Len())
	ps.walk(stocks, needs, cover, seed, func(y int, s *pathState, yt *YearTrace) {
		yt.Year = y
		yt.CashEnd = futureCash(s.cover, y)
		yt.StocksEnd = s.stocks
		yt.FundedAhead = fundedWithin(s.cover, needs.Needs, y)
		rows = append(rows, *yt)
	}, true)
	return rows
}

type pathState struct {
	stocks       float64
	price        float64
	peak         float64
	trough       float64
	drawdown     bool
	cover        CoverLadder
	shortfallAge *int
}

// walk is the single year loop shared by trials and traces.
func (ps PathSimulator) walk(stocks float64, needs NeedLadder, cover CoverLadder, seed uint32, record func(int, *pathState, *YearTrace), detailed bool) {
	s := &pathState{stocks: stocks, price: 1, peak: 1, trough: 1, cover: cover.Clone()}
	gauss := NewGaussian(NewMulberry32(seed))
	need := needs.Needs

	for y := range need {
		var yt YearTrace

		use := min(need[y], s.cover[y])
		gap := need[y] - use
		s.cover[y] = 0

		if gap > 0 {
			em := ps.emergency(s, need, y, gap)
			use += em.SellNow
			gap -= em.SellNow
			yt.SoldEmergency = em.SellNow + em.prefilled
			if detailed {
				yt.Emergency = &em.EmergencyTrace
			}
			if gap > 0 && s.shortfallAge == nil {
				age := needs.AgeAt(y)
				s.shortfallAge = &age
			}
		}
		yt.CashUsed = use
		yt.Shortfall = gap

		r := max(ps.Market.Mean+ps.Market.Stdev*gauss.Next(), returnFloor)
		s.stocks = max(0, s.stocks*(1+r))
		s.price *= 1 + r
		s.peak = max(s.peak, s.price)
		s.trough = min(s.trough, s.price)
		if s.price < s.peak {
			s.drawdown = true
		}

		if s.price >= s.peak && s.drawdown {
			rec := ps.recovery(s, need, y)
			yt.SoldRecovery = rec.spent
			if detailed {
				yt.Recovery = &rec.RecoveryTrace
			}
		}

		record(y, s, &yt)
	}
}

type emergencyOutcome struct {
	domain.EmergencyTrace
	prefilled float64
}

// emergency sells stock to close this year's gap, then, if the gap closed and stock
// remains, prefills upcoming years within the reserve and annual caps.
func (ps PathSimulator) emergency(s *pathState, need []float64, y int, gap float64) emergencyOutcome {
	var out emergencyOutcome
	preS := s.stocks
	sellNow := min(s.stocks, gap)
	out.PreSaleStocks = preS
	out.SellNow = sellNow
	if sellNow > 0 {
		s.cover[y] += sellNow
		s.stocks -= sellNow
	}
	if gap-sellNow > 0 {
		return out
	}

	gap10 := unfundedWithin(s.cover, need, y)
	out.Gap10 = gap10
	if gap10 <= 0 || s.stocks <= 0 {
		return out
	}

	ke := int(roundHalfUp(ps.Profile.EmergencyYearsScale * preS / (preS + gap10)))
	ke = max(1, min(ps.Profile.EmergencyYearsMax, 1+ke))
	extra := costToFund(s.cover, need, y, ke)
	fe := 1 - math.Exp(-preS/(2*max(epsilon, gap10)))
	b0 := min(extra, gap10) * fe
	reserveAllow := max(0, s.stocks-emergencyReserve*preS)
	annualCap := max(0, emergencyAnnualCap*preS-sellNow)
	budget := min(b0, reserveAllow, annualCap)

	out.TargetYears = ke
	out.ExtraNeed = extra
	out.Abundance = fe
	out.RawBudget = b0
	out.ReserveAllow = reserveAllow
	out.AnnualCap = annualCap
	out.Budget = budget

	if budget > 0 {
		spent := fundEarliest(budget, s.cover, need, y)
		s.stocks -= spent
		out.prefilled = spent
	}
	return out
}

type recoveryOutcome struct {
	domain.RecoveryTrace
	spent float64
}

// recovery runs the profit-taking rule once price has completed a dip and recovered to its peak.
func (ps PathSimulator) recovery(s *pathState, need []float64, y int) recoveryOutcome {
	var out recoveryOutcome
	gap10 := unfundedWithin(s.cover, need, y)
	out.Gap10 = gap10
	out.Price = s.price
	out.Peak = s.peak
	out.StocksBefore = s.stocks

	if gap10 > 0 && s.stocks > 0 {
		S := s.stocks
		k := min(float64(domain.BufferYears), ps.Profile.RecoveryBaseYears+ps.Profile.RecoveryBaseYears*(S/(S+gap10)))
		gapToK := costToFund(s.cover, need, y, int(math.Ceil(k)))
		f := 1 - math.Exp(-S/(ps.Profile.RecoveryAbundanceDivisor*max(epsilon, gap10)))
		depth := max(0, (s.peak-s.trough)/max(epsilon, s.peak))
		rho := min(1, (s.price-s.trough)/max(epsilon, s.peak-s.trough))
		g := min(1, depth/referenceDepth) * min(1, rho)
		reserveCap := max(0, (1-recoveryReserve)*S)
		b0 := min(gapToK, gap10) * f * g
		budget := min(b0, reserveCap)

		spent := fundEarliest(budget, s.cover, need, y)
		s.stocks -= spent

		out.Triggered = true
		out.TargetYears = k
		out.Abundance = f
		out.Depth = depth
		out.Rebound = rho
		out.Gate = g
		out.ReserveCap = reserveCap
		out.RawBudget = b0
		out.SaleBudget = budget
		out.spent = spent
	}

	if out.spent > 0 {
		s.peak = s.price
		s.trough = s.price
		s.drawdown = false
	}
	out.StocksAfter = s.stocks
	return out
}
