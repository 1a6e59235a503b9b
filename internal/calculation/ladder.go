package calculation

import "github.com/rgehrsitz/bufferplan/internal/domain"

// NeedLadder is the net cash requirement for each retirement year.
// Needs[0] is the year the person turns RetireAge.
type NeedLadder struct {
	RetireAge int
	Spend     float64
	Benefit   float64
	Needs     []float64
}

// BuildNeedLadder computes max(0, spend - benefit) for every year up to the horizon age,
// where the benefit applies from BenefitStartAge onward.
func BuildNeedLadder(spend, benefit float64, retireAge int) NeedLadder {
	h := max(0, domain.HorizonAge-retireAge)
	l := NeedLadder{RetireAge: retireAge, Spend: spend, Benefit: benefit, Needs: make([]float64, h)}
	for y := range h {
		l.Needs[y] = max(0, spend-l.BenefitAt(y))
	}
	return l
}

// Len is the horizon H.
func (l NeedLadder) Len() int { return len(l.Needs) }

// AgeAt returns the age during year y.
func (l NeedLadder) AgeAt(y int) int { return l.RetireAge + y }

// BenefitAt returns the benefit received in year y.
func (l NeedLadder) BenefitAt(y int) float64 {
	if l.RetireAge+y >= domain.BenefitStartAge {
		return l.Benefit
	}
	return 0
}

// Total sums every year's need.
func (l NeedLadder) Total() float64 {
	var s float64
	for _, n := range l.Needs {
		s += n
	}
	return s
}

// FirstYear returns the year-one need, or 0 for an empty ladder.
func (l NeedLadder) FirstYear() float64 {
	if len(l.Needs) == 0 {
		return 0
	}
	return l.Needs[0]
}

// BufferTotal is the cash needed to fully fund the first min(10, H) years.
func (l NeedLadder) BufferTotal() float64 {
	var s float64
	for y := 0; y < len(l.Needs) && y < domain.BufferYears; y++ {
		s += l.Needs[y]
	}
	return s
}

// CoverLadder is the cash already earmarked for each year.
type CoverLadder []float64

// Clone returns an independent copy.
func (c CoverLadder) Clone() CoverLadder {
	out := make(CoverLadder, len(c))
	copy(out, c)
	return out
}

// CashAllocation is the result of spreading starting cash over the earliest years.
type CashAllocation struct {
	Cover               CoverLadder
	InitialCoveredYears int
}

// AllocateCash fills years in order, at most BufferYears of them, until cash runs out.
// Only fully funded years count toward InitialCoveredYears.
func AllocateCash(cash float64, needs NeedLadder) CashAllocation {
	h := needs.Len()
	cover := make(CoverLadder, h)
	remaining := cash
	for y := 0; y < h && y < domain.BufferYears; y++ {
		buy := min(needs.Needs[y], remaining)
		cover[y] = buy
		remaining -= buy
		if remaining <= 0 {
			break
		}
	}
	covered := 0
	for y := 0; y < min(domain.BufferYears, h); y++ {
		if cover[y] >= needs.Needs[y] {
			covered++
		}
	}
	return CashAllocation{Cover: cover, InitialCoveredYears: covered}
}

// windowEnd is the last year index inside the forward buffer window from year y.
func windowEnd(h, y int) int {
	return min(h-1, y+domain.BufferYears)
}

// consecutiveFunded counts fully funded years immediately after y, stopping at the first gap.
func consecutiveFunded(cover CoverLadder, needs []float64, y int) int {
	n := 0
	for k := 1; k <= domain.BufferYears; k++ {
		t := y + k
		if t >= len(needs) {
			break
		}
		if cover[t] < needs[t] {
			break
		}
		n++
	}
	return n
}

// fundedWithin counts fully funded years in the window after y, gaps allowed.
func fundedWithin(cover CoverLadder, needs []float64, y int) int {
	n := 0
	for t := y + 1; t <= windowEnd(len(needs), y); t++ {
		if cover[t] >= needs[t] {
			n++
		}
	}
	return n
}

// futureCash sums cover strictly after y.
func futureCash(cover CoverLadder, y int) float64 {
	var s float64
	for t := y + 1; t < len(cover); t++ {
		s += cover[t]
	}
	return s
}

// unfundedWithin sums the shortfall of each year in the window after y.
func unfundedWithin(cover CoverLadder, needs []float64, y int) float64 {
	var s float64
	for t := y + 1; t <= windowEnd(len(needs), y); t++ {
		s += max(0, needs[t]-cover[t])
	}
	return s
}

// costToFund returns what it would take to fully fund the next k years in the window.
func costToFund(cover CoverLadder, needs []float64, y, k int) float64 {
	var needed float64
	have := 0
	for t := y + 1; t <= windowEnd(len(needs), y) && have < k; t++ {
		needed += max(0, needs[t]-cover[t])
		have++
	}
	return needed
}

// fundEarliest spends up to budget topping up years in the window after y, earliest first.
// It returns the amount actually spent.
func fundEarliest(budget float64, cover CoverLadder, needs []float64, y int) float64 {
	if budget <= 0 {
		return 0
	}
	var spent float64
	for t := y + 1; t <= windowEnd(len(needs), y); t++ {
		short := max(0, needs[t]-cover[t])
		if short <= 0 {
			continue
		}
		buy := min(short, budget)
		cover[t] += buy
		budget -= buy
		spent += buy
		if budget <= 0 {
			break
		}
	}
	return spent
}
