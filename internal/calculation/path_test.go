package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referencePlan is the 60-year-old retiree used throughout the engine tests:
// 180k spend, 60k benefit from 70, 500k starting cash.
func referencePlan() (NeedLadder, CoverLadder) {
	needs := BuildNeedLadder(180000, 60000, 60)
	return needs, AllocateCash(500000, needs).Cover
}

func TestPathSimulator_ReferenceTrial(t *testing.T) {
	needs, cover := referencePlan()
	sim := NewPathSimulator(TrialProfile, DefaultMarket())

	res := sim.Simulate(900000, needs, cover, 123456)

	require.NotNil(t, res.ShortfallAge)
	assert.Equal(t, 69, *res.ShortfallAge)
	assert.False(t, res.Success())
	assert.InDelta(t, 1010734.6949268241, res.Stocks[0], 1e-4)
	assert.InDelta(t, 1069398.3501564718, res.Stocks[1], 1e-4)
	assert.InDelta(t, 1006443.4831696823, res.Stocks[2], 1e-4)
	assert.Equal(t, []int{1, 0, 0, 0, 0}, res.Coverage[:5])
}

func TestPathSimulator_DoesNotMutateCover(t *testing.T) {
	needs, cover := referencePlan()
	before := cover.Clone()

	NewPathSimulator(TrialProfile, DefaultMarket()).Simulate(900000, needs, cover, 1)

	assert.Equal(t, before, cover)
}

func TestPathSimulator_ZeroNeedAlwaysSucceeds(t *testing.T) {
	needs := BuildNeedLadder(0, 0, 60)
	cover := AllocateCash(0, needs).Cover
	sim := NewPathSimulator(TrialProfile, DefaultMarket())

	for seed := uint32(1); seed < 50; seed++ {
		res := sim.Simulate(0, needs, cover, seed)
		assert.True(t, res.Success(), "seed %d", seed)
	}
}

func TestPathSimulator_NoStocksRunsShortAfterCash(t *testing.T) {
	needs := BuildNeedLadder(50000, 0, 60)
	cover := AllocateCash(100000, needs).Cover

	res := NewPathSimulator(TrialProfile, DefaultMarket()).Simulate(0, needs, cover, 5)

	require.NotNil(t, res.ShortfallAge)
	assert.Equal(t, 62, *res.ShortfallAge, "third year has no cash and no stocks")
}

func TestPathSimulator_ShortfallRecordedOnce(t *testing.T) {
	needs := BuildNeedLadder(50000, 0, 80)
	cover := AllocateCash(0, needs).Cover

	res := NewPathSimulator(TrialProfile, DefaultMarket()).Simulate(60000, needs, cover, 3)

	require.NotNil(t, res.ShortfallAge)
	assert.Equal(t, 81, *res.ShortfallAge, "first year is sold from stock, second runs short")
}

func TestPathSimulator_StocksNeverNegative(t *testing.T) {
	needs, cover := referencePlan()
	sim := NewPathSimulator(TrialProfile, DefaultMarket())
	for seed := uint32(0); seed < 200; seed++ {
		res := sim.Simulate(1500000, needs, cover, seed*7919)
		for y, s := range res.Stocks {
			if s < 0 {
				t.Fatalf("seed %d year %d: negative stocks %v", seed, y, s)
			}
		}
	}
}

func TestPathSimulator_TraceReference(t *testing.T) {
	needs, cover := referencePlan()
	rows := NewPathSimulator(BaselineProfile, DefaultMarket()).Trace(900000, needs, cover, 13579)

	require.Len(t, rows, 35)

	first := rows[0]
	assert.Equal(t, 180000.0, first.CashUsed)
	assert.Equal(t, 0.0, first.SoldEmergency)
	assert.Equal(t, 320000.0, first.CashEnd)
	assert.Equal(t, 1, first.FundedAhead)
	assert.InDelta(t, 1135513.8000218505, first.StocksEnd, 1e-4)
	assert.Nil(t, first.Emergency)

	third := rows[2]
	require.NotNil(t, third.Emergency)
	em := third.Emergency
	assert.InDelta(t, 1523197.144105896, em.PreSaleStocks, 1e-4)
	assert.Equal(t, 40000.0, em.SellNow)
	assert.Equal(t, 1620000.0, em.Gap10)
	assert.Equal(t, 2, em.TargetYears)
	assert.Equal(t, 360000.0, em.ExtraNeed)
	assert.InDelta(t, 0.375074336888615, em.Abundance, 1e-9)
	assert.InDelta(t, 135026.7612799014, em.Budget, 1e-4)
	assert.InDelta(t, 175026.7612799014, third.SoldEmergency, 1e-4)
	assert.Equal(t, 180000.0, third.CashUsed)
	assert.Equal(t, 0.0, third.Shortfall)
}

func TestPathSimulator_FullBufferNoFirstYearRefill(t *testing.T) {
	needs := BuildNeedLadder(180000, 60000, 60)
	cover := AllocateCash(needs.BufferTotal(), needs).Cover

	rows := NewPathSimulator(BaselineProfile, DefaultMarket()).Trace(1e8, needs, cover, 246813)

	require.NotEmpty(t, rows)
	assert.Equal(t, 0.0, rows[0].SoldEmergency+rows[0].SoldRecovery, "a full buffer needs no refill in year one")
}

func TestPathSimulator_SaleBudgetsRespectReserves(t *testing.T) {
	needs := BuildNeedLadder(120000, 40000, 60)
	cover := AllocateCash(360000, needs).Cover
	sim := NewPathSimulator(BaselineProfile, DefaultMarket())

	recoveries := 0
	for seed := uint32(1); seed <= 60; seed++ {
		for _, row := range sim.Trace(2500000, needs, cover, seed*104729) {
			if rec := row.Recovery; rec != nil && rec.Triggered {
				recoveries++
				assert.LessOrEqual(t, rec.SaleBudget, rec.ReserveCap+1e-6)
				assert.GreaterOrEqual(t, rec.StocksAfter, 0.7*rec.StocksBefore-1e-6)
			}
			if em := row.Emergency; em != nil && em.Budget > 0 {
				assert.LessOrEqual(t, em.Budget, em.ReserveAllow+1e-6)
				assert.LessOrEqual(t, em.Budget, em.AnnualCap+1e-6)
				assert.LessOrEqual(t, row.SoldEmergency-em.SellNow, em.Budget+1e-6)
			}
			assert.GreaterOrEqual(t, row.StocksEnd, 0.0)
		}
	}
	assert.Greater(t, recoveries, 0, "expected at least one profit-taking sale across seeds")
}

func TestPathSimulator_RisingMarketNeverTakesProfit(t *testing.T) {
	needs := BuildNeedLadder(100000, 0, 60)
	cover := AllocateCash(300000, needs).Cover
	sim := NewPathSimulator(TrialProfile, Market{Mean: 0.07, Stdev: 0})

	for _, row := range sim.Trace(5e6, needs, cover, 11) {
		assert.Equal(t, 0.0, row.SoldRecovery, "year %d", row.Year)
		assert.Nil(t, row.Recovery)
	}
}

func TestProfiles(t *testing.T) {
	assert.Equal(t, 6, TrialProfile.EmergencyYearsMax)
	assert.Equal(t, 3, BaselineProfile.EmergencyYearsMax)
	assert.Equal(t, 2.0, TrialProfile.RecoveryAbundanceDivisor)
	assert.Equal(t, 1.0, BaselineProfile.RecoveryAbundanceDivisor)
	assert.NotEqual(t, TrialProfile, BaselineProfile)
}
