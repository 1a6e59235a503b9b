package domain

// Bands holds per-year 10th, 50th and 90th percentile series.
type Bands struct {
	P10 []float64 `json:"p10"`
	P50 []float64 `json:"p50"`
	P90 []float64 `json:"p90"`
}

// EmergencyTrace records the quantities behind an emergency sale and its prefill.
type EmergencyTrace struct {
	PreSaleStocks float64 `json:"preS"`
	SellNow       float64 `json:"sellNow"`
	Gap10         float64 `json:"gap10f"`
	TargetYears   int     `json:"Ke"`
	ExtraNeed     float64 `json:"extraNeed"`
	Abundance     float64 `json:"fe"`
	RawBudget     float64 `json:"B0"`
	ReserveAllow  float64 `json:"reserveAllow"`
	AnnualCap     float64 `json:"annualCap"`
	Budget        float64 `json:"Be"`
}

// RecoveryTrace records the quantities behind a profit-taking sale decision.
type RecoveryTrace struct {
	Triggered    bool    `json:"triggered"`
	Price        float64 `json:"P"`
	Peak         float64 `json:"peak"`
	Gap10        float64 `json:"gap10"`
	TargetYears  float64 `json:"K"`
	Abundance    float64 `json:"f"`
	Depth        float64 `json:"depth"`
	Rebound      float64 `json:"rho"`
	Gate         float64 `json:"g"`
	ReserveCap   float64 `json:"reserveCap"`
	RawBudget    float64 `json:"b0"`
	SaleBudget   float64 `json:"saleBudget"`
	StocksBefore float64 `json:"S_before"`
	StocksAfter  float64 `json:"S_after"`
}

// RowDebug is attached to each baseline row. Either side may be nil.
type RowDebug struct {
	Emergency *EmergencyTrace `json:"emergency"`
	Recovery  *RecoveryTrace  `json:"recovery"`
}

// BaselineRow is one year of the representative path.
type BaselineRow struct {
	Year          int      `json:"year"`
	Age           int      `json:"age"`
	Spend         float64  `json:"spend"`
	Benefit       float64  `json:"benefit"`
	CashUsed      float64  `json:"cashUsed"`
	SoldEmergency float64  `json:"soldEmergency"`
	SoldRecovery  float64  `json:"soldRecovery"`
	RefillAmount  float64  `json:"refillAmount"`
	CashEnd       float64  `json:"cashEnd"`
	StocksEnd     float64  `json:"stocksEnd"`
	FundedAhead   int      `json:"fundedAhead"`
	Shortfall     float64  `json:"shortfall"`
	Debug         RowDebug `json:"debug"`
}

// PlanResponse is the full result of one engine run.
type PlanResponse struct {
	Feasible90            bool     `json:"feasible90"`
	MaxSuccessCap         float64  `json:"maxSuccessCap"`
	MinCashFor90          *float64 `json:"minCashFor90"`
	StocksNeededAtMinCash *float64 `json:"stocksNeededAtMinCash"`

	StartCashNeeded   float64 `json:"startCashNeeded"`
	StartStocksNeeded float64 `json:"startStocksNeeded"`
	StartingCash      float64 `json:"startingCash"`
	StartingStocks    float64 `json:"startingStocks"`

	SuccessPct          float64 `json:"successPct"`
	FirstTroubleYearAge *int    `json:"firstTroubleYearAge"`

	BaselineRows []BaselineRow `json:"baselineRows"`
	SeriesYears  []int         `json:"seriesYears"`
	Stocks       Bands         `json:"stocks"`
	Coverage     Bands         `json:"coverage"`

	InitialCoveredYears int `json:"initialCoveredYears"`

	SuccessTrials int     `json:"successTrials"`
	SolverTrials  int     `json:"solverTrials"`
	SuccessSE     float64 `json:"successSE"`
	SolverSE      float64 `json:"solverSE"`
}
