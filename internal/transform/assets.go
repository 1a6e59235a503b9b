package transform

import (
	"fmt"

	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/shopspring/decimal"
)

// AddStocks adds (or with a negative amount, removes) starting stocks.
type AddStocks struct {
	Amount decimal.Decimal
}

func (as *AddStocks) Name() string {
	return "add_stocks"
}

func (as *AddStocks) Description() string {
	return fmt.Sprintf("Add $%s to starting stocks", as.Amount.StringFixed(0))
}

func (as *AddStocks) Validate(base *Scenario) error {
	if err := requireBase(as.Name(), base); err != nil {
		return err
	}
	if decimal.NewFromFloat(base.Request.StartStocks).Add(as.Amount).IsNegative() {
		return NewTransformError(as.Name(), "validate",
			fmt.Sprintf("removing %s would leave negative stocks", as.Amount.Neg()), nil)
	}
	return nil
}

func (as *AddStocks) Apply(base *Scenario) (*Scenario, error) {
	modified := base.DeepCopy()
	modified.Request.StartStocks = decimal.NewFromFloat(base.Request.StartStocks).Add(as.Amount).InexactFloat64()
	return modified, nil
}

// ScaleStocks multiplies starting stocks.
type ScaleStocks struct {
	Factor decimal.Decimal
}

func (ss *ScaleStocks) Name() string {
	return "scale_stocks"
}

func (ss *ScaleStocks) Description() string {
	return fmt.Sprintf("Scale starting stocks by %s", ss.Factor.String())
}

func (ss *ScaleStocks) Validate(base *Scenario) error {
	if ss.Factor.IsNegative() {
		return NewTransformError(ss.Name(), "validate", fmt.Sprintf("factor must be non-negative, got %s", ss.Factor), nil)
	}
	return requireBase(ss.Name(), base)
}

func (ss *ScaleStocks) Apply(base *Scenario) (*Scenario, error) {
	modified := base.DeepCopy()
	modified.Request.StartStocks = scale(base.Request.StartStocks, ss.Factor)
	return modified, nil
}

// SetCash replaces the starting cash.
type SetCash struct {
	Amount decimal.Decimal
}

func (sc *SetCash) Name() string {
	return "set_cash"
}

func (sc *SetCash) Description() string {
	return fmt.Sprintf("Set starting cash to $%s", sc.Amount.StringFixed(0))
}

func (sc *SetCash) Validate(base *Scenario) error {
	if sc.Amount.IsNegative() {
		return NewTransformError(sc.Name(), "validate", fmt.Sprintf("amount must be non-negative, got %s", sc.Amount), nil)
	}
	return requireBase(sc.Name(), base)
}

func (sc *SetCash) Apply(base *Scenario) (*Scenario, error) {
	modified := base.DeepCopy()
	modified.Request.StartCash = sc.Amount.InexactFloat64()
	return modified, nil
}

// AddCashYears adds whole years of first-year need to starting cash.
type AddCashYears struct {
	Years int
}

func (ac *AddCashYears) Name() string {
	return "add_cash_years"
}

func (ac *AddCashYears) Description() string {
	return fmt.Sprintf("Add %d year(s) of first-year need to starting cash", ac.Years)
}

func (ac *AddCashYears) Validate(base *Scenario) error {
	if ac.Years < 0 {
		return NewTransformError(ac.Name(), "validate", fmt.Sprintf("years must be non-negative, got %d", ac.Years), nil)
	}
	return requireBase(ac.Name(), base)
}

func (ac *AddCashYears) Apply(base *Scenario) (*Scenario, error) {
	modified := base.DeepCopy()
	r := base.Request
	first := calculation.BuildNeedLadder(r.Spend, r.SS70, r.RetireAge).FirstYear()
	modified.Request.StartCash = r.StartCash + float64(ac.Years)*first
	return modified, nil
}

// FullBuffer raises starting cash to the full ten-year buffer. Cash above it is kept.
type FullBuffer struct{}

func (fb *FullBuffer) Name() string {
	return "full_buffer"
}

func (fb *FullBuffer) Description() string {
	return "Raise starting cash to a full 10-year buffer"
}

func (fb *FullBuffer) Validate(base *Scenario) error {
	return requireBase(fb.Name(), base)
}

func (fb *FullBuffer) Apply(base *Scenario) (*Scenario, error) {
	modified := base.DeepCopy()
	r := base.Request
	full := calculation.BuildNeedLadder(r.Spend, r.SS70, r.RetireAge).BufferTotal()
	modified.Request.StartCash = max(r.StartCash, full)
	return modified, nil
}
