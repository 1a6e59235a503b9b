package transform

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SetSpending replaces the all-in annual spending.
type SetSpending struct {
	Amount decimal.Decimal
}

func (ss *SetSpending) Name() string {
	return "set_spend"
}

func (ss *SetSpending) Description() string {
	return fmt.Sprintf("Set annual spending to $%s", ss.Amount.StringFixed(0))
}

func (ss *SetSpending) Validate(base *Scenario) error {
	if ss.Amount.IsNegative() {
		return NewTransformError(ss.Name(), "validate", fmt.Sprintf("amount must be non-negative, got %s", ss.Amount), nil)
	}
	return requireBase(ss.Name(), base)
}

func (ss *SetSpending) Apply(base *Scenario) (*Scenario, error) {
	modified := base.DeepCopy()
	modified.Request.Spend = ss.Amount.InexactFloat64()
	return modified, nil
}

// ScaleSpending multiplies annual spending, e.g. 0.9 to spend 10% less.
type ScaleSpending struct {
	Factor decimal.Decimal
}

func (ss *ScaleSpending) Name() string {
	return "scale_spend"
}

func (ss *ScaleSpending) Description() string {
	pct := ss.Factor.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
	return fmt.Sprintf("Change annual spending by %s%%", pct.StringFixed(0))
}

func (ss *ScaleSpending) Validate(base *Scenario) error {
	if ss.Factor.IsNegative() {
		return NewTransformError(ss.Name(), "validate", fmt.Sprintf("factor must be non-negative, got %s", ss.Factor), nil)
	}
	return requireBase(ss.Name(), base)
}

func (ss *ScaleSpending) Apply(base *Scenario) (*Scenario, error) {
	modified := base.DeepCopy()
	modified.Request.Spend = scale(base.Request.Spend, ss.Factor)
	return modified, nil
}
