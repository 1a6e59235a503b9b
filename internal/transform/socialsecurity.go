package transform

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SetBenefit replaces the annual Social Security benefit received from age 70.
type SetBenefit struct {
	Amount decimal.Decimal
}

func (sb *SetBenefit) Name() string {
	return "set_ss70"
}

func (sb *SetBenefit) Description() string {
	return fmt.Sprintf("Set Social Security at 70 to $%s/yr", sb.Amount.StringFixed(0))
}

func (sb *SetBenefit) Validate(base *Scenario) error {
	if sb.Amount.IsNegative() {
		return NewTransformError(sb.Name(), "validate", fmt.Sprintf("amount must be non-negative, got %s", sb.Amount), nil)
	}
	return requireBase(sb.Name(), base)
}

func (sb *SetBenefit) Apply(base *Scenario) (*Scenario, error) {
	modified := base.DeepCopy()
	modified.Request.SS70 = sb.Amount.InexactFloat64()
	return modified, nil
}

// ScaleBenefit multiplies the benefit, e.g. 0.75 for a 25% haircut.
type ScaleBenefit struct {
	Factor decimal.Decimal
}

func (sb *ScaleBenefit) Name() string {
	return "scale_ss70"
}

func (sb *ScaleBenefit) Description() string {
	return fmt.Sprintf("Scale Social Security at 70 by %s", sb.Factor.String())
}

func (sb *ScaleBenefit) Validate(base *Scenario) error {
	if sb.Factor.IsNegative() {
		return NewTransformError(sb.Name(), "validate", fmt.Sprintf("factor must be non-negative, got %s", sb.Factor), nil)
	}
	return requireBase(sb.Name(), base)
}

func (sb *ScaleBenefit) Apply(base *Scenario) (*Scenario, error) {
	modified := base.DeepCopy()
	modified.Request.SS70 = scale(base.Request.SS70, sb.Factor)
	return modified, nil
}

func scale(v float64, factor decimal.Decimal) float64 {
	return decimal.NewFromFloat(v).Mul(factor).InexactFloat64()
}
