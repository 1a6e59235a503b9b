package transform

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ModifyMarket changes the real return assumptions. A nil field keeps the base value.
type ModifyMarket struct {
	Mean  *decimal.Decimal // e.g. 0.03 for 3% real
	Stdev *decimal.Decimal
}

func (mm *ModifyMarket) Name() string {
	return "modify_market"
}

func (mm *ModifyMarket) Description() string {
	var parts []string
	if mm.Mean != nil {
		parts = append(parts, fmt.Sprintf("mean return %s%%", mm.Mean.Mul(decimal.NewFromInt(100)).StringFixed(1)))
	}
	if mm.Stdev != nil {
		parts = append(parts, fmt.Sprintf("volatility %s%%", mm.Stdev.Mul(decimal.NewFromInt(100)).StringFixed(1)))
	}
	return "Set " + strings.Join(parts, ", ")
}

func (mm *ModifyMarket) Validate(base *Scenario) error {
	if mm.Mean == nil && mm.Stdev == nil {
		return NewTransformError(mm.Name(), "validate", "at least one of mean or stdev is required", nil)
	}
	if mm.Mean != nil && (mm.Mean.LessThan(decimal.NewFromFloat(-0.5)) || mm.Mean.GreaterThan(decimal.NewFromFloat(0.5))) {
		return NewTransformError(mm.Name(), "validate", fmt.Sprintf("mean must be between -0.5 and 0.5, got %s", mm.Mean), nil)
	}
	if mm.Stdev != nil && (mm.Stdev.IsNegative() || mm.Stdev.GreaterThan(decimal.NewFromInt(1))) {
		return NewTransformError(mm.Name(), "validate", fmt.Sprintf("stdev must be between 0 and 1, got %s", mm.Stdev), nil)
	}
	return requireBase(mm.Name(), base)
}

func (mm *ModifyMarket) Apply(base *Scenario) (*Scenario, error) {
	modified := base.DeepCopy()
	if mm.Mean != nil {
		modified.Market.Mean = mm.Mean.InexactFloat64()
	}
	if mm.Stdev != nil {
		modified.Market.Stdev = mm.Stdev.InexactFloat64()
	}
	return modified, nil
}
