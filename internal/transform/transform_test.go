package transform

import (
	"errors"
	"testing"

	"github.com/rgehrsitz/bufferplan/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a basic test scenario
func createTestScenario() *Scenario {
	return NewScenario("base", domain.PlanRequest{
		Age: 52, RetireAge: 60, Spend: 180000, SS70: 60000, StartCash: 500000, StartStocks: 900000,
	})
}

func TestApplyTransforms_NilScenario(t *testing.T) {
	_, err := ApplyTransforms(nil, []ScenarioTransform{&PostponeRetirement{Years: 1}})
	if err == nil {
		t.Error("Expected error for nil scenario, got nil")
	}
}

func TestApplyTransforms_EmptyTransforms(t *testing.T) {
	base := createTestScenario()

	result, err := ApplyTransforms(base, nil)
	if err != nil {
		t.Fatalf("Expected no error for empty transforms, got: %v", err)
	}
	if result == base {
		t.Error("Expected a copy, got same instance")
	}
	if *result != *base {
		t.Errorf("Expected identical content, got %+v", result)
	}
}

func TestApplyTransforms_NilTransform(t *testing.T) {
	_, err := ApplyTransforms(createTestScenario(), []ScenarioTransform{&PostponeRetirement{Years: 1}, nil})
	if err == nil {
		t.Error("Expected error for nil transform, got nil")
	}
}

func TestApplyTransforms_Chain(t *testing.T) {
	base := createTestScenario()

	result, err := ApplyTransforms(base, []ScenarioTransform{
		&PostponeRetirement{Years: 2},
		&ScaleSpending{Factor: decimal.NewFromFloat(0.9)},
		&AddStocks{Amount: decimal.NewFromInt(100000)},
	})

	require.NoError(t, err)
	assert.Equal(t, 62, result.Request.RetireAge)
	assert.Equal(t, 162000.0, result.Request.Spend)
	assert.Equal(t, 1000000.0, result.Request.StartStocks)
	assert.Equal(t, 60, base.Request.RetireAge, "base must be untouched")
	assert.Equal(t, 180000.0, base.Request.Spend)
}

func TestApplyTransforms_ValidationFailure(t *testing.T) {
	_, err := ApplyTransforms(createTestScenario(), []ScenarioTransform{&PostponeRetirement{Years: -1}})

	var te *TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "postpone_retirement", te.TransformName)
	assert.Equal(t, "validate", te.Operation)
}

type retireBeforeNow struct{}

func (retireBeforeNow) Name() string               { return "retire_before_now" }
func (retireBeforeNow) Description() string        { return "" }
func (retireBeforeNow) Validate(b *Scenario) error { return nil }
func (retireBeforeNow) Apply(b *Scenario) (*Scenario, error) {
	out := b.DeepCopy()
	out.Request.RetireAge = out.Request.Age - 1
	return out, nil
}

func TestApplyTransforms_ResultMustBeValidPlan(t *testing.T) {
	_, err := ApplyTransforms(createTestScenario(), []ScenarioTransform{retireBeforeNow{}})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "transformed plan is invalid")
}

func TestPostponeRetirement(t *testing.T) {
	tr := &PostponeRetirement{Years: 3}
	out, err := tr.Apply(createTestScenario())

	require.NoError(t, err)
	assert.Equal(t, 63, out.Request.RetireAge)
	assert.Equal(t, "Postpone retirement by 3 year(s)", tr.Description())
}

func TestSetRetireAge(t *testing.T) {
	base := createTestScenario()

	assert.NoError(t, (&SetRetireAge{Age: 65}).Validate(base))
	assert.Error(t, (&SetRetireAge{Age: 50}).Validate(base), "before current age")
	assert.Error(t, (&SetRetireAge{Age: 96}).Validate(base), "past the horizon")

	out, err := (&SetRetireAge{Age: 65}).Apply(base)
	require.NoError(t, err)
	assert.Equal(t, 65, out.Request.RetireAge)
}

func TestSpendingTransforms(t *testing.T) {
	base := createTestScenario()

	out, err := (&SetSpending{Amount: decimal.NewFromInt(150000)}).Apply(base)
	require.NoError(t, err)
	assert.Equal(t, 150000.0, out.Request.Spend)

	out, err = (&ScaleSpending{Factor: decimal.NewFromFloat(0.8)}).Apply(base)
	require.NoError(t, err)
	assert.Equal(t, 144000.0, out.Request.Spend)
	assert.Equal(t, "Change annual spending by -20%", (&ScaleSpending{Factor: decimal.NewFromFloat(0.8)}).Description())

	assert.Error(t, (&SetSpending{Amount: decimal.NewFromInt(-1)}).Validate(base))
	assert.Error(t, (&ScaleSpending{Factor: decimal.NewFromInt(-1)}).Validate(base))
}

func TestBenefitTransforms(t *testing.T) {
	base := createTestScenario()

	out, err := (&ScaleBenefit{Factor: decimal.NewFromFloat(0.75)}).Apply(base)
	require.NoError(t, err)
	assert.Equal(t, 45000.0, out.Request.SS70)

	out, err = (&SetBenefit{Amount: decimal.Zero}).Apply(base)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Request.SS70)
}

func TestAssetTransforms(t *testing.T) {
	base := createTestScenario()

	out, err := (&ScaleStocks{Factor: decimal.NewFromFloat(1.25)}).Apply(base)
	require.NoError(t, err)
	assert.Equal(t, 1125000.0, out.Request.StartStocks)

	assert.Error(t, (&AddStocks{Amount: decimal.NewFromInt(-1000000)}).Validate(base), "cannot go negative")
	assert.NoError(t, (&AddStocks{Amount: decimal.NewFromInt(-900000)}).Validate(base))

	out, err = (&SetCash{Amount: decimal.NewFromInt(250000)}).Apply(base)
	require.NoError(t, err)
	assert.Equal(t, 250000.0, out.Request.StartCash)
}

func TestAddCashYears(t *testing.T) {
	out, err := (&AddCashYears{Years: 2}).Apply(createTestScenario())

	require.NoError(t, err)
	assert.Equal(t, 860000.0, out.Request.StartCash, "two years of the 180k first-year need")
	assert.Error(t, (&AddCashYears{Years: -1}).Validate(createTestScenario()))
}

func TestFullBuffer(t *testing.T) {
	out, err := (&FullBuffer{}).Apply(createTestScenario())
	require.NoError(t, err)
	assert.Equal(t, 1800000.0, out.Request.StartCash, "ten years of 180k before the benefit starts")

	rich := createTestScenario()
	rich.Request.StartCash = 5000000
	out, err = (&FullBuffer{}).Apply(rich)
	require.NoError(t, err)
	assert.Equal(t, 5000000.0, out.Request.StartCash, "excess cash is kept")
}

func TestModifyMarket(t *testing.T) {
	base := createTestScenario()
	mean := decimal.NewFromFloat(0.03)

	out, err := (&ModifyMarket{Mean: &mean}).Apply(base)
	require.NoError(t, err)
	assert.Equal(t, 0.03, out.Market.Mean)
	assert.Equal(t, 0.18, out.Market.Stdev, "nil fields keep the base value")
	assert.Equal(t, "Set mean return 3.0%", (&ModifyMarket{Mean: &mean}).Description())

	assert.Error(t, (&ModifyMarket{}).Validate(base))
	bad := decimal.NewFromFloat(1.5)
	assert.Error(t, (&ModifyMarket{Stdev: &bad}).Validate(base))
}

func TestTransformError(t *testing.T) {
	cause := errors.New("underlying")
	err := NewTransformError("set_spend", "apply", "bad amount", cause)

	assert.Equal(t, "transform set_spend (apply): bad amount: underlying", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "transform set_spend (validate): x", NewTransformError("set_spend", "validate", "x", nil).Error())
}
