package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// TransformRegistry provides a central registry for all available transforms.
// It enables creation of transforms from string parameters, useful for CLI commands.
type TransformRegistry struct {
	factories map[string]TransformFactory
}

// TransformFactory is a function that creates a transform from parameters.
type TransformFactory func(params map[string]string) (ScenarioTransform, error)

// NewTransformRegistry creates a new registry with all built-in transforms registered.
func NewTransformRegistry() *TransformRegistry {
	registry := &TransformRegistry{
		factories: make(map[string]TransformFactory),
	}

	registry.Register("postpone_retirement", createPostponeRetirement)
	registry.Register("set_retire_age", createSetRetireAge)
	registry.Register("set_spend", amountFactory("set_spend", func(d decimal.Decimal) ScenarioTransform { return &SetSpending{Amount: d} }))
	registry.Register("scale_spend", factorFactory("scale_spend", func(d decimal.Decimal) ScenarioTransform { return &ScaleSpending{Factor: d} }))
	registry.Register("set_ss70", amountFactory("set_ss70", func(d decimal.Decimal) ScenarioTransform { return &SetBenefit{Amount: d} }))
	registry.Register("scale_ss70", factorFactory("scale_ss70", func(d decimal.Decimal) ScenarioTransform { return &ScaleBenefit{Factor: d} }))
	registry.Register("add_stocks", amountFactory("add_stocks", func(d decimal.Decimal) ScenarioTransform { return &AddStocks{Amount: d} }))
	registry.Register("scale_stocks", factorFactory("scale_stocks", func(d decimal.Decimal) ScenarioTransform { return &ScaleStocks{Factor: d} }))
	registry.Register("set_cash", amountFactory("set_cash", func(d decimal.Decimal) ScenarioTransform { return &SetCash{Amount: d} }))
	registry.Register("add_cash_years", createAddCashYears)
	registry.Register("full_buffer", func(map[string]string) (ScenarioTransform, error) { return &FullBuffer{}, nil })
	registry.Register("modify_market", createModifyMarket)

	return registry
}

// Register adds a transform factory to the registry.
func (r *TransformRegistry) Register(name string, factory TransformFactory) {
	r.factories[name] = factory
}

// Create creates a transform by name with the given parameters.
func (r *TransformRegistry) Create(name string, params map[string]string) (ScenarioTransform, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown transform: %s", name)
	}

	return factory(params)
}

// List returns the names of all registered transforms in sorted order.
func (r *TransformRegistry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseTransformSpec parses a transform specification string.
// Format: "transform_name:param1=value1,param2=value2"; transforms without
// parameters may omit the colon.
// Example: "set_spend:amount=150000"
func (r *TransformRegistry) ParseTransformSpec(spec string) (ScenarioTransform, error) {
	name, paramsStr, _ := strings.Cut(spec, ":")
	name = strings.TrimSpace(name)
	paramsStr = strings.TrimSpace(paramsStr)
	if name == "" {
		return nil, fmt.Errorf("invalid transform spec format, expected 'name:params', got: %s", spec)
	}

	params := make(map[string]string)
	if paramsStr != "" {
		for _, paramPair := range strings.Split(paramsStr, ",") {
			k, v, ok := strings.Cut(paramPair, "=")
			if !ok {
				return nil, fmt.Errorf("invalid parameter format, expected 'key=value', got: %s", paramPair)
			}
			params[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}

	return r.Create(name, params)
}

// Factory functions for each transform

func intParam(transform string, params map[string]string, key string) (int, error) {
	s, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%s requires '%s' parameter", transform, key)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return n, nil
}

func decimalParam(transform string, params map[string]string, key string) (decimal.Decimal, error) {
	s, ok := params[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("%s requires '%s' parameter", transform, key)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return d, nil
}

func amountFactory(name string, build func(decimal.Decimal) ScenarioTransform) TransformFactory {
	return func(params map[string]string) (ScenarioTransform, error) {
		d, err := decimalParam(name, params, "amount")
		if err != nil {
			return nil, err
		}
		return build(d), nil
	}
}

func factorFactory(name string, build func(decimal.Decimal) ScenarioTransform) TransformFactory {
	return func(params map[string]string) (ScenarioTransform, error) {
		d, err := decimalParam(name, params, "factor")
		if err != nil {
			return nil, err
		}
		return build(d), nil
	}
}

func createPostponeRetirement(params map[string]string) (ScenarioTransform, error) {
	years, err := intParam("postpone_retirement", params, "years")
	if err != nil {
		return nil, err
	}
	return &PostponeRetirement{Years: years}, nil
}

func createSetRetireAge(params map[string]string) (ScenarioTransform, error) {
	age, err := intParam("set_retire_age", params, "age")
	if err != nil {
		return nil, err
	}
	return &SetRetireAge{Age: age}, nil
}

func createAddCashYears(params map[string]string) (ScenarioTransform, error) {
	years, err := intParam("add_cash_years", params, "years")
	if err != nil {
		return nil, err
	}
	return &AddCashYears{Years: years}, nil
}

func createModifyMarket(params map[string]string) (ScenarioTransform, error) {
	mm := &ModifyMarket{}
	if _, ok := params["mean"]; ok {
		d, err := decimalParam("modify_market", params, "mean")
		if err != nil {
			return nil, err
		}
		mm.Mean = &d
	}
	if _, ok := params["stdev"]; ok {
		d, err := decimalParam("modify_market", params, "stdev")
		if err != nil {
			return nil, err
		}
		mm.Stdev = &d
	}
	if mm.Mean == nil && mm.Stdev == nil {
		return nil, fmt.Errorf("modify_market requires 'mean' or 'stdev' parameter")
	}
	return mm, nil
}
