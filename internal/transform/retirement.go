package transform

import (
	"fmt"

	"github.com/rgehrsitz/bufferplan/internal/domain"
)

// PostponeRetirement delays retirement by whole years.
// This is useful for exploring "work one more year" scenarios.
type PostponeRetirement struct {
	Years int
}

func (pt *PostponeRetirement) Name() string {
	return "postpone_retirement"
}

func (pt *PostponeRetirement) Description() string {
	return fmt.Sprintf("Postpone retirement by %d year(s)", pt.Years)
}

func (pt *PostponeRetirement) Validate(base *Scenario) error {
	if pt.Years < 0 {
		return NewTransformError(pt.Name(), "validate", fmt.Sprintf("years must be non-negative, got %d", pt.Years), nil)
	}
	return requireBase(pt.Name(), base)
}

func (pt *PostponeRetirement) Apply(base *Scenario) (*Scenario, error) {
	modified := base.DeepCopy()
	modified.Request.RetireAge += pt.Years
	return modified, nil
}

// SetRetireAge sets the retirement age to an absolute value.
// Unlike PostponeRetirement which is relative, this sets an exact age.
type SetRetireAge struct {
	Age int
}

func (sra *SetRetireAge) Name() string {
	return "set_retire_age"
}

func (sra *SetRetireAge) Description() string {
	return fmt.Sprintf("Retire at age %d", sra.Age)
}

func (sra *SetRetireAge) Validate(base *Scenario) error {
	if err := requireBase(sra.Name(), base); err != nil {
		return err
	}
	if sra.Age < base.Request.Age {
		return NewTransformError(sra.Name(), "validate",
			fmt.Sprintf("retirement age %d is before current age %d", sra.Age, base.Request.Age), nil)
	}
	if sra.Age > domain.HorizonAge {
		return NewTransformError(sra.Name(), "validate",
			fmt.Sprintf("retirement age %d is past the planning horizon %d", sra.Age, domain.HorizonAge), nil)
	}
	return nil
}

func (sra *SetRetireAge) Apply(base *Scenario) (*Scenario, error) {
	modified := base.DeepCopy()
	modified.Request.RetireAge = sra.Age
	return modified, nil
}
