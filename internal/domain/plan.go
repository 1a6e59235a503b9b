package domain

import (
	"fmt"
	"strings"
)

// HorizonAge is the age at which every plan ends.
const HorizonAge = 95

// BenefitStartAge is the age from which the ss70 benefit offsets spending.
const BenefitStartAge = 70

// BufferYears is the longest stretch of future needs the cash buffer is ever asked to hold.
const BufferYears = 10

// PlanRequest holds the six user inputs for one engine run.
type PlanRequest struct {
	Age         int     `json:"age" yaml:"age"`
	RetireAge   int     `json:"retireAge" yaml:"retire_age"`
	Spend       float64 `json:"spend" yaml:"spend"`
	SS70        float64 `json:"ss70" yaml:"ss70"`
	StartCash   float64 `json:"startCash" yaml:"start_cash"`
	StartStocks float64 `json:"startStocks" yaml:"start_stocks"`
}

// Horizon returns the number of simulated retirement years.
func (r PlanRequest) Horizon() int {
	return max(0, HorizonAge-r.RetireAge)
}

// YearsToRetirement is zero when the person is already retired.
func (r PlanRequest) YearsToRetirement() int {
	return max(0, r.RetireAge-r.Age)
}

// RetirementYear returns the calendar year in which retirement year one falls.
func (r PlanRequest) RetirementYear(currentYear int) int {
	return currentYear + r.YearsToRetirement()
}

// BenefitStartYear returns the calendar year the benefit begins, given the current year.
func (r PlanRequest) BenefitStartYear(currentYear int) int {
	return currentYear + max(0, BenefitStartAge-r.Age)
}

// ValidationError collects every problem found in a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid plan: " + strings.Join(e.Problems, "; ")
}

// Validate checks the input rules enforced by the entry form.
func (r PlanRequest) Validate() error {
	var problems []string
	if r.Age < 0 {
		problems = append(problems, fmt.Sprintf("age must be non-negative, got %d", r.Age))
	}
	if r.RetireAge < r.Age {
		problems = append(problems, fmt.Sprintf("retirement age (%d) cannot be before current age (%d)", r.RetireAge, r.Age))
	}
	amounts := []struct {
		name  string
		value float64
	}{
		{"spend", r.Spend},
		{"ss70", r.SS70},
		{"start cash", r.StartCash},
		{"start stocks", r.StartStocks},
	}
	for _, a := range amounts {
		if a.value < 0 {
			problems = append(problems, fmt.Sprintf("%s must be non-negative, got %.2f", a.name, a.value))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
