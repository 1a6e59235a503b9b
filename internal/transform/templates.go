package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// TemplateRegistry manages built-in scenario templates
type TemplateRegistry struct {
	templates map[string]Template
}

// Template represents a named collection of transforms
type Template struct {
	Name        string
	Description string
	Transforms  []ScenarioTransform
}

// NewTemplateRegistry creates an empty template registry
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]Template),
	}
}

// Register adds a template to the registry
func (tr *TemplateRegistry) Register(t Template) {
	tr.templates[strings.ToLower(t.Name)] = t
}

// Get retrieves a template by name (case-insensitive)
func (tr *TemplateRegistry) Get(name string) (Template, bool) {
	t, ok := tr.templates[strings.ToLower(name)]
	return t, ok
}

// List returns all registered template names in sorted order
func (tr *TemplateRegistry) List() []string {
	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func decPtr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

// CreateBuiltInTemplates creates a template registry with common what-if plans
func CreateBuiltInTemplates() *TemplateRegistry {
	registry := NewTemplateRegistry()

	for _, years := range []int{1, 2, 3} {
		registry.Register(Template{
			Name:        fmt.Sprintf("retire_later_%dyr", years),
			Description: fmt.Sprintf("Retire %d year(s) later", years),
			Transforms:  []ScenarioTransform{&PostponeRetirement{Years: years}},
		})
	}

	registry.Register(Template{
		Name:        "spend_minus_10pct",
		Description: "Spend 10% less every year",
		Transforms:  []ScenarioTransform{&ScaleSpending{Factor: dec(0.9)}},
	})
	registry.Register(Template{
		Name:        "spend_minus_20pct",
		Description: "Spend 20% less every year",
		Transforms:  []ScenarioTransform{&ScaleSpending{Factor: dec(0.8)}},
	})
	registry.Register(Template{
		Name:        "ss_minus_25pct",
		Description: "Social Security benefit cut by 25%",
		Transforms:  []ScenarioTransform{&ScaleBenefit{Factor: dec(0.75)}},
	})

	registry.Register(Template{
		Name:        "full_buffer",
		Description: "Start with a full 10-year cash buffer",
		Transforms:  []ScenarioTransform{&FullBuffer{}},
	})
	registry.Register(Template{
		Name:        "cash_plus_1yr",
		Description: "Add one year of first-year need to starting cash",
		Transforms:  []ScenarioTransform{&AddCashYears{Years: 1}},
	})
	registry.Register(Template{
		Name:        "stocks_plus_25pct",
		Description: "Start with 25% more stocks",
		Transforms:  []ScenarioTransform{&ScaleStocks{Factor: dec(1.25)}},
	})

	registry.Register(Template{
		Name:        "bear_market",
		Description: "Real stock returns average 3% instead of 5%",
		Transforms:  []ScenarioTransform{&ModifyMarket{Mean: decPtr(0.03)}},
	})
	registry.Register(Template{
		Name:        "volatile_market",
		Description: "Stock volatility of 22% instead of 18%",
		Transforms:  []ScenarioTransform{&ModifyMarket{Stdev: decPtr(0.22)}},
	})

	registry.Register(Template{
		Name:        "conservative",
		Description: "Retire 2 years later and spend 10% less",
		Transforms: []ScenarioTransform{
			&PostponeRetirement{Years: 2},
			&ScaleSpending{Factor: dec(0.9)},
		},
	})
	registry.Register(Template{
		Name:        "belt_and_braces",
		Description: "Full 10-year buffer and spend 10% less",
		Transforms: []ScenarioTransform{
			&ScaleSpending{Factor: dec(0.9)},
			&FullBuffer{},
		},
	})

	return registry
}

// ApplyTemplate applies a template to a base scenario. The result carries the template name.
func ApplyTemplate(base *Scenario, template Template) (*Scenario, error) {
	out, err := ApplyTransforms(base, template.Transforms)
	if err != nil {
		return nil, err
	}
	out.Name = template.Name
	return out, nil
}

// ParseTemplateList parses a comma-separated list of template names
func ParseTemplateList(templateList string) []string {
	if templateList == "" {
		return nil
	}

	parts := strings.Split(templateList, ",")
	templates := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			templates = append(templates, trimmed)
		}
	}
	return templates
}

// GetTemplateHelp returns formatted help text for all templates
func GetTemplateHelp(registry *TemplateRegistry) string {
	if len(registry.templates) == 0 {
		return "No templates registered"
	}

	var sb strings.Builder
	sb.WriteString("Available Templates:\n\n")

	categories := map[string][]Template{}
	for _, name := range registry.List() {
		t := registry.templates[name]
		categories[templateCategory(t.Name)] = append(categories[templateCategory(t.Name)], t)
	}

	for _, category := range []string{"Retirement Timing", "Spending & Benefits", "Cash & Stocks", "Market", "Combination Strategies"} {
		templates := categories[category]
		if len(templates) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("%s:\n", category))
		for _, t := range templates {
			sb.WriteString(fmt.Sprintf("  %-30s %s\n", t.Name, t.Description))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Usage:\n")
	sb.WriteString("  bufferplan compare plan.yaml --with retire_later_1yr,full_buffer\n")
	sb.WriteString("  bufferplan compare plan.yaml --with conservative --transform set_spend:amount=150000\n")

	return sb.String()
}

func templateCategory(name string) string {
	switch {
	case strings.HasPrefix(name, "retire_later_"):
		return "Retirement Timing"
	case strings.HasPrefix(name, "spend_"), strings.HasPrefix(name, "ss_"):
		return "Spending & Benefits"
	case strings.HasPrefix(name, "cash_"), strings.HasPrefix(name, "stocks_"), name == "full_buffer":
		return "Cash & Stocks"
	case strings.HasSuffix(name, "_market"):
		return "Market"
	default:
		return "Combination Strategies"
	}
}
