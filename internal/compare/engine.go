package compare

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/config"
	"github.com/rgehrsitz/bufferplan/internal/domain"
	"github.com/rgehrsitz/bufferplan/internal/planner"
	"github.com/rgehrsitz/bufferplan/internal/transform"
	"golang.org/x/sync/errgroup"
)

// CompareEngine orchestrates scenario comparison
type CompareEngine struct {
	Options           planner.Options
	Logger            calculation.Logger
	MetricsCalculator *MetricsCalculator
	TemplateRegistry  *transform.TemplateRegistry
	TransformRegistry *transform.TransformRegistry
	// Parallel bounds how many scenarios are evaluated at once.
	Parallel int
}

// NewCompareEngine creates a new comparison engine
func NewCompareEngine(opts planner.Options) *CompareEngine {
	return &CompareEngine{
		Options:           opts,
		Logger:            calculation.NopLogger{},
		MetricsCalculator: NewMetricsCalculator(),
		TemplateRegistry:  transform.CreateBuiltInTemplates(),
		TransformRegistry: transform.NewTransformRegistry(),
		Parallel:          2,
	}
}

// CompareOptions configures comparison behavior
type CompareOptions struct {
	BaseScenarioName string   // Name of the plan in the file to compare against
	Templates        []string // List of template names to apply
	Transforms       []string // Ad-hoc transform specs, each evaluated as its own alternative
}

// alternative is a scenario waiting to be evaluated.
type alternative struct {
	scenario    *transform.Scenario
	description string
}

// run evaluates one scenario with the scenario's market in place of the configured one.
func (ce *CompareEngine) run(ctx context.Context, s *transform.Scenario) (*domain.PlanResponse, error) {
	opts := ce.Options
	opts.Market = s.Market
	eng := planner.NewEngine(opts)
	eng.SetLogger(ce.Logger)
	return eng.Run(ctx, s.Request)
}

// Compare evaluates the base plan and one alternative per template or transform spec.
func (ce *CompareEngine) Compare(
	ctx context.Context,
	plans *config.PlanFile,
	options CompareOptions,
) (*ComparisonSet, error) {
	basePlan, err := plans.Find(options.BaseScenarioName)
	if err != nil {
		return nil, fmt.Errorf("base scenario: %w", err)
	}
	base := &transform.Scenario{Name: basePlan.Name, Request: basePlan.PlanRequest, Market: ce.Options.Market}

	alts := make([]alternative, 0, len(options.Templates)+len(options.Transforms))
	for _, templateName := range options.Templates {
		template, ok := ce.TemplateRegistry.Get(templateName)
		if !ok {
			return nil, fmt.Errorf("template %s not found", templateName)
		}
		modified, err := transform.ApplyTemplate(base, template)
		if err != nil {
			return nil, fmt.Errorf("failed to apply template %s: %w", templateName, err)
		}
		modified.Name = base.Name + "_" + template.Name
		alts = append(alts, alternative{scenario: modified, description: template.Description})
	}
	for _, spec := range options.Transforms {
		t, err := ce.TransformRegistry.ParseTransformSpec(spec)
		if err != nil {
			return nil, err
		}
		modified, err := transform.ApplyTransforms(base, []transform.ScenarioTransform{t})
		if err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", spec, err)
		}
		modified.Name = base.Name + "_" + t.Name()
		alts = append(alts, alternative{scenario: modified, description: t.Description()})
	}

	return ce.evaluate(ctx, base, basePlan.Description, alts)
}

// CompareScenarios compares explicit plans from the plan file (not using templates)
func (ce *CompareEngine) CompareScenarios(
	ctx context.Context,
	plans *config.PlanFile,
	baseScenarioName string,
	alternativeScenarioNames []string,
) (*ComparisonSet, error) {
	basePlan, err := plans.Find(baseScenarioName)
	if err != nil {
		return nil, fmt.Errorf("base scenario: %w", err)
	}
	if baseScenarioName == "" && len(alternativeScenarioNames) == 0 {
		for _, p := range plans.Plans[1:] {
			alternativeScenarioNames = append(alternativeScenarioNames, p.Name)
		}
	}

	alts := make([]alternative, 0, len(alternativeScenarioNames))
	for _, altName := range alternativeScenarioNames {
		p, err := plans.Find(altName)
		if err != nil {
			return nil, fmt.Errorf("alternative scenario: %w", err)
		}
		alts = append(alts, alternative{
			scenario:    &transform.Scenario{Name: p.Name, Request: p.PlanRequest, Market: ce.Options.Market},
			description: p.Description,
		})
	}

	base := &transform.Scenario{Name: basePlan.Name, Request: basePlan.PlanRequest, Market: ce.Options.Market}
	return ce.evaluate(ctx, base, basePlan.Description, alts)
}

func (ce *CompareEngine) evaluate(ctx context.Context, base *transform.Scenario, baseDescription string, alts []alternative) (*ComparisonSet, error) {
	log := calculation.OrNop(ce.Logger)

	baseResp, err := ce.run(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate base scenario: %w", err)
	}
	baseResult := ce.MetricsCalculator.CalculateMetrics(base, baseResp)
	baseResult.Description = baseDescription

	alternatives := make([]ComparisonResult, len(alts))
	g, gctx := errgroup.WithContext(ctx)
	if ce.Parallel > 0 {
		g.SetLimit(ce.Parallel)
	}
	for i, alt := range alts {
		g.Go(func() error {
			log.Debugf("evaluating scenario %s", alt.scenario.Name)
			resp, err := ce.run(gctx, alt.scenario)
			if err != nil {
				return fmt.Errorf("failed to calculate scenario %s: %w", alt.scenario.Name, err)
			}
			result := ce.MetricsCalculator.CalculateMetrics(alt.scenario, resp)
			result.Description = alt.description
			alternatives[i] = ce.MetricsCalculator.CalculateComparison(result, baseResult)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	compSet := &ComparisonSet{
		BaseScenarioName:   base.Name,
		BaseResult:         &baseResult,
		AlternativeResults: alternatives,
	}
	compSet.Recommendations = GenerateRecommendations(compSet)
	return compSet, nil
}
