package main

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/compare"
	"github.com/rgehrsitz/bufferplan/internal/config"
	"github.com/rgehrsitz/bufferplan/internal/transform"
	"github.com/spf13/cobra"
)

func compareCmd(ro *rootOptions) *cobra.Command {
	var (
		base          string
		with          string
		transforms    []string
		scenarios     string
		format        string
		listTemplates bool
		responses     bool
		parallel      int
	)
	cmd := &cobra.Command{
		Use:   "compare [plan-file]",
		Short: "Compare a base plan against templates, transforms or other plans",
		Long: `Compare a base plan against alternative strategies.

With --with or --transform, each template or transform becomes an alternative of
the base plan. Without them, the other plans in the file are compared against the
base (or the plans named by --scenarios).

Examples:
  bufferplan compare plans.yaml --base early --with retire_later_1yr,full_buffer
  bufferplan compare plans.yaml --base early --transform set_spend:amount=150000 --format csv
  bufferplan compare plans.yaml --base early --scenarios frugal,late
  bufferplan compare --list-templates`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if listTemplates {
				fmt.Fprint(cmd.OutOrStdout(), transform.GetTemplateHelp(transform.CreateBuiltInTemplates()))
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("plan file required for comparison (use --list-templates to see available templates)")
			}

			pf, err := config.NewInputParser().LoadFromFile(args[0])
			if err != nil {
				return err
			}
			cfg, logger, err := ro.load(cmd)
			if err != nil {
				return err
			}

			ce := compare.NewCompareEngine(cfg.EngineOptions())
			ce.Logger = calculation.SlogLogger{L: logger}
			if parallel > 0 {
				ce.Parallel = parallel
			}

			templateNames := transform.ParseTemplateList(with)
			var compSet *compare.ComparisonSet
			if len(templateNames) > 0 || len(transforms) > 0 {
				compSet, err = ce.Compare(cmd.Context(), pf, compare.CompareOptions{
					BaseScenarioName: base,
					Templates:        templateNames,
					Transforms:       transforms,
				})
			} else {
				compSet, err = ce.CompareScenarios(cmd.Context(), pf, base, transform.ParseTemplateList(scenarios))
			}
			if err != nil {
				return fmt.Errorf("comparison failed: %w", err)
			}
			compSet.PlanPath = args[0]

			return printComparison(cmd, format, compSet, responses)
		},
	}
	cmd.Flags().StringVar(&base, "base", "", "base plan name (default: first plan)")
	cmd.Flags().StringVar(&with, "with", "", "comma-separated templates to compare")
	cmd.Flags().StringArrayVar(&transforms, "transform", nil, "transform spec such as set_spend:amount=150000 (repeatable)")
	cmd.Flags().StringVar(&scenarios, "scenarios", "", "comma-separated plan names to compare against the base")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, compact, csv, json")
	cmd.Flags().BoolVar(&listTemplates, "list-templates", false, "list all available templates")
	cmd.Flags().BoolVar(&responses, "responses", false, "with --format json, include each scenario's full engine response")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "scenarios evaluated at once (default 2)")
	return cmd
}

func printComparison(cmd *cobra.Command, format string, compSet *compare.ComparisonSet, responses bool) error {
	switch strings.ToLower(format) {
	case "csv":
		out, err := (&compare.CSVFormatter{}).Format(compSet)
		if err != nil {
			return fmt.Errorf("failed to format CSV: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
	case "json":
		out, err := (&compare.JSONFormatter{Pretty: true, IncludeResponses: responses}).Format(compSet)
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	case "compact":
		fmt.Fprintln(cmd.OutOrStdout(), (&compare.TableFormatter{}).FormatCompact(compSet))
	case "table", "console", "":
		fmt.Fprint(cmd.OutOrStdout(), (&compare.TableFormatter{}).Format(compSet))
	default:
		return fmt.Errorf("unknown output format: %s (valid: table, compact, csv, json)", format)
	}
	return nil
}
