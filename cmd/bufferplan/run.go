package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/config"
	"github.com/rgehrsitz/bufferplan/internal/domain"
	"github.com/rgehrsitz/bufferplan/internal/output"
	"github.com/rgehrsitz/bufferplan/internal/planner"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// referencePlan is used when no plan file is given; flags override its fields.
func referencePlan() domain.PlanRequest {
	return domain.PlanRequest{
		Age:         52,
		RetireAge:   60,
		Spend:       180000,
		SS70:        60000,
		StartCash:   500000,
		StartStocks: 900000,
	}
}

// planInput resolves a plan from an optional plan file plus flag overrides.
type planInput struct {
	planPath string
	name     string

	age, retireAge int
	spend, ss70    float64
	cash, stocks   float64
	mean, stdev    float64
	flags          *pflag.FlagSet
}

func (pi *planInput) bind(fs *pflag.FlagSet) {
	pi.flags = fs
	fs.StringVarP(&pi.planPath, "plan", "p", "", "plan file (YAML)")
	fs.StringVarP(&pi.name, "name", "n", "", "plan name within the plan file (default: first plan)")
	fs.IntVar(&pi.age, "age", 0, "current age")
	fs.IntVar(&pi.retireAge, "retire-age", 0, "retirement age")
	fs.Float64Var(&pi.spend, "spend", 0, "annual spending in today's dollars")
	fs.Float64Var(&pi.ss70, "ss70", 0, "annual Social Security benefit at 70")
	fs.Float64Var(&pi.cash, "cash", 0, "starting cash")
	fs.Float64Var(&pi.stocks, "stocks", 0, "starting stocks")
	fs.Float64Var(&pi.mean, "mean", 0, "mean real stock return (overrides config)")
	fs.Float64Var(&pi.stdev, "stdev", 0, "stdev of real stock return (overrides config)")
}

func (pi *planInput) changed(name string) bool {
	return pi.flags != nil && pi.flags.Changed(name)
}

// resolve returns the plan name and request after overrides, validated.
func (pi *planInput) resolve() (string, domain.PlanRequest, error) {
	name := pi.name
	req := referencePlan()
	if pi.planPath != "" {
		pf, err := config.NewInputParser().LoadFromFile(pi.planPath)
		if err != nil {
			return "", req, err
		}
		p, err := pf.Find(pi.name)
		if err != nil {
			return "", req, err
		}
		name, req = p.Name, p.PlanRequest
	}

	if pi.changed("age") {
		req.Age = pi.age
	}
	if pi.changed("retire-age") {
		req.RetireAge = pi.retireAge
	}
	if pi.changed("spend") {
		req.Spend = pi.spend
	}
	if pi.changed("ss70") {
		req.SS70 = pi.ss70
	}
	if pi.changed("cash") {
		req.StartCash = pi.cash
	}
	if pi.changed("stocks") {
		req.StartStocks = pi.stocks
	}
	if err := req.Validate(); err != nil {
		return "", req, err
	}
	return name, req, nil
}

// applyMarket overrides the engine's market assumptions from flags.
func (pi *planInput) applyMarket(eng *planner.Engine) {
	if pi.changed("mean") {
		eng.Options.Market.Mean = pi.mean
	}
	if pi.changed("stdev") {
		eng.Options.Market.Stdev = pi.stdev
	}
}

func runCmd(ro *rootOptions) *cobra.Command {
	pi := &planInput{}
	var (
		format   string
		save     bool
		savePlan string
		progress bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full plan: success odds, stocks and cash needed, bands and baseline",
		Long: `Run the full plan engine on one plan.

Examples:
  bufferplan run --plan plans.yaml --name early
  bufferplan run --spend 150000 --stocks 1200000 --format json
  bufferplan run --plan plans.yaml --format pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.GetFormatterByName(format)
			if f == nil {
				return fmt.Errorf("unsupported format %q (available: %s; aliases: %s)", format,
					strings.Join(output.AvailableFormatterNames(), ", "),
					strings.Join(output.AvailableFormatAliases(), ", "))
			}

			name, req, err := pi.resolve()
			if err != nil {
				return err
			}
			if savePlan != "" {
				planName := name
				if planName == "" {
					planName = "plan"
				}
				pf := &config.PlanFile{Plans: []config.NamedPlan{{Name: planName, PlanRequest: req}}}
				if err := config.NewInputParser().SaveToFile(pf, savePlan); err != nil {
					return err
				}
			}
			eng, _, logger, err := ro.engine(cmd)
			if err != nil {
				return err
			}
			pi.applyMarket(eng)
			if progress {
				eng = eng.WithProgress(stageReporter(cmd))
			}

			start := time.Now()
			resp, err := eng.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			logger.Debug("run complete", "plan", name, "elapsed", time.Since(start).Round(time.Millisecond))

			report := output.NewReport(req, resp, eng.Options.Market, time.Now())
			report.Name = name

			// Binary formats always go to a file.
			if save || f.Name() == "pdf" {
				filename, err := output.WriteFormatted(f, report, output.Extension(f))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", filename)
				return nil
			}
			data, err := f.Format(report)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	pi.bind(cmd.Flags())
	cmd.Flags().StringVarP(&format, "format", "f", "console", "output format: console, console-lite, console-debug, csv, bands-csv, json, html, pdf")
	cmd.Flags().BoolVar(&save, "save", false, "write the report to a timestamped file")
	cmd.Flags().StringVar(&savePlan, "save-plan", "", "also write the resolved plan (after flag overrides) to this plan file")
	cmd.Flags().BoolVar(&progress, "progress", false, "print solver stages to stderr")
	return cmd
}

// stageReporter prints one line per stage change.
func stageReporter(cmd *cobra.Command) calculation.ProgressFunc {
	var last calculation.Stage
	return func(ev calculation.ProgressEvent) {
		if ev.Stage == last {
			return
		}
		last = ev.Stage
		fmt.Fprintf(cmd.ErrOrStderr(), "... %s\n", ev.Stage)
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [plan-file]",
		Short: "Validate a plan file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, err := config.NewInputParser().LoadFromFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plan file is valid (%d plan(s))\n", len(pf.Plans))
			year := time.Now().Year()
			for _, p := range pf.Plans {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %s\n", p.Name, output.DeriveHints(p.PlanRequest, year))
			}
			return nil
		},
	}
}
