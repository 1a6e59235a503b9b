package main

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/rgehrsitz/bufferplan/internal/output"
	"github.com/spf13/cobra"
)

// sweepPoint is one grid cell of a sweep.
type sweepPoint struct {
	Cash       float64
	Stocks     float64
	SuccessPct float64
	SE         float64
}

// sweepGrid returns from, from+step, ... up to and including to.
func sweepGrid(from, to, step float64) ([]float64, error) {
	if step <= 0 {
		return nil, fmt.Errorf("step must be positive")
	}
	if to < from {
		return nil, fmt.Errorf("to (%.0f) must not be below from (%.0f)", to, from)
	}
	var grid []float64
	for i := 0; ; i++ {
		v := from + float64(i)*step
		if v > to+step*1e-9 {
			break
		}
		grid = append(grid, v)
	}
	return grid, nil
}

func sweepCmd(ro *rootOptions) *cobra.Command {
	pi := &planInput{}
	var (
		axis           string
		from, to, step float64
		trials         int
		format         string
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Success rate across a grid of stock or cash levels",
		Long: `Run the Monte Carlo aggregator alone over a grid of stock or cash levels,
holding the other at the plan's value. Every point uses the solver seed, so a
sweep shows whether success rises monotonically with money.

Examples:
  bufferplan sweep --axis stocks --from 500000 --to 3000000 --step 250000
  bufferplan sweep --axis cash --from 0 --to 1500000 --step 100000 --format csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if axis != "stocks" && axis != "cash" {
				return fmt.Errorf("--axis must be stocks or cash, got %q", axis)
			}
			grid, err := sweepGrid(from, to, step)
			if err != nil {
				return err
			}
			_, req, err := pi.resolve()
			if err != nil {
				return err
			}
			eng, _, logger, err := ro.engine(cmd)
			if err != nil {
				return err
			}
			pi.applyMarket(eng)
			if trials <= 0 {
				trials = eng.Options.SuccessTrials
			}

			points := make([]sweepPoint, 0, len(grid))
			for _, v := range grid {
				cash, stocks := req.StartCash, req.StartStocks
				if axis == "stocks" {
					stocks = v
				} else {
					cash = v
				}
				agg, err := eng.SuccessAt(cmd.Context(), req, cash, stocks, trials)
				if err != nil {
					return err
				}
				logger.Debug("sweep point", "cash", cash, "stocks", stocks, "success", agg.SuccessPct)
				points = append(points, sweepPoint{Cash: cash, Stocks: stocks, SuccessPct: agg.SuccessPct, SE: agg.StandardError})
			}

			switch format {
			case "table":
				fmt.Fprint(cmd.OutOrStdout(), formatSweepTable(axis, trials, points))
				return nil
			case "csv":
				return writeSweepCSV(cmd, points)
			default:
				return fmt.Errorf("unsupported format %q (use table or csv)", format)
			}
		},
	}
	pi.bind(cmd.Flags())
	cmd.Flags().StringVar(&axis, "axis", "stocks", "which amount to vary: stocks or cash")
	cmd.Flags().Float64Var(&from, "from", 0, "first grid value")
	cmd.Flags().Float64Var(&to, "to", 3000000, "last grid value")
	cmd.Flags().Float64Var(&step, "step", 250000, "grid step")
	cmd.Flags().IntVar(&trials, "trials", 0, "trials per point (default: engine success trials)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table or csv")
	return cmd
}

func formatSweepTable(axis string, trials int, points []sweepPoint) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("SUCCESS SWEEP (%s, %d trials per point)\n", axis, trials))
	sb.WriteString(strings.Repeat("=", 56) + "\n")
	sb.WriteString(fmt.Sprintf("%16s %16s %10s %8s\n", "Cash", "Stocks", "Success", "SE"))
	sb.WriteString(strings.Repeat("-", 56) + "\n")
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("%16s %16s %10s %8.2f\n",
			output.FormatMoney(p.Cash), output.FormatMoney(p.Stocks), output.FormatPercent(p.SuccessPct), p.SE))
	}
	return sb.String()
}

func writeSweepCSV(cmd *cobra.Command, points []sweepPoint) error {
	w := csv.NewWriter(cmd.OutOrStdout())
	if err := w.Write([]string{"cash", "stocks", "success_pct", "standard_error"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := w.Write([]string{
			strconv.FormatFloat(p.Cash, 'f', 0, 64),
			strconv.FormatFloat(p.Stocks, 'f', 0, 64),
			strconv.FormatFloat(p.SuccessPct, 'f', 2, 64),
			strconv.FormatFloat(p.SE, 'f', 3, 64),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
