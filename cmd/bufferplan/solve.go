package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rgehrsitz/bufferplan/internal/breakeven"
	"github.com/spf13/cobra"
)

func solveCmd(ro *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve for the stocks or cash needed to reach the target success rate",
	}
	cmd.AddCommand(solveStocksCmd(ro), solveCashCmd(ro), solveFrontierCmd(ro))
	return cmd
}

// printSolve writes a solver result as a table or JSON.
func printSolve(cmd *cobra.Command, format string, result any, table func(*breakeven.TableFormatter) string) error {
	switch format {
	case "table", "":
		fmt.Fprint(cmd.OutOrStdout(), table(&breakeven.TableFormatter{}))
		return nil
	case "json":
		out, err := (&breakeven.JSONFormatter{Pretty: true}).Format(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (use table or json)", format)
	}
}

func solveStocksCmd(ro *rootOptions) *cobra.Command {
	pi := &planInput{}
	var format string
	cmd := &cobra.Command{
		Use:   "stocks",
		Short: "Stocks needed at the plan's cash (or --cash)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, req, err := pi.resolve()
			if err != nil {
				return err
			}
			eng, _, _, err := ro.engine(cmd)
			if err != nil {
				return err
			}
			pi.applyMarket(eng)

			res, err := eng.SolveStocks(cmd.Context(), req, req.StartCash)
			if err != nil {
				return err
			}
			return printSolve(cmd, format, res, func(tf *breakeven.TableFormatter) string {
				return tf.FormatStock(res, eng.Options.TargetPct)
			})
		},
	}
	pi.bind(cmd.Flags())
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table or json")
	return cmd
}

func solveCashCmd(ro *rootOptions) *cobra.Command {
	pi := &planInput{}
	var format string
	cmd := &cobra.Command{
		Use:   "cash",
		Short: "Minimum cash at which the target becomes reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, req, err := pi.resolve()
			if err != nil {
				return err
			}
			eng, _, _, err := ro.engine(cmd)
			if err != nil {
				return err
			}
			pi.applyMarket(eng)

			res, err := eng.SolveCash(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printSolve(cmd, format, res, func(tf *breakeven.TableFormatter) string {
				return tf.FormatCash(res)
			})
		},
	}
	pi.bind(cmd.Flags())
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table or json")
	return cmd
}

func solveFrontierCmd(ro *rootOptions) *cobra.Command {
	pi := &planInput{}
	var (
		format string
		levels string
	)
	cmd := &cobra.Command{
		Use:   "frontier",
		Short: "Stocks needed across several cash levels",
		Long: `Solve the stocks needed at each of several cash levels.

Example:
  bufferplan solve frontier --plan plans.yaml --levels 0,250000,500000,1000000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cash, err := parseAmounts(levels)
			if err != nil {
				return fmt.Errorf("--levels: %w", err)
			}
			_, req, err := pi.resolve()
			if err != nil {
				return err
			}
			eng, _, _, err := ro.engine(cmd)
			if err != nil {
				return err
			}
			pi.applyMarket(eng)

			f, err := eng.Frontier(cmd.Context(), req, cash)
			if err != nil {
				return err
			}
			return printSolve(cmd, format, f, func(tf *breakeven.TableFormatter) string {
				return tf.FormatFrontier(f)
			})
		},
	}
	pi.bind(cmd.Flags())
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table or json")
	cmd.Flags().StringVar(&levels, "levels", "0,250000,500000,1000000", "comma-separated cash levels")
	return cmd
}

// parseAmounts parses a comma-separated list of non-negative dollar amounts.
func parseAmounts(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q", part)
		}
		if v < 0 {
			return nil, fmt.Errorf("amount %q must be non-negative", part)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one amount is required")
	}
	return out, nil
}
