package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rgehrsitz/bufferplan/internal/config"
	"github.com/rgehrsitz/bufferplan/internal/output"
	"github.com/rgehrsitz/bufferplan/internal/store"
	"github.com/rgehrsitz/bufferplan/internal/store/postgres"
	"github.com/spf13/cobra"
)

// openRunStore connects to the archive. Tests replace it with an in-memory store.
var openRunStore = func(ctx context.Context, cfg *config.ServiceConfig) (store.RunStore, func(), error) {
	dsn := cfg.PostgresDSN()
	if dsn == "" {
		return nil, nil, errors.New("run archive not configured (set [postgres] in the config or BUFFERPLAN_POSTGRES_DSN)")
	}
	pg, err := postgres.New(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.RunMigrations(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	return postgres.NewRunStore(pg.Pool()), pg.Close, nil
}

func withRunStore(cmd *cobra.Command, ro *rootOptions, fn func(store.RunStore) error) error {
	cfg, _, err := ro.load(cmd)
	if err != nil {
		return err
	}
	rs, closeFn, err := openRunStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	return fn(rs)
}

func runsCmd(ro *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect archived runs",
	}
	cmd.AddCommand(runsListCmd(ro), runsShowCmd(ro))
	return cmd
}

func runsListCmd(ro *rootOptions) *cobra.Command {
	var (
		limit, offset int
		format        string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunStore(cmd, ro, func(rs store.RunStore) error {
				runs, err := rs.List(cmd.Context(), store.ListOpts{Limit: limit, Offset: offset})
				if err != nil {
					return err
				}
				if format == "json" {
					data, err := json.MarshalIndent(runs, "", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), formatRunList(runs))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "runs to skip")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table or json")
	return cmd
}

func formatRunList(runs []store.RunSummary) string {
	if len(runs) == 0 {
		return "No archived runs.\n"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-36s  %-16s  %-20s %8s %16s\n", "ID", "Created", "Name", "Success", "Stocks Needed"))
	sb.WriteString(strings.Repeat("-", 102) + "\n")
	for _, r := range runs {
		needed := output.FormatMoney(r.StartStocksNeeded)
		if !r.Feasible90 {
			needed = "infeasible"
		}
		sb.WriteString(fmt.Sprintf("%-36s  %-16s  %-20s %8s %16s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Name, output.FormatPercent(r.SuccessPct), needed))
	}
	return sb.String()
}

func runsShowCmd(ro *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show an archived run in any report format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", args[0], err)
			}
			f := output.GetFormatterByName(format)
			if f == nil || f.Name() == "pdf" {
				return fmt.Errorf("unsupported format %q", format)
			}
			return withRunStore(cmd, ro, func(rs store.RunStore) error {
				run, err := rs.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				report := output.NewReport(run.Request, run.Response, run.Market, run.CreatedAt)
				report.Name = run.Name
				data, err := f.Format(report)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "console", "report format (any except pdf)")
	return cmd
}
