package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/config"
	"github.com/rgehrsitz/bufferplan/internal/planner"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	debug      bool
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bufferplan %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

func newRootCmd() *cobra.Command {
	ro := &rootOptions{}
	root := &cobra.Command{
		Use:   "bufferplan",
		Short: "Cash buffer and stock portfolio retirement planner",
		Long: `Estimate whether a cash buffer plus a stock portfolio can carry a fixed real
spending plan to age 95 under randomized returns, and solve for the stocks and the
cash needed to reach a 90% chance of success.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&ro.configPath, "config", "", "service config file (TOML)")
	root.PersistentFlags().BoolVar(&ro.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		runCmd(ro),
		validateCmd(),
		solveCmd(ro),
		sweepCmd(ro),
		compareCmd(ro),
		serveCmd(ro),
		runsCmd(ro),
		versionCmd(),
	)
	return root
}

// load reads the service config and builds the logger the command should use.
func (ro *rootOptions) load(cmd *cobra.Command) (*config.ServiceConfig, *slog.Logger, error) {
	cfg, err := config.LoadService(ro.configPath)
	if err != nil {
		return nil, nil, err
	}
	level := calculation.ParseLevel(cfg.LogLevel)
	if ro.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}

// engine builds a plan engine from the service config with engine logging routed to slog.
func (ro *rootOptions) engine(cmd *cobra.Command) (*planner.Engine, *config.ServiceConfig, *slog.Logger, error) {
	cfg, logger, err := ro.load(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	eng := planner.NewEngine(cfg.EngineOptions())
	eng.SetLogger(calculation.SlogLogger{L: logger})
	return eng, cfg, logger, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
