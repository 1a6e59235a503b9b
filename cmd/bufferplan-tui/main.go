package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/config"
	"github.com/rgehrsitz/bufferplan/internal/planner"
	"github.com/rgehrsitz/bufferplan/internal/transform"
	"github.com/rgehrsitz/bufferplan/internal/tui"
)

func newRootCmd() *cobra.Command {
	var (
		configPath string
		planName   string
		with       string
		logFile    string
	)
	cmd := &cobra.Command{
		Use:   "bufferplan-tui [plan-file]",
		Short: "Interactive cash buffer planner",
		Long: `Enter a plan, watch the solver work, then browse the results, the
year-by-year median path and a comparison against common variations.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadService(configPath)
			if err != nil {
				return err
			}

			// The screen belongs to the TUI, so engine logs go to a file or nowhere.
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				logOut = f
			}
			logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: calculation.ParseLevel(cfg.LogLevel)}))

			eng := planner.NewEngine(cfg.EngineOptions())
			eng.SetLogger(calculation.SlogLogger{L: logger})

			opts := tui.Options{
				PlanName:  planName,
				Engine:    eng,
				Templates: transform.ParseTemplateList(with),
			}
			if len(args) == 1 {
				opts.PlanPath = args[0]
			}

			p := tea.NewProgram(tui.NewModel(opts), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "service config file (TOML)")
	cmd.Flags().StringVarP(&planName, "name", "n", "", "plan name within the plan file")
	cmd.Flags().StringVar(&with, "with", "", "comma-separated templates for the compare screen")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write engine logs to this file")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
