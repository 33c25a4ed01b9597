package main

import (
	"fmt"

	"github.com/llstack/rtlpipe/internal/config"
	"github.com/llstack/rtlpipe/internal/output"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded pipeline runs, or the phases of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistory,
	}
	cmd.Flags().Int("limit", 20, "number of runs to show")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("parse --limit: %w", err)
	}

	history, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer history.Close()

	if len(args) == 1 {
		run, err := history.Run(args[0])
		if err != nil {
			return err
		}
		phases, err := history.Phases(run.ID)
		if err != nil {
			return err
		}
		if cfg.Format == config.FormatJSON {
			return output.NewJSON(cmd.OutOrStdout()).RenderRunDetail(output.RunDetail{Run: run, Phases: phases})
		}
		return output.NewPretty(cmd.OutOrStdout()).RenderRunDetail(run, phases)
	}

	runs, err := history.Runs(limit)
	if err != nil {
		return err
	}
	if cfg.Format == config.FormatJSON {
		return output.NewJSON(cmd.OutOrStdout()).RenderHistory(output.History{Runs: runs})
	}
	return output.NewPretty(cmd.OutOrStdout()).RenderHistory(runs)
}
