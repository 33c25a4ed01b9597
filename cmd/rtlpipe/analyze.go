package main

import (
	"fmt"

	"github.com/llstack/rtlpipe/internal/analyzer"
	"github.com/llstack/rtlpipe/internal/config"
	"github.com/llstack/rtlpipe/internal/output"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [log]",
		Short: "Summarize a FIFO simulation log without running the pipeline",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAnalyze,
	}
	cmd.Flags().Int("limit", 0, "number of records to display (defaults to the configured display count)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("parse --limit: %w", err)
	}
	if limit <= 0 {
		limit = cfg.Analysis.Display
	}

	var res analyzer.Result
	if len(args) == 1 {
		res, err = analyzer.AnalyzeFile(cfg.Abs(args[0]))
		if err != nil {
			return fmt.Errorf("%w; run the simulation first", err)
		}
	} else {
		res, err = analyzer.Analyze(cfg.Root, cfg.Analysis.Candidates)
		if err != nil {
			return err
		}
	}

	if cfg.Format == config.FormatJSON {
		return output.NewJSON(cmd.OutOrStdout()).RenderAnalysis(res)
	}
	return output.NewPretty(cmd.OutOrStdout()).RenderAnalysis(res, limit)
}
