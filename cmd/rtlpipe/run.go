package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/llstack/rtlpipe/internal/analyzer"
	"github.com/llstack/rtlpipe/internal/config"
	"github.com/llstack/rtlpipe/internal/output"
	"github.com/llstack/rtlpipe/internal/pipeline"
	"github.com/llstack/rtlpipe/internal/report"
	"github.com/llstack/rtlpipe/internal/runner"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the validation pipeline (same as running rtlpipe without a command)",
		Args:  cobra.NoArgs,
		RunE:  runPipeline,
	}
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := openLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	var analysis *analyzer.Result
	planned, err := pipeline.Build(cfg, pipeline.Deps{
		OnAnalysis: func(res analyzer.Result) { analysis = &res },
	})
	if err != nil {
		return err
	}
	phases, err := selectPhases(planned, cfg)
	if err != nil {
		return err
	}

	var recorder runner.Recorder
	if !cfg.NoHistory && !cfg.DryRun {
		history, err := openHistory(cfg)
		if err != nil {
			logger.Warn("run history disabled", "error", err)
		} else {
			defer history.Close()
			recorder = history
		}
	}

	// JSON owns stdout, so streamed tool output goes to stderr instead.
	stream := cmd.OutOrStdout()
	if cfg.Format == config.FormatJSON {
		stream = cmd.ErrOrStderr()
	}

	execRunner := runner.New(runner.Options{
		Root:               cfg.Root,
		Stdout:             stream,
		Stderr:             cmd.ErrOrStderr(),
		Verbose:            cfg.Verbose,
		DryRun:             cfg.DryRun,
		TailLines:          20,
		Logger:             logger,
		Recorder:           recorder,
		SkipPrivileged:     cfg.SkipPrivileged,
		PrivilegedPatterns: cfg.PrivilegedCommandPatterns,
	})
	warnings := execRunner.Preflight(pipeline.Tools(phases), cfg.Toolchain)

	run, runErr := execRunner.Run(cmd.Context(), phases)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	summary := report.Summarize(run, len(phases))

	if err := renderRun(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, run, summary, analysis, warnings); err != nil {
		return err
	}

	if code := report.ExitCode(run); code != report.ExitCompleted {
		return &exitError{code: code}
	}
	return nil
}

func renderRun(out, errOut io.Writer, cfg config.Config, run report.Run, summary report.Summary, analysis *analyzer.Result, warnings []string) error {
	switch cfg.Format {
	case config.FormatJSON:
		return output.NewJSON(out).Render(output.Report{
			Run:      run,
			Summary:  summary,
			Analysis: analysis,
			Warnings: warnings,
		})
	default:
		if err := output.NewPretty(out).RenderRun(run, summary); err != nil {
			return err
		}
		if analysis != nil && !cfg.Verbose {
			// The analysis phase output was captured, not streamed; show it here.
			if err := output.NewPretty(out).RenderAnalysis(*analysis, cfg.Analysis.Display); err != nil {
				return err
			}
		}
		for _, msg := range warnings {
			fmt.Fprintf(errOut, "warning: %s\n", msg)
		}
		return nil
	}
}
