package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/llstack/rtlpipe/internal/config"
	"github.com/llstack/rtlpipe/internal/filter"
	"github.com/llstack/rtlpipe/internal/logging"
	"github.com/llstack/rtlpipe/internal/phase"
	"github.com/llstack/rtlpipe/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return config.Config{}, fmt.Errorf("parse --root: %w", err)
	}
	if root == "" {
		root, err = os.Getwd()
		if err != nil {
			return config.Config{}, fmt.Errorf("determine working directory: %w", err)
		}
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return config.Config{}, fmt.Errorf("resolve root %q: %w", root, err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return config.Config{}, err
	}

	flags, err := gatherFlags(cmd)
	if err != nil {
		return config.Config{}, err
	}
	config.ApplyFlags(&cfg, flags)

	// Tool output streams by default when a person is watching.
	if !flags.Verbose.Set && !cfg.Verbose {
		cfg.Verbose = isTerminal(cmd.OutOrStdout())
	}

	cfg.Format = strings.ToLower(cfg.Format)
	switch cfg.Format {
	case config.FormatPretty, config.FormatJSON:
	default:
		return config.Config{}, fmt.Errorf("unsupported format %q", cfg.Format)
	}
	return cfg, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func selectPhases(phases []phase.Phase, cfg config.Config) ([]phase.Phase, error) {
	onlyPatterns, err := filter.Compile(cfg.OnlyPhases)
	if err != nil {
		return nil, err
	}
	skipPatterns, err := filter.Compile(cfg.SkipPhases)
	if err != nil {
		return nil, err
	}
	return filter.Phases(phases, onlyPatterns, skipPatterns), nil
}

func openLogger(cmd *cobra.Command, cfg config.Config) (*logging.Logger, error) {
	return logging.New(logging.Conf{
		Path:       cfg.Abs(cfg.PipelineLog()),
		Level:      cfg.Log.Level,
		RotateSize: cfg.Log.RotateSize,
		RotateNum:  cfg.Log.RotateNum,
	}, cmd.ErrOrStderr(), nil)
}

func openHistory(cfg config.Config) (*store.Store, error) {
	return store.Open(cfg.Abs(cfg.HistoryDB()))
}
