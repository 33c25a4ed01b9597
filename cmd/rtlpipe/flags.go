package main

import (
	"fmt"

	"github.com/llstack/rtlpipe/internal/config"
	"github.com/spf13/cobra"
)

func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	slices := []struct {
		name string
		dst  *config.SliceFlag
	}{
		{"module", &values.Modules},
		{"only-phase", &values.OnlyPhases},
		{"skip-phase", &values.SkipPhases},
	}
	for _, s := range slices {
		if !flags.Changed(s.name) {
			continue
		}
		v, err := flags.GetStringArray(s.name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", s.name, err)
		}
		*s.dst = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("format") {
		v, err := flags.GetString("format")
		if err != nil {
			return values, fmt.Errorf("parse --format: %w", err)
		}
		values.Format = config.StringFlag{Value: v, Set: true}
	}

	bools := []struct {
		name string
		dst  *config.BoolFlag
	}{
		{"dry-run", &values.DryRun},
		{"verbose", &values.Verbose},
		{"skip-privileged", &values.SkipPrivileged},
		{"no-history", &values.NoHistory},
	}
	for _, b := range bools {
		if !flags.Changed(b.name) {
			continue
		}
		v, err := flags.GetBool(b.name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", b.name, err)
		}
		*b.dst = config.BoolFlag{Value: v, Set: true}
	}

	return values, nil
}
