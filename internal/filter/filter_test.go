package filter

import (
	"testing"

	"github.com/llstack/rtlpipe/internal/phase"
)

func samplePhases() []phase.Phase {
	return []phase.Phase{
		{Name: "sim:fifo", Kind: phase.KindSimulation, Module: "fifo", Policy: phase.Fatal},
		{Name: "sim:uart", Kind: phase.KindSimulation, Module: "uart", Policy: phase.Fatal},
		{Name: "driver", Kind: phase.KindDriver, Policy: phase.Recoverable},
		{Name: "analysis", Kind: phase.KindAnalysis, Policy: phase.Recoverable, AlwaysRun: true},
	}
}

func names(phases []phase.Phase) []string {
	out := make([]string, 0, len(phases))
	for _, p := range phases {
		out = append(out, p.Name)
	}
	return out
}

func TestPhasesOnly(t *testing.T) {
	only, err := Compile([]string{"uart"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got := names(Phases(samplePhases(), only, nil))
	if len(got) != 2 || got[0] != "sim:uart" || got[1] != "analysis" {
		t.Fatalf("unexpected selection: %v", got)
	}
}

func TestPhasesSkipByKind(t *testing.T) {
	skip, err := Compile([]string{"simulation"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got := names(Phases(samplePhases(), nil, skip))
	if len(got) != 2 || got[0] != "driver" || got[1] != "analysis" {
		t.Fatalf("unexpected selection: %v", got)
	}
}

func TestPhasesAnalysisNeverSkipped(t *testing.T) {
	skip, err := Compile([]string{"/.*/"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got := names(Phases(samplePhases(), nil, skip))
	if len(got) != 1 || got[0] != "analysis" {
		t.Fatalf("unexpected selection: %v", got)
	}
}

func TestCompileRegexAndSubstring(t *testing.T) {
	patterns, err := Compile([]string{"/^sim:f/", "DRIVER", "  "})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(patterns))
	}
	if !patterns[0].Match("sim:fifo") || patterns[0].Match("sim:uart") {
		t.Fatalf("regex pattern mismatch")
	}
	if !patterns[1].Match("driver") {
		t.Fatalf("substring pattern should be case-insensitive")
	}
}

func TestCompileInvalidRegex(t *testing.T) {
	if _, err := Compile([]string{"/(/"}); err == nil {
		t.Fatalf("expected compile error")
	}
}
