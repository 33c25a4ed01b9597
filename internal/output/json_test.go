package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/llstack/rtlpipe/internal/analyzer"
	"github.com/llstack/rtlpipe/internal/phase"
	"github.com/llstack/rtlpipe/internal/report"
)

func TestJSONRenderer(t *testing.T) {
	run := report.Run{
		ID:         "run-1",
		Status:     report.StateAborted,
		FatalPhase: "sim:fifo",
		Phases: []report.PhaseResult{
			{Phase: "sim:fifo", Kind: phase.KindSimulation, Policy: phase.Fatal, Status: report.StatusFailure, ExitCode: 1},
		},
	}
	rep := Report{
		Run:      run,
		Summary:  report.Summarize(run, 7),
		Analysis: &analyzer.Result{Found: true, Path: "results/logs/fifo_test.log", Summary: analyzer.Summary{Total: 2}},
		Warnings: []string{"tool not found: iverilog"},
	}

	buf := &bytes.Buffer{}
	if err := NewJSON(buf).Render(rep); err != nil {
		t.Fatalf("render json: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if decoded.Run.ID != "run-1" || decoded.Run.Status != report.StateAborted || decoded.Run.FatalPhase != "sim:fifo" {
		t.Fatalf("run mismatch: %+v", decoded.Run)
	}
	if decoded.Summary.NotRun != 6 || decoded.Summary.ExitCode != report.ExitAborted {
		t.Fatalf("summary mismatch: %+v", decoded.Summary)
	}
	if decoded.Analysis == nil || decoded.Analysis.Summary.Total != 2 {
		t.Fatalf("analysis mismatch: %+v", decoded.Analysis)
	}
	if len(decoded.Warnings) != 1 {
		t.Fatalf("expected warnings serialized")
	}
}

func TestJSONPlanOmitsActions(t *testing.T) {
	plan := Plan{Phases: []phase.Phase{{Name: "analysis", Kind: phase.KindAnalysis, Policy: phase.Recoverable, AlwaysRun: true}}}
	buf := &bytes.Buffer{}
	if err := NewJSON(buf).RenderPlan(plan); err != nil {
		t.Fatalf("render plan: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"always_run": true`)) {
		t.Fatalf("expected always_run in %s", buf.String())
	}
}

func TestJSONHistoryEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewJSON(buf).RenderHistory(History{}); err != nil {
		t.Fatalf("render history: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"runs": []`)) {
		t.Fatalf("expected empty runs array, got %s", buf.String())
	}
}
