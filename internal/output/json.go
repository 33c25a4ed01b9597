package output

import (
	"encoding/json"
	"io"

	"github.com/llstack/rtlpipe/internal/analyzer"
	"github.com/llstack/rtlpipe/internal/phase"
	"github.com/llstack/rtlpipe/internal/report"
	"github.com/llstack/rtlpipe/internal/store"
)

// JSONRenderer emits structured pipeline data.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Report captures the JSON output schema of a pipeline run.
type Report struct {
	Run      report.Run       `json:"run"`
	Summary  report.Summary   `json:"summary"`
	Analysis *analyzer.Result `json:"analysis,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
}

// Plan captures the JSON output schema of the phases command.
type Plan struct {
	Phases   []phase.Phase `json:"phases"`
	Warnings []string      `json:"warnings,omitempty"`
}

// History captures the JSON output schema of the history command.
type History struct {
	Runs []store.RunRecord `json:"runs"`
}

// RunDetail captures the JSON output schema of a single stored run.
type RunDetail struct {
	Run    store.RunRecord     `json:"run"`
	Phases []store.PhaseRecord `json:"phases"`
}

// Render encodes the run report as JSON.
func (j *JSONRenderer) Render(report Report) error {
	return j.encode(report)
}

// RenderPlan encodes the phase plan as JSON.
func (j *JSONRenderer) RenderPlan(plan Plan) error {
	return j.encode(plan)
}

// RenderAnalysis encodes a standalone analyzer result as JSON.
func (j *JSONRenderer) RenderAnalysis(res analyzer.Result) error {
	return j.encode(res)
}

// RenderHistory encodes stored runs as JSON.
func (j *JSONRenderer) RenderHistory(history History) error {
	if history.Runs == nil {
		history.Runs = []store.RunRecord{}
	}
	return j.encode(history)
}

func (j *JSONRenderer) encode(v any) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RenderRunDetail encodes one stored run with its phases as JSON.
func (j *JSONRenderer) RenderRunDetail(detail RunDetail) error {
	if detail.Phases == nil {
		detail.Phases = []store.PhaseRecord{}
	}
	return j.encode(detail)
}
