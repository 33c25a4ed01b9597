package report

import (
	"time"

	"github.com/llstack/rtlpipe/internal/phase"
)

// Phase outcome statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// PhaseResult captures the outcome of a single phase execution.
type PhaseResult struct {
	Phase      string        `json:"phase"`
	Kind       phase.Kind    `json:"kind"`
	Module     string        `json:"module,omitempty"`
	Policy     phase.Policy  `json:"policy"`
	Commands   []string      `json:"commands,omitempty"`
	Status     string        `json:"status"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	Stdout     string        `json:"stdout,omitempty"`
	Stderr     string        `json:"stderr,omitempty"`
	ExitCode   int           `json:"exit_code"`
	Note       string        `json:"note,omitempty"`
	DryRun     bool          `json:"dry_run"`
}

// Failed reports whether the phase ran and exited nonzero.
func (r PhaseResult) Failed() bool {
	return r.Status == StatusFailure
}

// Run is one pipeline execution: the ordered phase results plus the overall
// status a caller maps to an exit code.
type Run struct {
	ID          string        `json:"id"`
	Status      State         `json:"status"`
	Phases      []PhaseResult `json:"phases"`
	FatalPhase  string        `json:"fatal_phase,omitempty"`
	Interrupted bool          `json:"interrupted,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
}

// Completed reports whether no fatal phase failed.
func (r Run) Completed() bool {
	return r.Status == StateCompleted
}

// Summary aggregates pipeline execution results.
type Summary struct {
	TotalPhases int           `json:"total_phases"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Skipped     int           `json:"skipped"`
	NotRun      int           `json:"not_run"`
	Duration    time.Duration `json:"-"`
	DurationMS  int64         `json:"duration_ms"`
	ExitCode    int           `json:"exit_code"`
}

// Exit codes returned by the CLI.
const (
	ExitCompleted   = 0
	ExitAborted     = 1
	ExitInterrupted = 130
)

// Summarize derives counters from run. planned is the number of phases that
// were scheduled, so phases cut off by an abort show up as NotRun.
func Summarize(run Run, planned int) Summary {
	summary := Summary{TotalPhases: planned}
	for _, res := range run.Phases {
		switch res.Status {
		case StatusSuccess:
			summary.Succeeded++
		case StatusFailure:
			summary.Failed++
		case StatusSkipped:
			summary.Skipped++
		}
		summary.Duration += res.Duration
	}
	if n := planned - len(run.Phases); n > 0 {
		summary.NotRun = n
	}
	summary.DurationMS = summary.Duration.Milliseconds()
	summary.ExitCode = ExitCode(run)
	return summary
}

// ExitCode maps a run to the process exit status.
func ExitCode(run Run) int {
	switch {
	case run.Interrupted:
		return ExitInterrupted
	case run.Completed():
		return ExitCompleted
	default:
		return ExitAborted
	}
}
