package report

import (
	"errors"
	"testing"
	"time"
)

func TestRunLifecycle(t *testing.T) {
	var run Run
	if err := run.Advance(StateRunning); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := run.Advance(StateRunning); err != nil {
		t.Fatalf("self transition: %v", err)
	}
	if err := run.Advance(StateAborted); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if err := run.Advance(StateCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from aborted, got %v", err)
	}
	if !run.Status.Terminal() {
		t.Fatalf("expected terminal state, got %s", run.Status)
	}
}

func TestTransitionRejectsSkippingRunning(t *testing.T) {
	if err := Transition(StateNotStarted, StateCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	run := Run{
		Status: StateAborted,
		Phases: []PhaseResult{
			{Phase: "sim:fifo", Status: StatusSuccess, Duration: time.Second},
			{Phase: "sim:fsm", Status: StatusFailure, Duration: 2 * time.Second},
		},
	}
	summary := Summarize(run, 5)
	if summary.Succeeded != 1 || summary.Failed != 1 || summary.NotRun != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.DurationMS != 3000 {
		t.Fatalf("expected 3000ms, got %d", summary.DurationMS)
	}
	if summary.ExitCode != ExitAborted {
		t.Fatalf("expected exit %d, got %d", ExitAborted, summary.ExitCode)
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		run  Run
		want int
	}{
		{Run{Status: StateCompleted}, ExitCompleted},
		{Run{Status: StateAborted}, ExitAborted},
		{Run{Status: StateAborted, Interrupted: true}, ExitInterrupted},
	}
	for _, c := range cases {
		if got := ExitCode(c.run); got != c.want {
			t.Fatalf("ExitCode(%+v) = %d, want %d", c.run, got, c.want)
		}
	}
}
