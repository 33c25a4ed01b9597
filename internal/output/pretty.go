package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/llstack/rtlpipe/internal/analyzer"
	"github.com/llstack/rtlpipe/internal/phase"
	"github.com/llstack/rtlpipe/internal/report"
	"github.com/llstack/rtlpipe/internal/store"
)

// PrettyRenderer renders pipeline results in a human-friendly format.
type PrettyRenderer struct {
	out io.Writer
}

// NewPretty creates a PrettyRenderer writing to the provided writer.
func NewPretty(out io.Writer) *PrettyRenderer {
	return &PrettyRenderer{out: out}
}

// RenderPlan lists phases and their commands without running anything.
func (p *PrettyRenderer) RenderPlan(phases []phase.Phase) error {
	var buffer bytes.Buffer
	for i, ph := range phases {
		fmt.Fprintf(&buffer, "%d. %s [%s]\n", i+1, ph.Name, ph.Policy)
		if ph.InProcess() {
			fmt.Fprintf(&buffer, "    • (in-process %s)\n", ph.Kind)
		}
		for _, c := range ph.Commands {
			suffix := ""
			if c.AllowFailure {
				suffix = " (may fail)"
			}
			fmt.Fprintf(&buffer, "    • %s%s\n", c.String(), suffix)
		}
		if len(ph.Requires) > 0 {
			fmt.Fprintf(&buffer, "    requires: %s\n", strings.Join(ph.Requires, ", "))
		}
	}
	_, err := buffer.WriteTo(p.out)
	return err
}

// RenderRun shows phase outcomes followed by the run summary.
func (p *PrettyRenderer) RenderRun(run report.Run, summary report.Summary) error {
	var buffer bytes.Buffer
	fmt.Fprintf(&buffer, "Run %s\n", run.ID)
	for _, res := range run.Phases {
		fmt.Fprintf(&buffer, "  %s %s (%s)\n", statusGlyph(res.Status), res.Phase, formatDuration(res.Duration))
		switch res.Status {
		case report.StatusFailure:
			fmt.Fprintf(&buffer, "      exit code: %d\n", res.ExitCode)
			if excerpt := failureExcerpt(res.Stdout, res.Stderr); excerpt != "" {
				fmt.Fprintf(&buffer, "%s\n", indent(excerpt, "      "))
			}
		case report.StatusSkipped:
			if res.Note != "" {
				fmt.Fprintf(&buffer, "      note: %s\n", res.Note)
			}
			if res.DryRun {
				for _, c := range res.Commands {
					fmt.Fprintf(&buffer, "      command: %s\n", c)
				}
			}
		}
	}

	switch {
	case run.Interrupted:
		fmt.Fprintf(&buffer, "INTERRUPTED after %d phase(s)\n", len(run.Phases))
	case run.FatalPhase != "":
		fmt.Fprintf(&buffer, "ABORTED: fatal phase %s failed\n", run.FatalPhase)
	}
	fmt.Fprintf(&buffer, "SUMMARY: %d succeeded, %d failed, %d skipped, %d not run (%s)\n",
		summary.Succeeded, summary.Failed, summary.Skipped, summary.NotRun, formatDuration(summary.Duration))

	_, err := buffer.WriteTo(p.out)
	return err
}

// RenderAnalysis prints the analyzer summary and the first limit records.
func (p *PrettyRenderer) RenderAnalysis(res analyzer.Result, limit int) error {
	return analyzer.Report(p.out, res, limit)
}

// RenderHistory lists stored runs, most recent first.
func (p *PrettyRenderer) RenderHistory(runs []store.RunRecord) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(p.out, "No runs recorded")
		return err
	}
	var buffer bytes.Buffer
	for _, r := range runs {
		detail := ""
		switch {
		case r.Interrupted:
			detail = " interrupted"
		case r.FatalPhase != "":
			detail = " at " + r.FatalPhase
		}
		fmt.Fprintf(&buffer, "%s  %s  %-9s%s (%s)\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.ID, r.Status, detail, formatDuration(r.Duration()))
	}
	_, err := buffer.WriteTo(p.out)
	return err
}

// RenderRunDetail shows a stored run and its phase results.
func (p *PrettyRenderer) RenderRunDetail(run store.RunRecord, phases []store.PhaseRecord) error {
	var buffer bytes.Buffer
	fmt.Fprintf(&buffer, "Run %s %s (%s)\n", run.ID, run.Status, formatDuration(run.Duration()))
	for _, ph := range phases {
		fmt.Fprintf(&buffer, "  %s %s (%s)\n", statusGlyph(ph.Status), ph.Name,
			formatDuration(time.Duration(ph.DurationMS)*time.Millisecond))
		if ph.Status == report.StatusFailure {
			fmt.Fprintf(&buffer, "      exit code: %d\n", ph.ExitCode)
		}
		if ph.Note != "" {
			fmt.Fprintf(&buffer, "      note: %s\n", ph.Note)
		}
	}
	_, err := buffer.WriteTo(p.out)
	return err
}

// failureExcerpt keeps the diagnostic lines of a failed tool, falling back to
// the stderr tail when nothing looks like a diagnostic.
func failureExcerpt(stdout, stderr string) string {
	combined := strings.TrimSpace(stdout + "\n" + stderr)
	if combined == "" {
		return ""
	}
	var kept []string
	for _, line := range strings.Split(combined, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "error") ||
			strings.Contains(lower, "fail") ||
			strings.Contains(lower, "mismatch") ||
			strings.Contains(lower, "not found") ||
			strings.Contains(lower, "permission denied") {
			kept = append(kept, line)
		}
	}
	if len(kept) > 0 {
		return strings.Join(kept, "\n")
	}
	if s := strings.TrimSpace(stderr); s != "" {
		return s
	}
	return "phase failed - rerun with --verbose for the full output"
}

func statusGlyph(status string) string {
	switch status {
	case report.StatusSuccess:
		return "✓"
	case report.StatusFailure:
		return "✗"
	case report.StatusSkipped:
		return "-"
	default:
		return "?"
	}
}

func indent(s, pad string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Millisecond).String()
}
