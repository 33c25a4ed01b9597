package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/llstack/rtlpipe/internal/discovery"
	"github.com/llstack/rtlpipe/internal/logging"
	"github.com/llstack/rtlpipe/internal/phase"
	"github.com/llstack/rtlpipe/internal/report"
)

// waitDelay bounds how long Wait keeps copying output after the process
// group was killed and a stray child still holds the pipes.
const waitDelay = 2 * time.Second

// Recorder persists run progress. Errors are logged and never stop the run.
type Recorder interface {
	BeginRun(run report.Run) error
	RecordPhase(runID string, seq int, result report.PhaseResult) error
	FinishRun(run report.Run) error
}

// Options configure how the runner executes phases.
type Options struct {
	Root               string
	Stdout             io.Writer
	Stderr             io.Writer
	Verbose            bool
	DryRun             bool
	TailLines          int
	Env                []string
	Now                func() time.Time
	NewID              func() string
	Logger             *logging.Logger
	Recorder           Recorder
	SkipPrivileged     bool
	PrivilegedPatterns []string
}

// Runner executes pipeline phases strictly one after another.
type Runner struct {
	opts Options
	log  *slog.Logger
}

// New creates a runner with the supplied options.
func New(opts Options) *Runner {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.TailLines <= 0 {
		opts.TailLines = 20
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if len(opts.PrivilegedPatterns) == 0 {
		opts.PrivilegedPatterns = DefaultPrivilegedPatterns()
	}
	opts.PrivilegedPatterns = append([]string{}, opts.PrivilegedPatterns...)

	return &Runner{opts: opts, log: opts.Logger.Logger}
}

// Run executes phases in order and returns the finalized run. A failed fatal
// phase aborts the run and no later phase executes; recoverable failures are
// logged and the run continues. The returned error is non-nil only when ctx
// was cancelled, in which case the run is aborted and marked Interrupted.
func (r *Runner) Run(ctx context.Context, phases []phase.Phase) (report.Run, error) {
	run := report.Run{
		ID:        r.opts.NewID(),
		Status:    report.StateNotStarted,
		Phases:    make([]report.PhaseResult, 0, len(phases)),
		StartedAt: r.opts.Now(),
	}
	if err := run.Advance(report.StateRunning); err != nil {
		return run, err
	}
	r.log.Info("pipeline started", "run", run.ID, "phases", len(phases))
	if r.opts.Recorder != nil {
		if err := r.opts.Recorder.BeginRun(run); err != nil {
			r.log.Warn("run history unavailable", "error", err)
		}
	}

	recoverable := 0
	for i, p := range phases {
		if err := ctx.Err(); err != nil {
			return r.interrupt(run, err)
		}
		if err := run.Advance(report.StateRunning); err != nil {
			return run, err
		}

		result := r.runPhase(ctx, p)
		run.Phases = append(run.Phases, result)
		if r.opts.Recorder != nil {
			if err := r.opts.Recorder.RecordPhase(run.ID, i, result); err != nil {
				r.log.Warn("record phase failed", "phase", p.Name, "error", err)
			}
		}

		if err := ctx.Err(); err != nil {
			return r.interrupt(run, err)
		}

		if !result.Failed() {
			continue
		}
		if p.Fatal() {
			run.FatalPhase = p.Name
			r.log.Error("fatal phase failed, aborting pipeline",
				"phase", p.Name, "exit_code", result.ExitCode, "stderr", result.Stderr)
			if err := run.Advance(report.StateAborted); err != nil {
				return run, err
			}
			r.finish(&run)
			return run, nil
		}
		recoverable++
		r.log.Warn("recoverable phase failed, continuing",
			"phase", p.Name, "exit_code", result.ExitCode, "stderr", result.Stderr)
	}

	if err := run.Advance(report.StateCompleted); err != nil {
		return run, err
	}
	r.finish(&run)
	r.log.Info("pipeline completed", "run", run.ID, "recoverable_failures", recoverable)
	return run, nil
}

func (r *Runner) interrupt(run report.Run, cause error) (report.Run, error) {
	run.Interrupted = true
	if err := run.Advance(report.StateAborted); err != nil {
		return run, err
	}
	r.log.Error("pipeline interrupted", "run", run.ID, "completed_phases", len(run.Phases))
	r.finish(&run)
	return run, cause
}

func (r *Runner) finish(run *report.Run) {
	run.FinishedAt = r.opts.Now()
	if r.opts.Recorder == nil {
		return
	}
	if err := r.opts.Recorder.FinishRun(*run); err != nil {
		r.log.Warn("finish run history failed", "error", err)
	}
}

// runPhase executes one phase. Skipped phases never touch the filesystem, and
// every handle opened for a phase that runs is released before it returns.
func (r *Runner) runPhase(ctx context.Context, p phase.Phase) report.PhaseResult {
	result := report.PhaseResult{
		Phase:    p.Name,
		Kind:     p.Kind,
		Module:   p.Module,
		Policy:   p.Policy,
		Commands: commandStrings(p),
		DryRun:   r.opts.DryRun,
	}

	if missing := discovery.Missing(r.opts.Root, p.Requires); len(missing) > 0 {
		result.Status = report.StatusSkipped
		result.Note = fmt.Sprintf("missing artifact: %s", strings.Join(missing, ", "))
		r.log.Warn("phase skipped, artifact missing", "phase", p.Name, "missing", strings.Join(missing, ","))
		return result
	}

	if msg, skip := shouldSkipPhase(p, r.opts); skip {
		result.Status = report.StatusSkipped
		result.Note = msg
		r.log.Warn("phase skipped", "phase", p.Name, "reason", msg)
		return result
	}

	if r.opts.DryRun {
		result.Status = report.StatusSkipped
		result.Note = "dry run"
		for _, c := range result.Commands {
			r.log.Info("dry run", "phase", p.Name, "command", c)
		}
		return result
	}

	log := r.log
	var module *logging.ModuleLog
	if p.ModuleLog != "" {
		m, err := r.opts.Logger.ForModule(r.abs(p.ModuleLog))
		if err != nil {
			r.log.Warn("module log unavailable", "phase", p.Name, "path", p.ModuleLog, "error", err)
		} else {
			module = m
			log = m.Logger
			defer module.Close()
		}
	}

	var capture io.Writer
	if p.Capture != "" {
		f, err := logging.OpenCapture(r.abs(p.Capture))
		if err != nil {
			log.Warn("output capture unavailable", "phase", p.Name, "path", p.Capture, "error", err)
		} else {
			capture = f
			defer f.Close()
		}
	}

	log.Info("phase started", "phase", p.Name, "policy", string(p.Policy))

	dir, err := r.workingDirectory(p.Dir)
	if err != nil {
		result.Status = report.StatusFailure
		result.ExitCode = 127
		result.Stderr = err.Error()
		log.Error("phase failed", "phase", p.Name, "error", err)
		return result
	}

	var stdoutBuf, stderrBuf strings.Builder
	stdout, stderr := r.phaseWriters(p, module, capture, &stdoutBuf, &stderrBuf)

	start := r.opts.Now()
	if p.InProcess() {
		result.ExitCode = r.runAction(ctx, p, stdout, stderr)
	} else {
		result.ExitCode = r.runCommands(ctx, log, p, dir, stdout, stderr)
	}
	result.Duration = r.opts.Now().Sub(start)
	result.DurationMS = result.Duration.Milliseconds()
	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()

	if result.ExitCode != 0 {
		result.Status = report.StatusFailure
		result.Stdout = tailLines(result.Stdout, r.opts.TailLines)
		result.Stderr = tailLines(result.Stderr, r.opts.TailLines)
		log.Info("phase finished", "phase", p.Name, "status", result.Status,
			"exit_code", result.ExitCode, "duration", result.Duration.Round(time.Millisecond))
		return result
	}

	result.Status = report.StatusSuccess
	if moved, err := r.relocate(dir, p.Relocate); err != nil {
		log.Warn("artifact relocation failed", "phase", p.Name, "error", err)
	} else if moved > 0 {
		log.Info("artifacts relocated", "phase", p.Name, "count", moved)
	}
	log.Info("phase finished", "phase", p.Name, "status", result.Status,
		"exit_code", result.ExitCode, "duration", result.Duration.Round(time.Millisecond))
	return result
}

func (r *Runner) phaseWriters(p phase.Phase, module *logging.ModuleLog, capture, stdoutBuf, stderrBuf io.Writer) (io.Writer, io.Writer) {
	stdout := []io.Writer{stdoutBuf}
	stderr := []io.Writer{stderrBuf}
	if module != nil {
		stdout = append(stdout, module)
	}
	if capture != nil {
		stdout = append(stdout, capture)
	}
	if r.opts.Verbose || p.Stream {
		stdout = append(stdout, r.opts.Stdout)
	}
	if r.opts.Verbose {
		stderr = append(stderr, r.opts.Stderr)
	}
	return io.MultiWriter(stdout...), io.MultiWriter(stderr...)
}

// runCommands runs the phase commands in order and stops at the first failure
// that is not allowed. It returns the exit code that decides the phase status.
func (r *Runner) runCommands(ctx context.Context, log *slog.Logger, p phase.Phase, dir string, stdout, stderr io.Writer) int {
	for _, c := range p.Commands {
		cmdDir := dir
		if c.Dir != "" {
			cmdDir = r.abs(c.Dir)
		}
		log.Debug("exec", "phase", p.Name, "command", c.String(), "dir", cmdDir)

		code := r.runCommand(ctx, c, cmdDir, stdout, stderr)
		if code == 0 {
			continue
		}
		if c.AllowFailure && ctx.Err() == nil {
			log.Warn("command failed, continuing", "phase", p.Name, "command", c.String(), "exit_code", code)
			continue
		}
		return code
	}
	return 0
}

func (r *Runner) runCommand(ctx context.Context, c phase.Command, dir string, stdout, stderr io.Writer) int {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = dir
	cmd.Env = r.opts.Env
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	configureCommandProcess(cmd)
	cmd.Cancel = func() error {
		terminateCommandProcess(cmd)
		return nil
	}
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if err != nil && errors.Is(err, exec.ErrNotFound) {
		fmt.Fprintf(stderr, "%s: command not found\n", c.Name)
		return 127
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		fmt.Fprintf(stderr, "%s: %v\n", c.Name, pathErr.Err)
		return 127
	}
	return exitCode(err)
}

func (r *Runner) runAction(ctx context.Context, p phase.Phase, stdout, stderr io.Writer) int {
	if err := p.Action(ctx, stdout, stderr); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}

func (r *Runner) relocate(dir string, relocations []phase.Relocation) (int, error) {
	moved := 0
	for _, rel := range relocations {
		matches, err := discovery.Glob(dir, rel.Glob)
		if err != nil {
			return moved, err
		}
		if len(matches) == 0 {
			continue
		}
		dest := r.abs(rel.DestDir)
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return moved, fmt.Errorf("create %q: %w", dest, err)
		}
		for _, m := range matches {
			src := m
			if !filepath.IsAbs(src) {
				src = filepath.Join(dir, m)
			}
			target := filepath.Join(dest, filepath.Base(src))
			if err := os.Rename(src, target); err != nil {
				return moved, fmt.Errorf("move %q: %w", src, err)
			}
			moved++
		}
	}
	return moved, nil
}

func (r *Runner) workingDirectory(dir string) (string, error) {
	candidate := strings.TrimSpace(dir)
	if candidate == "" {
		candidate = r.opts.Root
	}
	if candidate == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		return wd, nil
	}
	candidate = r.abs(candidate)
	info, err := os.Stat(candidate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("working directory %q not found", candidate)
		}
		return "", fmt.Errorf("stat working directory %q: %w", candidate, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("working directory %q is not a directory", candidate)
	}
	return candidate, nil
}

func (r *Runner) abs(path string) string {
	if filepath.IsAbs(path) || r.opts.Root == "" {
		return path
	}
	return filepath.Join(r.opts.Root, path)
}

func commandStrings(p phase.Phase) []string {
	if p.InProcess() {
		return []string{"(in-process) " + p.Name}
	}
	out := make([]string, 0, len(p.Commands))
	for _, c := range p.Commands {
		out = append(out, c.String())
	}
	return out
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(interface{ ExitStatus() int }); ok {
			return status.ExitStatus()
		}
		return exitErr.ExitCode()
	}
	return 1
}

func tailLines(input string, maxLines int) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(input, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}

func shouldSkipPhase(p phase.Phase, opts Options) (string, bool) {
	if !opts.SkipPrivileged {
		return "", false
	}
	for _, c := range p.Commands {
		line := c.String()
		for _, pattern := range opts.PrivilegedPatterns {
			if pattern == "" {
				continue
			}
			matched, err := regexp.MatchString(pattern, line)
			if err != nil {
				continue
			}
			if matched {
				return fmt.Sprintf("skipped privileged command %q matching pattern %q; rerun without --skip-privileged to run", line, pattern), true
			}
		}
	}
	return "", false
}

// DefaultPrivilegedPatterns matches the commands that need root to load,
// unload or expose the kernel module.
func DefaultPrivilegedPatterns() []string {
	return []string{
		`(?i)^sudo\b`,
		`(?i)^doas\b`,
		`\binsmod\b`,
		`\brmmod\b`,
		`\bmodprobe\b`,
	}
}
