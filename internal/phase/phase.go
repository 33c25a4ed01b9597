package phase

import (
	"context"
	"io"
	"strings"
)

// Policy decides what a failed phase does to the rest of the run.
type Policy string

const (
	// Fatal aborts the run when the phase fails.
	Fatal Policy = "fatal"
	// Recoverable logs the failure and continues with the next phase.
	Recoverable Policy = "recoverable"
)

// Kind groups phases by the part of the validation flow they belong to.
type Kind string

const (
	KindSimulation Kind = "simulation"
	KindDriver     Kind = "driver"
	KindUserspace  Kind = "userspace"
	KindAnalysis   Kind = "analysis"
)

// Command is a single external invocation inside a phase.
type Command struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
	// Dir overrides the phase working directory when set.
	Dir string `json:"dir,omitempty"`
	// AllowFailure keeps the phase going when this command exits nonzero.
	AllowFailure bool `json:"allow_failure,omitempty"`
	// Generated marks an executable built by an earlier command of the phase.
	Generated bool `json:"generated,omitempty"`
}

// String renders the command line as it would be typed in a shell.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	parts = append(parts, c.Args...)
	return strings.Join(parts, " ")
}

// Action runs a phase in-process instead of spawning a tool. A nil return maps
// to exit code 0.
type Action func(ctx context.Context, stdout, stderr io.Writer) error

// Relocation moves files matching Glob (relative to the phase directory) into
// DestDir once the phase succeeded.
type Relocation struct {
	Glob    string `json:"glob"`
	DestDir string `json:"dest_dir"`
}

// Phase is one ordered step of the pipeline. Phases are built once per run and
// never mutated afterwards.
type Phase struct {
	Name     string    `json:"name"`
	Kind     Kind      `json:"kind"`
	Module   string    `json:"module,omitempty"`
	Policy   Policy    `json:"policy"`
	Dir      string    `json:"dir"`
	Commands []Command `json:"commands,omitempty"`
	Action   Action    `json:"-"`

	// Requires lists artifacts that must exist; when any is absent the phase
	// is skipped rather than failed.
	Requires []string `json:"requires,omitempty"`
	// ModuleLog receives the phase's log lines and raw stdout, appended across
	// runs.
	ModuleLog string `json:"module_log,omitempty"`
	// Capture receives only this run's raw stdout; it is truncated when the
	// phase starts.
	Capture  string       `json:"capture,omitempty"`
	Relocate []Relocation `json:"relocate,omitempty"`
	// Stream forces stdout to the console even when not verbose.
	Stream bool `json:"stream,omitempty"`
	// AlwaysRun keeps the phase selected regardless of phase filters.
	AlwaysRun bool `json:"always_run,omitempty"`
}

// Fatal reports whether a failure of p aborts the run.
func (p Phase) Fatal() bool {
	return p.Policy == Fatal
}

// InProcess reports whether p runs an Action rather than external commands.
func (p Phase) InProcess() bool {
	return p.Action != nil
}

// Tools returns the distinct executables the phase expects to find installed.
func (p Phase) Tools() []string {
	seen := make(map[string]struct{})
	var tools []string
	for _, c := range p.Commands {
		if c.Name == "" || c.Generated {
			continue
		}
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		tools = append(tools, c.Name)
	}
	return tools
}
