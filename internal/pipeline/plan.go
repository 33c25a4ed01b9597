// Package pipeline turns a configuration into the ordered phase plan the
// runner executes.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/llstack/rtlpipe/internal/analyzer"
	"github.com/llstack/rtlpipe/internal/config"
	"github.com/llstack/rtlpipe/internal/discovery"
	"github.com/llstack/rtlpipe/internal/phase"
)

// Phase names that do not depend on the module list.
const (
	DriverPhase    = "driver"
	UserspaceC     = "userspace:c"
	UserspaceCpp   = "userspace:cpp"
	AnalysisPhase  = "analysis"
	simPhasePrefix = "sim:"
)

// Strategy is how a module simulation is driven.
type Strategy string

const (
	// StrategyScript delegates the whole simulation to the project script.
	StrategyScript Strategy = "script"
	// StrategyDirect compiles and runs the testbench with the simulator tools.
	StrategyDirect Strategy = "direct"
)

// Deps carries collaborators handed to in-process phases.
type Deps struct {
	// OnAnalysis receives the analyzer result once the analysis phase ran.
	OnAnalysis func(analyzer.Result)
}

// SimPhase returns the phase name for a module simulation.
func SimPhase(module string) string {
	return simPhasePrefix + module
}

// SimulationStrategy decides the strategy with a single existence check of the
// configured script.
func SimulationStrategy(cfg config.Config) Strategy {
	if cfg.Simulation.Script != "" && discovery.Exists(cfg.Root, cfg.Simulation.Script) {
		return StrategyScript
	}
	return StrategyDirect
}

// Build produces the phase plan for cfg: one fatal simulation per module, the
// recoverable driver and userspace phases, then the analysis phase.
func Build(cfg config.Config, deps Deps) ([]phase.Phase, error) {
	if len(cfg.Modules) == 0 {
		return nil, fmt.Errorf("no modules configured")
	}

	strategy := SimulationStrategy(cfg)
	phases := make([]phase.Phase, 0, len(cfg.Modules)+4)
	for _, module := range cfg.Modules {
		module = strings.TrimSpace(module)
		if module == "" {
			continue
		}
		p, err := simulation(cfg, strategy, module)
		if err != nil {
			return nil, err
		}
		phases = append(phases, p)
	}

	phases = append(phases, driver(cfg))
	phases = append(phases, userspaceC(cfg), userspaceCpp(cfg))
	phases = append(phases, analysis(cfg, deps))
	return phases, nil
}

func simulation(cfg config.Config, strategy Strategy, module string) (phase.Phase, error) {
	p := phase.Phase{
		Name:      SimPhase(module),
		Kind:      phase.KindSimulation,
		Module:    module,
		Policy:    phase.Fatal,
		ModuleLog: cfg.ModuleLog(module),
		Capture:   cfg.CaptureLog(module),
		Relocate: []phase.Relocation{{
			Glob:    cfg.Simulation.Waveforms,
			DestDir: filepath.Join(cfg.PlotsDir(), module),
		}},
	}

	if strategy == StrategyScript {
		p.Commands = []phase.Command{{Name: scriptPath(cfg.Simulation.Script), Args: []string{module}}}
		return p, nil
	}

	sources, err := expand(cfg.Root, withModule(cfg.Simulation.Sources, module))
	if err != nil {
		return phase.Phase{}, fmt.Errorf("simulation sources for %s: %w", module, err)
	}
	testbench, err := expand(cfg.Root, withModule(cfg.Simulation.Testbench, module))
	if err != nil {
		return phase.Phase{}, fmt.Errorf("testbench for %s: %w", module, err)
	}

	image := filepath.Join(cfg.BuildDir, module+".vvp")
	compile := append([]string{"-g2012", "-o", image}, sources...)
	compile = append(compile, testbench...)
	p.Commands = []phase.Command{
		mkdir(cfg.BuildDir),
		{Name: cfg.Simulation.Compiler, Args: compile},
		{Name: cfg.Simulation.Simulator, Args: []string{image}},
	}
	return p, nil
}

func driver(cfg config.Config) phase.Phase {
	p := phase.Phase{
		Name:   DriverPhase,
		Kind:   phase.KindDriver,
		Policy: phase.Recoverable,
	}
	if cfg.Driver.Script != "" && discovery.Exists(cfg.Root, cfg.Driver.Script) {
		p.Commands = []phase.Command{{Name: scriptPath(cfg.Driver.Script)}}
		return p
	}

	object := filepath.Join(cfg.Driver.Dir, cfg.Driver.Name+".ko")
	p.Requires = []string{cfg.Driver.Dir}
	p.Commands = []phase.Command{
		{Name: "make", Args: []string{"-C", cfg.Driver.Dir}},
		{Name: "sudo", Args: []string{"rmmod", cfg.Driver.Name}, AllowFailure: true},
		{Name: "sudo", Args: []string{"insmod", object}},
		{Name: "sudo", Args: []string{"chmod", "666", cfg.Driver.Device}},
	}
	return p
}

func userspaceC(cfg config.Config) phase.Phase {
	binary := filepath.Join(cfg.BuildDir, "ll_raw_test")
	return phase.Phase{
		Name:     UserspaceC,
		Kind:     phase.KindUserspace,
		Policy:   phase.Recoverable,
		Requires: []string{cfg.Userspace.CSource},
		Commands: []phase.Command{
			mkdir(cfg.BuildDir),
			{Name: cfg.Userspace.CC, Args: []string{"-O2", "-Wall", "-o", binary, cfg.Userspace.CSource, "-lrt"}},
			{Name: scriptPath(binary), Generated: true},
		},
	}
}

func userspaceCpp(cfg config.Config) phase.Phase {
	binary := filepath.Join(cfg.BuildDir, "ll_bench")
	return phase.Phase{
		Name:     UserspaceCpp,
		Kind:     phase.KindUserspace,
		Policy:   phase.Recoverable,
		Requires: []string{cfg.Userspace.CppSource},
		Commands: []phase.Command{
			mkdir(cfg.BuildDir),
			{Name: cfg.Userspace.CXX, Args: []string{"-O2", "-std=c++17", "-o", binary, cfg.Userspace.CppSource, "-pthread"}},
			{Name: scriptPath(binary), Generated: true},
		},
	}
}

func analysis(cfg config.Config, deps Deps) phase.Phase {
	root := cfg.Root
	candidates := append([]string{}, cfg.Analysis.Candidates...)
	limit := cfg.Analysis.Display
	return phase.Phase{
		Name:      AnalysisPhase,
		Kind:      phase.KindAnalysis,
		Policy:    phase.Recoverable,
		AlwaysRun: true,
		Action: func(_ context.Context, stdout, _ io.Writer) error {
			res, err := analyzer.Analyze(root, candidates)
			if deps.OnAnalysis != nil {
				deps.OnAnalysis(res)
			}
			if err != nil {
				return err
			}
			return analyzer.Report(stdout, res, limit)
		},
	}
}

// Tools lists the distinct external commands the phases invoke, in plan order.
func Tools(phases []phase.Phase) []string {
	seen := make(map[string]struct{})
	var tools []string
	for _, p := range phases {
		for _, tool := range p.Tools() {
			if _, ok := seen[tool]; ok {
				continue
			}
			seen[tool] = struct{}{}
			tools = append(tools, tool)
		}
	}
	return tools
}

func withModule(pattern, module string) string {
	return strings.ReplaceAll(pattern, "{module}", module)
}

// expand resolves a glob like a shell would: no match leaves the pattern as is
// so the compiler reports the missing file.
func expand(root, pattern string) ([]string, error) {
	if pattern == "" {
		return nil, nil
	}
	matches, err := discovery.Glob(root, pattern)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []string{pattern}, nil
	}
	return matches, nil
}

func mkdir(dir string) phase.Command {
	return phase.Command{Name: "mkdir", Args: []string{"-p", dir}}
}

// scriptPath makes a relative executable path explicit so it is never looked
// up on PATH.
func scriptPath(path string) string {
	if filepath.IsAbs(path) || strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../") {
		return path
	}
	return "./" + filepath.ToSlash(path)
}
