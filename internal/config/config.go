package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/llstack/rtlpipe/internal/analyzer"
	"gopkg.in/yaml.v3"
)

// FileName is the optional project configuration file read from the root.
const FileName = ".rtlpipe.yml"

// Config captures pipeline options sourced from the config file or flags. It
// is built once at startup and passed by value afterwards.
type Config struct {
	// Root is the directory the config file was read from. It is never taken
	// from the file itself.
	Root       string   `yaml:"-"`
	ResultsDir string   `yaml:"results_dir"`
	BuildDir   string   `yaml:"build_dir"`
	Modules    []string `yaml:"modules"`

	Simulation SimulationConfig `yaml:"simulation"`
	Driver     DriverConfig     `yaml:"driver"`
	Userspace  UserspaceConfig  `yaml:"userspace"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Log        LogConfig        `yaml:"log"`

	// Toolchain maps a tool name to the expected major.minor version.
	Toolchain map[string]string `yaml:"toolchain"`

	OnlyPhases []string `yaml:"only_phase"`
	SkipPhases []string `yaml:"skip_phase"`

	DryRun         bool   `yaml:"dry_run"`
	Verbose        bool   `yaml:"verbose"`
	Format         string `yaml:"format"`
	SkipPrivileged bool   `yaml:"skip_privileged"`
	NoHistory      bool   `yaml:"no_history"`

	PrivilegedCommandPatterns []string `yaml:"privileged_command_patterns"`
}

// SimulationConfig controls the hardware simulation phases.
type SimulationConfig struct {
	Script    string `yaml:"script"`
	Compiler  string `yaml:"compiler"`
	Simulator string `yaml:"simulator"`
	// Sources and Testbench are globs; {module} is replaced by the module name.
	Sources   string `yaml:"sources"`
	Testbench string `yaml:"testbench"`
	Waveforms string `yaml:"waveforms"`
}

// DriverConfig controls the driver build/load phase.
type DriverConfig struct {
	Script string `yaml:"script"`
	Dir    string `yaml:"dir"`
	Name   string `yaml:"name"`
	Device string `yaml:"device"`
}

// UserspaceConfig controls the native benchmark phases.
type UserspaceConfig struct {
	CSource   string `yaml:"c_source"`
	CppSource string `yaml:"cpp_source"`
	CC        string `yaml:"cc"`
	CXX       string `yaml:"cxx"`
}

// AnalysisConfig controls the final analysis phase.
type AnalysisConfig struct {
	Candidates []string `yaml:"candidates"`
	Display    int      `yaml:"display"`
}

// LogConfig controls the pipeline log sink.
type LogConfig struct {
	Level      string `yaml:"level"`
	RotateSize int    `yaml:"rotate_size"`
	RotateNum  int    `yaml:"rotate_num"`
}

const (
	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"
)

// Default returns the baseline configuration used when no flags or config file
// specify values. The three-module set is the canonical pipeline.
func Default() Config {
	return Config{
		ResultsDir: "results",
		BuildDir:   "build",
		Modules:    []string{"fifo", "fsm", "uart"},
		Simulation: SimulationConfig{
			Script:    "scripts/run_rtl.sh",
			Compiler:  "iverilog",
			Simulator: "vvp",
			Sources:   "rtl/{module}/*.v",
			Testbench: "tb/{module}_tb.v",
			Waveforms: "*.vcd",
		},
		Driver: DriverConfig{
			Script: "scripts/load_driver.sh",
			Dir:    "kernel/ll_driver",
			Name:   "ll_driver",
			Device: "/dev/ll_driver",
		},
		Userspace: UserspaceConfig{
			CSource:   "userspace/c/ll_raw_test.c",
			CppSource: "userspace/cpp/ll_bench.cpp",
			CC:        "gcc",
			CXX:       "g++",
		},
		Analysis: AnalysisConfig{
			Candidates: append([]string{}, analyzer.DefaultCandidates...),
			Display:    analyzer.DisplayLimit,
		},
		Log: LogConfig{
			Level:      "INFO",
			RotateSize: 100,
			RotateNum:  10,
		},
		Format: FormatPretty,
	}
}

// Load reads .rtlpipe.yml from root when present. Missing files are ignored.
func Load(root string) (Config, error) {
	cfg := Default()
	cfg.Root = root
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg = merge(cfg, fileCfg)
	return cfg, nil
}

func merge(base, override Config) Config {
	out := base

	if override.ResultsDir != "" {
		out.ResultsDir = override.ResultsDir
	}
	if override.BuildDir != "" {
		out.BuildDir = override.BuildDir
	}
	if len(override.Modules) > 0 {
		out.Modules = append([]string{}, override.Modules...)
	}

	out.Simulation = mergeSimulation(out.Simulation, override.Simulation)
	out.Driver = mergeDriver(out.Driver, override.Driver)
	out.Userspace = mergeUserspace(out.Userspace, override.Userspace)

	if len(override.Analysis.Candidates) > 0 {
		out.Analysis.Candidates = append([]string{}, override.Analysis.Candidates...)
	}
	if override.Analysis.Display > 0 {
		out.Analysis.Display = override.Analysis.Display
	}
	if override.Log.Level != "" {
		out.Log.Level = override.Log.Level
	}
	if override.Log.RotateSize > 0 {
		out.Log.RotateSize = override.Log.RotateSize
	}
	if override.Log.RotateNum > 0 {
		out.Log.RotateNum = override.Log.RotateNum
	}

	if len(override.Toolchain) > 0 {
		out.Toolchain = make(map[string]string, len(override.Toolchain))
		for k, v := range override.Toolchain {
			out.Toolchain[k] = v
		}
	}
	if len(override.OnlyPhases) > 0 {
		out.OnlyPhases = append([]string{}, override.OnlyPhases...)
	}
	if len(override.SkipPhases) > 0 {
		out.SkipPhases = append([]string{}, override.SkipPhases...)
	}
	if len(override.PrivilegedCommandPatterns) > 0 {
		out.PrivilegedCommandPatterns = append([]string{}, override.PrivilegedCommandPatterns...)
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.DryRun {
		out.DryRun = true
	}
	if override.Verbose {
		out.Verbose = true
	}
	if override.SkipPrivileged {
		out.SkipPrivileged = true
	}
	if override.NoHistory {
		out.NoHistory = true
	}

	return out
}

func mergeSimulation(base, override SimulationConfig) SimulationConfig {
	if override.Script != "" {
		base.Script = override.Script
	}
	if override.Compiler != "" {
		base.Compiler = override.Compiler
	}
	if override.Simulator != "" {
		base.Simulator = override.Simulator
	}
	if override.Sources != "" {
		base.Sources = override.Sources
	}
	if override.Testbench != "" {
		base.Testbench = override.Testbench
	}
	if override.Waveforms != "" {
		base.Waveforms = override.Waveforms
	}
	return base
}

func mergeDriver(base, override DriverConfig) DriverConfig {
	if override.Script != "" {
		base.Script = override.Script
	}
	if override.Dir != "" {
		base.Dir = override.Dir
	}
	if override.Name != "" {
		base.Name = override.Name
	}
	if override.Device != "" {
		base.Device = override.Device
	}
	return base
}

func mergeUserspace(base, override UserspaceConfig) UserspaceConfig {
	if override.CSource != "" {
		base.CSource = override.CSource
	}
	if override.CppSource != "" {
		base.CppSource = override.CppSource
	}
	if override.CC != "" {
		base.CC = override.CC
	}
	if override.CXX != "" {
		base.CXX = override.CXX
	}
	return base
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if len(flags.Modules.Values) > 0 {
		cfg.Modules = append([]string{}, flags.Modules.Values...)
	}
	if len(flags.OnlyPhases.Values) > 0 {
		cfg.OnlyPhases = append([]string{}, flags.OnlyPhases.Values...)
	}
	if len(flags.SkipPhases.Values) > 0 {
		cfg.SkipPhases = append([]string{}, flags.SkipPhases.Values...)
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if flags.DryRun.Set {
		cfg.DryRun = flags.DryRun.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
	if flags.SkipPrivileged.Set {
		cfg.SkipPrivileged = flags.SkipPrivileged.Value
	}
	if flags.NoHistory.Set {
		cfg.NoHistory = flags.NoHistory.Value
	}
}

// LogsDir is where the aggregate and per-module logs live.
func (c Config) LogsDir() string {
	return filepath.Join(c.ResultsDir, "logs")
}

// PlotsDir is where relocated waveform artifacts live.
func (c Config) PlotsDir() string {
	return filepath.Join(c.ResultsDir, "plots")
}

// PipelineLog is the aggregate log path shared by every run.
func (c Config) PipelineLog() string {
	return filepath.Join(c.LogsDir(), "pipeline.log")
}

// ModuleLog is the per-module orchestrator log path, appended across runs.
func (c Config) ModuleLog(module string) string {
	return filepath.Join(c.LogsDir(), module+".pipeline.log")
}

// CaptureLog is the per-module simulator output of the latest run. The
// analyzer reads it.
func (c Config) CaptureLog(module string) string {
	return filepath.Join(c.LogsDir(), module+"_test.log")
}

// HistoryDB is the SQLite run history path.
func (c Config) HistoryDB() string {
	return filepath.Join(c.ResultsDir, "history.db")
}

// Abs resolves path against the configured root.
func (c Config) Abs(path string) string {
	if filepath.IsAbs(path) || c.Root == "" {
		return path
	}
	return filepath.Join(c.Root, path)
}

// FlagValues captures CLI flag state with knowledge of whether each flag was set explicitly.
type FlagValues struct {
	Modules        SliceFlag
	OnlyPhases     SliceFlag
	SkipPhases     SliceFlag
	Format         StringFlag
	DryRun         BoolFlag
	Verbose        BoolFlag
	SkipPrivileged BoolFlag
	NoHistory      BoolFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}
