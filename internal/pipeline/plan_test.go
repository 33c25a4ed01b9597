package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llstack/rtlpipe/internal/analyzer"
	"github.com/llstack/rtlpipe/internal/config"
	"github.com/llstack/rtlpipe/internal/phase"
)

func TestBuildOrderAndPolicies(t *testing.T) {
	cfg := testConfig(t)

	phases, err := Build(cfg, Deps{})
	require.NoError(t, err)

	names := make([]string, 0, len(phases))
	for _, p := range phases {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"sim:fifo", "sim:fsm", "sim:uart", DriverPhase, UserspaceC, UserspaceCpp, AnalysisPhase}, names)

	for _, p := range phases[:3] {
		assert.Equal(t, phase.Fatal, p.Policy, p.Name)
		assert.Equal(t, filepath.Join("results", "logs", p.Module+".pipeline.log"), p.ModuleLog)
		assert.Equal(t, filepath.Join("results", "logs", p.Module+"_test.log"), p.Capture)
	}
	for _, p := range phases[3:] {
		assert.Equal(t, phase.Recoverable, p.Policy, p.Name)
	}
	last := phases[len(phases)-1]
	assert.True(t, last.AlwaysRun)
	assert.True(t, last.InProcess())
}

func TestBuildTwoModuleVariant(t *testing.T) {
	cfg := testConfig(t)
	cfg.Modules = []string{"fifo", "uart"}

	phases, err := Build(cfg, Deps{})
	require.NoError(t, err)
	assert.Equal(t, "sim:fifo", phases[0].Name)
	assert.Equal(t, "sim:uart", phases[1].Name)
	assert.Equal(t, DriverPhase, phases[2].Name)
}

func TestBuildRequiresModules(t *testing.T) {
	cfg := testConfig(t)
	cfg.Modules = nil
	_, err := Build(cfg, Deps{})
	require.Error(t, err)
}

func TestSimulationScriptStrategy(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.Root, "scripts/run_rtl.sh", "#!/bin/sh\n")

	require.Equal(t, StrategyScript, SimulationStrategy(cfg))
	phases, err := Build(cfg, Deps{})
	require.NoError(t, err)

	sim := phases[0]
	require.Len(t, sim.Commands, 1)
	assert.Equal(t, "./scripts/run_rtl.sh fifo", sim.Commands[0].String())
	assert.Equal(t, []phase.Relocation{{Glob: "*.vcd", DestDir: filepath.Join("results", "plots", "fifo")}}, sim.Relocate)
}

func TestSimulationDirectStrategy(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.Root, "rtl/fifo/fifo.v", "module fifo; endmodule\n")
	writeFile(t, cfg.Root, "rtl/fifo/ram.v", "module ram; endmodule\n")
	writeFile(t, cfg.Root, "tb/fifo_tb.v", "module fifo_tb; endmodule\n")

	require.Equal(t, StrategyDirect, SimulationStrategy(cfg))
	phases, err := Build(cfg, Deps{})
	require.NoError(t, err)

	sim := phases[0]
	require.Len(t, sim.Commands, 3)
	assert.Equal(t, "mkdir -p build", sim.Commands[0].String())
	assert.Equal(t, "iverilog -g2012 -o build/fifo.vvp rtl/fifo/fifo.v rtl/fifo/ram.v tb/fifo_tb.v", sim.Commands[1].String())
	assert.Equal(t, "vvp build/fifo.vvp", sim.Commands[2].String())
}

func TestSimulationDirectStrategyKeepsUnmatchedPattern(t *testing.T) {
	cfg := testConfig(t)
	phases, err := Build(cfg, Deps{})
	require.NoError(t, err)
	assert.Equal(t, "iverilog -g2012 -o build/fsm.vvp rtl/fsm/*.v tb/fsm_tb.v", phases[1].Commands[1].String())
}

func TestDriverFallbackCommands(t *testing.T) {
	cfg := testConfig(t)
	phases, err := Build(cfg, Deps{})
	require.NoError(t, err)

	drv := phases[3]
	require.Len(t, drv.Commands, 4)
	assert.Equal(t, "make -C kernel/ll_driver", drv.Commands[0].String())
	assert.Equal(t, "sudo rmmod ll_driver", drv.Commands[1].String())
	assert.True(t, drv.Commands[1].AllowFailure)
	assert.Equal(t, "sudo insmod kernel/ll_driver/ll_driver.ko", drv.Commands[2].String())
	assert.Equal(t, "sudo chmod 666 /dev/ll_driver", drv.Commands[3].String())
	assert.Equal(t, []string{"kernel/ll_driver"}, drv.Requires)
}

func TestDriverScript(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.Root, "scripts/load_driver.sh", "#!/bin/sh\n")
	phases, err := Build(cfg, Deps{})
	require.NoError(t, err)

	drv := phases[3]
	require.Len(t, drv.Commands, 1)
	assert.Equal(t, "./scripts/load_driver.sh", drv.Commands[0].Name)
	assert.Empty(t, drv.Requires)
}

func TestUserspacePhases(t *testing.T) {
	cfg := testConfig(t)
	phases, err := Build(cfg, Deps{})
	require.NoError(t, err)

	c := phases[4]
	assert.Equal(t, []string{"userspace/c/ll_raw_test.c"}, c.Requires)
	assert.Equal(t, "gcc -O2 -Wall -o build/ll_raw_test userspace/c/ll_raw_test.c -lrt", c.Commands[1].String())
	assert.Equal(t, "./build/ll_raw_test", c.Commands[2].Name)

	cpp := phases[5]
	assert.Equal(t, []string{"userspace/cpp/ll_bench.cpp"}, cpp.Requires)
	assert.Equal(t, "g++ -O2 -std=c++17 -o build/ll_bench userspace/cpp/ll_bench.cpp -pthread", cpp.Commands[1].String())
}

func TestToolsSkipsGeneratedBinaries(t *testing.T) {
	cfg := testConfig(t)
	phases, err := Build(cfg, Deps{})
	require.NoError(t, err)

	tools := Tools(phases)
	assert.Equal(t, []string{"mkdir", "iverilog", "vvp", "make", "sudo", "gcc", "g++"}, tools)
}

func TestAnalysisActionReportsResult(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.Root, "results/logs/fifo_test.log", "data_in=41 data_out=41\nWrite: data_in=7\n")

	var got analyzer.Result
	phases, err := Build(cfg, Deps{OnAnalysis: func(res analyzer.Result) { got = res }})
	require.NoError(t, err)

	var out bytes.Buffer
	err = phases[len(phases)-1].Action(context.Background(), &out, io.Discard)
	require.NoError(t, err)

	assert.True(t, got.Found)
	assert.Equal(t, 2, got.Summary.Total)
	assert.Contains(t, out.String(), "Test: in=41 out=41 (0x29 -> 0x29)")
	assert.Contains(t, out.String(), "Write: data_in=7 (0x07) full=N/A")
}

func TestAnalysisActionNoData(t *testing.T) {
	cfg := testConfig(t)
	phases, err := Build(cfg, Deps{})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, phases[len(phases)-1].Action(context.Background(), &out, io.Discard))
	assert.Contains(t, out.String(), "no data available")
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Root = t.TempDir()
	return cfg
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
}
