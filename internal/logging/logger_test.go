package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
}

func TestLineFormat(t *testing.T) {
	var console bytes.Buffer
	l, err := New(Conf{}, &console, fixedNow)
	require.NoError(t, err)

	l.Info("phase started", "phase", "sim:fifo")
	l.Warn("phase failed", "stderr", "make: *** error 2")

	lines := strings.Split(strings.TrimRight(console.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[2024-03-09 14:05:07] [INFO] phase started phase=sim:fifo", lines[0])
	assert.Equal(t, `[2024-03-09 14:05:07] [WARN] phase failed stderr="make: *** error 2"`, lines[1])
}

func TestLevelFilter(t *testing.T) {
	var console bytes.Buffer
	l, err := New(Conf{Level: "warn"}, &console, fixedNow)
	require.NoError(t, err)

	l.Info("hidden")
	l.Error("shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "[ERROR] shown")
}

func TestPipelineLogAppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pipeline.log")

	for i := 0; i < 2; i++ {
		l, err := New(Conf{Path: path}, nil, fixedNow)
		require.NoError(t, err)
		l.Info("run", "n", i)
		require.NoError(t, l.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"[2024-03-09 14:05:07] [INFO] run n=0\n[2024-03-09 14:05:07] [INFO] run n=1\n",
		string(data))
}

func TestModuleLogMirrors(t *testing.T) {
	dir := t.TempDir()
	pipelinePath := filepath.Join(dir, "pipeline.log")
	modulePath := filepath.Join(dir, "fifo.pipeline.log")

	l, err := New(Conf{Path: pipelinePath}, nil, fixedNow)
	require.NoError(t, err)
	defer l.Close()

	mod, err := l.ForModule(modulePath)
	require.NoError(t, err)
	mod.Info("simulating", "module", "fifo")
	_, err = mod.Write([]byte("data_in=1 data_out=1\n"))
	require.NoError(t, err)
	require.NoError(t, mod.Close())

	l.Info("after module")

	moduleData, err := os.ReadFile(modulePath)
	require.NoError(t, err)
	assert.Equal(t, "[2024-03-09 14:05:07] [INFO] simulating module=fifo\ndata_in=1 data_out=1\n", string(moduleData))

	pipelineData, err := os.ReadFile(pipelinePath)
	require.NoError(t, err)
	assert.Contains(t, string(pipelineData), "simulating module=fifo")
	assert.Contains(t, string(pipelineData), "after module")
	assert.NotContains(t, string(pipelineData), "data_in=1")
}

func TestOpenCaptureTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "fifo_test.log")

	for _, line := range []string{"data_in=1 data_out=1\n", "data_in=2 data_out=2\n"} {
		f, err := OpenCapture(path)
		require.NoError(t, err)
		_, err = f.WriteString(line)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data_in=2 data_out=2\n", string(data))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", ParseLevel("debug").String())
	assert.Equal(t, "WARN", ParseLevel("WARNING").String())
	assert.Equal(t, "INFO", ParseLevel("").String())
}
