package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateThirdCandidate(t *testing.T) {
	root := t.TempDir()
	third := filepath.Join(root, "sim", "fifo", "fifo_test.log")
	require.NoError(t, os.MkdirAll(filepath.Dir(third), 0o755))
	require.NoError(t, os.WriteFile(third, []byte("data_in=1 data_out=1\n"), 0o644))

	got, ok := Locate(root, DefaultCandidates)
	require.True(t, ok)
	assert.Equal(t, third, got)
}

func TestLocateNone(t *testing.T) {
	_, ok := Locate(t.TempDir(), DefaultCandidates)
	assert.False(t, ok)
}

func TestAnalyzeNoData(t *testing.T) {
	res, err := Analyze(t.TempDir(), DefaultCandidates)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, Summary{}, res.Summary)
}

func TestAnalyzeFound(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "fifo_test.log")
	require.NoError(t, os.WriteFile(path, []byte("data_in=41 data_out=42\nWrite: data_in=1\n"), 0o644))

	res, err := Analyze(root, DefaultCandidates)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, path, res.Path)
	assert.Equal(t, Summary{Total: 2, Writes: 2, Reads: 1, Mismatches: 1}, res.Summary)
}
