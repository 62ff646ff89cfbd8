package profiling

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func busyWork() int {
	sum := 0
	for i := 0; i < 1_000_000; i++ {
		sum += i % 7
	}
	return sum
}

func TestSession_WritesEveryProfile(t *testing.T) {
	// Given: paths for all three profiles
	dir := t.TempDir()
	opts := Options{
		CPU:   filepath.Join(dir, "cpu.prof"),
		Heap:  filepath.Join(dir, "heap.prof"),
		Trace: filepath.Join(dir, "trace.out"),
	}
	require.True(t, opts.Enabled())

	// When: profiling some work
	s, err := Start(opts)
	require.NoError(t, err)
	_ = busyWork()
	require.NoError(t, s.Stop())

	// Then: every file exists and is non-empty
	for _, path := range []string{opts.CPU, opts.Heap, opts.Trace} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Positive(t, info.Size(), path)
	}
}

func TestSession_StopTwice(t *testing.T) {
	s, err := Start(Options{Heap: filepath.Join(t.TempDir(), "heap.prof")})
	require.NoError(t, err)

	require.NoError(t, s.Stop())
	assert.NoError(t, s.Stop())
}

func TestSession_NilStop(t *testing.T) {
	var s *Session
	assert.NoError(t, s.Stop())
}

func TestStart_BadPath(t *testing.T) {
	_, err := Start(Options{CPU: filepath.Join(t.TempDir(), "missing", "cpu.prof")})
	assert.ErrorContains(t, err, "CPU profile")
}

func TestOptions_Enabled(t *testing.T) {
	assert.False(t, Options{}.Enabled())
	assert.True(t, Options{Trace: "t.out"}.Enabled())
}

func TestHeapInUse(t *testing.T) {
	assert.NotEmpty(t, HeapInUse())
}
