package pack

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amanpack/internal/chunk"
	amanerrors "github.com/Aman-CERP/amanpack/internal/errors"
	"github.com/Aman-CERP/amanpack/internal/render"
	"github.com/Aman-CERP/amanpack/internal/scanner"
	"github.com/Aman-CERP/amanpack/internal/truncate"
)

const goSource = `package main

import "fmt"

// Hello prints a greeting.
func Hello(name string) {
	fmt.Println("Hello", name)
}
`

const goCompressed = "package main\nimport \"fmt\"\n// Hello prints a greeting.\nfunc Hello(name string) {"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	m := chunk.NewManager(chunk.WithLogger(quietLogger()))
	require.NoError(t, m.Init())
	t.Cleanup(m.Dispose)

	e, err := truncate.NewEngine(truncate.NewTreeAnalyzer(m), truncate.Config{Logger: quietLogger()})
	require.NoError(t, err)
	return NewProcessor(m, e, quietLogger())
}

func newTestPacker(t *testing.T, opts ...Option) *Packer {
	t.Helper()
	p, err := New(newTestProcessor(t), append([]Option{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	return p
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestWorkerCount(t *testing.T) {
	tests := []struct {
		name       string
		files      int
		configured int
		want       int
	}{
		{"no files", 0, 0, 1},
		{"few files", 50, 0, 1},
		{"one hundred", 100, 0, 1},
		{"just over one hundred", 101, 0, min(2, runtime.NumCPU())},
		{"many files capped by CPUs", 100000, 0, runtime.NumCPU()},
		{"configured wins", 10, 6, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WorkerCount(tt.files, tt.configured))
		})
	}
}

func TestProcessFile_Compress(t *testing.T) {
	// Given: a Go file and compression enabled
	p := newTestProcessor(t)

	// When: processing it
	fr, err := p.ProcessFile(context.Background(), "main.go", goSource, Options{Compress: true, LineLimit: 1})

	// Then: it is compressed and the line limit is not applied
	require.NoError(t, err)
	assert.Equal(t, goCompressed, fr.Content)
	assert.Equal(t, ReductionCompressed, fr.Reduction)
	assert.Equal(t, "go", fr.Language)
	assert.Equal(t, 8, fr.OriginalLines)
	assert.Equal(t, 4, fr.Lines)
}

func TestProcessFile_CompressUnsupportedFallsBackToLineLimit(t *testing.T) {
	p := newTestProcessor(t)

	fr, err := p.ProcessFile(context.Background(), "notes.txt", "a\nb\nc\nd\n", Options{Compress: true, LineLimit: 2})

	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", fr.Content)
	assert.Equal(t, ReductionTruncated, fr.Reduction)
	assert.Equal(t, "", fr.Language)
	assert.Equal(t, 4, fr.OriginalLines)
	assert.Equal(t, 2, fr.Lines)
}

func TestProcessFile_NoOptions_Unchanged(t *testing.T) {
	p := newTestProcessor(t)

	fr, err := p.ProcessFile(context.Background(), "main.go", goSource, Options{})

	require.NoError(t, err)
	assert.Equal(t, goSource, fr.Content)
	assert.Equal(t, ReductionNone, fr.Reduction)
}

func TestProcessFile_RemoveCommentsAndEmptyLines(t *testing.T) {
	p := newTestProcessor(t)

	fr, err := p.ProcessFile(context.Background(), "main.go", goSource, Options{RemoveComments: true, RemoveEmptyLines: true})

	require.NoError(t, err)
	assert.NotContains(t, fr.Content, "Hello prints")
	assert.NotContains(t, fr.Content, "\n\n")
	assert.Contains(t, fr.Content, `fmt.Println("Hello", name)`)
	assert.Equal(t, ReductionNone, fr.Reduction)
}

func TestProcessFile_RemoveEmptyLinesForUnknownLanguage(t *testing.T) {
	p := newTestProcessor(t)

	fr, err := p.ProcessFile(context.Background(), "notes.txt", "a\n\n\nb\n", Options{RemoveComments: true, RemoveEmptyLines: true})

	require.NoError(t, err)
	assert.Equal(t, "a\nb", fr.Content)
}

func TestProcessFile_UninitializedManagerIsFatal(t *testing.T) {
	m := chunk.NewManager(chunk.WithLogger(quietLogger()))
	t.Cleanup(m.Dispose)
	e, err := truncate.NewEngine(truncate.NewTreeAnalyzer(m), truncate.Config{Logger: quietLogger()})
	require.NoError(t, err)
	p := NewProcessor(m, e, quietLogger())

	_, err = p.ProcessFile(context.Background(), "main.go", goSource, Options{Compress: true})

	assert.ErrorIs(t, err, amanerrors.ErrUninitialized)
}

func TestProcessFile_CancelledContext(t *testing.T) {
	p := newTestProcessor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ProcessFile(ctx, "main.go", goSource, Options{Compress: true})

	assert.ErrorIs(t, err, context.Canceled)
}

type countingReporter struct {
	total atomic.Int32
	done  atomic.Int32
	ended atomic.Bool
}

func (r *countingReporter) Start(total int) { r.total.Store(int32(total)) }
func (r *countingReporter) FileDone(string) { r.done.Add(1) }
func (r *countingReporter) Finish()         { r.ended.Store(true) }

func TestPack_RendersDocument(t *testing.T) {
	// Given: a project with an ignored log file
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":    "*.log\n",
		"main.go":       goSource,
		"docs/notes.md": "# Notes\n",
		"debug.log":     "noise\n",
	})
	reporter := &countingReporter{}
	p := newTestPacker(t, WithReporter(reporter))

	// When: packing with compression into memory
	result, err := p.Pack(context.Background(), Options{
		Compress: true,
		Scan:     scanner.ScanOptions{RootDir: root, RespectGitignore: true},
		Render:   render.Options{Style: render.StyleXML, FileSummary: true},
	})

	// Then: files are sorted, compressed and rendered
	require.NoError(t, err)
	require.Len(t, result.Files, 3)
	assert.Equal(t, []string{".gitignore", "docs/notes.md", "main.go"},
		[]string{result.Files[0].Path, result.Files[1].Path, result.Files[2].Path})
	assert.Empty(t, result.Skipped)
	assert.Equal(t, 1, result.Workers)

	doc := string(result.Document)
	assert.Contains(t, doc, "<file path=\"main.go\">\n"+goCompressed+"\n</file>")
	assert.Contains(t, doc, "<file path=\"docs/notes.md\">\n# Notes\n</file>")
	assert.Contains(t, doc, "Files: 3")
	assert.Contains(t, doc, "compressed to their signatures")
	assert.NotContains(t, doc, "debug.log")
	assert.Equal(t, 3, result.Stats.Files)

	assert.Equal(t, int32(3), reporter.total.Load())
	assert.Equal(t, int32(3), reporter.done.Load())
	assert.True(t, reporter.ended.Load())
}

func TestPack_WritesCompressedOutputs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"main.go": goSource})
	out := t.TempDir()
	p := newTestPacker(t)

	tests := []struct {
		name string
		file string
		open func(t *testing.T, f *os.File) io.Reader
	}{
		{"plain", "out.txt", func(t *testing.T, f *os.File) io.Reader { return f }},
		{"gzip", "out.txt.gz", func(t *testing.T, f *os.File) io.Reader {
			r, err := gzip.NewReader(f)
			require.NoError(t, err)
			return r
		}},
		{"zstd", "out.txt.zst", func(t *testing.T, f *os.File) io.Reader {
			r, err := zstd.NewReader(f)
			require.NoError(t, err)
			t.Cleanup(r.Close)
			return r
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(out, tt.file)

			result, err := p.Pack(context.Background(), Options{
				Scan:       scanner.ScanOptions{RootDir: root},
				Render:     render.Options{Style: render.StylePlain},
				OutputPath: path,
			})
			require.NoError(t, err)
			assert.Equal(t, path, result.OutputPath)
			assert.Nil(t, result.Document)

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()
			data, err := io.ReadAll(tt.open(t, f))
			require.NoError(t, err)
			assert.Contains(t, string(data), "File: main.go\n================\n"+goSource)
		})
	}
}

func TestPack_SkipsOwnOutputUnderRoot(t *testing.T) {
	// Given: an output file inside the packed root
	root := t.TempDir()
	writeTree(t, root, map[string]string{"main.go": goSource})
	p := newTestPacker(t)
	opts := Options{
		Scan:       scanner.ScanOptions{RootDir: root},
		Render:     render.Options{Style: render.StyleXML},
		OutputPath: filepath.Join(root, "context.xml"),
	}

	// When: packing twice
	_, err := p.Pack(context.Background(), opts)
	require.NoError(t, err)
	result, err := p.Pack(context.Background(), opts)

	// Then: the previous output and its lock are not packed
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "main.go", result.Files[0].Path)
}

func TestProcess_CollectsUnreadableFiles(t *testing.T) {
	// Given: a file that disappears after discovery
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "package a\n"})
	files := []*scanner.FileInfo{
		{Path: "a.go", AbsPath: filepath.Join(root, "a.go")},
		{Path: "gone.go", AbsPath: filepath.Join(root, "gone.go")},
	}
	p := newTestPacker(t)

	// When: processing
	result, err := p.Process(context.Background(), files, Options{})

	// Then: the run continues and the failure is reported
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "gone.go", result.Skipped[0].Path)
	assert.ErrorIs(t, result.Skipped[0].Err, os.ErrNotExist)
}

func TestProcess_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "package a\n"})
	files := []*scanner.FileInfo{{Path: "a.go", AbsPath: filepath.Join(root, "a.go")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPacker(t).Process(ctx, files, Options{})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPack_InvalidRoot(t *testing.T) {
	_, err := newTestPacker(t).Pack(context.Background(), Options{
		Scan: scanner.ScanOptions{RootDir: filepath.Join(t.TempDir(), "missing")},
	})
	assert.ErrorContains(t, err, "scan failed")
}

func TestWriteFile_LockedOutput(t *testing.T) {
	// Given: another holder of the output lock
	path := filepath.Join(t.TempDir(), "out.xml")
	other := flock.New(path + ".lock")
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = other.Unlock() }()

	// When: writing
	err = WriteFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "data")
		return err
	})

	// Then: the write fails fast with the output-locked code
	assert.ErrorIs(t, err, amanerrors.ErrOutputLocked)
	assert.NoFileExists(t, path)
}

func TestWriteFile_CallbackErrorLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.md")

	err := WriteFile(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return assert.AnError
	})

	assert.ErrorIs(t, err, assert.AnError)
	assert.NoFileExists(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
	}
}

func TestWriteFile_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.txt")

	require.NoError(t, WriteFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello")
		return err
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestOptions_Notes(t *testing.T) {
	assert.Empty(t, Options{}.notes())
	assert.Len(t, Options{Compress: true, RemoveComments: true, RemoveEmptyLines: true, LineLimit: 10}.notes(), 4)
}

func TestRelevant(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{".gitignore": "*.log\nbuild/\n"})
	p := newTestPacker(t)
	opts := Options{
		Scan:       scanner.ScanOptions{RootDir: root, RespectGitignore: true},
		OutputPath: filepath.Join(root, "pack.xml"),
	}

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"main.go", false, true},
		{"deleted/old.go", false, true},
		{"debug.log", false, false},
		{"build", true, false},
		{"build/out.go", false, false},
		{"pack.xml", false, false},
		{"pack.xml.lock", false, false},
		{".pack.xml.123456.tmp", false, false},
		{"sub/pack.xml", false, true},
		{".amanpackignore", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Relevant(opts, tt.path, tt.isDir))
		})
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 0},
		{"single line without newline", "a", 1},
		{"trailing newline ends the line", "a\n", 1},
		{"two lines", "a\nb", 2},
		{"blank last line counts", "a\n\n", 2},
		{"only newline", "\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountLines(tt.content))
		})
	}
}
