package output

import (
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Progress reports per-file progress. A disabled Progress is a no-op, so
// callers never need to check whether output is interactive.
type Progress struct {
	bar *progressbar.ProgressBar
}

// NewProgress creates a progress bar for total items written to out.
func NewProgress(out io.Writer, total int, description string, enabled bool) *Progress {
	if !enabled || total <= 0 {
		return &Progress{}
	}
	return &Progress{
		bar: progressbar.NewOptions(total,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files/s"),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		),
	}
}

// Increment records one finished item. Safe for concurrent use.
func (p *Progress) Increment() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Add(1)
}

// Finish completes and clears the bar.
func (p *Progress) Finish() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}

// FileReporter turns per-file pack events into a progress bar. The bar is
// created when the total is known.
type FileReporter struct {
	out         io.Writer
	description string
	enabled     bool

	mu  sync.Mutex
	bar *Progress
}

// NewFileReporter creates a reporter that draws on out when enabled.
func NewFileReporter(out io.Writer, description string, enabled bool) *FileReporter {
	return &FileReporter{out: out, description: description, enabled: enabled}
}

// Start creates the bar for total files.
func (r *FileReporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bar = NewProgress(r.out, total, r.description, r.enabled)
}

// FileDone advances the bar by one file.
func (r *FileReporter) FileDone(string) {
	r.mu.Lock()
	bar := r.bar
	r.mu.Unlock()
	bar.Increment()
}

// Finish completes the bar.
func (r *FileReporter) Finish() {
	r.mu.Lock()
	bar := r.bar
	r.bar = nil
	r.mu.Unlock()
	bar.Finish()
}
