package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amanpack/internal/config"
	"github.com/Aman-CERP/amanpack/internal/output"
	"github.com/Aman-CERP/amanpack/internal/pack"
	"github.com/Aman-CERP/amanpack/internal/watcher"
)

// packFlags holds the pack command line. Only flags the user set override
// the loaded configuration.
type packFlags struct {
	output            string
	style             string
	compress          bool
	removeComments    bool
	removeEmptyLines  bool
	lineLimit         int
	showIndicators    bool
	preserveStructure bool
	include           []string
	ignore            []string
	noGitignore       bool
	lineNumbers       bool
	noFileSummary     bool
	noDirStructure    bool
	parsable          bool
	workers           int
	noProgress        bool
	watch             bool
}

func (f *packFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "Output file (.gz or .zst compresses it; - writes to stdout)")
	fl.StringVar(&f.style, "style", "", "Output style: xml, markdown or plain")
	fl.BoolVar(&f.compress, "compress", false, "Keep only imports, signatures and comments of supported files")
	fl.BoolVar(&f.removeComments, "remove-comments", false, "Strip comments")
	fl.BoolVar(&f.removeEmptyLines, "remove-empty-lines", false, "Strip blank lines")
	fl.IntVar(&f.lineLimit, "line-limit", 0, "Limit every file to this many lines (0 disables)")
	fl.BoolVar(&f.showIndicators, "show-indicators", false, "Mark omitted regions when limiting lines")
	fl.BoolVar(&f.preserveStructure, "preserve-structure", false, "Prefer keeping whole functions when limiting lines")
	fl.StringSliceVar(&f.include, "include", nil, "Glob patterns to include (comma separated)")
	fl.StringSliceVarP(&f.ignore, "ignore", "i", nil, "Additional glob patterns to exclude (comma separated)")
	fl.BoolVar(&f.noGitignore, "no-gitignore", false, "Do not honor .gitignore files")
	fl.BoolVar(&f.lineNumbers, "line-numbers", false, "Prefix each line with its number")
	fl.BoolVar(&f.noFileSummary, "no-file-summary", false, "Leave out the file summary section")
	fl.BoolVar(&f.noDirStructure, "no-directory-structure", false, "Leave out the directory tree section")
	fl.BoolVar(&f.parsable, "parsable-style", false, "Escape file contents so the document parses as XML or Markdown")
	fl.IntVar(&f.workers, "workers", 0, "Worker pool size (0 derives it from the file count)")
	fl.BoolVar(&f.noProgress, "no-progress", false, "Disable the progress bar")
	fl.BoolVarP(&f.watch, "watch", "w", false, "Repack whenever a relevant file changes")
}

// apply overrides cfg with the flags the user set.
func (f *packFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	fl := cmd.Flags()
	if fl.Changed("output") {
		cfg.Output.FilePath = f.output
	}
	if fl.Changed("style") {
		cfg.Output.Style = f.style
	}
	if fl.Changed("compress") {
		cfg.Compression.Compress = f.compress
	}
	if fl.Changed("remove-comments") {
		cfg.Compression.RemoveComments = f.removeComments
	}
	if fl.Changed("remove-empty-lines") {
		cfg.Compression.RemoveEmptyLines = f.removeEmptyLines
	}
	if fl.Changed("line-limit") {
		cfg.Compression.LineLimit = f.lineLimit
	}
	if fl.Changed("show-indicators") {
		cfg.Compression.ShowIndicators = f.showIndicators
	}
	if fl.Changed("preserve-structure") {
		cfg.Compression.PreserveStructure = f.preserveStructure
	}
	if fl.Changed("include") {
		cfg.Paths.Include = f.include
	}
	if fl.Changed("ignore") {
		cfg.Paths.Exclude = append(cfg.Paths.Exclude, f.ignore...)
	}
	if fl.Changed("no-gitignore") {
		cfg.Paths.RespectGitignore = !f.noGitignore
	}
	if fl.Changed("line-numbers") {
		cfg.Output.ShowLineNumbers = f.lineNumbers
	}
	if fl.Changed("no-file-summary") {
		cfg.Output.FileSummary = !f.noFileSummary
	}
	if fl.Changed("no-directory-structure") {
		cfg.Output.DirectoryStructure = !f.noDirStructure
	}
	if fl.Changed("parsable-style") {
		cfg.Output.ParsableStyle = f.parsable
	}
	if fl.Changed("workers") {
		cfg.Performance.Workers = f.workers
	}
	return cfg.Validate()
}

func newPackCmd() *cobra.Command {
	flags := &packFlags{}

	cmd := &cobra.Command{
		Use:   "pack [path]",
		Short: "Pack a directory into one document",
		Long: `Pack a directory into one document.

Configuration is merged from defaults, ~/.config/amanpack/config.yaml,
the project's .amanpack.yaml (or .yml/.toml), .env and AMANPACK_*
variables. Flags override all of them.

With --watch the directory is repacked whenever a file that can change
the result is created, modified or deleted. Editing .gitignore,
.amanpackignore or the project config file is picked up without a
restart.`,
		Example: `  # Pack the current directory to stdout
  amanpack pack

  # Compressed Markdown, zstd encoded
  amanpack pack --compress --style markdown -o context.md.zst

  # Keep every file under 200 lines and repack on change
  amanpack pack --line-limit 200 --show-indicators -o context.xml --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(cmd, args, flags)
		},
	}

	flags.register(cmd)
	return cmd
}

// packSession is one resolved pack invocation. Watch mode rebuilds its
// options when the project config changes.
type packSession struct {
	cmd    *cobra.Command
	flags  *packFlags
	root   string
	logger *slog.Logger
	status *output.Writer

	mu   sync.RWMutex
	opts pack.Options
}

func runPack(cmd *cobra.Command, args []string, flags *packFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	root, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", path)
	}

	s := &packSession{
		cmd:    cmd,
		flags:  flags,
		root:   root,
		logger: slog.Default(),
		status: output.NewAuto(cmd.ErrOrStderr()),
	}
	cfg, err := s.reload()
	if err != nil {
		return err
	}
	if flags.watch && s.options().OutputPath == "" {
		return fmt.Errorf("--watch requires an output file (-o)")
	}

	reporter := output.NewFileReporter(cmd.ErrOrStderr(), "Packing", !flags.noProgress && s.status.Interactive())
	p, err := newPipeline(cfg, s.logger, reporter)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := s.packOnce(ctx, p.packer); err != nil {
		return err
	}
	if !flags.watch {
		return nil
	}
	return s.watch(ctx, p.packer, cfg.WatchDebounceDuration())
}

// reload loads the project configuration, applies the flags and rebuilds
// the pack options.
func (s *packSession) reload() (*config.Config, error) {
	cfg, err := config.Load(s.root)
	if err != nil {
		return nil, err
	}
	if err := s.flags.apply(s.cmd, cfg); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	opts := pack.OptionsFromConfig(cfg, s.root)
	opts.OutputPath = s.resolveOutput(cfg.Output.FilePath)

	s.mu.Lock()
	s.opts = opts
	s.mu.Unlock()
	return cfg, nil
}

// resolveOutput makes the output path absolute. A path given on the
// command line is relative to the working directory; one from a config
// file is relative to the project root.
func (s *packSession) resolveOutput(path string) string {
	if path == "" || path == "-" {
		return ""
	}
	if filepath.IsAbs(path) {
		return path
	}
	if s.cmd.Flags().Changed("output") {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
	}
	return filepath.Join(s.root, path)
}

func (s *packSession) options() pack.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// packOnce runs one pack and reports the summary on stderr.
func (s *packSession) packOnce(ctx context.Context, p *pack.Packer) error {
	result, err := p.Pack(ctx, s.options())
	if err != nil {
		return err
	}

	if result.OutputPath == "" {
		if _, err := s.cmd.OutOrStdout().Write(result.Document); err != nil {
			return fmt.Errorf("failed to write document: %w", err)
		}
	}
	s.summarize(result)
	return nil
}

func (s *packSession) summarize(result *pack.Result) {
	dest := "stdout"
	if result.OutputPath != "" {
		dest = result.OutputPath
		if info, err := os.Stat(result.OutputPath); err == nil {
			dest = fmt.Sprintf("%s (%s)", result.OutputPath, humanize.Bytes(uint64(info.Size())))
		}
	}

	s.status.Successf("Packed %s files to %s", humanize.Comma(int64(result.Stats.Files)), dest)
	s.status.KeyValue("Characters", humanize.Comma(int64(result.Stats.Chars)))
	s.status.KeyValue("Tokens (est.)", humanize.Comma(int64(result.Stats.Tokens)))
	s.status.KeyValue("Duration", result.Duration.Round(time.Millisecond).String())
	for _, sk := range result.Skipped {
		s.status.Warningf("Skipped %s: %v", sk.Path, sk.Err)
	}
}

// watch repacks on every relevant change until ctx is cancelled.
func (s *packSession) watch(ctx context.Context, p *pack.Packer, debounce time.Duration) error {
	opts := watcher.Options{
		DebounceWindow: debounce,
		ConfigFiles:    config.ProjectConfigFiles(),
		Logger:         s.logger,
		Filter: func(relPath string, isDir bool) bool {
			return !p.Relevant(s.options(), relPath, isDir)
		},
	}

	s.status.Status("👀", fmt.Sprintf("Watching %s (Ctrl+C to stop)", s.root))
	return watcher.Run(ctx, s.root, opts, func(ctx context.Context, events []watcher.FileEvent) error {
		return s.onChange(ctx, p, events)
	})
}

// onChange applies ignore and config changes, then repacks.
func (s *packSession) onChange(ctx context.Context, p *pack.Packer, events []watcher.FileEvent) error {
	s.logger.Debug("change detected", slog.Int("events", len(events)))

	if watcher.Has(events, watcher.OpIgnoreChange) {
		p.Scanner().InvalidateIgnoreCache()
	}
	if watcher.Has(events, watcher.OpConfigChange) {
		if _, err := s.reload(); err != nil {
			s.status.Warningf("Keeping previous configuration: %v", err)
		}
	}
	return s.packOnce(ctx, p)
}
