package pack

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/amanpack/internal/scanner"
)

// Relevant reports whether a change to the root-relative relPath can alter
// the result of a pack run with opts. The output file and its lock and
// temporary siblings never count, so writing the pack does not retrigger
// it.
func (p *Packer) Relevant(opts Options, relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)
	if !isDir && isOutputArtifact(opts, relPath) {
		return false
	}
	if !isDir && filepath.Base(relPath) == scanner.IgnoreFileName {
		return true
	}

	ok, err := p.scanner.Matches(&opts.Scan, relPath, isDir)
	if err != nil {
		p.logger.Debug("relevance check failed",
			slog.String("path", relPath),
			slog.String("error", err.Error()))
		return true
	}
	return ok
}

// isOutputArtifact reports whether relPath is the output file, its lock
// or one of its temporary files.
func isOutputArtifact(opts Options, relPath string) bool {
	if opts.OutputPath == "" {
		return false
	}
	out, err := filepath.Abs(opts.OutputPath)
	if err != nil {
		return false
	}
	root, err := filepath.Abs(opts.Scan.RootDir)
	if err != nil {
		return false
	}
	abs := filepath.Join(root, filepath.FromSlash(relPath))
	if filepath.Dir(abs) != filepath.Dir(out) {
		return false
	}

	name, base := filepath.Base(abs), filepath.Base(out)
	return name == base ||
		name == base+".lock" ||
		strings.HasPrefix(name, "."+base+".") && strings.HasSuffix(name, ".tmp")
}
