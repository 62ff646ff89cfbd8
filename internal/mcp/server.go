package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/amanpack/internal/chunk"
	"github.com/Aman-CERP/amanpack/internal/config"
	amerrors "github.com/Aman-CERP/amanpack/internal/errors"
	"github.com/Aman-CERP/amanpack/internal/pack"
	"github.com/Aman-CERP/amanpack/internal/render"
	"github.com/Aman-CERP/amanpack/internal/truncate"
	"github.com/Aman-CERP/amanpack/pkg/version"
)

// Server is the MCP server for amanpack. It exposes compression, line
// limiting and directory packing of one project root as tools.
type Server struct {
	mcp      *mcp.Server
	manager  *chunk.Manager
	engine   *truncate.Engine
	packer   *pack.Packer
	config   *config.Config
	rootPath string
	logger   *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        "compress_file",
		Description: "Compress a source file to its skeleton: imports, type and function signatures, and comments, without bodies. Use it to understand a file's API in a fraction of its tokens.",
	},
	{
		Name:        "limit_lines",
		Description: "Reduce a source file to a line budget while keeping its header, its footer and its most important functions whole. Reports which functions were cut.",
	},
	{
		Name:        "pack_directory",
		Description: "Pack a directory into one AI-friendly document (xml, markdown or plain), honoring .gitignore and the project's include and exclude patterns, optionally compressing or line-limiting every file.",
	},
	{
		Name:        "list_languages",
		Description: "List the languages that compress_file and limit_lines understand, with their file extensions.",
	},
}

// NewServer creates a new MCP server over an initialized manager.
func NewServer(manager *chunk.Manager, engine *truncate.Engine, packer *pack.Packer, cfg *config.Config, rootPath string) (*Server, error) {
	if manager == nil {
		return nil, errors.New("language manager is required")
	}
	if engine == nil {
		return nil, errors.New("truncation engine is required")
	}
	if packer == nil {
		return nil, errors.New("packer is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	s := &Server{
		manager:  manager,
		engine:   engine,
		packer:   packer,
		config:   cfg,
		rootPath: absRoot,
		logger:   slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "amanpack",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return append([]ToolInfo(nil), tools...)
}

// CallTool invokes a tool by name with JSON-style arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "compress_file":
		var in CompressFileInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.handleCompressFile(ctx, in)
	case "limit_lines":
		var in LimitLinesInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.handleLimitLines(ctx, in)
	case "pack_directory":
		var in PackDirectoryInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.handlePackDirectory(ctx, in)
	case "list_languages":
		return s.handleListLanguages(), nil
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func decodeArgs(args map[string]any, v any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return NewInvalidParamsError(err.Error())
	}
	if err := json.Unmarshal(data, v); err != nil {
		return NewInvalidParamsError(err.Error())
	}
	return nil
}

// handleCompressFile compresses one file. Unsupported languages and parse
// failures return the content unchanged with a reason.
func (s *Server) handleCompressFile(ctx context.Context, in CompressFileInput) (*CompressFileOutput, error) {
	content, err := s.source(in.Path, in.Content)
	if err != nil {
		return nil, err
	}

	language, _ := s.manager.GuessLanguage(in.Path)
	out := &CompressFileOutput{
		Path:          in.Path,
		Language:      language,
		MIMEType:      MimeType(language, in.Path),
		Content:       content,
		OriginalLines: pack.CountLines(content),
	}

	compressed, ok, err := s.manager.Compress(ctx, content, in.Path, chunk.Options{
		RemoveComments:   in.RemoveComments,
		RemoveEmptyLines: in.RemoveEmptyLines,
	})
	switch {
	case err != nil:
		if amerrors.IsFatal(err) || ctx.Err() != nil {
			return nil, MapError(err)
		}
		s.logger.Warn("compress_file returned content unchanged",
			append([]any{slog.String("path", in.Path)}, amerrors.LogAttrs(err)...)...)
		out.Reason = err.Error()
	case !ok:
		out.Reason = "language not supported"
	default:
		out.Content = compressed
		out.Compressed = true
	}
	out.Lines = pack.CountLines(out.Content)
	return out, nil
}

// handleLimitLines applies a line budget to one file.
func (s *Server) handleLimitLines(ctx context.Context, in LimitLinesInput) (*LimitLinesOutput, error) {
	if in.LineLimit <= 0 {
		return nil, NewInvalidParamsError("line_limit must be a positive integer")
	}
	content, err := s.source(in.Path, in.Content)
	if err != nil {
		return nil, err
	}

	result := s.engine.Apply(ctx, content, in.Path, in.LineLimit, truncate.Options{
		PreserveStructure: in.PreserveStructure,
		ShowIndicators:    in.ShowIndicators,
		EnableCaching:     s.config.Compression.EnableCaching,
	})
	if err := ctx.Err(); err != nil {
		return nil, MapError(err)
	}

	language := result.Metadata.Language
	if language == "" {
		language, _ = s.manager.GuessLanguage(in.Path)
	}
	return &LimitLinesOutput{
		Path:               in.Path,
		Language:           language,
		Truncated:          result.Truncated,
		Outcome:            string(result.Metadata.Outcome),
		Reason:             result.Metadata.Reason,
		Content:            result.Content,
		OriginalLines:      result.OriginalLineCount,
		LimitedLines:       result.LimitedLineCount,
		TruncatedFunctions: result.TruncatedFunctions,
	}, nil
}

// handlePackDirectory packs a directory under the root into one document.
func (s *Server) handlePackDirectory(ctx context.Context, in PackDirectoryInput) (*PackDirectoryOutput, error) {
	rel := in.Path
	if rel == "" {
		rel = "."
	}
	dir, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, &MCPError{Code: ErrCodeFileNotFound, Message: fmt.Sprintf("directory not found: %s", rel)}
	}

	opts := pack.OptionsFromConfig(s.config, dir)
	opts.OutputPath = ""
	if in.Style != "" {
		switch in.Style {
		case render.StyleXML, render.StyleMarkdown, render.StylePlain:
			opts.Render.Style = in.Style
		default:
			return nil, NewInvalidParamsError(fmt.Sprintf("style must be xml, markdown or plain, got %q", in.Style))
		}
	}
	if in.Compress != nil {
		opts.Compress = *in.Compress
	}
	if in.RemoveComments != nil {
		opts.RemoveComments = *in.RemoveComments
	}
	if in.RemoveEmptyLines != nil {
		opts.RemoveEmptyLines = *in.RemoveEmptyLines
	}
	if in.LineLimit != nil {
		if *in.LineLimit < 0 {
			return nil, NewInvalidParamsError("line_limit must not be negative")
		}
		opts.LineLimit = *in.LineLimit
	}
	if in.ShowLineNumbers != nil {
		opts.Render.ShowLineNumbers = *in.ShowLineNumbers
	}
	if len(in.Include) > 0 {
		opts.Scan.IncludePatterns = in.Include
	}
	opts.Scan.ExcludePatterns = append(append([]string(nil), opts.Scan.ExcludePatterns...), in.Exclude...)

	result, err := s.packer.Pack(ctx, opts)
	if err != nil {
		return nil, MapError(err)
	}

	out := &PackDirectoryOutput{
		Project:  *NewProjectDetector(dir, s.logger).Detect(),
		Files:    result.Stats.Files,
		Chars:    result.Stats.Chars,
		Tokens:   result.Stats.Tokens,
		Document: string(result.Document),
	}
	for _, sk := range result.Skipped {
		out.Skipped = append(out.Skipped, sk.Path)
	}
	return out, nil
}

// handleListLanguages reports the registry contents.
func (s *Server) handleListLanguages() *ListLanguagesOutput {
	prepared := make(map[string]bool)
	for _, name := range s.manager.Prepared() {
		prepared[name] = true
	}

	configs := s.manager.Registry().Languages()
	out := &ListLanguagesOutput{Languages: make([]LanguageInfo, 0, len(configs))}
	for _, cfg := range configs {
		out.Languages = append(out.Languages, LanguageInfo{
			Name:       cfg.Name,
			Extensions: cfg.Extensions,
			Structural: cfg.HasStructure(),
			Prepared:   prepared[cfg.Name],
		})
	}
	return out
}

// source returns content when given, otherwise the file at the
// root-relative path.
func (s *Server) source(relPath, content string) (string, error) {
	if relPath == "" {
		return "", NewInvalidParamsError("path parameter is required")
	}
	if content != "" {
		return content, nil
	}

	full, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", MapError(amerrors.New(amerrors.ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", relPath), err))
		}
		return "", MapError(err)
	}
	if info.IsDir() {
		return "", NewInvalidParamsError(fmt.Sprintf("path is a directory: %s", relPath))
	}
	if limit := s.config.Paths.MaxFileSize; limit > 0 && info.Size() > limit {
		return "", MapError(amerrors.New(amerrors.ErrCodeFileTooLarge,
			fmt.Sprintf("file too large: %d bytes (max %d)", info.Size(), limit), nil))
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", MapError(err)
	}
	return string(data), nil
}

// resolve maps a root-relative path to an absolute path inside the root.
func (s *Server) resolve(relPath string) (string, error) {
	if !isValidPath(relPath) {
		return "", NewInvalidParamsError(fmt.Sprintf("invalid path: %s", relPath))
	}
	return filepath.Join(s.rootPath, filepath.FromSlash(relPath)), nil
}

// isValidPath rejects absolute paths and paths that escape the root.
func isValidPath(path string) bool {
	if path == "" || filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return false
	}
	if len(path) >= 2 && path[1] == ':' {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(filepath.Clean(path)), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description},
		func(ctx context.Context, _ *mcp.CallToolRequest, in CompressFileInput) (*mcp.CallToolResult, *CompressFileOutput, error) {
			out, err := s.handleCompressFile(ctx, in)
			return nil, out, err
		})
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description},
		func(ctx context.Context, _ *mcp.CallToolRequest, in LimitLinesInput) (*mcp.CallToolResult, *LimitLinesOutput, error) {
			out, err := s.handleLimitLines(ctx, in)
			return nil, out, err
		})
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description},
		func(ctx context.Context, _ *mcp.CallToolRequest, in PackDirectoryInput) (*mcp.CallToolResult, *PackDirectoryOutput, error) {
			out, err := s.handlePackDirectory(ctx, in)
			return nil, out, err
		})
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[3].Name, Description: tools[3].Description},
		func(ctx context.Context, _ *mcp.CallToolRequest, _ ListLanguagesInput) (*mcp.CallToolResult, *ListLanguagesOutput, error) {
			return nil, s.handleListLanguages(), nil
		})

	s.logger.Debug("MCP tools registered", slog.Int("count", len(tools)))
}

// Serve runs the server on transport until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server",
		slog.String("transport", transport),
		slog.String("root", s.rootPath))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("MCP server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}
