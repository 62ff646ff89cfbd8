package mcp

import (
	"encoding/json"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/modfile"
)

// ProjectInfo identifies the project being packed.
type ProjectInfo struct {
	Name     string `json:"name" jsonschema:"project name from its manifest, or the directory name"`
	RootPath string `json:"root_path" jsonschema:"absolute project root"`
	Type     string `json:"type" jsonschema:"go, node, python or unknown"`
}

// ProjectDetector detects project metadata from common manifest files.
type ProjectDetector struct {
	rootPath string
	logger   *slog.Logger
}

// NewProjectDetector creates a new project detector.
func NewProjectDetector(rootPath string, logger *slog.Logger) *ProjectDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectDetector{rootPath: rootPath, logger: logger}
}

// Detect checks go.mod, package.json and pyproject.toml in that order and
// falls back to the directory name.
func (d *ProjectDetector) Detect() *ProjectInfo {
	info := &ProjectInfo{
		RootPath: d.rootPath,
		Name:     filepath.Base(d.rootPath),
		Type:     "unknown",
	}

	detectors := []struct {
		kind   string
		detect func() string
	}{
		{"go", d.goModule},
		{"node", d.nodePackage},
		{"python", d.pythonProject},
	}
	for _, det := range detectors {
		if name := det.detect(); name != "" {
			info.Name = name
			info.Type = det.kind
			break
		}
	}
	return info
}

func (d *ProjectDetector) read(name string) []byte {
	data, err := os.ReadFile(filepath.Join(d.rootPath, name))
	if err != nil {
		return nil
	}
	return data
}

// goModule returns the last element of the module path.
func (d *ProjectDetector) goModule() string {
	data := d.read("go.mod")
	if data == nil {
		return ""
	}
	modulePath := modfile.ModulePath(data)
	if modulePath == "" {
		d.logger.Debug("go.mod has no module directive", slog.String("root", d.rootPath))
		return ""
	}
	return path.Base(modulePath)
}

// nodePackage returns the package name without its scope.
func (d *ProjectDetector) nodePackage() string {
	data := d.read("package.json")
	if data == nil {
		return ""
	}
	var pkg struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		d.logger.Debug("invalid package.json", slog.String("error", err.Error()))
		return ""
	}
	if pkg.Name == "" {
		return ""
	}
	return path.Base(pkg.Name)
}

// pythonProject returns [project].name, or [tool.poetry].name.
func (d *ProjectDetector) pythonProject() string {
	data := d.read("pyproject.toml")
	if data == nil {
		return ""
	}
	var doc struct {
		Project struct {
			Name string `toml:"name"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Name string `toml:"name"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if _, err := toml.Decode(string(data), &doc); err != nil {
		d.logger.Debug("invalid pyproject.toml", slog.String("error", err.Error()))
		return ""
	}
	if doc.Project.Name != "" {
		return doc.Project.Name
	}
	return doc.Tool.Poetry.Name
}
