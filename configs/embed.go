// Package configs provides the embedded configuration template for amanpack.
//
// The template is embedded at build time so `amanpack config init` works
// from source builds and binary releases alike. Edit
// project-config.example.yaml and rebuild to change it.
package configs

import _ "embed"

// ProjectConfigTemplate is the commented .amanpack.yaml written by
// `amanpack config init`. It must load cleanly with config.Load.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
