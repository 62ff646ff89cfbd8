package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

const (
	languagesURI = "amanpack://languages"
	configURI    = "amanpack://config"
)

// registerResources registers the read-only server resources.
func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		Name:        "languages",
		URI:         languagesURI,
		Description: "Languages supported for compression and structural line limits",
		MIMEType:    "application/json",
	}, func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return s.readResource(ctx, languagesURI)
	})

	s.mcp.AddResource(&mcp.Resource{
		Name:        "config",
		URI:         configURI,
		Description: "Effective amanpack configuration for this project",
		MIMEType:    "text/x-yaml",
	}, func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return s.readResource(ctx, configURI)
	})
}

// readResource renders a resource by URI.
func (s *Server) readResource(_ context.Context, uri string) (*mcp.ReadResourceResult, error) {
	var (
		text string
		mime string
	)
	switch uri {
	case languagesURI:
		data, err := json.MarshalIndent(s.handleListLanguages(), "", "  ")
		if err != nil {
			return nil, MapError(err)
		}
		text, mime = string(data), "application/json"
	case configURI:
		data, err := yaml.Marshal(s.config)
		if err != nil {
			return nil, MapError(fmt.Errorf("encode config: %w", err))
		}
		text, mime = string(data), "text/x-yaml"
	default:
		return nil, NewResourceNotFoundError(uri)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mime, Text: text}},
	}, nil
}
