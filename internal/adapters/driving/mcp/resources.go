package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for llmli resources.
	uriScheme = "llmli://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "silos",
		Name:        "silos",
		Description: "List of all indexed silos",
		MIMEType:    "application/json",
	}, s.handleSilosResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "silos/{slug}",
		Name:        "silo",
		Description: "One silo, resolved by slug, slug prefix or display name",
		MIMEType:    "application/json",
	}, s.handleSiloResource)
}

// handleSilosResource returns every silo.
func (s *Server) handleSilosResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	silos, err := s.ports.Silos.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing silos: %w", err)
	}

	infos := make([]SiloOutput, len(silos))
	for i := range silos {
		infos[i] = siloOutput(silos[i])
	}
	return jsonResource(req.Params.URI, infos)
}

// handleSiloResource returns a single silo.
func (s *Server) handleSiloResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractSiloName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	silo, err := s.ports.Silos.Resolve(ctx, name)
	if errors.Is(err, domain.ErrUnknownSilo) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving silo: %w", err)
	}
	return jsonResource(req.Params.URI, siloOutput(*silo))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling silos: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSiloName extracts the silo name from a URI like llmli://silos/{slug}.
func extractSiloName(uri string) string {
	const prefix = uriScheme + "silos/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return strings.Trim(strings.TrimPrefix(uri, prefix), "/")
}
