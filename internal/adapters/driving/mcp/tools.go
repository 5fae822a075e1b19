package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query    string `json:"query" jsonschema:"the question to ask the library"`
	Silo     string `json:"silo,omitempty" jsonschema:"silo slug, slug prefix or display name to scope the question"`
	N        int    `json:"n,omitempty" jsonschema:"number of chunks to retrieve (default from config)"`
	NoRerank bool   `json:"no_rerank,omitempty" jsonschema:"skip the cross-encoder rerank stage"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string         `json:"answer"`
	Intent    string         `json:"intent"`
	Guardrail string         `json:"guardrail,omitempty"`
	Degraded  bool           `json:"degraded,omitempty"`
	Sources   []SourceOutput `json:"sources"`
}

// SourceOutput is one cited source.
type SourceOutput struct {
	Path     string `json:"path"`
	Location string `json:"location,omitempty"`
	Snippet  string `json:"snippet,omitempty"`
	Link     string `json:"link,omitempty"`
}

// ListSilosInput is the (empty) input schema for the list_silos tool.
type ListSilosInput struct{}

// ListSilosOutput is the output schema for the list_silos tool.
type ListSilosOutput struct {
	Silos []SiloOutput `json:"silos"`
	Count int          `json:"count"`
}

// SiloOutput describes one silo.
type SiloOutput struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	RootPath     string `json:"root_path"`
	FilesIndexed int    `json:"files_indexed"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// StatusInput is the (empty) input schema for the status tool.
type StatusInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question of the local document library and get a cited answer",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_silos",
		Description: "List the indexed silos (one per ingested folder)",
	}, s.handleListSilos)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "status",
		Description: "Report the collection size and whether the answer model is reachable",
	}, s.handleStatus)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if input.Query == "" {
		return nil, AskOutput{}, fmt.Errorf("query is required: %w", domain.ErrInvalidInput)
	}

	answer, err := s.ports.Query.Ask(ctx, domain.AskRequest{
		Query:    input.Query,
		Silo:     input.Silo,
		N:        input.N,
		NoRerank: input.NoRerank,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:    answer.Text,
		Intent:    answer.Intent.String(),
		Guardrail: answer.GuardrailReason,
		Degraded:  answer.Degraded,
		Sources:   make([]SourceOutput, len(answer.Sources)),
	}
	for i, src := range answer.Sources {
		output.Sources[i] = SourceOutput{
			Path:     src.Path,
			Location: src.Location,
			Snippet:  src.Snippet,
			Link:     src.Link,
		}
	}
	return nil, output, nil
}

// handleListSilos handles the list_silos tool invocation.
func (s *Server) handleListSilos(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListSilosInput,
) (*mcp.CallToolResult, ListSilosOutput, error) {
	silos, err := s.ports.Silos.List(ctx)
	if err != nil {
		return nil, ListSilosOutput{}, fmt.Errorf("listing silos: %w", err)
	}

	output := ListSilosOutput{
		Silos: make([]SiloOutput, len(silos)),
		Count: len(silos),
	}
	for i := range silos {
		output.Silos[i] = siloOutput(silos[i])
	}
	return nil, output, nil
}

// handleStatus handles the status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, domain.Status, error) {
	st, err := s.ports.Query.Status(ctx)
	if err != nil {
		return nil, domain.Status{}, fmt.Errorf("reading status: %w", err)
	}
	return nil, *st, nil
}

func siloOutput(silo domain.Silo) SiloOutput {
	out := SiloOutput{
		Slug:         silo.Slug,
		Name:         silo.Name,
		RootPath:     silo.RootPath,
		FilesIndexed: silo.FilesIndexed,
	}
	if !silo.UpdatedAt.IsZero() {
		out.UpdatedAt = silo.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	return out
}
