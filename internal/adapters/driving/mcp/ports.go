package mcp

import (
	"github.com/custodia-labs/llmli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
type Ports struct {
	// Query answers questions.
	Query driving.QueryService

	// Silos lists and resolves silos.
	Silos driving.SiloService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	if p.Silos == nil {
		return ErrMissingSiloService
	}
	return nil
}
