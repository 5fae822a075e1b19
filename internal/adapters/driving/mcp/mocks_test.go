package mcp

import (
	"context"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer *domain.Answer
	status *domain.Status
	err    error
	got    domain.AskRequest
}

func (m *mockQueryService) Ask(_ context.Context, req domain.AskRequest) (*domain.Answer, error) {
	m.got = req
	return m.answer, m.err
}

func (m *mockQueryService) Status(_ context.Context) (*domain.Status, error) {
	return m.status, m.err
}

// mockSiloService is a mock implementation of driving.SiloService.
type mockSiloService struct {
	silos []domain.Silo
	silo  *domain.Silo
	err   error
}

func (m *mockSiloService) List(_ context.Context) ([]domain.Silo, error) {
	return m.silos, m.err
}

func (m *mockSiloService) Resolve(_ context.Context, _ string) (*domain.Silo, error) {
	return m.silo, m.err
}

func (m *mockSiloService) Audit(_ context.Context) ([]domain.SiloOverlap, error) {
	return nil, m.err
}
