package cli

import (
	"context"
	"time"

	"github.com/custodia-labs/llmli/internal/config"
	"github.com/custodia-labs/llmli/internal/core/domain"
)

type mockIngestService struct {
	result  *domain.AddResult
	status  domain.FileStatus
	err     error
	calls   []string
	lastReq domain.AddRequest
	lastArg []string
}

func (m *mockIngestService) RunAdd(_ context.Context, req domain.AddRequest) (*domain.AddResult, error) {
	m.calls = append(m.calls, "add")
	m.lastReq = req
	return m.result, m.err
}

func (m *mockIngestService) RunIndex(_ context.Context, req domain.AddRequest) (*domain.AddResult, error) {
	m.calls = append(m.calls, "index")
	m.lastReq = req
	return m.result, m.err
}

func (m *mockIngestService) UpdateSingleFile(_ context.Context, path, silo string, _ bool) (domain.FileStatus, string, error) {
	m.calls = append(m.calls, "update-file")
	m.lastArg = []string{path, silo}
	return m.status, path, m.err
}

func (m *mockIngestService) RemoveSingleFile(_ context.Context, path, silo string) (domain.FileStatus, string, error) {
	m.calls = append(m.calls, "remove-file")
	m.lastArg = []string{path, silo}
	return m.status, path, m.err
}

func (m *mockIngestService) RemoveSilo(_ context.Context, silo string) error {
	m.calls = append(m.calls, "rm")
	m.lastArg = []string{silo}
	return m.err
}

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

type mockSiloService struct {
	silos    []domain.Silo
	overlaps []domain.SiloOverlap
	err      error
}

func (m *mockSiloService) List(_ context.Context) ([]domain.Silo, error) {
	return m.silos, m.err
}

func (m *mockSiloService) Resolve(_ context.Context, name string) (*domain.Silo, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.silos {
		if m.silos[i].Slug == name || m.silos[i].Name == name {
			return &m.silos[i], nil
		}
	}
	return nil, domain.ErrUnknownSilo
}

func (m *mockSiloService) Audit(_ context.Context) ([]domain.SiloOverlap, error) {
	return m.overlaps, nil
}

type testServices struct {
	ingest *mockIngestService
	query  *mockQueryService
	silos  *mockSiloService
}

var testSilo = domain.Silo{
	Slug:         "docs-1a2b3c4d",
	Name:         "docs",
	RootPath:     "/home/me/docs",
	FilesIndexed: 1234,
	UpdatedAt:    time.Now().Add(-2 * time.Hour),
}

// setupTestServices installs mock services and resets command flags.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		ingest: &mockIngestService{result: &domain.AddResult{Silo: testSilo, FilesIndexed: 1234}},
		query:  &mockQueryService{answer: &domain.Answer{Text: "answer"}},
		silos:  &mockSiloService{silos: []domain.Silo{testSilo}},
	}
	setServices(&Services{
		Ingest:   ts.ingest,
		Query:    ts.query,
		Silos:    ts.silos,
		Settings: &config.Settings{DBPath: "/tmp/db"},
	})
	resetFlags()

	return ts, func() {
		services = nil
		ingestService = nil
		queryService = nil
		siloService = nil
		settings = nil
		resetFlags()
	}
}

func resetFlags() {
	indexMode = modeFull
	addIncremental, addAllowCloud = false, false
	addInclude, addExclude = nil, nil
	askSilo, askN, askNoRerank, askNoColour = "", 0, false, false
	silosJSON, statusJSON = false, false
	fileSilo, fileAllowCloud = "", false
}
