package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

func newTestServer(t *testing.T, q *mockQueryService, s *mockSiloService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Query: q, Silos: s})
	require.NoError(t, err)
	return server
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the answer with sources", func(t *testing.T) {
		query := &mockQueryService{answer: &domain.Answer{
			Text:            "Rank 3: Peru\n\nAnswered by: lookup (csv_rank_lookup)",
			Intent:          domain.IntentLookup,
			GuardrailReason: "csv_rank_lookup",
			Sources: []domain.SourceRef{
				{Path: "/docs/2023.csv", Location: "line 4", Snippet: "rank: 3", Link: "file:///docs/2023.csv"},
			},
		}}
		server := newTestServer(t, query, &mockSiloService{})

		_, output, err := server.handleAsk(ctx, nil, AskInput{Query: "rank 3 2023", Silo: "docs", N: 5, NoRerank: true})

		require.NoError(t, err)
		assert.Equal(t, domain.AskRequest{Query: "rank 3 2023", Silo: "docs", N: 5, NoRerank: true}, query.got)
		assert.Contains(t, output.Answer, "Rank 3: Peru")
		assert.Equal(t, "LOOKUP", output.Intent)
		assert.Equal(t, "csv_rank_lookup", output.Guardrail)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "/docs/2023.csv", output.Sources[0].Path)
		assert.Equal(t, "line 4", output.Sources[0].Location)
	})

	t.Run("empty query is rejected", func(t *testing.T) {
		server := newTestServer(t, &mockQueryService{}, &mockSiloService{})

		_, _, err := server.handleAsk(ctx, nil, AskInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("returns error on query failure", func(t *testing.T) {
		query := &mockQueryService{err: errors.New("collection offline")}
		server := newTestServer(t, query, &mockSiloService{})

		_, _, err := server.handleAsk(ctx, nil, AskInput{Query: "anything"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "collection offline")
	})
}

func TestServer_handleListSilos(t *testing.T) {
	ctx := context.Background()

	t.Run("lists silos", func(t *testing.T) {
		updated := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		silos := &mockSiloService{silos: []domain.Silo{
			{Slug: "docs-1a2b3c4d", Name: "docs", RootPath: "/home/me/docs", FilesIndexed: 12, UpdatedAt: updated},
			{Slug: "code-99aa88bb", Name: "code", RootPath: "/home/me/code"},
		}}
		server := newTestServer(t, &mockQueryService{}, silos)

		_, output, err := server.handleListSilos(ctx, nil, ListSilosInput{})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "docs-1a2b3c4d", output.Silos[0].Slug)
		assert.Equal(t, 12, output.Silos[0].FilesIndexed)
		assert.Equal(t, "2025-03-01T12:00:00Z", output.Silos[0].UpdatedAt)
		assert.Empty(t, output.Silos[1].UpdatedAt)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		server := newTestServer(t, &mockQueryService{}, &mockSiloService{err: errors.New("registry locked")})

		_, _, err := server.handleListSilos(ctx, nil, ListSilosInput{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing silos")
	})
}

func TestServer_handleStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("returns status", func(t *testing.T) {
		query := &mockQueryService{status: &domain.Status{Chunks: 7, LLMModel: "llama3.1:8b", LLMReady: true}}
		server := newTestServer(t, query, &mockSiloService{})

		_, output, err := server.handleStatus(ctx, nil, StatusInput{})

		require.NoError(t, err)
		assert.Equal(t, 7, output.Chunks)
		assert.True(t, output.LLMReady)
	})

	t.Run("returns error", func(t *testing.T) {
		server := newTestServer(t, &mockQueryService{err: errors.New("db closed")}, &mockSiloService{})

		_, _, err := server.handleStatus(ctx, nil, StatusInput{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading status")
	})
}
