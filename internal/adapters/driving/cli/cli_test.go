package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

// run executes the root command with args and returns its combined output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"index", "add", "ask", "silos", "rm", "update-file", "remove-file", "watch", "mcp", "status", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRootCmd_NoFactory(t *testing.T) {
	factory = nil
	_, err := run(t, "silos")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "services not configured")
}

func TestExecute_BuildsAndClosesServices(t *testing.T) {
	ts, cleanup := setupTestServices()
	cleanup()

	closed := false
	var gotDB string
	f := func(_ context.Context, db string) (*Services, error) {
		gotDB = db
		return &Services{
			Ingest: ts.ingest, Query: ts.query, Silos: ts.silos,
			Close: func() error { closed = true; return nil },
		}, nil
	}
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"--db", "/tmp/lib", "silos"})
	defer func() {
		rootCmd.SetArgs(nil)
		dbPath = ""
	}()

	require.NoError(t, Execute(context.Background(), f))
	assert.Equal(t, "/tmp/lib", gotDB)
	assert.True(t, closed)
	assert.Contains(t, buf.String(), "docs-1a2b3c4d")
}

func TestExecute_FactoryError(t *testing.T) {
	_, cleanup := setupTestServices()
	cleanup()
	defer cleanup()

	rootCmd.SetArgs([]string{"silos"})
	defer rootCmd.SetArgs(nil)

	err := Execute(context.Background(), func(context.Context, string) (*Services, error) {
		return nil, domain.ErrEmbeddingMismatch
	})
	assert.ErrorIs(t, err, domain.ErrEmbeddingMismatch)
}

func TestIndexCmd(t *testing.T) {
	t.Run("full mode rebuilds", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		out, err := run(t, "index", "/home/me/docs")

		require.NoError(t, err)
		assert.Equal(t, []string{"index"}, ts.ingest.calls)
		assert.False(t, ts.ingest.lastReq.Incremental)
		assert.Contains(t, out, "Indexed docs (docs-1a2b3c4d): 1,234 files")
	})

	t.Run("incremental mode adds", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		_, err := run(t, "index", "--mode", "incremental", "/home/me/docs")

		require.NoError(t, err)
		assert.Equal(t, []string{"add"}, ts.ingest.calls)
		assert.True(t, ts.ingest.lastReq.Incremental)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		_, err := run(t, "index", "--mode", "partial", "/home/me/docs")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("requires root", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		_, err := run(t, "index")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "accepts 1 arg(s)")
	})
}

func TestAddCmd(t *testing.T) {
	t.Run("passes flags through", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		_, err := run(t, "add", "--incremental", "--allow-cloud",
			"--include", "**/*.md", "--exclude", "drafts/**", "/home/me/docs")

		require.NoError(t, err)
		assert.Equal(t, domain.AddRequest{
			Root:        "/home/me/docs",
			AllowCloud:  true,
			Incremental: true,
			Include:     []string{"**/*.md"},
			Exclude:     []string{"drafts/**"},
		}, ts.ingest.lastReq)
	})

	t.Run("reports failures", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.ingest.result.Failures = 2

		out, err := run(t, "add", "/home/me/docs")

		require.NoError(t, err)
		assert.Contains(t, out, "2 failed")
	})

	t.Run("names refused secret files", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.ingest.result.Failures = 3
		ts.ingest.result.SecretsRefused = 2

		out, err := run(t, "add", "/home/me/docs")

		require.NoError(t, err)
		assert.Contains(t, out, "3 failed, 2 of them secret files refused on every run")
	})

	t.Run("wraps service errors", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.ingest.err = domain.ErrCloudPath

		_, err := run(t, "add", "/Users/me/OneDrive/docs")

		assert.ErrorIs(t, err, domain.ErrCloudPath)
		assert.Contains(t, err.Error(), "add failed")
	})
}

func TestAskCmd(t *testing.T) {
	t.Run("joins args and passes flags", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.query.answer = &domain.Answer{Text: "Rank 3: Peru\n\nAnswered by: lookup (csv_rank_lookup)"}

		out, err := run(t, "ask", "--silo", "docs", "--n", "7", "--no-rerank", "--no-color", "what", "is", "rank", "3")

		require.NoError(t, err)
		assert.Equal(t, domain.AskRequest{Query: "what is rank 3", Silo: "docs", N: 7, NoRerank: true}, ts.query.got)
		assert.Equal(t, "Rank 3: Peru\n\nAnswered by: lookup (csv_rank_lookup)\n", out)
	})

	t.Run("blank query", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		_, err := run(t, "ask", "  ")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("negative n", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		_, err := run(t, "ask", "--n", "-1", "hello")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("service error is returned unchanged", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.query.err = domain.ErrUnknownSilo

		_, err := run(t, "ask", "--silo", "nope", "hello")

		assert.ErrorIs(t, err, domain.ErrUnknownSilo)
	})
}

func TestSilosCmd(t *testing.T) {
	t.Run("lists silos and overlaps", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		inner := domain.Silo{Slug: "notes-00ff00ff", RootPath: "/home/me/docs/notes"}
		ts.silos.overlaps = []domain.SiloOverlap{{Outer: testSilo, Inner: inner}}

		out, err := run(t, "silos")

		require.NoError(t, err)
		assert.Contains(t, out, "Database: /tmp/db")
		assert.Contains(t, out, "docs-1a2b3c4d  docs")
		assert.Contains(t, out, "Files: 1,234")
		assert.Contains(t, out, "hours ago")
		assert.Contains(t, out, "Warning: /home/me/docs/notes is inside docs-1a2b3c4d")
	})

	t.Run("empty registry", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.silos.silos = nil

		out, err := run(t, "silos")

		require.NoError(t, err)
		assert.Contains(t, out, "No silos indexed")
	})

	t.Run("json", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		out, err := run(t, "silos", "--json")

		require.NoError(t, err)
		assert.Contains(t, out, `"slug": "docs-1a2b3c4d"`)
	})
}

func TestRmCmd(t *testing.T) {
	t.Run("resolves and removes", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		out, err := run(t, "rm", "docs")

		require.NoError(t, err)
		assert.Equal(t, []string{"docs-1a2b3c4d"}, ts.ingest.lastArg)
		assert.Contains(t, out, "Removed silo docs (docs-1a2b3c4d).")
	})

	t.Run("unknown silo", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		_, err := run(t, "rm", "nope")

		assert.ErrorIs(t, err, domain.ErrUnknownSilo)
		assert.Empty(t, ts.ingest.calls)
	})
}

func TestFileCmds(t *testing.T) {
	t.Run("silo flag is required", func(t *testing.T) {
		for _, cmd := range []*cobra.Command{updateFileCmd, removeFileCmd} {
			flag := cmd.Flags().Lookup("silo")
			require.NotNil(t, flag)
			assert.Equal(t, []string{"true"}, flag.Annotations[cobra.BashCompOneRequiredFlag])
		}
	})

	t.Run("update-file resolves editor links", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.ingest.status = domain.FileUpdated

		out, err := run(t, "update-file", "--silo", "docs", "vscode://file/home/me/docs/a.md:12")

		require.NoError(t, err)
		assert.Equal(t, []string{"/home/me/docs/a.md", "docs-1a2b3c4d"}, ts.ingest.lastArg)
		assert.Contains(t, out, "Updated /home/me/docs/a.md in docs-1a2b3c4d.")
	})

	t.Run("update-file unchanged", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.ingest.status = domain.FileUnchanged

		out, err := run(t, "update-file", "--silo", "docs", "/home/me/docs/a.md")

		require.NoError(t, err)
		assert.Contains(t, out, "is unchanged")
	})

	t.Run("remove-file missing", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.ingest.status = domain.FileMissing

		out, err := run(t, "remove-file", "--silo", "docs", "/home/me/docs/gone.md")

		require.NoError(t, err)
		assert.Equal(t, []string{"remove-file"}, ts.ingest.calls)
		assert.Contains(t, out, "was not indexed")
	})

	t.Run("errors are wrapped", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.ingest.err = errors.New("disk full")

		_, err := run(t, "update-file", "--silo", "docs", "/home/me/docs/a.md")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "update failed: disk full")
	})
}

func TestStyleAnswer(t *testing.T) {
	text := "Body\n\nAnswered by: lookup\n\nSources:\n- ~/a.md (line 1)\n  snippet"
	styled := styleAnswer(text, false)

	assert.Contains(t, styled, "Body")
	assert.Contains(t, styled, "Answered by: lookup")
	assert.Contains(t, styled, "~/a.md (line 1)")
	assert.Equal(t, len(bytes.Split([]byte(text), []byte("\n"))), len(bytes.Split([]byte(styled), []byte("\n"))))
}

func TestUseColour(t *testing.T) {
	assert.False(t, useColour(new(bytes.Buffer), false))
	assert.False(t, useColour(new(bytes.Buffer), true))
}

func TestStatusCmd(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.query.status = &domain.Status{Chunks: 12345, LLMModel: "llama3.1:8b", LLMReady: true, RerankModel: "ms-marco", Hybrid: true}

		out, err := run(t, "status")

		require.NoError(t, err)
		assert.Contains(t, out, "Database: /tmp/db")
		assert.Contains(t, out, "Silos:    1")
		assert.Contains(t, out, "Chunks:   12,345")
		assert.Contains(t, out, "LLM:      llama3.1:8b (ready)")
		assert.Contains(t, out, "Rerank:   ms-marco")
		assert.Contains(t, out, "Hybrid:   true")
	})

	t.Run("llm unavailable and json", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.query.status = &domain.Status{LLMModel: "none", LLMProblem: "no LLM configured"}

		out, err := run(t, "status")
		require.NoError(t, err)
		assert.Contains(t, out, "LLM:      none (unavailable: no LLM configured)")
		assert.Contains(t, out, "Rerank:   off")

		out, err = run(t, "status", "--json")
		require.NoError(t, err)
		assert.Contains(t, out, `"llm_model": "none"`)
		assert.Contains(t, out, `"llm_problem": "no LLM configured"`)
	})
}
