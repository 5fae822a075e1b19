package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

func TestManifestStore_UpsertLookup(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "manifest.json")
	s, err := NewManifestStore(path)
	require.NoError(t, err)

	_, err = s.Lookup(ctx, "docs", "/a.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	rec := domain.FileRecord{Hash: "abc", ChunkIDs: []string{"1", "2"}, Mtime: 10, Size: 5}
	require.NoError(t, s.Upsert(ctx, "docs", "/a.txt", rec))

	got, err := s.Lookup(ctx, "docs", "/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Hash)
	assert.Equal(t, []string{"1", "2"}, got.ChunkIDs)
	assert.Equal(t, "/a.txt", got.Path)
	assert.Equal(t, "docs", got.Silo)
}

func TestManifestStore_OnDiskLayout(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "manifest.json")
	s, err := NewManifestStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, "docs", "/a.txt", domain.FileRecord{Hash: "h", Mtime: 1, Size: 2}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]map[string]map[string]map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	entry := raw["silos"]["docs"]["files"]["/a.txt"]
	assert.Equal(t, "h", entry["hash"])
	assert.Equal(t, []any{}, entry["chunk_ids"])
	assert.EqualValues(t, 1, entry["mtime"])
	assert.EqualValues(t, 2, entry["size"])
}

func TestManifestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "manifest.json")
	s, err := NewManifestStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, "docs", "/b.txt", domain.FileRecord{Hash: "b"}))
	require.NoError(t, s.Upsert(ctx, "docs", "/a.txt", domain.FileRecord{Hash: "a"}))

	reopened, err := NewManifestStore(path)
	require.NoError(t, err)
	list, err := reopened.List(ctx, "docs")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "/a.txt", list[0].Path)
	assert.Equal(t, "/b.txt", list[1].Path)
}

func TestManifestStore_RemoveAndDropSilo(t *testing.T) {
	ctx := context.Background()
	s, err := NewManifestStore(filepath.Join(t.TempDir(), "manifest.json"))
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, "a", "/1", domain.FileRecord{Hash: "1"}))
	require.NoError(t, s.Upsert(ctx, "a", "/2", domain.FileRecord{Hash: "2"}))
	require.NoError(t, s.Upsert(ctx, "b", "/3", domain.FileRecord{Hash: "3"}))

	require.NoError(t, s.Remove(ctx, "a", "/1"))
	require.NoError(t, s.Remove(ctx, "a", "/missing"))
	require.NoError(t, s.Remove(ctx, "nosilo", "/1"))
	list, _ := s.List(ctx, "a")
	assert.Len(t, list, 1)

	require.NoError(t, s.DropSilo(ctx, "a"))
	list, _ = s.List(ctx, "a")
	assert.Empty(t, list)
	other, _ := s.List(ctx, "b")
	assert.Len(t, other, 1)
}

func TestManifestStore_LookupReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s, err := NewManifestStore(filepath.Join(t.TempDir(), "manifest.json"))
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, "a", "/1", domain.FileRecord{ChunkIDs: []string{"x"}}))

	got, _ := s.Lookup(ctx, "a", "/1")
	got.ChunkIDs[0] = "mutated"

	again, _ := s.Lookup(ctx, "a", "/1")
	assert.Equal(t, "x", again.ChunkIDs[0])
}

func TestManifestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewManifestStore(path)
	assert.Error(t, err)
}

func TestManifestStore_NoTempFilesLeft(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewManifestStore(filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, "a", "/1", domain.FileRecord{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "manifest.json", entries[0].Name())
}

func TestSiloStore_CRUD(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "silos.json")
	s, err := NewSiloStore(path)
	require.NoError(t, err)

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.Save(ctx, domain.Silo{Slug: "tax-1234abcd", Name: "Tax", RootPath: "/t", CreatedAt: created}))
	require.NoError(t, s.Save(ctx, domain.Silo{Slug: "code-00000000", Name: "code", RootPath: "/c", FilesIndexed: 3}))

	got, err := s.Get(ctx, "tax-1234abcd")
	require.NoError(t, err)
	assert.Equal(t, "/t", got.RootPath)
	assert.True(t, created.Equal(got.CreatedAt))

	list, _ := s.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "code-00000000", list[0].Slug)

	reopened, err := NewSiloStore(path)
	require.NoError(t, err)
	list, _ = reopened.List(ctx)
	assert.Len(t, list, 2)

	require.NoError(t, reopened.Delete(ctx, "code-00000000"))
	_, err = reopened.Get(ctx, "code-00000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, reopened.Delete(ctx, "never-existed"))
}

func TestSiloStore_OnDiskIsArray(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "silos.json")
	s, err := NewSiloStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, domain.Silo{Slug: "x", Name: "X", RootPath: "/x", FilesIndexed: 2}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "x", raw[0]["slug"])
	assert.Equal(t, "/x", raw[0]["root_path"])
	assert.EqualValues(t, 2, raw[0]["files_indexed"])
	assert.Contains(t, raw[0], "created_at")
	assert.NotContains(t, raw[0], "updated_at")
}
