package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/panjf2000/ants/v2"

	"github.com/custodia-labs/llmli/internal/chunker"
	"github.com/custodia-labs/llmli/internal/config"
	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/core/ports/driven"
	"github.com/custodia-labs/llmli/internal/core/ports/driving"
	"github.com/custodia-labs/llmli/internal/logger"
	"github.com/custodia-labs/llmli/internal/safety"
	"github.com/custodia-labs/llmli/internal/tax"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// ArchiveSeparator joins an archive path and a member name in chunk sources.
const ArchiveSeparator = "::"

// IngestOptions holds the ingest tunables.
type IngestOptions struct {
	MaxWorkers     int
	BatchSize      int
	SecretExcludes []string
	ZipLimits      safety.ZipLimits

	// SkipPaths are absolute directories never walked, such as the DB root.
	SkipPaths []string
}

// IngestOptionsFromSettings maps Settings onto ingest options.
func IngestOptionsFromSettings(s *config.Settings) IngestOptions {
	db, err := filepath.Abs(s.DBPath)
	if err != nil {
		db = s.DBPath
	}
	return IngestOptions{
		MaxWorkers:     s.Ingest.MaxWorkers,
		BatchSize:      s.Ingest.BatchSize,
		SecretExcludes: s.Ingest.SecretExcludes,
		ZipLimits:      s.ZipLimits(),
		SkipPaths:      []string{db},
	}
}

// IngestService walks silo roots into the collection and keeps the
// manifest and registry in step with it.
type IngestService struct {
	coll     driven.Collection
	manifest driven.ManifestStore
	silos    driven.SiloStore
	chunker  *chunker.Chunker
	opts     IngestOptions
	now      func() time.Time

	// mu serialises runs so that collection and manifest writes never interleave.
	mu sync.Mutex
}

// NewIngestService creates an ingest service.
func NewIngestService(
	coll driven.Collection,
	manifest driven.ManifestStore,
	silos driven.SiloStore,
	ch *chunker.Chunker,
	opts IngestOptions,
) *IngestService {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 8
	}
	if opts.BatchSize <= 0 || opts.BatchSize > 256 {
		opts.BatchSize = 256
	}
	if opts.SecretExcludes == nil {
		opts.SecretExcludes = safety.DefaultSecretExcludes()
	}
	if opts.ZipLimits == (safety.ZipLimits{}) {
		opts.ZipLimits = safety.DefaultZipLimits()
	}
	return &IngestService{
		coll:     coll,
		manifest: manifest,
		silos:    silos,
		chunker:  ch,
		opts:     opts,
		now:      time.Now,
	}
}

// fileJob is one regular file handed to the worker pool.
type fileJob struct {
	path  string
	info  fs.FileInfo
	prior *domain.FileRecord
}

// prepared is the worker output for one file.
type prepared struct {
	fileJob
	hash      string
	chunks    []domain.Chunk
	unchanged bool
	skipped   bool
	err       error
}

// RunAdd walks req.Root and ingests new and changed files into the root's silo.
func (s *IngestService) RunAdd(ctx context.Context, req domain.AddRequest) (*domain.AddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runAdd(ctx, req)
}

// RunIndex drops the root's silo and rebuilds it with a full walk.
func (s *IngestService) RunIndex(ctx context.Context, req domain.AddRequest) (*domain.AddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, err := resolveRoot(req.Root)
	if err != nil {
		return nil, err
	}
	slug := domain.Slugify(filepath.Base(root), root)
	logger.Info("Rebuilding silo %s", slug)
	if err := s.dropChunks(ctx, slug); err != nil {
		return nil, err
	}
	if err := s.manifest.DropSilo(ctx, slug); err != nil {
		return nil, fmt.Errorf("drop manifest: %w", err)
	}

	req.Root = root
	req.Incremental = false
	return s.runAdd(ctx, req)
}

func (s *IngestService) runAdd(ctx context.Context, req domain.AddRequest) (*domain.AddResult, error) {
	root, err := resolveRoot(req.Root)
	if err != nil {
		return nil, err
	}
	if provider, ok := safety.CloudProvider(root); ok && !req.AllowCloud {
		return nil, fmt.Errorf("%s is inside %s: %w", root, provider, domain.ErrCloudPath)
	}
	matcher, err := safety.NewMatcher(req.Include, req.Exclude)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	silo := domain.Silo{
		Slug:     domain.Slugify(filepath.Base(root), root),
		Name:     filepath.Base(root),
		RootPath: root,
	}
	logger.Section("Ingest " + silo.Slug)
	done := logger.Timed("ingest " + silo.Slug)
	defer done()

	priorList, err := s.manifest.List(ctx, silo.Slug)
	if err != nil {
		return nil, fmt.Errorf("list manifest: %w", err)
	}
	prior := make(map[string]*domain.FileRecord, len(priorList))
	for i := range priorList {
		prior[priorList[i].Path] = &priorList[i]
	}

	res := &domain.AddResult{}
	files, archives, seen, err := s.walk(ctx, root, matcher, prior, res)
	if err != nil {
		return nil, err
	}
	logger.Info("Found %d files and %d archives under %s", len(files), len(archives), root)

	if err := s.processFiles(ctx, silo.Slug, files, req.Incremental, res); err != nil {
		return nil, err
	}
	for _, job := range archives {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_ = s.processArchive(ctx, silo.Slug, job, req.Incremental, res)
	}

	// Paths from the previous run that the walk no longer saw.
	for path, rec := range prior {
		if seen[path] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.removeRecord(ctx, silo.Slug, rec); err != nil {
			logger.Warn("remove %s: %v", path, err)
			res.Failures++
			continue
		}
		res.FilesRemoved++
		res.ChunksDeleted += len(rec.ChunkIDs)
	}

	saved, err := s.saveSilo(ctx, silo)
	if err != nil {
		return nil, err
	}
	res.Silo = *saved
	res.FilesIndexed = saved.FilesIndexed

	logger.Info("Indexed %d files into %s (%d added, %d updated, %d unchanged, %d removed, %d failures)",
		res.FilesIndexed, silo.Slug, res.FilesAdded, res.FilesUpdated, res.FilesUnchanged, res.FilesRemoved, res.Failures)
	return res, nil
}

// walk collects regular files and archives under root. seen holds every
// path that still exists and passes the filters.
func (s *IngestService) walk(
	ctx context.Context,
	root string,
	matcher *safety.Matcher,
	prior map[string]*domain.FileRecord,
	res *domain.AddResult,
) (files, archives []fileJob, seen map[string]bool, err error) {
	seen = make(map[string]bool)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			logger.Warn("walk %s: %v", path, walkErr)
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && (safety.SkipDir(d.Name()) || s.skipPath(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			// Symlinks and devices are never followed.
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !matcher.Allowed(rel) {
			return nil
		}
		if safety.IsSecret(rel, s.opts.SecretExcludes) {
			logger.Warn("skipping %s: %v", rel, domain.ErrSecretPath)
			res.Failures++
			res.SecretsRefused++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Warn("stat %s: %v", path, err)
			res.Failures++
			return nil
		}
		seen[path] = true
		job := fileJob{path: path, info: info, prior: prior[path]}
		if isArchive(path) {
			archives = append(archives, job)
		} else {
			files = append(files, job)
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, archives, seen, nil
}

func (s *IngestService) skipPath(path string) bool {
	for _, p := range s.opts.SkipPaths {
		if p != "" && path == p {
			return true
		}
	}
	return false
}

// processFiles chunks files on the worker pool and commits each result on
// the calling goroutine.
func (s *IngestService) processFiles(
	ctx context.Context, slug string, jobs []fileJob, incremental bool, res *domain.AddResult,
) error {
	if len(jobs) == 0 {
		return nil
	}

	pool, err := ants.NewPool(min(s.opts.MaxWorkers, len(jobs)), ants.WithPanicHandler(func(p any) {
		logger.Error("ingest worker panic: %v", p)
	}))
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make(chan prepared, s.opts.MaxWorkers)
	var wg sync.WaitGroup
	go func() {
		defer close(results)
		for _, job := range jobs {
			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()
				results <- s.prepare(ctx, slug, job, incremental)
			})
			if submitErr != nil {
				wg.Done()
				results <- prepared{fileJob: job, err: fmt.Errorf("submit: %w", submitErr)}
			}
		}
		wg.Wait()
	}()

	for p := range results {
		if ctx.Err() != nil {
			continue
		}
		_ = s.record(ctx, slug, p, res)
	}
	return ctx.Err()
}

// record commits one prepared file and updates the run counters. The
// returned error has already been counted as a failure.
func (s *IngestService) record(ctx context.Context, slug string, p prepared, res *domain.AddResult) error {
	switch {
	case p.err != nil:
		logger.Warn("ingest %s: %v", p.path, p.err)
		res.Failures++
		return p.err
	case p.skipped:
		res.FilesSkipped++
		return nil
	case p.unchanged:
		res.FilesUnchanged++
		return nil
	}

	deleted, err := s.commit(ctx, slug, p)
	if err != nil {
		logger.Warn("ingest %s: %v", p.path, err)
		res.Failures++
		return err
	}
	if p.prior == nil {
		res.FilesAdded++
	} else {
		res.FilesUpdated++
	}
	res.ChunksAdded += len(p.chunks)
	res.ChunksDeleted += deleted
	return nil
}

// prepare reads, hashes and chunks one regular file.
func (s *IngestService) prepare(ctx context.Context, slug string, job fileJob, incremental bool) prepared {
	p := prepared{fileJob: job}
	if err := ctx.Err(); err != nil {
		p.err = err
		return p
	}

	content, err := os.ReadFile(job.path)
	if err != nil {
		p.err = fmt.Errorf("read file: %w", err)
		return p
	}
	p.hash = domain.HashBytes(content)
	if incremental && job.prior != nil && job.prior.Hash == p.hash {
		p.unchanged = true
		return p
	}

	pieces, err := s.chunker.ChunkFile(ctx, job.path, content)
	if errors.Is(err, domain.ErrBinaryFile) || errors.Is(err, domain.ErrUnsupportedType) {
		logger.Debug("skipping %s (%s): %v", job.path, humanize.Bytes(uint64(len(content))), err)
		p.skipped = true
		return p
	}
	if err != nil {
		p.err = fmt.Errorf("chunk: %w", err)
		return p
	}
	p.chunks = BuildChunks(slug, job.path, job.path, job.info.ModTime().Unix(), pieces)
	return p
}

// BuildChunks binds pieces to a silo and source. Duplicate texts within one
// file collapse to the first occurrence, so IDs stay unique.
func BuildChunks(slug, path, source string, mtime int64, pieces []chunker.Piece) []domain.Chunk {
	if len(pieces) == 0 {
		return nil
	}
	local := true
	if _, cloud := safety.CloudProvider(path); cloud {
		local = false
	}

	year := 0
	var text strings.Builder
	for _, p := range pieces {
		text.WriteString(p.Text)
		text.WriteByte('\n')
	}
	if tax.LooksLikeTax(path, text.String()) {
		year, _ = tax.ResolveYear(path)
	}

	seen := make(map[string]bool, len(pieces))
	out := make([]domain.Chunk, 0, len(pieces))
	for _, p := range pieces {
		c := domain.NewChunk(slug, source, p.Text, domain.ChunkMetadata{
			Mtime:     mtime,
			LineStart: p.LineStart,
			Page:      p.Page,
			RowNumber: p.RowNumber,
			IsLocal:   &local,
			TaxYear:   year,
		})
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

// commit swaps the file's chunk set in the collection, then records it in
// the manifest. It returns the number of chunk IDs deleted.
func (s *IngestService) commit(ctx context.Context, slug string, p prepared) (int, error) {
	var oldIDs []string
	if p.prior != nil {
		oldIDs = p.prior.ChunkIDs
	}
	if err := s.replace(ctx, oldIDs, p.chunks); err != nil {
		return 0, err
	}

	ids := make([]string, len(p.chunks))
	for i, c := range p.chunks {
		ids[i] = c.ID
	}
	rec := domain.FileRecord{
		Hash:     p.hash,
		ChunkIDs: ids,
		Mtime:    p.info.ModTime().Unix(),
		Size:     p.info.Size(),
	}
	if err := s.manifest.Upsert(ctx, slug, p.path, rec); err != nil {
		return 0, fmt.Errorf("update manifest: %w", err)
	}
	return len(oldIDs), nil
}

// replace deletes oldIDs and adds chunks. Backends that implement
// driven.AtomicReplacer do both in one transaction and bound each embedder
// call to vector.MaxBatch chunks themselves; others delete first
// and add in batches. Each step is retried once.
func (s *IngestService) replace(ctx context.Context, oldIDs []string, chunks []domain.Chunk) error {
	if r, ok := s.coll.(driven.AtomicReplacer); ok {
		return retryOnce(ctx, "replace chunks", func() error {
			return r.Replace(ctx, oldIDs, chunks)
		})
	}

	if len(oldIDs) > 0 {
		if err := retryOnce(ctx, "delete chunks", func() error {
			return s.coll.Delete(ctx, oldIDs, domain.Where{})
		}); err != nil {
			return err
		}
	}
	for start := 0; start < len(chunks); start += s.opts.BatchSize {
		batch := chunks[start:min(start+s.opts.BatchSize, len(chunks))]
		if err := retryOnce(ctx, "add chunks", func() error {
			return s.coll.Add(ctx, batch)
		}); err != nil {
			return err
		}
	}
	return nil
}

// retryOnce runs fn, and runs it again once if it fails.
func retryOnce(ctx context.Context, what string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	logger.Debug("%s failed, retrying: %v", what, err)
	if err = fn(); err != nil {
		return fmt.Errorf("%s: %w: %w", what, domain.ErrCollectionWrite, err)
	}
	return nil
}

// processArchive ingests every accepted member of a ZIP archive under one
// manifest record for the archive path. Members are chunked with the same
// strategies as regular files. Rejected members are counted as failures
// and skipped; the returned error means the archive itself failed.
func (s *IngestService) processArchive(
	ctx context.Context, slug string, job fileJob, incremental bool, res *domain.AddResult,
) error {
	hash, err := domain.HashFile(job.path)
	if err != nil {
		logger.Warn("ingest %s: %v", job.path, err)
		res.Failures++
		return err
	}
	if incremental && job.prior != nil && job.prior.Hash == hash {
		res.FilesUnchanged++
		return nil
	}

	mtime := job.info.ModTime().Unix()
	var chunks []domain.Chunk
	seen := make(map[string]bool)
	walkErr := safety.WalkZip(job.path, s.opts.ZipLimits,
		func(e safety.Entry) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if isArchive(e.Name) {
				logger.Debug("skipping nested archive %s in %s", e.Name, job.path)
				return nil
			}
			if safety.IsSecret(e.Name, s.opts.SecretExcludes) {
				logger.Warn("skipping %s in %s: %v", e.Name, job.path, domain.ErrSecretPath)
				res.Failures++
				res.SecretsRefused++
				return nil
			}
			pieces, err := s.chunker.ChunkFile(ctx, e.Name, e.Content)
			if errors.Is(err, domain.ErrBinaryFile) || errors.Is(err, domain.ErrUnsupportedType) {
				return nil
			}
			if err != nil {
				logger.Warn("ingest %s in %s: %v", e.Name, job.path, err)
				res.Failures++
				return nil
			}
			for _, c := range BuildChunks(slug, job.path, job.path+ArchiveSeparator+e.Name, mtime, pieces) {
				if !seen[c.ID] {
					seen[c.ID] = true
					chunks = append(chunks, c)
				}
			}
			return nil
		},
		func(name string, err error) {
			logger.Warn("rejected %s in %s: %v", name, job.path, err)
			res.Failures++
		},
	)
	if walkErr != nil {
		logger.Warn("ingest %s: %v", job.path, walkErr)
		res.Failures++
		return walkErr
	}

	return s.record(ctx, slug, prepared{fileJob: job, hash: hash, chunks: chunks}, res)
}

// UpdateSingleFile re-ingests path into an existing silo.
func (s *IngestService) UpdateSingleFile(
	ctx context.Context, path, slug string, allowCloud bool,
) (domain.FileStatus, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	silo, resolved, err := s.locate(ctx, path, slug)
	if err != nil {
		return "", resolved, err
	}
	if provider, ok := safety.CloudProvider(resolved); ok && !allowCloud {
		return "", resolved, fmt.Errorf("%s is inside %s: %w", resolved, provider, domain.ErrCloudPath)
	}
	rel, _ := filepath.Rel(silo.RootPath, resolved)
	if safety.IsSecret(filepath.ToSlash(rel), s.opts.SecretExcludes) {
		return "", resolved, fmt.Errorf("%s: %w", resolved, domain.ErrSecretPath)
	}

	info, err := os.Stat(resolved)
	if errors.Is(err, os.ErrNotExist) {
		return "", resolved, fmt.Errorf("%s: %w", resolved, domain.ErrNotFound)
	}
	if err != nil {
		return "", resolved, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", resolved, fmt.Errorf("%s is not a regular file: %w", resolved, domain.ErrInvalidInput)
	}

	prior, err := s.lookup(ctx, silo.Slug, resolved)
	if err != nil {
		return "", resolved, err
	}

	var res domain.AddResult
	job := fileJob{path: resolved, info: info, prior: prior}
	if isArchive(resolved) {
		err = s.processArchive(ctx, silo.Slug, job, true, &res)
	} else {
		err = s.record(ctx, silo.Slug, s.prepare(ctx, silo.Slug, job, true), &res)
	}
	if err != nil {
		return "", resolved, fmt.Errorf("ingest %s: %w", resolved, err)
	}
	if res.FilesAdded+res.FilesUpdated == 0 {
		return domain.FileUnchanged, resolved, nil
	}
	if _, err := s.saveSilo(ctx, *silo); err != nil {
		return "", resolved, err
	}
	return domain.FileUpdated, resolved, nil
}

// RemoveSingleFile deletes path's chunks and manifest record from a silo.
// When path has no record of its own but prefixes recorded files, as a
// removed directory does, every record beneath it is removed.
func (s *IngestService) RemoveSingleFile(ctx context.Context, path, slug string) (domain.FileStatus, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	silo, resolved, err := s.locate(ctx, path, slug)
	if err != nil {
		return "", resolved, err
	}
	rec, err := s.lookup(ctx, silo.Slug, resolved)
	if err != nil {
		return "", resolved, err
	}
	recs := []domain.FileRecord{}
	if rec != nil {
		recs = append(recs, *rec)
	} else if recs, err = s.recordsUnder(ctx, silo.Slug, resolved); err != nil {
		return "", resolved, err
	}
	if len(recs) == 0 {
		return domain.FileMissing, resolved, nil
	}
	for i := range recs {
		if err := s.removeRecord(ctx, silo.Slug, &recs[i]); err != nil {
			return "", resolved, err
		}
	}
	if len(recs) > 1 || rec == nil {
		logger.Info("Removed %d files under %s", len(recs), resolved)
	}
	if _, err := s.saveSilo(ctx, *silo); err != nil {
		return "", resolved, err
	}
	return domain.FileRemoved, resolved, nil
}

// RemoveSilo drops a silo entirely.
func (s *IngestService) RemoveSilo(ctx context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.silos.Get(ctx, slug); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%q: %w", slug, domain.ErrUnknownSilo)
		}
		return fmt.Errorf("get silo: %w", err)
	}
	if err := s.dropChunks(ctx, slug); err != nil {
		return err
	}
	if err := s.manifest.DropSilo(ctx, slug); err != nil {
		return fmt.Errorf("drop manifest: %w", err)
	}
	if err := s.silos.Delete(ctx, slug); err != nil {
		return fmt.Errorf("delete silo: %w", err)
	}
	logger.Info("Removed silo %s", slug)
	return nil
}

func (s *IngestService) dropChunks(ctx context.Context, slug string) error {
	return retryOnce(ctx, "drop silo chunks", func() error {
		return s.coll.Delete(ctx, nil, domain.Where{Silo: slug})
	})
}

// removeRecord deletes a file's chunks, then its manifest record.
func (s *IngestService) removeRecord(ctx context.Context, slug string, rec *domain.FileRecord) error {
	if len(rec.ChunkIDs) > 0 {
		if err := retryOnce(ctx, "delete chunks", func() error {
			return s.coll.Delete(ctx, rec.ChunkIDs, domain.Where{})
		}); err != nil {
			return err
		}
	}
	if err := s.manifest.Remove(ctx, slug, rec.Path); err != nil {
		return fmt.Errorf("update manifest: %w", err)
	}
	return nil
}

// locate resolves path and checks it belongs to the registered silo.
func (s *IngestService) locate(ctx context.Context, path, slug string) (*domain.Silo, string, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, path, err
	}
	silo, err := s.silos.Get(ctx, slug)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, resolved, fmt.Errorf("%q: %w", slug, domain.ErrUnknownSilo)
	}
	if err != nil {
		return nil, resolved, fmt.Errorf("get silo: %w", err)
	}
	if !Contains(silo.RootPath, resolved) {
		return nil, resolved, fmt.Errorf("%s is outside silo root %s: %w", resolved, silo.RootPath, domain.ErrInvalidInput)
	}
	return silo, resolved, nil
}

// recordsUnder returns the manifest records of files below dir.
func (s *IngestService) recordsUnder(ctx context.Context, slug, dir string) ([]domain.FileRecord, error) {
	all, err := s.manifest.List(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("list manifest: %w", err)
	}
	prefix := strings.TrimSuffix(dir, string(filepath.Separator)) + string(filepath.Separator)
	var out []domain.FileRecord
	for _, r := range all {
		if strings.HasPrefix(r.Path, prefix) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *IngestService) lookup(ctx context.Context, slug, path string) (*domain.FileRecord, error) {
	rec, err := s.manifest.Lookup(ctx, slug, path)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup manifest: %w", err)
	}
	return rec, nil
}

// saveSilo records the silo with files_indexed taken from the manifest.
func (s *IngestService) saveSilo(ctx context.Context, silo domain.Silo) (*domain.Silo, error) {
	recs, err := s.manifest.List(ctx, silo.Slug)
	if err != nil {
		return nil, fmt.Errorf("list manifest: %w", err)
	}
	now := s.now().UTC()
	if existing, err := s.silos.Get(ctx, silo.Slug); err == nil {
		silo.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get silo: %w", err)
	}
	if silo.CreatedAt.IsZero() {
		silo.CreatedAt = now
	}
	silo.UpdatedAt = now
	silo.FilesIndexed = len(recs)
	if err := s.silos.Save(ctx, silo); err != nil {
		return nil, fmt.Errorf("save silo: %w", err)
	}
	return &silo, nil
}

func resolveRoot(root string) (string, error) {
	resolved, err := resolvePath(root)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory: %w", resolved, domain.ErrInvalidInput)
	}
	return resolved, nil
}

// resolvePath returns the absolute path with symlinks evaluated when the
// path exists.
func resolvePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path: %w", domain.ErrInvalidInput)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	// a vanished path still resolves through its parent
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(dir, filepath.Base(abs)), nil
	}
	return abs, nil
}

func isArchive(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}
