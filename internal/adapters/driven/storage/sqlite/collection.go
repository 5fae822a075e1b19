package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/llmli/internal/adapters/driven/storage/vector"
	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.Collection      = (*Store)(nil)
	_ driven.AtomicReplacer  = (*Store)(nil)
	_ driven.KeywordSearcher = (*Store)(nil)
)

// maxParams keeps IN lists below SQLite's bound-parameter limit.
const maxParams = 500

const chunkColumns = `id, document, source, silo, mtime, chunk_hash, line_start, page, row_num, is_local, tax_year`

// Add embeds and upserts chunks in one transaction.
func (s *Store) Add(ctx context.Context, chunks []domain.Chunk) error {
	return s.Replace(ctx, nil, chunks)
}

// Replace deletes deleteIDs and upserts add in one transaction, so readers
// see either the old chunk set or the new one. Embedding happens first, in
// batches of vector.MaxBatch; an embedding failure leaves the collection
// untouched.
func (s *Store) Replace(ctx context.Context, deleteIDs []string, add []domain.Chunk) error {
	vecs, err := vector.EmbedChunks(ctx, s.embedder, add)
	if err != nil {
		return err
	}
	if len(deleteIDs) == 0 && len(add) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := deleteByIDs(ctx, tx, deleteIDs); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (`+chunkColumns+`, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document = excluded.document,
			source = excluded.source,
			silo = excluded.silo,
			mtime = excluded.mtime,
			chunk_hash = excluded.chunk_hash,
			line_start = excluded.line_start,
			page = excluded.page,
			row_num = excluded.row_num,
			is_local = excluded.is_local,
			tax_year = excluded.tax_year,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, ch := range add {
		m := ch.Metadata
		var isLocal any
		if m.IsLocal != nil {
			isLocal = boolToInt(*m.IsLocal)
		}
		if _, err := stmt.ExecContext(ctx, ch.ID, ch.Document, m.Source, m.Silo, m.Mtime, m.ChunkHash,
			m.LineStart, m.Page, m.RowNumber, isLocal, m.TaxYear, vector.Encode(vecs[i])); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func deleteByIDs(ctx context.Context, tx *sql.Tx, ids []string) error {
	for start := 0; start < len(ids); start += maxParams {
		end := min(start+maxParams, len(ids))
		batch := ids[start:end]
		query := `DELETE FROM chunks WHERE id IN (` + placeholders(len(batch)) + `)`
		if _, err := tx.ExecContext(ctx, query, toArgs(batch)...); err != nil {
			return fmt.Errorf("deleting chunks: %w", err)
		}
	}
	return nil
}

// Query returns the n chunks nearest to text that match where.
func (s *Store) Query(ctx context.Context, text string, n int, where domain.Where) ([]domain.Hit, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	q, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	clause, args := whereClause(where)
	rows, err := s.db.QueryContext(ctx, `SELECT `+chunkColumns+`, embedding FROM chunks`+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []domain.Hit
	for rows.Next() {
		var blob []byte
		h, err := scanHit(rows, &blob)
		if err != nil {
			return nil, err
		}
		h.Distance = vector.Distance(q, vector.Decode(blob))
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return vector.SortHits(hits, n), nil
}

// Get returns chunks by ID, or all chunks matching where ordered by source
// and position.
func (s *Store) Get(ctx context.Context, ids []string, where domain.Where, limit int) ([]domain.Hit, error) {
	if len(ids) > 0 {
		return s.getByIDs(ctx, ids, where, limit)
	}

	clause, args := whereClause(where)
	query := `SELECT ` + chunkColumns + ` FROM chunks` + clause + ` ORDER BY source, page, line_start, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryHits(ctx, query, args...)
}

func (s *Store) getByIDs(ctx context.Context, ids []string, where domain.Where, limit int) ([]domain.Hit, error) {
	byID := make(map[string]domain.Hit, len(ids))
	for start := 0; start < len(ids); start += maxParams {
		end := min(start+maxParams, len(ids))
		batch := ids[start:end]
		hits, err := s.queryHits(ctx,
			`SELECT `+chunkColumns+` FROM chunks WHERE id IN (`+placeholders(len(batch))+`)`,
			toArgs(batch)...)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			byID[h.ID] = h
		}
	}

	var out []domain.Hit
	for _, id := range ids {
		if h, ok := byID[id]; ok && where.Matches(h.Metadata) {
			out = append(out, h)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) queryHits(ctx context.Context, query string, args ...any) ([]domain.Hit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []domain.Hit
	for rows.Next() {
		h, err := scanHit(rows, nil)
		if err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return hits, nil
}

// Delete removes chunks by ID, or every chunk matching a non-empty where.
// Both empty is a no-op.
func (s *Store) Delete(ctx context.Context, ids []string, where domain.Where) error {
	if len(ids) > 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck
		if err := deleteByIDs(ctx, tx, ids); err != nil {
			return err
		}
		return tx.Commit()
	}
	if where.IsEmpty() {
		return nil
	}
	clause, args := whereClause(where)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks`+clause, args...); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// Count returns the number of chunks matching where.
func (s *Store) Count(ctx context.Context, where domain.Where) (int, error) {
	clause, args := whereClause(where)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`+clause, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// KeywordSearch returns chunks containing any of terms, scored by the total
// number of case-insensitive occurrences.
func (s *Store) KeywordSearch(ctx context.Context, terms []string, n int, where domain.Where) ([]domain.Hit, error) {
	var lowered []string
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			lowered = append(lowered, t)
		}
	}
	if len(lowered) == 0 {
		return nil, nil
	}

	clause, args := whereClause(where)
	match := make([]string, len(lowered))
	for i, t := range lowered {
		match[i] = `instr(lower(document), ?) > 0`
		args = append(args, t)
	}
	if clause == "" {
		clause = ` WHERE `
	} else {
		clause += ` AND `
	}
	clause += `(` + strings.Join(match, ` OR `) + `)`

	hits, err := s.queryHits(ctx, `SELECT `+chunkColumns+` FROM chunks`+clause, args...)
	if err != nil {
		return nil, err
	}
	for i := range hits {
		doc := strings.ToLower(hits[i].Document)
		score := 0
		for _, t := range lowered {
			score += strings.Count(doc, t)
		}
		hits[i].Score = float64(score)
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if n > 0 && len(hits) > n {
		hits = hits[:n]
	}
	return hits, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHit(row scanner, blob *[]byte) (domain.Hit, error) {
	var (
		h       domain.Hit
		m       domain.ChunkMetadata
		isLocal sql.NullInt64
	)
	dest := []any{&h.ID, &h.Document, &m.Source, &m.Silo, &m.Mtime, &m.ChunkHash,
		&m.LineStart, &m.Page, &m.RowNumber, &isLocal, &m.TaxYear}
	if blob != nil {
		dest = append(dest, blob)
	}
	if err := row.Scan(dest...); err != nil {
		return domain.Hit{}, fmt.Errorf("scanning chunk: %w", err)
	}
	if isLocal.Valid {
		local := isLocal.Int64 == 1
		m.IsLocal = &local
	}
	h.Metadata = m
	return h, nil
}

func whereClause(w domain.Where) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if w.Silo != "" {
		conds = append(conds, "silo = ?")
		args = append(args, w.Silo)
	}
	if w.TaxYear != 0 {
		conds = append(conds, "tax_year = ?")
		args = append(args, w.TaxYear)
	}
	if w.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, w.Source)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
