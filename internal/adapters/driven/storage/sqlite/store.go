package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/llmli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/core/ports/driven"
)

// DBFileName is the collection database file inside the collection directory.
const DBFileName = driven.CollectionName + ".db"

const (
	infoModel      = "embedding_model"
	infoDimensions = "embedding_dimensions"
)

// Store is the SQLite-backed vector collection.
type Store struct {
	db       *sql.DB
	path     string
	embedder driven.EmbeddingService
}

// NewStore opens or creates the collection database in dataDir and binds it
// to embedder. A database built with another embedding model is refused.
func NewStore(ctx context.Context, dataDir string, embedder driven.EmbeddingService) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath, embedder: embedder}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := s.checkEmbedder(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies pending migrations, each in its own transaction.
func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	pending, err := migrations.Pending(current)
	if err != nil {
		return err
	}
	for _, m := range pending {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("executing migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("recording migration %s: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.Name, err)
		}
	}
	return nil
}

// checkEmbedder records the embedding model on first use and rejects a
// different model afterwards, since mixed vectors are not comparable.
func (s *Store) checkEmbedder(ctx context.Context) error {
	if s.embedder == nil {
		return nil
	}
	model := s.embedder.ModelName()
	dims := strconv.Itoa(s.embedder.Dimensions())

	stored, err := s.info(ctx, infoModel)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO collection_info (key, value) VALUES (?, ?), (?, ?)`,
			infoModel, model, infoDimensions, dims); err != nil {
			return fmt.Errorf("recording embedding model: %w", err)
		}
		return nil
	case err != nil:
		return err
	}

	if stored != model {
		return fmt.Errorf("%w: collection uses %q, configured %q; reindex to switch",
			domain.ErrEmbeddingMismatch, stored, model)
	}
	storedDims, err := s.info(ctx, infoDimensions)
	if err == nil && storedDims != dims && dims != "0" {
		return fmt.Errorf("%w: collection has %s dimensions, embedder has %s",
			domain.ErrEmbeddingMismatch, storedDims, dims)
	}
	return nil
}

func (s *Store) info(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM collection_info WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading collection info: %w", err)
	}
	return value, nil
}
