// Package config materialises every tunable of llmli as one immutable
// Settings value. Sources, lowest precedence first: built-in defaults,
// <db>/config.toml, environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/llmli/internal/safety"
)

// DefaultDBPath is used when neither --db nor LLMLIBRARIAN_DB is set.
const DefaultDBPath = "./my_brain_db"

// ConfigFileName is the optional TOML file inside the DB directory.
const ConfigFileName = "config.toml"

// Distance filter stages.
const (
	FilterBeforeRerank = "before_rerank"
	FilterAfterRerank  = "after_rerank"
)

// Settings is the complete runtime configuration. Treat it as read-only
// after Load; it is passed by pointer through the call graph.
type Settings struct {
	// DBPath is the storage root. Not read from config.toml.
	DBPath string `toml:"-" validate:"required"`

	Chunk     ChunkSettings     `toml:"chunk"`
	Ingest    IngestSettings    `toml:"ingest"`
	Zip       ZipSettings       `toml:"zip"`
	Retrieval RetrievalSettings `toml:"retrieval"`
	Rerank    RerankSettings    `toml:"rerank"`
	LLM       LLMSettings       `toml:"llm"`
	Embedding EmbeddingSettings `toml:"embedding"`
	Output    OutputSettings    `toml:"output"`
}

// ChunkSettings configures the line-window chunker.
type ChunkSettings struct {
	Size    int `toml:"size" validate:"gt=0"`
	Overlap int `toml:"overlap" validate:"gte=0,ltfield=Size"`
}

// IngestSettings configures the ingest orchestrator.
type IngestSettings struct {
	MaxWorkers     int      `toml:"max_workers" validate:"gte=1,lte=64"`
	BatchSize      int      `toml:"batch_size" validate:"gte=1,lte=256"`
	SecretExcludes []string `toml:"secret_excludes"`
	PDFTables      bool     `toml:"pdf_tables"`
}

// ZipSettings bounds archive extraction.
type ZipSettings struct {
	MaxFilesPerZip     int   `toml:"max_files_per_zip" validate:"gte=1"`
	MaxExtractedPerZip int64 `toml:"max_extracted_per_zip" validate:"gte=1"`
	MaxFileBytes       int64 `toml:"max_file_bytes" validate:"gte=1"`
}

// RetrievalSettings configures stage-1 retrieval and post-filtering.
type RetrievalSettings struct {
	DefaultK            int     `toml:"default_k" validate:"gte=1"`
	Stage1N             int     `toml:"stage1_n" validate:"gte=1"`
	MaxDistance         float64 `toml:"max_distance" validate:"gt=0"`
	RelevanceFloor      int     `toml:"relevance_floor" validate:"gte=0"`
	MaxChunksPerFile    int     `toml:"max_chunks_per_file" validate:"gte=1"`
	DistanceFilterStage string  `toml:"distance_filter_stage" validate:"oneof=before_rerank after_rerank"`
	Hybrid              bool    `toml:"hybrid"`
}

// RerankSettings configures the cross-encoder client.
type RerankSettings struct {
	Enabled        bool   `toml:"enabled"`
	Model          string `toml:"model" validate:"required"`
	URL            string `toml:"url" validate:"omitempty,url"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"gte=1"`
}

// LLMSettings configures the chat endpoint.
type LLMSettings struct {
	Provider       string  `toml:"provider" validate:"oneof=ollama openai none"`
	Model          string  `toml:"model" validate:"required"`
	BaseURL        string  `toml:"base_url" validate:"omitempty,url"`
	APIKey         string  `toml:"-"`
	Temperature    float64 `toml:"temperature" validate:"gte=0,lte=2"`
	TimeoutSeconds int     `toml:"timeout_seconds" validate:"gte=1"`
}

// EmbeddingSettings configures the embedding function owned by the collection.
type EmbeddingSettings struct {
	Provider          string  `toml:"provider" validate:"oneof=hash ollama openai"`
	Model             string  `toml:"model" validate:"required"`
	BaseURL           string  `toml:"base_url" validate:"omitempty,url"`
	Dimensions        int     `toml:"dimensions" validate:"gte=8"`
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gte=0"`
}

// OutputSettings configures answer rendering and auditing.
type OutputSettings struct {
	TracePath    string `toml:"trace_path"`
	EditorScheme string `toml:"editor_scheme"`
	SnippetLen   int    `toml:"snippet_len" validate:"gte=20"`
}

// LLMTimeout returns the chat timeout.
func (s *Settings) LLMTimeout() time.Duration {
	return time.Duration(s.LLM.TimeoutSeconds) * time.Second
}

// RerankTimeout returns the cross-encoder timeout.
func (s *Settings) RerankTimeout() time.Duration {
	return time.Duration(s.Rerank.TimeoutSeconds) * time.Second
}

// ZipLimits returns the archive limits for the safety guard.
func (s *Settings) ZipLimits() safety.ZipLimits {
	return safety.ZipLimits{
		MaxFilesPerZip:     s.Zip.MaxFilesPerZip,
		MaxExtractedPerZip: s.Zip.MaxExtractedPerZip,
		MaxFileBytes:       s.Zip.MaxFileBytes,
	}
}

// CollectionDir is where the vector backend keeps its files.
func (s *Settings) CollectionDir() string {
	return filepath.Join(s.DBPath, "chroma")
}

// ManifestPath is the per-silo file manifest.
func (s *Settings) ManifestPath() string {
	return filepath.Join(s.DBPath, "manifest.json")
}

// RegistryPath is the silo registry.
func (s *Settings) RegistryPath() string {
	return filepath.Join(s.DBPath, "silos.json")
}

// PromptsDir holds user-editable prompt files.
func (s *Settings) PromptsDir() string {
	return filepath.Join(s.DBPath, "prompts")
}

// Default returns the built-in settings rooted at dbPath.
func Default(dbPath string) Settings {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	return Settings{
		DBPath: dbPath,
		Chunk:  ChunkSettings{Size: 1200, Overlap: 150},
		Ingest: IngestSettings{
			MaxWorkers:     8,
			BatchSize:      256,
			SecretExcludes: safety.DefaultSecretExcludes(),
		},
		Zip: ZipSettings{
			MaxFilesPerZip:     500,
			MaxExtractedPerZip: 200 << 20,
			MaxFileBytes:       20 << 20,
		},
		Retrieval: RetrievalSettings{
			DefaultK:            8,
			Stage1N:             40,
			MaxDistance:         2.0,
			RelevanceFloor:      3,
			MaxChunksPerFile:    4,
			DistanceFilterStage: FilterAfterRerank,
			Hybrid:              true,
		},
		Rerank: RerankSettings{
			Enabled:        true,
			Model:          "cross-encoder/ms-marco-MiniLM-L-6-v2",
			TimeoutSeconds: 30,
		},
		LLM: LLMSettings{
			Provider:       "ollama",
			Model:          "llama3.1:8b",
			BaseURL:        "http://localhost:11434",
			Temperature:    0.1,
			TimeoutSeconds: 120,
		},
		Embedding: EmbeddingSettings{
			Provider:          "hash",
			Model:             "nomic-embed-text",
			BaseURL:           "http://localhost:11434",
			Dimensions:        384,
			RequestsPerSecond: 20,
		},
		Output: OutputSettings{SnippetLen: 180},
	}
}

// Env reads an environment variable. os.Getenv satisfies it.
type Env func(key string) string

// ResolveDBPath picks the DB root: explicit flag, then LLMLIBRARIAN_DB, then the default.
func ResolveDBPath(flag string, env Env) string {
	if flag != "" {
		return flag
	}
	if v := env("LLMLIBRARIAN_DB"); v != "" {
		return v
	}
	return DefaultDBPath
}

// Load builds Settings for dbPath from defaults, <db>/config.toml and env.
// A missing config file is not an error.
func Load(dbPath string, env Env) (*Settings, error) {
	if env == nil {
		env = os.Getenv
	}
	s := Default(dbPath)

	data, err := os.ReadFile(filepath.Join(s.DBPath, ConfigFileName))
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse %s: %w", ConfigFileName, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", ConfigFileName, err)
	}

	applyEnv(&s, env)

	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func applyEnv(s *Settings, env Env) {
	if v := env("LLMLIBRARIAN_TRACE"); v != "" {
		s.Output.TracePath = v
	}
	if v := env("LLMLIBRARIAN_EDITOR_SCHEME"); v != "" {
		s.Output.EditorScheme = v
	}
	if v := strings.ToLower(strings.TrimSpace(env("LLMLIBRARIAN_RERANK"))); v != "" {
		s.Rerank.Enabled = !IsFalsy(v)
	}
	if v := env("LLMLIBRARIAN_RERANK_MODEL"); v != "" {
		s.Rerank.Model = v
	}
	if v := env("LLMLIBRARIAN_RERANK_URL"); v != "" {
		s.Rerank.URL = v
	}
	if v := env("LLMLIBRARIAN_PDF_TABLES"); v != "" {
		s.Ingest.PDFTables = v == "1"
	}
	if v := env("LLMLIBRARIAN_MODEL"); v != "" {
		s.LLM.Model = v
	}
	if v := env("LLMLIBRARIAN_LLM_PROVIDER"); v != "" {
		s.LLM.Provider = strings.ToLower(v)
	}
	if v := env("LLMLIBRARIAN_EMBEDDER"); v != "" {
		s.Embedding.Provider = strings.ToLower(v)
	}
	if v := env("LLMLIBRARIAN_OLLAMA_URL"); v != "" {
		if s.LLM.Provider == "ollama" {
			s.LLM.BaseURL = v
		}
		if s.Embedding.Provider == "ollama" {
			s.Embedding.BaseURL = v
		}
	}
	if v := env("OPENAI_API_KEY"); v != "" {
		s.LLM.APIKey = v
	}
}

// IsFalsy reports whether a flag value means "off" (0, false, no).
func IsFalsy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no", "off":
		return true
	default:
		return false
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report TOML key names so errors point at config.toml entries.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks every field constraint and reports the first violation.
func Validate(s *Settings) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid config: %s fails %q", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("invalid config: %w", err)
}
