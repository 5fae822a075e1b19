package guardrails

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/core/ports/driven"
)

// RootFolder names source files that sit directly in a silo root.
const RootFolder = "(root)"

// languages maps source extensions to language names.
var languages = map[string]string{
	".py": "Python", ".go": "Go", ".ts": "TypeScript", ".tsx": "TypeScript",
	".js": "JavaScript", ".jsx": "JavaScript", ".mjs": "JavaScript",
	".java": "Java", ".kt": "Kotlin", ".scala": "Scala", ".rb": "Ruby",
	".rs": "Rust", ".c": "C", ".h": "C", ".cpp": "C++", ".cc": "C++", ".hpp": "C++",
	".cs": "C#", ".swift": "Swift", ".m": "Objective-C", ".php": "PHP",
	".sh": "Shell", ".bash": "Shell", ".lua": "Lua", ".dart": "Dart",
	".r": "R", ".jl": "Julia", ".ex": "Elixir", ".erl": "Erlang", ".hs": "Haskell",
	".sql": "SQL", ".ipynb": "Python",
}

// Language returns the language of a source file, or "".
func Language(path string) string {
	return languages[strings.ToLower(filepath.Ext(path))]
}

var codingQuery = regexp.MustCompile(`(?i)\b(?:how many|count|list|number of)\b.*\b(?:coding|code|programming|software) projects?\b`)

// CodingCount answers "how many coding projects" by counting the top-level
// folders of each silo that contain source files.
type CodingCount struct {
	manifest driven.ManifestStore
}

// NewCodingCount creates the coding project guardrail.
func NewCodingCount(manifest driven.ManifestStore) *CodingCount {
	return &CodingCount{manifest: manifest}
}

// Name returns ReasonCodingCount.
func (g *CodingCount) Name() string { return ReasonCodingCount }

// Answer lists the project folders.
func (g *CodingCount) Answer(ctx context.Context, req Request) (*domain.Answer, bool, error) {
	if !codingQuery.MatchString(req.Query) || len(req.Silos) == 0 {
		return nil, false, nil
	}

	folders := make(map[string]string)
	for _, silo := range req.Silos {
		recs, err := g.manifest.List(ctx, silo.Slug)
		if err != nil {
			return nil, false, fmt.Errorf("list %s: %w", silo.Slug, err)
		}
		for _, r := range recs {
			if Language(r.Path) == "" {
				continue
			}
			name := TopFolder(silo.RootPath, r.Path)
			if len(req.Silos) > 1 {
				name = silo.Name + "/" + name
			}
			if _, ok := folders[name]; !ok {
				folders[name] = r.Path
			}
		}
	}
	if len(folders) == 0 {
		return &domain.Answer{Body: "Found 0 coding project folders."}, true, nil
	}

	names := make([]string, 0, len(folders))
	for n := range folders {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d coding project folders:", len(names))
	sources := make([]domain.SourceRef, 0, len(names))
	for _, n := range names {
		b.WriteString("\n- ")
		b.WriteString(n)
		sources = append(sources, domain.SourceRef{Path: folders[n]})
	}
	return &domain.Answer{Body: b.String(), Sources: sources}, true, nil
}

// TopFolder returns the first path component of path below root, or
// RootFolder for files directly in root.
func TopFolder(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return RootFolder
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return RootFolder
	}
	return parts[0]
}

// CodeLanguage answers CODE_LANGUAGE queries by counting source files per
// language in the manifest.
type CodeLanguage struct {
	manifest driven.ManifestStore
}

// NewCodeLanguage creates the code language guardrail.
func NewCodeLanguage(manifest driven.ManifestStore) *CodeLanguage {
	return &CodeLanguage{manifest: manifest}
}

// Name returns ReasonCodeLanguage.
func (g *CodeLanguage) Name() string { return ReasonCodeLanguage }

// Answer reports languages by file count, most common first.
func (g *CodeLanguage) Answer(ctx context.Context, req Request) (*domain.Answer, bool, error) {
	if req.Intent != domain.IntentCodeLanguage || len(req.Silos) == 0 {
		return nil, false, nil
	}

	counts := make(map[string]int)
	for _, silo := range req.Silos {
		recs, err := g.manifest.List(ctx, silo.Slug)
		if err != nil {
			return nil, false, fmt.Errorf("list %s: %w", silo.Slug, err)
		}
		for _, r := range recs {
			if lang := Language(r.Path); lang != "" {
				counts[lang]++
			}
		}
	}
	if len(counts) == 0 {
		return &domain.Answer{Body: "I did not find any source code files in this library."}, true, nil
	}

	langs := make([]string, 0, len(counts))
	for l := range counts {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool {
		if counts[langs[i]] != counts[langs[j]] {
			return counts[langs[i]] > counts[langs[j]]
		}
		return langs[i] < langs[j]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "The most common programming language is %s (%s).", langs[0], files(counts[langs[0]]))
	for _, l := range langs {
		fmt.Fprintf(&b, "\n- %s: %s", l, files(counts[l]))
	}
	return &domain.Answer{Body: b.String()}, true, nil
}

func files(n int) string {
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", n)
}

// Capabilities answers CAPABILITIES queries with the formats the chunker
// handles.
type Capabilities struct {
	extensions []string
}

// NewCapabilities creates the capabilities guardrail for the given
// dedicated extensions.
func NewCapabilities(extensions []string) *Capabilities {
	exts := append([]string(nil), extensions...)
	sort.Strings(exts)
	return &Capabilities{extensions: exts}
}

// Name returns ReasonCapabilities.
func (g *Capabilities) Name() string { return ReasonCapabilities }

// Answer lists supported formats.
func (g *Capabilities) Answer(_ context.Context, req Request) (*domain.Answer, bool, error) {
	if req.Intent != domain.IntentCapabilities {
		return nil, false, nil
	}
	var b strings.Builder
	b.WriteString("I can index plain text and source code files")
	if len(g.extensions) > 0 {
		b.WriteString(", plus ")
		b.WriteString(strings.Join(g.extensions, ", "))
	}
	b.WriteString(". ZIP archives are opened and their members indexed individually. ")
	b.WriteString("Binary files, secret files such as .env or *.pem, and cloud-sync folders (unless allowed) are skipped.")
	return &domain.Answer{Body: b.String()}, true, nil
}
