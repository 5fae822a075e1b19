package safety

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

const (
	symlinkMode  = 0o120000
	fileTypeMask = 0o170000
	flagEncrypt  = 0x1
)

var driveLetter = regexp.MustCompile(`^[A-Za-z]:`)

// ZipLimits bounds what a single archive may contribute.
type ZipLimits struct {
	MaxFilesPerZip     int
	MaxExtractedPerZip int64
	MaxFileBytes       int64
}

// DefaultZipLimits returns 500 files, 200 MiB total, 20 MiB per entry.
func DefaultZipLimits() ZipLimits {
	return ZipLimits{
		MaxFilesPerZip:     500,
		MaxExtractedPerZip: 200 << 20,
		MaxFileBytes:       20 << 20,
	}
}

// CheckEntryName rejects traversal and absolute entry names.
func CheckEntryName(name string) error {
	if name == "" {
		return fmt.Errorf("empty entry name: %w", domain.ErrArchiveLimit)
	}
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) || driveLetter.MatchString(name) {
		return fmt.Errorf("absolute entry %q: %w", name, domain.ErrArchiveLimit)
	}
	for _, seg := range strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return fmt.Errorf("traversal entry %q: %w", name, domain.ErrArchiveLimit)
		}
	}
	return nil
}

// IsSymlink reports whether the POSIX file-type bits mark the entry as a symlink.
func IsSymlink(f *zip.File) bool {
	return (f.ExternalAttrs>>16)&fileTypeMask == symlinkMode
}

// IsEncrypted reports whether the entry has the encryption flag set.
func IsEncrypted(f *zip.File) bool {
	return f.Flags&flagEncrypt != 0
}

// ZipGuard tracks the running totals of one archive walk.
// It is not safe for concurrent use.
type ZipGuard struct {
	limits    ZipLimits
	accepted  int
	extracted int64
}

// NewZipGuard starts a walk with zero totals.
func NewZipGuard(limits ZipLimits) *ZipGuard {
	return &ZipGuard{limits: limits}
}

// Full reports whether MaxFilesPerZip entries have been accepted.
func (g *ZipGuard) Full() bool {
	return g.accepted >= g.limits.MaxFilesPerZip
}

// Check validates an entry header against every static limit.
func (g *ZipGuard) Check(f *zip.File) error {
	if err := CheckEntryName(f.Name); err != nil {
		return err
	}
	if IsSymlink(f) {
		return fmt.Errorf("symlink entry %q: %w", f.Name, domain.ErrArchiveLimit)
	}
	if IsEncrypted(f) {
		return fmt.Errorf("encrypted entry %q: %w", f.Name, domain.ErrArchiveLimit)
	}
	if g.Full() {
		return fmt.Errorf("more than %d entries: %w", g.limits.MaxFilesPerZip, domain.ErrArchiveLimit)
	}
	if int64(f.UncompressedSize64) > g.limits.MaxFileBytes {
		return fmt.Errorf("entry %q is %d bytes: %w", f.Name, f.UncompressedSize64, domain.ErrArchiveLimit)
	}
	if g.extracted+int64(f.UncompressedSize64) > g.limits.MaxExtractedPerZip {
		return fmt.Errorf("archive exceeds %d extracted bytes: %w", g.limits.MaxExtractedPerZip, domain.ErrArchiveLimit)
	}
	return nil
}

// Read checks f and returns its bytes. The read is bounded by MaxFileBytes
// and the remaining total budget, so a header that under-reports its size
// cannot exceed either limit.
func (g *ZipGuard) Read(f *zip.File) ([]byte, error) {
	if err := g.Check(f); err != nil {
		return nil, err
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %q: %w", f.Name, err)
	}
	defer rc.Close()

	budget := min(g.limits.MaxFileBytes, g.limits.MaxExtractedPerZip-g.extracted)
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(rc, budget+1))
	if err != nil {
		return nil, fmt.Errorf("read entry %q: %w", f.Name, err)
	}
	if n > budget {
		return nil, fmt.Errorf("entry %q inflates past its limit: %w", f.Name, domain.ErrArchiveLimit)
	}

	g.accepted++
	g.extracted += n
	return buf.Bytes(), nil
}

// Entry is one accepted archive member.
type Entry struct {
	Name    string
	Content []byte
}

// WalkZip opens the archive at path and calls fn for every regular entry
// that passes the guard. Rejected entries are reported to reject and skipped.
func WalkZip(path string, limits ZipLimits, fn func(Entry) error, reject func(name string, err error)) error {
	zr, err := zip.OpenReader(path)
	if zr == nil {
		return fmt.Errorf("open zip: %w", err)
	}
	// Insecure names come back as a non-nil reader plus an error; they are
	// rejected per entry below.
	defer zr.Close()

	guard := NewZipGuard(limits)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		content, err := guard.Read(f)
		if err != nil {
			if reject != nil {
				reject(f.Name, err)
			}
			continue
		}
		if err := fn(Entry{Name: f.Name, Content: content}); err != nil {
			return err
		}
	}
	return nil
}
