package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{"file URI", "file:///Users/test/documents/file.txt", "/Users/test/documents/file.txt"},
		{"file URI with spaces", "file:///Users/test/my documents/file.txt", "/Users/test/my documents/file.txt"},
		{"escaped file URI", "file:///Users/test/my%20documents/file.txt", "/Users/test/my documents/file.txt"},
		{"editor link with line", "vscode://file/home/me/notes.md:12", "/home/me/notes.md"},
		{"editor link without line", "cursor://file/home/me/notes.md", "/home/me/notes.md"},
		{"archive member", "/home/me/backup.zip::docs/a.txt", "/home/me/backup.zip"},
		{"bare path", "/Users/test/documents/file.txt", "/Users/test/documents/file.txt"},
		{"relative path", "docs/file.txt", "docs/file.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePath(tt.link))
		})
	}
}
