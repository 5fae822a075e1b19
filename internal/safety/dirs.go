package safety

// skipDirs are VCS, dependency and tool directories that never hold library content.
var skipDirs = map[string]bool{
	".git": true, ".hg": true, ".svn": true, "node_modules": true,
	"__pycache__": true, ".venv": true, ".idea": true,
}

// SkipDir reports whether a directory with this base name is never descended into.
func SkipDir(name string) bool {
	return skipDirs[name]
}
