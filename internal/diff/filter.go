package diff

import (
	"path"
	"strings"
)

// Filter decides which touched paths become ChangedFiles.
type Filter struct {
	// Extensions lists accepted file extensions without the leading dot.
	// Empty accepts everything.
	Extensions []string
	// Ignore lists paths, directory prefixes, or globs to exclude.
	Ignore []string
}

// DefaultExtensions covers the C and C++ source and header suffixes the
// clang tools understand.
var DefaultExtensions = []string{
	"c", "h", "C", "H", "cpp", "hpp", "cc", "hh", "c++", "h++", "cxx", "hxx",
}

// Accepts reports whether the path passes the extension and ignore rules.
func (f Filter) Accepts(filePath string) bool {
	if filePath == "" {
		return false
	}
	if !f.matchesExtension(filePath) {
		return false
	}
	return !f.ignored(filePath)
}

func (f Filter) matchesExtension(filePath string) bool {
	if len(f.Extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(path.Ext(filePath), ".")
	for _, want := range f.Extensions {
		if ext == strings.TrimPrefix(want, ".") {
			return true
		}
	}
	return false
}

func (f Filter) ignored(filePath string) bool {
	for _, pattern := range f.Ignore {
		pattern = strings.TrimSuffix(strings.TrimPrefix(pattern, "./"), "/")
		if pattern == "" {
			continue
		}
		if filePath == pattern || strings.HasPrefix(filePath, pattern+"/") {
			return true
		}
		if ok, err := path.Match(pattern, filePath); err == nil && ok {
			return true
		}
		if ok, err := path.Match(pattern, path.Base(filePath)); err == nil && ok {
			return true
		}
	}
	return false
}
