package photoflat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// Filter decides which source directories are walked and which files are
// linked, and which top-level target directories survive a clean.
type Filter struct {
	gitIgnore    *ignore.GitIgnore
	baseDir      string
	excludedDirs map[string]struct{}
	dirPatterns  []string
}

// NewFilter creates a filter rooted at baseDir.
// Every exclude name matches a directory's base name exactly. A name that
// also parses as a doublestar pattern additionally matches as a glob, so
// "Backup [keep]" excludes itself as well as "Backupk".
// ignoreFile is optional and holds gitignore-style rules relative to baseDir.
func NewFilter(baseDir string, excludeDirs []string, ignoreFile string) (*Filter, error) {
	f := &Filter{
		baseDir:      baseDir,
		excludedDirs: make(map[string]struct{}, len(excludeDirs)),
	}

	for _, name := range excludeDirs {
		f.excludedDirs[name] = struct{}{}
		if strings.ContainsAny(name, "*?[{") && doublestar.ValidatePattern(name) {
			f.dirPatterns = append(f.dirPatterns, name)
		}
	}

	if ignoreFile != "" {
		if _, err := os.Stat(ignoreFile); err != nil {
			return nil, fmt.Errorf("failed to stat ignore file %s: %w", ignoreFile, err)
		}
		gitIgnore, err := ignore.CompileIgnoreFile(ignoreFile)
		if err != nil {
			return nil, fmt.Errorf("failed to compile ignore file %s: %w", ignoreFile, err)
		}
		f.gitIgnore = gitIgnore
	}

	return f, nil
}

// IsExcludedName reports whether a directory with this base name is excluded.
func (f *Filter) IsExcludedName(name string) bool {
	if _, ok := f.excludedDirs[name]; ok {
		return true
	}
	for _, pattern := range f.dirPatterns {
		if matched, err := doublestar.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}

// ShouldDescend reports whether the walk enters the directory at path.
func (f *Filter) ShouldDescend(path string) bool {
	if f.IsExcludedName(filepath.Base(path)) {
		return false
	}
	return !f.ignored(path, true)
}

// ShouldLink reports whether the file at path is linked.
func (f *Filter) ShouldLink(path string) bool {
	return !f.ignored(path, false)
}

func (f *Filter) ignored(path string, isDir bool) bool {
	if f.gitIgnore == nil {
		return false
	}
	relPath, err := filepath.Rel(f.baseDir, path)
	if err != nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)
	if f.gitIgnore.MatchesPath(relPath) {
		return true
	}
	// Directory-only rules such as "cache/" need the trailing slash.
	return isDir && f.gitIgnore.MatchesPath(relPath+"/")
}
