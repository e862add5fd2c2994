package photoflat

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSeparator joins flattened path segments when none is configured.
const DefaultSeparator = " = "

// Config is the resolved configuration of one run. It is passed by value and
// never mutated while an operation runs.
type Config struct {
	SourceDir   string
	TargetDir   string
	Separator   string
	ExcludeDirs []string
	// IgnoreFile optionally names a gitignore-style file whose rules prune
	// the source walk.
	IgnoreFile string
	// Highlight wraps status lines, e.g. "***" gives "*** Cleanup DONE ***".
	Highlight string
}

// Validate checks the configuration before anything under the target is
// touched. The checks are:
//  1. both paths are set and absolute;
//  2. the source exists and is a directory;
//  3. the target is a directory, or does not exist but its parent does;
//  4. the separator does not contain a path separator;
//  5. source and target do not overlap, after resolving symlinks.
func (c Config) Validate() error {
	if err := requireAbs("source", c.SourceDir); err != nil {
		return err
	}
	if err := requireAbs("target", c.TargetDir); err != nil {
		return err
	}
	if err := checkSourceAccessible(c.SourceDir); err != nil {
		return err
	}
	if err := checkTargetAccessible(c.TargetDir); err != nil {
		return err
	}
	if strings.ContainsRune(c.Separator, '/') || strings.ContainsRune(c.Separator, filepath.Separator) {
		return &ConfigError{Field: "separator", Err: fmt.Errorf("%q contains a path separator", c.Separator)}
	}
	return checkNoOverlap(c.SourceDir, c.TargetDir)
}

// ValidateLinkable checks that hardlinks from the source can be created in
// the target, i.e. both live on the same filesystem.
func (c Config) ValidateLinkable() error {
	same, err := sameDevice(c.SourceDir, deepestExistingAncestor(c.TargetDir))
	if err != nil {
		return &ConfigError{Field: "target", Path: c.TargetDir, Err: err}
	}
	if !same {
		return &ConfigError{
			Field: "target",
			Path:  c.TargetDir,
			Err:   errors.New("not on the same filesystem as the source; hardlinks are impossible"),
		}
	}
	return nil
}

// ensureTarget creates the target directory if it does not exist yet.
func (c Config) ensureTarget() error {
	if err := os.MkdirAll(c.TargetDir, 0o755); err != nil {
		return &MutationError{Op: "create target directory", Path: c.TargetDir, Err: err}
	}
	return nil
}

func requireAbs(field, path string) error {
	if path == "" {
		return &ConfigError{Field: field, Err: errors.New("path is empty")}
	}
	if !filepath.IsAbs(path) {
		return &ConfigError{Field: field, Path: path, Err: errors.New("path is not absolute")}
	}
	return nil
}

func checkSourceAccessible(srcPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &ConfigError{Field: "source", Path: srcPath, Err: errors.New("directory does not exist")}
		}
		return &ConfigError{Field: "source", Path: srcPath, Err: err}
	}
	if !info.IsDir() {
		return &ConfigError{Field: "source", Path: srcPath, Err: errors.New("is not a directory")}
	}
	return nil
}

func checkTargetAccessible(targetPath string) error {
	info, err := os.Stat(targetPath)
	if os.IsNotExist(err) {
		parentDir := filepath.Dir(targetPath)
		parentInfo, err := os.Stat(parentDir)
		if err != nil {
			return &ConfigError{Field: "target", Path: targetPath, Err: fmt.Errorf("cannot access parent directory: %w", err)}
		}
		if !parentInfo.IsDir() {
			return &ConfigError{Field: "target", Path: targetPath, Err: errors.New("parent is not a directory")}
		}
		return nil
	} else if err != nil {
		return &ConfigError{Field: "target", Path: targetPath, Err: err}
	}
	if !info.IsDir() {
		return &ConfigError{Field: "target", Path: targetPath, Err: errors.New("exists but is not a directory")}
	}
	return nil
}

func checkNoOverlap(source, target string) error {
	src := resolvePath(source)
	trg := resolvePath(target)
	switch {
	case src == trg:
		return &ConfigError{Field: "target", Path: target, Err: errors.New("is the same directory as the source")}
	case isWithin(src, trg):
		return &ConfigError{Field: "target", Path: target, Err: fmt.Errorf("is inside the source %s", source)}
	case isWithin(trg, src):
		return &ConfigError{Field: "target", Path: target, Err: fmt.Errorf("contains the source %s", source)}
	}
	return nil
}

// isWithin reports whether child is strictly below parent.
func isWithin(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolvePath cleans path and resolves symlinks in its deepest existing
// ancestor, keeping the not-yet-existing tail as is.
func resolvePath(path string) string {
	path = filepath.Clean(path)
	ancestor := deepestExistingAncestor(path)
	resolved, err := filepath.EvalSymlinks(ancestor)
	if err != nil {
		return path
	}
	rest, err := filepath.Rel(ancestor, path)
	if err != nil {
		return path
	}
	return filepath.Join(resolved, rest)
}

func deepestExistingAncestor(path string) string {
	ancestor := filepath.Clean(path)
	for {
		if _, err := os.Stat(ancestor); err == nil {
			return ancestor
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			return ancestor
		}
		ancestor = parent
	}
}
