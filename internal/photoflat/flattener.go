package photoflat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agusx1211/structphoto/internal/plog"
)

// Flattener rebuilds the flat hardlink tree. Every run starts with a clean
// of the target.
type Flattener struct {
	cfg  Config
	sink Sink
}

func NewFlattener(cfg Config, sink Sink) *Flattener {
	if sink == nil {
		sink = Discard
	}
	return &Flattener{cfg: cfg, sink: sink}
}

// Flatten cleans the target and links every leaf directory of the source
// into it. A cancellation observed during the embedded clean stops the run
// before anything is created. Cancellation is also checked before each
// visited directory and before each file link.
func (f *Flattener) Flatten(ctx context.Context) (Stats, error) {
	var stats Stats

	if err := f.cfg.Validate(); err != nil {
		return stats, err
	}
	if err := f.cfg.ValidateLinkable(); err != nil {
		return stats, err
	}
	filter, err := NewFilter(f.cfg.SourceDir, f.cfg.ExcludeDirs, f.cfg.IgnoreFile)
	if err != nil {
		return stats, &ConfigError{Field: "exclude", Err: err}
	}

	// The clean job derives its context from ctx, so stopping this run also
	// stops the clean. Its failure is logged once, by the enclosing job.
	cleanResult := NewCleanJob(f.cfg, f.sink, withoutFailureLog()).Run(ctx)
	stats = cleanResult.Stats
	switch cleanResult.Outcome {
	case Terminated:
		return stats, ErrTerminated
	case Failed:
		return stats, cleanResult.Err
	}

	f.sink.AppendLine(formatStatus(f.cfg.Highlight, "Creating hardlinks..."))

	err = f.walk(ctx, filter, f.cfg.SourceDir, nil, &stats)
	return stats, err
}

// walk visits dir depth-first. segments holds dir's path relative to the
// source root.
func (f *Flattener) walk(ctx context.Context, filter *Filter, dir string, segments []string, stats *Stats) error {
	if err := checkCanceled(ctx); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read source directory %s: %w", dir, err)
	}

	var dirs, files []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		switch {
		case entry.IsDir():
			if !filter.ShouldDescend(path) {
				plog.Debug("Skipping excluded directory", "path", path)
				stats.Pruned++
				continue
			}
			dirs = append(dirs, entry.Name())
		case entry.Type().IsRegular():
			if !filter.ShouldLink(path) {
				plog.Debug("Skipping ignored file", "path", path)
				continue
			}
			files = append(files, entry.Name())
		default:
			plog.Debug("Skipping non-regular entry", "path", path, "type", entry.Type().String())
		}
	}

	if len(dirs) == 0 || len(files) > 0 {
		if err := f.linkLeaf(ctx, dir, segments, files, stats); err != nil {
			return err
		}
	}

	for _, name := range dirs {
		// Siblings must not share a backing array.
		child := append(segments[:len(segments):len(segments)], name)
		if err := f.walk(ctx, filter, filepath.Join(dir, name), child, stats); err != nil {
			return err
		}
	}
	return nil
}

// linkLeaf creates the flattened directory for a leaf unit and hardlinks its
// files into it. The source root itself maps onto the target root.
func (f *Flattener) linkLeaf(ctx context.Context, dir string, segments []string, files []string, stats *Stats) error {
	name := FlattenedName(segments, f.cfg.Separator)
	leafDir := f.cfg.TargetDir

	if len(segments) > 0 {
		leafDir = filepath.Join(f.cfg.TargetDir, name)
		if err := os.Mkdir(leafDir, 0o755); err != nil {
			return &MutationError{Op: "create directory", Path: leafDir, Err: err}
		}
		stats.Leaves++
	}

	for _, file := range files {
		if err := checkCanceled(ctx); err != nil {
			return err
		}
		src := filepath.Join(dir, file)
		dst := filepath.Join(leafDir, file)
		if err := os.Link(src, dst); err != nil {
			return &MutationError{Op: "link", Path: dst, Err: err}
		}
		stats.Linked++
	}

	if name == "" {
		name = "."
	}
	f.sink.AppendLine(name)
	return nil
}

// FlattenedName joins the path segments of a leaf, relative to the source
// root, with sep.
func FlattenedName(segments []string, sep string) string {
	return strings.Join(segments, sep)
}
