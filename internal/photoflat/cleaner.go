package photoflat

import (
	"context"
	"os"
	"path/filepath"

	"github.com/agusx1211/structphoto/internal/plog"
)

// Cleaner empties the target directory. Top-level directories whose names
// are excluded survive together with their contents; everything else is
// removed.
type Cleaner struct {
	cfg  Config
	sink Sink
}

func NewCleaner(cfg Config, sink Sink) *Cleaner {
	if sink == nil {
		sink = Discard
	}
	return &Cleaner{cfg: cfg, sink: sink}
}

// Clean removes the top-level entries of the target, emitting each entry
// name to the sink. Cancellation is checked before every entry; work already
// done is kept. The first failed removal aborts the clean.
func (c *Cleaner) Clean(ctx context.Context) (Stats, error) {
	var stats Stats

	if err := c.cfg.Validate(); err != nil {
		return stats, err
	}
	filter, err := NewFilter(c.cfg.TargetDir, c.cfg.ExcludeDirs, "")
	if err != nil {
		return stats, &ConfigError{Field: "exclude", Err: err}
	}
	if err := c.cfg.ensureTarget(); err != nil {
		return stats, err
	}

	entries, err := os.ReadDir(c.cfg.TargetDir)
	if err != nil {
		return stats, &MutationError{Op: "read target directory", Path: c.cfg.TargetDir, Err: err}
	}

	for _, entry := range entries {
		if err := checkCanceled(ctx); err != nil {
			return stats, err
		}

		c.sink.AppendLine(entry.Name())
		path := filepath.Join(c.cfg.TargetDir, entry.Name())

		if entry.IsDir() {
			if filter.IsExcludedName(entry.Name()) {
				plog.Debug("Keeping excluded directory", "path", path)
				stats.Kept++
				continue
			}
			if err := os.RemoveAll(path); err != nil {
				return stats, &MutationError{Op: "remove directory", Path: path, Err: err}
			}
		} else if err := os.Remove(path); err != nil {
			return stats, &MutationError{Op: "remove", Path: path, Err: err}
		}
		stats.Removed++
	}

	return stats, nil
}
