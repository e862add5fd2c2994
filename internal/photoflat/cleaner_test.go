package photoflat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCleanKeepsExcludedDirectories(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.ExcludeDirs = []string{"excl"}
	makeTree(t, cfg.TargetDir, map[string]string{
		"a/nested/deep.jpg": "x",
		"a/top.jpg":         "x",
		"b":                 "file",
		"excl/keep.jpg":     "keep",
		"excl/sub/":         "",
	})

	sink := &RecordingSink{}
	stats, err := NewCleaner(cfg, sink).Clean(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := listDir(t, cfg.TargetDir); !equalStrings(got, []string{"excl"}) {
		t.Fatalf("expected only excl to remain, got %v", got)
	}
	if !exists(filepath.Join(cfg.TargetDir, "excl", "keep.jpg")) || !exists(filepath.Join(cfg.TargetDir, "excl", "sub")) {
		t.Errorf("expected excluded directory contents to be untouched")
	}
	if stats.Removed != 2 || stats.Kept != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if want := []string{"a", "b", "excl"}; !equalStrings(sink.Lines(), want) {
		t.Errorf("expected one line per entry %v, got %v", want, sink.Lines())
	}
}

func TestCleanKeepsExcludedNamesWithGlobCharacters(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.ExcludeDirs = []string{"Backup [keep]", "Pics [old"}
	makeTree(t, cfg.TargetDir, map[string]string{
		"Backup [keep]/photo.jpg": "keep",
		"Pics [old/photo.jpg":     "keep",
		"stale/photo.jpg":         "x",
	})

	stats, err := NewCleaner(cfg, nil).Clean(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := listDir(t, cfg.TargetDir); !equalStrings(got, []string{"Backup [keep]", "Pics [old"}) {
		t.Fatalf("expected excluded directories to remain, got %v", got)
	}
	if stats.Kept != 2 || stats.Removed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestCleanExcludedFileNameIsStillRemoved(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.ExcludeDirs = []string{"excl"}
	makeTree(t, cfg.TargetDir, map[string]string{"excl": "a file, not a directory"})

	if _, err := NewCleaner(cfg, nil).Clean(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists(filepath.Join(cfg.TargetDir, "excl")) {
		t.Errorf("expected file named like an excluded directory to be removed")
	}
}

func TestCleanRemovesSymlinkNotTarget(t *testing.T) {
	cfg := newTestConfig(t)
	makeTree(t, cfg.SourceDir, map[string]string{"keep/photo.jpg": "x"})
	link := filepath.Join(cfg.TargetDir, "link")
	if err := os.Symlink(filepath.Join(cfg.SourceDir, "keep"), link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if _, err := NewCleaner(cfg, nil).Clean(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists(link) {
		t.Errorf("expected symlink to be removed")
	}
	if !exists(filepath.Join(cfg.SourceDir, "keep", "photo.jpg")) {
		t.Errorf("expected symlink target to survive")
	}
}

func TestCleanCreatesMissingTarget(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.TargetDir = filepath.Join(filepath.Dir(cfg.TargetDir), "fresh")

	if _, err := NewCleaner(cfg, nil).Clean(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists(cfg.TargetDir) {
		t.Errorf("expected target to be created")
	}
}

func TestCleanCanceledBeforeStart(t *testing.T) {
	cfg := newTestConfig(t)
	makeTree(t, cfg.TargetDir, map[string]string{"a/x.jpg": "x", "b": "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &RecordingSink{}
	_, err := NewCleaner(cfg, sink).Clean(ctx)
	if !errors.Is(err, ErrTerminated) {
		t.Fatalf("expected ErrTerminated, got %v", err)
	}
	if got := listDir(t, cfg.TargetDir); !equalStrings(got, []string{"a", "b"}) {
		t.Errorf("expected nothing removed, got %v", got)
	}
	if len(sink.Lines()) != 0 {
		t.Errorf("expected no entry lines, got %v", sink.Lines())
	}
}

func TestCleanCanceledMidway(t *testing.T) {
	cfg := newTestConfig(t)
	makeTree(t, cfg.TargetDir, map[string]string{"a/x.jpg": "x", "b/y.jpg": "y", "c": "z"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := SinkFunc(func(line string) {
		if line == "a" {
			cancel()
		}
	})

	_, err := NewCleaner(cfg, sink).Clean(ctx)
	if !errors.Is(err, ErrTerminated) {
		t.Fatalf("expected ErrTerminated, got %v", err)
	}
	if got := listDir(t, cfg.TargetDir); !equalStrings(got, []string{"b", "c"}) {
		t.Errorf("expected partial clean leaving b and c, got %v", got)
	}
}

func TestCleanRejectsOverlapBeforeDeleting(t *testing.T) {
	cfg := newTestConfig(t)
	makeTree(t, cfg.SourceDir, map[string]string{"2020/01/photo.jpg": "x"})
	cfg.TargetDir = filepath.Join(cfg.SourceDir, "2020")

	_, err := NewCleaner(cfg, nil).Clean(context.Background())
	if !IsConfigError(err) {
		t.Fatalf("expected config error, got %v", err)
	}
	if !exists(filepath.Join(cfg.SourceDir, "2020", "01", "photo.jpg")) {
		t.Errorf("expected source to be untouched")
	}
}
