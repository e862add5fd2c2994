package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agusx1211/structphoto/internal/photoflat"
)

const (
	progressModePrint = "print"
	progressModeLog   = "log"
	progressModeQuiet = "quiet"
)

func normalizeProgressMode(mode string) (string, bool) {
	m := strings.TrimSpace(strings.ToLower(mode))
	switch m {
	case progressModePrint, "stdout", "text":
		return progressModePrint, true
	case progressModeLog, "slog", "structured":
		return progressModeLog, true
	case progressModeQuiet, "none", "silent", "off":
		return progressModeQuiet, true
	default:
		return "", false
	}
}

func resolveProgressMode(defaultMode string, printFlag, logFlag, quietFlag bool) (string, error) {
	selected := 0
	if printFlag {
		selected++
	}
	if logFlag {
		selected++
	}
	if quietFlag {
		selected++
	}
	if selected > 1 {
		return "", fmt.Errorf("only one of --print, --log, or --quiet may be set")
	}
	if printFlag {
		return progressModePrint, nil
	}
	if logFlag {
		return progressModeLog, nil
	}
	if quietFlag {
		return progressModeQuiet, nil
	}
	if defaultMode == "" {
		return progressModePrint, nil
	}
	normalized, ok := normalizeProgressMode(defaultMode)
	if !ok {
		return "", fmt.Errorf("invalid progress mode %q (expected print, log, or quiet)", defaultMode)
	}
	return normalized, nil
}

// progressSink returns where the progress stream of a run goes.
func progressSink(mode string, out io.Writer) photoflat.Sink {
	switch mode {
	case progressModeLog:
		return photoflat.LogSink{}
	case progressModeQuiet:
		return photoflat.Discard
	default:
		return photoflat.NewWriterSink(out)
	}
}

func homeConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

func writeHomeDefaultProgressMode(mode string) (string, error) {
	path, err := homeConfigPath()
	if err != nil {
		return "", err
	}
	return path, setDefaultProgressMode(path, mode)
}
