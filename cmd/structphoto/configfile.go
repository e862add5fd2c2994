package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agusx1211/structphoto/internal/photoflat"
	"gopkg.in/yaml.v3"
)

const configFileName = ".structphoto"

type structphotoProfile struct {
	Source     string   `yaml:"source,omitempty"`
	Target     string   `yaml:"target,omitempty"`
	Separator  *string  `yaml:"separator,omitempty"`
	Highlight  *string  `yaml:"highlight,omitempty"`
	Exclude    []string `yaml:"exclude,omitempty"`
	IgnoreFile string   `yaml:"ignore_file,omitempty"`
}

type structphotoFile struct {
	structphotoProfile `yaml:",inline"`
	Progress           string                        `yaml:"progress,omitempty"`
	Profiles           map[string]structphotoProfile `yaml:"profiles,omitempty"`
}

// settings is the fully merged configuration before it is turned into a
// photoflat.Config.
type settings struct {
	Source     string   `yaml:"source"`
	Target     string   `yaml:"target"`
	Separator  string   `yaml:"separator"`
	Highlight  string   `yaml:"highlight"`
	Exclude    []string `yaml:"exclude"`
	IgnoreFile string   `yaml:"ignore_file,omitempty"`
	Progress   string   `yaml:"progress"`
}

func defaultSettings() settings {
	return settings{Separator: photoflat.DefaultSeparator}
}

func (s *settings) apply(p structphotoProfile) {
	if p.Source != "" {
		s.Source = p.Source
	}
	if p.Target != "" {
		s.Target = p.Target
	}
	if p.Separator != nil {
		s.Separator = *p.Separator
	}
	if p.Highlight != nil {
		s.Highlight = *p.Highlight
	}
	if p.IgnoreFile != "" {
		s.IgnoreFile = p.IgnoreFile
	}
	s.Exclude = appendUnique(s.Exclude, p.Exclude...)
}

func readConfigFile(path string) (*structphotoFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg structphotoFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// writeConfigFile stores cfg at path, keeping the permissions of an existing
// file.
func writeConfigFile(path string, cfg *structphotoFile) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	return os.WriteFile(path, out, perm)
}

// setDefaultProgressMode records mode in the config file at path and keeps
// its other settings.
func setDefaultProgressMode(path, mode string) error {
	normalized, ok := normalizeProgressMode(mode)
	if !ok {
		return fmt.Errorf("invalid progress mode %q (expected print, log, or quiet)", mode)
	}
	cfg, err := readConfigFile(path)
	if os.IsNotExist(err) {
		cfg = &structphotoFile{}
	} else if err != nil {
		return err
	}
	cfg.Progress = normalized
	return writeConfigFile(path, cfg)
}

// applyFile overlays a config file, then its profile. A profile missing from
// the file falls back to the file's "default" profile. It reports whether a
// profile of the file was applied.
func (s *settings) applyFile(cfg *structphotoFile, profile string) bool {
	s.apply(cfg.structphotoProfile)
	if cfg.Progress != "" {
		s.Progress = cfg.Progress
	}
	if prof, ok := cfg.Profiles[profile]; ok {
		s.apply(prof)
		return true
	}
	if prof, ok := cfg.Profiles["default"]; ok {
		s.apply(prof)
		return true
	}
	return false
}

// configSearchPaths lists the config files consulted when --config is not
// given. Later files override earlier ones.
func configSearchPaths() []string {
	var paths []string
	if home, err := homeConfigPath(); err == nil {
		paths = append(paths, home)
	}
	if wd, err := os.Getwd(); err == nil {
		local := filepath.Join(wd, configFileName)
		if len(paths) == 0 || paths[0] != local {
			paths = append(paths, local)
		}
	}
	return paths
}

// loadSettings merges defaults and config files. An explicit path must
// exist; search paths are skipped when missing. A named profile is an error
// only when files define profiles and none of them provides it.
func loadSettings(explicitPath, profile string) (settings, error) {
	s := defaultSettings()

	paths := configSearchPaths()
	if explicitPath != "" {
		paths = []string{explicitPath}
	}

	hasProfiles, resolved := false, false
	for _, path := range paths {
		cfg, err := readConfigFile(path)
		if err != nil {
			if os.IsNotExist(err) && explicitPath == "" {
				continue
			}
			return s, fmt.Errorf("failed to load config file: %w", err)
		}
		hasProfiles = hasProfiles || len(cfg.Profiles) > 0
		if s.applyFile(cfg, profile) {
			resolved = true
		}
	}
	if hasProfiles && !resolved && profile != "" && profile != "default" {
		return s, fmt.Errorf("profile %q not found", profile)
	}
	return s, nil
}

// photoflatConfig resolves paths and builds the core configuration.
func (s settings) photoflatConfig() (photoflat.Config, error) {
	source, err := absPath(s.Source)
	if err != nil {
		return photoflat.Config{}, fmt.Errorf("failed to resolve source: %w", err)
	}
	target, err := absPath(s.Target)
	if err != nil {
		return photoflat.Config{}, fmt.Errorf("failed to resolve target: %w", err)
	}
	ignoreFile := expandHome(s.IgnoreFile)
	if ignoreFile != "" && !filepath.IsAbs(ignoreFile) && source != "" {
		ignoreFile = filepath.Join(source, ignoreFile)
	}
	return photoflat.Config{
		SourceDir:   source,
		TargetDir:   target,
		Separator:   s.Separator,
		ExcludeDirs: append([]string(nil), s.Exclude...),
		IgnoreFile:  ignoreFile,
		Highlight:   s.Highlight,
	}, nil
}

func absPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	return filepath.Abs(expandHome(path))
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, existing := range list {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}
