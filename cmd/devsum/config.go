package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/devsum/internal/tasks"
)

type fileConfig struct {
	LogLevel    string                       `toml:"log_level"`
	MetricsFile string                       `toml:"metrics_file"`
	Manifest    string                       `toml:"manifest"`
	Plain       bool                         `toml:"plain"`
	Task        map[string]map[string]string `toml:"task"`
}

type appConfig struct {
	LogLevel     string
	MetricsFile  string
	ManifestPath string
	Plain        bool
	TaskDefaults map[string]tasks.Args
}

func defaultAppConfig(home string) appConfig {
	return appConfig{
		ManifestPath: filepath.Join(home, ".config", "devsum", "manifest.toml"),
		TaskDefaults: map[string]tasks.Args{},
	}
}

func defaultConfigPath(home string) string {
	return filepath.Join(home, ".config", "devsum", "config.toml")
}

// loadAppConfig reads path over the defaults. A missing file is only an
// error when the caller named it explicitly.
func loadAppConfig(path string, explicit bool, home string) (appConfig, error) {
	cfg := defaultAppConfig(home)

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return appConfig{}, fmt.Errorf("load devsum config: %w", err)
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("metrics_file") {
		cfg.MetricsFile = expandPath(strings.TrimSpace(raw.MetricsFile), home)
	}

	if meta.IsDefined("manifest") {
		cfg.ManifestPath = expandPath(strings.TrimSpace(raw.Manifest), home)
	}

	if meta.IsDefined("plain") {
		cfg.Plain = raw.Plain
	}

	for id, values := range raw.Task {
		args := tasks.Args{}
		for name, value := range values {
			args[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
		cfg.TaskDefaults[strings.TrimSpace(id)] = args
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return appConfig{}, fmt.Errorf("load devsum config: unknown keys %v", undecoded)
	}

	return cfg, nil
}

func expandPath(path, home string) string {
	if path == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
