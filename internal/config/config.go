package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Manifest describes what a workstation should carry and which
// diagnostics a report collects.
type Manifest struct {
	Macos  MacosConfig  `toml:"macos"`
	Go     GoConfig     `toml:"go"`
	Report ReportConfig `toml:"report"`
}

type MacosConfig struct {
	PipApps      []string `toml:"pip_apps"`
	HomebrewApps []string `toml:"homebrew_apps"`
	CaskApps     []string `toml:"cask_apps"`
	AppstoreApps []string `toml:"appstore_apps"`
	NpmApps      []string `toml:"npm_apps"`
}

type GoConfig struct {
	Tools []string `toml:"tools"`
}

type ReportConfig struct {
	Checks []CheckConfig `toml:"checks"`
}

type CheckConfig struct {
	Name    string   `toml:"name"`
	Command []string `toml:"command"`
}

func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	if err := loadToml(path, &m); err != nil {
		return Manifest{}, err
	}
	m.Macos.PipApps = normalizeList(m.Macos.PipApps)
	m.Macos.HomebrewApps = normalizeList(m.Macos.HomebrewApps)
	m.Macos.CaskApps = normalizeList(m.Macos.CaskApps)
	m.Macos.AppstoreApps = normalizeList(m.Macos.AppstoreApps)
	m.Macos.NpmApps = normalizeList(m.Macos.NpmApps)
	m.Go.Tools = normalizeList(m.Go.Tools)
	if err := ValidateManifest(m); err != nil {
		return Manifest{}, fmt.Errorf("manifest invalid (%s): %w", path, err)
	}
	return m, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateManifest(m Manifest) error {
	for _, id := range m.Macos.AppstoreApps {
		if !isDigits(id) {
			return fmt.Errorf("appstore app id %q must be numeric", id)
		}
	}
	for _, tool := range m.Go.Tools {
		if !strings.Contains(tool, "@") {
			return fmt.Errorf("go tool %q must be module@version", tool)
		}
	}
	seen := make(map[string]struct{}, len(m.Report.Checks))
	for i, check := range m.Report.Checks {
		if err := ValidateCheck(check); err != nil {
			return fmt.Errorf("check[%d] invalid: %w", i, err)
		}
		if _, ok := seen[check.Name]; ok {
			return fmt.Errorf("check[%d] duplicate name %q", i, check.Name)
		}
		seen[check.Name] = struct{}{}
	}
	return nil
}

func ValidateCheck(c CheckConfig) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(c.Command) == 0 || strings.TrimSpace(c.Command[0]) == "" {
		return fmt.Errorf("command is required")
	}
	return nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
