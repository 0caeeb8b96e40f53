package tasks

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Metadata is the contract for task identity and display data.
type Metadata struct {
	ID          string
	Name        string
	Description string
}

// ArgSpec declares one name=value argument a task accepts.
type ArgSpec struct {
	Name        string
	Description string
	Required    bool
	Default     string
}

// StepResult records one external command a task ran.
type StepResult struct {
	Command  []string
	ExitCode int32
	Stdout   string
	Err      string
}

// Result is what a task reports back to the CLI. Output is content
// meant for stdout as-is, such as a rendered report.
type Result struct {
	Task    string
	Status  string
	Summary string
	Output  string
	Steps   []StepResult
}

// Task is the execution boundary used by the dispatcher.
type Task interface {
	Metadata() Metadata
	Args() []ArgSpec
	Run(ctx context.Context, args Args) (Result, error)
}

// Args are the shallow name=value pairs passed to a task.
type Args map[string]string

func (a Args) String(name string) string {
	return strings.TrimSpace(a[name])
}

func (a Args) Bool(name string) bool {
	v, err := strconv.ParseBool(a.String(name))
	return err == nil && v
}

// List splits a comma separated value, dropping blanks.
func (a Args) List(name string) []string {
	raw := a.String(name)
	if raw == "" {
		return nil
	}
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Has reports whether name was set to a non-blank value.
func (a Args) Has(name string) bool {
	return a.String(name) != ""
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(path, "~"+string(os.PathSeparator)); ok {
		return filepath.Join(home, rest)
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return path
}
