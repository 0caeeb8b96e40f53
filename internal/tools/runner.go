package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/danmuck/devsum/internal/observability"
)

// CommandRunner abstracts shell command execution for task handlers.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int32, error)
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

// tools command-runner implementation backed by os/exec.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	label := filepath.Base(name)
	err := cmd.Run()
	if err == nil {
		observability.RecordCommand(label, 0)
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		observability.RecordCommand(label, int32(exitErr.ExitCode()))
		return stdout.Bytes(), stderr.Bytes(), int32(exitErr.ExitCode()), err
	}

	exitCode := int32(1)
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		exitCode = 127
	}
	observability.RecordCommand(label, exitCode)
	return stdout.Bytes(), stderr.Bytes(), exitCode, err
}

// CommandError describes one failed external command.
type CommandError struct {
	Name     string
	Args     []string
	ExitCode int32
	Stdout   string
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf(
		"command failed cmd=%s args=%q exit=%d stdout=%q stderr=%q: %v",
		e.Name,
		strings.Join(e.Args, " "),
		e.ExitCode,
		e.Stdout,
		e.Stderr,
		e.Err,
	)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Exec runs one command and folds a failure into a *CommandError.
// stdout is returned trimmed in both cases.
func Exec(ctx context.Context, runner CommandRunner, name string, args ...string) (string, error) {
	stdout, stderr, exitCode, err := runner.Run(ctx, name, args...)
	out := strings.TrimSpace(string(stdout))
	if err == nil {
		return out, nil
	}
	return out, &CommandError{
		Name:     name,
		Args:     append([]string(nil), args...),
		ExitCode: exitCode,
		Stdout:   out,
		Stderr:   strings.TrimSpace(string(stderr)),
		Err:      err,
	}
}

// Available reports whether name resolves on PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
