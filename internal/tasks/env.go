package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/danmuck/devsum/internal/config"
	"github.com/danmuck/devsum/internal/release"
	"github.com/danmuck/devsum/internal/remote"
	"github.com/danmuck/devsum/internal/tools"
	"github.com/rs/zerolog/log"
)

var (
	ErrToolMissing   = errors.New("required tool not installed")
	ErrUnsupportedOS = errors.New("unsupported operating system")
	ErrStepsFailed   = errors.New("one or more commands failed")
	ErrInvalidArg    = errors.New("invalid argument")
	ErrNotValid      = errors.New("not valid")
	ErrChecksFailed  = errors.New("every diagnostic check failed")
	ErrAccountFailed = errors.New("account creation failed")
)

// Fetcher downloads a URL into a temp file.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*release.TempFile, error)
}

// Session is an open remote connection.
type Session interface {
	tools.CommandRunner
	Close() error
}

// Env carries the host dependencies every built-in task uses.
type Env struct {
	Runner   tools.CommandRunner
	Fetcher  Fetcher
	HomeDir  string
	GOOS     string
	Manifest config.Manifest
	Platform func() (release.Platform, error)
	LookPath func(name string) bool
	Dial     func(ctx context.Context, r remote.SSHRunner) (Session, error)
}

// NewEnv wires the local host: os/exec runner, HTTP downloader, SSH dialer.
func NewEnv(manifest config.Manifest) (*Env, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home dir: %w", err)
	}
	return &Env{
		Runner:   tools.ExecRunner{},
		Fetcher:  release.NewDownloader(),
		HomeDir:  home,
		GOOS:     runtime.GOOS,
		Manifest: manifest,
		Platform: release.Detect,
		LookPath: tools.Available,
		Dial: func(ctx context.Context, r remote.SSHRunner) (Session, error) {
			conn, err := r.Dial(ctx)
			if err != nil {
				return nil, err
			}
			return conn, nil
		},
	}, nil
}

// sequence runs commands in order and keeps a step log. ops counts
// every attempted operation, including ones that are not commands.
type sequence struct {
	ctx      context.Context
	runner   tools.CommandRunner
	steps    []StepResult
	ops      int
	failures []error
}

func newSequence(ctx context.Context, runner tools.CommandRunner) *sequence {
	return &sequence{ctx: ctx, runner: runner}
}

// run executes one command and returns its trimmed stdout.
func (s *sequence) run(name string, args ...string) (string, error) {
	out, err := tools.Exec(s.ctx, s.runner, name, args...)
	step := StepResult{Command: append([]string{name}, args...), Stdout: out}
	if err != nil {
		var cmdErr *tools.CommandError
		if errors.As(err, &cmdErr) {
			step.ExitCode = cmdErr.ExitCode
		}
		step.Err = err.Error()
	}
	s.steps = append(s.steps, step)
	s.ops++
	return out, err
}

// try runs a command, records a failure and carries on.
func (s *sequence) try(name string, args ...string) bool {
	if _, err := s.run(name, args...); err != nil {
		s.record(err)
		return false
	}
	return true
}

// fail records a failed operation that ran no command, such as a download.
func (s *sequence) fail(err error) {
	s.ops++
	s.record(err)
}

// record adds err to the failures of an operation already counted.
func (s *sequence) record(err error) {
	log.Warn().Err(err).Msg("step failed, continuing")
	s.failures = append(s.failures, err)
}

func (s *sequence) err() error {
	if len(s.failures) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d: %w", ErrStepsFailed, len(s.failures), s.ops, errors.Join(s.failures...))
}
