package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/danmuck/devsum/internal/testutil/testlog"
)

func newDispatchFixture(t *testing.T, task *fakeTask) *Dispatcher {
	t.Helper()
	r := NewRegistry()
	if err := r.Register(task); err != nil {
		t.Fatalf("register: %v", err)
	}
	return NewDispatcher(r)
}

func TestDispatchAppliesDefaultsAndStatus(t *testing.T) {
	testlog.Start(t)
	task := &fakeTask{
		meta: Metadata{ID: "install-go", Name: "Go", Description: "go"},
		args: []ArgSpec{
			{Name: "version", Required: true},
			{Name: "install_dir", Default: "~/.local"},
		},
	}
	d := newDispatchFixture(t, task)

	res, err := d.Run(context.Background(), "install-go", Args{"version": " 1.23.4 "})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Task != "install-go" || res.Status != StatusOK {
		t.Fatalf("unexpected result %+v", res)
	}
	if task.got["version"] != "1.23.4" || task.got["install_dir"] != "~/.local" {
		t.Fatalf("unexpected args %v", task.got)
	}
}

func TestDispatchErrors(t *testing.T) {
	testlog.Start(t)
	task := &fakeTask{
		meta: Metadata{ID: "report", Name: "Report", Description: "report"},
		args: []ArgSpec{{Name: "host", Required: true}},
	}
	d := newDispatchFixture(t, task)

	if _, err := d.Run(context.Background(), "missing", nil); !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("expected ErrUnknownTask, got %v", err)
	}
	if _, err := d.Run(context.Background(), "report", Args{}); !errors.Is(err, ErrMissingArg) {
		t.Fatalf("expected ErrMissingArg, got %v", err)
	}
	if _, err := d.Run(context.Background(), "report", Args{"host": "a", "hots": "b"}); !errors.Is(err, ErrUnknownArg) {
		t.Fatalf("expected ErrUnknownArg, got %v", err)
	}
}

func TestDispatchWrapsTaskFailure(t *testing.T) {
	testlog.Start(t)
	cause := errors.New("brew exploded")
	task := &fakeTask{
		meta: Metadata{ID: "setup-macos", Name: "macOS", Description: "mac"},
		run: func(context.Context, Args) (Result, error) {
			return Result{Summary: "partial"}, cause
		},
	}
	d := newDispatchFixture(t, task)

	res, err := d.Run(context.Background(), "setup-macos", nil)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause, got %v", err)
	}
	if err.Error() != "task=setup-macos: brew exploded" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if res.Status != StatusFailed || res.Summary != "partial" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDispatchKeepsSkippedStatus(t *testing.T) {
	testlog.Start(t)
	task := &fakeTask{
		meta: Metadata{ID: "install-agent", Name: "Agent", Description: "agent"},
		run: func(context.Context, Args) (Result, error) {
			return Result{Status: StatusSkipped}, nil
		},
	}
	res, err := newDispatchFixture(t, task).Run(context.Background(), "install-agent", nil)
	if err != nil || res.Status != StatusSkipped {
		t.Fatalf("expected skipped, got %+v err=%v", res, err)
	}
}
