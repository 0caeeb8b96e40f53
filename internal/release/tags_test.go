package release

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/devsum/internal/testutil/testlog"
)

type tagRunner struct {
	stdout string
	err    error
	calls  [][]string
}

func (r *tagRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.err != nil {
		return nil, []byte("fatal: repository not found"), 128, r.err
	}
	return []byte(r.stdout), nil, 0, nil
}

const terraformTags = `a1	refs/tags/v1.9.7
a2	refs/tags/v1.10.0-rc1
a3	refs/tags/v1.9.8
a4	refs/tags/v0.15.5
a5	refs/tags/nightly
`

func TestLatestTagPicksHighestStable(t *testing.T) {
	testlog.Start(t)
	runner := &tagRunner{stdout: terraformTags}
	got, err := LatestTag(context.Background(), runner, "https://github.com/hashicorp/terraform", "v")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got != "1.9.8" {
		t.Fatalf("expected 1.9.8, got %s", got)
	}
	want := [][]string{{"git", "ls-remote", "--tags", "--refs", "https://github.com/hashicorp/terraform"}}
	if !reflect.DeepEqual(runner.calls, want) {
		t.Fatalf("unexpected calls %v", runner.calls)
	}
}

func TestLatestTagGoPrefix(t *testing.T) {
	testlog.Start(t)
	runner := &tagRunner{stdout: "x\trefs/tags/go1.22.10\nx\trefs/tags/go1.23.4\nx\trefs/tags/go1.24rc1\nx\trefs/tags/weekly.2011-01-01\n"}
	got, err := LatestTag(context.Background(), runner, "https://go.googlesource.com/go", "go")
	if err != nil || got != "1.23.4" {
		t.Fatalf("expected 1.23.4, got %q err=%v", got, err)
	}
}

func TestLatestTagErrors(t *testing.T) {
	testlog.Start(t)
	if _, err := LatestTag(context.Background(), &tagRunner{stdout: "x\trefs/tags/nightly\n"}, "repo", "v"); !errors.Is(err, ErrNoTags) {
		t.Fatalf("expected ErrNoTags, got %v", err)
	}
	cause := errors.New("exit status 128")
	if _, err := LatestTag(context.Background(), &tagRunner{err: cause}, "repo", "v"); !errors.Is(err, cause) {
		t.Fatalf("expected git failure to propagate, got %v", err)
	}
}
