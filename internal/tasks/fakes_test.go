package tasks

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/devsum/internal/release"
	"github.com/danmuck/devsum/internal/remote"
)

type fakeRunResult struct {
	stdout   string
	stderr   string
	exitCode int32
	err      error
}

// fakeRunner records commands and answers by the joined command line
// prefix; unmatched commands succeed with empty output.
type fakeRunner struct {
	commands [][]string
	results  map[string]fakeRunResult
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{results: map[string]fakeRunResult{}}
}

func (r *fakeRunner) on(prefix string, res fakeRunResult) *fakeRunner {
	r.results[prefix] = res
	return r
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	cmd := append([]string{name}, args...)
	r.commands = append(r.commands, cmd)
	line := strings.Join(cmd, " ")
	best, found := "", false
	for prefix := range r.results {
		if strings.HasPrefix(line, prefix) && (!found || len(prefix) > len(best)) {
			best, found = prefix, true
		}
	}
	if !found {
		return nil, nil, 0, nil
	}
	res := r.results[best]
	return []byte(res.stdout), []byte(res.stderr), res.exitCode, res.err
}

func (r *fakeRunner) lines() []string {
	out := make([]string, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, strings.Join(cmd, " "))
	}
	return out
}

func failWith(code int32) fakeRunResult {
	return fakeRunResult{stderr: "boom", exitCode: code, err: errors.New("exit status")}
}

// fakeFetcher serves canned bodies by URL.
type fakeFetcher struct {
	t      *testing.T
	bodies map[string][]byte
	urls   []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*release.TempFile, error) {
	f.urls = append(f.urls, url)
	body, ok := f.bodies[url]
	if !ok {
		return nil, release.ErrDownloadFailed
	}
	path := filepath.Join(f.t.TempDir(), "download")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return nil, err
	}
	return &release.TempFile{Path: path, Size: int64(len(body))}, nil
}

type fakeSession struct {
	*fakeRunner
	closed bool
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func testEnv(t *testing.T, runner *fakeRunner, fetcher *fakeFetcher) *Env {
	t.Helper()
	return &Env{
		Runner:   runner,
		Fetcher:  fetcher,
		HomeDir:  t.TempDir(),
		GOOS:     "darwin",
		Platform: func() (release.Platform, error) { return release.Platform{OS: "darwin", Arch: "amd64", Machine: "x86_64"}, nil },
		LookPath: func(string) bool { return true },
		Dial: func(context.Context, remote.SSHRunner) (Session, error) {
			return nil, errors.New("no dialer in test")
		},
	}
}

func zipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		w.Write([]byte(body))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func tarGzBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, body := range entries {
		hdr := &tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0o755, Size: int64(len(body))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header: %v", err)
		}
		tw.Write([]byte(body))
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}
