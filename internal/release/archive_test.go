package release

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/devsum/internal/testutil/testlog"
)

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip entry: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("file close: %v", err)
	}
	return path
}

type tarEntry struct {
	name     string
	body     string
	typeflag byte
	mode     int64
}

func writeTarGz(t *testing.T, entries []tarEntry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.tar.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create tar: %v", err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Typeflag: e.typeflag, Mode: e.mode, Size: int64(len(e.body))}
		if e.typeflag == tar.TypeSymlink {
			hdr.Linkname = "/etc/passwd"
			hdr.Size = 0
		}
		if e.typeflag == tar.TypeDir {
			hdr.Size = 0
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header: %v", err)
		}
		if hdr.Size > 0 {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatalf("tar write: %v", err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("file close: %v", err)
	}
	return path
}

func TestExtractFileSingleMember(t *testing.T) {
	testlog.Start(t)
	zipPath := writeZip(t, map[string]string{
		"terraform":   "#!/bin/sh\necho terraform\n",
		"LICENSE.txt": "license",
	})
	dest := t.TempDir()

	got, err := ExtractFile(zipPath, "terraform", dest, 0o700)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != filepath.Join(dest, "terraform") {
		t.Fatalf("unexpected path %s", got)
	}
	info, err := os.Stat(got)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Fatalf("expected 0700, got %v", info.Mode().Perm())
	}
	if _, err := os.Stat(filepath.Join(dest, "LICENSE.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected only the requested member extracted")
	}
}

func TestExtractFileMissingMember(t *testing.T) {
	testlog.Start(t)
	zipPath := writeZip(t, map[string]string{"README": "x"})
	if _, err := ExtractFile(zipPath, "terraform", t.TempDir(), 0o700); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestExtractFileBadZip(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "broken.zip")
	if err := os.WriteFile(path, []byte("<html>not found</html>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ExtractFile(path, "terraform", t.TempDir(), 0o700); !errors.Is(err, ErrBadArchive) {
		t.Fatalf("expected ErrBadArchive, got %v", err)
	}
}

func TestExtractFileRejectsTraversalMember(t *testing.T) {
	testlog.Start(t)
	zipPath := writeZip(t, map[string]string{"../evil": "x"})
	if _, err := ExtractFile(zipPath, "../evil", t.TempDir(), 0o700); !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("expected ErrUnsafePath, got %v", err)
	}
}

func TestExtractTarGzTree(t *testing.T) {
	testlog.Start(t)
	archive := writeTarGz(t, []tarEntry{
		{name: "go/", typeflag: tar.TypeDir, mode: 0o755},
		{name: "go/bin/go", body: "binary", typeflag: tar.TypeReg, mode: 0o755},
		{name: "go/VERSION", body: "go1.23.4", typeflag: tar.TypeReg, mode: 0o644},
	})
	dest := t.TempDir()

	n, err := ExtractTarGz(archive, dest)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 files, got %d", n)
	}
	info, err := os.Stat(filepath.Join(dest, "go", "bin", "go"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Fatalf("expected executable bit kept, got %v", info.Mode().Perm())
	}
	data, _ := os.ReadFile(filepath.Join(dest, "go", "VERSION"))
	if string(data) != "go1.23.4" {
		t.Fatalf("unexpected VERSION %q", data)
	}
}

func TestExtractTarGzRejectsUnsafeEntries(t *testing.T) {
	testlog.Start(t)
	traversal := writeTarGz(t, []tarEntry{{name: "../outside", body: "x", typeflag: tar.TypeReg, mode: 0o644}})
	if _, err := ExtractTarGz(traversal, t.TempDir()); !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("expected ErrUnsafePath for traversal, got %v", err)
	}

	link := writeTarGz(t, []tarEntry{{name: "go/link", typeflag: tar.TypeSymlink, mode: 0o777}})
	if _, err := ExtractTarGz(link, t.TempDir()); !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("expected ErrUnsafePath for symlink, got %v", err)
	}
}

func TestExtractTarGzBadArchive(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "broken.tar.gz")
	if err := os.WriteFile(path, []byte("nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ExtractTarGz(path, t.TempDir()); !errors.Is(err, ErrBadArchive) {
		t.Fatalf("expected ErrBadArchive, got %v", err)
	}
}
