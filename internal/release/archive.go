package release

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrBadArchive     = errors.New("release: bad archive")
	ErrMemberNotFound = errors.New("release: archive member not found")
	ErrUnsafePath     = errors.New("release: unsafe archive path")
)

// ExtractFile writes one zip member to destDir/member with perm and
// returns the written path.
func ExtractFile(zipPath, member, destDir string, perm os.FileMode) (string, error) {
	target, err := safeJoin(destDir, member)
	if err != nil {
		return "", err
	}

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrBadArchive, zipPath, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if path.Clean(f.Name) != path.Clean(member) {
			continue
		}
		if f.FileInfo().IsDir() {
			return "", fmt.Errorf("%w: %s is a directory", ErrMemberNotFound, member)
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrBadArchive, member, err)
		}
		defer rc.Close()
		if err := writeFile(target, rc, perm); err != nil {
			return "", err
		}
		return target, nil
	}
	return "", fmt.Errorf("%w: %s in %s", ErrMemberNotFound, member, zipPath)
}

// ExtractTarGz unpacks a gzip tarball under destDir. Directories and
// regular files are created; links and device entries are rejected.
func ExtractTarGz(archivePath, destDir string) (int, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrBadArchive, archivePath, err)
	}
	defer gz.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, err
	}

	tr := tar.NewReader(gz)
	files := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return files, fmt.Errorf("%w: %s: %v", ErrBadArchive, archivePath, err)
		}

		target, err := safeJoin(destDir, hdr.Name)
		if err != nil {
			return files, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return files, err
			}
			files++
		case tar.TypeXGlobalHeader:
		default:
			return files, fmt.Errorf("%w: unsupported entry type %q for %s", ErrUnsafePath, hdr.Typeflag, hdr.Name)
		}
	}
}

func safeJoin(root, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return filepath.Join(root, clean), nil
}

func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("%w: write %s: %v", ErrBadArchive, target, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	// OpenFile only applies perm on create and through the umask.
	return os.Chmod(target, perm)
}
