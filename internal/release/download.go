package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrDownloadFailed = errors.New("release: download failed")

const maxErrorBody = 512

// Downloader fetches URLs into temp files.
type Downloader struct {
	Client  *http.Client
	TempDir string
}

func NewDownloader() *Downloader {
	return &Downloader{Client: &http.Client{Timeout: 10 * time.Minute}}
}

// TempFile is a downloaded file removed on Close.
type TempFile struct {
	Path string
	Size int64
}

func (f *TempFile) Close() error {
	if f == nil || f.Path == "" {
		return nil
	}
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Fetch streams url into a new temp file. Callers must Close the result.
func (d *Downloader) Fetch(ctx context.Context, url string) (*TempFile, error) {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: url=%q: %v", ErrDownloadFailed, url, err)
	}
	log.Debug().Str("url", url).Msg("release.download start")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: url=%q: %v", ErrDownloadFailed, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: url=%q status=%d body=%q", ErrDownloadFailed, url, resp.StatusCode, string(body))
	}

	f, err := os.CreateTemp(d.TempDir, "devsum-download-*")
	if err != nil {
		return nil, err
	}
	tmp := &TempFile{Path: f.Name()}

	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: url=%q: %v", ErrDownloadFailed, url, errors.Join(copyErr, closeErr))
	}
	tmp.Size = n
	log.Debug().Str("url", url).Int64("bytes", n).Msg("release.download done")
	return tmp, nil
}
