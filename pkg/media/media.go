// Package media downloads session videos: direct byte-range transfer for mp4
// URLs with resume support, and an ffmpeg subprocess for HLS playlists.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Downloader fetches a video URL to a destination path. Partial direct
// downloads resume from a .part file on the next attempt.
type Downloader struct {
	client     *http.Client
	ffmpegPath string
}

// New creates a downloader using ffmpeg from PATH for HLS input.
func New() *Downloader {
	return NewWithFFmpeg("ffmpeg")
}

// NewWithFFmpeg creates a downloader with an explicit ffmpeg binary path.
func NewWithFFmpeg(ffmpegPath string) *Downloader {
	return &Downloader{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		ffmpegPath: ffmpegPath,
	}
}

// Download fetches url to dest. HLS playlists are remuxed through ffmpeg;
// everything else is a direct transfer.
func (d *Downloader) Download(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create destination dir: %w", err)
	}

	if strings.Contains(url, ".m3u8") {
		return d.downloadHLS(ctx, url, dest)
	}
	return d.downloadDirect(ctx, url, dest)
}

// downloadDirect transfers url to dest via a .part file, resuming with a Range
// request when a previous attempt left bytes behind.
func (d *Downloader) downloadDirect(ctx context.Context, url, dest string) error {
	part := dest + ".part"

	var offset int64
	if info, err := os.Stat(part); err == nil {
		offset = info.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch video: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		// Server honored the range; append below.
	case http.StatusOK:
		// Full body; any partial bytes are stale.
		offset = 0
	default:
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	out, err := os.OpenFile(part, flags, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open part file: %w", err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("failed to write video: %w", err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Rename(part, dest)
}

// downloadHLS remuxes an HLS playlist into an mp4 container without
// re-encoding.
func (d *Downloader) downloadHLS(ctx context.Context, url, dest string) error {
	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-y",
		"-loglevel", "error",
		"-i", url,
		"-c", "copy",
		"-bsf:a", "aac_adtstoasc",
		dest,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
