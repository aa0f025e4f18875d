// Package source supplies the import pipeline with raw spreadsheet bytes,
// whether they arrive as a direct upload, a URL to fetch, or a staged S3
// object. Every source enforces the size cap before handing the buffer over.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/rs/zerolog/log"
)

// Source yields one spreadsheet buffer plus the file name it came with.
type Source interface {
	Open(ctx context.Context) (data []byte, name string, err error)
}

// Buffer is a source over bytes already in memory (direct uploads).
type Buffer struct {
	data []byte
	name string
}

func NewBuffer(data []byte, name string) *Buffer {
	return &Buffer{data: data, name: name}
}

// Open implements Source.
func (b *Buffer) Open(_ context.Context) ([]byte, string, error) {
	return b.data, b.name, nil
}

// URL fetches the spreadsheet over HTTP. Fetch failures are transport errors
// and fail the whole job.
type URL struct {
	url      string
	client   *http.Client
	maxBytes int64
}

func NewURL(rawURL string, timeout time.Duration, maxBytes int64) *URL {
	return &URL{
		url:      rawURL,
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Open implements Source.
func (u *URL) Open(ctx context.Context) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := u.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("url", u.url).Msg("Failed to download import file")
		return nil, "", fmt.Errorf("download %s: %w", u.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("download %s: unexpected status %d", u.url, resp.StatusCode)
	}

	data, err := readCapped(resp.Body, u.maxBytes)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", u.url, err)
	}

	log.Debug().
		Str("url", u.url).
		Int("size", len(data)).
		Dur("duration", time.Since(start)).
		Msg("Downloaded import file")

	return data, fileNameFromURL(u.url), nil
}

func fileNameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// readCapped reads at most maxBytes and fails when the payload exceeds it,
// bounding work on adversarial input. maxBytes <= 0 means no cap.
func readCapped(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("file exceeds the %d byte limit", maxBytes)
	}
	return data, nil
}
