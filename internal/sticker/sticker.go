// Package sticker resolves a mood keyword to a reaction sticker image and
// stages it as a temp file for sending as an attachment.
package sticker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhoulinyu/imbot/internal/logging"
)

// Fetcher resolves sticker URLs against the bqzhizuo sticker API and
// downloads them to the system temp directory.
type Fetcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *logging.Logger
}

func NewFetcher(baseURL, apiKey string, log *logging.Logger) *Fetcher {
	return &Fetcher{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.Sub("sticker"),
	}
}

type resolveResponse struct {
	Code int `json:"code"`
	Data *struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Resolve maps a keyword to a sticker image URL. An empty keyword or any
// upstream failure yields an error; callers treat stickers as best-effort.
func (f *Fetcher) Resolve(ctx context.Context, keyword string) (string, error) {
	if strings.TrimSpace(keyword) == "" {
		return "", fmt.Errorf("empty sticker keyword")
	}

	endpoint := fmt.Sprintf("%s?key=%s&msg=%s", f.baseURL,
		url.QueryEscape(f.apiKey), url.QueryEscape(keyword))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating sticker request: %w", err)
	}

	f.log.Debug().Str("keyword", keyword).Msg("resolving sticker")
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sticker request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading sticker response: %w", err)
	}

	var r resolveResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", fmt.Errorf("parsing sticker response: %w", err)
	}
	if r.Code != 200 || r.Data == nil || r.Data.URL == "" {
		return "", fmt.Errorf("sticker api returned code %d", r.Code)
	}
	return r.Data.URL, nil
}

// Download fetches the image into the temp directory and returns its path.
// The caller owns the file and must remove it when done.
func (f *Fetcher) Download(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating download request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading sticker: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sticker download returned %d", resp.StatusCode)
	}

	ext := extensionFor(imageURL)
	dest := filepath.Join(os.TempDir(), uuid.NewString()+ext)
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating temp sticker file: %w", err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("writing sticker file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("closing sticker file: %w", err)
	}

	f.log.Debug().Str("path", dest).Msg("sticker downloaded")
	return dest, nil
}

func extensionFor(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return ".jpg"
	}
	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	return ".jpg"
}
