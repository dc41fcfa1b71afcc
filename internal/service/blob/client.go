// Package blob uploads chart images to Vercel Blob storage.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"ChartCast/internal/domain/models"
	"ChartCast/internal/domain/service"
	apphttp "ChartCast/pkg/http"
)

const (
	DefaultBaseURL  = "https://blob.vercel-storage.com"
	DefaultFilename = "chart.png"
	apiVersion      = "7"
)

var (
	ErrEmptyBody    = errors.New("blob: empty body")
	ErrMissingToken = errors.New("blob: read-write token not configured")
)

type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// Client implements service.BlobStore.
type Client struct {
	cfg  Config
	http *apphttp.Client
}

var _ service.BlobStore = (*Client)(nil)

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: apphttp.NewClient(apphttp.WithTimeout(cfg.Timeout)),
	}
}

// Put stores body publicly under filename.
func (c *Client) Put(ctx context.Context, filename, contentType string, body io.Reader) (*models.Blob, error) {
	if body == nil {
		return nil, ErrEmptyBody
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("blob: read body: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyBody
	}
	if c.cfg.Token == "" {
		return nil, ErrMissingToken
	}

	filename = CleanFilename(filename)
	headers := map[string]string{
		"Authorization":  "Bearer " + c.cfg.Token,
		"x-api-version":  apiVersion,
		"x-access":       "public",
		"Content-Type":   "application/octet-stream",
		"x-content-type": contentType,
	}
	if contentType == "" {
		delete(headers, "x-content-type")
	}

	var out models.Blob
	err = c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method:      apphttp.MethodPut,
		URL:         strings.TrimRight(c.cfg.BaseURL, "/") + "/",
		QueryParams: map[string][]string{"pathname": {filename}},
		Headers:     headers,
		Body:        data,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("blob: put %s: %w", filename, err)
	}
	return &out, nil
}

// CleanFilename strips directories and falls back to chart.png.
func CleanFilename(name string) string {
	if u, err := url.PathUnescape(name); err == nil {
		name = u
	}
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return DefaultFilename
	}
	return name
}
