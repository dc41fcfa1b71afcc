// Package neynar publishes casts through the Neynar Farcaster API.
package neynar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ChartCast/internal/domain/models"
	"ChartCast/internal/domain/service"
	apphttp "ChartCast/pkg/http"
)

const (
	DefaultBaseURL = "https://api.neynar.com"
	castPath       = "/v2/farcaster/cast"

	// EnvConfiguredSigner is the placeholder clients send to request the server signer.
	EnvConfiguredSigner = "env-configured"
)

var (
	ErrSignerRequired = errors.New("neynar: signer uuid required (client or server env)")
	ErrMissingHash    = errors.New("neynar: response carried no cast hash")
)

type Config struct {
	APIKey     string
	SignerUUID string
	BaseURL    string
	Timeout    time.Duration
}

// Client implements service.CastPublisher.
type Client struct {
	cfg  Config
	http *apphttp.Client
}

var _ service.CastPublisher = (*Client)(nil)

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: apphttp.NewClient(apphttp.WithTimeout(cfg.Timeout)),
	}
}

// ResolveSigner prefers the client's signer unless it is empty or the
// env-configured placeholder, in which case the server signer applies.
func ResolveSigner(client, server string) (string, error) {
	if client != "" && client != EnvConfiguredSigner {
		return client, nil
	}
	if server == "" {
		return "", ErrSignerRequired
	}
	return server, nil
}

type embed struct {
	URL string `json:"url"`
}

type castBody struct {
	SignerUUID string  `json:"signer_uuid"`
	Text       string  `json:"text"`
	Embeds     []embed `json:"embeds,omitempty"`
}

type castResponse struct {
	Success bool `json:"success"`
	Cast    struct {
		Hash string `json:"hash"`
	} `json:"cast"`
	Hash string `json:"hash"`
}

// Publish posts the cast and returns its hash.
func (c *Client) Publish(ctx context.Context, req models.CastRequest) (string, error) {
	signer, err := ResolveSigner(req.SignerUUID, c.cfg.SignerUUID)
	if err != nil {
		return "", err
	}

	body := castBody{SignerUUID: signer, Text: req.Text}
	for _, e := range req.Embeds {
		body.Embeds = append(body.Embeds, embed{URL: e.URL})
	}

	var resp castResponse
	err = c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodPost,
		URL:    strings.TrimRight(c.cfg.BaseURL, "/") + castPath,
		Headers: map[string]string{
			"x-api-key": c.cfg.APIKey,
			"accept":    "application/json",
		},
		Body: body,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("neynar: publish cast: %w", err)
	}

	hash := resp.Cast.Hash
	if hash == "" {
		hash = resp.Hash
	}
	if hash == "" {
		return "", ErrMissingHash
	}
	return hash, nil
}
