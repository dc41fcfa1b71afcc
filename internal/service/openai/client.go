// Package openai generates one-line chart captions with the chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"ChartCast/internal/domain/models"
	"ChartCast/internal/domain/service"
	apphttp "ChartCast/pkg/http"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

var (
	// ErrCaptionUnavailable means no API key is configured.
	ErrCaptionUnavailable = errors.New("openai: api key not configured")
	ErrNoChoices          = errors.New("openai: completion returned no choices")
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client implements service.Captioner.
type Client struct {
	cfg  Config
	http *apphttp.Client
}

var _ service.Captioner = (*Client)(nil)

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: apphttp.NewClient(apphttp.WithTimeout(cfg.Timeout)),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Caption asks the model for a single sentence about the setup.
func (c *Client) Caption(ctx context.Context, req models.CaptionRequest) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrCaptionUnavailable
	}

	prompt, err := Prompt(req)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	err = c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodPost,
		URL:    strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions",
		Headers: map[string]string{
			"Authorization": "Bearer " + c.cfg.APIKey,
		},
		Body: chatRequest{
			Model:    c.cfg.Model,
			Messages: []chatMessage{{Role: "user", Content: prompt}},
		},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Prompt renders the analyst prompt for req.
func Prompt(req models.CaptionRequest) (string, error) {
	signals := req.Signals
	if signals == nil {
		signals = []models.Signal{}
	}
	js, err := json.Marshal(signals)
	if err != nil {
		return "", fmt.Errorf("openai: encode signals: %w", err)
	}

	var b strings.Builder
	b.WriteString("Act as a professional crypto trading analyst.\n")
	fmt.Fprintf(&b, "Analyze the following data for %s on the %s timeframe:\n", req.Pair, req.Interval)
	fmt.Fprintf(&b, "- Current Price: %s\n", decimal.NewFromFloat(req.LastPrice).String())
	fmt.Fprintf(&b, "- Technical Signals: %s\n\n", js)
	b.WriteString("Write a single, concise, professional sentence summarizing the outlook.\n")
	b.WriteString("Be witty but professional. Max 20 words. No emojis.")
	return b.String(), nil
}
