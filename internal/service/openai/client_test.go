package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChartCast/internal/domain/models"
)

var req = models.CaptionRequest{
	Pair:      "BTCUSDT",
	Interval:  "4h",
	LastPrice: 64123.5,
	Signals: []models.Signal{
		{Type: models.Bullish, Name: "UPTREND", Description: "Price above EMA 99"},
	},
}

func TestCaptionMissingKey(t *testing.T) {
	_, err := New(Config{}).Caption(context.Background(), req)
	assert.ErrorIs(t, err, ErrCaptionUnavailable)
}

func TestCaption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		var in chatRequest
		require.NoError(t, json.Unmarshal(body, &in))
		assert.Equal(t, DefaultModel, in.Model)
		require.Len(t, in.Messages, 1)
		assert.Contains(t, in.Messages[0].Content, "BTCUSDT on the 4h timeframe")

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Bulls hold the line.\n"}}]}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	text, err := c.Caption(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Bulls hold the line.", text)
}

func TestCaptionUpstreamFailure(t *testing.T) {
	tests := map[string]func(w http.ResponseWriter){
		"status":     func(w http.ResponseWriter) { w.WriteHeader(http.StatusTooManyRequests) },
		"no choices": func(w http.ResponseWriter) { _, _ = w.Write([]byte(`{"choices":[]}`)) },
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { h(w) }))
			defer srv.Close()

			_, err := New(Config{APIKey: "k", BaseURL: srv.URL}).Caption(context.Background(), req)
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrCaptionUnavailable)
		})
	}
}

func TestPrompt(t *testing.T) {
	p, err := Prompt(req)
	require.NoError(t, err)
	assert.Contains(t, p, "- Current Price: 64123.5\n")
	assert.Contains(t, p, `"name":"UPTREND"`)
	assert.Contains(t, p, "Max 20 words")

	p, err = Prompt(models.CaptionRequest{Pair: "ETHUSDT", Interval: "1d"})
	require.NoError(t, err)
	assert.Contains(t, p, "- Technical Signals: []\n")
	assert.Contains(t, p, "- Current Price: 0\n")
}
