// Package binance reads klines from the Binance REST API and its websocket streams.
package binance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"ChartCast/internal/domain/models"
	drepo "ChartCast/internal/domain/repository"
	apphttp "ChartCast/pkg/http"
	"ChartCast/pkg/logger"
)

const (
	DefaultBaseURL   = "https://api.binance.com"
	DefaultUSBaseURL = "https://api.binance.us"
	DefaultLimit     = 200
	DefaultTimeout   = 3 * time.Second
	klinesPath       = "/api/v3/klines"
)

var (
	ErrNotArray    = errors.New("binance: response is not an array")
	ErrEmptyKlines = errors.New("binance: empty kline array")
)

// APIError is the {code,msg} object Binance returns for rejected requests.
type APIError struct {
	Code int64
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance: api error %d: %s", e.Code, e.Msg)
}

type endpoint struct {
	source  models.DataSource
	baseURL string
}

// Client tries the global host, then the US host, then the fallback source.
type Client struct {
	http      *apphttp.Client
	endpoints []endpoint
	fallback  drepo.KlineSource
	log       *logger.Logger
	metrics   drepo.Metrics
}

// Option configures Client.
type Option func(*Client)

// WithEndpoints replaces both REST hosts.
func WithEndpoints(global, us string) Option {
	return func(c *Client) {
		c.endpoints = []endpoint{
			{source: models.SourceBinance, baseURL: global},
			{source: models.SourceBinanceUS, baseURL: us},
		}
	}
}

// WithHTTPClient overrides the transport client.
func WithHTTPClient(h *apphttp.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a kline source. fallback serves when every host fails.
func NewClient(fallback drepo.KlineSource, log *logger.Logger, m drepo.Metrics, opts ...Option) *Client {
	c := &Client{
		http:     apphttp.NewClient(apphttp.WithTimeout(DefaultTimeout)),
		fallback: fallback,
		log:      log,
		metrics:  m,
	}
	WithEndpoints(DefaultBaseURL, DefaultUSBaseURL)(c)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchKlines implements repository.KlineSource.
func (c *Client) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]models.RawKline, models.DataSource, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	for i, ep := range c.endpoints {
		rows, err := c.fetch(ctx, ep.baseURL, symbol, interval, limit)
		if err == nil {
			return rows, ep.source, nil
		}

		next := models.SourceMock
		if i+1 < len(c.endpoints) {
			next = c.endpoints[i+1].source
		}
		c.log.Warn("kline source failed, falling back",
			logger.String("source", string(ep.source)),
			logger.String("next", string(next)),
			logger.String("symbol", symbol),
			logger.Error(err),
		)
		c.metrics.RecordSourceFallback(string(ep.source), string(next))

		if ctx.Err() != nil {
			break
		}
	}

	if c.fallback == nil {
		return nil, "", fmt.Errorf("binance: all sources failed for %s %s", symbol, interval)
	}
	c.log.Warn("all Binance APIs failed, serving mock data",
		logger.String("symbol", symbol),
		logger.String("interval", interval),
	)
	return c.fallback.FetchKlines(ctx, symbol, interval, limit)
}

func (c *Client) fetch(ctx context.Context, baseURL, symbol, interval string, limit int) ([]models.RawKline, error) {
	var body []byte
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodGet,
		URL:    baseURL + klinesPath,
		QueryParams: map[string][]string{
			"symbol":   {symbol},
			"interval": {interval},
			"limit":    {strconv.Itoa(limit)},
		},
	}, &body)
	if err != nil {
		return nil, err
	}
	return ParseKlines(body)
}

// ParseKlines decodes a /api/v3/klines payload. Each row keeps its positional
// values: numbers as float64 and numeric strings as strings.
func ParseKlines(body []byte) ([]models.RawKline, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrNotArray
	}

	res := gjson.ParseBytes(body)
	if !res.IsArray() {
		code, msg := res.Get("code"), res.Get("msg")
		if code.Exists() && msg.Exists() {
			return nil, &APIError{Code: code.Int(), Msg: msg.String()}
		}
		return nil, ErrNotArray
	}

	rows := res.Array()
	if len(rows) == 0 {
		return nil, ErrEmptyKlines
	}

	out := make([]models.RawKline, 0, len(rows))
	for _, row := range rows {
		fields := row.Array()
		k := make(models.RawKline, 0, len(fields))
		for _, f := range fields {
			k = append(k, value(f))
		}
		out = append(out, k)
	}
	return out, nil
}

func value(f gjson.Result) any {
	switch f.Type {
	case gjson.Number:
		return f.Float()
	case gjson.String:
		return f.Str
	case gjson.True, gjson.False:
		return f.Bool()
	default:
		return nil
	}
}
