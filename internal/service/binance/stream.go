package binance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"ChartCast/internal/domain/models"
	drepo "ChartCast/internal/domain/repository"
	"ChartCast/pkg/logger"
)

const DefaultStreamURL = "wss://stream.binance.com:9443"

var ErrNotConnected = errors.New("binance stream not connected")

// Stream implements a KlineStream backed by the Binance combined websocket.
type Stream struct {
	baseURL        string
	symbols        []string
	interval       string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected atomic.Bool
}

var _ drepo.KlineStream = (*Stream)(nil)

// NewStream creates a kline stream for symbols at one interval.
func NewStream(baseURL string, symbols []string, interval string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) *Stream {
	if baseURL == "" {
		baseURL = DefaultStreamURL
	}
	return &Stream{
		baseURL:        strings.TrimRight(baseURL, "/"),
		symbols:        symbols,
		interval:       interval,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

// URL returns the combined-stream address, e.g. .../stream?streams=btcusdt@kline_1h/ethusdt@kline_1h.
func (s *Stream) URL() string {
	names := make([]string, 0, len(s.symbols))
	for _, sym := range s.symbols {
		names = append(names, strings.ToLower(sym)+"@kline_"+s.interval)
	}
	return s.baseURL + "/stream?streams=" + strings.Join(names, "/")
}

// Connect establishes the WebSocket connection. Subscriptions travel in the URL.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.URL(), nil)
	if err != nil {
		return fmt.Errorf("binance stream connect: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.connected.Store(true)

	s.log.Info("binance stream connected",
		logger.Strings("symbols", s.symbols),
		logger.String("interval", s.interval),
	)
	return nil
}

type wsKline struct {
	StartTime int64  `json:"t"`
	CloseTime int64  `json:"T"`
	Symbol    string `json:"s"`
	Interval  string `json:"i"`
	Open      string `json:"o"`
	Close     string `json:"c"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Volume    string `json:"v"`
	Closed    bool   `json:"x"`
}

type wsEvent struct {
	Type   string  `json:"e"`
	Symbol string  `json:"s"`
	Kline  wsKline `json:"k"`
}

type wsEnvelope struct {
	Stream string  `json:"stream"`
	Data   wsEvent `json:"data"`
}

// DecodeFrame turns a combined-stream frame into a closed kline. Open bars and
// non-kline frames yield nil.
func DecodeFrame(b []byte) (*models.ClosedKline, error) {
	var env wsEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	if env.Data.Type != "kline" || !env.Data.Kline.Closed {
		return nil, nil
	}

	k := env.Data.Kline
	return &models.ClosedKline{
		Symbol:   k.Symbol,
		Interval: k.Interval,
		Raw: models.RawKline{
			float64(k.StartTime),
			k.Open,
			k.High,
			k.Low,
			k.Close,
			k.Volume,
			float64(k.CloseTime),
		},
	}, nil
}

// Read streams closed klines and errors. Pings run only while this reader is
// alive; both channels close after the ping loop has exited.
func (s *Stream) Read(ctx context.Context) (<-chan *models.ClosedKline, <-chan error) {
	klines := make(chan *models.ClosedKline, 256)
	errs := make(chan error, 1)

	pingCtx, stopPing := context.WithCancel(ctx)
	pingDone := make(chan struct{})
	go func() {
		defer close(pingDone)
		s.pingLoop(pingCtx)
	}()

	go func() {
		defer close(klines)
		defer close(errs)
		defer func() {
			stopPing()
			<-pingDone
		}()

		for {
			if ctx.Err() != nil {
				return
			}

			conn := s.current()
			if conn == nil {
				errs <- ErrNotConnected
				return
			}

			_, b, err := conn.ReadMessage()
			if err != nil {
				s.connected.Store(false)
				errs <- fmt.Errorf("binance stream read: %w", err)
				return
			}

			k, err := DecodeFrame(b)
			if err != nil {
				s.log.Debug("skipping undecodable frame", logger.Error(err))
				continue
			}
			if k == nil {
				continue
			}

			select {
			case klines <- k:
			case <-ctx.Done():
				return
			default:
				s.log.Warn("dropping closed kline on backpressure",
					logger.String("symbol", k.Symbol),
				)
			}
		}
	}()

	return klines, errs
}

func (s *Stream) pingLoop(ctx context.Context) {
	if s.pingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.conn != nil {
				_ = s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
			s.mu.Unlock()
		}
	}
}

func (s *Stream) current() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// Reconnect closes and reconnects after the configured delay.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()

	select {
	case <-time.After(s.reconnectDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.Connect(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.connected.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool { return s.connected.Load() }
