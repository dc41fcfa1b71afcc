package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChartCast/pkg/logger"
)

const (
	openFrame   = `{"stream":"btcusdt@kline_1h","data":{"e":"kline","E":1,"s":"BTCUSDT","k":{"t":1700000000000,"T":1700003599999,"s":"BTCUSDT","i":"1h","o":"100","c":"101","h":"102","l":"99","v":"5","x":false}}}`
	closedFrame = `{"stream":"btcusdt@kline_1h","data":{"e":"kline","E":2,"s":"BTCUSDT","k":{"t":1700000000000,"T":1700003599999,"s":"BTCUSDT","i":"1h","o":"100","c":"104","h":"105","l":"98","v":"7","x":true}}}`
)

func TestDecodeFrame(t *testing.T) {
	k, err := DecodeFrame([]byte(openFrame))
	require.NoError(t, err)
	assert.Nil(t, k)

	k, err = DecodeFrame([]byte(closedFrame))
	require.NoError(t, err)
	require.NotNil(t, k)
	assert.Equal(t, "BTCUSDT", k.Symbol)
	assert.Equal(t, "1h", k.Interval)
	assert.Equal(t, float64(1700000000000), k.Raw[0])
	assert.Equal(t, "104", k.Raw[4])
	assert.Len(t, k.Raw, 7)

	_, err = DecodeFrame([]byte(`not json`))
	assert.Error(t, err)
}

func TestStreamURL(t *testing.T) {
	s := NewStream("wss://example/", []string{"BTCUSDT", "ETHUSDT"}, "4h", time.Second, 0, logger.Nop())
	assert.Equal(t, "wss://example/stream?streams=btcusdt@kline_4h/ethusdt@kline_4h", s.URL())
}

func TestStreamEmitsOnlyClosedKlines(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stream", r.URL.Path)
		assert.Equal(t, "btcusdt@kline_1h", r.URL.Query().Get("streams"))

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range []string{openFrame, `{"result":null,"id":1}`, closedFrame} {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(f))
		}
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := NewStream(wsURL, []string{"BTCUSDT"}, "1h", 10*time.Millisecond, 0, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Connect(ctx))
	assert.True(t, s.IsConnected())

	klines, errs := s.Read(ctx)

	select {
	case k := <-klines:
		require.NotNil(t, k)
		assert.Equal(t, "104", k.Raw[4])
	case <-ctx.Done():
		t.Fatal("no closed kline received")
	}

	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-ctx.Done():
		t.Fatal("expected read error after server closed")
	}
	assert.False(t, s.IsConnected())
	require.NoError(t, s.Close())
}

func TestReadWithoutConnect(t *testing.T) {
	s := NewStream("", []string{"BTCUSDT"}, "1h", 0, 0, logger.Nop())
	_, errs := s.Read(context.Background())
	assert.ErrorIs(t, <-errs, ErrNotConnected)
}

func TestReadStopsPingingWhenConnectionDrops(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
		_ = conn.Close()
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := NewStream(wsURL, []string{"BTCUSDT"}, "1h", 0, 5*time.Millisecond, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cycle := func() {
		require.NoError(t, s.Connect(ctx))
		klines, errs := s.Read(ctx)
		for range klines {
		}
		assert.Error(t, <-errs)
		require.NoError(t, s.Close())
	}

	cycle()
	before := runtime.NumGoroutine()
	for i := 0; i < 10; i++ {
		cycle()
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+2
	}, time.Second, 20*time.Millisecond)
}
