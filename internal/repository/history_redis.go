package repository

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"ChartCast/internal/domain/models"
	domrepo "ChartCast/internal/domain/repository"
	applogger "ChartCast/pkg/logger"
)

const DefaultHistoryKey = "chartcast:history"

// RedisHistory stores the cast log as a Redis list, newest at the head.
type RedisHistory struct {
	rdb   redis.Cmdable
	key   string
	limit int
	l     *applogger.Logger
}

var _ domrepo.HistoryStore = (*RedisHistory)(nil)

func NewRedisHistory(rdb redis.Cmdable, key string, limit int, l *applogger.Logger) *RedisHistory {
	if key == "" {
		key = DefaultHistoryKey
	}
	if limit <= 0 {
		limit = models.HistoryLimit
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &RedisHistory{rdb: rdb, key: key, limit: limit, l: l}
}

// Append pushes and trims in one transaction so the list never exceeds the cap.
func (h *RedisHistory) Append(ctx context.Context, item models.CastHistoryItem) error {
	b, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode history item: %w", err)
	}

	_, err = h.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, h.key, b)
		p.LTrim(ctx, h.key, 0, int64(h.limit-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// List skips entries that fail to decode rather than failing the whole read.
func (h *RedisHistory) List(ctx context.Context) ([]models.CastHistoryItem, error) {
	raw, err := h.rdb.LRange(ctx, h.key, 0, int64(h.limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	out := make([]models.CastHistoryItem, 0, len(raw))
	for _, s := range raw {
		var item models.CastHistoryItem
		if err := json.Unmarshal([]byte(s), &item); err != nil {
			h.l.Warn("skipping malformed history entry",
				applogger.String("key", h.key),
				applogger.Error(err),
			)
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (h *RedisHistory) Clear(ctx context.Context) error {
	if err := h.rdb.Del(ctx, h.key).Err(); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
