package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"ChartCast/internal/domain/models"
	domrepo "ChartCast/internal/domain/repository"
	pkgch "ChartCast/pkg/clickhouse"
	applogger "ChartCast/pkg/logger"
)

const (
	SnapshotsTable = "signal_snapshots"
	CastsTable     = "cast_archive"
)

// ArchiveSchema creates the archive tables when missing.
var ArchiveSchema = []string{
	`CREATE TABLE IF NOT EXISTS signal_snapshots (
        ts DateTime64(3),
        symbol LowCardinality(String),
        interval LowCardinality(String),
        source LowCardinality(String),
        last_price Float64,
        signals String
    ) ENGINE = MergeTree
    PARTITION BY toYYYYMM(ts)
    ORDER BY (symbol, interval, ts)`,
	`CREATE TABLE IF NOT EXISTS cast_archive (
        ts DateTime64(3),
        id String,
        pair LowCardinality(String),
        interval LowCardinality(String),
        caption String,
        image_url String,
        hash String
    ) ENGINE = ReplacingMergeTree
    ORDER BY (pair, id)`,
}

// CHArchive implements Archive backed by ClickHouse.
type CHArchive struct {
	db *sql.DB
	l  *applogger.Logger
}

var _ domrepo.Archive = (*CHArchive)(nil)

func NewCHArchive(ch *pkgch.Client, l *applogger.Logger) *CHArchive {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHArchive{db: ch.DB(), l: l}
}

func (a *CHArchive) StoreSnapshot(ctx context.Context, snap models.SignalSnapshot) error {
	signals, err := json.Marshal(snap.Signals)
	if err != nil {
		return fmt.Errorf("encode signals: %w", err)
	}

	const q = `INSERT INTO signal_snapshots (ts, symbol, interval, source, last_price, signals) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = a.db.ExecContext(ctx, q,
		snap.Timestamp.UTC(),
		snap.Symbol,
		snap.Interval,
		string(snap.Source),
		snap.LastPrice,
		string(signals),
	)
	if err != nil {
		a.l.Error("clickhouse insert snapshot error",
			applogger.String("table", SnapshotsTable),
			applogger.String("symbol", snap.Symbol),
			applogger.Error(err),
		)
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (a *CHArchive) StoreCast(ctx context.Context, evt models.CastEvent) error {
	ts := evt.PublishedAt
	if ts.IsZero() {
		ts = time.UnixMilli(evt.Item.Timestamp)
	}

	const q = `INSERT INTO cast_archive (ts, id, pair, interval, caption, image_url, hash) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := a.db.ExecContext(ctx, q,
		ts.UTC(),
		evt.Item.ID,
		evt.Item.Pair,
		evt.Item.Interval,
		evt.Item.Caption,
		evt.Item.ImageURL,
		evt.Item.Hash,
	)
	if err != nil {
		a.l.Error("clickhouse insert cast error",
			applogger.String("table", CastsTable),
			applogger.String("id", evt.Item.ID),
			applogger.Error(err),
		)
		return fmt.Errorf("insert cast: %w", err)
	}
	return nil
}

func (a *CHArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// RecentSnapshots returns the latest archived snapshots for a pair, newest first.
func (a *CHArchive) RecentSnapshots(ctx context.Context, symbol, interval string, limit int) ([]models.SignalSnapshot, error) {
	const q = `
        SELECT ts, symbol, interval, source, last_price, signals
        FROM signal_snapshots
        WHERE symbol = ? AND interval = ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := a.db.QueryContext(ctx, q, symbol, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]models.SignalSnapshot, 0, limit)
	for rows.Next() {
		var (
			s       models.SignalSnapshot
			source  string
			signals string
		)
		if err := rows.Scan(&s.Timestamp, &s.Symbol, &s.Interval, &source, &s.LastPrice, &signals); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.Source = models.DataSource(source)
		if err := json.Unmarshal([]byte(signals), &s.Signals); err != nil {
			return nil, fmt.Errorf("decode signals: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
