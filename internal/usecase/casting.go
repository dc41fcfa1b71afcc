package usecase

import (
	"context"
	"io"
	"strconv"
	"time"

	"ChartCast/internal/domain/models"
	domrepo "ChartCast/internal/domain/repository"
	"ChartCast/internal/domain/service"
	"ChartCast/pkg/logger"
)

// CaptionUseCase asks the caption generator about a chart setup.
type CaptionUseCase struct {
	captioner service.Captioner
	metrics   domrepo.Metrics
}

func NewCaptionUseCase(c service.Captioner, m domrepo.Metrics) *CaptionUseCase {
	return &CaptionUseCase{captioner: c, metrics: m}
}

func (uc *CaptionUseCase) Caption(ctx context.Context, req models.CaptionHTTPRequest) (string, error) {
	start := time.Now()
	text, err := uc.captioner.Caption(ctx, models.CaptionRequest{
		Pair:      req.Pair,
		Interval:  req.Interval,
		LastPrice: req.LastPrice,
		Signals:   req.Signals,
	})
	if err != nil {
		uc.metrics.RecordError("caption")
		return "", err
	}
	uc.metrics.RecordLatency("caption", time.Since(start).Seconds())
	return text, nil
}

// CastResult is what a successful publish returns.
type CastResult struct {
	Hash string                 `json:"hash"`
	Item models.CastHistoryItem `json:"item"`
}

// FrameLinker builds the frame URL for a cast.
type FrameLinker interface {
	FrameURL(pair, interval, img string) string
}

// CastUseCase publishes a cast and records it.
type CastUseCase struct {
	publisher service.CastPublisher
	history   domrepo.HistoryStore
	events    domrepo.EventPublisher
	frames    FrameLinker
	metrics   domrepo.Metrics
	log       *logger.Logger
	now       func() time.Time
}

func NewCastUseCase(p service.CastPublisher, h domrepo.HistoryStore, e domrepo.EventPublisher, f FrameLinker, m domrepo.Metrics, log *logger.Logger) *CastUseCase {
	return &CastUseCase{publisher: p, history: h, events: e, frames: f, metrics: m, log: log, now: time.Now}
}

// Cast publishes req. History and event failures are logged; the cast is live
// at that point and its hash is still returned.
func (uc *CastUseCase) Cast(ctx context.Context, req models.CastHTTPRequest) (*CastResult, error) {
	embeds := req.Embeds
	if len(embeds) == 0 && req.Pair != "" && uc.frames != nil {
		embeds = []models.Embed{{URL: uc.frames.FrameURL(req.Pair, req.Interval, req.ImageURL)}}
	}

	hash, err := uc.publisher.Publish(ctx, models.CastRequest{
		Text:       req.Text,
		Embeds:     embeds,
		SignerUUID: req.SignerUUID,
	})
	if err != nil {
		uc.metrics.RecordError("cast_publish")
		return nil, err
	}

	now := uc.now()
	item := models.CastHistoryItem{
		ID:        strconv.FormatInt(now.UnixMilli(), 10),
		Pair:      req.Pair,
		Interval:  req.Interval,
		Caption:   req.Text,
		ImageURL:  req.ImageURL,
		FrameURL:  req.FrameURL,
		Timestamp: now.UnixMilli(),
		Hash:      hash,
	}
	if item.ImageURL == "" && len(req.Embeds) > 0 {
		item.ImageURL = req.Embeds[0].URL
	}
	if item.FrameURL == "" && len(embeds) > 0 && len(req.Embeds) == 0 {
		item.FrameURL = embeds[0].URL
	}

	if err := uc.history.Append(ctx, item); err != nil {
		uc.metrics.RecordError("history_append")
		uc.log.Error("append cast history failed", logger.String("hash", hash), logger.Error(err))
	}
	if err := uc.events.PublishCast(ctx, models.CastEvent{Item: item, PublishedAt: now.UTC()}); err != nil {
		uc.metrics.RecordError("event_publish")
		uc.log.Warn("publish cast event failed", logger.String("hash", hash), logger.Error(err))
	}

	uc.log.Info("cast published",
		logger.String("hash", hash),
		logger.String("pair", req.Pair),
		logger.String("interval", req.Interval),
	)
	return &CastResult{Hash: hash, Item: item}, nil
}

// UploadUseCase stores chart images.
type UploadUseCase struct {
	blobs service.BlobStore
}

func NewUploadUseCase(b service.BlobStore) *UploadUseCase {
	return &UploadUseCase{blobs: b}
}

func (uc *UploadUseCase) Upload(ctx context.Context, filename, contentType string, body io.Reader) (*models.Blob, error) {
	return uc.blobs.Put(ctx, filename, contentType, body)
}

// HistoryUseCase exposes the cast log.
type HistoryUseCase struct {
	store domrepo.HistoryStore
}

func NewHistoryUseCase(s domrepo.HistoryStore) *HistoryUseCase {
	return &HistoryUseCase{store: s}
}

func (uc *HistoryUseCase) List(ctx context.Context) ([]models.CastHistoryItem, error) {
	return uc.store.List(ctx)
}

func (uc *HistoryUseCase) Append(ctx context.Context, item models.CastHistoryItem) error {
	return uc.store.Append(ctx, item)
}

func (uc *HistoryUseCase) Clear(ctx context.Context) error {
	return uc.store.Clear(ctx)
}
