package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ChartCast/internal/domain/repository"
	"ChartCast/internal/domain/service"
	"ChartCast/internal/handler/api"
	mid "ChartCast/internal/middleware"
	internalrepo "ChartCast/internal/repository"
	"ChartCast/internal/service/binance"
	"ChartCast/internal/service/blob"
	"ChartCast/internal/service/frames"
	"ChartCast/internal/service/mockdata"
	"ChartCast/internal/service/neynar"
	"ChartCast/internal/service/openai"
	"ChartCast/internal/service/ratelimit"
	"ChartCast/internal/usecase"
	"ChartCast/pkg/cache"
	pkgch "ChartCast/pkg/clickhouse"
	"ChartCast/pkg/config"
	xhttp "ChartCast/pkg/http"
	pkgkafka "ChartCast/pkg/kafka"
	"ChartCast/pkg/logger"
	"ChartCast/pkg/metrics"
	"ChartCast/pkg/server"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the app logger and, when enabled, ships its error digest to Kafka.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, error) {
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.LogDigest.Enabled {
		l.AttachDigest(logger.NewErrorDigest(logger.DigestConfig{
			Interval:  cfg.Kafka.LogDigest.Interval,
			Topic:     cfg.Kafka.Topics.LogDigest,
			Publisher: producer,
		}))
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideRedisClient connects to Redis, or returns nil when it is disabled.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	client, err := cache.NewRedisClient(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis client: %w", err)
	}
	return client, nil
}

// ProvideCache builds the memory cache, backed by Redis when available.
func ProvideCache(cfg *config.Config, rdb *redis.Client) cache.Service {
	var l2 *cache.RedisCache
	if rdb != nil {
		l2 = cache.NewRedisCache(rdb, cfg.Redis.Prefix)
	}
	return cache.NewLayeredCache(l2,
		cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
		cache.WithLayeredMemoryTTL(cfg.Cache.MemoryTTL),
	)
}

// ProvideClickHouseClient connects and creates the archive tables, or returns nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.ArchiveSchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideArchive returns the ClickHouse archive or a no-op one.
func ProvideArchive(ch *pkgch.Client, l *logger.Logger) repository.Archive {
	if ch == nil {
		return internalrepo.NopArchive{}
	}
	return internalrepo.NewCHArchive(ch, l)
}

// ProvideEventPublisher returns the Kafka publisher or a no-op one.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config, m repository.Metrics) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NopEvents{}
	}
	return internalrepo.NewKafkaEvents(producer, cfg.Kafka.Topics.Casts, cfg.Kafka.Topics.Analysis, m)
}

// ProvideKafkaConsumer creates the archive consumer; it needs both Kafka and ClickHouse.
func ProvideKafkaConsumer(cfg *config.Config, l *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Topics.DLQ),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideCastArchiver registers the handler for published casts.
func ProvideCastArchiver(cfg *config.Config, archive repository.Archive, m repository.Metrics) *usecase.CastArchiver {
	return usecase.NewCastArchiver(cfg.Kafka.Topics.Casts, archive, m)
}

// ProvideKlineSource chains Binance global, Binance US and mock data behind the cache.
func ProvideKlineSource(cfg *config.Config, l *logger.Logger, m repository.Metrics, c cache.Service) repository.KlineSource {
	client := binance.NewClient(mockdata.New(), l, m,
		binance.WithEndpoints(cfg.Market.BaseURL, cfg.Market.FallbackURL),
		binance.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Market.Timeout))),
	)
	return internalrepo.NewCachedSource(client, c, cfg.Market.CacheTTL)
}

// ProvideHistoryStore selects the history backend.
func ProvideHistoryStore(cfg *config.Config, rdb *redis.Client, l *logger.Logger) (repository.HistoryStore, error) {
	switch cfg.History.Backend {
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("history backend redis requires redis.enabled")
		}
		return internalrepo.NewRedisHistory(rdb, cfg.History.Key, 0, l), nil
	default:
		return internalrepo.NewMemoryHistory(0), nil
	}
}

func ProvideCaptioner(cfg *config.Config) service.Captioner {
	return openai.New(openai.Config{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	})
}

func ProvideCastPublisher(cfg *config.Config) service.CastPublisher {
	return neynar.New(neynar.Config{
		APIKey:     cfg.Neynar.APIKey,
		SignerUUID: cfg.Neynar.SignerUUID,
		BaseURL:    cfg.Neynar.BaseURL,
		Timeout:    cfg.Neynar.Timeout,
	})
}

func ProvideBlobStore(cfg *config.Config) service.BlobStore {
	return blob.New(blob.Config{
		Token:   cfg.Blob.Token,
		BaseURL: cfg.Blob.BaseURL,
		Timeout: cfg.Blob.Timeout,
	})
}

func ProvideFrameRenderer(cfg *config.Config) *frames.Renderer {
	return frames.NewRenderer(cfg.App.URL)
}

func ProvideChartUseCase(src repository.KlineSource, m repository.Metrics, cfg *config.Config) *usecase.ChartUseCase {
	return usecase.NewChartUseCase(src, m, cfg.Market.Limit)
}

func ProvideCastUseCase(
	p service.CastPublisher,
	h repository.HistoryStore,
	e repository.EventPublisher,
	r *frames.Renderer,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.CastUseCase {
	return usecase.NewCastUseCase(p, h, e, r, m, l)
}

func ProvideSnapshotSink(e repository.EventPublisher, a repository.Archive) usecase.SnapshotSink {
	return usecase.SnapshotSink{Events: e, Archive: a}
}

// ProvideLiveWatcher returns nil unless the kline stream is enabled.
func ProvideLiveWatcher(
	cfg *config.Config,
	chart *usecase.ChartUseCase,
	sink usecase.SnapshotSink,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.LiveWatcher {
	if !cfg.Market.Stream.Enabled {
		return nil
	}
	stream := binance.NewStream(
		cfg.Market.Stream.URL,
		cfg.Market.WatchPairs,
		cfg.Market.WatchInterval,
		cfg.Market.Stream.ReconnectDelay,
		cfg.Market.Stream.PingInterval,
		l,
	)
	return usecase.NewLiveWatcher(stream, chart, sink, m, l,
		mid.WithMinGap(cfg.Market.Stream.MinGap),
		mid.WithBufferSize(len(cfg.Market.WatchPairs)*4),
	)
}

// ProvideSnapshotScheduler returns nil when there is nothing to snapshot.
func ProvideSnapshotScheduler(
	cfg *config.Config,
	chart *usecase.ChartUseCase,
	sink usecase.SnapshotSink,
	c cache.Service,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.SnapshotScheduler {
	if cfg.Market.SnapshotCron == "" || len(cfg.Market.WatchPairs) == 0 {
		return nil
	}
	return usecase.NewSnapshotScheduler(chart, sink, c, cfg.Market.WatchPairs, cfg.Market.WatchInterval, m, l)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Burst, cfg.RateLimit.RefillPerSec)
}

// ProvideHandlers collects every route group.
func ProvideHandlers(
	l *logger.Logger,
	chart *usecase.ChartUseCase,
	caption *usecase.CaptionUseCase,
	cast *usecase.CastUseCase,
	upload *usecase.UploadUseCase,
	history *usecase.HistoryUseCase,
	limiter *ratelimit.Limiter,
	renderer *frames.Renderer,
) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewChartHandler(l, chart),
		api.NewCastHandler(l, caption, cast, upload, history, limiter.Middleware()),
		api.NewFramesHandler(l, renderer),
	}
}

func ProvideHTTPServer(cfg *config.Config, l *logger.Logger, handlers []xhttp.Handler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(l, handlers,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithBodyLimit(cfg.Server.BodyLimit),
	)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	httpServer *xhttp.Server,
	watcher *usecase.LiveWatcher,
	scheduler *usecase.SnapshotScheduler,
	consumer *pkgkafka.Consumer,
	archiver *usecase.CastArchiver,
	events repository.EventPublisher,
	c cache.Service,
	ch *pkgch.Client,
) *server.App {
	return server.New(cfg, l, server.Components{
		HTTP:       httpServer,
		Watcher:    watcher,
		Scheduler:  scheduler,
		Consumer:   consumer,
		Archiver:   archiver,
		Events:     events,
		Cache:      c,
		ClickHouse: ch,
	})
}
