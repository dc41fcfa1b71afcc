package server

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "ChartCast/internal/domain/repository"
	"ChartCast/internal/usecase"
	"ChartCast/pkg/cache"
	pkgch "ChartCast/pkg/clickhouse"
	"ChartCast/pkg/config"
	xhttp "ChartCast/pkg/http"
	pkgkafka "ChartCast/pkg/kafka"
	applogger "ChartCast/pkg/logger"
)

// Components are the long-running parts of the app. Any of them may be nil
// when the matching feature is disabled.
type Components struct {
	HTTP       *xhttp.Server
	Watcher    *usecase.LiveWatcher
	Scheduler  *usecase.SnapshotScheduler
	Consumer   *pkgkafka.Consumer
	Archiver   pkgkafka.MessageHandler
	Events     domrepo.EventPublisher
	Cache      cache.Service // owns the Redis client
	ClickHouse *pkgch.Client
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg *config.Config
	log *applogger.Logger
	c   Components
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, c Components) *App {
	return &App{cfg: cfg, log: l, c: c}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Serve(ctx)
}

// Serve starts every component, waits for ctx to end and shuts down.
func (a *App) Serve(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.c.HTTP != nil {
		if err := a.c.HTTP.Start(); err != nil {
			a.log.Error("http server start error", applogger.Error(err))
			return err
		}
	}

	if a.c.Watcher != nil {
		// a failed first dial is not fatal; the REST routes keep serving
		if err := a.c.Watcher.Start(runCtx); err != nil {
			a.log.Warn("kline stream unavailable", applogger.Error(err))
		} else {
			a.log.Info("kline stream started", applogger.Strings("pairs", a.cfg.Market.WatchPairs))
		}
	}

	if a.c.Scheduler != nil {
		if err := a.c.Scheduler.Register(runCtx, a.cfg.Market.SnapshotCron); err != nil {
			a.log.Error("snapshot scheduler", applogger.Error(err))
		} else {
			a.c.Scheduler.Start()
		}
	}

	if a.c.Consumer != nil && a.c.Archiver != nil {
		a.c.Consumer.RegisterHandler(a.c.Archiver)
		if err := a.c.Consumer.Start(); err != nil {
			a.log.Error("kafka consumer error", applogger.Error(err))
		} else {
			a.log.Info("kafka consumer started", applogger.String("topic", a.c.Archiver.Topic()))
		}
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops components in reverse start order, then closes clients.
func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	warn := func(what string, err error) {
		if err != nil {
			a.log.Warn(what, applogger.Error(err))
			errs = append(errs, err)
		}
	}

	if a.c.Consumer != nil {
		warn("kafka consumer stop error", a.c.Consumer.Stop(ctx))
	}
	if a.c.Scheduler != nil {
		warn("snapshot scheduler stop error", a.c.Scheduler.Stop(ctx))
	}
	if a.c.Watcher != nil {
		warn("kline stream stop error", a.c.Watcher.Shutdown(ctx))
	}
	if a.c.HTTP != nil {
		warn("http shutdown error", a.c.HTTP.Stop(ctx))
	}

	// the digest publishes through the producer Events closes
	a.log.DetachDigest()
	if a.c.Events != nil {
		warn("event publisher close error", a.c.Events.Close())
	}
	if closer, ok := a.c.Cache.(io.Closer); ok {
		warn("cache close error", closer.Close())
	}
	if a.c.ClickHouse != nil {
		warn("clickhouse close error", a.c.ClickHouse.Close())
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
