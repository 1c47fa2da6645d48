package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	internalrepo "SignalForge/internal/repository"
	"SignalForge/internal/service/stream"
	"SignalForge/internal/usecase"
	"SignalForge/pkg/cache"
	pkgch "SignalForge/pkg/clickhouse"
	"SignalForge/pkg/config"
	xhttp "SignalForge/pkg/http"
	pkgkafka "SignalForge/pkg/kafka"
	applogger "SignalForge/pkg/logger"
	"SignalForge/pkg/queue"
)

// App owns every long-running component and their start/stop order.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	recorder   *internalrepo.BufferedRecorder
	hub        *stream.Hub
	intake     *usecase.SignalIntake

	consumer *pkgkafka.Consumer
	handlers []pkgkafka.MessageHandler
	queue    *queue.RedisQueue
	jobs     []queue.Job

	producer *pkgkafka.Producer
	chClient *pkgch.Client
	redis    *cache.RedisCache
}

type Option func(*App)

// WithConsumer runs c with the given handlers.
func WithConsumer(c *pkgkafka.Consumer, handlers ...pkgkafka.MessageHandler) Option {
	return func(a *App) {
		a.consumer = c
		a.handlers = append(a.handlers, handlers...)
	}
}

// WithQueue runs q's workers with the given jobs.
func WithQueue(q *queue.RedisQueue, jobs ...queue.Job) Option {
	return func(a *App) {
		a.queue = q
		a.jobs = append(a.jobs, jobs...)
	}
}

// WithIntake drains in-flight signal dispatches before the queue stops.
func WithIntake(i *usecase.SignalIntake) Option {
	return func(a *App) { a.intake = i }
}

// WithInfra hands over clients the app closes on shutdown. Nil values are skipped.
func WithInfra(producer *pkgkafka.Producer, ch *pkgch.Client, rc *cache.RedisCache) Option {
	return func(a *App) {
		a.producer = producer
		a.chClient = ch
		a.redis = rc
	}
}

func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	recorder *internalrepo.BufferedRecorder,
	hub *stream.Hub,
	opts ...Option,
) *App {
	a := &App{
		cfg:        cfg,
		l:          l,
		httpServer: httpServer,
		recorder:   recorder,
		hub:        hub,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(); err != nil {
		return err
	}
	<-ctx.Done()

	a.l.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Start brings components up from the sinks outwards so nothing accepts work
// before its downstream is ready.
func (a *App) Start() error {
	if a.cfg.Logger.Collect && a.producer != nil {
		a.l.AddCollector(&applogger.CollectionConfig{
			FlushInterval: a.cfg.Logger.FlushInterval,
			Topic:         a.cfg.Kafka.LogsTopic,
			Service:       "signalforge",
			Publisher:     a.producer,
		})
		a.l.Info("error log collection enabled", applogger.String("topic", a.cfg.Kafka.LogsTopic))
	}

	a.recorder.Start()
	a.l.Info("decision recorder started", applogger.String("backend", a.cfg.Recorder.Backend))

	if a.queue != nil {
		a.queue.RegisterJobs(a.jobs...)
		if err := a.queue.Start(); err != nil {
			a.l.Error("action queue start error", applogger.Error(err))
			return err
		}
	}

	if a.consumer != nil {
		topics := make([]string, 0, len(a.handlers))
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
			topics = append(topics, h.Topic())
		}
		if err := a.consumer.Start(); err != nil {
			a.l.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.l.Info("kafka consumer started", applogger.Strings("topics", topics))
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	return nil
}

// Shutdown stops intake first, then drains the recorder and closes clients.
func (a *App) Shutdown(ctx context.Context) error {
	a.l.Info("shutting down...")

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.intake != nil {
		if err := a.intake.Close(ctx); err != nil {
			a.l.Warn("signal dispatch drain incomplete", applogger.Error(err))
		}
	}
	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			a.l.Warn("action queue stop error", applogger.Error(err))
		}
	}

	start := time.Now()
	if err := a.recorder.Stop(ctx); err != nil {
		a.l.Warn("decision recorder stop error", applogger.Error(err))
	}
	a.l.Info("decision recorder drained", applogger.Duration("took", time.Since(start)))
	a.hub.Close()

	a.l.RemoveCollector()
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.l.Warn("redis close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
