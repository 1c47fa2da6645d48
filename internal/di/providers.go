package di

import (
	"context"
	"fmt"
	"time"

	domrepo "SignalForge/internal/domain/repository"
	domsvc "SignalForge/internal/domain/service"
	"SignalForge/internal/handler/api"
	internalrepo "SignalForge/internal/repository"
	"SignalForge/internal/service/dispatch"
	"SignalForge/internal/service/notify"
	"SignalForge/internal/service/ratelimit"
	"SignalForge/internal/service/stream"
	"SignalForge/internal/services/scoring"
	"SignalForge/internal/services/sentiment"
	"SignalForge/internal/usecase"
	"SignalForge/pkg/cache"
	pkgch "SignalForge/pkg/clickhouse"
	"SignalForge/pkg/config"
	xhttp "SignalForge/pkg/http"
	"SignalForge/pkg/http/middleware"
	pkgkafka "SignalForge/pkg/kafka"
	applogger "SignalForge/pkg/logger"
	"SignalForge/pkg/metrics"
	"SignalForge/pkg/queue"
	"SignalForge/pkg/server"
)

const decisionsTable = "decisions"

// ProvideLogger builds the root logger from the logger section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics registers the Prometheus collectors on the default registry.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New(nil)
}

// ProvideClickHouseClient connects when ClickHouse backs the recorder or the
// feature store. Returns nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled && cfg.Recorder.Backend != config.RecorderClickHouse {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, true),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, pkgch.DecisionSchema(qualifiedTable(cfg))); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer returns nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideRedisCache returns nil when redis is disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache layers an in-process cache over redis, or stands alone without it.
func ProvideCache(rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(10000))
	}
	return cache.NewLayeredCache(rc, 1024, 30*time.Second)
}

const dedupeLockCapacity = 1 << 20

func dedupeLocks(rc *cache.RedisCache) cache.Service {
	if rc != nil {
		return rc
	}
	return cache.NewMemoryCache(cache.WithMemoryMaxSize(dedupeLockCapacity))
}

// ProvideRecordSink selects the decision store named by recorder.backend.
func ProvideRecordSink(cfg *config.Config, ch *pkgch.Client, producer *pkgkafka.Producer) (domrepo.RecordSink, error) {
	switch cfg.Recorder.Backend {
	case config.RecorderClickHouse:
		if ch == nil {
			return nil, fmt.Errorf("clickhouse recorder backend without a clickhouse client")
		}
		return internalrepo.NewClickHouseSink(ch.DB(), qualifiedTable(cfg)), nil
	case config.RecorderKafka:
		if producer == nil {
			return nil, fmt.Errorf("kafka recorder backend without brokers")
		}
		return internalrepo.NewKafkaSink(producer, cfg.Kafka.DecisionsTopic), nil
	default:
		return internalrepo.NewMemorySink(), nil
	}
}

func ProvideHub(l *applogger.Logger) *stream.Hub {
	return stream.NewHub(l)
}

// ProvideDecisionRecorder claims decision ids in redis when it is configured.
// Otherwise it keeps its own lock table apart from the general cache so cached
// values never push out a live claim.
func ProvideDecisionRecorder(
	cfg *config.Config,
	sink domrepo.RecordSink,
	m domrepo.Metrics,
	rc *cache.RedisCache,
	hub *stream.Hub,
	l *applogger.Logger,
) *internalrepo.BufferedRecorder {
	return internalrepo.NewBufferedRecorder(sink, m, l,
		internalrepo.WithDedupe(dedupeLocks(rc), cfg.Recorder.DedupeTTL),
		internalrepo.WithBufferSize(cfg.Recorder.BufferSize),
		internalrepo.WithBackoff(cfg.Recorder.RetryBackoff, 0),
		internalrepo.WithListener(hub),
	)
}

func ProvideNotifier(cfg *config.Config, l *applogger.Logger) domsvc.Notifier {
	if !cfg.Notifier.Enabled {
		return notify.Nop{}
	}
	return notify.NewWebhookNotifier(cfg.Notifier, l)
}

// ProvideSentimentAnalyzer prefers the remote service and falls back to the
// lexical scorer. Results are cached by text hash.
func ProvideSentimentAnalyzer(cfg *config.Config, c cache.Service, l *applogger.Logger) domsvc.SentimentAnalyzer {
	var analyzer domsvc.SentimentAnalyzer = sentiment.NewLexicalAnalyzer()
	if cfg.Sentiment.ServiceURL != "" {
		analyzer = sentiment.NewHTTPAnalyzer(cfg.Sentiment.ServiceURL, cfg.Sentiment.Timeout, cfg.Sentiment.Retries, analyzer, l)
	}
	return sentiment.NewCachedAnalyzer(analyzer, c, cfg.Sentiment.CacheTTL)
}

func ProvideFeatureStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) domrepo.FeatureStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHFeatureStore(ch.DB(), cfg.ClickHouse.Database, l)
}

func ProvideEngine() *scoring.Engine {
	return scoring.NewEngine()
}

func ProvidePredictionService(
	engine *scoring.Engine,
	store domrepo.FeatureStore,
	analyzer domsvc.SentimentAnalyzer,
	recorder domrepo.DecisionRecorder,
	notifier domsvc.Notifier,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.PredictionService {
	return usecase.NewPredictionService(engine, store, analyzer, recorder, notifier, m, l)
}

// ProvideActionQueue returns nil unless automated actions are enabled.
func ProvideActionQueue(cfg *config.Config, rc *cache.RedisCache, l *applogger.Logger) *queue.RedisQueue {
	if !cfg.Actions.Enabled || rc == nil {
		return nil
	}
	return queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Actions.Workers,
		RetryLimit: cfg.Actions.RetryLimit,
		RetryDelay: cfg.Actions.RetryDelay,
	}, rc.Client(), queue.ModeProducerConsumer, queue.WithKeyPrefix(cfg.Redis.Prefix+":actions"))
}

func ProvideActionDispatcher(q *queue.RedisQueue) domrepo.ActionDispatcher {
	if q == nil {
		return dispatch.Nop{}
	}
	return dispatch.NewQueueDispatcher(q)
}

func ProvideSignalIntake(
	cfg *config.Config,
	recorder domrepo.DecisionRecorder,
	dispatcher domrepo.ActionDispatcher,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.SignalIntake {
	return usecase.NewSignalIntake(usecase.IntakeConfig{
		DefaultSource:     cfg.Intake.DefaultSource,
		DefaultConfidence: cfg.Intake.DefaultConfidence,
	}, recorder, dispatcher, m, l)
}

func ProvideSignalActionJob(cfg *config.Config, recorder domrepo.DecisionRecorder, notifier domsvc.Notifier, l *applogger.Logger) *usecase.SignalActionJob {
	return usecase.NewSignalActionJob(recorder, notifier, cfg.Actions.MinAlertConfidence, l)
}

// ProvideKafkaConsumer returns nil unless kafka.consumer.enabled is set.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.SetHook(pkgkafka.TraceHook{})
	return consumer, nil
}

func ProvideKafkaSignalsHandler(cfg *config.Config, intake *usecase.SignalIntake, m domrepo.Metrics, l *applogger.Logger) *usecase.KafkaSignalsHandler {
	return usecase.NewKafkaSignalsHandler(cfg.Kafka.SignalsTopic, intake, m, l)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Intake.RateLimit.Capacity, cfg.Intake.RateLimit.RefillPerSec)
}

func ProvidePredictionHandler(svc *usecase.PredictionService, l *applogger.Logger) *api.PredictionHandler {
	return api.NewPredictionHandler(svc, l)
}

func ProvideSignalsHandler(intake *usecase.SignalIntake, rl *ratelimit.Limiter, l *applogger.Logger) *api.SignalsHandler {
	return api.NewSignalsHandler(intake, rl, l)
}

func ProvideStreamHandler(hub *stream.Hub) *api.StreamHandler {
	return api.NewStreamHandler(hub)
}

func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	predictions *api.PredictionHandler,
	signals *api.SignalsHandler,
	decisions *api.StreamHandler,
	recorder *internalrepo.BufferedRecorder,
) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
	}
	cors := xhttp.WithoutCORS()
	if c := cfg.Server.CORS; c.Enabled {
		cors = xhttp.WithCORS(middleware.CORSConfig{
			AllowOrigins: c.AllowOrigins,
			AllowMethods: c.AllowMethods,
			AllowHeaders: c.AllowHeaders,
			MaxAge:       c.MaxAge,
		})
	}
	return xhttp.NewServer(l, []xhttp.Handler{predictions, signals, decisions},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithHealthCheck("decision_recorder", recorder.Check),
		cors,
	)
}

// ProvideApp assembles the lifecycle. Optional components that were not
// configured arrive as nil and are left out.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	recorder *internalrepo.BufferedRecorder,
	hub *stream.Hub,
	consumer *pkgkafka.Consumer,
	signalsHandler *usecase.KafkaSignalsHandler,
	actionQueue *queue.RedisQueue,
	actionJob *usecase.SignalActionJob,
	intake *usecase.SignalIntake,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	rc *cache.RedisCache,
) *server.App {
	opts := []server.Option{server.WithInfra(producer, ch, rc), server.WithIntake(intake)}
	if consumer != nil {
		opts = append(opts, server.WithConsumer(consumer, signalsHandler))
	}
	if actionQueue != nil {
		opts = append(opts, server.WithQueue(actionQueue, actionJob))
	}
	return server.New(cfg, l, httpServer, recorder, hub, opts...)
}

func qualifiedTable(cfg *config.Config) string {
	if cfg.ClickHouse.Database == "" {
		return decisionsTable
	}
	return cfg.ClickHouse.Database + "." + decisionsTable
}
