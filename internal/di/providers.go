package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"StakeWatch/internal/domain/repository"
	"StakeWatch/internal/handler/api"
	mid "StakeWatch/internal/middleware"
	internalrepo "StakeWatch/internal/repository"
	svccache "StakeWatch/internal/service/cache"
	"StakeWatch/internal/service/telemetry"
	"StakeWatch/internal/services/risk"
	"StakeWatch/internal/usecase"
	pkgcache "StakeWatch/pkg/cache"
	pkgch "StakeWatch/pkg/clickhouse"
	"StakeWatch/pkg/config"
	pkgkafka "StakeWatch/pkg/kafka"
	applogger "StakeWatch/pkg/logger"
	"StakeWatch/pkg/metrics"
	"StakeWatch/pkg/queue"
	"StakeWatch/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.HistorySchema); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRiskParams loads scoring parameters (defaults plus optional YAML overlay).
func ProvideRiskParams(cfg *config.Config) (risk.Params, error) {
	return risk.ParamsFromFile(cfg.Risk.ParamsFile)
}

// ProvideIndexerClient creates the restaking indexer API client.
func ProvideIndexerClient(cfg *config.Config, lgr *applogger.Logger) *internalrepo.IndexerClient {
	opts := []internalrepo.IndexerOption{internalrepo.WithIndexerLogger(lgr)}
	if cfg.Indexer.RateCapacity > 0 && cfg.Indexer.RateRefillRPS > 0 {
		opts = append(opts, internalrepo.WithRateLimit(cfg.Indexer.RateCapacity, cfg.Indexer.RateRefillRPS))
	}
	return internalrepo.NewIndexerClient(cfg.Indexer.BaseURL, cfg.Indexer.APIKey, cfg.Indexer.Timeout, opts...)
}

// ProvideBytesCache selects the evaluation cache backend: Redis when enabled,
// in-process TTL map otherwise.
func ProvideBytesCache(cfg *config.Config) (svccache.BytesCache, error) {
	if !cfg.Risk.Redis.Enabled {
		return svccache.NewTTLCache(), nil
	}
	host, port, err := splitRedisAddr(cfg.Risk.Redis.Addr)
	if err != nil {
		return nil, err
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Risk.Redis.Password),
		pkgcache.WithRedisDB(cfg.Risk.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return svccache.NewRedisCache(rc), nil
}

func splitRedisAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("redis addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("redis addr %q: %w", addr, err)
	}
	return host, port, nil
}

// ProvideAlertQueue creates the Redis job queue used to hand alerts to the
// notifier worker. Returns nil when Redis is disabled; the dispatcher then
// only invalidates caches.
func ProvideAlertQueue(cfg *config.Config, lgr *applogger.Logger) queue.QueueService {
	if !cfg.Risk.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Risk.Redis.Addr,
		Password: cfg.Risk.Redis.Password,
		DB:       cfg.Risk.Redis.DB,
	})
	return queue.NewRedisPublisher(lgr, client)
}

// ProvideRiskHistory creates the ClickHouse audit-trail store.
func ProvideRiskHistory(chClient *pkgch.Client, lgr *applogger.Logger) repository.RiskHistory {
	h := internalrepo.NewCHRiskHistory(chClient)
	h.SetLogger(lgr)
	return h
}

// ProvideAlertPublisher creates the Kafka alert broadcaster.
func ProvideAlertPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.AlertPublisher {
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.AlertsTopic)
}

// ProvideRiskEngine creates the scoring engine.
func ProvideRiskEngine(
	ix *internalrepo.IndexerClient,
	params risk.Params,
	cache svccache.BytesCache,
	hist repository.RiskHistory,
	pub repository.AlertPublisher,
	m repository.Metrics,
	lgr *applogger.Logger,
	cfg *config.Config,
) *usecase.RiskEngine {
	opts := []usecase.EngineOption{
		usecase.WithHistory(hist),
		usecase.WithAlertPublisher(pub),
	}
	if cfg.Risk.CacheTTL > 0 {
		opts = append(opts, usecase.WithCacheTTL(cfg.Risk.CacheTTL))
	}
	if cfg.Risk.EvaluateTimeout > 0 {
		opts = append(opts, usecase.WithTimeout(cfg.Risk.EvaluateTimeout))
	}
	return usecase.NewRiskEngine(ix, ix, params, cache, m, lgr, opts...)
}

// ProvideEventDispatcher creates the slashing-event dispatcher.
func ProvideEventDispatcher(
	engine *usecase.RiskEngine,
	ix *internalrepo.IndexerClient,
	q queue.QueueService,
	m repository.Metrics,
	lgr *applogger.Logger,
) *usecase.EventDispatcher {
	return usecase.NewEventDispatcher(engine, ix, q, m, lgr)
}

// ProvideTelemetryStream creates the slashing WebSocket stream, or nil when no
// URL is configured.
func ProvideTelemetryStream(cfg *config.Config) repository.SlashingStream {
	if cfg.Telemetry.WebSocketURL == "" {
		return nil
	}
	return telemetry.New(
		cfg.Telemetry.APIKey,
		cfg.Telemetry.WebSocketURL,
		cfg.Telemetry.Channels,
		cfg.Telemetry.ReconnectDelay,
		cfg.Telemetry.PingInterval,
	)
}

// ProvideTelemetryCollector creates the stream supervisor with its throttling
// pipeline. Nil when telemetry is not configured.
func ProvideTelemetryCollector(
	stream repository.SlashingStream,
	disp *usecase.EventDispatcher,
	m repository.Metrics,
) *usecase.TelemetryCollector {
	if stream == nil {
		return nil
	}
	pipe := mid.NewEventPipeline(disp, m,
		mid.WithMaxRPS(10),
		mid.WithBufferSize(1000),
	)
	return usecase.NewTelemetryCollector(stream, disp, m, pipe)
}

// ProvidePositionEventsHandler registers the handler for the position-events topic.
func ProvidePositionEventsHandler(cfg *config.Config, engine *usecase.RiskEngine, m repository.Metrics) *usecase.PositionEventsHandler {
	return usecase.NewPositionEventsHandler(cfg.Kafka.Consumer.PositionEventsTopic, engine, m)
}

// ProvideRiskHandler creates the HTTP handler for the risk API.
func ProvideRiskHandler(lgr *applogger.Logger, engine *usecase.RiskEngine) *api.RiskEchoHandler {
	return api.NewRiskEchoHandler(lgr, engine)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.TelemetryCollector,
	consumer *pkgkafka.Consumer,
	ph *usecase.PositionEventsHandler,
	chClient *pkgch.Client,
	handler *api.RiskEchoHandler,
) *server.App {
	// Attach hook to consumer: example NoopHook for now; can be replaced via config
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, ph, chClient)
	app.SetHTTPHandler(handler)
	return app
}
