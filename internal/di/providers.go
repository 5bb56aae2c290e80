package di

import (
	"context"
	"fmt"
	"time"

	"SigPipe/internal/domain/repository"
	domsvc "SigPipe/internal/domain/service"
	"SigPipe/internal/handler/api"
	internalrepo "SigPipe/internal/repository"
	"SigPipe/internal/service/feed"
	"SigPipe/internal/services/classifier"
	"SigPipe/internal/usecase"
	pkgcache "SigPipe/pkg/cache"
	pkgch "SigPipe/pkg/clickhouse"
	"SigPipe/pkg/config"
	xhttp "SigPipe/pkg/http"
	pkgkafka "SigPipe/pkg/kafka"
	applogger "SigPipe/pkg/logger"
	"SigPipe/pkg/metrics"
	"SigPipe/pkg/server"
)

// ProvideLogger creates the structured application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	format := "json"
	if cfg.Logging.Pretty {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures schema.
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

	db := cfg.ClickHouse.Database
	if db == "" {
		db = "sigpipe"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.bars (
			symbol String,
			date Date,
			open Float64,
			high Float64,
			low Float64,
			close Float64,
			volume Float64,
			foreign_buy_value Float64,
			foreign_sell_value Float64,
			version DateTime DEFAULT now()
		) ENGINE = ReplacingMergeTree(version) ORDER BY (symbol, date)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.signals (
			symbol String,
			date Date,
			signal_type String,
			confidence_score Float64,
			volatility_tag String,
			volume_behavior String,
			market_sentiment String,
			trend_strength String,
			rsi_score Float64,
			volume_spike_ratio Float64,
			momentum Float64,
			macd_trend String,
			bollinger_tag String,
			foreign_flow Float64,
			label_win Nullable(UInt8),
			notes String,
			model_version String,
			version DateTime DEFAULT now()
		) ENGINE = ReplacingMergeTree(version) ORDER BY (symbol, date)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.accuracy_logs (
			symbol String,
			date Date,
			accuracy Float64,
			total UInt32,
			correct UInt32,
			model_version String,
			version DateTime DEFAULT now()
		) ENGINE = ReplacingMergeTree(version) ORDER BY (symbol, date)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.predictions (
			symbol String,
			date Date,
			probability Float64,
			recommendation String,
			model_version String,
			version DateTime DEFAULT now()
		) ENGINE = ReplacingMergeTree(version) ORDER BY (symbol, date)`, db),
	}); err != nil {
		_ = client.Close()
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
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the response cache: Redis when enabled, in-process
// otherwise.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Cache.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	c, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Cache.Addr),
		pkgcache.WithRedisPassword(cfg.Cache.Password),
		pkgcache.WithRedisDB(cfg.Cache.DB),
		pkgcache.WithRedisPrefix("sigpipe"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideBarStore creates ClickHouse bar storage.
func ProvideBarStore(chClient *pkgch.Client, cfg *config.Config) repository.BarStore {
	return internalrepo.NewClickHouseBarStore(chClient.DB(), cfg.ClickHouse.Database+".bars")
}

// ProvideSignalStore creates ClickHouse signal storage.
func ProvideSignalStore(chClient *pkgch.Client, cfg *config.Config) repository.SignalStore {
	return internalrepo.NewClickHouseSignalStore(chClient.DB(), cfg.ClickHouse.Database+".signals")
}

// ProvideAccuracyStore creates ClickHouse accuracy storage.
func ProvideAccuracyStore(chClient *pkgch.Client, cfg *config.Config) repository.AccuracyStore {
	return internalrepo.NewClickHouseAccuracyStore(chClient.DB(), cfg.ClickHouse.Database+".accuracy_logs")
}

// ProvidePredictionStore creates ClickHouse prediction storage.
func ProvidePredictionStore(chClient *pkgch.Client, cfg *config.Config) repository.PredictionStore {
	return internalrepo.NewClickHousePredictionStore(chClient.DB(), cfg.ClickHouse.Database+".predictions")
}

// ProvideBarStream creates the WebSocket bar feed.
func ProvideBarStream(cfg *config.Config) repository.BarStream {
	return feed.New(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		cfg.Feed.Symbols,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
	)
}

// ProvideClassifier creates the HTTP classifier client.
func ProvideClassifier(cfg *config.Config) domsvc.Classifier {
	return classifier.NewHTTPClassifier(cfg)
}

// ProvideBarProcessor creates the ingest processor. The bars-topic
// publisher is built here so that the signal-events publisher can bind the
// shared producer to its own topic.
func ProvideBarProcessor(
	producer *pkgkafka.Producer,
	store repository.BarStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.BarProcessor {
	pub := internalrepo.NewKafkaPublisher(producer, cfg.Kafka.BarsTopic)
	return usecase.NewBarProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideBarCollector creates the feed collector.
func ProvideBarCollector(
	stream repository.BarStream,
	processor *usecase.BarProcessor,
	metrics repository.Metrics,
) *usecase.BarCollector {
	return usecase.NewBarCollector(stream, processor, metrics)
}

// ProvideKafkaBarsHandler registers the consumer handler for the bars topic.
func ProvideKafkaBarsHandler(store repository.BarStore, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaBarsHandler {
	return usecase.NewKafkaBarsHandler(cfg.Kafka.BarsTopic, store, metrics)
}

// ProvideSignalGenerator creates the signal generator with its event
// publisher.
func ProvideSignalGenerator(
	bars repository.BarStore,
	signals repository.SignalStore,
	producer *pkgkafka.Producer,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.SignalGenerator {
	var pub repository.Publisher
	if cfg.Kafka.SignalEventsTopic != "" {
		pub = internalrepo.NewKafkaPublisher(producer, cfg.Kafka.SignalEventsTopic)
	}
	return usecase.NewSignalGenerator(bars, signals, pub, metrics, usecase.SignalGeneratorConfig{
		MoveThresholdPct: cfg.Signals.MoveThresholdPct,
		MinHistory:       cfg.Signals.MinHistory,
		Lookback:         cfg.Signals.Lookback,
		ModelVersion:     cfg.Signals.ModelVersion,
	})
}

// ProvideLabelAssigner creates the outcome grader.
func ProvideLabelAssigner(
	bars repository.BarStore,
	signals repository.SignalStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.LabelAssigner {
	return usecase.NewLabelAssigner(bars, signals, metrics, usecase.LabelAssignerConfig{
		MaturationDays: cfg.Signals.MaturationDays,
		ForwardWindow:  cfg.Signals.ForwardWindow,
		WinThreshold:   cfg.Signals.WinThreshold,
	})
}

// ProvideAccuracyAggregator creates the accuracy evaluator.
func ProvideAccuracyAggregator(
	signals repository.SignalStore,
	accuracy repository.AccuracyStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.AccuracyAggregator {
	return usecase.NewAccuracyAggregator(signals, accuracy, metrics, cfg.Signals.ModelVersion)
}

// ProvidePredictionRefresh creates the classifier-backed prediction pass.
func ProvidePredictionRefresh(
	bars repository.BarStore,
	predictions repository.PredictionStore,
	clf domsvc.Classifier,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.PredictionRefresh {
	return usecase.NewPredictionRefresh(bars, predictions, clf, metrics, usecase.PredictionRefreshConfig{
		BuyThreshold:  cfg.Signals.BuyThreshold,
		SellThreshold: cfg.Signals.SellThreshold,
		Lookback:      cfg.Signals.Lookback,
		ModelVersion:  cfg.Signals.ModelVersion,
	})
}

// ProvideDailyPipeline assembles the batch pipeline.
func ProvideDailyPipeline(
	generator *usecase.SignalGenerator,
	labeler *usecase.LabelAssigner,
	evaluator *usecase.AccuracyAggregator,
	refresher *usecase.PredictionRefresh,
	metrics repository.Metrics,
	log *applogger.Logger,
) *usecase.DailyPipeline {
	return usecase.NewDailyPipeline(generator, labeler, evaluator, refresher, metrics, log)
}

// ProvidePortfolioAllocator creates the allocator.
func ProvidePortfolioAllocator(cfg *config.Config) *usecase.PortfolioAllocator {
	return usecase.NewPortfolioAllocator(cfg.Allocator.WatchTopN)
}

// ProvideReporting creates the read-side usecase.
func ProvideReporting(
	signals repository.SignalStore,
	accuracy repository.AccuracyStore,
	predictions repository.PredictionStore,
) *usecase.ReportingUseCase {
	return usecase.NewReportingUseCase(signals, accuracy, predictions)
}

// ProvideHTTPHandler creates the Echo handler.
func ProvideHTTPHandler(
	log *applogger.Logger,
	reporting *usecase.ReportingUseCase,
	allocator *usecase.PortfolioAllocator,
	pipeline *usecase.DailyPipeline,
	cache pkgcache.Service,
	cfg *config.Config,
) xhttp.Handler {
	return api.NewPipelineEchoHandler(log, reporting, allocator, pipeline, cache, cfg.Cache.TTL)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.BarCollector,
	consumer *pkgkafka.Consumer,
	barsH *usecase.KafkaBarsHandler,
	chClient *pkgch.Client,
	cache pkgcache.Service,
	handler xhttp.Handler,
) *server.App {
	var mh pkgkafka.MessageHandler
	if consumer != nil {
		mh = barsH
	}
	return server.New(cfg, log, collector, consumer, mh, chClient, cache, handler)
}
