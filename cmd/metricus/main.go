package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/absmach/metricus/agent"
	"github.com/absmach/metricus/agent/api"
	"github.com/absmach/metricus/agent/middleware"
	"github.com/absmach/metricus/pkg/archive"
	"github.com/absmach/metricus/pkg/docker"
	"github.com/absmach/metricus/pkg/jaeger"
	"github.com/absmach/metricus/pkg/mqtt"
	"github.com/absmach/metricus/pkg/prometheus"
	"github.com/absmach/metricus/pkg/server"
	httpserver "github.com/absmach/metricus/pkg/server/http"
	"github.com/absmach/metricus/pkg/store"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName          = "metricus"
	defHTTPPort      = "8080"
	envPrefixHTTP    = "METRICUS_HTTP_"
	envPrefixArchive = "METRICUS_ARCHIVE_"
	pathEnv          = ".env"
)

type envConfig struct {
	LogLevel          string        `env:"METRICUS_LOG_LEVEL"          envDefault:"info"`
	InstanceID        string        `env:"METRICUS_INSTANCE_ID"`
	DockerHost        string        `env:"METRICUS_DOCKER_HOST"`
	SampleInterval    time.Duration `env:"METRICUS_SAMPLE_INTERVAL"    envDefault:"1s"`
	SampleTimeout     time.Duration `env:"METRICUS_SAMPLE_TIMEOUT"     envDefault:"900ms"`
	SampleConcurrency int           `env:"METRICUS_SAMPLE_CONCURRENCY" envDefault:"16"`
	MaxFailures       int           `env:"METRICUS_MAX_FAILURES"       envDefault:"3"`
	PurgeDelay        time.Duration `env:"METRICUS_PURGE_DELAY"        envDefault:"60s"`
	BufferCapacity    int           `env:"METRICUS_BUFFER_CAPACITY"    envDefault:"300"`
	WatchEvents       bool          `env:"METRICUS_WATCH_EVENTS"       envDefault:"true"`
	ExportInterval    time.Duration `env:"METRICUS_EXPORT_INTERVAL"    envDefault:"10s"`
	MQTTAddress       string        `env:"METRICUS_MQTT_ADDRESS"`
	MQTTQoS           uint8         `env:"METRICUS_MQTT_QOS"           envDefault:"1"`
	MQTTTimeout       time.Duration `env:"METRICUS_MQTT_TIMEOUT"       envDefault:"30s"`
	MQTTUsername      string        `env:"METRICUS_MQTT_USERNAME"`
	MQTTPassword      string        `env:"METRICUS_MQTT_PASSWORD"`
	OTELURL           url.URL       `env:"METRICUS_OTEL_URL"`
	TraceRatio        float64       `env:"METRICUS_TRACE_RATIO"        envDefault:"1.0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler).With(slog.String("instance_id", cfg.InstanceID))
	slog.SetDefault(logger)

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, cfg.InstanceID, cfg.TraceRatio)
		if err != nil {
			logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := sdktp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	rt, err := docker.New(cfg.DockerHost)
	if err != nil {
		logger.Error("failed to initialize docker runtime", slog.String("error", err.Error()))

		return
	}
	defer rt.Close()

	if err := rt.Ping(ctx); err != nil {
		logger.Warn("docker runtime not reachable at startup", slog.String("error", err.Error()))
	}

	st, err := store.New(cfg.BufferCapacity)
	if err != nil {
		logger.Error("failed to initialize sample store", slog.String("error", err.Error()))

		return
	}

	archiveConfig := archive.Config{}
	if err := env.ParseWithOptions(&archiveConfig, env.Options{Prefix: envPrefixArchive}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s archive configuration : %s", svcName, err.Error()))

		return
	}
	repo, closer, err := archive.New(archiveConfig)
	if err != nil {
		logger.Error("failed to initialize sample archive", slog.String("type", archiveConfig.Type), slog.String("error", err.Error()))

		return
	}
	if closer != nil {
		defer closer.Close()
	}

	registry := agent.NewRegistry(cfg.PurgeDelay)
	health := agent.NewHealth(logger)

	samplerCfg := agent.SamplerConfig{
		Interval:    cfg.SampleInterval,
		Timeout:     cfg.SampleTimeout,
		MaxFailures: cfg.MaxFailures,
		Concurrency: cfg.SampleConcurrency,
	}
	samples, failures, tracked := prometheus.MakeSamplerMetrics(svcName)
	samplerOpts := []agent.SamplerOption{
		agent.WithSamplerMetrics(agent.SamplerMetrics{
			Samples:  samples,
			Failures: failures,
			Tracked:  tracked,
		}),
	}
	if repo != nil {
		samplerOpts = append(samplerOpts, agent.WithArchive(repo))
	}
	sampler := agent.NewSampler(samplerCfg, rt, registry, st, health, logger, samplerOpts...)
	aggregator := agent.NewAggregator(registry, st, sampler.Interval())

	svc := agent.NewService(registry, st, aggregator, rt, repo, health)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	if cfg.MQTTAddress != "" {
		pub, err := mqtt.NewPublisher(mqtt.Config{
			Address:  cfg.MQTTAddress,
			QoS:      cfg.MQTTQoS,
			ID:       cfg.InstanceID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
			Timeout:  cfg.MQTTTimeout,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize mqtt publisher", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := pub.Disconnect(context.Background()); err != nil {
				logger.Error("failed to disconnect mqtt publisher", slog.Any("error", err))
			}
		}()

		exporter := agent.NewExporter(pub, svc, registry, cfg.InstanceID, cfg.ExportInterval, logger)
		g.Go(func() error {
			return exporter.Run(ctx)
		})
	}

	g.Go(func() error {
		return sampler.Run(ctx)
	})

	purger := agent.NewPurger(registry, st, repo, sampler.Interval(), logger)
	g.Go(func() error {
		return purger.Run(ctx)
	})

	if cfg.WatchEvents {
		watcher := agent.NewWatcher(rt, registry, sampler.Interval(), logger)
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, sampler.Interval(), logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}
