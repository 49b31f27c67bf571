package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/safehands/guide/pkg/catalog"
	"github.com/safehands/guide/pkg/channels/kafka"
	"github.com/safehands/guide/pkg/cmd"
	"github.com/safehands/guide/pkg/interruption"
	"github.com/safehands/guide/pkg/log"
	"github.com/safehands/guide/pkg/metrics"
	"github.com/safehands/guide/pkg/otelhelper"
	"github.com/safehands/guide/pkg/persistence"
	"github.com/safehands/guide/pkg/workflow"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "safehands-api"

func runAPI(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("api")

	logger.InfoContext(ctx, "Initializing SafeHands API")

	cat, err := loadCatalog(command.String("catalog-path"))
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(registry)

	tracer, shutdownTracer, err := newTracer(ctx, command.Bool("otel-enabled"))
	if err != nil {
		return err
	}

	defer func() {
		if err := shutdownTracer(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
		}
	}()

	store, err := cmd.NewStore(ctx, logger, command.String("store-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := store.Close(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to close store", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(
		command.String("event-bus"),
		kafka.ParseBrokers(command.String("kafka-brokers")),
		serviceName,
		logger,
	)
	if err != nil {
		return err
	}

	if eventBus != nil {
		defer func() {
			if err := eventBus.Close(); err != nil {
				logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
			}
		}()

		if err := interruption.Watch(ctx, eventBus, logger); err != nil {
			return fmt.Errorf("failed to subscribe to interruption events: %w", err)
		}
	}

	generator, err := cmd.NewGenerator(cmd.GeneratorConfig{
		Provider:        command.String("llm-provider"),
		OpenAIAPIKey:    command.String("openai-api-key"),
		AnthropicAPIKey: command.String("anthropic-api-key"),
		Model:           command.String("llm-model"),
	}, recorder)
	if err != nil {
		return err
	}

	engineConfig := workflow.Config{
		Store: store,
		WorkflowNamespace: persistence.Namespace{
			Prefix: persistence.WorkflowNamespace.Prefix,
			TTL:    command.Duration("workflow-ttl"),
		},
		InterruptionNamespace: persistence.Namespace{
			Prefix: persistence.InterruptionNamespace.Prefix,
			TTL:    command.Duration("interruption-ttl"),
		},
		Catalog:           cat,
		Generator:         generator,
		GenerationTimeout: command.Duration("generation-timeout"),
		Recorder:          recorder,
		Tracer:            tracer,
		Publisher:         eventBus,
		Logger:            logger,
	}

	engine, err := workflow.NewEngine(engineConfig)
	if err != nil {
		return fmt.Errorf("failed to create workflow engine: %w", err)
	}

	stats, err := metrics.NewStatsReporter(command.String("stats-schedule"), engine.CountActiveSessions, recorder, logger)
	if err != nil {
		return err
	}

	stats.Start()
	defer stats.Stop()

	api := NewAPI(logger, engine, cat, registry)

	if err := api.Start(command.Int("port")); err != nil {
		logger.ErrorContext(ctx, "Failed to start API server", "error", err)

		return err
	}

	return nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}

	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	return cat, nil
}

func newTracer(ctx context.Context, enabled bool) (trace.Tracer, otelhelper.ShutdownFunc, error) {
	if !enabled {
		return otelhelper.NoopTracer(), func(context.Context) error { return nil }, nil
	}

	tracer, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	return tracer, shutdown, nil
}
