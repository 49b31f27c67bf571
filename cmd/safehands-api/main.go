package main

import (
	"context"
	"os"

	"github.com/safehands/guide/pkg/generation"
	"github.com/safehands/guide/pkg/metrics"
	"github.com/safehands/guide/pkg/persistence"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	cmd := &cli.Command{
		Name:                  "safehands-api",
		Usage:                 "Guide users through multi-step tasks one step at a time",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "store-url",
				Usage:   "State store URL (memory:// or redis://host:port/db)",
				Value:   "memory://",
				Sources: cli.EnvVars("STORE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka, none)",
				Value:   "none",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers for the kafka event bus",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "llm-provider",
				Usage:   "Text generation provider for digression answers (openai, anthropic, none)",
				Value:   "none",
				Sources: cli.EnvVars("LLM_PROVIDER"),
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "OpenAI API key",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "anthropic-api-key",
				Usage:   "Anthropic API key",
				Sources: cli.EnvVars("ANTHROPIC_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "llm-model",
				Usage:   "Model name passed to the text generation provider",
				Sources: cli.EnvVars("LLM_MODEL"),
			},
			&cli.DurationFlag{
				Name:    "generation-timeout",
				Usage:   "Upper bound on a single digression answer",
				Value:   generation.DefaultTimeout,
				Sources: cli.EnvVars("GENERATION_TIMEOUT"),
			},
			&cli.DurationFlag{
				Name:    "workflow-ttl",
				Usage:   "Idle lifetime of a workflow session",
				Value:   persistence.WorkflowNamespace.TTL,
				Sources: cli.EnvVars("WORKFLOW_TTL"),
			},
			&cli.DurationFlag{
				Name:    "interruption-ttl",
				Usage:   "Lifetime of an unacknowledged interruption record",
				Value:   persistence.InterruptionNamespace.TTL,
				Sources: cli.EnvVars("INTERRUPTION_TTL"),
			},
			&cli.StringFlag{
				Name:    "catalog-path",
				Usage:   "Optional YAML workflow catalog; the built-in food order workflow is used when empty",
				Sources: cli.EnvVars("CATALOG_PATH"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "stats-schedule",
				Usage:   "Cron schedule for sampling the active session gauge",
				Value:   metrics.DefaultStatsSchedule,
				Sources: cli.EnvVars("STATS_SCHEDULE"),
			},
		},
		Commands: []*cli.Command{
			NewValidateCommand(),
		},
		Action: runAPI,
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
