package metrics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultStatsSchedule samples the active workflow count twice a minute.
const DefaultStatsSchedule = "@every 30s"

// SessionCounter counts sessions with an active workflow.
type SessionCounter func(ctx context.Context) (int, error)

// StatsReporter periodically samples the active workflow count into a gauge.
type StatsReporter struct {
	cron     *cron.Cron
	counter  SessionCounter
	recorder Recorder
	logger   *slog.Logger
}

// NewStatsReporter schedules sampling with a standard cron spec or descriptor such as "@every 30s".
func NewStatsReporter(schedule string, counter SessionCounter, recorder Recorder, logger *slog.Logger) (*StatsReporter, error) {
	if schedule == "" {
		schedule = DefaultStatsSchedule
	}

	logger = logger.With("module", "stats_reporter")
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))

	r := &StatsReporter{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLogger),
			cron.Recover(cronLogger),
		)),
		counter:  counter,
		recorder: recorder,
		logger:   logger,
	}

	if _, err := r.cron.AddFunc(schedule, func() { r.Sample(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid stats schedule '%s': %w", schedule, err)
	}

	return r, nil
}

// Sample records the current count once.
func (r *StatsReporter) Sample(ctx context.Context) {
	count, err := r.counter(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to count active workflows", "error", err)

		return
	}

	r.recorder.SetActiveWorkflows(count)
	r.logger.DebugContext(ctx, "Sampled active workflows", "active_workflows", count)
}

func (r *StatsReporter) Start() {
	r.cron.Start()
}

// Stop halts scheduling and waits for a running sample to finish.
func (r *StatsReporter) Stop() {
	<-r.cron.Stop().Done()
}
