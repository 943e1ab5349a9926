package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/cropsure/cropsure-api/internal/api/metrics"
)

const runTimeout = 30 * time.Second

// Cleaner drops expired sessions and reports how many were removed.
type Cleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Janitor periodically purges expired sessions on a cron schedule.
type Janitor struct {
	cron    *cron.Cron
	cleaner Cleaner
	log     zerolog.Logger
}

// New registers the cleanup job. schedule accepts standard five-field cron
// expressions and descriptors such as "@every 1h", evaluated in UTC.
func New(schedule string, cleaner Cleaner, log zerolog.Logger) (*Janitor, error) {
	cl := cronLogger{log: log}
	j := &Janitor{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		cleaner: cleaner,
		log:     log,
	}

	if _, err := j.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		_, _ = j.RunOnce(ctx)
	}); err != nil {
		return nil, fmt.Errorf("session cleanup schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish or ctx to end.
func (j *Janitor) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce performs a single cleanup pass.
func (j *Janitor) RunOnce(ctx context.Context) (int64, error) {
	n, err := j.cleaner.CleanupExpired(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("expired session cleanup failed")
		return 0, err
	}

	metrics.SessionsExpiredTotal.Add(float64(n))
	if n > 0 {
		j.log.Info().Int64("removed", n).Msg("expired sessions removed")
	}
	return n, nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
