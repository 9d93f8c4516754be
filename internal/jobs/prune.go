package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pruner deletes attempt records older than a cutoff
type Pruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneJob periodically removes old verification attempts
type PruneJob struct {
	pruner    Pruner
	schedule  string
	retention time.Duration
	logger    *zap.Logger
	cron      *cron.Cron
	now       func() time.Time
}

func NewPruneJob(pruner Pruner, schedule string, retention time.Duration, logger *zap.Logger) *PruneJob {
	return &PruneJob{
		pruner:    pruner,
		schedule:  schedule,
		retention: retention,
		logger:    logger,
		cron:      cron.New(),
		now:       time.Now,
	}
}

// Start schedules the job. An invalid cron expression is returned as an error.
func (j *PruneJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		if _, err := j.RunPrune(context.Background()); err != nil {
			j.logger.Error("Prune job failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule prune job: %w", err)
	}

	j.cron.Start()
	j.logger.Info("Attempt prune job started",
		zap.String("schedule", j.schedule),
		zap.Duration("retention", j.retention))
	return nil
}

// Stop stops the scheduler and waits for a running prune to finish.
func (j *PruneJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
		j.logger.Info("Attempt prune job stopped")
	}
}

// RunPrune performs a single prune run
func (j *PruneJob) RunPrune(ctx context.Context) (int64, error) {
	cutoff := j.now().Add(-j.retention)
	removed, err := j.pruner.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	j.logger.Info("Pruned verification attempts",
		zap.Int64("removed", removed),
		zap.Time("cutoff", cutoff))
	return removed, nil
}
