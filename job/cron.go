package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"convert-gateway/logging"
)

// Sweeper deletes scratch directories older than a cutoff.
type Sweeper interface {
	Sweep(cutoff time.Time) ([]string, error)
}

// Expirer marks swept conversions in history. May be nil.
type Expirer interface {
	ExpireConversions(ctx context.Context, ids []string) (int64, error)
}

// SweepJob removes scratch entries older than Retention.
type SweepJob struct {
	Scratch   Sweeper
	Records   Expirer
	Retention time.Duration
	Log       logging.Logger
	Now       func() time.Time
}

// Run performs one sweep and returns how many ids were removed.
func (j *SweepJob) Run(ctx context.Context) (int, error) {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	log := j.Log
	if log == nil {
		log = logging.NoOp()
	}

	removed, err := j.Scratch.Sweep(now().Add(-j.Retention))
	if err != nil {
		log.Warn("scratch sweep incomplete", "error", err)
	}

	if j.Records != nil && len(removed) > 0 {
		rows, expErr := j.Records.ExpireConversions(ctx, removed)
		if expErr != nil {
			log.Error("expiring conversion records failed", "error", expErr)
			if err == nil {
				err = expErr
			}
		} else {
			log.Info("expired conversion records", "rows", rows)
		}
	}

	log.Info("scratch sweep finished", "removed", len(removed))
	return len(removed), err
}

// StartCronJob schedules the sweep. schedule has six fields, seconds first.
func StartCronJob(schedule string, j *SweepJob) (*cron.Cron, error) {
	if j.Retention <= 0 {
		return nil, fmt.Errorf("sweep retention must be positive, got %s", j.Retention)
	}

	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_, _ = j.Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	c.Start()
	return c, nil
}
