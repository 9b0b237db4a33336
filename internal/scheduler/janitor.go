// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"herdsnap/internal/blob"
	"herdsnap/internal/logger"
	"herdsnap/internal/metrics"
)

// DefaultSchedule and DefaultGrace apply when the janitor is configured with zero values.
const (
	DefaultSchedule = "@every 6h"
	DefaultGrace    = time.Hour
)

// ArchiveReferencer reports which archive keys are still referenced by a snapshot.
type ArchiveReferencer interface {
	ReferencedArchives(keys []string) (map[string]bool, error)
}

// ArchiveJanitor deletes archived uploads that no snapshot references. They
// appear when the process dies between writing the archive and committing
// the snapshot. The grace period protects ingestions still in flight.
type ArchiveJanitor struct {
	cron     *cron.Cron
	schedule string
	grace    time.Duration
	store    blob.Store
	refs     ArchiveReferencer
	now      func() time.Time
	log      *zap.SugaredLogger
}

// NewArchiveJanitor creates a janitor for store.
func NewArchiveJanitor(store blob.Store, refs ArchiveReferencer, schedule string, grace time.Duration) *ArchiveJanitor {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &ArchiveJanitor{
		cron:     cron.New(),
		schedule: schedule,
		grace:    grace,
		store:    store,
		refs:     refs,
		now:      time.Now,
		log:      logger.Named("janitor"),
	}
}

// Start schedules the sweep and starts the cron loop.
func (j *ArchiveJanitor) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := j.Sweep(ctx); err != nil {
			j.log.Errorw("archive sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	j.log.Infow("starting archive janitor", "schedule", j.schedule, "grace", j.grace)
	j.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (j *ArchiveJanitor) Stop() {
	<-j.cron.Stop().Done()
}

// Sweep deletes unreferenced archives older than the grace period and
// returns how many were removed.
func (j *ArchiveJanitor) Sweep(ctx context.Context) (int, error) {
	infos, err := j.store.List(ctx, blob.ArchivePrefix)
	if err != nil {
		return 0, err
	}

	cutoff := j.now().Add(-j.grace)
	var candidates []string
	for _, info := range infos {
		if info.LastModified.Before(cutoff) {
			candidates = append(candidates, info.Key)
		}
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	referenced, err := j.refs.ReferencedArchives(candidates)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range candidates {
		if referenced[key] {
			continue
		}
		ok, err := j.store.Delete(ctx, key)
		if err != nil {
			j.log.Warnw("failed to delete orphaned archive", "key", key, "error", err)
			continue
		}
		if ok {
			removed++
			metrics.ArchivesSwept.Inc()
		}
	}
	if removed > 0 {
		j.log.Infow("orphaned archives removed", "count", removed)
	}
	return removed, nil
}
