// file: internals/features/school/assignments/scheduler/cleanup_reaper.go
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"classroom_backend/internals/features/school/assignments/repository"
	helperOSS "classroom_backend/internals/helpers/oss"
)

const runTimeout = 4 * time.Minute

// CleanupReaper drains object_cleanup_backlog: keys whose deletion gave up
// during a request are retried here until the store accepts them.
type CleanupReaper struct {
	Store   *repository.Store
	Objects helperOSS.ObjectStore
	Log     *zap.Logger
	Batch   int
}

type ReapResult struct {
	Scanned int
	Deleted int
	Failed  int
	// Kept counts keys dropped from the backlog because a submission uses them again.
	Kept int
}

// RunOnce processes up to Batch backlog rows.
func (r *CleanupReaper) RunOnce(ctx context.Context) (ReapResult, error) {
	var res ReapResult
	batch := r.Batch
	if batch <= 0 {
		batch = 200
	}

	rows, err := r.Store.Backlog.Oldest(ctx, batch)
	if err != nil {
		return res, err
	}
	res.Scanned = len(rows)
	if len(rows) == 0 {
		return res, nil
	}

	all := make([]string, 0, len(rows))
	for _, row := range rows {
		all = append(all, row.ObjectCleanupKey)
	}
	live, err := r.Store.Submissions.ReferencedKeys(ctx, all)
	if err != nil {
		return res, err
	}
	if len(live) > 0 {
		if err := r.Store.Backlog.Forget(ctx, live); err != nil {
			return res, err
		}
		res.Kept = len(live)
		inUse := make(map[string]struct{}, len(live))
		for _, k := range live {
			inUse[k] = struct{}{}
		}
		kept := rows[:0]
		for _, row := range rows {
			if _, ok := inUse[row.ObjectCleanupKey]; !ok {
				kept = append(kept, row)
			}
		}
		rows = kept
		if len(rows) == 0 {
			return res, nil
		}
	}

	keys := make([]string, 0, len(rows))
	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.ObjectCleanupKey)
		ids = append(ids, row.ObjectCleanupID)
	}

	if err := r.Objects.DeleteObjects(ctx, keys); err == nil {
		res.Deleted = len(rows)
		return res, r.Store.Backlog.Remove(ctx, ids)
	}

	// batch call failed: go key by key so one bad key does not hold the rest
	var done, failed []uint64
	var lastErr error
	for _, row := range rows {
		err := r.Objects.DeleteObject(ctx, row.ObjectCleanupKey)
		if err == nil || errors.Is(err, helperOSS.ErrObjectNotFound) {
			done = append(done, row.ObjectCleanupID)
			continue
		}
		if ctx.Err() != nil {
			break
		}
		failed = append(failed, row.ObjectCleanupID)
		lastErr = err
	}
	res.Deleted, res.Failed = len(done), len(failed)

	if err := r.Store.Backlog.Remove(ctx, done); err != nil {
		return res, err
	}
	return res, r.Store.Backlog.MarkFailed(ctx, failed, lastErr)
}

// StartCleanupReaperCron schedules RunOnce; overlapping runs are skipped.
func StartCleanupReaperCron(r *CleanupReaper, schedule string) (*cron.Cron, error) {
	lg := r.Log
	if lg == nil {
		lg = zap.NewNop()
	}
	lg = lg.Named("cleanup-reaper")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		res, err := r.RunOnce(ctx)
		if err != nil {
			lg.Warn("run failed", zap.Error(err))
			return
		}
		if res.Scanned > 0 {
			lg.Info("run finished",
				zap.Int("scanned", res.Scanned),
				zap.Int("deleted", res.Deleted),
				zap.Int("failed", res.Failed),
				zap.Int("kept", res.Kept),
			)
		}
	})
	if err != nil {
		return nil, err
	}
	lg.Info("started", zap.String("schedule", schedule), zap.Int("batch", r.Batch))
	c.Start()
	return c, nil
}
