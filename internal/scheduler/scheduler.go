package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/riponahmed2201/taskmgr/internal/repo"
	"github.com/robfig/cron/v3"
)

// Run starts the background housekeeping scheduler. Currently its only job
// is pruning audit log rows older than retentionDays, every night at 03:00.
// It blocks until ctx is canceled.
func Run(ctx context.Context, auditRepo *repo.AuditRepo, retentionDays int) {
	c := cron.New()

	prune := func() {
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		n, err := auditRepo.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			slog.Error("scheduler: audit prune failed", "error", err)
			return
		}
		slog.Info("scheduler: audit log pruned", "removed", n, "cutoff", cutoff)
	}

	if _, err := c.AddFunc("0 3 * * *", prune); err != nil {
		slog.Error("scheduler: invalid cron expression", "error", err)
		return
	}

	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
}
