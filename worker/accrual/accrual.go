package accrual

import (
	"context"
	"fmt"
	"time"

	"margin/core"
	"margin/internal/interest"
	"margin/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Worker accrual worker. Ticks the interest indexes of the group
// forward so idle periods still accrue before the next operation.
type Worker struct {
	worker.BaseJob
	Config     *core.Config
	GroupStore core.IGroupStore
	Clock      func() time.Time
}

// New new accrual worker
func New(cfg *core.Config, groupStore core.IGroupStore, clock func() time.Time) *Worker {
	if clock == nil {
		clock = time.Now
	}

	job := Worker{
		Config:     cfg,
		GroupStore: groupStore,
		Clock:      clock,
	}

	l, _ := time.LoadLocation(job.Config.App.Location)
	job.Cron = cron.New(cron.WithLocation(l))
	spec := fmt.Sprintf("@every %s", job.Config.App.AccrualInterval)
	job.Cron.AddFunc(spec, job.Run)
	job.OnWork = func() error {
		return job.onWork(context.Background())
	}

	return &job
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "accrual")

	group, err := w.GroupStore.Find(ctx, w.Config.Group.ID)
	if err != nil {
		log.Errorln(err)
		return err
	}

	if err := interest.Accrue(ctx, group, w.Clock()); err != nil {
		log.Errorln(err)
		return err
	}

	if err := w.GroupStore.Save(ctx, group); err != nil {
		log.Errorln(err)
		return err
	}

	log.Debugf("indexes advanced to %d", group.Assets[0].Index.LastUpdate)
	return nil
}
