package health

import (
	"context"
	"fmt"
	"time"

	"margin/core"
	"margin/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Worker health scanner. Walks every account and reports the ones
// below the maintenance ratio so a liquidator can act on them.
type Worker struct {
	worker.BaseJob
	Config       *core.Config
	GroupStore   core.IGroupStore
	AccountStore core.IAccountStore
	Oracles      core.IOracleService
	Valuations   core.IValuationService
}

// New new health worker
func New(cfg *core.Config, groupStore core.IGroupStore, accountStore core.IAccountStore, oracles core.IOracleService, valuations core.IValuationService) *Worker {
	job := Worker{
		Config:       cfg,
		GroupStore:   groupStore,
		AccountStore: accountStore,
		Oracles:      oracles,
		Valuations:   valuations,
	}

	l, _ := time.LoadLocation(job.Config.App.Location)
	job.Cron = cron.New(cron.WithLocation(l))
	spec := fmt.Sprintf("@every %s", job.Config.App.ScanInterval)
	job.Cron.AddFunc(spec, job.Run)
	job.OnWork = func() error {
		return job.onWork(context.Background())
	}

	return &job
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "health")

	group, err := w.GroupStore.Find(ctx, w.Config.Group.ID)
	if err != nil {
		log.Errorln(err)
		return err
	}

	feeds, err := w.Oracles.Feeds(ctx, group)
	if err != nil {
		log.Errorln(err)
		return err
	}

	prices, err := w.Valuations.Prices(ctx, group, feeds)
	if err != nil {
		log.Errorln(err)
		return err
	}

	accounts, err := w.AccountStore.All(ctx)
	if err != nil {
		log.Errorln(err)
		return err
	}

	for _, account := range accounts {
		if account.GroupID != group.ID {
			continue
		}

		// resting venue records live outside the store; those accounts
		// need the venue snapshot a liquidator brings along
		if hasOpenOrders(account) {
			log.Debugf("account %s skipped, orders resting on the venue", account.ID)
			continue
		}

		ratio, err := w.Valuations.CollateralRatio(ctx, group, account, prices, [core.NumMarkets]*core.OpenOrders{})
		if err != nil {
			log.WithField("account", account.ID).Errorln(err)
			continue
		}

		if ratio.LessThan(group.MaintRatio) {
			equity, err := w.Valuations.Equity(ctx, group, account, prices, [core.NumMarkets]*core.OpenOrders{})
			if err != nil {
				log.WithField("account", account.ID).Errorln(err)
				continue
			}

			log.Warnf("account %s liquidatable, ratio %s, equity %s", account.ID, ratio, equity)
		}
	}

	return nil
}

func hasOpenOrders(account *core.MarginAccount) bool {
	for _, ref := range account.OpenOrders {
		if ref != "" {
			return true
		}
	}

	return false
}
