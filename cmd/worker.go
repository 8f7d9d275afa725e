package cmd

import (
	"time"

	"margin/core"
	"margin/service/oracle"
	"margin/service/valuation"
	"margin/store/memory"
	"margin/worker"
	"margin/worker/accrual"
	"margin/worker/health"

	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "margin job worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)
		ctx = logger.WithContext(ctx, log)

		store := memory.New()

		group, err := core.NewAssetGroup(cfg.Group, time.Now())
		if err != nil {
			return err
		}

		if err := store.Groups().Save(ctx, group); err != nil {
			return err
		}

		log.Infof("group %s loaded, %d assets", group.ID, core.NumAssets)

		workers := []worker.IJob{
			accrual.New(&cfg, store.Groups(), nil),
			health.New(&cfg, store.Groups(), store.Accounts(), oracle.New(cfg.Oracle.Medians), valuation.New()),
		}

		for _, w := range workers {
			if err := w.Start(); err != nil {
				return err
			}
		}

		<-ctx.Done()

		for _, w := range workers {
			w.Stop()
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
