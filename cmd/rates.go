package cmd

import (
	"fmt"

	"margin/core"
	"margin/internal/interest"
	"margin/pkg/fixnum"

	"github.com/spf13/cobra"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "print the borrow rate curve",
	RunE: func(cmd *cobra.Command, args []string) error {
		year := fixnum.FromUint(core.SecondsPerYear)

		for _, utilization := range []string{"0", "0.1", "0.3", "0.5", "0.7", "0.8", "0.9", "1"} {
			rate, err := interest.Rate(fixnum.MustNew(utilization))
			if err != nil {
				return err
			}

			yearly, err := rate.Mul(year)
			if err != nil {
				return err
			}

			fmt.Printf("utilization %-4s yearly rate %s\n", utilization, yearly)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(ratesCmd)
}
