package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kartoza/recession-dashboard/internal/forecast"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check payload files for structural errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				p, err := forecast.LoadFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s\n  %v\n", path, err)
					continue
				}
				fmt.Fprintf(out, "OK   %s (%d models, %d observations, last updated %s)\n",
					path, len(p.Models), len(p.HistoricalData), p.LastUpdated)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d payloads invalid", failed, len(args))
			}
			return nil
		},
	}
}
