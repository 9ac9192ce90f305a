package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kartoza/recession-dashboard/internal/forecast"
	"github.com/kartoza/recession-dashboard/internal/synth"
)

func newGenerateCmd() *cobra.Command {
	var (
		out    string
		format string
		seed   uint64
		start  string
		asOf   string
		lag    int
	)

	defaults := synth.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic forecast payload",
		Long: `Generates a deterministic synthetic payload with five models, monthly
observations and the four forecast horizons. Recession flags follow the
NBER dated recessions. The same seed always produces the same payload.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := synth.DefaultOptions()
			opts.Seed = seed
			opts.Lag = lag

			var err error
			if opts.Start, err = parseMonth(start); err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			if opts.AsOf, err = parseMonth(asOf); err != nil {
				return fmt.Errorf("--as-of: %w", err)
			}

			p, err := synth.Generate(opts)
			if err != nil {
				return err
			}

			f := forecast.Format(format)
			if f == "" {
				f = forecast.FormatJSON
				if out != "" {
					if f, err = forecast.FormatFromPath(out); err != nil {
						return err
					}
				}
			}

			if out == "" {
				return forecast.Encode(cmd.OutOrStdout(), p, f)
			}
			if err := writeFile(out, func(w io.Writer) error {
				return forecast.Encode(w, p, f)
			}); err != nil {
				return err
			}

			log.Info().
				Str("path", out).
				Uint64("seed", seed).
				Int("observations", len(p.HistoricalData)).
				Str("last_updated", p.LastUpdated.String()).
				Msg("Synthetic payload written")
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file; stdout when empty")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml; defaults to the output file extension")
	cmd.Flags().Uint64Var(&seed, "seed", defaults.Seed, "random seed")
	cmd.Flags().StringVar(&start, "start", monthString(defaults.Start), "first observation month (YYYY-MM)")
	cmd.Flags().StringVar(&asOf, "as-of", monthString(defaults.AsOf), "last observation month (YYYY-MM)")
	cmd.Flags().IntVar(&lag, "lag", defaults.Lag, "trailing months without model predictions")
	return cmd
}

// parseMonth turns YYYY-MM into that month's last day
func parseMonth(s string) (forecast.Date, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return forecast.Date{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	return forecast.MonthEnd(t.Year(), t.Month()), nil
}

func monthString(d forecast.Date) string {
	return d.Time().Format("2006-01")
}

// writeFile writes through a temp file and renames it into place, so a
// watching server never sees a partial payload
func writeFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move payload into place: %w", err)
	}
	return nil
}
