package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kartoza/recession-dashboard/internal/forecast"
	"github.com/kartoza/recession-dashboard/internal/projection"
)

// projectOptions holds the selection flags shared by the project subcommands
type projectOptions struct {
	payload string
	horizon string
	models  []string
	view    string
	period  string
	output  string
}

func newProjectCmd(a *app) *cobra.Command {
	o := &projectOptions{}

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Print projections for a payload file",
		Long: `Loads a payload and prints one projection as JSON or YAML. Without
--models every model is selected; --models "" selects none.`,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.payload, "payload", "", "payload file (defaults to DASHBOARD_PAYLOAD)")
	flags.StringVar(&o.horizon, "horizon", string(projection.DefaultHorizon), "forecast horizon: 1M, 3M, 6M or 12M")
	flags.StringSliceVar(&o.models, "models", nil, "comma separated model codes")
	flags.StringVar(&o.view, "view", string(projection.ViewCurrent), "dashboard view: current, historical or comparison")
	flags.StringVar(&o.period, "period", projection.DefaultPeriod, "historical period id")
	flags.StringVarP(&o.output, "output", "o", "json", "output format: json or yaml")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "current",
			Short: "Bars and risk narrative for one horizon",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				p, sel, err := o.selection(cmd, a)
				if err != nil {
					return err
				}
				fc, err := p.Forecast(sel.Horizon)
				if err != nil {
					return err
				}
				bars, err := projection.CurrentHorizon(p, sel.Horizon, sel.Models)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), o.output, map[string]any{
					"horizon":    sel.Horizon,
					"targetDate": fc.TargetDate,
					"bars":       bars,
					"risk":       projection.RiskNarrative(bars),
				})
			},
		},
		&cobra.Command{
			Use:   "historical",
			Short: "Observations inside a historical period",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				p, sel, err := o.selection(cmd, a)
				if err != nil {
					return err
				}
				period, err := projection.LookupPeriod(sel.Period)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), o.output, map[string]any{
					"period":       period,
					"observations": projection.HistoricalWindow(p.HistoricalData, period),
				})
			},
		},
		&cobra.Command{
			Use:   "comparison",
			Short: "Cross-horizon comparison rows",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				p, sel, err := o.selection(cmd, a)
				if err != nil {
					return err
				}
				rows, err := projection.CrossHorizon(p, sel.Models)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), o.output, rows)
			},
		},
		&cobra.Command{
			Use:   "dashboard",
			Short: "Every projection for the selection",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				p, sel, err := o.selection(cmd, a)
				if err != nil {
					return err
				}
				dash, err := projection.Build(p, sel)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), o.output, dash)
			},
		},
	)
	return cmd
}

// selection loads the payload and resolves the flags against it
func (o *projectOptions) selection(cmd *cobra.Command, a *app) (*forecast.Payload, projection.Selection, error) {
	path := o.payload
	if path == "" {
		path = a.cfg.PayloadPath
	}
	p, err := forecast.LoadFile(path)
	if err != nil {
		return nil, projection.Selection{}, err
	}

	sel := projection.DefaultSelection(p)
	if sel.Horizon, err = forecast.ParseHorizon(o.horizon); err != nil {
		return nil, sel, err
	}
	if cmd.Flags().Changed("models") {
		sel.Models = make([]string, 0, len(o.models))
		for _, id := range o.models {
			if id = strings.TrimSpace(id); id != "" {
				sel.Models = append(sel.Models, id)
			}
		}
	}
	if sel.View, err = projection.ParseView(o.view); err != nil {
		return nil, sel, err
	}
	sel.Period = o.period

	return p, sel, sel.Validate(p)
}

// writeOutput prints v as indented JSON, or as YAML converted from the
// JSON form so custom JSON encodings carry over
func writeOutput(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	switch format {
	case "json":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		var tree any
		if err := json.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("failed to convert output: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tree); err != nil {
			return fmt.Errorf("failed to write yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}
