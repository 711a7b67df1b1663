package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"districtrisk/internal"
	"districtrisk/internal/config"
	"districtrisk/internal/container"
	"districtrisk/internal/dataset"
	"districtrisk/internal/risk"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// bootstrap loads configuration and the dataset the same way the server does.
func bootstrap(ctx context.Context) (*container.Container, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	internal.DefaultLogger.SetLevel(cfg.Log.Level)
	cfg.Metrics.Enabled = false

	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// withEngine runs fn against a freshly loaded engine.
func withEngine(cmd *cobra.Command, fn func(c *container.Container, e *risk.Engine) error) error {
	c, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer c.Shutdown(context.Background())
	return fn(c, c.Engine())
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newStatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "states",
		Short: "List states and their district counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(_ *container.Container, e *risk.Engine) error {
				idx := e.Index()
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "STATE\tDISTRICTS")
				for _, state := range idx.States() {
					districts, err := idx.Districts(state)
					if err != nil {
						return err
					}
					fmt.Fprintf(tw, "%s\t%d\n", state, len(districts))
				}
				return tw.Flush()
			})
		},
	}
}

func newTopCmd() *cobra.Command {
	var limit int
	var order string
	var state string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Rank districts by mean risk score",
		Long: `Rank districts by mean service-stress risk over the loaded dataset.

Example: districtrisk-cli top --limit 5 --state Kerala --order desc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := risk.ParseOrder(order)
			if err != nil {
				return err
			}
			return withEngine(cmd, func(_ *container.Container, e *risk.Engine) error {
				population, err := e.Index().Filter(dataset.Filter{State: state})
				if err != nil {
					return err
				}
				entries, err := e.Top(limit, population, dir)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), entries)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RANK\tSTATE\tDISTRICT\tAVERAGE RISK\tROWS")
				for _, entry := range entries {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%.4f\t%d\n", entry.Rank, entry.State, entry.District, entry.Score, entry.Rows)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of districts to return")
	cmd.Flags().StringVar(&order, "order", "desc", "Ranking order: asc|desc")
	cmd.Flags().StringVar(&state, "state", "", "Restrict the ranking to one state")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newHotspotsCmd() *cobra.Command {
	var sensitivity float64

	cmd := &cobra.Command{
		Use:   "hotspots [state]",
		Short: "Flag districts whose mean risk is unusually high within their state",
		Long: `Flag hotspot districts: those whose mean risk exceeds the state mean by more
than sensitivity standard deviations. Without a state every state is checked.

Example: districtrisk-cli hotspots Kerala --sensitivity 1.5`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(_ *container.Container, e *risk.Engine) error {
				if len(args) == 1 {
					report, err := e.Hotspots(args[0], sensitivity)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), report)
				}
				reports, err := e.AllHotspots(cmd.Context(), sensitivity)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), reports)
			})
		},
	}

	cmd.Flags().Float64Var(&sensitivity, "sensitivity", 0, "Standard deviations above the state mean (0 uses HOTSPOT_SENSITIVITY)")
	return cmd
}

func newTrendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trend [state] [district]",
		Short: "Show a district's risk history with slope and volatility",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(_ *container.Container, e *risk.Engine) error {
				trend, err := e.Trend(args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), trend)
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	var format string
	var out string
	var state string
	var decimals int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ranked district table as CSV or XLSX",
		Long: `Write the ranked district table: per-district means of every numeric
column, ordered by mean risk descending.

Example: districtrisk-cli export --format xlsx --out ranked.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("unknown export format %q", format)
			}
			return withEngine(cmd, func(c *container.Container, e *risk.Engine) error {
				population, err := e.Index().Filter(dataset.Filter{State: state})
				if err != nil {
					return err
				}
				places := c.Config.Risk.ExportDecimals
				if cmd.Flags().Changed("decimals") {
					places = decimals
				}

				var buf bytes.Buffer
				rows := e.Export(population)
				if format == "xlsx" {
					err = risk.WriteXLSX(&buf, rows, places)
				} else {
					err = risk.WriteCSV(&buf, rows, places)
				}
				if err != nil {
					return err
				}

				if out == "" || out == "-" {
					_, err = cmd.OutOrStdout().Write(buf.Bytes())
					return err
				}
				if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d districts to %s\n", len(rows), out)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv|xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (default stdout)")
	cmd.Flags().StringVar(&state, "state", "", "Restrict the export to one state")
	cmd.Flags().IntVar(&decimals, "decimals", -1, "Fixed decimal places; -1 keeps full precision")
	return cmd
}
