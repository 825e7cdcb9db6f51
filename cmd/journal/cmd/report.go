package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"trading-journal-go/internal/export"
	"trading-journal-go/internal/models"
	"trading-journal-go/internal/stats"
)

func newStatsCmd(opts *globalOptions) *cobra.Command {
	var showDaily bool

	c := &cobra.Command{
		Use:   "stats",
		Short: "Show performance statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.close()

			out := cmd.OutOrStdout()
			if err := printKPI(out, e.sess.KPI()); err != nil {
				return err
			}
			if showDaily {
				fmt.Fprintln(out)
				return printDaily(out, e.sess.Charts().Daily)
			}
			return nil
		},
	}
	c.Flags().BoolVar(&showDaily, "daily", false, "also print profit per day")
	return c
}

func printKPI(w io.Writer, k models.KPI) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Balance\t$%s\n", k.CurrentBalance.StringFixed(2))
	fmt.Fprintf(tw, "Total P/L\t$%s (%s%%)\n", k.TotalProfit.StringFixed(2), k.ReturnPct.StringFixed(2))
	fmt.Fprintf(tw, "Trades\t%d (%d W / %d L / %d BE)\n", k.TotalTrades, k.Wins, k.Losses, k.BreakEven)
	fmt.Fprintf(tw, "Win rate\t%.1f%%\n", k.WinRate)
	fmt.Fprintf(tw, "Avg win\t$%s\n", k.AvgProfit.StringFixed(2))
	fmt.Fprintf(tw, "Avg loss\t$%s\n", k.AvgLoss.StringFixed(2))
	fmt.Fprintf(tw, "Best pair\t%s\n", k.BestPair)
	fmt.Fprintf(tw, "Worst pair\t%s\n", k.WorstPair)
	return tw.Flush()
}

func printDaily(w io.Writer, days []stats.DailyPoint) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tP/L")
	for _, d := range days {
		fmt.Fprintf(tw, "%s\t%s\n", d.Date, d.Profit.StringFixed(2))
	}
	return tw.Flush()
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var outPath string

	c := &cobra.Command{
		Use:   "export",
		Short: "Write all trades as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.close()

			if outPath == "-" {
				out := cmd.OutOrStdout()
				if err := e.sess.ExportCSV(out); err != nil {
					return err
				}
				_, err := io.WriteString(out, "\n")
				return err
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create export: %w", err)
			}
			if err := e.sess.ExportCSV(f); err != nil {
				f.Close()
				return fmt.Errorf("write export: %w", err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d trades to %s\n", len(e.sess.Snapshot().Trades), outPath)
			return nil
		},
	}
	c.Flags().StringVarP(&outPath, "out", "o", export.Filename, `output file, "-" for stdout`)
	return c
}
