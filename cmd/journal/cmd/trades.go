package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"trading-journal-go/internal/editor"
	"trading-journal-go/internal/filter"
	"trading-journal-go/internal/models"
)

func newListCmd(opts *globalOptions) *cobra.Command {
	var criteria filter.Criteria
	var result string

	c := &cobra.Command{
		Use:   "list",
		Short: "List trades, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.close()

			criteria.Result = models.Result(result)
			e.sess.SetFilters(criteria)
			return printTrades(cmd.OutOrStdout(), e.sess.Filtered())
		},
	}
	c.Flags().StringVarP(&criteria.Search, "search", "s", "", "substring of pair or notes")
	c.Flags().StringVar(&criteria.Pair, "pair", "", "exact pair")
	c.Flags().StringVar(&result, "result", "", "Win, Loss or BreakEven")
	return c
}

// formFlags binds the trade editor fields to flags.
type formFlags struct {
	date     string
	pair     string
	position string
	lot      string
	profit   string
	notes    string
}

func (f *formFlags) bind(c *cobra.Command, defaults models.TradeForm) {
	c.Flags().StringVar(&f.date, "date", defaults.DateStr, "trade day, YYYY-MM-DD")
	c.Flags().StringVar(&f.pair, "pair", defaults.Pair, "instrument, e.g. XAUUSD")
	c.Flags().StringVar(&f.position, "position", string(defaults.Position), "Buy or Sell")
	c.Flags().StringVar(&f.lot, "lot", defaults.Lot.String(), "lot size")
	c.Flags().StringVar(&f.profit, "profit", defaults.Profit.String(), "realized profit, negative for a loss")
	c.Flags().StringVar(&f.notes, "notes", defaults.Notes, "free text")
}

// apply overwrites the fields of form whose flags were set (or all of them when
// onlyChanged is false).
func (f *formFlags) apply(c *cobra.Command, form models.TradeForm, onlyChanged bool) (models.TradeForm, error) {
	set := func(name string) bool { return !onlyChanged || c.Flags().Changed(name) }

	if set("date") {
		form.DateStr = f.date
	}
	if set("pair") {
		form.Pair = f.pair
	}
	if set("position") {
		form.Position = models.Position(f.position)
	}
	if set("lot") {
		lot, err := decimal.NewFromString(f.lot)
		if err != nil {
			return form, fmt.Errorf("%w: lot %q is not a number", editor.ErrInvalidForm, f.lot)
		}
		form.Lot = lot
	}
	if set("profit") {
		profit, err := decimal.NewFromString(f.profit)
		if err != nil {
			return form, fmt.Errorf("%w: profit %q is not a number", editor.ErrInvalidForm, f.profit)
		}
		form.Profit = profit
	}
	if set("notes") {
		form.Notes = f.notes
	}
	return form, nil
}

func newAddCmd(opts *globalOptions) *cobra.Command {
	var flags formFlags

	c := &cobra.Command{
		Use:   "add",
		Short: "Record a trade",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := flags.apply(cmd, models.TradeForm{}, false)
			if err != nil {
				return err
			}

			e, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.sess.Submit(cmd.Context(), form, ""); err != nil {
				return e.bannerError(err)
			}
			created := e.sess.Snapshot().Trades[0]
			fmt.Fprintf(cmd.OutOrStdout(), "Saved trade %s\n", created.ID)
			return nil
		},
	}
	flags.bind(c, editor.DefaultForm(time.Now()))
	return c
}

func newEditCmd(opts *globalOptions) *cobra.Command {
	var flags formFlags

	c := &cobra.Command{
		Use:   "edit <trade-id>",
		Short: "Change a recorded trade; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.close()

			id := args[0]
			form, err := e.sess.StartEdit(id)
			if err != nil {
				return err
			}
			form, err = flags.apply(cmd, form, true)
			if err != nil {
				return err
			}

			if err := e.sess.Submit(cmd.Context(), form, id); err != nil {
				return e.bannerError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated trade %s\n", id)
			return nil
		},
	}
	flags.bind(c, models.TradeForm{})
	return c
}

func newDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trade-id>",
		Short: "Delete a trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.sess.Delete(cmd.Context(), args[0]); err != nil {
				return e.bannerError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted trade %s\n", args[0])
			return nil
		},
	}
}

func printTrades(w io.Writer, trades []models.Trade) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tPAIR\tPOSITION\tLOT\tPROFIT\tRESULT\tNOTES")
	for _, t := range trades {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.DisplayDate(), t.Pair, t.Position, t.Lot, t.Profit.StringFixed(2), t.Result, t.Notes)
	}
	return tw.Flush()
}
