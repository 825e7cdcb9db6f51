package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd(opts *globalOptions) *cobra.Command {
	var yes bool

	c := &cobra.Command{
		Use:   "reset",
		Short: "Delete ALL trades from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("this deletes every trade; pass --yes to confirm")
			}

			e, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.sess.ResetAll(cmd.Context()); err != nil {
				return e.bannerError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All trades deleted")
			return nil
		},
	}
	c.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return c
}

func newCapitalCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "capital [amount]",
		Short: "Show or set the initial capital",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				applied, err := e.sess.UpdateCapital(cmd.Context(), args[0])
				if err != nil {
					return e.bannerError(err)
				}
				if !applied {
					fmt.Fprintf(out, "Ignored %q: not a number\n", args[0])
				}
			}
			fmt.Fprintf(out, "Initial capital: $%s\n", e.sess.Snapshot().InitialCapital.StringFixed(2))
			return nil
		},
	}
}

func newThemeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "theme",
		Short: "Toggle between the light and dark theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.close()

			theme, err := e.sess.ToggleTheme()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Theme: %s\n", theme)
			return nil
		},
	}
}
