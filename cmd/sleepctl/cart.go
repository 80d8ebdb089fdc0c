package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sleepoutside/backend/internal/services"
)

func newCartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect or empty the cart",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print cart lines and totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary := services.NewCartManager(a.store, a.logger).Summary()
			if len(summary.Lines) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Cart is empty.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCOLOR\tQTY\tSUBTOTAL")
			for _, l := range summary.Lines {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.2f\n", l.ID, l.Name, l.ColorLabel, l.Quantity, l.Subtotal())
			}
			fmt.Fprintf(tw, "\t\t\t%d\t%.2f\n", summary.ItemCount, summary.Total)
			return tw.Flush()
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every line from the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.NewCartManager(a.store, a.logger).Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cart cleared")
			return nil
		},
	}

	cmd.AddCommand(show, clearCmd)
	return cmd
}
