package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sleepoutside/backend/internal/validation"
)

func newCardCmd() *cobra.Command {
	var expiry string

	cmd := &cobra.Command{
		Use:         "card <number>",
		Short:       "Check a card number (and optionally an MM/YY expiry)",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"store": "none"},
		RunE: func(cmd *cobra.Command, args []string) error {
			number := strings.Join(args, " ")
			var problems []string
			if msg := validation.Luhn(number); msg != "" {
				problems = append(problems, msg)
			}
			if expiry != "" {
				if msg := validation.CheckExpiry(expiry, time.Now()); msg != "" {
					problems = append(problems, msg)
				}
			}
			if len(problems) > 0 {
				return errors.New(strings.Join(problems, "; "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "card OK")
			return nil
		},
	}
	cmd.Flags().StringVar(&expiry, "expiry", "", "expiration date as MM/YY")
	return cmd
}
