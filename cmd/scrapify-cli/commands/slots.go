package commands

import (
	"fmt"
	"time"

	"github.com/raviprakash-14/scrapify/internal/pickup"
	"github.com/spf13/cobra"
)

func slotsCmd() *cobra.Command {
	var (
		date     string
		timezone string
	)

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print pickup time slots and the earliest bookable date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(timezone)
			if err != nil {
				return fmt.Errorf("invalid timezone: %w", err)
			}
			now := time.Now().In(loc)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Earliest date: %s\n", pickup.MinDate(now))
			for _, slot := range pickup.Slots() {
				fmt.Fprintf(out, "%-6s %s\n", slot, slot.Label())
			}

			if date == "" {
				return nil
			}
			d, err := pickup.ParseDate(date)
			if err != nil {
				return err
			}
			if err := pickup.ValidateDate(d, now); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s is available\n", d.FormatUS())
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "check whether a date (YYYY-MM-DD) can be booked")
	cmd.Flags().StringVar(&timezone, "tz", "Local", "timezone for calendar dates")
	return cmd
}
