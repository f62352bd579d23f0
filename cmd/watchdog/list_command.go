package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"watchdog/internal/schedule"
	"watchdog/internal/watchfile"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List watched topics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := ctx.topicsStore()
			if err != nil {
				return err
			}
			doc, err := store.Load()
			if err != nil {
				if errors.Is(err, watchfile.ErrMissing) {
					fmt.Fprintln(cmd.OutOrStdout(), "No topics file yet; run 'watchdog init' first.")
					return nil
				}
				return err
			}
			if len(doc.Topics) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No topics configured; add one with 'watchdog add'.")
				return nil
			}

			now := time.Now()
			rows := make([][]string, 0, len(doc.Topics))
			for _, topic := range doc.Topics {
				due := schedule.IsDue(topic, now)
				rows = append(rows, []string{
					topic.Name,
					strconv.Itoa(topic.CheckIntervalHours) + "h",
					formatTimeAgo(topic.LastCheckedAt, now),
					formatTimeAgo(topic.LastNotifiedAt, now),
					yesNo(due),
				})
			}
			out := renderTable(
				[]string{"Topic", "Interval", "Last Checked", "Last Notified", "Due"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
