package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"watchdog/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit     int
		pruneDays int
	)

	cmd := &cobra.Command{
		Use:   "history [topic]",
		Short: "Show recent check results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg.HistoryDBPath())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if pruneDays > 0 {
				cutoff := time.Now().AddDate(0, 0, -pruneDays)
				removed, err := store.Prune(cmd.Context(), cutoff)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d entries older than %d days.\n", removed, pruneDays)
				return nil
			}

			topic := ""
			if len(args) > 0 {
				topic = strings.TrimSpace(args[0])
			}
			entries, err := store.ListRecent(cmd.Context(), topic, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No checks recorded yet.")
				return nil
			}

			now := time.Now()
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				checked := entry.CheckedAt
				rows = append(rows, []string{
					formatTimeAgo(&checked, now),
					entry.Topic,
					string(entry.Verdict),
					yesNo(entry.Notified),
					strconv.Itoa(entry.Rounds),
					truncateSummary(entry.Summary, 60),
				})
			}
			out := renderTable(
				[]string{"When", "Topic", "Verdict", "Notified", "Rounds", "Summary"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries to show")
	cmd.Flags().IntVar(&pruneDays, "prune", 0, "delete entries older than this many days instead of listing")
	return cmd
}

func truncateSummary(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
