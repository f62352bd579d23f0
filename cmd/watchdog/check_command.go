package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"watchdog/internal/checker"
	"watchdog/internal/daemonrun"
	"watchdog/internal/dedup"
	"watchdog/internal/ipc"
	"watchdog/internal/logging"
	"watchdog/internal/notifications"
	"watchdog/internal/watchfile"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "check [topic]",
		Short: "Check a topic now (all topics with --all)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("provide a topic name or --all")
			}
			var name string
			if len(args) == 1 {
				name = strings.TrimSpace(args[0])
			}

			// Prefer the running daemon so forced checks share its
			// concurrency limits and history.
			if ctx.daemonReachable() {
				return ctx.withClient(func(client *ipc.Client) error {
					resp, err := client.CheckNow(name, all)
					if err != nil {
						return err
					}
					for _, topic := range resp.Queued {
						fmt.Fprintf(cmd.OutOrStdout(), "Queued check for %q\n", topic)
					}
					return nil
				})
			}
			return runChecksInProcess(cmd, ctx, name, all)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Check every topic")
	return cmd
}

// runChecksInProcess executes checks directly when no daemon is running,
// with the same persist-then-notify reconcile the daemon applies.
func runChecksInProcess(cmd *cobra.Command, ctx *commandContext, name string, all bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ctx.topicsStore()
	if err != nil {
		return err
	}
	doc, err := store.Load()
	if err != nil {
		if errors.Is(err, watchfile.ErrMissing) {
			return errors.New("no topics file; run 'watchdog init' first")
		}
		return err
	}

	var targets []watchfile.Topic
	if all {
		targets = doc.Topics
	} else {
		resolved, err := watchfile.ResolveTopicName(doc, name)
		if err != nil {
			return err
		}
		targets = []watchfile.Topic{*doc.FindTopic(resolved)}
	}
	if len(targets) == 0 {
		return errors.New("no topics configured")
	}

	logger := logging.NewNop()
	if ctx.verbose != nil && *ctx.verbose {
		logger, err = logging.New(logging.Options{Level: "debug", Format: "console"})
		if err != nil {
			return err
		}
	}
	executor, err := daemonrun.BuildExecutor(cfg, logger)
	if err != nil {
		return err
	}
	notifier := notifications.NewService(cfg)
	filter := dedup.NewFilter(time.Duration(cfg.Notifications.RenotifyCooldownMinutes)*time.Minute, cfg.Notifications.MinConfidence)

	out := cmd.OutOrStdout()
	var firstErr error
	for _, topic := range targets {
		fmt.Fprintf(out, "Checking %q...\n", topic.Name)
		result, err := executor.Check(cmd.Context(), topic)
		if err != nil {
			fmt.Fprintf(out, "  check failed: %v\n", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		decision := filter.Evaluate(topic, result, time.Now())
		if err := reconcileResult(cmd.Context(), store, topic.Name, result, decision); err != nil {
			fmt.Fprintf(out, "  failed to persist outcome: %v\n", err)
			if firstErr == nil {
				firstErr = err
			}
		} else if decision.Notify {
			if err := notifier.NotifyUpdate(cmd.Context(), topic.Name, result.Summary, result.SourceURL); err != nil {
				fmt.Fprintf(out, "  notification failed: %v\n", err)
			}
		}

		fmt.Fprintf(out, "  verdict: %s (confidence %.2f, %d rounds)\n", result.Verdict, result.Confidence, result.Rounds)
		if result.Summary != "" {
			fmt.Fprintf(out, "  %s\n", result.Summary)
		}
		if result.SourceURL != "" {
			fmt.Fprintf(out, "  source: %s\n", result.SourceURL)
		}
		if !decision.Notify {
			fmt.Fprintf(out, "  notification: suppressed (%s)\n", decision.Reason)
		}
	}
	return firstErr
}

func reconcileResult(ctx context.Context, store *watchfile.Store, name string, result checker.Result, decision dedup.Decision) error {
	now := time.Now()
	return store.Mutate(ctx, func(cfg *watchfile.Config) (bool, error) {
		stored := cfg.FindTopic(name)
		if stored == nil {
			return false, nil
		}
		checkedAt := result.CheckedAt
		stored.LastCheckedAt = &checkedAt
		if decision.Notify {
			stored.LastSignal = result.Fingerprint
			notifiedAt := now
			stored.LastNotifiedAt = &notifiedAt
		}
		return true, nil
	})
}
