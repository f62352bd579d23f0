package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"watchdog/internal/ipc"
	"watchdog/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ctx.daemonReachable() {
				return ctx.withClient(func(client *ipc.Client) error {
					resp, err := client.TestNotification()
					if err != nil {
						return err
					}
					if !resp.Sent {
						return fmt.Errorf("%s", resp.Message)
					}
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
					return nil
				})
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			notifier := notifications.NewService(cfg)
			if err := notifier.TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "test notification sent")
			return nil
		},
	}
}
