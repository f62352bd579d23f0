package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"watchdog/internal/watchfile"
)

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <topic>",
		Short: "Stop watching a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			store, err := ctx.topicsStore()
			if err != nil {
				return err
			}

			var removed string
			err = store.Mutate(cmd.Context(), func(doc *watchfile.Config) (bool, error) {
				resolved, err := watchfile.ResolveTopicName(*doc, name)
				if err != nil {
					return false, err
				}
				doc.RemoveTopic(resolved)
				removed = resolved
				return true, nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed topic %q\n", removed)
			return nil
		},
	}
}
