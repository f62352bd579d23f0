package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"watchdog/internal/expand"
	"watchdog/internal/llm"
	"watchdog/internal/watchfile"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var (
		description string
		queries     []string
		urls        []string
		interval    int
		aiRequest   string
	)
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a topic to watch",
		Long: `Add a topic to watch.

Either supply the fields yourself:

  watchdog add "Go releases" --query "golang new release" --interval 24

or let the AI draft the whole entry from a free-form request:

  watchdog add --ai "anything important happening with the Go language"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.topicsStore()
			if err != nil {
				return err
			}

			var topic watchfile.Topic
			if strings.TrimSpace(aiRequest) != "" {
				if len(args) > 0 || description != "" || len(queries) > 0 || len(urls) > 0 {
					return errors.New("--ai cannot be combined with manual topic fields")
				}
				topic, err = expandWithAI(cmd, ctx, store, aiRequest)
				if err != nil {
					return err
				}
			} else {
				if len(args) == 0 {
					return errors.New("provide a topic name or use --ai")
				}
				topic = watchfile.Topic{
					Name:               strings.TrimSpace(args[0]),
					Description:        strings.TrimSpace(description),
					SearchQueries:      queries,
					URLsToCheck:        urls,
					CheckIntervalHours: interval,
				}
				if err := topic.Validate(); err != nil {
					return err
				}
			}

			err = store.Mutate(cmd.Context(), func(doc *watchfile.Config) (bool, error) {
				if doc.FindTopic(topic.Name) != nil {
					return false, fmt.Errorf("%w: topic %q already exists", watchfile.ErrDuplicateName, topic.Name)
				}
				doc.UpsertTopic(topic)
				return true, nil
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added topic %q (every %dh)\n", topic.Name, topic.CheckIntervalHours)
			for _, query := range topic.SearchQueries {
				fmt.Fprintf(out, "  query: %s\n", query)
			}
			for _, url := range topic.URLsToCheck {
				fmt.Fprintf(out, "  url:   %s\n", url)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "What counts as a significant update")
	cmd.Flags().StringArrayVarP(&queries, "query", "q", nil, "Search query (repeatable)")
	cmd.Flags().StringArrayVarP(&urls, "url", "u", nil, "URL to check directly (repeatable)")
	cmd.Flags().IntVarP(&interval, "interval", "i", 24, "Check interval in hours")
	cmd.Flags().StringVar(&aiRequest, "ai", "", "Let the AI draft the topic from a free-form request")
	return cmd
}

func expandWithAI(cmd *cobra.Command, ctx *commandContext, store *watchfile.Store, request string) (watchfile.Topic, error) {
	var empty watchfile.Topic
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return empty, err
	}

	var existing []string
	if doc, err := store.Load(); err == nil {
		for _, topic := range doc.Topics {
			existing = append(existing, topic.Name)
		}
	}

	llmCfg := cfg.GetLLM()
	model := llm.NewClient(llm.Config{
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Model:          llmCfg.Model,
		Referer:        llmCfg.Referer,
		Title:          llmCfg.Title,
		TimeoutSeconds: llmCfg.TimeoutSeconds,
	})
	expander, err := expand.New(model)
	if err != nil {
		return empty, err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Asking the AI to draft the topic...")
	return expander.Expand(cmd.Context(), request, existing)
}
