package checker

import (
	"fmt"
	"strings"
	"time"

	"watchdog/internal/watchfile"
)

const checkSystemPrompt = `You are a research assistant monitoring topics for significant updates.

Use the web_search tool to look for recent news about the topic, and the
fetch_page tool to read promising results or the topic's listed URLs. Be
skeptical: an update is significant only if it is new, concrete, and relevant
to the topic description. Old news, speculation, and marketing restatements
do not count.

When you have enough evidence, respond with a single JSON object and nothing
else:

{
  "has_significant_update": true or false,
  "summary": "one or two sentences describing the update, or why there is none",
  "confidence": 0.0 to 1.0,
  "source_url": "the most authoritative URL supporting your conclusion, or empty"
}`

func buildUserPrompt(topic watchfile.Topic, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topic.Name)
	if desc := strings.TrimSpace(topic.Description); desc != "" {
		fmt.Fprintf(&b, "Description: %s\n", desc)
	}
	if len(topic.SearchQueries) > 0 {
		fmt.Fprintf(&b, "Suggested search queries: %s\n", strings.Join(topic.SearchQueries, "; "))
	}
	if len(topic.URLsToCheck) > 0 {
		fmt.Fprintf(&b, "URLs to check directly: %s\n", strings.Join(topic.URLsToCheck, " "))
	}
	if topic.LastCheckedAt != nil {
		fmt.Fprintf(&b, "Last checked: %s (%s ago)\n",
			topic.LastCheckedAt.UTC().Format(time.RFC3339),
			now.Sub(*topic.LastCheckedAt).Round(time.Minute))
	} else {
		b.WriteString("This topic has never been checked before.\n")
	}
	b.WriteString("\nInvestigate whether there has been a significant update since the last check, then answer with the JSON verdict.")
	return b.String()
}
