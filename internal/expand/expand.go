// Package expand turns a free-form topic request into a fully specified
// watch entry by asking the AI to propose a name, search queries, URLs, and
// a sensible check interval.
package expand

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"watchdog/internal/llm"
	"watchdog/internal/watchfile"
)

const systemPrompt = `You help configure a topic monitoring tool. The user describes something
they want to keep an eye on; you turn it into a precise watch entry.

Respond with a single JSON object and nothing else:

{
  "name": "a short human-readable topic name",
  "description": "one sentence describing what counts as a significant update",
  "search_queries": ["two to four focused web search queries"],
  "urls_to_check": ["authoritative URLs to check directly, may be empty"],
  "check_interval_hours": 24
}

Choose check_interval_hours between 1 and 168 based on how fast the subject
moves: fast-moving topics a few hours, slow ones several days. Queries should
be what a person would actually type into a search engine, not keywords
stuffed together.`

// Completer is the slice of the LLM client the expander needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Expander proposes watch entries from free-form descriptions.
type Expander struct {
	model Completer
}

// New builds an expander.
func New(model Completer) (*Expander, error) {
	if model == nil {
		return nil, errors.New("expand: model required")
	}
	return &Expander{model: model}, nil
}

type proposal struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	SearchQueries      []string `json:"search_queries"`
	URLsToCheck        []string `json:"urls_to_check"`
	CheckIntervalHours int      `json:"check_interval_hours"`
}

// Expand asks the model to elaborate the request into a topic. The returned
// topic is validated, its interval clamped to the allowed range, and its
// name checked against existingNames so the caller never upserts over an
// unrelated topic by accident.
func (e *Expander) Expand(ctx context.Context, request string, existingNames []string) (watchfile.Topic, error) {
	var empty watchfile.Topic
	request = strings.TrimSpace(request)
	if request == "" {
		return empty, errors.New("expand: empty request")
	}

	content, err := e.model.CompleteJSON(ctx, systemPrompt, request)
	if err != nil {
		return empty, fmt.Errorf("expand %q: %w", request, err)
	}

	var parsed proposal
	if err := llm.DecodeLLMJSON(content, &parsed); err != nil {
		return empty, fmt.Errorf("expand %q: parse proposal: %w", request, err)
	}

	topic := watchfile.Topic{
		Name:               strings.TrimSpace(parsed.Name),
		Description:        strings.TrimSpace(parsed.Description),
		SearchQueries:      cleanStrings(parsed.SearchQueries),
		URLsToCheck:        cleanStrings(parsed.URLsToCheck),
		CheckIntervalHours: clampInterval(parsed.CheckIntervalHours),
	}
	if topic.Name == "" {
		topic.Name = request
	}
	if len(topic.SearchQueries) == 0 && len(topic.URLsToCheck) == 0 {
		topic.SearchQueries = []string{request}
	}

	if err := topic.Validate(); err != nil {
		return empty, fmt.Errorf("expand %q: proposal invalid: %w", request, err)
	}
	if clash := matchExisting(topic.Name, existingNames); clash != "" {
		return empty, fmt.Errorf("expand %q: topic %q already exists", request, clash)
	}
	return topic, nil
}

func matchExisting(name string, existing []string) string {
	folder := cases.Fold()
	want := folder.String(name)
	for _, candidate := range existing {
		if folder.String(candidate) == want {
			return candidate
		}
	}
	return ""
}

func cleanStrings(values []string) []string {
	var out []string
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func clampInterval(hours int) int {
	if hours < watchfile.MinCheckIntervalHours {
		return 24
	}
	if hours > watchfile.MaxCheckIntervalHours {
		return watchfile.MaxCheckIntervalHours
	}
	return hours
}
