package checker

import (
	"context"
	"encoding/json"
	"fmt"

	"watchdog/internal/llm"
	"watchdog/internal/websearch"
)

const (
	toolWebSearch = "web_search"
	toolFetchPage = "fetch_page"
)

// SearchTools provides the web access the AI may use during a check.
type SearchTools interface {
	Search(ctx context.Context, query string) ([]websearch.Result, error)
	FetchPage(ctx context.Context, pageURL string) (websearch.Page, error)
}

func checkTools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        toolWebSearch,
			Description: "Search the web and return the top results with titles, URLs, and snippets.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The search query."}
				},
				"required": ["query"]
			}`),
		},
		{
			Name:        toolFetchPage,
			Description: "Fetch a URL and return the readable text content of the page.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"url": {"type": "string", "description": "The absolute http(s) URL to fetch."}
				},
				"required": ["url"]
			}`),
		},
	}
}

// runToolCall executes one model-requested tool and returns its JSON result.
// Tool failures are reported back to the model as an error payload rather
// than aborting the check, so it can try a different query or URL.
func runToolCall(ctx context.Context, tools SearchTools, call llm.ToolCall) string {
	payload, err := dispatchToolCall(ctx, tools, call)
	if err != nil {
		encoded, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(encoded)
	}
	return payload
}

func dispatchToolCall(ctx context.Context, tools SearchTools, call llm.ToolCall) (string, error) {
	switch call.Function.Name {
	case toolWebSearch:
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return "", fmt.Errorf("web_search arguments: %w", err)
		}
		results, err := tools.Search(ctx, args.Query)
		if err != nil {
			return "", err
		}
		encoded, err := json.Marshal(map[string]any{"results": results})
		if err != nil {
			return "", fmt.Errorf("encode search results: %w", err)
		}
		return string(encoded), nil

	case toolFetchPage:
		var args struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return "", fmt.Errorf("fetch_page arguments: %w", err)
		}
		page, err := tools.FetchPage(ctx, args.URL)
		if err != nil {
			return "", err
		}
		encoded, err := json.Marshal(page)
		if err != nil {
			return "", fmt.Errorf("encode page: %w", err)
		}
		return string(encoded), nil

	default:
		return "", fmt.Errorf("unknown tool %q", call.Function.Name)
	}
}
