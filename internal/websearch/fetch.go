package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Page is the readable portion of a fetched URL.
type Page struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// FetchPage downloads the URL (capped at PageByteLimit bytes), extracts the
// main article text, and truncates it to SnippetRunes runes so tool results
// stay small enough for the model.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (Page, error) {
	var empty Page
	pageURL = strings.TrimSpace(pageURL)
	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return empty, fmt.Errorf("fetch: invalid URL %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return empty, fmt.Errorf("fetch %s: new request: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return empty, fmt.Errorf("fetch %s: http %d", pageURL, resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, int64(c.pageByteLimit))
	article, err := readability.FromReader(limited, parsed)
	if err != nil {
		return empty, fmt.Errorf("fetch %s: extract content: %w", pageURL, err)
	}

	content := collapseWhitespace(article.TextContent)
	if content == "" {
		return empty, fmt.Errorf("fetch %s: no readable content", pageURL)
	}

	return Page{
		URL:     pageURL,
		Title:   strings.TrimSpace(article.Title),
		Content: truncateRunes(content, c.snippetRunes),
	}, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
