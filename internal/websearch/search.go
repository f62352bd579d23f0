// Package websearch implements the two tools exposed to the AI during a
// topic check: a DuckDuckGo HTML search and a readable-text page fetch.
//
// The search uses the no-JavaScript HTML endpoint and scrapes the result
// list, unwrapping DuckDuckGo's redirect links to recover the target URLs.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultRequestTimeout = 20 * time.Second

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Options configures the client.
type Options struct {
	BaseURL        string
	MaxResults     int
	PageByteLimit  int
	SnippetRunes   int
	RequestTimeout time.Duration
	UserAgent      string
	HTTPClient     *http.Client
}

// Client performs web searches and page fetches on behalf of the checker.
type Client struct {
	baseURL       string
	maxResults    int
	pageByteLimit int
	snippetRunes  int
	userAgent     string
	httpClient    *http.Client
}

// NewClient builds a search client. Zero option fields take defaults.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = "https://html.duckduckgo.com/html/"
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	pageByteLimit := opts.PageByteLimit
	if pageByteLimit <= 0 {
		pageByteLimit = 256 * 1024
	}
	snippetRunes := opts.SnippetRunes
	if snippetRunes <= 0 {
		snippetRunes = 3000
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (X11; Linux x86_64) watchdog/1.0"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:       baseURL,
		maxResults:    maxResults,
		pageByteLimit: pageByteLimit,
		snippetRunes:  snippetRunes,
		userAgent:     userAgent,
		httpClient:    httpClient,
	}
}

// Search posts the query to the HTML endpoint and returns up to MaxResults
// hits.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search: empty query")
	}

	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("search: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search %q: http %d", query, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("search %q: parse response: %w", query, err)
	}
	return c.parseResults(doc), nil
}

func (c *Client) parseResults(doc *goquery.Document) []Result {
	var results []Result
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := unwrapRedirect(href)
		if target == "" {
			return true
		}
		results = append(results, Result{
			Title:   strings.TrimSpace(link.Text()),
			URL:     target,
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").Text()),
		})
		return len(results) < c.maxResults
	})
	return results
}

// unwrapRedirect recovers the destination from a DuckDuckGo redirect link
// (the uddg query parameter). Direct links pass through unchanged.
func unwrapRedirect(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		if decoded, err := url.QueryUnescape(target); err == nil {
			return decoded
		}
		return target
	}
	if parsed.Scheme == "http" || parsed.Scheme == "https" {
		return href
	}
	return ""
}
