package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const searchResultsHTML = `<!DOCTYPE html>
<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Fdl%2F&rut=abc">Go downloads</a>
  <div class="result__snippet">Download the latest Go release.</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.com/post">Example post</a>
  <div class="result__snippet">An example snippet.</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.com/third">Third</a>
  <div class="result__snippet">Third snippet.</div>
</div>
</body></html>`

func TestSearchParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostFormValue("q"); got != "golang release" {
			t.Errorf("query = %q", got)
		}
		io.WriteString(w, searchResultsHTML)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, MaxResults: 2})
	results, err := client.Search(context.Background(), "golang release")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results (max), got %d", len(results))
	}
	if results[0].URL != "https://go.dev/dl/" {
		t.Fatalf("redirect not unwrapped: %q", results[0].URL)
	}
	if results[0].Title != "Go downloads" {
		t.Fatalf("unexpected title: %q", results[0].Title)
	}
	if results[0].Snippet != "Download the latest Go release." {
		t.Fatalf("unexpected snippet: %q", results[0].Snippet)
	}
	if results[1].URL != "https://example.com/post" {
		t.Fatalf("direct link mangled: %q", results[1].URL)
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	client := NewClient(Options{})
	if _, err := client.Search(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestSearchPropagatesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL})
	if _, err := client.Search(context.Background(), "query"); err == nil {
		t.Fatal("expected error for 403")
	}
}

func TestUnwrapRedirect(t *testing.T) {
	cases := []struct {
		href string
		want string
	}{
		{"//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Fdl%2F", "https://go.dev/dl/"},
		{"https://example.com/page", "https://example.com/page"},
		{"javascript:alert(1)", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := unwrapRedirect(tc.href); got != tc.want {
			t.Errorf("unwrapRedirect(%q) = %q, want %q", tc.href, got, tc.want)
		}
	}
}

func TestFetchPageExtractsContent(t *testing.T) {
	body := `<!DOCTYPE html><html><head><title>Release notes</title></head><body>
	<article><h1>Release notes</h1>` +
		strings.Repeat("<p>Go 1.99 fixes a security issue in net/http.</p>", 20) +
		`</article></body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	client := NewClient(Options{SnippetRunes: 120})
	page, err := client.FetchPage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if !strings.Contains(page.Content, "Go 1.99") {
		t.Fatalf("content missing article text: %q", page.Content)
	}
	if len([]rune(page.Content)) > 123 {
		t.Fatalf("content not truncated: %d runes", len([]rune(page.Content)))
	}
}

func TestFetchPageRejectsBadURL(t *testing.T) {
	client := NewClient(Options{})
	for _, bad := range []string{"", "ftp://example.com", "not a url at all \x00"} {
		if _, err := client.FetchPage(context.Background(), bad); err == nil {
			t.Errorf("FetchPage(%q) succeeded, want error", bad)
		}
	}
}

func TestFetchPageHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Options{})
	if _, err := client.FetchPage(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 404")
	}
}
