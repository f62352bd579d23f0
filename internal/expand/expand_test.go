package expand

import (
	"context"
	"errors"
	"strings"
	"testing"

	"watchdog/internal/watchfile"
)

type fakeCompleter struct {
	response string
	err      error
	lastUser string
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, _ string, userPrompt string) (string, error) {
	f.lastUser = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestExpandBuildsTopicFromProposal(t *testing.T) {
	model := &fakeCompleter{response: `{
		"name": "Rust 2024 edition",
		"description": "Track stabilization progress of the Rust 2024 edition",
		"search_queries": ["rust 2024 edition status", "rust edition 2024 release"],
		"urls_to_check": ["https://blog.rust-lang.org/"],
		"check_interval_hours": 48
	}`}
	expander, err := New(model)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	topic, err := expander.Expand(context.Background(), "rust 2024 edition", nil)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if topic.Name != "Rust 2024 edition" {
		t.Errorf("name = %q", topic.Name)
	}
	if len(topic.SearchQueries) != 2 || len(topic.URLsToCheck) != 1 {
		t.Errorf("unexpected queries/urls: %v / %v", topic.SearchQueries, topic.URLsToCheck)
	}
	if topic.CheckIntervalHours != 48 {
		t.Errorf("interval = %d, want 48", topic.CheckIntervalHours)
	}
	if model.lastUser != "rust 2024 edition" {
		t.Errorf("user prompt = %q", model.lastUser)
	}
}

func TestExpandToleratesFencedJSON(t *testing.T) {
	model := &fakeCompleter{response: "```json\n{\"name\":\"x\",\"description\":\"d\",\"search_queries\":[\"q\"],\"check_interval_hours\":24}\n```"}
	expander, _ := New(model)

	topic, err := expander.Expand(context.Background(), "x", nil)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if topic.Name != "x" || topic.CheckIntervalHours != 24 {
		t.Errorf("unexpected topic: %+v", topic)
	}
}

func TestExpandClampsInterval(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 24},
		{-3, 24},
		{500, watchfile.MaxCheckIntervalHours},
		{72, 72},
	}
	for _, tc := range cases {
		if got := clampInterval(tc.in); got != tc.want {
			t.Errorf("clampInterval(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestExpandFallsBackToRequestText(t *testing.T) {
	model := &fakeCompleter{response: `{"description":"d","check_interval_hours":24}`}
	expander, _ := New(model)

	topic, err := expander.Expand(context.Background(), "quantum error correction news", nil)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if topic.Name != "quantum error correction news" {
		t.Errorf("name = %q", topic.Name)
	}
	if len(topic.SearchQueries) != 1 || topic.SearchQueries[0] != "quantum error correction news" {
		t.Errorf("queries = %v", topic.SearchQueries)
	}
}

func TestExpandRejectsDuplicateName(t *testing.T) {
	model := &fakeCompleter{response: `{"name":"Go Releases","description":"d","search_queries":["q"],"check_interval_hours":24}`}
	expander, _ := New(model)

	_, err := expander.Expand(context.Background(), "go releases", []string{"go releases"})
	if err == nil {
		t.Fatal("expected duplicate name error")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExpandRejectsEmptyRequest(t *testing.T) {
	expander, _ := New(&fakeCompleter{})
	if _, err := expander.Expand(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty request")
	}
}

func TestExpandPropagatesModelError(t *testing.T) {
	expander, _ := New(&fakeCompleter{err: errors.New("boom")})
	if _, err := expander.Expand(context.Background(), "x", nil); err == nil {
		t.Fatal("expected model error")
	}
}

func TestExpandRejectsGarbage(t *testing.T) {
	expander, _ := New(&fakeCompleter{response: "not json at all"})
	if _, err := expander.Expand(context.Background(), "x", nil); err == nil {
		t.Fatal("expected parse error")
	}
}
