package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestWebSearchTool(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("srsearch"); got != "go programming" {
			t.Errorf("unexpected srsearch: %q", got)
		}
		if got := q.Get("srlimit"); got != "5" {
			t.Errorf("expected default srlimit 5, got %q", got)
		}
		fmt.Fprint(w, `{"query":{"search":[
			{"title":"Go (programming language)","pageid":12345,"snippet":"<span class=\"searchmatch\">Go</span> is a statically typed language"}
		]}}`)
	}))
	defer upstream.Close()

	tool := NewWebSearchTool(5 * time.Second).WithEndpoint(upstream.URL)

	out, err := tool.Call(context.Background(), map[string]any{"query": "go programming"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result := out.(map[string]any)
	results := result["results"].([]map[string]any)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0]["snippet"] != "Go is a statically typed language" {
		t.Errorf("markup not stripped: %q", results[0]["snippet"])
	}
	if results[0]["url"] != "https://en.wikipedia.org/?curid=12345" {
		t.Errorf("unexpected url: %v", results[0]["url"])
	}
}

func TestWebSearchToolClampsResultCount(t *testing.T) {
	cases := []struct {
		requested float64
		want      int
	}{
		{50, 10},
		{0, 1},
		{-3, 1},
		{7, 7},
	}
	for _, tc := range cases {
		var gotLimit string
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotLimit = r.URL.Query().Get("srlimit")
			fmt.Fprint(w, `{"query":{"search":[]}}`)
		}))

		tool := NewWebSearchTool(5 * time.Second).WithEndpoint(upstream.URL)
		_, err := tool.Call(context.Background(), map[string]any{
			"query":       "x",
			"num_results": tc.requested,
		})
		upstream.Close()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotLimit != strconv.Itoa(tc.want) {
			t.Errorf("num_results %v: expected srlimit %d, got %q", tc.requested, tc.want, gotLimit)
		}
	}
}

func TestWebSearchToolMissingQuery(t *testing.T) {
	tool := NewWebSearchTool(5 * time.Second)
	_, err := tool.Call(context.Background(), map[string]any{})
	if err == nil || err.Error() != "Query is required as a string." {
		t.Errorf("unexpected error: %v", err)
	}
}
