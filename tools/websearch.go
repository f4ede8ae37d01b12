// Web search tool backed by the Wikipedia search API.
//
// Information Hiding:
// - Upstream query format and markup stripping internalized

package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/richinex/didact/llm"
)

const defaultSearchURL = "https://en.wikipedia.org/w/api.php"

// Snippets come back with HTML highlighting markup that the model has no
// use for.
var tagPattern = regexp.MustCompile(`</?[^>]+(>|$)`)

// WebSearchTool queries a search/encyclopedia API and returns ranked
// results with markup-free snippets.
type WebSearchTool struct {
	client    *http.Client
	searchURL string
}

// NewWebSearchTool creates a web search tool whose upstream calls are
// bounded by the given timeout.
func NewWebSearchTool(timeout time.Duration) *WebSearchTool {
	return &WebSearchTool{
		client:    &http.Client{Timeout: timeout},
		searchURL: defaultSearchURL,
	}
}

// WithEndpoint overrides the upstream URL (used in tests).
func (t *WebSearchTool) WithEndpoint(searchURL string) *WebSearchTool {
	t.searchURL = searchURL
	return t
}

// Declaration returns the schema advertised to the model.
func (t *WebSearchTool) Declaration() llm.ToolDeclaration {
	return llm.ToolDeclaration{
		Name:        "web_search",
		Description: "Performs a web search and returns top results (uses Wikipedia as a demo source).",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Search query text.",
				},
				"num_results": map[string]any{
					"type":        "number",
					"description": "Number of results (max 10).",
				},
			},
			"required": []string{"query"},
		},
	}
}

type wikipediaSearchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			PageID  int    `json:"pageid"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

// Call performs the search.
func (t *WebSearchTool) Call(ctx context.Context, args map[string]any) (any, error) {
	query, ok := stringArg(args, "query")
	if !ok {
		return nil, errors.New("Query is required as a string.")
	}

	limit := 5
	if n, ok := numberArg(args, "num_results"); ok {
		limit = int(n)
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 10 {
		limit = 10
	}

	searchURL := fmt.Sprintf("%s?action=query&list=search&srsearch=%s&utf8=&format=json&origin=*&srlimit=%d",
		t.searchURL, url.QueryEscape(query), limit)

	var response wikipediaSearchResponse
	if err := getJSON(ctx, t.client, searchURL, &response); err != nil {
		return nil, err
	}

	results := make([]map[string]any, 0, len(response.Query.Search))
	for _, item := range response.Query.Search {
		results = append(results, map[string]any{
			"title":   item.Title,
			"url":     fmt.Sprintf("https://en.wikipedia.org/?curid=%d", item.PageID),
			"snippet": tagPattern.ReplaceAllString(item.Snippet, ""),
		})
	}

	return map[string]any{
		"query":   query,
		"results": results,
	}, nil
}

// Verify WebSearchTool implements Tool
var _ Tool = (*WebSearchTool)(nil)
