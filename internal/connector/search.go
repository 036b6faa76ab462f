package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// CustomSearchURL is the Google Custom Search JSON API endpoint.
const CustomSearchURL = "https://www.googleapis.com/customsearch/v1"

// SearchResult is one web search hit.
type SearchResult struct {
	Title string
	Text  string
	Link  string
}

// GoogleSearch queries a programmable search engine.
type GoogleSearch struct {
	Client  Doer
	BaseURL string
}

// Search returns at most num results for query.
func (g *GoogleSearch) Search(ctx context.Context, apiKey, engineID, query string, num int) ([]SearchResult, error) {
	base := g.BaseURL
	if base == "" {
		base = CustomSearchURL
	}
	q := url.Values{}
	q.Set("key", apiKey)
	q.Set("cx", engineID)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(num))

	var out struct {
		Items []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Link    string `json:"link"`
		} `json:"items"`
	}
	if err := sendJSON(ctx, g.Client, http.MethodGet, base+"?"+q.Encode(), nil, &out, nil); err != nil {
		return nil, fmt.Errorf("google search: %w", err)
	}
	results := make([]SearchResult, 0, len(out.Items))
	for _, it := range out.Items {
		results = append(results, SearchResult{Title: it.Title, Text: it.Snippet, Link: it.Link})
	}
	return results, nil
}
