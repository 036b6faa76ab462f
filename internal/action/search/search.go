// Package search implements the google_search action, which answers the user
// with web search results.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/actionserver/internal/action"
	"github.com/gyaneshwarpardhi/actionserver/internal/connector"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, apiKey, engineID, query string, num int) ([]connector.SearchResult, error)
}

// Executor runs google_search actions.
type Executor struct {
	searcher Searcher
}

// New returns an Executor querying searcher.
func New(searcher Searcher) *Executor {
	return &Executor{searcher: searcher}
}

func (*Executor) Type() model.ActionType { return model.TypeGoogleSearch }

var errNoResults = errors.New("search returned no results")

func (e *Executor) Execute(ctx context.Context, ac *action.Context) (*tracker.Result, error) {
	cfg, err := action.ConfigAs[*model.GoogleSearchConfig](ac)
	if err != nil {
		return nil, err
	}
	failure := cfg.FailureResponse
	if failure == "" {
		failure = action.SearchFailureText
	}
	dispatch := cfg.Dispatched()

	apiKey, err := ac.Params.String(ctx, cfg.APIKey)
	if err != nil {
		return action.Fail(ac, failure, err, dispatch), nil
	}
	query := ac.Tracker().UserMessage()
	ac.Record.Trace(fmt.Sprintf("query: %s || num_results: %d", query, cfg.Results()))

	results, err := e.searcher.Search(ctx, apiKey, cfg.SearchEngineID, query, cfg.Results())
	if err == nil && len(results) == 0 {
		err = errNoResults
	}
	if err != nil {
		return action.Fail(ac, failure, err, dispatch), nil
	}

	text := Format(results)
	res := tracker.NewResult()
	if cfg.SetSlot != "" {
		res.SetSlot(cfg.SetSlot, text)
	}
	out := action.Reply(ac, text, dispatch)
	res.Events = append(res.Events, out.Events...)
	res.Responses = append(res.Responses, out.Responses...)
	return res, nil
}

// Format renders results one per line, each followed by a link to its page.
func Format(results []connector.SearchResult) string {
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = fmt.Sprintf("%s\nTo know more, please visit: <a href = \"%s\" target=\"_blank\" >%s</a>", r.Text, r.Link, r.Title)
	}
	return strings.Join(lines, "\n")
}
