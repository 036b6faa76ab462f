package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/actionserver/internal/action"
	"github.com/gyaneshwarpardhi/actionserver/internal/action/actiontest"
	"github.com/gyaneshwarpardhi/actionserver/internal/audit"
	"github.com/gyaneshwarpardhi/actionserver/internal/connector"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
	"github.com/gyaneshwarpardhi/actionserver/internal/param"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Search(ctx context.Context, apiKey, engineID, query string, num int) ([]connector.SearchResult, error) {
	args := m.Called(ctx, apiKey, engineID, query, num)
	results, _ := args.Get(0).([]connector.SearchResult)
	return results, args.Error(1)
}

var kanban = connector.SearchResult{
	Title: "Kanban",
	Text:  "Kanban visualizes both the process (the workflow) and the actual work passing through that process.",
	Link:  "https://www.digite.com/kanban/what-is-kanban/",
}

const kanbanReply = "Kanban visualizes both the process (the workflow) and the actual work passing through that process." +
	"\nTo know more, please visit: <a href = \"https://www.digite.com/kanban/what-is-kanban/\" target=\"_blank\" >Kanban</a>"

func config() *model.GoogleSearchConfig {
	return &model.GoogleSearchConfig{
		APIKey:         param.Descriptor{Value: "1234567890"},
		SearchEngineID: "asdfg::123456",
	}
}

func run(t *testing.T, cfg *model.GoogleSearchConfig, req *tracker.Request, m *mockSearcher) (*tracker.Result, *audit.Record) {
	t.Helper()
	s := actiontest.NewStore()
	s.Add("custom_search_action", cfg)
	ac := actiontest.Context(req, s, "custom_search_action", nil)
	res, err := New(m).Execute(context.Background(), ac)
	require.NoError(t, err)
	return res, ac.Record
}

func TestExecute(t *testing.T) {
	m := &mockSearcher{}
	m.On("Search", mock.Anything, "1234567890", "asdfg::123456", "get intents", 1).
		Return([]connector.SearchResult{kanban}, nil).Once()

	res, rec := run(t, config(), actiontest.Request("custom_search_action", nil), m)
	m.AssertExpectations(t)
	assert.Equal(t, []tracker.SlotEvent{tracker.SetSlot(action.ResponseSlot, kanbanReply)}, res.Events)
	require.Len(t, res.Responses, 1)
	assert.Equal(t, kanbanReply, *res.Responses[0].Text)
	assert.Equal(t, audit.StatusSuccess, rec.Status)
}

func TestExecuteUsesUserMessageEntity(t *testing.T) {
	req := actiontest.Request("custom_search_action", nil)
	req.Tracker.LatestMessage.Text = `/action_google_search{"kairon_user_msg": "my custom text"}`
	req.Tracker.LatestMessage.Entities = []tracker.Entity{{Entity: tracker.UserMessageEntity, Value: "my custom text"}}

	m := &mockSearcher{}
	m.On("Search", mock.Anything, "1234567890", "asdfg::123456", "my custom text", 1).
		Return([]connector.SearchResult{kanban}, nil).Once()

	run(t, config(), req, m)
	m.AssertExpectations(t)
}

func TestExecuteMultipleResultsAndSlot(t *testing.T) {
	cfg := config()
	cfg.NumResults = 2
	cfg.SetSlot = "search_result"
	cfg.Dispatch = actiontest.Bool(false)

	m := &mockSearcher{}
	m.On("Search", mock.Anything, "1234567890", "asdfg::123456", "get intents", 2).
		Return([]connector.SearchResult{kanban, kanban}, nil).Once()

	res, _ := run(t, cfg, actiontest.Request("custom_search_action", nil), m)
	want := kanbanReply + "\n" + kanbanReply
	assert.Equal(t, []tracker.SlotEvent{
		tracker.SetSlot("search_result", want),
		tracker.SetSlot(action.ResponseSlot, want),
	}, res.Events)
	assert.Empty(t, res.Responses)
}

func TestExecuteFailures(t *testing.T) {
	tests := []struct {
		name    string
		results []connector.SearchResult
		err     error
		failure string
		want    string
	}{
		{name: "error", err: errors.New("Connection error"), want: action.SearchFailureText},
		{name: "no results", results: []connector.SearchResult{}, want: action.SearchFailureText},
		{name: "custom failure text", err: errors.New("quota"), failure: "Search is down", want: "Search is down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config()
			cfg.FailureResponse = tt.failure
			m := &mockSearcher{}
			m.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(tt.results, tt.err).Once()

			res, rec := run(t, cfg, actiontest.Request("custom_search_action", nil), m)
			assert.Equal(t, []tracker.SlotEvent{tracker.SetSlot(action.ResponseSlot, tt.want)}, res.Events)
			require.Len(t, res.Responses, 1)
			assert.Equal(t, tt.want, *res.Responses[0].Text)
			assert.Equal(t, audit.StatusFailure, rec.Status)
		})
	}
}
