package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/actionserver/internal/action"
	"github.com/gyaneshwarpardhi/actionserver/internal/action/actiontest"
	"github.com/gyaneshwarpardhi/actionserver/internal/action/slotset"
	"github.com/gyaneshwarpardhi/actionserver/internal/audit"
	"github.com/gyaneshwarpardhi/actionserver/internal/config"
	"github.com/gyaneshwarpardhi/actionserver/internal/engine"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
)

type nopSink struct{}

func (nopSink) Name() string                               { return "nop" }
func (nopSink) Write(context.Context, *audit.Record) error { return nil }

type fakeReloader struct {
	n   int
	err error
}

func (f fakeReloader) Reload() (int, error) { return f.n, f.err }

func newServer(t *testing.T, st *actiontest.Store, reloader Reloader) *httptest.Server {
	t.Helper()
	reg := action.NewRegistry()
	reg.Register(slotset.New())
	eng := engine.New(context.Background(), st, reg, nil, nopSink{}, config.EngineConf{
		RequestTimeoutMs: 1000, AuditWorkers: 1, AuditQueueDepth: 10, AuditTimeoutMs: 1000,
	})
	srv := httptest.NewServer(New(eng, reloader))
	t.Cleanup(func() {
		srv.Close()
		eng.Shutdown()
	})
	return srv
}

func post(t *testing.T, srv *httptest.Server, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/webhook", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func webhookBody(action string) string {
	return `{"next_action": "` + action + `", "tracker": {"sender_id": "default", "conversation_id": "default",
		"slots": {"bot": "` + actiontest.Bot + `", "location": "Mumbai"},
		"latest_message": {"text": "get intents", "intent_ranking": [{"name": "test_run"}]},
		"events": [], "paused": false, "followup_action": null, "active_loop": {}, "latest_action_name": null},
		"domain": {"config": {}, "session_config": {}, "intents": [], "entities": [], "slots": {"bot": {}},
		"responses": {}, "actions": [], "forms": {}, "e2e_actions": []}, "version": "version"}`
}

func TestWebhook(t *testing.T) {
	st := actiontest.NewStore()
	st.Add("slot_set_action", &model.SlotSetConfig{SetSlots: []model.SlotDirective{
		{Name: "city", Type: model.FromSlot, Value: "location"},
	}})
	srv := newServer(t, st, nil)

	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{"runs action", webhookBody("slot_set_action"), http.StatusOK,
			`{"events":[{"event":"slot","timestamp":null,"name":"city","value":"Mumbai"}],"responses":[]}`},
		{"no action name", webhookBody(""), http.StatusOK, `null`},
		{"unknown action", webhookBody("does_not_exist"), http.StatusOK, `{"events":[],"responses":[]}`},
		{"invalid action", webhookBody("!!!"), http.StatusOK, `{"events":[],"responses":[]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := post(t, srv, tc.body)
			assert.Equal(t, tc.status, status)
			assert.JSONEq(t, tc.want, body)
		})
	}
}

func TestWebhookBadRequest(t *testing.T) {
	srv := newServer(t, actiontest.NewStore(), nil)
	for _, body := range []string{"", "{not json", `{"next_action": 42}`} {
		status, raw := post(t, srv, body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.Contains(t, raw, "invalid JSON")
	}
}

func TestErrorEnvelopeCarriesRequestID(t *testing.T) {
	srv := newServer(t, actiontest.NewStore(), nil)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/webhook", strings.NewReader("{not json"))
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))
	assert.Equal(t, "req-42", body["request_id"])
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
	assert.Contains(t, body["error"], "invalid JSON")
}

func TestWebhookStoreFailure(t *testing.T) {
	st := actiontest.NewStore()
	st.Err = errors.New("connection refused")
	srv := newServer(t, st, nil)

	status, raw := post(t, srv, webhookBody("slot_set_action"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, raw, "connection refused")
}

func TestIndex(t *testing.T) {
	srv := newServer(t, actiontest.NewStore(), nil)
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, IndexText, string(raw))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	missing, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newServer(t, actiontest.NewStore(), nil)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","action_types":["slot_set"]}`, string(raw))

	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	raw, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(raw), "actionserver_requests_received_total")
}

func TestReloadStore(t *testing.T) {
	reload := func(r Reloader) (int, string) {
		srv := newServer(t, actiontest.NewStore(), r)
		resp, err := http.Post(srv.URL+"/v1/store/reload", "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(raw)
	}

	status, body := reload(fakeReloader{n: 3})
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"reloaded":true,"actions_count":3}`, body)

	status, body = reload(fakeReloader{err: errors.New("parse action store: bad yaml")})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "bad yaml")

	status, _ = reload(nil)
	assert.Equal(t, http.StatusNotImplemented, status)
}
