package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doneToken struct {
	err  error
	done chan struct{}
}

func newToken(err error, finished bool) *doneToken {
	t := &doneToken{err: err, done: make(chan struct{})}
	if finished {
		close(t.done)
	}
	return t
}

func (t *doneToken) Wait() bool                     { <-t.done; return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{}          { return t.done }
func (t *doneToken) Error() error                   { return t.err }

type fakePublisher struct {
	token    mqtt.Token
	topic    string
	qos      byte
	payloads [][]byte
}

func (f *fakePublisher) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	f.topic, f.qos = topic, qos
	f.payloads = append(f.payloads, payload.([]byte))
	return f.token
}

func sampleRecord() *Record {
	r := NewRecord("http", "action_weather", "5f50fd0a56b698ca10d35d2e", "987654321", "check_weather")
	r.Trace("expression: ${a} || data: {'a': 1} || response: 1")
	r.BotResponse = "1"
	return r
}

func TestRecordLifecycle(t *testing.T) {
	r := sampleRecord()
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, StatusSuccess, r.Status)
	assert.Len(t, r.Messages, 1)

	r.Fail(errors.New("connection refused"))
	assert.Equal(t, StatusFailure, r.Status)
	assert.Equal(t, "connection refused", r.Exception)

	raw, err := json.Marshal(NewRecord("slot_set", "a", "b", "s", "i"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"messages":[]`)
	assert.NotContains(t, string(raw), "headers")
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	r := sampleRecord()
	r.Fail(errors.New("boom"))
	require.NoError(t, sink.Write(context.Background(), r))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "action_weather", line["action"])
	assert.Equal(t, "FAILURE", line["status"])
	assert.Equal(t, "boom", line["exception"])
}

func TestSQLSink(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := sampleRecord()
	query := regexp.QuoteMeta("INSERT INTO action_logs (id, bot, type, action, sender, intent, status, record, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	mock.ExpectExec(query).
		WithArgs(r.ID, r.Bot, "http", "action_weather", "987654321", "check_weather", "SUCCESS", sqlmock.AnyArg(), r.Timestamp).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(query).WillReturnError(errors.New("table is full"))

	sink := NewSQLSink(db)
	require.NoError(t, sink.Write(context.Background(), r))
	assert.ErrorContains(t, sink.Write(context.Background(), r), "table is full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMQTTSink(t *testing.T) {
	pub := &fakePublisher{token: newToken(nil, true)}
	sink := NewMQTTSink(pub, "actions/audit", time.Second)

	r := sampleRecord()
	require.NoError(t, sink.Write(context.Background(), r))
	assert.Equal(t, "actions/audit/5f50fd0a56b698ca10d35d2e/action_weather", pub.topic)
	assert.Equal(t, byte(1), pub.qos)

	var got Record
	require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, r.Messages, got.Messages)
}

func TestMQTTSinkErrors(t *testing.T) {
	failing := NewMQTTSink(&fakePublisher{token: newToken(errors.New("not connected"), true)}, "p", time.Second)
	assert.ErrorContains(t, failing.Write(context.Background(), sampleRecord()), "not connected")

	stuck := NewMQTTSink(&fakePublisher{token: newToken(nil, false)}, "p", 10*time.Millisecond)
	assert.ErrorContains(t, stuck.Write(context.Background(), sampleRecord()), "timed out")
}

type errSink struct{ name string }

func (e errSink) Name() string                         { return e.name }
func (e errSink) Write(context.Context, *Record) error { return errors.New("down") }

func TestMultiJoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	m := Multi{NewLogSink(slog.New(slog.NewTextHandler(&buf, nil))), errSink{name: "mqtt"}}
	err := m.Write(context.Background(), sampleRecord())
	assert.ErrorContains(t, err, "mqtt: down")
	assert.Contains(t, buf.String(), "action executed")
}
