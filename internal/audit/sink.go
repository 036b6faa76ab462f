package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Sink persists audit records.
type Sink interface {
	// Name identifies the sink in metrics and logs.
	Name() string
	Write(ctx context.Context, r *Record) error
}

// -----------------------------------------------------------------------
// slog
// -----------------------------------------------------------------------

// LogSink writes records as structured log lines.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink writing to logger, or to the default logger when
// nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (*LogSink) Name() string { return "log" }

func (s *LogSink) Write(ctx context.Context, r *Record) error {
	level := slog.LevelInfo
	if r.Status == StatusFailure {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "action executed",
		"id", r.ID,
		"type", r.Type,
		"action", r.Action,
		"bot", r.Bot,
		"sender", r.Sender,
		"intent", r.Intent,
		"status", r.Status,
		"bot_response", r.BotResponse,
		"exception", r.Exception,
		"messages", r.Messages,
	)
	return nil
}

// -----------------------------------------------------------------------
// MySQL
// -----------------------------------------------------------------------

// TableActionLogs holds one row per record.
const TableActionLogs = "action_logs"

// SQLSink inserts records into MySQL. The whole record is kept as JSON next
// to the columns used for lookups.
type SQLSink struct {
	db *sql.DB
}

// NewSQLSink wraps an open database handle.
func NewSQLSink(db *sql.DB) *SQLSink {
	return &SQLSink{db: db}
}

func (*SQLSink) Name() string { return "mysql" }

func (s *SQLSink) Write(ctx context.Context, r *Record) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode audit record: %w", err)
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (id, bot, type, action, sender, intent, status, record, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		TableActionLogs)
	if _, err := s.db.ExecContext(ctx, query,
		r.ID, r.Bot, r.Type, r.Action, r.Sender, r.Intent, string(r.Status), doc, r.Timestamp,
	); err != nil {
		return fmt.Errorf("insert audit record %s: %w", r.ID, err)
	}
	return nil
}

// -----------------------------------------------------------------------
// MQTT
// -----------------------------------------------------------------------

// Publisher is the part of an MQTT client the sink uses. mqtt.Client
// satisfies it.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSink publishes every record to <prefix>/<bot>/<action>.
type MQTTSink struct {
	client  Publisher
	prefix  string
	timeout time.Duration
}

// NewMQTTSink returns a sink publishing with QoS 1 under prefix.
func NewMQTTSink(client Publisher, prefix string, timeout time.Duration) *MQTTSink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MQTTSink{client: client, prefix: prefix, timeout: timeout}
}

func (*MQTTSink) Name() string { return "mqtt" }

// Topic returns the topic a record is published to.
func (s *MQTTSink) Topic(r *Record) string {
	return fmt.Sprintf("%s/%s/%s", s.prefix, r.Bot, r.Action)
}

func (s *MQTTSink) Write(ctx context.Context, r *Record) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode audit record: %w", err)
	}
	token := s.client.Publish(s.Topic(r), 1, false, payload)
	select {
	case <-token.Done():
	case <-time.After(s.timeout):
		return fmt.Errorf("publish audit record %s: timed out after %v", r.ID, s.timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish audit record %s: %w", r.ID, err)
	}
	return nil
}

// ConnectMQTT connects a client to broker with automatic reconnects.
func ConnectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to mqtt %s: %w", broker, token.Error())
	}
	return client, nil
}

// -----------------------------------------------------------------------
// Fan-out
// -----------------------------------------------------------------------

// Multi writes to every sink and joins their errors.
type Multi []Sink

func (Multi) Name() string { return "multi" }

func (m Multi) Write(ctx context.Context, r *Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, r); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
