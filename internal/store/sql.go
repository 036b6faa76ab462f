package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/gyaneshwarpardhi/actionserver/internal/model"
)

// Table and column layout of the MySQL backend.
const (
	TableActions  = "actions"
	TableKeyVault = "key_vault"
	TableSlots    = "slots"
	TableExamples = "training_examples"
)

// SQLStore reads configuration from MySQL. Every call queries the database;
// nothing is cached between requests.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// OpenMySQL opens and pings a MySQL database. The DSN is normalised so that
// timestamps are parsed into time.Time.
func OpenMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// Action implements Store.
func (s *SQLStore) Action(ctx context.Context, bot, name string) (model.Descriptor, error) {
	query := fmt.Sprintf("SELECT type FROM %s WHERE bot = ? AND name = ? AND status = 1", TableActions)
	var typ string
	err := s.db.QueryRowContext(ctx, query, bot, name).Scan(&typ)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Descriptor{}, ErrNotFound
	}
	if err != nil {
		return model.Descriptor{}, fmt.Errorf("query action %s/%s: %w", bot, name, err)
	}
	t, err := model.ParseActionType(typ)
	if err != nil {
		return model.Descriptor{}, fmt.Errorf("action %s/%s: %w", bot, name, err)
	}
	return model.Descriptor{Name: name, Type: t, Bot: bot}, nil
}

// Config implements Store.
func (s *SQLStore) Config(ctx context.Context, d model.Descriptor) (model.Config, error) {
	query := fmt.Sprintf("SELECT config FROM %s WHERE bot = ? AND name = ? AND status = 1", TableActions)
	var raw []byte
	err := s.db.QueryRowContext(ctx, query, d.Bot, d.Name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query config %s/%s: %w", d.Bot, d.Name, err)
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}
	cfg, err := model.Decode(d.Type, func(v interface{}) error { return json.Unmarshal(raw, v) })
	if err != nil {
		return nil, err
	}
	lint(d, cfg)
	return cfg, nil
}

// Secret implements Store.
func (s *SQLStore) Secret(ctx context.Context, bot, key string) (string, bool, error) {
	query := fmt.Sprintf("SELECT value FROM %s WHERE bot = ? AND `key` = ?", TableKeyVault)
	var v string
	err := s.db.QueryRowContext(ctx, query, bot, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query secret %s/%s: %w", bot, key, err)
	}
	return v, true, nil
}

// SlotDeclared implements Store.
func (s *SQLStore) SlotDeclared(ctx context.Context, bot, slot string) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE bot = ? AND name = ?)", TableSlots)
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, bot, slot).Scan(&exists); err != nil {
		return false, fmt.Errorf("query slot %s/%s: %w", bot, slot, err)
	}
	return exists, nil
}

// Examples implements Store.
func (s *SQLStore) Examples(ctx context.Context, bot, intent string) ([]string, error) {
	query := fmt.Sprintf("SELECT text FROM %s WHERE bot = ? AND intent = ? ORDER BY id", TableExamples)
	return s.texts(ctx, query, bot, intent)
}

// SearchExamples implements Store.
func (s *SQLStore) SearchExamples(ctx context.Context, bot, text string, limit int) ([]string, error) {
	query := fmt.Sprintf("SELECT text FROM %s WHERE bot = ? ORDER BY text", TableExamples)
	all, err := s.texts(ctx, query, bot)
	if err != nil {
		return nil, err
	}
	return rank(text, all, limit), nil
}

func (s *SQLStore) texts(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query examples: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan example: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
