package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/actionserver/internal/model"
)

func newMock(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(db), mock
}

func TestSQLStoreAction(t *testing.T) {
	s, mock := newMock(t)
	query := regexp.QuoteMeta("SELECT type FROM actions WHERE bot = ? AND name = ? AND status = 1")

	mock.ExpectQuery(query).WithArgs("b1", "action_weather").
		WillReturnRows(sqlmock.NewRows([]string{"type"}).AddRow("http_action"))
	d, err := s.Action(context.Background(), "b1", "action_weather")
	require.NoError(t, err)
	assert.Equal(t, model.Descriptor{Name: "action_weather", Type: model.TypeHTTP, Bot: "b1"}, d)

	mock.ExpectQuery(query).WithArgs("b1", "missing").WillReturnRows(sqlmock.NewRows([]string{"type"}))
	_, err = s.Action(context.Background(), "b1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(query).WithArgs("b1", "broken").WillReturnError(errors.New("connection reset"))
	_, err = s.Action(context.Background(), "b1", "broken")
	assert.ErrorContains(t, err, "connection reset")
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreConfig(t *testing.T) {
	s, mock := newMock(t)
	query := regexp.QuoteMeta("SELECT config FROM actions WHERE bot = ? AND name = ? AND status = 1")
	d := model.Descriptor{Name: "set_loc", Type: model.TypeSlotSet, Bot: "b1"}

	mock.ExpectQuery(query).WithArgs("b1", "set_loc").WillReturnRows(sqlmock.NewRows([]string{"config"}).
		AddRow([]byte(`{"set_slots": [{"name": "location", "type": "from_value", "value": "Mumbai"}]}`)))
	cfg, err := s.Config(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", cfg.(*model.SlotSetConfig).SetSlots[0].Value)

	mock.ExpectQuery(query).WithArgs("b1", "set_loc").WillReturnRows(sqlmock.NewRows([]string{"config"}))
	_, err = s.Config(context.Background(), d)
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(query).WithArgs("b1", "set_loc").WillReturnRows(sqlmock.NewRows([]string{"config"}).
		AddRow([]byte(`{"set_slots": []}`)))
	_, err = s.Config(context.Background(), d)
	assert.ErrorContains(t, err, "set_slots must not be empty")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreSecretAndSlots(t *testing.T) {
	s, mock := newMock(t)

	secret := regexp.QuoteMeta("SELECT value FROM key_vault WHERE bot = ? AND `key` = ?")
	mock.ExpectQuery(secret).WithArgs("b1", "API_KEY").WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("asdfghjkl"))
	mock.ExpectQuery(secret).WithArgs("b1", "NOPE").WillReturnRows(sqlmock.NewRows([]string{"value"}))

	v, found, err := s.Secret(context.Background(), "b1", "API_KEY")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "asdfghjkl", v)
	_, found, err = s.Secret(context.Background(), "b1", "NOPE")
	require.NoError(t, err)
	assert.False(t, found)

	slot := regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM slots WHERE bot = ? AND name = ?)")
	mock.ExpectQuery(slot).WithArgs("b1", "location").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	declared, err := s.SlotDeclared(context.Background(), "b1", "location")
	require.NoError(t, err)
	assert.True(t, declared)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreExamples(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT text FROM training_examples WHERE bot = ? AND intent = ? ORDER BY id")).
		WithArgs("b1", "greet").
		WillReturnRows(sqlmock.NewRows([]string{"text"}).AddRow("hi").AddRow("hello"))
	examples, err := s.Examples(context.Background(), "b1", "greet")
	require.NoError(t, err)
	assert.Equal(t, []string{"hi", "hello"}, examples)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT text FROM training_examples WHERE bot = ? ORDER BY text")).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"text"}).AddRow("book a flight").AddRow("book a table").AddRow("hi"))
	hits, err := s.SearchExamples(context.Background(), "b1", "book a table", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"book a table", "book a flight"}, hits)

	assert.NoError(t, mock.ExpectationsWereMet())
}
