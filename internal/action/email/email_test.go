package email

import (
	"context"
	"errors"
	"strings"
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

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, mail connector.Mail) error {
	return m.Called(ctx, mail).Error(0)
}

func config() *model.EmailConfig {
	return &model.EmailConfig{
		SMTPURL:      "test.localhost",
		SMTPPort:     293,
		SMTPPassword: param.Descriptor{Key: "smtp_password", Value: "test"},
		FromEmail:    "test@demo.com",
		ToEmail:      []string{"test@test.com"},
		Subject:      "test",
		Response:     "Email Triggered",
	}
}

func run(t *testing.T, cfg *model.EmailConfig, m *mockMailer) (*tracker.Result, *audit.Record) {
	t.Helper()
	s := actiontest.NewStore()
	s.Secrets["SMTP_USER"] = "mailer@demo.com"
	s.Add("test_run_email_action", cfg)
	ac := actiontest.Context(actiontest.Request("test_run_email_action", nil), s, "test_run_email_action", nil)
	res, err := New(m).Execute(context.Background(), ac)
	require.NoError(t, err)
	return res, ac.Record
}

func TestExecuteSendsHistory(t *testing.T) {
	m := &mockMailer{}
	m.On("Send", mock.Anything, mock.MatchedBy(func(mail connector.Mail) bool {
		return mail.Host == "test.localhost" && mail.Port == 293 &&
			mail.User == "test@demo.com" && mail.Password == "test" &&
			mail.Subject == "default test" &&
			assert.ObjectsAreEqual([]string{"test@test.com"}, mail.To) &&
			strings.Contains(mail.HTML, "hello, how can I help?")
	})).Return(nil).Once()

	res, rec := run(t, config(), m)
	m.AssertExpectations(t)
	assert.Equal(t, []tracker.SlotEvent{tracker.SetSlot(action.ResponseSlot, "Email Triggered")}, res.Events)
	require.Len(t, res.Responses, 1)
	assert.Equal(t, "Email Triggered", *res.Responses[0].Text)
	assert.Equal(t, audit.StatusSuccess, rec.Status)
}

func TestExecuteLogsInWithConfiguredUser(t *testing.T) {
	cfg := config()
	cfg.SMTPUserID = &param.Descriptor{Key: "smtp_userid", Source: param.SourceVault, Value: "SMTP_USER"}
	m := &mockMailer{}
	m.On("Send", mock.Anything, mock.MatchedBy(func(mail connector.Mail) bool {
		return mail.User == "mailer@demo.com" && mail.From == "test@demo.com"
	})).Return(nil).Once()

	run(t, cfg, m)
	m.AssertExpectations(t)
}

func TestExecuteFailure(t *testing.T) {
	m := &mockMailer{}
	m.On("Send", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()

	res, rec := run(t, config(), m)
	assert.Equal(t, []tracker.SlotEvent{tracker.SetSlot(action.ResponseSlot, action.FailureText)}, res.Events)
	assert.Equal(t, action.FailureText, *res.Responses[0].Text)
	assert.Equal(t, audit.StatusFailure, rec.Status)
	assert.Equal(t, "connection refused", rec.Exception)
}
