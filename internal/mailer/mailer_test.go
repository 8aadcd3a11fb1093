package mailer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gestionale-crm/crm-api/internal/config"
	"github.com/gestionale-crm/crm-api/internal/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	disabled := mailer.New(&config.MailConfig{Enabled: false}, zap.NewNop())
	assert.False(t, disabled.Enabled())
	assert.NoError(t, disabled.Send(context.Background(), mailer.Message{To: "a@b.it"}))

	enabled := mailer.New(&config.MailConfig{Enabled: true, Host: "localhost", Port: 2525}, zap.NewNop())
	assert.True(t, enabled.Enabled())
}

func TestSMTPMailer_RequiresRecipient(t *testing.T) {
	m := mailer.NewSMTPMailer(&config.MailConfig{Host: "localhost", Port: 2525}, zap.NewNop())
	assert.Error(t, m.Send(context.Background(), mailer.Message{Subject: "x"}))
}

func TestSMTPMailer_CancelledContext(t *testing.T) {
	m := mailer.NewSMTPMailer(&config.MailConfig{Host: "localhost", Port: 2525}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Send(ctx, mailer.Message{To: "a@b.it"})
	require.Error(t, err)
}

func TestRecordingMailer(t *testing.T) {
	r := &mailer.RecordingMailer{}
	require.NoError(t, r.Send(context.Background(), mailer.Message{To: "a@b.it", Subject: "ciao"}))

	r.Fail = func(msg mailer.Message) error { return errors.New("boom") }
	assert.Error(t, r.Send(context.Background(), mailer.Message{To: "c@d.it"}))

	sent := r.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ciao", sent[0].Subject)
}
