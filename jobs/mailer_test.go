package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/campusgate/campusgate/testing"
)

type stubMailer struct {
	sent []SendEmailPayload
	err  error
}

func (s *stubMailer) Send(_ context.Context, to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, SendEmailPayload{To: to, Subject: subject, Body: body})
	return nil
}

func TestSendEmailHandler(t *testing.T) {
	mailer := &stubMailer{}
	handler := NewSendEmailHandler(mailer, slog.Default(), nil)

	task, err := NewSendEmailTask(SendEmailPayload{To: "a@b.lk", Subject: "hi", Body: "body"})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "a@b.lk", mailer.sent[0].To)
}

func TestSendEmailHandlerBadPayloadSkipsRetry(t *testing.T) {
	handler := NewSendEmailHandler(&stubMailer{}, slog.Default(), nil)

	err := handler(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte("{not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSendEmailHandlerDeliveryFailureRetries(t *testing.T) {
	handler := NewSendEmailHandler(&stubMailer{err: errors.New("relay refused")}, slog.Default(), nil)

	task, err := NewSendEmailTask(SendEmailPayload{To: "a@b.lk"})
	require.NoError(t, err)

	err = handler(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
