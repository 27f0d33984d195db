package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/clearvat/clearvat/testing"
)

func TestNewSendEmailTask(t *testing.T) {
	task, err := NewSendEmailTask(SendEmailPayload{
		To:      "lead@acme.test",
		Subject: "Welcome",
		Body:    "Hello",
	})
	require.NoError(t, err)
	assert.Equal(t, TaskTypeSendEmail, task.Type())

	var payload SendEmailPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "lead@acme.test", payload.To)
}

func TestMailerDryRun(t *testing.T) {
	mailer := NewMailer("", "no-reply@clearvat.local", slog.Default())

	task, err := NewSendEmailTask(SendEmailPayload{To: "lead@acme.test", Subject: "Hi"})
	require.NoError(t, err)

	assert.NoError(t, mailer.HandleSendEmail(context.Background(), task))
}

func TestMailerSkipsMalformedPayload(t *testing.T) {
	mailer := NewMailer("", "no-reply@clearvat.local", slog.Default())

	err := mailer.HandleSendEmail(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte("not-json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = mailer.HandleSendEmail(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte(`{"subject":"no recipient"}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("no-reply@clearvat.local", SendEmailPayload{
		To:      "lead@acme.test",
		Subject: "Deadline",
		Body:    "The return is due.",
	}))

	assert.Contains(t, msg, "From: no-reply@clearvat.local\r\n")
	assert.Contains(t, msg, "To: lead@acme.test\r\n")
	assert.Contains(t, msg, "Subject: Deadline\r\n")
	assert.Contains(t, msg, "\r\n\r\nThe return is due.")
}

func TestNewDeadlineScanTask(t *testing.T) {
	task, err := NewDeadlineScanTask(14)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeDeadlineScan, task.Type())

	var payload DeadlineScanPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, 14, payload.StaleDays)
}

func TestDeadlineScanUnconfiguredHandler(t *testing.T) {
	var job *DeadlineScanJob
	task, err := NewDeadlineScanTask(7)
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}
