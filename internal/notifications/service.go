// Package notifications enqueues transactional email work onto the job
// queue. SMTP delivery itself happens in the worker.
package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/clearvat/clearvat/jobs"
)

// Enqueuer hands notification work to the background queue.
type Enqueuer interface {
	EnqueueWelcome(ctx context.Context, email, fullName string) error
	EnqueueDeadlineReminder(ctx context.Context, email, clientName, period string) error
}

// Service enqueues email tasks over asynq.
type Service struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(client *asynq.Client, logger *slog.Logger) *Service {
	return &Service{client: client, logger: logger}
}

func (s *Service) enqueue(ctx context.Context, payload jobs.SendEmailPayload) error {
	task, err := jobs.NewSendEmailTask(payload)
	if err != nil {
		return err
	}
	info, err := s.client.EnqueueContext(ctx, task, asynq.Queue(jobs.QueueDefault))
	if err != nil {
		return err
	}
	s.logger.Debug("email task enqueued", slog.String("task_id", info.ID), slog.String("to", payload.To))
	return nil
}

// EnqueueWelcome queues the welcome email for a newly invited user.
func (s *Service) EnqueueWelcome(ctx context.Context, email, fullName string) error {
	return s.enqueue(ctx, jobs.SendEmailPayload{
		To:      email,
		Subject: "Welcome to ClearVAT",
		Body:    fmt.Sprintf("Hello %s, your ClearVAT account is ready.", fullName),
	})
}

// EnqueueDeadlineReminder queues a filing deadline reminder.
func (s *Service) EnqueueDeadlineReminder(ctx context.Context, email, clientName, period string) error {
	return s.enqueue(ctx, jobs.SendEmailPayload{
		To:      email,
		Subject: fmt.Sprintf("VAT filing deadline approaching for %s", clientName),
		Body:    fmt.Sprintf("The %s VAT return for %s is due soon.", period, clientName),
	})
}

var _ Enqueuer = (*Service)(nil)
