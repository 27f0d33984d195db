package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DeadlineScanPayload configures a reminder sweep.
type DeadlineScanPayload struct {
	// StaleDays is how many days an open submission may sit without an
	// update before the client contact is reminded.
	StaleDays int `json:"stale_days"`
}

// NewDeadlineScanTask constructs an Asynq task for the reminder sweep.
func NewDeadlineScanTask(staleDays int) (*asynq.Task, error) {
	data, err := json.Marshal(DeadlineScanPayload{StaleDays: staleDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDeadlineScan, data), nil
}

// ReminderSender queues a deadline reminder email.
type ReminderSender interface {
	EnqueueDeadlineReminder(ctx context.Context, email, clientName, period string) error
}

// DeadlineScanJob finds open submissions that have gone quiet and queues
// reminder emails to the client contact.
type DeadlineScanJob struct {
	Pool     *pgxpool.Pool
	Reminder ReminderSender
	Logger   *slog.Logger
	clock    func() time.Time
}

// NewDeadlineScanJob wires dependencies for the reminder sweep handler.
func NewDeadlineScanJob(pool *pgxpool.Pool, reminder ReminderSender, logger *slog.Logger) *DeadlineScanJob {
	return &DeadlineScanJob{
		Pool:     pool,
		Reminder: reminder,
		Logger:   logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

const staleSubmissionsQuery = `
SELECT s.period, c.name, c.contact_email
FROM submissions s
JOIN clients c ON c.id = s.client_id AND c.org_id = s.org_id
WHERE s.status NOT IN ('FILED', 'CLOSED')
  AND s.updated_at < $1
  AND c.contact_email <> ''
ORDER BY s.updated_at ASC
LIMIT 500`

// Handle processes TaskTypeDeadlineScan tasks.
func (j *DeadlineScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil || j.Reminder == nil {
		return errors.New("deadline scan: handler not configured")
	}
	var payload DeadlineScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.StaleDays <= 0 {
		payload.StaleDays = 7
	}

	cutoff := j.clock().AddDate(0, 0, -payload.StaleDays)
	rows, err := j.Pool.Query(ctx, staleSubmissionsQuery, cutoff)
	if err != nil {
		return err
	}
	defer rows.Close()

	queued := 0
	for rows.Next() {
		var period, clientName, email string
		if err := rows.Scan(&period, &clientName, &email); err != nil {
			return err
		}
		if err := j.Reminder.EnqueueDeadlineReminder(ctx, email, clientName, period); err != nil {
			j.Logger.Warn("queue deadline reminder",
				slog.String("client", clientName),
				slog.Any("error", err))
			continue
		}
		queued++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	j.Logger.Info("deadline scan complete",
		slog.Int("stale_days", payload.StaleDays),
		slog.Int("reminders_queued", queued))
	return nil
}
