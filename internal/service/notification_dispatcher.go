package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
	"github.com/rumahtahfidz/pesantren-api/pkg/jobs"
)

// dispatchPayload is the unit of work carried through the queue: one
// notification on one delivery channel.
type dispatchPayload struct {
	NotificationID string
	RecipientID    string
	Channel        models.NotificationChannel
	Title          string
	Message        string
}

// NotificationDispatcher fans a stored notification out to its delivery
// channels through a background worker pool. The IN_APP channel is
// already satisfied by the database row, so only the external channels
// are enqueued.
type NotificationDispatcher struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationDispatcher builds a dispatcher with its own queue.
func NewNotificationDispatcher(cfg jobs.QueueConfig, logger *zap.Logger) *NotificationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &NotificationDispatcher{logger: logger}
	d.queue = jobs.NewQueue("notification-dispatch", d.handle, cfg)
	return d
}

// Start begins background delivery workers.
func (d *NotificationDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains and stops the workers.
func (d *NotificationDispatcher) Stop() {
	d.queue.Stop()
}

// Dispatch enqueues delivery jobs for every external channel of the
// notification. Enqueue failures are logged, not surfaced: the row is
// already persisted and visible in-app.
func (d *NotificationDispatcher) Dispatch(notification *models.Notification) {
	recipient := ""
	if notification.RecipientID != nil {
		recipient = *notification.RecipientID
	}
	for _, channel := range notification.ChannelList() {
		if channel == models.NotificationChannelInApp {
			continue
		}
		job := jobs.Job{
			ID:   notification.ID + ":" + string(channel),
			Type: string(channel),
			Payload: dispatchPayload{
				NotificationID: notification.ID,
				RecipientID:    recipient,
				Channel:        channel,
				Title:          notification.Title,
				Message:        notification.Message,
			},
			Enqueued: time.Now().UTC(),
		}
		if err := d.queue.Enqueue(job); err != nil {
			d.logger.Warn("failed to enqueue notification delivery",
				zap.String("notification_id", notification.ID),
				zap.String("channel", string(channel)),
				zap.Error(err))
		}
	}
}

func (d *NotificationDispatcher) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(dispatchPayload)
	if !ok {
		d.logger.Error("dropping job with unexpected payload", zap.String("job_id", job.ID))
		return nil
	}

	// External providers (SMTP, WhatsApp gateway, SMS broker) plug in
	// here. Delivery is currently recorded in the log only.
	d.logger.Info("notification delivered",
		zap.String("notification_id", payload.NotificationID),
		zap.String("channel", string(payload.Channel)),
		zap.String("recipient_id", payload.RecipientID),
		zap.String("title", payload.Title))
	return nil
}
