package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/serc-portal/recruitment-api/pkg/jobs"
	"github.com/serc-portal/recruitment-api/pkg/notify"
)

// Notification kinds used for job types and metric labels.
const (
	NotificationSubmitted      = "submission_applicant"
	NotificationSubmittedAdmin = "submission_admin"
	NotificationStatusChanged  = "status_changed"
	NotificationBulk           = "bulk"
)

// Notification is one message waiting for delivery.
type Notification struct {
	Kind    string
	To      string
	Subject string
	Body    string
}

// notificationPublisher hands notifications off for delivery without waiting on the outcome.
type notificationPublisher interface {
	Publish(ctx context.Context, n Notification)
}

// NotificationDispatcher delivers notifications on a background queue so the
// triggering operation never waits on, or fails because of, the notifier.
type NotificationDispatcher struct {
	notifier notify.Notifier
	queue    *jobs.Queue
	metrics  *MetricsService
	logger   *zap.Logger
	timeout  time.Duration
}

// DispatcherConfig sizes the delivery queue.
type DispatcherConfig struct {
	Workers    int
	BufferSize int
	Timeout    time.Duration
}

// NewNotificationDispatcher builds a dispatcher. Call Start before publishing.
func NewNotificationDispatcher(notifier notify.Notifier, metrics *MetricsService, logger *zap.Logger, cfg DispatcherConfig) *NotificationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	d := &NotificationDispatcher{
		notifier: notify.Guard(notifier),
		metrics:  metrics,
		logger:   logger,
		timeout:  cfg.Timeout,
	}
	d.queue = jobs.NewQueue("notifications", d.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		JobTimeout: cfg.Timeout,
		Logger:     logger,
	})
	return d
}

// Start launches the delivery workers.
func (d *NotificationDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains queued notifications until ctx expires.
func (d *NotificationDispatcher) Stop(ctx context.Context) {
	d.queue.Stop(ctx)
}

// Publish queues n for delivery. A full or stopped queue drops the message with a log entry.
func (d *NotificationDispatcher) Publish(_ context.Context, n Notification) {
	job := jobs.Job{ID: uuid.NewString(), Type: n.Kind, Payload: n}
	if err := d.queue.TryEnqueue(job); err != nil {
		d.metrics.ObserveNotification(n.Kind, false)
		d.logger.Warn("notification dropped", zap.String("kind", n.Kind), zap.String("to", n.To), zap.Error(err))
	}
}

// Deliver sends n synchronously and reports the notifier's result.
func (d *NotificationDispatcher) Deliver(ctx context.Context, n Notification) notify.Result {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	res := d.notifier.Send(ctx, n.To, n.Subject, n.Body)
	d.metrics.ObserveNotification(n.Kind, res.Delivered)
	if !res.Delivered {
		d.logger.Warn("notification failed", zap.String("kind", n.Kind), zap.String("to", n.To), zap.String("reason", res.Reason))
	}
	return res
}

func (d *NotificationDispatcher) handle(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(Notification)
	if !ok {
		return fmt.Errorf("unexpected notification payload %T", job.Payload)
	}
	d.Deliver(ctx, n)
	return nil
}
