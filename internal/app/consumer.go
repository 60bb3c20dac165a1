package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/salespulse/commission-service/internal/domain"
)

// workerTimeout bounds one task invocation, independent of the webhook
// request timeout.
const workerTimeout = 30 * time.Second

// NotificationConsumer is the queue worker callback: it parses a delivered
// task body and hands it to the notification sender.
//
// Return semantics follow the broker contract: true acks the delivery, false
// nacks it back onto the queue. Malformed payloads are acked so they are
// dropped instead of retried; sender failures are nacked so the queue's own
// retry policy re-invokes the worker.
type NotificationConsumer struct {
	notifier *Notifier
}

func NewNotificationConsumer(notifier *Notifier) *NotificationConsumer {
	return &NotificationConsumer{notifier: notifier}
}

func (c *NotificationConsumer) HandleMessage(body []byte) bool {
	task, err := domain.ParseNotificationTask(body)
	if err != nil {
		log.Printf("level=error component=notification_worker msg=\"dropping malformed task\" err=%v", err)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), workerTimeout)
	defer cancel()

	if err := c.Process(ctx, task); err != nil {
		log.Printf("level=error component=notification_worker msg=\"task failed; requeueing\" type=%s user_id=%s err=%v", task.Type, task.UserID, err)
		return false
	}

	log.Printf("level=info component=notification_worker msg=\"task processed\" type=%s user_id=%s", task.Type, task.UserID)
	return true
}

// Process dispatches one validated task to the sender. Shared by the AMQP
// callback and the HTTP worker endpoint.
func (c *NotificationConsumer) Process(ctx context.Context, task *domain.NotificationTask) error {
	switch task.Type {
	case domain.NotificationTypePerSale:
		return c.notifier.SendPerSale(ctx, task.UserID, *task.SaleData)
	case domain.NotificationTypeThreshold:
		return c.notifier.SendThreshold(ctx, task.UserID, *task.AccumulatedAmount, *task.Threshold)
	default:
		return fmt.Errorf("%w: unknown type %q", domain.ErrMalformedTask, task.Type)
	}
}

// IsTaskClientError reports whether the worker should treat the failure as a
// non-retryable client error.
func IsTaskClientError(err error) bool {
	return errors.Is(err, domain.ErrMalformedTask)
}
