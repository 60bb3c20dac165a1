/**
 * @description
 * This file implements the notification dispatch queue: the component that
 * decouples "decided to notify" from "actually sent a message". Tasks are
 * serialized and published to a durable RabbitMQ topic exchange; the queue
 * worker consumes them on a separate invocation context.
 *
 * Enqueue only guarantees durable scheduling, never delivery. The broker's
 * at-least-once semantics mean the worker must tolerate duplicate tasks.
 *
 * @dependencies
 * - context, fmt, strings: Standard Go libraries.
 * - github.com/google/uuid: Queue-assigned task identifiers.
 * - github.com/shopspring/decimal: Threshold payload amounts.
 * - internal/domain, pkg/rabbitmq: Task payloads and the AMQP producer.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/salespulse/commission-service/internal/domain"
	"github.com/salespulse/commission-service/pkg/rabbitmq"
	"github.com/shopspring/decimal"
)

// Routing keys for the notification exchange, one per task type.
const (
	RoutingKeyPerSale   = "notification.sale"
	RoutingKeyThreshold = "notification.accumulated_commission"
)

// NotificationQueue enqueues notification tasks for asynchronous delivery.
type NotificationQueue struct {
	producer rabbitmq.Publisher
	exchange string
}

// NewNotificationQueue creates a dispatch queue publishing to the given
// exchange.
func NewNotificationQueue(producer rabbitmq.Publisher, exchange string) *NotificationQueue {
	return &NotificationQueue{producer: producer, exchange: exchange}
}

// EnqueuePerSale schedules a per-sale notification and returns the task id.
func (q *NotificationQueue) EnqueuePerSale(ctx context.Context, userID string, saleData domain.SaleNotificationData) (string, error) {
	task := &domain.NotificationTask{
		Type:     domain.NotificationTypePerSale,
		UserID:   userID,
		SaleData: &saleData,
	}
	return q.enqueue(ctx, RoutingKeyPerSale, task)
}

// EnqueueThreshold schedules an accumulated-commission notification carrying
// the pre-reset total, and returns the task id.
func (q *NotificationQueue) EnqueueThreshold(ctx context.Context, userID string, accumulatedAmount, threshold decimal.Decimal) (string, error) {
	task := &domain.NotificationTask{
		Type:              domain.NotificationTypeThreshold,
		UserID:            userID,
		AccumulatedAmount: &accumulatedAmount,
		Threshold:         &threshold,
	}
	return q.enqueue(ctx, RoutingKeyThreshold, task)
}

func (q *NotificationQueue) enqueue(ctx context.Context, routingKey string, task *domain.NotificationTask) (string, error) {
	// Missing identity fields are a caller bug, not a broker problem.
	if strings.TrimSpace(task.UserID) == "" {
		return "", fmt.Errorf("%w: user id is required in notification task", ErrValidation)
	}
	if task.Type == "" {
		return "", fmt.Errorf("%w: type is required in notification task", ErrValidation)
	}

	taskID := uuid.NewString()
	if err := q.producer.PublishTask(ctx, q.exchange, routingKey, taskID, task); err != nil {
		return "", fmt.Errorf("failed to enqueue notification task: %w", err)
	}

	log.Printf("level=info component=dispatch msg=\"notification task enqueued\" task_id=%s type=%s user_id=%s", taskID, task.Type, task.UserID)
	return taskID, nil
}
