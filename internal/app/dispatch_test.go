package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/salespulse/commission-service/internal/domain"
)

type publisherStub struct {
	err error

	published  bool
	exchange   string
	routingKey string
	taskID     string
	body       []byte
}

func (p *publisherStub) PublishTask(ctx context.Context, exchange, routingKey, taskID string, body interface{}) error {
	p.published = true
	p.exchange = exchange
	p.routingKey = routingKey
	p.taskID = taskID
	p.body, _ = json.Marshal(body)
	return p.err
}

func (p *publisherStub) Close() {}

func TestEnqueuePerSale_PublishesToSaleRoutingKey(t *testing.T) {
	producer := &publisherStub{}
	queue := NewNotificationQueue(producer, "commission.notifications")

	taskID, err := queue.EnqueuePerSale(context.Background(), "user-1", domain.SaleNotificationData{
		ProductName: "Curso de Go",
		Amount:      dec("197.00"),
		Currency:    "BRL",
		OrderID:     "ord-1",
	})
	if err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if taskID == "" || taskID != producer.taskID {
		t.Fatalf("expected the returned task id to match the published one, got %q vs %q", taskID, producer.taskID)
	}
	if producer.exchange != "commission.notifications" {
		t.Fatalf("expected the configured exchange, got %q", producer.exchange)
	}
	if producer.routingKey != RoutingKeyPerSale {
		t.Fatalf("expected routing key %q, got %q", RoutingKeyPerSale, producer.routingKey)
	}

	task, err := domain.ParseNotificationTask(producer.body)
	if err != nil {
		t.Fatalf("expected the published body to round-trip through the task parser, got %v", err)
	}
	if task.Type != domain.NotificationTypePerSale || task.UserID != "user-1" {
		t.Fatalf("unexpected task payload: %+v", task)
	}
}

func TestEnqueueThreshold_PublishesPreResetTotal(t *testing.T) {
	producer := &publisherStub{}
	queue := NewNotificationQueue(producer, "commission.notifications")

	_, err := queue.EnqueueThreshold(context.Background(), "user-1", dec("125.40"), dec("100"))
	if err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if producer.routingKey != RoutingKeyThreshold {
		t.Fatalf("expected routing key %q, got %q", RoutingKeyThreshold, producer.routingKey)
	}

	task, err := domain.ParseNotificationTask(producer.body)
	if err != nil {
		t.Fatalf("expected the published body to round-trip through the task parser, got %v", err)
	}
	if task.AccumulatedAmount == nil || !task.AccumulatedAmount.Equal(dec("125.40")) {
		t.Fatalf("expected the pre-reset total 125.40 in the payload, got %v", task.AccumulatedAmount)
	}
	if task.Threshold == nil || !task.Threshold.Equal(dec("100")) {
		t.Fatalf("expected threshold 100 in the payload, got %v", task.Threshold)
	}
}

func TestEnqueue_RejectsEmptyUserID(t *testing.T) {
	producer := &publisherStub{}
	queue := NewNotificationQueue(producer, "commission.notifications")

	_, err := queue.EnqueueThreshold(context.Background(), "  ", dec("120"), dec("100"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if producer.published {
		t.Fatal("did not expect a publish for an invalid task")
	}
}

func TestEnqueue_PublisherFailureSurfaces(t *testing.T) {
	producer := &publisherStub{err: errors.New("broker unreachable")}
	queue := NewNotificationQueue(producer, "commission.notifications")

	if _, err := queue.EnqueueThreshold(context.Background(), "user-1", dec("120"), dec("100")); err == nil {
		t.Fatal("expected the broker failure to surface to the caller")
	}
}
