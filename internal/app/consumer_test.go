package app

import (
	"context"
	"errors"
	"testing"

	"github.com/salespulse/commission-service/internal/domain"
)

func saleTaskBody() []byte {
	return []byte(`{
		"type": "sale",
		"user_id": "user-1",
		"sale_data": {
			"product_name": "Curso de Go",
			"amount": "197.00",
			"currency": "BRL",
			"order_id": "ord-1"
		}
	}`)
}

func thresholdTaskBody() []byte {
	return []byte(`{"type":"accumulated_commission","user_id":"user-1","accumulated_amount":"120","threshold":"100"}`)
}

func TestHandleMessage_MalformedBodyIsAckedAndDropped(t *testing.T) {
	sender := &telegramSenderStub{}
	consumer := NewNotificationConsumer(NewNotifier(&notifierRepoStub{user: configuredUser()}, sender))

	if ack := consumer.HandleMessage([]byte("not a task")); !ack {
		t.Fatal("expected malformed bodies to be acked so they are not redelivered")
	}
	if sender.called {
		t.Fatal("did not expect a send attempt for a malformed body")
	}
}

func TestHandleMessage_SenderFailureIsNackedForRetry(t *testing.T) {
	sender := &telegramSenderStub{err: errors.New("telegram unavailable")}
	consumer := NewNotificationConsumer(NewNotifier(&notifierRepoStub{user: configuredUser()}, sender))

	if ack := consumer.HandleMessage(saleTaskBody()); ack {
		t.Fatal("expected delivery failures to be nacked back onto the queue")
	}
}

func TestHandleMessage_UserLookupFailureIsNackedForRetry(t *testing.T) {
	sender := &telegramSenderStub{}
	consumer := NewNotificationConsumer(NewNotifier(&notifierRepoStub{err: errors.New("db down")}, sender))

	if ack := consumer.HandleMessage(thresholdTaskBody()); ack {
		t.Fatal("expected transient lookup failures to be nacked back onto the queue")
	}
}

func TestHandleMessage_UnconfiguredTelegramIsAcked(t *testing.T) {
	sender := &telegramSenderStub{}
	user := configuredUser()
	user.Telegram.IsConfigured = false
	consumer := NewNotificationConsumer(NewNotifier(&notifierRepoStub{user: user}, sender))

	if ack := consumer.HandleMessage(saleTaskBody()); !ack {
		t.Fatal("an unconfigured channel must ack, not spin the task forever")
	}
	if sender.called {
		t.Fatal("did not expect a send attempt for an unconfigured channel")
	}
}

func TestHandleMessage_SuccessfulDeliveryIsAcked(t *testing.T) {
	sender := &telegramSenderStub{}
	consumer := NewNotificationConsumer(NewNotifier(&notifierRepoStub{user: configuredUser()}, sender))

	if ack := consumer.HandleMessage(thresholdTaskBody()); !ack {
		t.Fatal("expected a successful delivery to ack")
	}
	if !sender.called {
		t.Fatal("expected a telegram send")
	}
}

func TestProcess_UnknownTypeIsClientError(t *testing.T) {
	consumer := NewNotificationConsumer(NewNotifier(&notifierRepoStub{user: configuredUser()}, &telegramSenderStub{}))

	err := consumer.Process(context.Background(), &domain.NotificationTask{Type: "mystery", UserID: "user-1"})
	if err == nil {
		t.Fatal("expected an error for an unknown task type")
	}
	if !IsTaskClientError(err) {
		t.Fatalf("expected a non-retryable client error, got %v", err)
	}
}

func TestIsTaskClientError_DeliveryFailureIsRetryable(t *testing.T) {
	if IsTaskClientError(errors.New("telegram 502")) {
		t.Fatal("delivery failures must stay retryable")
	}
}
