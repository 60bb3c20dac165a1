/**
 * @description
 * This package provides the RabbitMQ integration for the commission-service:
 * a producer that schedules notification tasks on a durable topic exchange
 * and a consumer that drives the queue worker. Durable exchange plus manual
 * ack/nack gives the at-least-once delivery the dispatch pipeline relies on.
 *
 * @dependencies
 * - context, encoding/json, time: Standard Go libraries.
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// TaskProducer holds the RabbitMQ connection and channel for publishing
// notification tasks.
type TaskProducer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

// Publisher is the interface implemented by types that can schedule tasks.
type Publisher interface {
	// PublishTask publishes a task body to the exchange under the given
	// routing key, stamping taskID as the broker message id.
	PublishTask(ctx context.Context, exchange, routingKey, taskID string, body interface{}) error
	Close()
}

// TaskProducerFallback is a minimal no-op publisher used when RabbitMQ is
// unavailable at startup. Sales still commit; notifications are skipped.
type TaskProducerFallback struct{}

func (p *TaskProducerFallback) PublishTask(ctx context.Context, exchange, routingKey, taskID string, body interface{}) error {
	log.Printf("level=warn component=rabbitmq_producer mode=fallback msg=\"task publish skipped\" exchange=%s routing_key=%s task_id=%s", exchange, routingKey, taskID)
	return nil
}

func (p *TaskProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	// If any stray characters precede the scheme, slice from first occurrence of amqp
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewTaskProducer creates and returns a new TaskProducer.
func NewTaskProducer(amqpURL string) (*TaskProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Use a bounded dial timeout so startup does not hang indefinitely
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &TaskProducer{conn: conn, channel: ch}, nil
}

// PublishTask sends a task to the exchange with a routing key. The exchange
// and message are both durable so scheduled tasks survive a broker restart.
func (p *TaskProducer) PublishTask(ctx context.Context, exchange, routingKey, taskID string, body interface{}) error {
	if err := p.channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		log.Printf("level=warn component=rabbitmq_producer msg=\"exchange declare failed; reopening channel\" exchange=%s err=%v", exchange, err)
		// Attempt simple channel reopen once
		if p.conn == nil {
			return err
		}
		ch, chErr := p.conn.Channel()
		if chErr != nil {
			return chErr
		}
		p.channel = ch
		if err2 := p.channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err2 != nil {
			return err2
		}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Printf("level=error component=rabbitmq_producer msg=\"json marshal failed\" exchange=%s routing_key=%s err=%v", exchange, routingKey, err)
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    taskID,
		Timestamp:    time.Now(),
		Body:         jsonBody,
	}

	err = p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, publishing)
	if err != nil {
		log.Printf("level=warn component=rabbitmq_producer msg=\"publish failed; reopening channel\" exchange=%s routing_key=%s err=%v", exchange, routingKey, err)
		// One-shot retry: reopen channel and try again
		if p.conn != nil {
			if ch, chErr := p.conn.Channel(); chErr == nil {
				p.channel = ch
				if exErr := p.channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); exErr == nil {
					err = p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, publishing)
					if err == nil {
						return nil
					}
				}
			}
		}
		return err
	}
	return nil
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *TaskProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
