package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher is the subset of *amqp.Channel used here.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type amqpNotifier struct {
	ch       Publisher
	exchange string
}

// NewAMQPNotifier publishes notifications as JSON on a topic exchange.
// Routing keys look like allocation.eft.submitted.
func NewAMQPNotifier(ch Publisher, exchange string) Notifier {
	return &amqpNotifier{ch: ch, exchange: exchange}
}

func routingKey(n Notification) string {
	key := n.Event
	if n.Type != "" {
		parts := strings.SplitN(n.Event, ".", 2)
		if len(parts) == 2 {
			key = parts[0] + "." + strings.ToLower(n.Type) + "." + parts[1]
		}
	}
	return key
}

func (a *amqpNotifier) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	err = a.ch.PublishWithContext(ctx, a.exchange, routingKey(n), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    n.At,
		Type:         n.Event,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", n.Event, err)
	}
	return nil
}

// DialAMQP opens a connection and channel and declares the durable topic exchange.
func DialAMQP(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return conn, ch, nil
}
