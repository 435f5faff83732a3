package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// publisher is the part of *amqp091.Channel AMQPNotifier uses.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// BirthdayEvent is the JSON body published for each alert.
type BirthdayEvent struct {
	Key    string    `json:"key"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

// AMQPNotifier publishes alerts to a durable direct exchange so other
// services (chat bots, push gateways) can deliver them.
type AMQPNotifier struct {
	conn     *amqp091.Connection
	channel  publisher
	closer   func() error
	exchange string
	queue    string
}

// DialAMQP connects, declares the exchange and queue and binds them with
// the queue name as routing key.
func DialAMQP(url, exchange, queue string) (*AMQPNotifier, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &AMQPNotifier{conn: conn, channel: ch, closer: ch.Close, exchange: exchange, queue: queue}, nil
}

func (*AMQPNotifier) Name() string { return "amqp" }

func (n *AMQPNotifier) RequestPermission(context.Context) bool {
	return n.channel != nil
}

func (n *AMQPNotifier) Notify(ctx context.Context, title, body, key string) error {
	payload, err := json.Marshal(BirthdayEvent{Key: key, Title: title, Body: body, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = n.channel.PublishWithContext(ctx, n.exchange, n.queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    key,
		Timestamp:    time.Now(),
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func (n *AMQPNotifier) Close() error {
	if n.closer != nil {
		n.closer()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
