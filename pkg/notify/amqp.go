package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const codeQueue = "notify.verification-code"

// codeMessage is the payload consumed by the mailer service.
type codeMessage struct {
	Email    string    `json:"email"`
	Code     string    `json:"code"`
	IssuedAt time.Time `json:"issuedAt"`
}

// AMQPNotifier publishes verification codes to a durable RabbitMQ queue for a
// downstream mailer to deliver.
type AMQPNotifier struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPNotifier dials the broker and declares the code queue.
func NewAMQPNotifier(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(codeQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &AMQPNotifier{conn: conn, ch: ch}, nil
}

// SendOneTimeCode publishes the code as a persistent JSON message.
func (n *AMQPNotifier) SendOneTimeCode(ctx context.Context, email, code string) error {
	body, err := json.Marshal(codeMessage{Email: email, Code: code, IssuedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal code message: %w", err)
	}
	err = n.ch.PublishWithContext(ctx, "", codeQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish code message: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (n *AMQPNotifier) Close() error {
	if err := n.ch.Close(); err != nil {
		n.conn.Close()
		return err
	}
	return n.conn.Close()
}
