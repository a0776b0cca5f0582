package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/paperdesk/paperdesk/dto"
	"github.com/paperdesk/paperdesk/internal/logger"
)

const (
	notificationsExchange = "paperdesk.notifications"
	publishTimeout        = 5 * time.Second
)

// AMQPMirror fans notifications out to a RabbitMQ exchange so external
// consumers can follow the activity feed. Connection loss is handled by
// reconnecting on the next publish.
type AMQPMirror struct {
	url     string
	log     logger.Logger
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewAMQPMirror(url string, log logger.Logger) (*AMQPMirror, error) {
	mirror := &AMQPMirror{url: url, log: log}
	if err := mirror.connect(); err != nil {
		return nil, err
	}
	return mirror, nil
}

func (m *AMQPMirror) connect() error {
	conn, err := amqp.Dial(m.url)
	if err != nil {
		return err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	err = channel.ExchangeDeclare(notificationsExchange, "fanout", true, false, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return err
	}

	m.conn = conn
	m.channel = channel
	return nil
}

func (m *AMQPMirror) Publish(notification dto.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	body, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	err = m.publishLocked(body)
	if err == nil {
		return nil
	}

	// One reconnect attempt, then give up until the next publish.
	m.log.Warnf("RabbitMQ publish failed, reconnecting: %v", err)
	m.closeLocked()
	if err = m.connect(); err != nil {
		return err
	}
	return m.publishLocked(body)
}

func (m *AMQPMirror) publishLocked(body []byte) error {
	if m.channel == nil {
		return amqp.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	return m.channel.PublishWithContext(ctx, notificationsExchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Transient,
		Timestamp:    time.Now(),
	})
}

func (m *AMQPMirror) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

func (m *AMQPMirror) closeLocked() {
	if m.channel != nil {
		m.channel.Close()
		m.channel = nil
	}
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
}
