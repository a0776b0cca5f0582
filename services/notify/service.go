package notify

import (
	"github.com/paperdesk/paperdesk/dto"
	"github.com/paperdesk/paperdesk/interfaces"
	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/utils"
)

const defaultBufferSize = 256

type notifier struct {
	events chan dto.Notification
	mirror *AMQPMirror
	log    logger.Logger
}

// NewNotifier returns the in-process activity feed. mirror may be nil; when
// set, every published entry is also fanned out over RabbitMQ, best effort.
func NewNotifier(bufferSize int, mirror *AMQPMirror, log logger.Logger) interfaces.Notifier {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &notifier{
		events: make(chan dto.Notification, bufferSize),
		mirror: mirror,
		log:    log,
	}
}

// Publish never blocks. When the buffer is full the entry is dropped; this
// is a live feed, not a durable event log.
func (n *notifier) Publish(notification dto.Notification) {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = utils.Now()
	}

	select {
	case n.events <- notification:
	default:
		n.log.Warnf("Notification buffer full, dropping %s notification", notification.Type)
	}

	if n.mirror != nil {
		if err := n.mirror.Publish(notification); err != nil {
			n.log.Warnf("Failed to mirror notification to RabbitMQ: %v", err)
		}
	}
}

func (n *notifier) Drain(max int) []dto.Notification {
	if max <= 0 {
		max = defaultBufferSize
	}

	drained := make([]dto.Notification, 0)
	for len(drained) < max {
		select {
		case notification := <-n.events:
			drained = append(drained, notification)
		default:
			return drained
		}
	}
	return drained
}

func (n *notifier) Events() <-chan dto.Notification {
	return n.events
}
