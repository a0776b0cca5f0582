package interfaces

import "github.com/paperdesk/paperdesk/dto"

// Notifier is the in-process live-activity feed. Best effort: no
// acknowledgement, no persistence; a consumer that is not attached misses
// events.
type Notifier interface {
	// Publish enqueues an entry. Safe for concurrent producers; never blocks.
	Publish(notification dto.Notification)
	// Drain removes and returns up to max pending entries in FIFO order.
	Drain(max int) []dto.Notification
	// Events exposes the feed channel for streaming consumers.
	Events() <-chan dto.Notification
}
