package enum

// NotificationType tags entries on the live activity feed.
type NotificationType string

const (
	NotificationCompare     NotificationType = "compare"
	NotificationForm        NotificationType = "form"
	NotificationTransaction NotificationType = "transaction"
	NotificationGeneric     NotificationType = "generic"
)

func (n NotificationType) String() string {
	return string(n)
}
