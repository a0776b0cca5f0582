package dto

import (
	"time"

	"github.com/paperdesk/paperdesk/internal/enum"
)

// Notification is one entry on the live activity feed.
type Notification struct {
	Type      enum.NotificationType  `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data"`
	CreatedAt time.Time              `json:"created_at"`
}

func NewCompareNotification(docID, diff string) Notification {
	return Notification{
		Type:    enum.NotificationCompare,
		Title:   "Document Comparison",
		Message: "Document differences have been detected.",
		Data:    map[string]interface{}{"docId": docID, "diff": diff},
	}
}

func NewFormNotification(formID string) Notification {
	return Notification{
		Type:    enum.NotificationForm,
		Title:   "Form Ready",
		Message: "A form has been filled and is ready for review.",
		Data:    map[string]interface{}{"formId": formID},
	}
}

func NewTransactionNotification(transactionID string) Notification {
	return Notification{
		Type:    enum.NotificationTransaction,
		Title:   "Transaction Pending",
		Message: "A transaction requires your confirmation.",
		Data:    map[string]interface{}{"transactionId": transactionID},
	}
}
