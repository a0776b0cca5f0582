package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/paperdesk/paperdesk/internal/enum"
	"github.com/paperdesk/paperdesk/internal/utils"
)

// Obligation is one deadline/duty entry embedded in a document. StateID is
// assigned once at creation and is the only stable handle used to locate the
// entry across bins.
type Obligation struct {
	StateID         string     `json:"stateId"`
	Date            *string    `json:"date"`
	Description     string     `json:"description"`
	Recurrence      *string    `json:"recurrence"`
	PendingAt       *time.Time `json:"pendingAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	MarkedOverdueAt *time.Time `json:"markedOverdueAt,omitempty"`
}

// ObligationList is a JSONB-backed bin of obligations.
type ObligationList []Obligation

// Value implements the driver.Valuer interface for ObligationList
func (l ObligationList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(ObligationList{})
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface for ObligationList
func (l *ObligationList) Scan(value interface{}) error {
	if value == nil {
		*l = ObligationList{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// FindByStateID returns the index of the obligation with the given state id,
// or -1 when absent.
func (l ObligationList) FindByStateID(stateID string) int {
	for i, o := range l {
		if o.StateID == stateID {
			return i
		}
	}
	return -1
}

// Document is a filed piece of paperwork with its obligation bins. An
// obligation state id appears in at most one of the four bins at any time.
type Document struct {
	ID           string                `gorm:"type:varchar(50);primaryKey" json:"id"`
	Category     enum.DocumentCategory `gorm:"type:varchar(50);index;not null" json:"category"`
	Name         string                `gorm:"type:varchar(500);not null" json:"name"`
	DateReceived *string               `gorm:"type:varchar(10)" json:"date_received"`
	UserID       string                `gorm:"type:varchar(50);index" json:"user_id,omitempty"`

	// Obligation bins. "Deadlines" is the outstanding bin.
	Deadlines ObligationList `gorm:"type:jsonb" json:"deadlines"`
	Pending   ObligationList `gorm:"type:jsonb" json:"pending"`
	Complete  ObligationList `gorm:"type:jsonb" json:"complete"`
	Overdue   ObligationList `gorm:"type:jsonb" json:"overdue"`

	// Attachments this document was interpreted from.
	AttachmentIDs pq.StringArray `gorm:"type:varchar(64)[]" json:"attachment_ids,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updated_at"`
}

// TableName overrides the table name for Document
func (Document) TableName() string {
	return "documents"
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = utils.GenerateNanoIDWithPrefix("doc", 16)
	}
	d.CreatedAt = utils.Now()
	d.UpdatedAt = d.CreatedAt
	return nil
}
