package interfaces

import (
	"context"

	"github.com/paperdesk/paperdesk/internal/models"
)

// Dispatcher decides which downstream workflow a freshly saved attachment
// triggers and runs it. Failures are logged and swallowed; a bad attachment
// or a collaborator outage must never stop ingestion.
type Dispatcher interface {
	Dispatch(ctx context.Context, meta *models.AttachmentMeta)
}
