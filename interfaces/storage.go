package interfaces

import (
	"context"

	"github.com/paperdesk/paperdesk/internal/models"
)

// AttachmentStore persists extracted attachment bytes plus one sidecar
// metadata record per attachment. Writes are atomic: a concurrent reader
// never observes a partially written object.
type AttachmentStore interface {
	Save(ctx context.Context, originalFilename, mimeType string, content []byte, source models.SourceMessage) (*models.AttachmentMeta, error)
	Get(ctx context.Context, id string) (*models.AttachmentMeta, error)
	List(ctx context.Context) ([]*models.AttachmentMeta, error)
	Read(ctx context.Context, id string) ([]byte, error)
}
