package interfaces

import (
	"context"

	"github.com/paperdesk/paperdesk/internal/enum"
	"github.com/paperdesk/paperdesk/internal/models"
)

// DocumentFilter narrows List results. Zero values match everything.
type DocumentFilter struct {
	Category enum.DocumentCategory
	UserID   string
}

// DocumentRepository is the persistence boundary for documents.
type DocumentRepository interface {
	Create(ctx context.Context, document *models.Document) (string, error)
	GetByID(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]*models.Document, error)
	// UpdateBins persists only the given obligation bins (plus updated_at),
	// never the whole document, so concurrent transitions on disjoint bins
	// of the same document do not overwrite each other.
	UpdateBins(ctx context.Context, id string, bins map[string]models.ObligationList) error
	Delete(ctx context.Context, id string) error
}
