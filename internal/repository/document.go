package repository

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"
	"gorm.io/gorm"

	"github.com/paperdesk/paperdesk/interfaces"
	er "github.com/paperdesk/paperdesk/internal/errors"
	"github.com/paperdesk/paperdesk/internal/models"
	"github.com/paperdesk/paperdesk/internal/tracing"
	"github.com/paperdesk/paperdesk/internal/utils"
)

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) interfaces.DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, document *models.Document) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DocumentRepository.Create")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if document == nil {
		tracing.TraceErr(span, er.ErrInvalidDocumentID)
		return "", er.ErrInvalidDocumentID
	}

	err := r.db.WithContext(ctx).Create(document).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	span.LogFields(log.String("result.documentId", document.ID))
	return document.ID, nil
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DocumentRepository.GetByID")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagEntity(span, id)

	if strings.TrimSpace(id) == "" {
		tracing.TraceErr(span, er.ErrInvalidDocumentID)
		return nil, er.ErrInvalidDocumentID
	}

	var document models.Document
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&document).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, er.ErrDocumentNotFound
		}
		tracing.TraceErr(span, err)
		return nil, err
	}

	return &document, nil
}

func (r *documentRepository) List(ctx context.Context, filter interfaces.DocumentFilter) ([]*models.Document, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DocumentRepository.List")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	query := r.db.WithContext(ctx).Model(&models.Document{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var documents []*models.Document
	err := query.Order("created_at desc").Find(&documents).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	span.LogFields(log.Int("result.count", len(documents)))
	return documents, nil
}

// UpdateBins persists only the bins touched by a transition. Writing the
// untouched bin columns back would overwrite concurrent moves between the
// other bins.
func (r *documentRepository) UpdateBins(ctx context.Context, id string, bins map[string]models.ObligationList) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DocumentRepository.UpdateBins")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagEntity(span, id)

	if strings.TrimSpace(id) == "" {
		tracing.TraceErr(span, er.ErrInvalidDocumentID)
		return er.ErrInvalidDocumentID
	}
	if len(bins) == 0 {
		return nil
	}

	updates := map[string]interface{}{
		"updated_at": utils.Now(),
	}
	for column, list := range bins {
		switch column {
		case "deadlines", "pending", "complete", "overdue":
			updates[column] = list
		default:
			tracing.TraceErr(span, er.ErrObligationNotFound, log.String("column", column))
			return er.ErrObligationNotFound
		}
	}

	result := r.db.WithContext(ctx).Model(&models.Document{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return er.ErrDocumentNotFound
	}

	return nil
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DocumentRepository.Delete")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagEntity(span, id)

	if strings.TrimSpace(id) == "" {
		tracing.TraceErr(span, er.ErrInvalidDocumentID)
		return er.ErrInvalidDocumentID
	}

	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Document{})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return er.ErrDocumentNotFound
	}

	return nil
}
