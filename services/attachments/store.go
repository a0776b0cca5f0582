package attachments

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/paperdesk/paperdesk/interfaces"
	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/models"
	"github.com/paperdesk/paperdesk/internal/tracing"
	"github.com/paperdesk/paperdesk/internal/utils"
)

const metaSuffix = ".json"

type localStore struct {
	dir string
	log logger.Logger
}

// NewLocalStore returns an AttachmentStore backed by a flat directory.
// Each attachment is stored as <id>_<sanitized original name> with a
// sidecar <name>.json metadata record next to it.
func NewLocalStore(dir string, log logger.Logger) (interfaces.AttachmentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create attachment directory")
	}
	return &localStore{dir: dir, log: log}, nil
}

func (s *localStore) Save(ctx context.Context, originalFilename, mimeType string, content []byte, source models.SourceMessage) (*models.AttachmentMeta, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "LocalAttachmentStore.Save")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	id := utils.GenerateOpaqueID()
	sanitized := utils.SanitizeFilename(originalFilename)
	if sanitized == "" {
		sanitized = "attachment"
	}

	storedName := id + "_" + sanitized
	storedPath := filepath.Join(s.dir, storedName)

	if err := utils.WriteFileAtomic(storedPath, content); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to store attachment")
	}

	meta := &models.AttachmentMeta{
		ID:               id,
		StoredPath:       storedPath,
		OriginalFilename: originalFilename,
		MimeType:         mimeType,
		SizeBytes:        len(content),
		Source:           source,
		SavedAt:          utils.Now(),
	}

	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if err = utils.WriteFileAtomic(storedPath+metaSuffix, metaBytes); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to store attachment metadata")
	}

	tracing.TagEntity(span, id)
	return meta, nil
}

func (s *localStore) Get(ctx context.Context, id string) (*models.AttachmentMeta, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "LocalAttachmentStore.Get")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	metas, err := s.List(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	for _, meta := range metas {
		if meta.ID == id {
			return meta, nil
		}
	}
	return nil, os.ErrNotExist
}

func (s *localStore) List(ctx context.Context) ([]*models.AttachmentMeta, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "LocalAttachmentStore.List")
	defer span.Finish()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	var metas []*models.AttachmentMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), metaSuffix) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.log.Warnf("Skipping unreadable attachment metadata %s: %v", entry.Name(), err)
			continue
		}
		var meta models.AttachmentMeta
		if err = json.Unmarshal(raw, &meta); err != nil {
			s.log.Warnf("Skipping corrupt attachment metadata %s: %v", entry.Name(), err)
			continue
		}
		metas = append(metas, &meta)
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].SavedAt.After(metas[j].SavedAt)
	})
	return metas, nil
}

func (s *localStore) Read(ctx context.Context, id string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "LocalAttachmentStore.Read")
	defer span.Finish()
	tracing.TagEntity(span, id)

	meta, err := s.Get(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return os.ReadFile(meta.StoredPath)
}
