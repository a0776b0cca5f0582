package attachments

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/paperdesk/paperdesk/config"
	"github.com/paperdesk/paperdesk/interfaces"
	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/models"
	"github.com/paperdesk/paperdesk/internal/tracing"
	"github.com/paperdesk/paperdesk/internal/utils"
)

type s3Store struct {
	client *s3.S3
	bucket string
	log    logger.Logger
}

// NewS3Store returns an AttachmentStore backed by an S3-compatible bucket.
// Object puts are atomic, so no temp-and-rename dance is needed here.
func NewS3Store(cfg *config.StorageConfig, log logger.Logger) (interfaces.AttachmentStore, error) {
	awsConfig := &aws.Config{
		Region:      aws.String(cfg.S3Region),
		Credentials: credentials.NewStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey, ""),
	}
	if cfg.S3Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.S3Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	awsSession, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create aws session")
	}

	return &s3Store{
		client: s3.New(awsSession),
		bucket: cfg.S3Bucket,
		log:    log,
	}, nil
}

func (s *s3Store) Save(ctx context.Context, originalFilename, mimeType string, content []byte, source models.SourceMessage) (*models.AttachmentMeta, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "S3AttachmentStore.Save")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	id := utils.GenerateOpaqueID()
	sanitized := utils.SanitizeFilename(originalFilename)
	if sanitized == "" {
		sanitized = "attachment"
	}
	key := id + "_" + sanitized

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to upload attachment")
	}

	meta := &models.AttachmentMeta{
		ID:               id,
		StoredPath:       "s3://" + s.bucket + "/" + key,
		OriginalFilename: originalFilename,
		MimeType:         mimeType,
		SizeBytes:        len(content),
		Source:           source,
		SavedAt:          utils.Now(),
	}

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key + metaSuffix),
		Body:        bytes.NewReader(metaBytes),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to upload attachment metadata")
	}

	tracing.TagEntity(span, id)
	return meta, nil
}

func (s *s3Store) Get(ctx context.Context, id string) (*models.AttachmentMeta, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "S3AttachmentStore.Get")
	defer span.Finish()
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

func (s *s3Store) List(ctx context.Context) ([]*models.AttachmentMeta, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "S3AttachmentStore.List")
	defer span.Finish()

	var metas []*models.AttachmentMeta
	var continuation *string
	for {
		page, err := s.client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			ContinuationToken: continuation,
		})
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}

		for _, object := range page.Contents {
			key := aws.StringValue(object.Key)
			if !strings.HasSuffix(key, metaSuffix) {
				continue
			}
			meta, err := s.readMeta(ctx, key)
			if err != nil {
				s.log.Warnf("Skipping unreadable attachment metadata %s: %v", key, err)
				continue
			}
			metas = append(metas, meta)
		}

		if !aws.BoolValue(page.IsTruncated) {
			break
		}
		continuation = page.NextContinuationToken
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].SavedAt.After(metas[j].SavedAt)
	})
	return metas, nil
}

func (s *s3Store) Read(ctx context.Context, id string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "S3AttachmentStore.Read")
	defer span.Finish()
	tracing.TagEntity(span, id)

	meta, err := s.Get(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	key := strings.TrimPrefix(meta.StoredPath, "s3://"+s.bucket+"/")
	output, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	defer output.Body.Close()

	return io.ReadAll(output.Body)
}

func (s *s3Store) readMeta(ctx context.Context, key string) (*models.AttachmentMeta, error) {
	output, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer output.Body.Close()

	raw, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, err
	}

	var meta models.AttachmentMeta
	if err = json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
