package attachments

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/models"
)

func testLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{LogLevel: "error"})
	appLogger.InitLogger()
	return appLogger
}

func testSource() models.SourceMessage {
	return models.SourceMessage{
		From:      "sender@example.com",
		To:        "me@example.com",
		Subject:   "Invoice",
		Date:      "Mon, 3 Nov 2025 10:00:00 +0100",
		MessageID: "msg-1",
	}
}

func TestLocalStore_SaveWritesFileAndSidecar(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, testLogger())
	require.NoError(t, err)

	meta, err := store.Save(context.Background(), "invoice.pdf", "application/pdf", []byte("pdf bytes"), testSource())
	require.NoError(t, err)

	assert.NotEmpty(t, meta.ID)
	assert.Equal(t, "invoice.pdf", meta.OriginalFilename)
	assert.Equal(t, 9, meta.SizeBytes)
	assert.True(t, strings.HasSuffix(meta.StoredPath, "_invoice.pdf"))

	content, err := os.ReadFile(meta.StoredPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf bytes"), content)

	sidecar, err := os.ReadFile(meta.StoredPath + ".json")
	require.NoError(t, err)

	var stored models.AttachmentMeta
	require.NoError(t, json.Unmarshal(sidecar, &stored))
	assert.Equal(t, meta.ID, stored.ID)
	assert.Equal(t, "sender@example.com", stored.Source.From)
}

func TestLocalStore_SanitizesFilename(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, testLogger())
	require.NoError(t, err)

	meta, err := store.Save(context.Background(), "../../etc/passwd", "text/plain", []byte("x"), testSource())
	require.NoError(t, err)

	// Stored inside the directory, path separators neutralized.
	assert.Equal(t, dir, filepath.Dir(meta.StoredPath))
	assert.NotContains(t, filepath.Base(meta.StoredPath), "/")
	assert.Equal(t, "../../etc/passwd", meta.OriginalFilename)
}

func TestLocalStore_NoPartialFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, testLogger())
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "a.txt", "text/plain", []byte("aaa"), testSource())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry.Name(), ".tmp-"), "leftover temp file %s", entry.Name())
	}
}

func TestLocalStore_GetAndRead(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), testLogger())
	require.NoError(t, err)

	saved, err := store.Save(context.Background(), "note.txt", "text/plain", []byte("hello"), testSource())
	require.NoError(t, err)

	meta, err := store.Get(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, meta.ID)

	content, err := store.Read(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), content)

	_, err = store.Get(context.Background(), "missing")
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStore_ListNewestFirst(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), testLogger())
	require.NoError(t, err)

	first, err := store.Save(context.Background(), "v1.txt", "text/plain", []byte("1"), testSource())
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := store.Save(context.Background(), "v2.txt", "text/plain", []byte("2"), testSource())
	require.NoError(t, err)

	metas, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, second.ID, metas[0].ID)
	assert.Equal(t, first.ID, metas[1].ID)
}

func TestLocalStore_DistinctIDsForSameContent(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), testLogger())
	require.NoError(t, err)

	a, err := store.Save(context.Background(), "same.txt", "text/plain", []byte("same"), testSource())
	require.NoError(t, err)
	b, err := store.Save(context.Background(), "same.txt", "text/plain", []byte("same"), testSource())
	require.NoError(t, err)

	// Ids are never derived from content; re-delivery creates a new record.
	assert.NotEqual(t, a.ID, b.ID)

	metas, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, metas, 2)
}
