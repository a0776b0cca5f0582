package models

import "time"

// SourceMessage captures the mail headers of the message an attachment was
// extracted from.
type SourceMessage struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Date      string `json:"date"`
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id"`
}

// AttachmentMeta is the sidecar metadata record written next to each stored
// attachment. Immutable after creation; the id is process-generated and never
// derived from content, so re-delivery of the same bytes under a different
// message id creates a new record.
type AttachmentMeta struct {
	ID               string        `json:"id"`
	StoredPath       string        `json:"stored_path"`
	OriginalFilename string        `json:"original_filename"`
	MimeType         string        `json:"mime_type"`
	SizeBytes        int           `json:"size_bytes"`
	Source           SourceMessage `json:"source_message"`
	SavedAt          time.Time     `json:"saved_at"`
}
