package interfaces

import "context"

// MessagePart is one node of a message's MIME-like part tree. A part counts
// as an attachment iff it carries a non-empty Filename and an AttachmentID
// (or inline Data) referencing its binary body.
type MessagePart struct {
	Filename     string
	MimeType     string
	AttachmentID string
	Data         []byte
	Size         int
	Parts        []MessagePart
}

// MailMessage is a fetched mail message with its flattened header set and
// part tree.
type MailMessage struct {
	ID       string
	ThreadID string
	Headers  map[string]string
	Payload  *MessagePart
}

// MailClient is the mail-provider collaborator. Query syntax is
// provider-specific.
type MailClient interface {
	// ListUnseen returns ids of messages matching the query, newest first,
	// bounded by maxResults.
	ListUnseen(ctx context.Context, query string, maxResults int) ([]string, error)
	GetMessage(ctx context.Context, id string) (*MailMessage, error)
	GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error)
}
