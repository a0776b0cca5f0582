package imapmail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/jhillyerd/enmime"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/paperdesk/paperdesk/config"
	"github.com/paperdesk/paperdesk/interfaces"
	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/tracing"
)

type imapClient struct {
	cfg *config.IMAPConfig
	log logger.Logger
}

// NewIMAPClient returns a MailClient over plain IMAP for mailboxes outside
// Gmail. Messages are fetched whole and parsed locally, so attachment bodies
// arrive inline with the message instead of via a separate download.
func NewIMAPClient(cfg *config.IMAPConfig, log logger.Logger) interfaces.MailClient {
	return &imapClient{cfg: cfg, log: log}
}

func (c *imapClient) connect() (*client.Client, error) {
	address := fmt.Sprintf("%s:%d", c.cfg.Server, c.cfg.Port)

	var conn *client.Client
	var err error
	if c.cfg.UseTLS {
		conn, err = client.DialTLS(address, nil)
	} else {
		conn, err = client.Dial(address)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", address)
	}

	if err = conn.Login(c.cfg.Username, c.cfg.Password); err != nil {
		conn.Logout()
		return nil, errors.Wrap(err, "imap login failed")
	}
	return conn, nil
}

// ListUnseen searches the configured folder for unseen messages. The query
// string is Gmail syntax and has no IMAP equivalent; the UNSEEN flag search
// covers the same intent.
func (c *imapClient) ListUnseen(ctx context.Context, query string, maxResults int) ([]string, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "IMAPClient.ListUnseen")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	conn, err := c.connect()
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	defer conn.Logout()

	if _, err = conn.Select(c.cfg.Folder, true); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "failed to select folder %s", c.cfg.Folder)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := conn.UidSearch(criteria)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "imap search failed")
	}

	// Newest first, bounded.
	sort.Slice(uids, func(i, j int) bool { return uids[i] > uids[j] })
	if maxResults > 0 && len(uids) > maxResults {
		uids = uids[:maxResults]
	}

	ids := make([]string, 0, len(uids))
	for _, uid := range uids {
		ids = append(ids, strconv.FormatUint(uint64(uid), 10))
	}

	span.LogFields(log.Int("result.count", len(ids)))
	return ids, nil
}

func (c *imapClient) GetMessage(ctx context.Context, id string) (*interfaces.MailMessage, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "IMAPClient.GetMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "invalid imap uid %q", id)
	}

	conn, err := c.connect()
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	defer conn.Logout()

	if _, err = conn.Select(c.cfg.Folder, true); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "failed to select folder %s", c.cfg.Folder)
	}

	raw, err := fetchRaw(conn, uint32(uid))
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	message, err := parseMessage(id, raw)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return message, nil
}

// GetAttachment refetches the message and returns the body of the addressed
// part. Normally unused for IMAP since parts carry their bytes inline.
func (c *imapClient) GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPClient.GetAttachment")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, messageID)

	message, err := c.GetMessage(ctx, messageID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if message.Payload == nil {
		return nil, errors.Errorf("message %s has no payload", messageID)
	}

	if part := findPart(*message.Payload, attachmentID); part != nil {
		return part.Data, nil
	}
	return nil, errors.Errorf("attachment %s not found in message %s", attachmentID, messageID)
}

func fetchRaw(conn *client.Client, uid uint32) ([]byte, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{Peek: true}
	messages := make(chan *imap.Message, 1)
	if err := conn.UidFetch(seqSet, []imap.FetchItem{section.FetchItem()}, messages); err != nil {
		return nil, errors.Wrap(err, "imap fetch failed")
	}

	message := <-messages
	if message == nil {
		return nil, errors.Errorf("message with uid %d not found", uid)
	}

	body := message.GetBody(section)
	if body == nil {
		return nil, errors.Errorf("message with uid %d has no body", uid)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read message body")
	}
	return raw, nil
}

// parseMessage converts a raw RFC822 message into the common part-tree
// shape. Attachment parts carry their bytes inline and a synthetic
// positional attachment id.
func parseMessage(id string, raw []byte) (*interfaces.MailMessage, error) {
	envelope, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse message")
	}

	headers := map[string]string{
		"From":       envelope.GetHeader("From"),
		"To":         envelope.GetHeader("To"),
		"Subject":    envelope.GetHeader("Subject"),
		"Date":       envelope.GetHeader("Date"),
		"Message-Id": envelope.GetHeader("Message-Id"),
	}
	if headers["Message-Id"] == "" {
		headers["Message-Id"] = envelope.GetHeader("Message-ID")
	}

	payload := &interfaces.MessagePart{MimeType: "multipart/mixed"}
	index := 0
	for _, part := range append(envelope.Attachments, envelope.Inlines...) {
		if part.FileName == "" || len(part.Content) == 0 {
			continue
		}
		payload.Parts = append(payload.Parts, interfaces.MessagePart{
			Filename:     part.FileName,
			MimeType:     part.ContentType,
			AttachmentID: fmt.Sprintf("att-%d", index),
			Data:         part.Content,
			Size:         len(part.Content),
		})
		index++
	}

	return &interfaces.MailMessage{
		ID:      id,
		Headers: headers,
		Payload: payload,
	}, nil
}

func findPart(part interfaces.MessagePart, attachmentID string) *interfaces.MessagePart {
	if part.AttachmentID == attachmentID {
		return &part
	}
	for i := range part.Parts {
		if found := findPart(part.Parts[i], attachmentID); found != nil {
			return found
		}
	}
	return nil
}
