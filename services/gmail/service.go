package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/paperdesk/paperdesk/config"
	"github.com/paperdesk/paperdesk/interfaces"
	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/tracing"
)

type gmailClient struct {
	cfg        *config.GmailConfig
	httpClient *http.Client
	log        logger.Logger
}

// NewGmailClient returns a MailClient over the Gmail REST API, authenticated
// with a long-lived refresh token. Access tokens are refreshed transparently
// by the oauth2 transport.
func NewGmailClient(cfg *config.GmailConfig, log logger.Logger) interfaces.MailClient {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: cfg.TokenURL,
		},
	}
	token := &oauth2.Token{RefreshToken: cfg.RefreshToken}

	return &gmailClient{
		cfg:        cfg,
		httpClient: oauthConfig.Client(context.Background(), token),
		log:        log,
	}
}

type listResponse struct {
	Messages []struct {
		ID       string `json:"id"`
		ThreadID string `json:"threadId"`
	} `json:"messages"`
}

type messageResponse struct {
	ID       string       `json:"id"`
	ThreadID string       `json:"threadId"`
	Payload  *messagePart `json:"payload"`
}

type messagePart struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Headers  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"headers"`
	Body struct {
		AttachmentID string `json:"attachmentId"`
		Size         int    `json:"size"`
		Data         string `json:"data"`
	} `json:"body"`
	Parts []messagePart `json:"parts"`
}

type attachmentResponse struct {
	Size int    `json:"size"`
	Data string `json:"data"`
}

func (c *gmailClient) ListUnseen(ctx context.Context, query string, maxResults int) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GmailClient.ListUnseen")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	endpoint := fmt.Sprintf("%s/gmail/v1/users/me/messages?q=%s&maxResults=%d",
		strings.TrimSuffix(c.cfg.BaseURL, "/"), url.QueryEscape(query), maxResults)

	var response listResponse
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	ids := make([]string, 0, len(response.Messages))
	for _, message := range response.Messages {
		ids = append(ids, message.ID)
	}

	span.LogFields(log.Int("result.count", len(ids)))
	return ids, nil
}

func (c *gmailClient) GetMessage(ctx context.Context, id string) (*interfaces.MailMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GmailClient.GetMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	endpoint := fmt.Sprintf("%s/gmail/v1/users/me/messages/%s?format=full",
		strings.TrimSuffix(c.cfg.BaseURL, "/"), url.PathEscape(id))

	var response messageResponse
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	message := &interfaces.MailMessage{
		ID:       response.ID,
		ThreadID: response.ThreadID,
		Headers:  map[string]string{},
	}
	if response.Payload != nil {
		for _, header := range response.Payload.Headers {
			message.Headers[http.CanonicalHeaderKey(header.Name)] = header.Value
		}
		payload := convertPart(*response.Payload)
		message.Payload = &payload
	}

	return message, nil
}

func (c *gmailClient) GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GmailClient.GetAttachment")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, messageID)

	endpoint := fmt.Sprintf("%s/gmail/v1/users/me/messages/%s/attachments/%s",
		strings.TrimSuffix(c.cfg.BaseURL, "/"), url.PathEscape(messageID), url.PathEscape(attachmentID))

	var response attachmentResponse
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	content, err := decodeBase64URL(response.Data)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to decode attachment body")
	}
	return content, nil
}

func (c *gmailClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return errors.Wrap(err, "gmail request failed")
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	if response.StatusCode != http.StatusOK {
		return errors.Errorf("gmail request returned status %d: %s", response.StatusCode, string(body))
	}

	return json.Unmarshal(body, out)
}

func convertPart(part messagePart) interfaces.MessagePart {
	converted := interfaces.MessagePart{
		Filename:     part.Filename,
		MimeType:     part.MimeType,
		AttachmentID: part.Body.AttachmentID,
		Size:         part.Body.Size,
	}
	if part.Body.Data != "" {
		if data, err := decodeBase64URL(part.Body.Data); err == nil {
			converted.Data = data
		}
	}
	for _, child := range part.Parts {
		converted.Parts = append(converted.Parts, convertPart(child))
	}
	return converted
}

// decodeBase64URL accepts the url-safe alphabet with or without padding,
// which is what the Gmail API actually returns.
func decodeBase64URL(data string) ([]byte, error) {
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return decoded, nil
	}
	return base64.URLEncoding.DecodeString(data)
}
