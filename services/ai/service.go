package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/paperdesk/paperdesk/config"
	"github.com/paperdesk/paperdesk/interfaces"
	er "github.com/paperdesk/paperdesk/internal/errors"
	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/tracing"
)

const maxDocumentChars = 30000

type aiService struct {
	cfg        *config.LLMConfig
	log        logger.Logger
	httpClient *http.Client
}

func NewAIService(cfg *config.LLMConfig, log logger.Logger) interfaces.AIService {
	return &aiService{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (s *aiService) ExtractDocument(ctx context.Context, text string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AIService.ExtractDocument")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if strings.TrimSpace(text) == "" {
		tracing.TraceErr(span, er.ErrEmptyDocumentText)
		return "", er.ErrEmptyDocumentText
	}

	prompt := buildExtractionPrompt(clip(text))
	return s.complete(ctx, extractionSystemPrompt, prompt)
}

func (s *aiService) FindBlankFields(ctx context.Context, text string, knownFields []string) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AIService.FindBlankFields")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	prompt := buildBlankFieldsPrompt(clip(text), knownFields)
	completion, err := s.complete(ctx, blankFieldsSystemPrompt, prompt)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	fields := parseStringArray(completion)

	// Only fields we actually hold profile data for are actionable.
	var matched []string
	for _, field := range fields {
		for _, known := range knownFields {
			if strings.EqualFold(strings.TrimSpace(field), known) {
				matched = append(matched, known)
				break
			}
		}
	}

	return matched, nil
}

func (s *aiService) ClassifyDocument(ctx context.Context, text string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AIService.ClassifyDocument")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	return s.complete(ctx, classifySystemPrompt, buildClassifyPrompt(clip(text)))
}

func (s *aiService) CompareDocuments(ctx context.Context, current, previous string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AIService.CompareDocuments")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	return s.complete(ctx, compareSystemPrompt, buildComparePrompt(clip(current), clip(previous)))
}

func (s *aiService) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AIService.complete")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	requestBody, err := json.Marshal(chatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0,
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	url := strings.TrimSuffix(s.cfg.BaseURL, "/") + "/chat/completions"
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	response, err := s.httpClient.Do(request)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			tracing.TraceErr(span, er.ErrCompletionTimeout)
			return "", er.ErrCompletionTimeout
		}
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "completion request failed")
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	if response.StatusCode != http.StatusOK {
		err = errors.Errorf("completion request returned status %d: %s", response.StatusCode, string(body))
		tracing.TraceErr(span, err)
		return "", err
	}

	var completion chatCompletionResponse
	if err = json.Unmarshal(body, &completion); err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "failed to decode completion response")
	}
	if completion.Error != nil {
		err = errors.Errorf("completion error: %s", completion.Error.Message)
		tracing.TraceErr(span, err)
		return "", err
	}
	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		tracing.TraceErr(span, er.ErrNoCompletion)
		return "", er.ErrNoCompletion
	}

	return completion.Choices[0].Message.Content, nil
}

func clip(text string) string {
	if len(text) > maxDocumentChars {
		return text[:maxDocumentChars]
	}
	return text
}

// parseStringArray recovers a JSON string array from a completion that may
// wrap it in a code fence or surrounding prose. Falls back to line splitting.
func parseStringArray(completion string) []string {
	trimmed := strings.TrimSpace(completion)

	var fields []string
	if err := json.Unmarshal([]byte(trimmed), &fields); err == nil {
		return fields
	}

	if start := strings.Index(trimmed, "["); start >= 0 {
		if end := strings.LastIndex(trimmed, "]"); end > start {
			if err := json.Unmarshal([]byte(trimmed[start:end+1]), &fields); err == nil {
				return fields
			}
		}
	}

	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-* "))
		line = strings.Trim(line, `"',`)
		if line != "" {
			fields = append(fields, line)
		}
	}
	return fields
}
