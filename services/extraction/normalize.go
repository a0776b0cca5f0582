package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/paperdesk/paperdesk/dto"
	"github.com/paperdesk/paperdesk/internal/enum"
	er "github.com/paperdesk/paperdesk/internal/errors"
	"github.com/paperdesk/paperdesk/internal/models"
	"github.com/paperdesk/paperdesk/internal/utils"
)

const dateLayout = "2006-01-02"

// RecoverJSONObject pulls a JSON object out of an untrusted completion.
// Three attempts, in order: parse the whole text, parse the contents of the
// first fenced code block, parse the first balanced {...} span. Deterministic
// failure when none yields an object.
func RecoverJSONObject(completion string) ([]byte, error) {
	trimmed := strings.TrimSpace(completion)
	if trimmed == "" {
		return nil, er.ErrNoJSONObject
	}

	if raw, ok := tryParseObject(trimmed); ok {
		return raw, nil
	}

	if fenced := stripCodeFence(trimmed); fenced != "" {
		if raw, ok := tryParseObject(fenced); ok {
			return raw, nil
		}
	}

	if span := balancedObjectSpan(trimmed); span != "" {
		if raw, ok := tryParseObject(span); ok {
			return raw, nil
		}
	}

	return nil, er.ErrNoJSONObject
}

func tryParseObject(candidate string) ([]byte, bool) {
	candidate = strings.TrimSpace(candidate)
	if !strings.HasPrefix(candidate, "{") {
		return nil, false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return nil, false
	}
	return []byte(candidate), true
}

// stripCodeFence returns the body of the first ``` fenced block, with an
// optional language tag on the opening fence.
func stripCodeFence(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return ""
	}
	rest := text[start+3:]

	if newline := strings.Index(rest, "\n"); newline >= 0 {
		firstLine := strings.TrimSpace(rest[:newline])
		if firstLine != "" && !strings.HasPrefix(firstLine, "{") {
			rest = rest[newline+1:]
		}
	}

	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

// balancedObjectSpan returns the first {...} span with balanced braces,
// ignoring braces inside JSON strings.
func balancedObjectSpan(text string) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// ParseCompletion recovers the structured filing record from the extraction
// completion.
func ParseCompletion(completion string) (*dto.ExtractedDocument, error) {
	raw, err := RecoverJSONObject(completion)
	if err != nil {
		return nil, err
	}

	var extracted dto.ExtractedDocument
	if err = json.Unmarshal(raw, &extracted); err != nil {
		return nil, errors.Wrap(err, "completion JSON does not match the expected shape")
	}
	return &extracted, nil
}

// NormalizeDeadlineEntries validates raw deadline entries and returns them in
// the canonical [date|null, description, recurrence|null] form. The first
// invalid entry fails the whole list with an index-qualified error.
func NormalizeDeadlineEntries(entries [][]interface{}) ([][]interface{}, error) {
	normalized := make([][]interface{}, 0, len(entries))
	for i, entry := range entries {
		if len(entry) < 2 || len(entry) > 3 {
			return nil, fmt.Errorf("deadline entry %d: expected 2 or 3 elements, got %d", i, len(entry))
		}

		date, err := normalizeDate(entry[0])
		if err != nil {
			return nil, fmt.Errorf("deadline entry %d: %w", i, err)
		}

		description, ok := entry[1].(string)
		if !ok || strings.TrimSpace(description) == "" {
			return nil, fmt.Errorf("deadline entry %d: description must be a non-empty string", i)
		}

		var recurrence interface{}
		if len(entry) == 3 && entry[2] != nil {
			recurrenceStr, ok := entry[2].(string)
			if !ok || strings.TrimSpace(recurrenceStr) == "" {
				return nil, fmt.Errorf("deadline entry %d: recurrence must be a non-empty string or null", i)
			}
			recurrence = strings.TrimSpace(recurrenceStr)
		}

		normalized = append(normalized, []interface{}{date, strings.TrimSpace(description), recurrence})
	}
	return normalized, nil
}

func normalizeDate(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	dateStr, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("date must be a string or null")
	}
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" || strings.EqualFold(dateStr, "null") {
		return nil, nil
	}
	if _, err := time.Parse(dateLayout, dateStr); err != nil {
		return nil, fmt.Errorf("date %q is not in YYYY-MM-DD form", dateStr)
	}
	return dateStr, nil
}

// SeedObligations turns canonical deadline entries into the outstanding bin,
// assigning a fresh opaque state id to each.
func SeedObligations(entries [][]interface{}) models.ObligationList {
	bin := make(models.ObligationList, 0, len(entries))
	for _, entry := range entries {
		obligation := models.Obligation{
			StateID:     utils.GenerateOpaqueID(),
			Description: entry[1].(string),
		}
		if date, ok := entry[0].(string); ok {
			obligation.Date = &date
		}
		if recurrence, ok := entry[2].(string); ok {
			obligation.Recurrence = &recurrence
		}
		bin = append(bin, obligation)
	}
	return bin
}

// BuildDocument assembles the persistable document from an extraction
// result. An unrecognized category is coerced to "other"; a missing name
// gets a generated fallback from the attachment's filename stem.
func BuildDocument(extracted *dto.ExtractedDocument, attachmentIDs []string, userID, filenameStem string) (*models.Document, error) {
	entries, err := NormalizeDeadlineEntries(extracted.Deadlines)
	if err != nil {
		return nil, err
	}

	category, ok := enum.DecodeDocumentCategory(strings.ToLower(strings.TrimSpace(extracted.Category)))
	if !ok {
		category = enum.CategoryOther
	}

	var dateReceived *string
	if extracted.DateReceived != nil {
		if normalized, err := normalizeDate(*extracted.DateReceived); err == nil {
			if dateStr, ok := normalized.(string); ok {
				dateReceived = &dateStr
			}
		}
	}

	name := strings.TrimSpace(extracted.Name)
	if name == "" {
		name = fallbackName(category, dateReceived, filenameStem)
	}

	return &models.Document{
		Category:      category,
		Name:          name,
		DateReceived:  dateReceived,
		UserID:        userID,
		Deadlines:     SeedObligations(entries),
		Pending:       models.ObligationList{},
		Complete:      models.ObligationList{},
		Overdue:       models.ObligationList{},
		AttachmentIDs: attachmentIDs,
	}, nil
}

func fallbackName(category enum.DocumentCategory, dateReceived *string, filenameStem string) string {
	date := "Undated"
	if dateReceived != nil {
		date = *dateReceived
	}
	stem := utils.FirstNotEmpty(strings.TrimSpace(filenameStem), "Document")
	return fmt.Sprintf("%s - %s - Unknown - %s", date, category.Leaf(), stem)
}
