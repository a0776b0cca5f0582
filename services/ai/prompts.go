package ai

import (
	"fmt"
	"strings"

	"github.com/paperdesk/paperdesk/internal/enum"
)

const extractionSystemPrompt = `You are a meticulous back-office assistant that files business paperwork. You respond with exactly one fenced JSON code block and nothing else.`

const blankFieldsSystemPrompt = `You review scanned forms and report which fields were left blank. You respond with a JSON array of field names and nothing else.`

const classifySystemPrompt = `You classify business documents. Respond with a short lowercase phrase describing the document, e.g. "utility bill", "employment contract", "bank statement".`

const compareSystemPrompt = `You compare two versions of the same business document and report the differences as short Markdown bullet points. If the documents are effectively identical, say so in one bullet.`

func buildExtractionPrompt(text string) string {
	categories := enum.DocumentCategories()
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}

	return fmt.Sprintf(`Read the document below and extract its filing record.

Allowed categories (pick exactly one): %s

Rules:
- "name" is a short human-readable title for the document.
- "date_received" is the document date in YYYY-MM-DD, or null if absent.
- "deadlines" is a list of entries [date, description, recurrence]:
  - date: YYYY-MM-DD or null when the document names a duty without a date
  - description: what must be done
  - recurrence: "monthly", "quarterly", "yearly" or null
- When unsure of the category, use "other".

Respond with exactly one fenced JSON code block:

`+"```json\n"+`{"category": "...", "name": "...", "date_received": "...", "deadlines": [["...", "...", "..."]]}
`+"```"+`

Document:
---
%s
---`, strings.Join(names, ", "), text)
}

func buildBlankFieldsPrompt(text string, knownFields []string) string {
	return fmt.Sprintf(`The user profile stores values for these fields: %s

Read the form below and list the fields that are left blank in the form AND are present in the profile list above. Respond with a JSON array of field names, e.g. ["full_name", "iban"]. Respond with [] if nothing matches.

Form:
---
%s
---`, strings.Join(knownFields, ", "), text)
}

func buildClassifyPrompt(text string) string {
	return fmt.Sprintf(`Classify this document in a few words:

---
%s
---`, text)
}

func buildComparePrompt(current, previous string) string {
	return fmt.Sprintf(`Compare the CURRENT document against the PREVIOUS version and list the differences as Markdown bullets. Focus on amounts, dates, parties and obligations.

CURRENT:
---
%s
---

PREVIOUS:
---
%s
---`, current, previous)
}
