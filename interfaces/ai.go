package interfaces

import "context"

// AIService is the LLM completion collaborator. All calls are bounded by the
// caller's context; its raw text output is untrusted and parsed defensively
// downstream.
type AIService interface {
	// ExtractDocument returns the raw completion for the classification and
	// extraction prompt. The contract asks for a single fenced JSON object
	// with keys category, name, date_received and deadlines.
	ExtractDocument(ctx context.Context, text string) (string, error)

	// FindBlankFields returns the profile field names the document leaves
	// blank and could be filled from stored profile data.
	FindBlankFields(ctx context.Context, text string, knownFields []string) ([]string, error)

	// ClassifyDocument returns a short free-text classification of the
	// document.
	ClassifyDocument(ctx context.Context, text string) (string, error)

	// CompareDocuments returns short Markdown bullet text describing the
	// differences between two document versions. Not machine-parsed.
	CompareDocuments(ctx context.Context, current, previous string) (string, error)
}
