package errors

import "github.com/pkg/errors"

var (
	// document errors
	ErrDocumentNotFound  = errors.New("document not found")
	ErrInvalidDocumentID = errors.New("invalid document id")

	// obligation errors
	ErrObligationNotFound = errors.New("obligation not found in source bin")

	// completion errors
	ErrNoCompletion        = errors.New("completion service returned no content")
	ErrNoJSONObject        = errors.New("no JSON object found in completion")
	ErrCompletionTimeout   = errors.New("completion request timed out")
	ErrUnknownCategory     = errors.New("unknown document category")
	ErrEmptyDocumentText   = errors.New("document text is empty")
	ErrUnsupportedDocument = errors.New("unsupported document content type")
)
