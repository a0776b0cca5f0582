package extraction

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"

	er "github.com/paperdesk/paperdesk/internal/errors"
)

// ExtractText converts stored attachment bytes to plain text for the
// completion prompts. PDF and HTML are converted; text-like content passes
// through. Anything else is unsupported.
func ExtractText(content []byte, mimeType, filename string) (string, error) {
	if len(content) == 0 {
		return "", er.ErrEmptyDocumentText
	}

	switch {
	case isPDF(mimeType, filename, content):
		return extractPDFText(content)
	case isHTML(mimeType, filename):
		return extractHTMLText(content)
	case isTextLike(mimeType, filename):
		return string(content), nil
	default:
		return "", errors.Wrapf(er.ErrUnsupportedDocument, "mime type %q", mimeType)
	}
}

func isPDF(mimeType, filename string, content []byte) bool {
	if strings.EqualFold(mimeType, "application/pdf") {
		return true
	}
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return bytes.HasPrefix(content, []byte("%PDF-"))
}

func isHTML(mimeType, filename string) bool {
	if strings.HasPrefix(strings.ToLower(mimeType), "text/html") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".html" || ext == ".htm"
}

func isTextLike(mimeType, filename string) bool {
	lower := strings.ToLower(mimeType)
	if strings.HasPrefix(lower, "text/") {
		return true
	}
	switch lower {
	case "application/json", "application/xml", "application/csv":
		return true
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".csv", ".json", ".xml":
		return true
	}
	return false
}

func extractPDFText(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", errors.Wrap(err, "failed to open pdf")
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", errors.Wrap(err, "failed to extract pdf text")
	}

	var builder strings.Builder
	if _, err = io.Copy(&builder, textReader); err != nil {
		return "", errors.Wrap(err, "failed to read pdf text")
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", er.ErrEmptyDocumentText
	}
	return text, nil
}

func extractHTMLText(content []byte) (string, error) {
	document, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", errors.Wrap(err, "failed to parse html")
	}

	document.Find("script, style, noscript").Remove()

	text := strings.TrimSpace(document.Text())
	if text == "" {
		return "", er.ErrEmptyDocumentText
	}

	// Collapse the whitespace runs left behind by removed markup.
	return strings.Join(strings.Fields(text), " "), nil
}
