package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	er "github.com/paperdesk/paperdesk/internal/errors"
)

func TestExtractText_PlainPassthrough(t *testing.T) {
	text, err := ExtractText([]byte("hello paperwork"), "text/plain", "note.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello paperwork", text)
}

func TestExtractText_TextLikeByExtension(t *testing.T) {
	text, err := ExtractText([]byte("a,b,c"), "application/octet-stream", "export.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b,c", text)
}

func TestExtractText_HTMLStripsMarkup(t *testing.T) {
	html := `<html><head><style>body { color: red }</style><script>alert(1)</script></head>
<body><h1>Invoice 42</h1><p>Total due: <b>100 EUR</b></p></body></html>`

	text, err := ExtractText([]byte(html), "text/html", "invoice.html")
	require.NoError(t, err)
	assert.Contains(t, text, "Invoice 42")
	assert.Contains(t, text, "Total due: 100 EUR")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color: red")
}

func TestExtractText_UnsupportedType(t *testing.T) {
	_, err := ExtractText([]byte{0x00, 0x01}, "image/png", "scan.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, er.ErrUnsupportedDocument)
}

func TestExtractText_EmptyContent(t *testing.T) {
	_, err := ExtractText(nil, "text/plain", "empty.txt")
	assert.ErrorIs(t, err, er.ErrEmptyDocumentText)
}

func TestExtractText_CorruptPDF(t *testing.T) {
	_, err := ExtractText([]byte("%PDF-1.4 not really a pdf"), "application/pdf", "doc.pdf")
	assert.Error(t, err)
}
