package extraction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperdesk/paperdesk/dto"
	"github.com/paperdesk/paperdesk/internal/enum"
	er "github.com/paperdesk/paperdesk/internal/errors"
)

func TestRecoverJSONObject_DirectParse(t *testing.T) {
	raw, err := RecoverJSONObject(`{"category": "contract", "name": "Lease"}`)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, "contract", parsed["category"])
}

func TestRecoverJSONObject_FencedBlock(t *testing.T) {
	completions := []string{
		"```json\n{\"category\": \"banking\"}\n```",
		"```\n{\"category\": \"banking\"}\n```",
		"Here is the result:\n```json\n{\"category\": \"banking\"}\n```\nLet me know if you need anything else.",
	}

	for _, completion := range completions {
		raw, err := RecoverJSONObject(completion)
		require.NoError(t, err, "completion: %s", completion)

		var parsed map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &parsed))
		assert.Equal(t, "banking", parsed["category"])
	}
}

func TestRecoverJSONObject_BalancedSpanInProse(t *testing.T) {
	completion := `Sure! The extracted record is {"category": "payroll", "name": "Payslip {March}"} as requested.`

	raw, err := RecoverJSONObject(completion)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, "Payslip {March}", parsed["name"])
}

func TestRecoverJSONObject_BracesInsideStrings(t *testing.T) {
	completion := `{"name": "Contract }{ weird", "category": "contract"}`

	raw, err := RecoverJSONObject(completion)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, "Contract }{ weird", parsed["name"])
}

func TestRecoverJSONObject_NoObjectFailsDeterministically(t *testing.T) {
	for _, completion := range []string{"", "no json here", "[1, 2, 3]", "{broken"} {
		_, err := RecoverJSONObject(completion)
		assert.ErrorIs(t, err, er.ErrNoJSONObject, "completion: %q", completion)
	}
}

func TestNormalizeDeadlineEntries_CanonicalForm(t *testing.T) {
	entries := [][]interface{}{
		{"2025-12-01", "File tax return", "yearly"},
		{"2025-12-15", "Submit payment"},
	}

	normalized, err := NormalizeDeadlineEntries(entries)
	require.NoError(t, err)
	require.Len(t, normalized, 2)

	assert.Equal(t, []interface{}{"2025-12-01", "File tax return", "yearly"}, normalized[0])
	assert.Equal(t, []interface{}{"2025-12-15", "Submit payment", nil}, normalized[1])
}

func TestNormalizeDeadlineEntries_NullDate(t *testing.T) {
	normalized, err := NormalizeDeadlineEntries([][]interface{}{
		{nil, "Renew registration", "every year"},
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{nil, "Renew registration", "every year"}, normalized[0])
}

func TestNormalizeDeadlineEntries_IndexQualifiedErrors(t *testing.T) {
	tests := []struct {
		name    string
		entries [][]interface{}
		wantErr string
	}{
		{
			name:    "bad date at index 1",
			entries: [][]interface{}{{"2025-01-01", "ok"}, {"not-a-date", "bad"}},
			wantErr: "deadline entry 1",
		},
		{
			name:    "empty description at index 0",
			entries: [][]interface{}{{"2025-01-01", ""}},
			wantErr: "deadline entry 0",
		},
		{
			name:    "too few elements",
			entries: [][]interface{}{{"2025-01-01"}},
			wantErr: "deadline entry 0",
		},
		{
			name:    "too many elements",
			entries: [][]interface{}{{"2025-01-01", "ok", "monthly", "extra"}},
			wantErr: "deadline entry 0",
		},
		{
			name:    "non-string recurrence",
			entries: [][]interface{}{{"2025-01-01", "ok", 5}},
			wantErr: "deadline entry 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeDeadlineEntries(tt.entries)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalizeDeadlineEntries_NoPartialAcceptance(t *testing.T) {
	normalized, err := NormalizeDeadlineEntries([][]interface{}{
		{"2025-01-01", "valid"},
		{"garbage", "invalid"},
	})
	assert.Error(t, err)
	assert.Nil(t, normalized)
}

func TestSeedObligations_FreshStateIDs(t *testing.T) {
	entries, err := NormalizeDeadlineEntries([][]interface{}{
		{"2025-12-01", "File tax return", "yearly"},
		{nil, "Keep records"},
	})
	require.NoError(t, err)

	bin := SeedObligations(entries)
	require.Len(t, bin, 2)

	assert.NotEmpty(t, bin[0].StateID)
	assert.NotEmpty(t, bin[1].StateID)
	assert.NotEqual(t, bin[0].StateID, bin[1].StateID)

	require.NotNil(t, bin[0].Date)
	assert.Equal(t, "2025-12-01", *bin[0].Date)
	require.NotNil(t, bin[0].Recurrence)
	assert.Equal(t, "yearly", *bin[0].Recurrence)

	assert.Nil(t, bin[1].Date)
	assert.Nil(t, bin[1].Recurrence)
	assert.Equal(t, "Keep records", bin[1].Description)
}

func TestBuildDocument(t *testing.T) {
	dateReceived := "2025-11-20"
	document, err := BuildDocument(&dto.ExtractedDocument{
		Category:     "tax_filing",
		Name:         "Income Tax Assessment 2025",
		DateReceived: &dateReceived,
		Deadlines:    [][]interface{}{{"2025-12-01", "File tax return", "yearly"}},
	}, []string{"att1"}, "user1", "assessment")
	require.NoError(t, err)

	assert.Equal(t, enum.CategoryTaxFiling, document.Category)
	assert.Equal(t, "Income Tax Assessment 2025", document.Name)
	assert.Equal(t, "user1", document.UserID)
	require.NotNil(t, document.DateReceived)
	assert.Equal(t, "2025-11-20", *document.DateReceived)

	assert.Len(t, document.Deadlines, 1)
	assert.Empty(t, document.Pending)
	assert.Empty(t, document.Complete)
	assert.Empty(t, document.Overdue)
	assert.Equal(t, []string{"att1"}, []string(document.AttachmentIDs))
}

func TestBuildDocument_UnknownCategoryCoercedToOther(t *testing.T) {
	document, err := BuildDocument(&dto.ExtractedDocument{
		Category:  "mystery_paper",
		Name:      "Something",
		Deadlines: [][]interface{}{},
	}, nil, "", "scan")
	require.NoError(t, err)
	assert.Equal(t, enum.CategoryOther, document.Category)
}

func TestBuildDocument_NameFallback(t *testing.T) {
	dateReceived := "2025-10-01"
	document, err := BuildDocument(&dto.ExtractedDocument{
		Category:     "banking",
		DateReceived: &dateReceived,
		Deadlines:    [][]interface{}{},
	}, nil, "", "statement_q3")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-01 - Banking - Unknown - statement_q3", document.Name)

	document, err = BuildDocument(&dto.ExtractedDocument{
		Category:  "other",
		Deadlines: [][]interface{}{},
	}, nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, "Undated - Other - Unknown - Document", document.Name)
}

func TestBuildDocument_MalformedDeadlinesRejectWholeWrite(t *testing.T) {
	_, err := BuildDocument(&dto.ExtractedDocument{
		Category:  "contract",
		Name:      "Lease",
		Deadlines: [][]interface{}{{"bad-date", "pay rent"}},
	}, nil, "", "lease")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadline entry 0")
}

func TestParseCompletion_FullRecord(t *testing.T) {
	completion := "```json\n" + `{
  "category": "vat_return",
  "name": "VAT Return Q4",
  "date_received": "2025-11-01",
  "deadlines": [["2026-01-31", "Submit VAT return", "quarterly"]]
}` + "\n```"

	extracted, err := ParseCompletion(completion)
	require.NoError(t, err)
	assert.Equal(t, "vat_return", extracted.Category)
	assert.Equal(t, "VAT Return Q4", extracted.Name)
	require.Len(t, extracted.Deadlines, 1)
	assert.Equal(t, "Submit VAT return", extracted.Deadlines[0][1])
}
