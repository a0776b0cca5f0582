package dto

// CreateDocumentRequest is the validated payload for creating a document.
// Each deadline entry is [date|null, description] or
// [date|null, description, recurrence|null]; entries are normalized to the
// canonical 3-element form before persistence.
type CreateDocumentRequest struct {
	Category     string          `json:"category" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	DateReceived *string         `json:"date_received"`
	Deadlines    [][]interface{} `json:"deadlines" binding:"required"`
	UserID       string          `json:"user_id"`
}

// ExtractedDocument is the structured object recovered from the LLM
// collaborator's classification and extraction completion.
type ExtractedDocument struct {
	Category     string          `json:"category"`
	Name         string          `json:"name"`
	DateReceived *string         `json:"date_received"`
	Deadlines    [][]interface{} `json:"deadlines"`
}

// TransitionResult reports a completed bin transition.
type TransitionResult struct {
	MovedID   string         `json:"movedId"`
	BinCounts map[string]int `json:"updatedBinCounts"`
	Status    string         `json:"status"`
}
