package interfaces

// Ledger is the durable set of mail-message ids already claimed for
// processing. Entries are written once and never removed in normal
// operation. Single-writer assumption.
type Ledger interface {
	Contains(messageID string) bool
	// Mark records the id durably before returning.
	Mark(messageID string) error
	Size() int
}
