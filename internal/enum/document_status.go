package enum

// DocumentStatus is the aggregate, presentation-only status computed from a
// document's outstanding deadlines. It is never persisted.
type DocumentStatus string

const (
	DocumentStatusOK             DocumentStatus = "ok"
	DocumentStatusNeedsAttention DocumentStatus = "needs_attention"
)

func (s DocumentStatus) String() string {
	return string(s)
}
