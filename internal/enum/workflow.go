package enum

// Workflow identifies the downstream action an ingested attachment triggers.
type Workflow string

const (
	WorkflowForm        Workflow = "form"
	WorkflowTransaction Workflow = "transaction"
	WorkflowCompare     Workflow = "compare"
)

func (w Workflow) String() string {
	return string(w)
}
