package composer

import "fmt"

// InvariantError reports a defect in static data: a template naming an
// unknown node, or a track whose stages cannot be ordered. It is never
// caused by user input and must not be swallowed.
type InvariantError struct {
	TemplateID string
	NodeID     string
	Reason     string
}

func (e *InvariantError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("template %s: %s", e.TemplateID, e.Reason)
	}
	return fmt.Sprintf("template %s: node %s: %s", e.TemplateID, e.NodeID, e.Reason)
}
