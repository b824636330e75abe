package domain

import "strings"

const (
	RoleAgent    = "agent"
	RoleCustomer = "customer"
)

// Turn is one utterance in a conversation. The orchestrator treats the turn
// sequence as read-only input.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Transcript renders turns as "<ROLE>: <content>" lines in original order,
// which is the representation every prompt template receives.
func Transcript(turns []Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.ToUpper(strings.TrimSpace(t.Role)))
		b.WriteString(": ")
		b.WriteString(t.Content)
	}
	return b.String()
}

// CustomerRecord is the read-only customer snapshot shared by all widgets in
// one orchestration call.
type CustomerRecord struct {
	CustomerID string `json:"customerId"`
	Name       string `json:"name"`
	Gender     string `json:"gender"`
	City       string `json:"city"`
	Region     string `json:"region"`
	Postcode   string `json:"postcode"`
	Segment    string `json:"segment,omitempty"`
	Tenure     string `json:"tenure,omitempty"`
}
