package provider

import "strings"

// FlattenMessages renders a structured conversation as a single prompt
// string for providers that have no native chat concept. Messages keep
// their original order and are labeled by role.
func FlattenMessages(messages []Message) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		switch m.Role {
		case MessageRoleSystem:
			b.WriteString("System: ")
		case MessageRoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
