package provider

// MessageRole identifies the sender of a message in a conversation.
type MessageRole string

// MessageRole constants for conversation messages.
const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// Request is the input to a Provider.Complete call. It is constructed by
// the caller and consumed read-only by every adapter.
type Request struct {
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}
