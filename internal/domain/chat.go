package domain

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is the provider-agnostic chat turn shape passed to LLM
// integrations. System prompts travel as the first message.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Turn is a single guided check-in or intake turn as sent by the client.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
