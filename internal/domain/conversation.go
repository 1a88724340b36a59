package domain

import "time"

// Message is a single persisted conversation turn.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Conversation is the persisted support-chat transcript, keyed by SessionID and
// owned by UserID.
type Conversation struct {
	SessionID     string    `json:"sessionId"`
	UserID        string    `json:"userId"`
	Messages      []Message `json:"messages"`
	IntakeSummary string    `json:"intakeSummary,omitempty"`
	MainEmotion   string    `json:"mainEmotion,omitempty"`
	RiskLevel     string    `json:"riskLevel,omitempty"`
	SavedAt       time.Time `json:"savedAt"`
	MessageCount  int       `json:"messageCount"`
}

// ConversationListItem is the summary projection returned by list operations.
type ConversationListItem struct {
	SessionID    string    `json:"sessionId"`
	SavedAt      time.Time `json:"savedAt"`
	MessageCount int       `json:"messageCount"`
	MainEmotion  string    `json:"mainEmotion"`
	RiskLevel    string    `json:"riskLevel"`
}

// UserMessages returns the content of every user-authored message in order.
func (c Conversation) UserMessages() []string {
	out := make([]string, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			out = append(out, m.Content)
		}
	}
	return out
}
