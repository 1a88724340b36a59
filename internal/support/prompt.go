package support

import (
	"strings"

	"aurora-agent/internal/domain"
)

func buildMessages(c Context, history []domain.ChatMessage) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, len(history)+1)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: buildSystemPrompt(c)})
	for _, m := range history {
		switch m.Role {
		case domain.RoleUser, domain.RoleAssistant:
			messages = append(messages, domain.ChatMessage{Role: m.Role, Content: m.Content})
		}
	}
	return messages
}

func buildSystemPrompt(c Context) string {
	return strings.Join([]string{
		"You are Aurora, a compassionate mental health support companion.",
		"You provide emotional support, active listening, and gentle guidance.",
		"",
		"User Context:",
		"- Intake Summary: " + orUnknown(c.Summary),
		"- Current Emotion: " + orUnknown(string(c.Emotion)),
		"- Risk Level: " + orUnknown(string(c.Risk)),
		"",
		"Guidelines:",
		guidelines(),
		"",
		"Remember: you are a supportive friend, not a therapist. Listen more than you advise.",
	}, "\n")
}

func guidelines() string {
	return strings.Join([]string{
		"- Be warm, empathetic, and non-judgmental.",
		"- Use active listening: reflect, validate, summarize.",
		"- Ask open-ended questions to understand more.",
		"- Suggest healthy coping strategies when appropriate.",
		"- Keep responses concise, usually 2-4 sentences.",
		"- Never diagnose, prescribe, or replace professional therapy.",
		"- If the user shows signs of crisis, encourage professional help and emergency services.",
		"- Acknowledge pain; avoid toxic positivity.",
	}, "\n")
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
