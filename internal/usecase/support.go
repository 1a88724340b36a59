package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"aurora-agent/internal/domain"
	"aurora-agent/internal/rules"
	"aurora-agent/internal/support"
)

const maxSupportMessages = 50

// SupportService runs the open-ended companion chat after intake.
type SupportService struct {
	agent  *support.Agent
	logger *slog.Logger
}

type ChatInput struct {
	UserID        string
	SessionID     string
	IntakeSummary string
	MainEmotion   string
	RiskLevel     string
	Messages      []domain.ChatMessage
}

type ChatOutput struct {
	Reply          string
	CrisisDetected bool
	// Degraded is set when Reply is a fixed fallback instead of a model answer.
	Degraded bool
}

func NewSupportService(agent *support.Agent, logger *slog.Logger) (*SupportService, error) {
	if agent == nil {
		return nil, errors.New("usecase: support agent must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SupportService{agent: agent, logger: logger}, nil
}

// Chat never fails because the model is unavailable; it answers with a safe
// fallback and keeps the crisis flag and resources.
func (s *SupportService) Chat(ctx context.Context, in ChatInput) (ChatOutput, error) {
	if len(in.Messages) == 0 {
		return ChatOutput{}, invalid("empty_messages")
	}
	if strings.TrimSpace(in.Messages[len(in.Messages)-1].Content) == "" {
		return ChatOutput{}, invalid("empty_message")
	}
	history := in.Messages
	if len(history) > maxSupportMessages {
		history = history[len(history)-maxSupportMessages:]
	}

	risk, _ := domain.ParseRiskLevel(in.RiskLevel)
	reply, err := s.agent.Respond(ctx, history, support.Context{
		Summary: strings.TrimSpace(in.IntakeSummary),
		Emotion: domain.ParseEmotion(in.MainEmotion),
		Risk:    risk,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "support chat degraded",
			slog.String("session_id", in.SessionID),
			slog.Any("err", err),
		)
		text := support.SafeMessage(err)
		if reply.CrisisDetected {
			text += rules.CrisisResources
		}
		return ChatOutput{Reply: text, CrisisDetected: reply.CrisisDetected, Degraded: true}, nil
	}
	return ChatOutput{Reply: reply.Text, CrisisDetected: reply.CrisisDetected}, nil
}

type HealthOutput struct {
	Available bool
	Message   string
}

func (s *SupportService) Health() HealthOutput {
	if s.agent.Available() {
		return HealthOutput{Available: true, Message: "Support chat is configured and ready."}
	}
	return HealthOutput{Available: false, Message: "Support chat is not configured."}
}
