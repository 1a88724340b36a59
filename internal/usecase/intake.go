package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"aurora-agent/internal/domain"
	"aurora-agent/internal/rules"
)

// IntakeService turns the guided intake transcript into the summary handed to
// the support chat.
type IntakeService struct {
	classifier Classifier
	logger     *slog.Logger
	now        func() time.Time
}

type IntakeInput struct {
	UserID string
	Turns  []domain.Turn
}

type IntakeOutput struct {
	SessionID string
	Summary     domain.ConversationSummary
	RiskVersion string
	Degraded    bool
	Timestamp   time.Time
}

func NewIntakeService(c Classifier, logger *slog.Logger) (*IntakeService, error) {
	if c == nil {
		return nil, errors.New("usecase: classifier must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IntakeService{classifier: c, logger: logger, now: time.Now}, nil
}

func (s *IntakeService) Summarize(ctx context.Context, in IntakeInput) (IntakeOutput, error) {
	userText := rules.CombineUserText(in.Turns)
	if strings.TrimSpace(userText) == "" {
		return IntakeOutput{}, invalid("no_user_messages")
	}

	obs, degraded := classifyOrNeutral(ctx, s.classifier, s.logger, userText)
	summary := rules.BuildSummary(userText, obs)
	summary.EmotionScore = round3(summary.EmotionScore)

	return IntakeOutput{
		SessionID:   newUUID(),
		Summary:     summary,
		RiskVersion: rules.RiskTableVersion,
		Degraded:    degraded,
		Timestamp:   s.now().UTC(),
	}, nil
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
