package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"aurora-agent/internal/domain"
	"aurora-agent/internal/rules"
)

const (
	maxAnalysisTextLen = 5000 // characters
	emptyChatMessage   = "Thank you for sharing. Feel free to express more when you're ready."
	emptyChatScore     = 0.5
)

var emptyChatSuggestions = []string{"Take a moment to reflect", "Try journaling your thoughts"}

// CheckInService analyses free text and guided check-in transcripts.
type CheckInService struct {
	classifier Classifier
	selector   *rules.Selector
	logger     *slog.Logger
}

type AnalyzeTextInput struct {
	UserID string
	Text   string
}

type AnalyzeChatInput struct {
	UserID string
	Turns  []domain.Turn
}

type AnalysisOutput struct {
	SessionID      string
	OverallLabel   string
	Observation    domain.EmotionObservation
	RiskLevel      domain.RiskLevel
	RiskVersion    string
	Message        string
	Suggestions    []string
	CrisisDetected bool
	// Degraded is set when the classifier was unavailable and a neutral
	// observation was used instead.
	Degraded     bool
	AnalyzedText string
}

// NewCheckInService accepts a nil selector and uses the process-wide one.
func NewCheckInService(c Classifier, selector *rules.Selector, logger *slog.Logger) (*CheckInService, error) {
	if c == nil {
		return nil, errors.New("usecase: classifier must not be nil")
	}
	if selector == nil {
		selector = rules.NewSelector(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckInService{classifier: c, selector: selector, logger: logger}, nil
}

func (s *CheckInService) AnalyzeText(ctx context.Context, in AnalyzeTextInput) (AnalysisOutput, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return AnalysisOutput{}, invalid("empty_text")
	}
	if utf8.RuneCountInString(text) > maxAnalysisTextLen {
		return AnalysisOutput{}, invalid("text_too_long")
	}
	return s.analyze(ctx, text), nil
}

// AnalyzeChat analyses the combined user turns. A transcript without user text
// gets a fixed neutral answer rather than an error.
func (s *CheckInService) AnalyzeChat(ctx context.Context, in AnalyzeChatInput) (AnalysisOutput, error) {
	combined := rules.CombineUserText(in.Turns)
	if strings.TrimSpace(combined) == "" {
		obs := domain.EmotionObservation{Label: domain.EmotionNeutral, Score: emptyChatScore}
		return AnalysisOutput{
			SessionID:    newUUID(),
			OverallLabel: obs.Label.Title(),
			Observation:  obs,
			RiskLevel:    domain.RiskLow,
			Message:      emptyChatMessage,
			Suggestions:  append([]string(nil), emptyChatSuggestions...),
		}, nil
	}
	if utf8.RuneCountInString(combined) > maxAnalysisTextLen*4 {
		return AnalysisOutput{}, invalid("text_too_long")
	}
	out := s.analyze(ctx, combined)
	out.AnalyzedText = combined
	return out, nil
}

func (s *CheckInService) analyze(ctx context.Context, text string) AnalysisOutput {
	crisis := rules.DetectCrisis(text)
	if crisis {
		s.logger.WarnContext(ctx, "crisis keywords in check-in",
			slog.Int("matched", len(rules.MatchedCrisisKeywords(text))),
		)
	}

	obs, degraded := s.observe(ctx, text)
	risk := rules.AssessObservation(obs, text)
	bundle := s.selector.Select(obs.Label, risk)
	if crisis {
		bundle.Message += rules.CrisisResources
	}

	return AnalysisOutput{
		SessionID:      newUUID(),
		OverallLabel:   obs.Label.Title(),
		Observation:    obs,
		RiskLevel:      risk,
		RiskVersion:    rules.RiskTableVersion,
		Message:        bundle.Message,
		Suggestions:    bundle.Suggestions,
		CrisisDetected: crisis,
		Degraded:       degraded,
	}
}

// observe classifies text, falling back to a neutral observation when the
// classifier fails.
func (s *CheckInService) observe(ctx context.Context, text string) (domain.EmotionObservation, bool) {
	return classifyOrNeutral(ctx, s.classifier, s.logger, text)
}

func classifyOrNeutral(ctx context.Context, c Classifier, logger *slog.Logger, text string) (domain.EmotionObservation, bool) {
	scores, err := c.Classify(ctx, text)
	if err != nil {
		attrs := []any{slog.Any("err", err)}
		if status, ok := upstreamStatusCode(err); ok {
			attrs = append(attrs, slog.Int("status", status))
		}
		logger.ErrorContext(ctx, "emotion classifier unavailable", attrs...)
		return domain.NeutralObservation(), true
	}
	obs := domain.TopEmotion(scores)
	obs.Label = obs.Label.OrNeutral()
	return obs, false
}
