package domain

import "strings"

// EmotionLabel is one label of the classifier vocabulary.
type EmotionLabel string

const (
	EmotionSadness  EmotionLabel = "sadness"
	EmotionJoy      EmotionLabel = "joy"
	EmotionAnger    EmotionLabel = "anger"
	EmotionFear     EmotionLabel = "fear"
	EmotionNeutral  EmotionLabel = "neutral"
	EmotionSurprise EmotionLabel = "surprise"
	EmotionLove     EmotionLabel = "love"
)

var knownEmotions = map[EmotionLabel]struct{}{
	EmotionSadness:  {},
	EmotionJoy:      {},
	EmotionAnger:    {},
	EmotionFear:     {},
	EmotionNeutral:  {},
	EmotionSurprise: {},
	EmotionLove:     {},
}

// ParseEmotion lower-cases and trims s. The result may be a label outside the
// known vocabulary; use Known to check.
func ParseEmotion(s string) EmotionLabel {
	return EmotionLabel(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether e belongs to the fixed vocabulary.
func (e EmotionLabel) Known() bool {
	_, ok := knownEmotions[e]
	return ok
}

// OrNeutral returns e when known and EmotionNeutral otherwise.
func (e EmotionLabel) OrNeutral() EmotionLabel {
	if e.Known() {
		return e
	}
	return EmotionNeutral
}

// Title returns the label with its first letter upper-cased ("sadness" -> "Sadness").
func (e EmotionLabel) Title() string {
	s := string(e)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// EmotionScore is one raw (label, confidence) pair returned by a classifier.
type EmotionScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// EmotionObservation is the top classifier result for one analyzed text unit.
type EmotionObservation struct {
	Label EmotionLabel `json:"label"`
	Score float64      `json:"score"`
}

// NeutralObservation is used when no classifier result is available.
func NeutralObservation() EmotionObservation {
	return EmotionObservation{Label: EmotionNeutral, Score: 0}
}

// TopEmotion returns the highest-scoring label as an observation. Labels outside
// the known set are kept as-is; an empty input yields the neutral observation.
func TopEmotion(scores []EmotionScore) EmotionObservation {
	if len(scores) == 0 {
		return NeutralObservation()
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return EmotionObservation{Label: ParseEmotion(best.Label), Score: best.Score}
}

// RiskLevel is the ordered severity classification.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

// Rank returns the position of r in the order low < medium < high < very_high,
// or -1 for an unknown level.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskVeryHigh:
		return 3
	default:
		return -1
	}
}

// Less reports whether r is strictly below o.
func (r RiskLevel) Less(o RiskLevel) bool {
	return r.Rank() < o.Rank()
}

// Valid reports whether r is one of the defined levels.
func (r RiskLevel) Valid() bool {
	return r.Rank() >= 0
}

// ParseRiskLevel normalises s; unknown values return ok=false.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	r := RiskLevel(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// ResponseBundle is the supportive message and coping suggestions for one request.
type ResponseBundle struct {
	RiskLevel   RiskLevel `json:"riskLevel"`
	Message     string    `json:"message"`
	Suggestions []string  `json:"suggestions"`
}

// ConversationSummary is built once from an intake transcript and handed to the
// support chat as opaque context.
type ConversationSummary struct {
	SummaryText  string       `json:"summary"`
	MainEmotion  EmotionLabel `json:"mainEmotion"`
	EmotionScore float64      `json:"emotionScore"`
	RiskLevel    RiskLevel    `json:"riskLevel"`
}
