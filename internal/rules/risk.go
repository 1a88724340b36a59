package rules

import "aurora-agent/internal/domain"

// RiskTableVersion identifies the threshold table below and is returned with
// every assessed risk level. Bump it whenever a threshold or emotion set changes.
const RiskTableVersion = "2025-11.1"

const (
	highRiskThreshold   = 0.7
	mediumRiskThreshold = 0.5
)

var (
	highRiskEmotions = map[domain.EmotionLabel]bool{
		domain.EmotionSadness: true,
		domain.EmotionFear:    true,
	}
	mediumRiskEmotions = map[domain.EmotionLabel]bool{
		domain.EmotionSadness: true,
		domain.EmotionFear:    true,
		domain.EmotionAnger:   true,
	}
)

// AssessRisk maps an emotion observation and the raw user text to a risk level.
// Rules are evaluated in order and the first match wins; thresholds are strict.
func AssessRisk(emotion domain.EmotionLabel, score float64, text string) domain.RiskLevel {
	if DetectCrisis(text) {
		return domain.RiskHigh
	}
	switch {
	case highRiskEmotions[emotion] && score > highRiskThreshold:
		return domain.RiskHigh
	case mediumRiskEmotions[emotion] && score > mediumRiskThreshold:
		return domain.RiskMedium
	case emotion == domain.EmotionSurprise:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// AssessObservation is AssessRisk for an EmotionObservation.
func AssessObservation(obs domain.EmotionObservation, text string) domain.RiskLevel {
	return AssessRisk(obs.Label, obs.Score, text)
}
