package domain

import "time"

// VoiceAnalysis is a persisted voice stress analysis result.
type VoiceAnalysis struct {
	ID            string             `json:"id"`
	UserID        string             `json:"userId"`
	StressLevel   RiskLevel          `json:"stressLevel"`
	Confidence    float64            `json:"confidence"`
	Emotion       string             `json:"emotion"`
	EmotionScores map[string]float64 `json:"emotionScores"`
	Duration      float64            `json:"duration"`
	AnalyzedAt    time.Time          `json:"analyzedAt"`
	Suggestions   []string           `json:"suggestions"`
}
