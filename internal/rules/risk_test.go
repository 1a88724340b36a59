package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"aurora-agent/internal/domain"
)

func TestAssessRisk_Table(t *testing.T) {
	cases := []struct {
		name    string
		emotion domain.EmotionLabel
		score   float64
		text    string
		want    domain.RiskLevel
	}{
		{"sadness at 0.70 stays medium", domain.EmotionSadness, 0.70, "", domain.RiskMedium},
		{"sadness above 0.70 is high", domain.EmotionSadness, 0.71, "", domain.RiskHigh},
		{"fear above 0.70 is high", domain.EmotionFear, 0.95, "", domain.RiskHigh},
		{"anger at 0.50 is low", domain.EmotionAnger, 0.50, "", domain.RiskLow},
		{"anger above 0.50 is medium", domain.EmotionAnger, 0.51, "", domain.RiskMedium},
		{"anger never reaches high", domain.EmotionAnger, 0.99, "", domain.RiskMedium},
		{"sadness at 0.50 is low", domain.EmotionSadness, 0.50, "", domain.RiskLow},
		{"surprise is medium at any score", domain.EmotionSurprise, 0.05, "", domain.RiskMedium},
		{"joy is low", domain.EmotionJoy, 0.99, "", domain.RiskLow},
		{"love is low", domain.EmotionLove, 0.99, "", domain.RiskLow},
		{"unknown label behaves like neutral", "boredom", 0.99, "", domain.RiskLow},
		{"crisis keyword overrides joy", domain.EmotionJoy, 0.99, "I want to end my life", domain.RiskHigh},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, AssessRisk(tc.emotion, tc.score, tc.text))
		})
	}
}

func TestAssessObservation_CrisisScenario(t *testing.T) {
	text := "I feel hopeless and want to end my life"
	obs := domain.EmotionObservation{Label: domain.EmotionSadness, Score: 0.9}
	require.True(t, DetectCrisis(text))
	require.Equal(t, domain.RiskHigh, AssessObservation(obs, text))
}

func TestRiskLevel_Order(t *testing.T) {
	require.True(t, domain.RiskLow.Less(domain.RiskMedium))
	require.True(t, domain.RiskMedium.Less(domain.RiskHigh))
	require.True(t, domain.RiskHigh.Less(domain.RiskVeryHigh))
	require.False(t, domain.RiskHigh.Less(domain.RiskHigh))

	r, ok := domain.ParseRiskLevel(" HIGH ")
	require.True(t, ok)
	require.Equal(t, domain.RiskHigh, r)
	_, ok = domain.ParseRiskLevel("critical")
	require.False(t, ok)
}
