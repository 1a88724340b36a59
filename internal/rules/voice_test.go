package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"aurora-agent/internal/domain"
)

func sumScores(m map[string]float64) float64 {
	var total float64
	for _, v := range m {
		total += v
	}
	return total
}

func TestComputeFeatureStats(t *testing.T) {
	stats, err := ComputeFeatureStats([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	require.InDelta(t, 2.5, stats.Mean, 1e-9)
	require.InDelta(t, 1.25, stats.Variance, 1e-9)
	require.InDelta(t, 1.118, stats.Std, 1e-3)
	require.Zero(t, stats.TemporalVar)
	require.Equal(t, 2, stats.Coeffs)
	require.Equal(t, 2, stats.Frames)
}

func TestComputeFeatureStats_Errors(t *testing.T) {
	_, err := ComputeFeatureStats(nil)
	require.ErrorIs(t, err, ErrEmptyFeatures)

	_, err = ComputeFeatureStats([][]float64{{}})
	require.ErrorIs(t, err, ErrEmptyFeatures)

	_, err = ComputeFeatureStats([][]float64{{1, 2, 3}, {1, 2}})
	require.ErrorIs(t, err, ErrRaggedFeatures)
}

func TestClassifyVoice_SilenceIsCalm(t *testing.T) {
	stats, err := ComputeFeatureStats([][]float64{{0, 0, 0}, {0, 0, 0}})
	require.NoError(t, err)

	got := ClassifyVoice(stats)
	require.Zero(t, got.StressScore)
	require.Equal(t, domain.RiskLow, got.StressLevel)
	require.Equal(t, "calm", got.Emotion)
	require.Equal(t, 0.95, got.Confidence)
	require.InDelta(t, 1.0, sumScores(got.EmotionScores), 0.02)
	require.Greater(t, got.EmotionScores["calm"], got.EmotionScores["stressed"])
}

func TestClassifyVoice_VolatileSignalIsStressed(t *testing.T) {
	stats, err := ComputeFeatureStats([][]float64{{-100, 100, -100, 100}})
	require.NoError(t, err)

	got := ClassifyVoice(stats)
	require.Equal(t, 1.0, got.StressScore)
	require.Equal(t, domain.RiskHigh, got.StressLevel)
	require.Equal(t, "stressed", got.Emotion)
	require.Equal(t, 0.9, got.Confidence)
	require.InDelta(t, 1.0, sumScores(got.EmotionScores), 0.02)
}

func TestClassifyVoice_Bands(t *testing.T) {
	tests := []struct {
		name       string
		stats      FeatureStats
		level      domain.RiskLevel
		emotion    string
		confidence float64
	}{
		{
			name:       "anxious",
			stats:      FeatureStats{Variance: 100, Std: 10, TemporalVar: 25},
			level:      domain.RiskMedium,
			emotion:    "anxious",
			confidence: 0.80,
		},
		{
			name:       "neutral",
			stats:      FeatureStats{Variance: 75},
			level:      domain.RiskLow,
			emotion:    "neutral",
			confidence: 0.75,
		},
		{
			name:       "calm",
			stats:      FeatureStats{Variance: 10},
			level:      domain.RiskLow,
			emotion:    "calm",
			confidence: 0.94,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyVoice(tt.stats)
			require.Equal(t, tt.level, got.StressLevel)
			require.Equal(t, tt.emotion, got.Emotion)
			require.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestVoiceSuggestions(t *testing.T) {
	require.Len(t, VoiceSuggestions(domain.RiskLow), 3)
	require.Len(t, VoiceSuggestions(domain.RiskVeryHigh), 5)
	require.Equal(t, VoiceSuggestions(domain.RiskMedium), VoiceSuggestions("unknown"))

	got := VoiceSuggestions(domain.RiskHigh)
	got[0] = "mutated"
	require.NotEqual(t, "mutated", VoiceSuggestions(domain.RiskHigh)[0])
}
