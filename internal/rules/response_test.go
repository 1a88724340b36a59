package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"aurora-agent/internal/domain"
)

func first(int) int { return 0 }
func last(n int) int { return n - 1 }

func TestSelect_EveryCellHasTwoCandidates(t *testing.T) {
	s := NewSelector(nil)
	for emotion, row := range responses {
		for _, risk := range []domain.RiskLevel{domain.RiskLow, domain.RiskMedium, domain.RiskHigh} {
			cell, ok := row[risk]
			require.True(t, ok, "%s/%s missing", emotion, risk)
			require.NotEqual(t, cell.messages[0], cell.messages[1])
			require.NotEmpty(t, cell.suggestions)
			require.Len(t, s.Candidates(emotion, risk), 2)
		}
	}
}

func TestSelect_MessageIsAlwaysACandidate_SuggestionsStable(t *testing.T) {
	s := NewSelector(nil)
	candidates := s.Candidates(domain.EmotionFear, domain.RiskMedium)
	want := s.Select(domain.EmotionFear, domain.RiskMedium)

	for i := 0; i < 50; i++ {
		got := s.Select(domain.EmotionFear, domain.RiskMedium)
		require.Contains(t, candidates, got.Message)
		require.Equal(t, want.Suggestions, got.Suggestions)
		require.Equal(t, domain.RiskMedium, got.RiskLevel)
	}
}

func TestSelect_RerollsEveryCall(t *testing.T) {
	calls := 0
	s := NewSelector(func(n int) int {
		calls++
		return calls % n
	})
	a := s.Select(domain.EmotionSadness, domain.RiskLow)
	b := s.Select(domain.EmotionSadness, domain.RiskLow)
	require.Equal(t, 2, calls)
	require.NotEqual(t, a.Message, b.Message)
	require.Equal(t, a.Suggestions, b.Suggestions)
}

func TestSelect_UnknownEmotionUsesNeutralRow(t *testing.T) {
	s := NewSelector(first)
	require.Equal(t, s.Select(domain.EmotionNeutral, domain.RiskMedium), s.Select("boredom", domain.RiskMedium))

	s = NewSelector(last)
	require.Equal(t, s.Select(domain.EmotionNeutral, domain.RiskMedium), s.Select("", domain.RiskMedium))
}

func TestSelect_UnknownTierUsesLowColumn(t *testing.T) {
	s := NewSelector(first)
	got := s.Select(domain.EmotionSadness, domain.RiskVeryHigh)
	low := s.Select(domain.EmotionSadness, domain.RiskLow)
	require.Equal(t, domain.RiskVeryHigh, got.RiskLevel)
	require.Equal(t, low.Message, got.Message)
	require.Equal(t, low.Suggestions, got.Suggestions)
}

func TestSelect_CompleteMissFallsBackToGeneric(t *testing.T) {
	s := &Selector{table: responseTable{}, intn: first}
	got := s.Select(domain.EmotionJoy, domain.RiskLow)
	require.Equal(t, "Take care of yourself.", got.Message)
	require.Equal(t, []string{fallbackSuggestion}, got.Suggestions)
	require.Nil(t, s.Candidates(domain.EmotionJoy, domain.RiskLow))
}

func TestSelect_SuggestionsAreCopies(t *testing.T) {
	s := NewSelector(first)
	got := s.Select(domain.EmotionJoy, domain.RiskLow)
	got.Suggestions[0] = "mutated"
	require.Equal(t, "Note one small thing that went okay today", s.Select(domain.EmotionJoy, domain.RiskLow).Suggestions[0])
}

func TestSelect_GoodDayScenario(t *testing.T) {
	text := "Had a pretty good day today"
	obs := domain.EmotionObservation{Label: domain.EmotionJoy, Score: 0.85}
	risk := AssessObservation(obs, text)
	require.Equal(t, domain.RiskLow, risk)

	got := SelectResponse(obs.Label, risk)
	require.Equal(t, domain.RiskLow, got.RiskLevel)
	require.Contains(t, defaultSelector.Candidates(domain.EmotionJoy, domain.RiskLow), got.Message)
	require.Equal(t, []string{
		"Note one small thing that went okay today",
		"Keep noticing the little positives",
	}, got.Suggestions)
}
