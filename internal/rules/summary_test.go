package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"aurora-agent/internal/domain"
)

func TestSummarize_DeadlineAndSleepScenario(t *testing.T) {
	text := "I have a huge deadline at work tomorrow. I can't sleep and I keep checking my email"
	got := Summarize(text, domain.EmotionFear, domain.RiskMedium)

	require.Equal(t,
		`User is feeling challenged, expressing fear concerning work, sleep. They shared: "I have a huge deadline at work tomorrow..."`,
		got)
	require.Less(t, strings.Index(got, "work"), strings.Index(got, "sleep"))
}

func TestSummarize_TopicOrderIsDeclarationOrder(t *testing.T) {
	text := "so numb and sad, my partner left, I can't sleep, my boss yells"
	require.Equal(t, []string{"work", "sleep", "relationships", "mood"}, DetectTopics(text))

	got := Summarize(text, domain.EmotionSadness, domain.RiskHigh)
	require.Contains(t, got, "concerning work, sleep, relationships.")
	require.NotContains(t, got, "mood")
	require.Contains(t, got, "experiencing significant distress")
}

func TestSummarize_NoTopicsNoSnippet(t *testing.T) {
	require.Equal(t, "User is managing but seeking support, expressing joy.", Summarize("", domain.EmotionJoy, domain.RiskLow))
	require.Equal(t, "User is managing but seeking support, expressing joy.", Summarize(".  second part", domain.EmotionJoy, domain.RiskLow))
}

func TestSummarize_SnippetTruncatedTo100Runes(t *testing.T) {
	long := strings.Repeat("é", 150)
	got := Summarize(long, domain.EmotionNeutral, domain.RiskLow)

	start := strings.Index(got, `"`)
	end := strings.LastIndex(got, `..."`)
	require.Positive(t, start)
	require.Equal(t, 100, len([]rune(got[start+1:end])))
}

func TestSummarize_IsDeterministic(t *testing.T) {
	text := "Work has been a lot. I feel anxious and tired most days."
	a := Summarize(text, domain.EmotionFear, domain.RiskMedium)
	for i := 0; i < 20; i++ {
		require.Equal(t, a, Summarize(text, domain.EmotionFear, domain.RiskMedium))
	}
}

func TestBuildSummary_AssessesRisk(t *testing.T) {
	s := BuildSummary("I want to die", domain.EmotionObservation{Label: domain.EmotionJoy, Score: 0.6})
	require.Equal(t, domain.RiskHigh, s.RiskLevel)
	require.Equal(t, domain.EmotionJoy, s.MainEmotion)
	require.Equal(t, 0.6, s.EmotionScore)
	require.True(t, strings.HasPrefix(s.SummaryText, "User is experiencing significant distress, expressing joy."))
}

func TestCombineUserText(t *testing.T) {
	turns := []domain.Turn{
		{Role: "assistant", Text: "How are you?"},
		{Role: "user", Text: "Tired."},
		{Role: "assistant", Text: "Why?"},
		{Role: "user", Text: "Deadlines."},
	}
	require.Equal(t, "Tired. Deadlines.", CombineUserText(turns))
	require.Empty(t, CombineUserText(nil))
}
