package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"aurora-agent/internal/domain"
	"aurora-agent/internal/rules"
)

func firstCandidate(int) int { return 0 }

func newCheckIn(t *testing.T, c Classifier) *CheckInService {
	t.Helper()
	svc, err := NewCheckInService(c, rules.NewSelector(firstCandidate), nil)
	require.NoError(t, err)
	return svc
}

func TestNewCheckInService_ValidatesDependencies(t *testing.T) {
	_, err := NewCheckInService(nil, nil, nil)
	require.Error(t, err)
}

func TestAnalyzeText_CrisisScenario(t *testing.T) {
	fixedUUID(t, "sess-1")
	svc := newCheckIn(t, classifierReturning("sadness", 0.9))

	out, err := svc.AnalyzeText(context.Background(), AnalyzeTextInput{Text: "I feel hopeless and want to end my life"})
	require.NoError(t, err)
	require.Equal(t, "sess-1", out.SessionID)
	require.Equal(t, domain.EmotionSadness, out.Observation.Label)
	require.Equal(t, "Sadness", out.OverallLabel)
	require.Equal(t, domain.RiskHigh, out.RiskLevel)
	require.Equal(t, rules.RiskTableVersion, out.RiskVersion)
	require.True(t, out.CrisisDetected)
	require.True(t, strings.HasSuffix(out.Message, rules.CrisisResources))
	require.False(t, out.Degraded)
}

func TestAnalyzeText_GoodDayScenario(t *testing.T) {
	svc := newCheckIn(t, classifierReturning("joy", 0.85))

	out, err := svc.AnalyzeText(context.Background(), AnalyzeTextInput{Text: "Had a pretty good day today"})
	require.NoError(t, err)
	require.Equal(t, domain.RiskLow, out.RiskLevel)
	require.False(t, out.CrisisDetected)
	require.Equal(t, rules.NewSelector(nil).Candidates(domain.EmotionJoy, domain.RiskLow)[0], out.Message)
	require.Equal(t, []string{"Note one small thing that went okay today", "Keep noticing the little positives"}, out.Suggestions)
}

func TestAnalyzeText_ClassifierFailureDegradesToNeutral(t *testing.T) {
	svc := newCheckIn(t, &fakeClassifier{err: statusErr(http.StatusServiceUnavailable)})

	out, err := svc.AnalyzeText(context.Background(), AnalyzeTextInput{Text: "Just an ordinary afternoon"})
	require.NoError(t, err)
	require.True(t, out.Degraded)
	require.Equal(t, domain.NeutralObservation(), out.Observation)
	require.Equal(t, domain.RiskLow, out.RiskLevel)
	require.NotEmpty(t, out.Message)
}

func TestAnalyzeText_CrisisSurvivesClassifierFailure(t *testing.T) {
	svc := newCheckIn(t, &fakeClassifier{err: errors.New("timeout")})

	out, err := svc.AnalyzeText(context.Background(), AnalyzeTextInput{Text: "I keep thinking about suicide"})
	require.NoError(t, err)
	require.True(t, out.Degraded)
	require.True(t, out.CrisisDetected)
	require.Equal(t, domain.RiskHigh, out.RiskLevel)
	require.Contains(t, out.Message, rules.CrisisResources)
}

func TestAnalyzeText_UnknownLabelTreatedAsNeutral(t *testing.T) {
	svc := newCheckIn(t, classifierReturning("confusion", 0.99))

	out, err := svc.AnalyzeText(context.Background(), AnalyzeTextInput{Text: "not sure"})
	require.NoError(t, err)
	require.Equal(t, domain.EmotionNeutral, out.Observation.Label)
	require.Equal(t, domain.RiskLow, out.RiskLevel)
}

func TestAnalyzeText_Validation(t *testing.T) {
	c := &fakeClassifier{}
	svc := newCheckIn(t, c)

	_, err := svc.AnalyzeText(context.Background(), AnalyzeTextInput{Text: "   "})
	expectError(t, err, ErrorInvalidInput, "empty_text")

	_, err = svc.AnalyzeText(context.Background(), AnalyzeTextInput{Text: strings.Repeat("a", maxAnalysisTextLen+1)})
	expectError(t, err, ErrorInvalidInput, "text_too_long")
	require.Zero(t, c.calls)
}

func TestAnalyzeText_LengthCountsCharacters(t *testing.T) {
	c := classifierReturning("joy", 0.9)
	svc := newCheckIn(t, c)

	_, err := svc.AnalyzeText(context.Background(), AnalyzeTextInput{Text: strings.Repeat("é", maxAnalysisTextLen)})
	require.NoError(t, err)
	require.Equal(t, 1, c.calls)
}

func TestAnalyzeChat_CombinesUserTurns(t *testing.T) {
	c := classifierReturning("fear", 0.6)
	svc := newCheckIn(t, c)

	out, err := svc.AnalyzeChat(context.Background(), AnalyzeChatInput{Turns: []domain.Turn{
		{Role: domain.RoleAssistant, Text: "How are you feeling?"},
		{Role: domain.RoleUser, Text: "Worried about exams."},
		{Role: domain.RoleAssistant, Text: "Tell me more."},
		{Role: domain.RoleUser, Text: "I can't focus."},
	}})
	require.NoError(t, err)
	require.Equal(t, "Worried about exams. I can't focus.", out.AnalyzedText)
	require.Equal(t, out.AnalyzedText, c.text)
	require.Equal(t, domain.RiskMedium, out.RiskLevel)
}

func TestAnalyzeChat_NoUserTextGetsNeutralAnswer(t *testing.T) {
	c := &fakeClassifier{}
	svc := newCheckIn(t, c)

	out, err := svc.AnalyzeChat(context.Background(), AnalyzeChatInput{Turns: []domain.Turn{
		{Role: domain.RoleAssistant, Text: "Hi there"},
		{Role: domain.RoleUser, Text: "  "},
	}})
	require.NoError(t, err)
	require.Zero(t, c.calls)
	require.Equal(t, "Neutral", out.OverallLabel)
	require.Equal(t, 0.5, out.Observation.Score)
	require.Equal(t, domain.RiskLow, out.RiskLevel)
	require.Equal(t, emptyChatMessage, out.Message)
	require.Equal(t, emptyChatSuggestions, out.Suggestions)
	require.NotEmpty(t, out.SessionID)
}
