package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aurora-agent/internal/domain"
	"aurora-agent/internal/rules"
)

func newIntake(t *testing.T, c Classifier) *IntakeService {
	t.Helper()
	svc, err := NewIntakeService(c, nil)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestNewIntakeService_ValidatesDependencies(t *testing.T) {
	_, err := NewIntakeService(nil, nil)
	require.Error(t, err)
}

func TestSummarize_DeadlineScenario(t *testing.T) {
	fixedUUID(t, "intake-1")
	svc := newIntake(t, classifierReturning("fear", 0.61234))

	out, err := svc.Summarize(context.Background(), IntakeInput{Turns: []domain.Turn{
		{Role: domain.RoleAssistant, Text: "What's on your mind?"},
		{Role: domain.RoleUser, Text: "I have a huge deadline at work tomorrow."},
		{Role: domain.RoleAssistant, Text: "How is that affecting you?"},
		{Role: domain.RoleUser, Text: "I can't sleep and I keep checking my email"},
	}})
	require.NoError(t, err)
	require.Equal(t, "intake-1", out.SessionID)
	require.Equal(t, domain.EmotionFear, out.Summary.MainEmotion)
	require.Equal(t, 0.612, out.Summary.EmotionScore)
	require.Equal(t, domain.RiskMedium, out.Summary.RiskLevel)
	require.Equal(t, rules.RiskTableVersion, out.RiskVersion)
	require.Equal(t,
		`User is feeling challenged, expressing fear concerning work, sleep. They shared: "I have a huge deadline at work tomorrow..."`,
		out.Summary.SummaryText)
	require.Less(t, strings.Index(out.Summary.SummaryText, "work"), strings.Index(out.Summary.SummaryText, "sleep"))
	require.Equal(t, time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC), out.Timestamp)
}

func TestSummarize_CrisisForcesHigh(t *testing.T) {
	svc := newIntake(t, classifierReturning("joy", 0.9))

	out, err := svc.Summarize(context.Background(), IntakeInput{Turns: []domain.Turn{
		{Role: domain.RoleUser, Text: "Honestly I feel like I'd be better off dead"},
	}})
	require.NoError(t, err)
	require.Equal(t, domain.RiskHigh, out.Summary.RiskLevel)
	require.Contains(t, out.Summary.SummaryText, "experiencing significant distress")
}

func TestSummarize_ClassifierFailure(t *testing.T) {
	svc := newIntake(t, &fakeClassifier{err: errors.New("unreachable")})

	out, err := svc.Summarize(context.Background(), IntakeInput{Turns: []domain.Turn{
		{Role: domain.RoleUser, Text: "Work has been a lot"},
	}})
	require.NoError(t, err)
	require.True(t, out.Degraded)
	require.Equal(t, domain.EmotionNeutral, out.Summary.MainEmotion)
	require.Equal(t, domain.RiskLow, out.Summary.RiskLevel)
	require.Contains(t, out.Summary.SummaryText, "concerning work")
}

func TestSummarize_RequiresUserText(t *testing.T) {
	c := &fakeClassifier{}
	svc := newIntake(t, c)

	_, err := svc.Summarize(context.Background(), IntakeInput{Turns: []domain.Turn{
		{Role: domain.RoleAssistant, Text: "Hello?"},
	}})
	expectError(t, err, ErrorInvalidInput, "no_user_messages")
	require.Zero(t, c.calls)
}
