package rules

import (
	"fmt"
	"strings"

	"aurora-agent/internal/domain"
)

const (
	maxSummaryTopics  = 3
	maxSnippetRunes   = 100
	defaultDescriptor = "managing but seeking support"
)

type topic struct {
	name     string
	keywords []string
}

// summaryTopics is evaluated in declaration order; that order is the order in
// which topics appear in a summary.
var summaryTopics = []topic{
	{name: "work", keywords: []string{"work", "job", "boss", "coworker", "deadline", "project"}},
	{name: "sleep", keywords: []string{"sleep", "insomnia", "tired", "exhausted", "rest"}},
	{name: "relationships", keywords: []string{"friend", "family", "relationship", "partner", "lonely"}},
	{name: "health", keywords: []string{"health", "sick", "pain", "doctor", "medication"}},
	{name: "anxiety", keywords: []string{"anxious", "worry", "stress", "panic", "overwhelmed"}},
	{name: "mood", keywords: []string{"sad", "depressed", "hopeless", "empty", "numb"}},
}

var riskDescriptors = map[domain.RiskLevel]string{
	domain.RiskLow:      defaultDescriptor,
	domain.RiskMedium:   "feeling challenged",
	domain.RiskHigh:     "experiencing significant distress",
	domain.RiskVeryHigh: "experiencing significant distress",
}

// DetectTopics returns the summary topics mentioned in text, in declaration order.
func DetectTopics(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, t := range summaryTopics {
		if containsAny(lower, t.keywords) {
			out = append(out, t.name)
		}
	}
	return out
}

// Summarize renders the hand-off sentence for the support chat. It is
// deterministic for identical inputs.
func Summarize(userText string, emotion domain.EmotionLabel, risk domain.RiskLevel) string {
	descriptor, ok := riskDescriptors[risk]
	if !ok {
		descriptor = defaultDescriptor
	}

	var concern string
	if topics := DetectTopics(userText); len(topics) > 0 {
		if len(topics) > maxSummaryTopics {
			topics = topics[:maxSummaryTopics]
		}
		concern = " concerning " + strings.Join(topics, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "User is %s, expressing %s%s.", descriptor, emotion, concern)

	if snippet := firstSentence(userText); snippet != "" {
		fmt.Fprintf(&b, " They shared: \"%s...\"", snippet)
	}
	return b.String()
}

// BuildSummary assesses risk for obs and userText and renders the summary.
func BuildSummary(userText string, obs domain.EmotionObservation) domain.ConversationSummary {
	risk := AssessObservation(obs, userText)
	return domain.ConversationSummary{
		SummaryText:  Summarize(userText, obs.Label, risk),
		MainEmotion:  obs.Label,
		EmotionScore: obs.Score,
		RiskLevel:    risk,
	}
}

// CombineUserText joins the text of user turns with single spaces.
func CombineUserText(turns []domain.Turn) string {
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		if t.Role == domain.RoleUser {
			parts = append(parts, t.Text)
		}
	}
	return strings.Join(parts, " ")
}

func firstSentence(text string) string {
	head, _, _ := strings.Cut(text, ".")
	head = strings.TrimSpace(head)
	if r := []rune(head); len(r) > maxSnippetRunes {
		head = string(r[:maxSnippetRunes])
	}
	return head
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
