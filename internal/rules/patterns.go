package rules

import "strings"

// PatternReport is the keyword-based stress analysis of a stored conversation.
type PatternReport struct {
	StressIndicators   []string `json:"stressIndicators"`
	EmotionalPatterns  []string `json:"emotionalPatterns"`
	ConcernedTopics    []string `json:"concernedTopics"`
	Suggestions        []string `json:"suggestions"`
	OverallStressLevel string   `json:"overallStressLevel"`
}

type keywordLabel struct {
	keyword string
	label   string
}

var stressIndicators = []keywordLabel{
	{"overwhelmed", "Feeling overwhelmed"},
	{"anxious", "Experiencing anxiety"},
	{"worried", "Excessive worry"},
	{"can't sleep", "Sleep difficulties"},
	{"exhausted", "Chronic exhaustion"},
	{"pressure", "High pressure feelings"},
	{"stressed", "Direct stress mention"},
	{"too much", "Overload feelings"},
	{"can't handle", "Coping difficulties"},
	{"breaking down", "Emotional breakdown signs"},
}

var emotionalPatterns = []keywordLabel{
	{"sad", "Sadness"},
	{"angry", "Anger"},
	{"frustrated", "Frustration"},
	{"hopeless", "Hopelessness"},
	{"lonely", "Loneliness"},
	{"scared", "Fear"},
	{"guilty", "Guilt"},
	{"ashamed", "Shame"},
	{"numb", "Emotional numbness"},
}

var concernTopics = []keywordLabel{
	{"work", "Work-related stress"},
	{"school", "Academic pressure"},
	{"relationship", "Relationship issues"},
	{"family", "Family concerns"},
	{"health", "Health worries"},
	{"money", "Financial stress"},
	{"future", "Future uncertainty"},
	{"job", "Career concerns"},
	{"exam", "Test anxiety"},
	{"deadline", "Time pressure"},
}

type targetedSuggestion struct {
	triggers   []string
	suggestion string
}

var patternSuggestions = []targetedSuggestion{
	{[]string{"sleep", "tired"}, "Practice sleep hygiene - consistent bedtime, no screens 1hr before sleep"},
	{[]string{"overwhelmed", "too much"}, "Break tasks into smaller steps, prioritize 3 most important items"},
	{[]string{"anxious", "worried"}, "Try 4-7-8 breathing: inhale 4 counts, hold 7, exhale 8"},
	{[]string{"lonely", "alone"}, "Reach out to a friend or join a support group"},
}

var defaultPatternSuggestions = []string{
	"Continue journaling your thoughts and feelings",
	"Practice mindfulness or meditation for 10 minutes daily",
}

const (
	highStressIndicators     = 8
	moderateStressIndicators = 4
)

// AnalyzePatterns scans the combined user text of a conversation.
func AnalyzePatterns(userText string) PatternReport {
	lower := strings.ToLower(userText)
	report := PatternReport{
		StressIndicators:  matchLabels(lower, stressIndicators),
		EmotionalPatterns: matchLabels(lower, emotionalPatterns),
		ConcernedTopics:   matchLabels(lower, concernTopics),
	}

	switch n := len(report.StressIndicators) + len(report.EmotionalPatterns); {
	case n >= highStressIndicators:
		report.OverallStressLevel = "High"
	case n >= moderateStressIndicators:
		report.OverallStressLevel = "Moderate"
	default:
		report.OverallStressLevel = "Low to Mild"
	}

	for _, s := range patternSuggestions {
		if containsAny(lower, s.triggers) {
			report.Suggestions = append(report.Suggestions, s.suggestion)
		}
	}
	if len(report.Suggestions) == 0 {
		report.Suggestions = append([]string(nil), defaultPatternSuggestions...)
	}
	return report
}

func matchLabels(lower string, table []keywordLabel) []string {
	out := []string{}
	for _, kl := range table {
		if strings.Contains(lower, kl.keyword) {
			out = append(out, kl.label)
		}
	}
	return out
}
