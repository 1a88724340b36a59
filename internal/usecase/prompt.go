package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/invopop/jsonschema"

	"aurora-agent/internal/domain"
)

const (
	insightsSchemaName     = "conversation_insights"
	maxInsightsPromptBytes = 12000
)

// Insights is the structured analysis the model returns for a conversation.
type Insights struct {
	Summary            string   `json:"summary" jsonschema:"required,description=A 2-3 sentence empathetic summary of what the person is experiencing"`
	KeyThemes          []string `json:"keyThemes" jsonschema:"required,description=Up to three recurring themes"`
	EmotionalJourney   string   `json:"emotionalJourney" jsonschema:"required,description=The emotional progression through the conversation"`
	StrengthsObserved  []string `json:"strengthsObserved" jsonschema:"required"`
	GrowthAreas        []string `json:"growthAreas" jsonschema:"required"`
	Recommendations    []string `json:"recommendations" jsonschema:"required"`
	UrgencyLevel       string   `json:"urgencyLevel" jsonschema:"required,enum=low,enum=moderate,enum=high"`
	ProgressIndicators string   `json:"progressIndicators" jsonschema:"required,description=Signs of progress or positive coping"`
}

var insightsSchema = sync.OnceValue(func() map[string]any {
	schema, err := reflectSchema[Insights]()
	if err != nil {
		// CompleteJSON falls back to plain JSON mode for an empty schema.
		return nil
	}
	return schema
})

func reflectSchema[T any]() (map[string]any, error) {
	r := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	b, err := json.Marshal(r.Reflect(v))
	if err != nil {
		return nil, fmt.Errorf("usecase: marshal schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("usecase: decode schema: %w", err)
	}
	delete(m, "$schema")
	delete(m, "$id")
	m["additionalProperties"] = false
	return m, nil
}

func buildInsightsMessages(userMessages []string) []domain.ChatMessage {
	transcript := strings.Join(userMessages, "\n")
	transcript = tailBytes(transcript, maxInsightsPromptBytes)
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: buildInsightsPrompt()},
		{Role: domain.RoleUser, Content: "Conversation:\n" + transcript},
	}
}

// tailBytes keeps at most n trailing bytes of s, starting on a rune boundary.
func tailBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}

func buildInsightsPrompt() string {
	return strings.Join([]string{
		"Role:",
		"You are a compassionate mental health analyst reviewing a support conversation.",
		"",
		"Task:",
		"Analyze the user's messages and describe what they are experiencing.",
		"",
		"Behavior Rules:",
		"1) Be supportive and identify resilience.",
		"2) Give actionable, concrete recommendations.",
		"3) Do not diagnose.",
		"4) Set urgencyLevel to high only when the user describes risk to their safety.",
		"",
		"Output Contract:",
		"Return JSON only with keys summary, keyThemes, emotionalJourney, strengthsObserved, " +
			"growthAreas, recommendations, urgencyLevel (low, moderate or high) and progressIndicators.",
	}, "\n")
}

// parseInsights accepts a single JSON object, optionally surrounded by prose or
// a code fence.
func parseInsights(raw string) (Insights, error) {
	body := strings.TrimSpace(raw)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return Insights{}, errors.New("usecase: decode insights: no JSON object")
	}
	var out Insights
	dec := json.NewDecoder(bytes.NewBufferString(body[start : end+1]))
	if err := dec.Decode(&out); err != nil {
		return Insights{}, fmt.Errorf("usecase: decode insights: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return Insights{}, errors.New("usecase: decode insights: multiple JSON values")
		}
		return Insights{}, fmt.Errorf("usecase: decode insights trailing data: %w", err)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return Insights{}, errors.New("usecase: insights missing summary")
	}
	switch out.UrgencyLevel {
	case "low", "moderate", "high":
	default:
		out.UrgencyLevel = "moderate"
	}
	return out, nil
}

func emptyConversationInsights() Insights {
	return Insights{
		Summary:            "No conversation data available yet.",
		KeyThemes:          []string{"Initial assessment"},
		EmotionalJourney:   "Beginning wellness journey",
		StrengthsObserved:  []string{"Taking first steps", "Self-awareness"},
		GrowthAreas:        []string{"Continued engagement"},
		Recommendations:    []string{"Continue sharing your thoughts", "Practice self-reflection"},
		UrgencyLevel:       "low",
		ProgressIndicators: "Initiated conversation",
	}
}

func fallbackInsights() Insights {
	return Insights{
		Summary:            "Analysis in progress. Please check back soon.",
		KeyThemes:          []string{"General wellbeing"},
		EmotionalJourney:   "Processing emotions and experiences",
		StrengthsObserved:  []string{"Seeking support", "Self-awareness", "Willingness to engage"},
		GrowthAreas:        []string{"Stress management", "Emotional regulation"},
		Recommendations:    []string{"Continue self-reflection", "Practice mindfulness", "Stay engaged with support"},
		UrgencyLevel:       "moderate",
		ProgressIndicators: "Actively engaged in wellness journey",
	}
}
