package handler

import (
	"time"

	"aurora-agent/internal/domain"
	"aurora-agent/internal/rules"
	"aurora-agent/internal/usecase"
)

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type rootResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ---- Check-in ----

type analyzeTextRequest struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

type analyzeChatRequest struct {
	UserID string        `json:"userId"`
	Turns  []domain.Turn `json:"turns"`
}

type analysisResponse struct {
	SessionID         string                    `json:"sessionId"`
	OverallLabel      string                    `json:"overallLabel"`
	OverallScore      float64                   `json:"overallScore"`
	TextEmotion       domain.EmotionObservation `json:"textEmotion"`
	RiskLevel         domain.RiskLevel          `json:"riskLevel"`
	RiskTableVersion  string                    `json:"riskTableVersion,omitempty"`
	EmpatheticMessage string                    `json:"empatheticMessage"`
	Suggestions       []string                  `json:"suggestions"`
	CrisisDetected    bool                      `json:"crisisDetected"`
	Degraded          bool                      `json:"degraded,omitempty"`
	AnalyzedText      string                    `json:"analyzedText,omitempty"`
}

func newAnalysisResponse(out usecase.AnalysisOutput) analysisResponse {
	return analysisResponse{
		SessionID:         out.SessionID,
		OverallLabel:      out.OverallLabel,
		OverallScore:      out.Observation.Score,
		TextEmotion:       out.Observation,
		RiskLevel:         out.RiskLevel,
		RiskTableVersion:  out.RiskVersion,
		EmpatheticMessage: out.Message,
		Suggestions:       out.Suggestions,
		CrisisDetected:    out.CrisisDetected,
		Degraded:          out.Degraded,
		AnalyzedText:      out.AnalyzedText,
	}
}

// ---- Intake ----

type intakeResponse struct {
	SessionID    string              `json:"sessionId"`
	Summary      string              `json:"summary"`
	MainEmotion  domain.EmotionLabel `json:"mainEmotion"`
	EmotionScore float64             `json:"emotionScore"`
	RiskLevel    domain.RiskLevel    `json:"riskLevel"`
	RiskVersion  string              `json:"riskTableVersion"`
	Timestamp    time.Time           `json:"timestamp"`
	Degraded     bool                `json:"degraded,omitempty"`
}

// ---- Support ----

type supportChatRequest struct {
	UserID        string               `json:"userId"`
	SessionID     string               `json:"sessionId"`
	IntakeSummary string               `json:"intakeSummary"`
	MainEmotion   string               `json:"mainEmotion"`
	RiskLevel     string               `json:"riskLevel"`
	Messages      []domain.ChatMessage `json:"messages"`
}

type supportChatResponse struct {
	Reply          string `json:"reply"`
	CrisisDetected bool   `json:"crisisDetected"`
	Degraded       bool   `json:"degraded,omitempty"`
}

type supportHealthResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// ---- Conversations ----

type saveConversationRequest struct {
	SessionID     string           `json:"sessionId"`
	Messages      []domain.Message `json:"messages"`
	IntakeSummary string           `json:"intakeSummary"`
	MainEmotion   string           `json:"mainEmotion"`
	RiskLevel     string           `json:"riskLevel"`
}

type saveConversationResponse struct {
	Success      bool      `json:"success"`
	SessionID    string    `json:"sessionId"`
	SavedAt      time.Time `json:"savedAt"`
	MessageCount int       `json:"messageCount"`
}

type listConversationsResponse struct {
	Conversations []domain.ConversationListItem `json:"conversations"`
	Total         int                           `json:"total"`
}

type conversationAnalysisResponse struct {
	SessionID string `json:"sessionId"`
	rules.PatternReport
}

type insightsResponse struct {
	SessionID string `json:"sessionId"`
	usecase.Insights
	Degraded bool `json:"degraded,omitempty"`
}

// ---- Users ----

type createUserRequest struct {
	Email        string `json:"email"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Age          *int   `json:"age"`
	ConsentGiven bool   `json:"consentGiven"`
}

type createUserResponse struct {
	UserID   string `json:"userId"`
	Message  string `json:"message"`
	Existing bool   `json:"existing"`
}

type updateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Age       *int    `json:"age"`
	Email     *string `json:"email"`
}

type profileResponse struct {
	Message string             `json:"message"`
	Profile domain.ProfileInfo `json:"profile"`
}

type preferencesRequest struct {
	Theme         *string `json:"theme"`
	Notifications *bool   `json:"notifications"`
	ReminderTime  *string `json:"reminderTime"`
	Language      *string `json:"language"`
}

type preferencesResponse struct {
	Message     string             `json:"message"`
	Preferences domain.Preferences `json:"preferences"`
}

type assessmentRequest struct {
	DepressionScore int    `json:"depressionScore"`
	AnxietyScore    int    `json:"anxietyScore"`
	StressScore     int    `json:"stressScore"`
	OverallScore    int    `json:"overallScore"`
	Severity        string `json:"severity"`
}

type assessmentResponse struct {
	Message    string                 `json:"message"`
	Assessment domain.AssessmentScore `json:"assessment"`
}

type assessmentHistoryResponse struct {
	AssessmentHistory []domain.AssessmentScore `json:"assessmentHistory"`
}

type linkConversationRequest struct {
	SessionID string `json:"sessionId"`
}

// ---- Questionnaire ----

type saveQuestionnaireRequest struct {
	UserID         string               `json:"userId"`
	AssessmentData domain.Questionnaire `json:"assessmentData"`
	CompletedAt    string               `json:"completedAt"`
}

type saveQuestionnaireResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// questionnaireResponse reports success false with a message when nothing
// was saved yet.
type questionnaireResponse struct {
	Success        bool                  `json:"success"`
	Message        string                `json:"message,omitempty"`
	AssessmentData *domain.Questionnaire `json:"assessmentData,omitempty"`
	CompletedAt    string                `json:"completedAt,omitempty"`
}

// ---- Auth ----

type emailSignupRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type emailSignupResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// authResponse carries the bearer token the client sends on later requests.
type authResponse struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Token    string `json:"token"`
	Existing bool   `json:"existing"`
}

// ---- Voice ----

type voiceAnalyzeRequest struct {
	MFCC     [][]float64 `json:"mfcc"`
	Duration float64     `json:"duration"`
}

type voiceAnalyzeResponse struct {
	ID            string                 `json:"id"`
	StressLevel   domain.RiskLevel       `json:"stressLevel"`
	StressScore   float64                `json:"stressScore"`
	Confidence    float64                `json:"confidence"`
	Emotion       string                 `json:"emotion"`
	EmotionScores map[string]float64     `json:"emotionScores"`
	Timestamp     time.Time              `json:"timestamp"`
	Suggestions   []string               `json:"suggestions"`
	MFCCFeatures  usecase.FeatureSummary `json:"mfccFeatures"`
	Saved         bool                   `json:"saved"`
}

type voiceHistoryResponse struct {
	Analyses []domain.VoiceAnalysis `json:"analyses"`
	Total    int                    `json:"total"`
}

type transcriptionResponse struct {
	Success    bool     `json:"success"`
	Transcript string   `json:"transcript"`
	Language   string   `json:"language,omitempty"`
	Duration   *float64 `json:"duration,omitempty"`
}
