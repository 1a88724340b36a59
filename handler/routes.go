package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"aurora-agent/internal/usecase"
)

type routeFunc func(ctx context.Context, r *request) (int, any, error)

type route struct {
	method   string
	segments []string
	fn       routeFunc
}

func newRoute(method, pattern string, fn routeFunc) route {
	return route{method: method, segments: splitPath(pattern), fn: fn}
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// match finds the first route whose pattern fits path. Segments written as
// {name} capture one path segment. The status is 404 when no pattern fits and
// 405 when only the method differs.
func (h *Handler) match(method, path string) (*route, map[string]string, int) {
	parts := splitPath(path)
	status := http.StatusNotFound
	for i := range h.routes {
		rt := &h.routes[i]
		params, ok := rt.bind(parts)
		if !ok {
			continue
		}
		if rt.method != method {
			status = http.StatusMethodNotAllowed
			continue
		}
		return rt, params, http.StatusOK
	}
	return nil, nil, status
}

func (rt *route) bind(parts []string) (map[string]string, bool) {
	if len(parts) != len(rt.segments) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range rt.segments {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if params == nil {
				params = map[string]string{}
			}
			params[seg[1:len(seg)-1]] = parts[i]
			continue
		}
		if seg != parts[i] {
			return nil, false
		}
	}
	return params, true
}

func (h *Handler) buildRoutes() []route {
	return []route{
		newRoute(http.MethodGet, "/", h.root),
		newRoute(http.MethodGet, "/health", h.root),

		newRoute(http.MethodPost, "/api/analyze/text", h.analyzeText),
		newRoute(http.MethodPost, "/api/analyze/chat", h.analyzeChat),
		newRoute(http.MethodPost, "/api/intake/summary", h.intakeSummary),

		newRoute(http.MethodGet, "/api/support/health", h.supportHealth),
		newRoute(http.MethodPost, "/api/support/chat", h.supportChat),

		newRoute(http.MethodPost, "/api/conversations/save", h.saveConversation),
		newRoute(http.MethodGet, "/api/conversations/list", h.listConversations),
		newRoute(http.MethodPost, "/api/conversations/analyze/{sessionId}", h.analyzeConversation),
		newRoute(http.MethodPost, "/api/conversations/ai-insights/{sessionId}", h.conversationInsights),
		newRoute(http.MethodGet, "/api/conversations/{sessionId}", h.getConversation),
		newRoute(http.MethodDelete, "/api/conversations/{sessionId}", h.deleteConversation),

		newRoute(http.MethodPost, "/api/users/create", h.createUser),
		newRoute(http.MethodGet, "/api/users/profile/{userId}", h.getProfile),
		newRoute(http.MethodPut, "/api/users/profile/{userId}", h.updateProfile),
		newRoute(http.MethodDelete, "/api/users/profile/{userId}", h.deleteProfile),
		newRoute(http.MethodPost, "/api/users/assessment/{userId}", h.addAssessment),
		newRoute(http.MethodGet, "/api/users/assessments/{userId}", h.assessmentHistory),
		newRoute(http.MethodPost, "/api/users/conversation/{userId}", h.linkConversation),
		newRoute(http.MethodPut, "/api/users/preferences/{userId}", h.updatePreferences),

		newRoute(http.MethodPost, "/api/assessment/save", h.saveQuestionnaire),
		newRoute(http.MethodGet, "/api/assessment/get", h.getQuestionnaire),

		newRoute(http.MethodPost, "/api/auth/email-signup", h.emailSignup),
		newRoute(http.MethodPost, "/api/auth/verify-email", h.verifyEmail),

		newRoute(http.MethodPost, "/api/voice/voice", h.voiceAnalyze),
		newRoute(http.MethodPost, "/api/voice/transcribe", h.voiceTranscribe),
		newRoute(http.MethodGet, "/api/voice/history", h.voiceHistory),
	}
}

func (h *Handler) root(context.Context, *request) (int, any, error) {
	return http.StatusOK, rootResponse{Status: "ok", Service: serviceName}, nil
}

// identity prefers the bearer token and falls back to the id in the body.
func identity(r *request, fromBody string) string {
	if r.requester != "" {
		return r.requester
	}
	return strings.TrimSpace(fromBody)
}

// ---- Check-in ----

func (h *Handler) analyzeText(ctx context.Context, r *request) (int, any, error) {
	var body analyzeTextRequest
	if err := r.decode(&body); err != nil {
		return 0, nil, err
	}
	out, err := h.svc.CheckIn.AnalyzeText(ctx, usecase.AnalyzeTextInput{UserID: identity(r, body.UserID), Text: body.Text})
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, newAnalysisResponse(out), nil
}

func (h *Handler) analyzeChat(ctx context.Context, r *request) (int, any, error) {
	var body analyzeChatRequest
	if err := r.decode(&body); err != nil {
		return 0, nil, err
	}
	out, err := h.svc.CheckIn.AnalyzeChat(ctx, usecase.AnalyzeChatInput{UserID: identity(r, body.UserID), Turns: body.Turns})
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, newAnalysisResponse(out), nil
}

func (h *Handler) intakeSummary(ctx context.Context, r *request) (int, any, error) {
	var body analyzeChatRequest
	if err := r.decode(&body); err != nil {
		return 0, nil, err
	}
	out, err := h.svc.Intake.Summarize(ctx, usecase.IntakeInput{UserID: identity(r, body.UserID), Turns: body.Turns})
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, intakeResponse{
		SessionID:    out.SessionID,
		Summary:      out.Summary.SummaryText,
		MainEmotion:  out.Summary.MainEmotion,
		EmotionScore: out.Summary.EmotionScore,
		RiskLevel:    out.Summary.RiskLevel,
		RiskVersion:  out.RiskVersion,
		Timestamp:    out.Timestamp,
		Degraded:     out.Degraded,
	}, nil
}

// ---- Support ----

func (h *Handler) supportHealth(context.Context, *request) (int, any, error) {
	out := h.svc.Support.Health()
	return http.StatusOK, supportHealthResponse{Available: out.Available, Message: out.Message}, nil
}

func (h *Handler) supportChat(ctx context.Context, r *request) (int, any, error) {
	var body supportChatRequest
	if err := r.decode(&body); err != nil {
		return 0, nil, err
	}
	out, err := h.svc.Support.Chat(ctx, usecase.ChatInput{
		UserID:        identity(r, body.UserID),
		SessionID:     body.SessionID,
		IntakeSummary: body.IntakeSummary,
		MainEmotion:   body.MainEmotion,
		RiskLevel:     body.RiskLevel,
		Messages:      body.Messages,
	})
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, supportChatResponse{Reply: out.Reply, CrisisDetected: out.CrisisDetected, Degraded: out.Degraded}, nil
}

// ---- Conversations ----

func (h *Handler) saveConversation(ctx context.Context, r *request) (int, any, error) {
	var body saveConversationRequest
	if err := r.decode(&body); err != nil {
		return 0, nil, err
	}
	out, err := h.svc.Conversations.Save(ctx, r.requester, usecase.SaveConversationInput{
		SessionID:     body.SessionID,
		Messages:      body.Messages,
		IntakeSummary: body.IntakeSummary,
		MainEmotion:   body.MainEmotion,
		RiskLevel:     body.RiskLevel,
	})
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, saveConversationResponse{
		Success:      true,
		SessionID:    out.SessionID,
		SavedAt:      out.SavedAt,
		MessageCount: out.MessageCount,
	}, nil
}

func (h *Handler) listConversations(ctx context.Context, r *request) (int, any, error) {
	limit := 0
	if raw := r.query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return 0, nil, &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "invalid_limit", Err: err}
		}
		limit = n
	}
	items, err := h.svc.Conversations.List(ctx, r.requester, limit)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, listConversationsResponse{Conversations: items, Total: len(items)}, nil
}

func (h *Handler) getConversation(ctx context.Context, r *request) (int, any, error) {
	c, err := h.svc.Conversations.Get(ctx, r.requester, r.param("sessionId"))
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, c, nil
}

func (h *Handler) deleteConversation(ctx context.Context, r *request) (int, any, error) {
	if err := h.svc.Conversations.Delete(ctx, r.requester, r.param("sessionId")); err != nil {
		return 0, nil, err
	}
	return http.StatusOK, messageResponse{Success: true, Message: "Conversation deleted successfully"}, nil
}

func (h *Handler) analyzeConversation(ctx context.Context, r *request) (int, any, error) {
	out, err := h.svc.Conversations.Analyze(ctx, r.requester, r.param("sessionId"))
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, conversationAnalysisResponse{SessionID: out.SessionID, PatternReport: out.Report}, nil
}

func (h *Handler) conversationInsights(ctx context.Context, r *request) (int, any, error) {
	out, err := h.svc.Conversations.Insights(ctx, r.requester, r.param("sessionId"))
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, insightsResponse{SessionID: out.SessionID, Insights: out.Insights, Degraded: out.Degraded}, nil
}

// ---- Users ----

func (h *Handler) createUser(ctx context.Context, r *request) (int, any, error) {
	var body createUserRequest
	if err := r.decode(&body); err != nil {
		return 0, nil, err
	}
	out, err := h.svc.Users.Create(ctx, usecase.CreateUserInput{
		Email:        body.Email,
		FirstName:    body.FirstName,
		LastName:     body.LastName,
		Age:          body.Age,
		ConsentGiven: body.ConsentGiven,
	})
	if err != nil {
		return 0, nil, err
	}
	msg := "User created successfully"
	if out.Existing {
		msg = "User already exists"
	}
	return http.StatusOK, createUserResponse{UserID: out.UserID, Message: msg, Existing: out.Existing}, nil
}

func (h *Handler) getProfile(ctx context.Context, r *request) (int, any, error) {
	p, err := h.svc.Users.Get(ctx, r.requester, r.param("userId"))
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, p, nil
}

func (h *Handler) updateProfile(ctx context.Context, r *request) (int, any, error) {
	var body updateProfileRequest
	if err := r.decode(&body); err != nil {
		return 0, nil, err
	}
	p, err := h.svc.Users.UpdateProfile(ctx, r.requester, r.param("userId"), usecase.UpdateProfileInput{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Age:       body.Age,
		Email:     body.Email,
	})
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, profileResponse{Message: "Profile updated successfully", Profile: p}, nil
}

func (h *Handler) deleteProfile(ctx context.Context, r *request) (int, any, error) {
	if err := h.svc.Users.Delete(ctx, r.requester, r.param("userId")); err != nil {
		return 0, nil, err
	}
	return http.StatusOK, messageResponse{Success: true, Message: "User data deleted successfully"}, nil
}

func (h *Handler) addAssessment(ctx context.Context, r *request) (int, any, error) {
	var body assessmentRequest
	if err := r.decode(&body); err != nil {
		return 0, nil, err
	}
	a, err := h.svc.Users.AddAssessment(ctx, r.requester, r.param("userId"), usecase.AssessmentInput{
		DepressionScore: body.DepressionScore,
		AnxietyScore:    body.AnxietyScore,
		StressScore:     body.StressScore,
		OverallScore:    body.OverallScore,
		Severity:        body.Severity,
	})
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, assessmentResponse{Message: "Assessment added successfully", Assessment: a}, nil
}

func (h *Handler) assessmentHistory(ctx context.Context, r *request) (int, any, error) {
	history, err := h.svc.Users.AssessmentHistory(ctx, r.requester, r.param("userId"))
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, assessmentHistoryResponse{AssessmentHistory: history}, nil
}

// linkConversation takes the session id from the session_id query parameter
// or, failing that, from a JSON body.
func (h *Handler) linkConversation(ctx context.Context, r *request) (int, any, error) {
	sessionID := r.query("session_id")
	if sessionID == "" {
		var body linkConversationRequest
		if err := r.decode(&body); err != nil {
			return 0, nil, err
		}
		sessionID = body.SessionID
	}
	if err := h.svc.Users.LinkConversation(ctx, r.requester, r.param("userId"), sessionID); err != nil {
		return 0, nil, err
	}
	return http.StatusOK, messageResponse{Success: true, Message: "Conversation linked successfully"}, nil
}

func (h *Handler) updatePreferences(ctx context.Context, r *request) (int, any, error) {
	var body preferencesRequest
	if err := r.decode(&body); err != nil {
		return 0, nil, err
	}
	prefs, err := h.svc.Users.UpdatePreferences(ctx, r.requester, r.param("userId"), usecase.PreferencesInput{
		Theme:         body.Theme,
		Notifications: body.Notifications,
		ReminderTime:  body.ReminderTime,
		Language:      body.Language,
	})
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, preferencesResponse{Message: "Preferences updated successfully", Preferences: prefs}, nil
}

// ---- Questionnaire ----

// saveQuestionnaire only accepts a bearer identity; the body userId must match it.
func (h *Handler) saveQuestionnaire(ctx context.Context, r *request) (int, any, error) {
	var body saveQuestionnaireRequest
	if err := r.decode(&body); err != nil {
		return 0, nil, err
	}
	a, err := h.svc.Assessments.Save(ctx, r.requester, usecase.SaveAssessmentInput{
		UserID:      body.UserID,
		Data:        body.AssessmentData,
		CompletedAt: body.CompletedAt,
	})
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, saveQuestionnaireResponse{Success: true, Message: "Assessment saved successfully", UserID: a.UserID}, nil
}

func (h *Handler) getQuestionnaire(ctx context.Context, r *request) (int, any, error) {
	a, found, err := h.svc.Assessments.Get(ctx, r.requester)
	if err != nil {
		return 0, nil, err
	}
	if !found {
		return http.StatusOK, questionnaireResponse{Success: false, Message: "No assessment found"}, nil
	}
	return http.StatusOK, questionnaireResponse{Success: true, AssessmentData: &a.Data, CompletedAt: a.CompletedAt}, nil
}

// ---- Auth ----

func (h *Handler) emailSignup(ctx context.Context, r *request) (int, any, error) {
	var body emailSignupRequest
	if err := r.decode(&body); err != nil {
		return 0, nil, err
	}
	if err := h.svc.Verification.RequestCode(ctx, body.Email, body.Name); err != nil {
		return 0, nil, err
	}
	return http.StatusOK, emailSignupResponse{
		Message: "Verification code sent. Please check your email.",
		Email:   strings.TrimSpace(body.Email),
	}, nil
}

func (h *Handler) verifyEmail(ctx context.Context, r *request) (int, any, error) {
	var body verifyEmailRequest
	if err := r.decode(&body); err != nil {
		return 0, nil, err
	}
	out, err := h.svc.Verification.Verify(ctx, body.Email, body.Code)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, authResponse{
		UserID:   out.UserID,
		Email:    out.Email,
		Name:     out.Name,
		Provider: "email",
		Token:    out.UserID,
		Existing: out.Existing,
	}, nil
}

// ---- Voice ----

func (h *Handler) voiceAnalyze(ctx context.Context, r *request) (int, any, error) {
	var body voiceAnalyzeRequest
	if err := r.decode(&body); err != nil {
		return 0, nil, err
	}
	out, err := h.svc.Voice.Analyze(ctx, r.requester, usecase.VoiceAnalyzeInput{MFCC: body.MFCC, Duration: body.Duration})
	if err != nil {
		return 0, nil, err
	}
	c := out.Classification
	return http.StatusOK, voiceAnalyzeResponse{
		ID:            out.ID,
		StressLevel:   c.StressLevel,
		StressScore:   c.StressScore,
		Confidence:    c.Confidence,
		Emotion:       c.Emotion,
		EmotionScores: c.EmotionScores,
		Timestamp:     out.AnalyzedAt,
		Suggestions:   out.Suggestions,
		MFCCFeatures:  out.Features,
		Saved:         out.Saved,
	}, nil
}

// voiceTranscribe takes the raw recording as the request body, which API
// Gateway delivers base64 encoded for binary media types.
func (h *Handler) voiceTranscribe(ctx context.Context, r *request) (int, any, error) {
	audio, err := r.body()
	if err != nil {
		return 0, nil, err
	}
	t, err := h.svc.Voice.Transcribe(ctx, usecase.TranscribeInput{Filename: r.query("filename"), Audio: audio})
	if err != nil {
		return 0, nil, err
	}
	r.logger.InfoContext(ctx, "recording transcribed", slog.Int("audio_bytes", len(audio)), slog.String("language", t.Language))
	return http.StatusOK, transcriptionResponse{Success: true, Transcript: t.Text, Language: t.Language, Duration: t.Duration}, nil
}

func (h *Handler) voiceHistory(ctx context.Context, r *request) (int, any, error) {
	items, err := h.svc.Voice.History(ctx, r.requester)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, voiceHistoryResponse{Analyses: items, Total: len(items)}, nil
}
