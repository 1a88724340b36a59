package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"aurora-agent/internal/domain"
	"aurora-agent/internal/integrations/whisper"
	"aurora-agent/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"
	serviceName       = "aurora-agent"
)

type CheckIn interface {
	AnalyzeText(ctx context.Context, in usecase.AnalyzeTextInput) (usecase.AnalysisOutput, error)
	AnalyzeChat(ctx context.Context, in usecase.AnalyzeChatInput) (usecase.AnalysisOutput, error)
}

type Intake interface {
	Summarize(ctx context.Context, in usecase.IntakeInput) (usecase.IntakeOutput, error)
}

type Support interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
	Health() usecase.HealthOutput
}

type Conversations interface {
	Save(ctx context.Context, requester string, in usecase.SaveConversationInput) (usecase.SaveConversationOutput, error)
	Get(ctx context.Context, requester, sessionID string) (domain.Conversation, error)
	List(ctx context.Context, requester string, limit int) ([]domain.ConversationListItem, error)
	Delete(ctx context.Context, requester, sessionID string) error
	Analyze(ctx context.Context, requester, sessionID string) (usecase.AnalyzeConversationOutput, error)
	Insights(ctx context.Context, requester, sessionID string) (usecase.InsightsOutput, error)
}

type Users interface {
	Create(ctx context.Context, in usecase.CreateUserInput) (usecase.CreateUserOutput, error)
	Get(ctx context.Context, requester, userID string) (domain.UserProfile, error)
	UpdateProfile(ctx context.Context, requester, userID string, in usecase.UpdateProfileInput) (domain.ProfileInfo, error)
	UpdatePreferences(ctx context.Context, requester, userID string, in usecase.PreferencesInput) (domain.Preferences, error)
	AddAssessment(ctx context.Context, requester, userID string, in usecase.AssessmentInput) (domain.AssessmentScore, error)
	AssessmentHistory(ctx context.Context, requester, userID string) ([]domain.AssessmentScore, error)
	LinkConversation(ctx context.Context, requester, userID, sessionID string) error
	Delete(ctx context.Context, requester, userID string) error
}

type Assessments interface {
	Save(ctx context.Context, requester string, in usecase.SaveAssessmentInput) (domain.Assessment, error)
	Get(ctx context.Context, requester string) (domain.Assessment, bool, error)
}

type Voice interface {
	Analyze(ctx context.Context, requester string, in usecase.VoiceAnalyzeInput) (usecase.VoiceAnalyzeOutput, error)
	History(ctx context.Context, requester string) ([]domain.VoiceAnalysis, error)
	Transcribe(ctx context.Context, in usecase.TranscribeInput) (whisper.Transcript, error)
}

type Verification interface {
	RequestCode(ctx context.Context, email, name string) error
	Verify(ctx context.Context, email, code string) (usecase.VerifyOutput, error)
}

// Services are the use cases exposed over HTTP. All are required.
type Services struct {
	CheckIn       CheckIn
	Intake        Intake
	Support       Support
	Conversations Conversations
	Users         Users
	Assessments   Assessments
	Voice         Voice
	Verification  Verification
}

func (s Services) validate() error {
	switch {
	case s.CheckIn == nil:
		return errors.New("handler: check-in service must not be nil")
	case s.Intake == nil:
		return errors.New("handler: intake service must not be nil")
	case s.Support == nil:
		return errors.New("handler: support service must not be nil")
	case s.Conversations == nil:
		return errors.New("handler: conversation service must not be nil")
	case s.Users == nil:
		return errors.New("handler: user service must not be nil")
	case s.Assessments == nil:
		return errors.New("handler: assessment service must not be nil")
	case s.Voice == nil:
		return errors.New("handler: voice service must not be nil")
	case s.Verification == nil:
		return errors.New("handler: verification service must not be nil")
	}
	return nil
}

type Handler struct {
	svc           Services
	routes        []route
	logger        *slog.Logger
	allowedOrigin string
}

// NewHandler builds the API Gateway handler. allowedOrigin is echoed in CORS
// headers; empty disables them.
func NewHandler(svc Services, logger *slog.Logger, allowedOrigin string) (*Handler, error) {
	if err := svc.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{svc: svc, logger: logger, allowedOrigin: allowedOrigin}
	h.routes = h.buildRoutes()
	return h, nil
}

// request is the parsed view of an API Gateway event a route works with.
type request struct {
	event     events.APIGatewayProxyRequest
	params    map[string]string
	requester string
	logger    *slog.Logger
}

func (r *request) param(name string) string { return r.params[name] }

func (r *request) query(name string) string {
	return strings.TrimSpace(r.event.QueryStringParameters[name])
}

// body returns the raw request body, decoding it when API Gateway delivered
// it base64 encoded.
func (r *request) body() ([]byte, error) {
	if !r.event.IsBase64Encoded {
		return []byte(r.event.Body), nil
	}
	b, err := base64.StdEncoding.DecodeString(r.event.Body)
	if err != nil {
		return nil, &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "invalid_body_encoding", Err: err}
	}
	return b, nil
}

func (r *request) decode(v any) error {
	b, err := r.body()
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_body"}
	}
	if err := json.Unmarshal(b, v); err != nil {
		return &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "invalid_json", Err: err}
	}
	return nil
}

func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger := h.logger.With(
		slog.String("correlation_id", correlationID),
		slog.String("method", event.HTTPMethod),
		slog.String("path", event.Path),
	)

	if event.HTTPMethod == http.MethodOptions {
		return h.respond(correlationID, http.StatusNoContent, nil), nil
	}

	rt, params, status := h.match(event.HTTPMethod, event.Path)
	if rt == nil {
		code := usecase.ErrorNotFound
		reason := "route_not_found"
		if status == http.StatusMethodNotAllowed {
			code, reason = "METHOD_NOT_ALLOWED", "method_not_allowed"
		}
		logger.InfoContext(ctx, "no route", slog.Int("status", status))
		return h.respond(correlationID, status, errorResponse{Error: string(code), Reason: reason}), nil
	}

	req := &request{
		event:     event,
		params:    params,
		requester: bearerUser(event.Headers),
		logger:    logger,
	}
	status, body, err := rt.fn(ctx, req)
	if err != nil {
		return h.writeError(ctx, logger, correlationID, err), nil
	}
	logger.InfoContext(ctx, "request completed",
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	)
	return h.respond(correlationID, status, body), nil
}

func (h *Handler) writeError(ctx context.Context, logger *slog.Logger, correlationID string, err error) events.APIGatewayProxyResponse {
	var usecaseErr *usecase.Error
	if !errors.As(err, &usecaseErr) {
		usecaseErr = &usecase.Error{Code: usecase.ErrorInternal, Reason: "unexpected_error", Err: err}
	}
	status := statusFor(usecaseErr.Code)
	attrs := []any{
		slog.Int("status", status),
		slog.String("code", string(usecaseErr.Code)),
		slog.String("reason", usecaseErr.Reason),
	}
	if usecaseErr.Err != nil {
		attrs = append(attrs, slog.Any("err", usecaseErr.Err))
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "request failed", attrs...)
	} else {
		logger.InfoContext(ctx, "request rejected", attrs...)
	}
	return h.respond(correlationID, status, errorResponse{Error: string(usecaseErr.Code), Reason: usecaseErr.Reason})
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorUnauthenticated:
		return http.StatusUnauthorized
	case usecase.ErrorForbidden:
		return http.StatusForbidden
	case usecase.ErrorNotFound:
		return http.StatusNotFound
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests
	case usecase.ErrorServiceUnavailable:
		return http.StatusServiceUnavailable
	case usecase.ErrorUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respond(correlationID string, status int, body any) events.APIGatewayProxyResponse {
	headers := map[string]string{
		"Content-Type":    "application/json",
		correlationHeader: correlationID,
	}
	if h.allowedOrigin != "" {
		headers["Access-Control-Allow-Origin"] = h.allowedOrigin
		headers["Access-Control-Allow-Headers"] = "Authorization, Content-Type, X-Correlation-Id"
		headers["Access-Control-Allow-Methods"] = "GET, POST, PUT, DELETE, OPTIONS"
	}
	if body == nil {
		return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers}
	}
	b, err := json.Marshal(body)
	if err != nil {
		h.logger.Error("encode response failed", slog.String("correlation_id", correlationID), slog.Any("err", err))
		status = http.StatusInternalServerError
		b = []byte(`{"error":"INTERNAL_ERROR","reason":"encode_error"}`)
	}
	return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers, Body: string(b)}
}

// headerValue looks a header up case-insensitively; API Gateway preserves the
// client's casing.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// bearerUser returns the user id carried as the bearer token. The web client
// sends the literal strings "null" or "undefined" when signed out.
func bearerUser(headers map[string]string) string {
	auth := headerValue(headers, "Authorization")
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	token = strings.TrimSpace(token)
	switch token {
	case "", "null", "undefined":
		return ""
	}
	return token
}
