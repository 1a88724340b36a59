package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"aurora-agent/internal/domain"
	"aurora-agent/internal/rules"
)

const (
	// AnonymousUserID owns conversations saved without an identity.
	AnonymousUserID      = "anonymous"
	defaultListLimit     = 100
	maxMessageContentLen = 10000
)

// ConversationService stores support-chat transcripts and analyses them. Every
// read and mutation of an existing conversation requires the requester to own it.
type ConversationService struct {
	convs  ConversationStore
	users  UserStore
	llm    JSONCompleter
	logger *slog.Logger
}

type SaveConversationInput struct {
	SessionID     string
	Messages      []domain.Message
	IntakeSummary string
	MainEmotion   string
	RiskLevel     string
}

type SaveConversationOutput struct {
	SessionID    string
	SavedAt      time.Time
	MessageCount int
}

type AnalyzeConversationOutput struct {
	SessionID string
	Report    rules.PatternReport
}

type InsightsOutput struct {
	SessionID string
	Insights  Insights
	Degraded  bool
}

// NewConversationService accepts a nil llm; Insights then always uses the
// static fallback.
func NewConversationService(convs ConversationStore, users UserStore, llm JSONCompleter, logger *slog.Logger) (*ConversationService, error) {
	if convs == nil {
		return nil, errors.New("usecase: conversation store must not be nil")
	}
	if users == nil {
		return nil, errors.New("usecase: user store must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationService{convs: convs, users: users, llm: llm, logger: logger}, nil
}

func (s *ConversationService) Save(ctx context.Context, requester string, in SaveConversationInput) (SaveConversationOutput, error) {
	requester = strings.TrimSpace(requester)
	if requester == "" {
		requester = AnonymousUserID
	}
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return SaveConversationOutput{}, invalid("missing_session_id")
	}
	for _, m := range in.Messages {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			return SaveConversationOutput{}, invalid("invalid_message_role")
		}
		if len(m.Content) > maxMessageContentLen {
			return SaveConversationOutput{}, invalid("message_too_long")
		}
	}

	existing, ok, err := s.convs.Get(ctx, sessionID)
	if err != nil {
		return SaveConversationOutput{}, storeError("store_read_error", err)
	}
	if ok && existing.UserID != requester {
		return SaveConversationOutput{}, forbidden()
	}

	saved, err := s.convs.Save(ctx, domain.Conversation{
		SessionID:     sessionID,
		UserID:        requester,
		Messages:      in.Messages,
		IntakeSummary: in.IntakeSummary,
		MainEmotion:   in.MainEmotion,
		RiskLevel:     in.RiskLevel,
	})
	if err != nil {
		return SaveConversationOutput{}, storeError("store_write_error", err)
	}

	if requester != AnonymousUserID {
		s.linkToProfile(ctx, requester, sessionID)
	}
	return SaveConversationOutput{SessionID: saved.SessionID, SavedAt: saved.SavedAt, MessageCount: saved.MessageCount}, nil
}

// linkToProfile records sessionID on the owner's profile when one exists.
// Failures are logged and otherwise ignored.
func (s *ConversationService) linkToProfile(ctx context.Context, userID, sessionID string) {
	p, ok, err := s.users.Get(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "link conversation: load profile failed", slog.Any("err", err))
		return
	}
	if !ok || p.HasConversation(sessionID) {
		return
	}
	p.ConversationIDs = append(p.ConversationIDs, sessionID)
	if err := s.users.Put(ctx, p); err != nil {
		s.logger.WarnContext(ctx, "link conversation: save profile failed", slog.Any("err", err))
	}
}

func (s *ConversationService) Get(ctx context.Context, requester, sessionID string) (domain.Conversation, error) {
	return s.owned(ctx, requester, sessionID)
}

// List returns the requester's conversations newest first.
func (s *ConversationService) List(ctx context.Context, requester string, limit int) ([]domain.ConversationListItem, error) {
	if strings.TrimSpace(requester) == "" {
		return nil, newError(ErrorUnauthenticated, "missing_identity", nil)
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	items, err := s.convs.ListByUser(ctx, requester, limit)
	if err != nil {
		return nil, storeError("store_read_error", err)
	}
	for i := range items {
		if items[i].MainEmotion == "" {
			items[i].MainEmotion = string(domain.EmotionNeutral)
		}
		if items[i].RiskLevel == "" {
			items[i].RiskLevel = string(domain.RiskLow)
		}
	}
	return items, nil
}

func (s *ConversationService) Delete(ctx context.Context, requester, sessionID string) error {
	if _, err := s.owned(ctx, requester, sessionID); err != nil {
		return err
	}
	existed, err := s.convs.Delete(ctx, sessionID)
	if err != nil {
		return storeError("store_delete_error", err)
	}
	if !existed {
		return notFound("conversation_not_found")
	}
	return nil
}

// Analyze runs the keyword pattern report over the user's messages.
func (s *ConversationService) Analyze(ctx context.Context, requester, sessionID string) (AnalyzeConversationOutput, error) {
	c, err := s.owned(ctx, requester, sessionID)
	if err != nil {
		return AnalyzeConversationOutput{}, err
	}
	report := rules.AnalyzePatterns(strings.Join(c.UserMessages(), " "))
	return AnalyzeConversationOutput{SessionID: c.SessionID, Report: report}, nil
}

// Insights asks the model for a structured analysis. Model failures and
// malformed answers yield fixed fallback insights with Degraded set.
func (s *ConversationService) Insights(ctx context.Context, requester, sessionID string) (InsightsOutput, error) {
	c, err := s.owned(ctx, requester, sessionID)
	if err != nil {
		return InsightsOutput{}, err
	}
	userMessages := c.UserMessages()
	if len(userMessages) == 0 {
		return InsightsOutput{SessionID: c.SessionID, Insights: emptyConversationInsights()}, nil
	}
	if s.llm == nil {
		return InsightsOutput{SessionID: c.SessionID, Insights: fallbackInsights(), Degraded: true}, nil
	}

	raw, err := s.llm.CompleteJSON(ctx, buildInsightsMessages(userMessages), insightsSchemaName, insightsSchema())
	if err != nil {
		attrs := []any{slog.Any("err", err)}
		if status, ok := upstreamStatusCode(err); ok {
			attrs = append(attrs, slog.Int("status", status))
		}
		s.logger.ErrorContext(ctx, "insights completion failed", attrs...)
		return InsightsOutput{SessionID: c.SessionID, Insights: fallbackInsights(), Degraded: true}, nil
	}
	insights, err := parseInsights(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "insights response malformed", slog.Any("err", err))
		return InsightsOutput{SessionID: c.SessionID, Insights: fallbackInsights(), Degraded: true}, nil
	}
	return InsightsOutput{SessionID: c.SessionID, Insights: insights}, nil
}

func (s *ConversationService) owned(ctx context.Context, requester, sessionID string) (domain.Conversation, error) {
	if strings.TrimSpace(requester) == "" {
		return domain.Conversation{}, newError(ErrorUnauthenticated, "missing_identity", nil)
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.Conversation{}, invalid("missing_session_id")
	}
	c, ok, err := s.convs.Get(ctx, sessionID)
	if err != nil {
		return domain.Conversation{}, storeError("store_read_error", err)
	}
	if !ok {
		return domain.Conversation{}, notFound("conversation_not_found")
	}
	if c.UserID != requester {
		return domain.Conversation{}, forbidden()
	}
	return c, nil
}
