package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"

	"aurora-agent/internal/domain"
	"aurora-agent/internal/integrations/paramstore"
)

// Classifier returns raw emotion scores for a text.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]domain.EmotionScore, error)
}

// JSONCompleter is an LLM that can be asked for a single JSON object.
type JSONCompleter interface {
	CompleteJSON(ctx context.Context, messages []domain.ChatMessage, name string, schema map[string]any) (string, error)
}

type ConversationStore interface {
	Save(ctx context.Context, c domain.Conversation) (domain.Conversation, error)
	Get(ctx context.Context, sessionID string) (domain.Conversation, bool, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.ConversationListItem, error)
	Delete(ctx context.Context, sessionID string) (bool, error)
}

type UserStore interface {
	Get(ctx context.Context, userID string) (domain.UserProfile, bool, error)
	Put(ctx context.Context, p domain.UserProfile) error
	Delete(ctx context.Context, userID string) (bool, error)
}

type AssessmentStore interface {
	Get(ctx context.Context, userID string) (domain.Assessment, bool, error)
	Put(ctx context.Context, a domain.Assessment) error
}

type VoiceStore interface {
	Save(ctx context.Context, a domain.VoiceAnalysis) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.VoiceAnalysis, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

func isCredentialError(err error) bool {
	return errors.Is(err, paramstore.ErrCredentials)
}

var newUUID = func() string {
	return uuid.NewString()
}

const userIDLength = 16

// userIDForEmail derives the stable profile key for an email address.
func userIDForEmail(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])[:userIDLength]
}

// anonymousUserID returns a random profile key for users without an email.
func anonymousUserID() string {
	return strings.ReplaceAll(newUUID(), "-", "")[:userIDLength]
}
