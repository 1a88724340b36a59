package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aurora-agent/internal/domain"
)

const (
	// MaxStoredMessages caps the persisted history; older messages are dropped.
	MaxStoredMessages = 100
	// DefaultConversationRetention is how long a saved conversation is kept.
	DefaultConversationRetention = 90 * 24 * time.Hour
)

// ConversationRepo stores support-chat transcripts keyed by session id.
type ConversationRepo struct {
	store     DocumentStore
	retention time.Duration
	now       func() time.Time
}

// NewConversationRepo uses DefaultConversationRetention when retention is zero;
// a negative retention keeps conversations forever.
func NewConversationRepo(store DocumentStore, retention time.Duration) (*ConversationRepo, error) {
	if store == nil {
		return nil, errors.New("repository: document store must not be nil")
	}
	if retention == 0 {
		retention = DefaultConversationRetention
	}
	return &ConversationRepo{store: store, retention: retention, now: time.Now}, nil
}

// Save upserts c, keeping only the last MaxStoredMessages messages and
// stamping SavedAt and MessageCount. It returns what was stored.
func (r *ConversationRepo) Save(ctx context.Context, c domain.Conversation) (domain.Conversation, error) {
	if len(c.Messages) > MaxStoredMessages {
		c.Messages = append([]domain.Message(nil), c.Messages[len(c.Messages)-MaxStoredMessages:]...)
	}
	if c.Messages == nil {
		c.Messages = []domain.Message{}
	}
	c.MessageCount = len(c.Messages)
	c.SavedAt = r.now().UTC()

	body, err := json.Marshal(c)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("repository: encode conversation: %w", err)
	}
	doc := Document{
		Key:     c.SessionID,
		Owner:   c.UserID,
		SavedAt: c.SavedAt,
		Body:    body,
	}
	if r.retention > 0 {
		doc.ExpiresAt = c.SavedAt.Add(r.retention)
	}
	if err := r.store.Upsert(ctx, CollectionConversations, doc); err != nil {
		return domain.Conversation{}, err
	}
	return c, nil
}

func (r *ConversationRepo) Get(ctx context.Context, sessionID string) (domain.Conversation, bool, error) {
	doc, ok, err := r.store.Get(ctx, CollectionConversations, sessionID)
	if err != nil || !ok {
		return domain.Conversation{}, false, err
	}
	c, err := decodeConversation(doc)
	if err != nil {
		return domain.Conversation{}, false, err
	}
	return c, true, nil
}

// ListByUser returns summary projections, newest first.
func (r *ConversationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.ConversationListItem, error) {
	docs, err := r.store.List(ctx, CollectionConversations, Filter{Owner: userID, Limit: limit})
	if err != nil {
		return nil, err
	}
	items := make([]domain.ConversationListItem, 0, len(docs))
	for _, doc := range docs {
		c, err := decodeConversation(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.ConversationListItem{
			SessionID:    c.SessionID,
			SavedAt:      c.SavedAt,
			MessageCount: c.MessageCount,
			MainEmotion:  c.MainEmotion,
			RiskLevel:    c.RiskLevel,
		})
	}
	return items, nil
}

func (r *ConversationRepo) Delete(ctx context.Context, sessionID string) (bool, error) {
	return r.store.Delete(ctx, CollectionConversations, sessionID)
}

func decodeConversation(doc Document) (domain.Conversation, error) {
	var c domain.Conversation
	if err := json.Unmarshal(doc.Body, &c); err != nil {
		return domain.Conversation{}, fmt.Errorf("repository: decode conversation %s: %w", doc.Key, err)
	}
	c.SessionID = doc.Key
	c.MessageCount = len(c.Messages)
	return c, nil
}
