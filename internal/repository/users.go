package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"aurora-agent/internal/domain"
)

// UserRepo stores one profile document per user id.
type UserRepo struct {
	store DocumentStore
}

func NewUserRepo(store DocumentStore) (*UserRepo, error) {
	if store == nil {
		return nil, errors.New("repository: document store must not be nil")
	}
	return &UserRepo{store: store}, nil
}

func (r *UserRepo) Get(ctx context.Context, userID string) (domain.UserProfile, bool, error) {
	doc, ok, err := r.store.Get(ctx, CollectionUsers, userID)
	if err != nil || !ok {
		return domain.UserProfile{}, false, err
	}
	var p domain.UserProfile
	if err := json.Unmarshal(doc.Body, &p); err != nil {
		return domain.UserProfile{}, false, fmt.Errorf("repository: decode user %s: %w", userID, err)
	}
	return p, true, nil
}

// Put replaces the whole profile. The document is owned by the profile's user.
func (r *UserRepo) Put(ctx context.Context, p domain.UserProfile) error {
	if p.Profile.UserID == "" {
		return ErrInvalidKey
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("repository: encode user: %w", err)
	}
	return r.store.Upsert(ctx, CollectionUsers, Document{
		Key:     p.Profile.UserID,
		Owner:   p.Profile.UserID,
		SavedAt: p.Profile.LastActive,
		Body:    body,
	})
}

func (r *UserRepo) Delete(ctx context.Context, userID string) (bool, error) {
	return r.store.Delete(ctx, CollectionUsers, userID)
}
