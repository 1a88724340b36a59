package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"aurora-agent/internal/domain"
)

// AssessmentRepo stores one questionnaire document per user id.
type AssessmentRepo struct {
	store DocumentStore
}

func NewAssessmentRepo(store DocumentStore) (*AssessmentRepo, error) {
	if store == nil {
		return nil, errors.New("repository: document store must not be nil")
	}
	return &AssessmentRepo{store: store}, nil
}

// Put replaces the user's questionnaire.
func (r *AssessmentRepo) Put(ctx context.Context, a domain.Assessment) error {
	if a.UserID == "" {
		return ErrInvalidKey
	}
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("repository: encode assessment: %w", err)
	}
	return r.store.Upsert(ctx, CollectionAssessments, Document{
		Key:     a.UserID,
		Owner:   a.UserID,
		SavedAt: a.UpdatedAt,
		Body:    body,
	})
}

func (r *AssessmentRepo) Get(ctx context.Context, userID string) (domain.Assessment, bool, error) {
	doc, ok, err := r.store.Get(ctx, CollectionAssessments, userID)
	if err != nil || !ok {
		return domain.Assessment{}, false, err
	}
	var a domain.Assessment
	if err := json.Unmarshal(doc.Body, &a); err != nil {
		return domain.Assessment{}, false, fmt.Errorf("repository: decode assessment %s: %w", userID, err)
	}
	return a, true, nil
}
