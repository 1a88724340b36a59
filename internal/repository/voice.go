package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"aurora-agent/internal/domain"
)

// VoiceAnalysisRepo stores voice analysis results per user.
type VoiceAnalysisRepo struct {
	store DocumentStore
}

func NewVoiceAnalysisRepo(store DocumentStore) (*VoiceAnalysisRepo, error) {
	if store == nil {
		return nil, errors.New("repository: document store must not be nil")
	}
	return &VoiceAnalysisRepo{store: store}, nil
}

func (r *VoiceAnalysisRepo) Save(ctx context.Context, a domain.VoiceAnalysis) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("repository: encode voice analysis: %w", err)
	}
	return r.store.Upsert(ctx, CollectionVoiceAnalyses, Document{
		Key:     a.ID,
		Owner:   a.UserID,
		SavedAt: a.AnalyzedAt,
		Body:    body,
	})
}

// ListByUser returns analyses newest first.
func (r *VoiceAnalysisRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.VoiceAnalysis, error) {
	docs, err := r.store.List(ctx, CollectionVoiceAnalyses, Filter{Owner: userID, Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]domain.VoiceAnalysis, 0, len(docs))
	for _, doc := range docs {
		var a domain.VoiceAnalysis
		if err := json.Unmarshal(doc.Body, &a); err != nil {
			return nil, fmt.Errorf("repository: decode voice analysis %s: %w", doc.Key, err)
		}
		out = append(out, a)
	}
	return out, nil
}
