// Package repository persists conversations, user profiles, questionnaires and
// voice analyses as JSON documents behind a backend-neutral DocumentStore.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"
)

const (
	CollectionConversations = "conversations"
	CollectionUsers         = "users"
	CollectionVoiceAnalyses = "voice_analyses"
	CollectionAssessments   = "assessments"
	savedAtLayout           = "2006-01-02T15:04:05.000000000Z"
	maxCollectionNameLength = 64
	maxDocumentKeyLength    = 128
)

var (
	ErrInvalidCollection = errors.New("repository: invalid collection")
	ErrInvalidKey        = errors.New("repository: invalid document key")
)

// Document is one stored record. Body is opaque JSON owned by the typed
// repositories. A zero ExpiresAt never expires.
type Document struct {
	Key       string
	Owner     string
	SavedAt   time.Time
	ExpiresAt time.Time
	Body      json.RawMessage
}

func (d Document) expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && !now.Before(d.ExpiresAt)
}

// Filter narrows List. An empty Owner lists every document in the collection;
// Limit <= 0 means no limit.
type Filter struct {
	Owner string
	Limit int
}

// DocumentStore is implemented by the DynamoDB, PostgreSQL and file backends.
// Expired documents are never returned. List is ordered newest SavedAt first.
type DocumentStore interface {
	Upsert(ctx context.Context, collection string, doc Document) error
	Get(ctx context.Context, collection, key string) (Document, bool, error)
	Delete(ctx context.Context, collection, key string) (bool, error)
	List(ctx context.Context, collection string, f Filter) ([]Document, error)
}

func validate(collection, key string) error {
	if collection == "" || len(collection) > maxCollectionNameLength || strings.ContainsAny(collection, "#/\\. ") {
		return ErrInvalidCollection
	}
	if key == "" || len(key) > maxDocumentKeyLength || strings.ContainsAny(key, "/\\") || key == "." || key == ".." {
		return ErrInvalidKey
	}
	return nil
}

func validateCollection(collection string) error {
	return validate(collection, "_")
}

func formatSavedAt(t time.Time) string {
	return t.UTC().Format(savedAtLayout)
}

// sortNewestFirst orders by SavedAt descending, then Key ascending for ties.
func sortNewestFirst(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].SavedAt.Equal(docs[j].SavedAt) {
			return docs[i].SavedAt.After(docs[j].SavedAt)
		}
		return docs[i].Key < docs[j].Key
	})
}

func applyLimit(docs []Document, limit int) []Document {
	if limit > 0 && len(docs) > limit {
		return docs[:limit]
	}
	return docs
}
