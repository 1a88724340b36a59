package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// fileEnvelope is the on-disk form of a Document.
type fileEnvelope struct {
	Key       string          `json:"key"`
	Owner     string          `json:"owner,omitempty"`
	SavedAt   time.Time       `json:"savedAt"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
	Body      json.RawMessage `json:"body"`
}

// FileStore keeps one JSON file per document under <dir>/<collection>/.
// It is meant for local development and single-instance deployments.
type FileStore struct {
	mu  sync.RWMutex
	dir string
	now func() time.Time
}

func NewFileStore(dir string) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("repository: file store directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("repository: create %s: %w", dir, err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) path(collection, key string) string {
	return filepath.Join(s.dir, collection, key+".json")
}

func (s *FileStore) Upsert(_ context.Context, collection string, doc Document) error {
	if err := validate(collection, doc.Key); err != nil {
		return err
	}
	env := fileEnvelope{
		Key:     doc.Key,
		Owner:   doc.Owner,
		SavedAt: doc.SavedAt.UTC(),
		Body:    doc.Body,
	}
	if !doc.ExpiresAt.IsZero() {
		exp := doc.ExpiresAt.UTC()
		env.ExpiresAt = &exp
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("repository: Upsert %s/%s encode: %w", collection, doc.Key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeFileAtomic(s.path(collection, doc.Key), data); err != nil {
		return fmt.Errorf("repository: Upsert %s/%s: %w", collection, doc.Key, err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, collection, key string) (Document, bool, error) {
	if err := validate(collection, key); err != nil {
		return Document{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := readDocument(s.path(collection, key))
	if errors.Is(err, os.ErrNotExist) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("repository: Get %s/%s: %w", collection, key, err)
	}
	if doc.expired(s.now()) {
		return Document{}, false, nil
	}
	return doc, true, nil
}

func (s *FileStore) Delete(_ context.Context, collection, key string) (bool, error) {
	if err := validate(collection, key); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(collection, key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("repository: Delete %s/%s: %w", collection, key, err)
	}
	return true, nil
}

func (s *FileStore) List(_ context.Context, collection string, f Filter) ([]Document, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.dir, collection))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: List %s: %w", collection, err)
	}

	now := s.now()
	var docs []Document
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		doc, err := readDocument(filepath.Join(s.dir, collection, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("repository: List %s: %w", collection, err)
		}
		if doc.expired(now) || (f.Owner != "" && doc.Owner != f.Owner) {
			continue
		}
		docs = append(docs, doc)
	}
	sortNewestFirst(docs)
	return applyLimit(docs, f.Limit), nil
}

func readDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Document{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	doc := Document{
		Key:     env.Key,
		Owner:   env.Owner,
		SavedAt: env.SavedAt,
		Body:    env.Body,
	}
	if env.ExpiresAt != nil {
		doc.ExpiresAt = *env.ExpiresAt
	}
	return doc, nil
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it into place, so readers never observe a partial document.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
