package store

import (
	"context"
	"sync"
	"time"

	"github.com/signdrop/internal/db/models"
)

// MemoryStore keeps records in-process, for development and tests.
// Records are copied in and out so readers never observe a torn write.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]models.Document
	tokens map[string]string // signing token -> document id
	order  []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:   make(map[string]models.Document),
		tokens: make(map[string]string),
	}
}

func (m *MemoryStore) Create(ctx context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.docs[doc.ID]; exists {
		return ErrConflict
	}
	if _, exists := m.tokens[doc.SigningToken]; exists {
		return ErrConflict
	}
	m.docs[doc.ID] = *doc
	m.tokens[doc.SigningToken] = doc.ID
	m.order = append(m.order, doc.ID)
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &doc, nil
}

func (m *MemoryStore) GetByToken(ctx context.Context, token string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	doc := m.docs[id]
	return &doc, nil
}

func (m *MemoryStore) ListAll(ctx context.Context) ([]models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]models.Document, 0, len(m.order))
	for _, id := range m.order {
		if doc, ok := m.docs[id]; ok {
			res = append(res, doc)
		}
	}
	return res, nil
}

func (m *MemoryStore) TransitionToSigned(ctx context.Context, id, signedFile string, signedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	if doc.Status != models.StatusPending {
		return ErrConflict
	}
	doc.Status = models.StatusSigned
	doc.SignedFile = signedFile
	doc.SignedAt = &signedAt
	m.docs[id] = doc
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	delete(m.tokens, doc.SigningToken)
	filtered := m.order[:0]
	for _, item := range m.order {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	m.order = filtered
	return nil
}
