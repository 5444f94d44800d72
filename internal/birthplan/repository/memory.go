package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/birthplan"
)

var (
	ErrNotFound    = errors.New("birth plan not found")
	ErrOwnerExists = errors.New("birth plan already exists for owner")
)

// Repository persists birth plans. Implementations enforce at most one
// document per owner.
type Repository interface {
	Create(ctx context.Context, doc *birthplan.Document) (*birthplan.Document, error)
	Get(ctx context.Context, id string) (*birthplan.Document, error)
	GetByOwner(ctx context.Context, ownerID string) (*birthplan.Document, error)
	Replace(ctx context.Context, id string, fields birthplan.Fields) (*birthplan.Document, error)
	Delete(ctx context.Context, id string) error
}

// MemoryRepo is an in-memory repository used for local runs and unit tests.
// Returned documents are copies; callers cannot mutate stored state.
type MemoryRepo struct {
	mu      sync.RWMutex
	store   map[string]*birthplan.Document
	byOwner map[string]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		store:   make(map[string]*birthplan.Document),
		byOwner: make(map[string]string),
	}
}

func (m *MemoryRepo) Create(_ context.Context, doc *birthplan.Document) (*birthplan.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byOwner[doc.OwnerID]; ok {
		return nil, ErrOwnerExists
	}
	d := copyDoc(doc)
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = time.Now().UTC()
	d.UpdatedAt = d.CreatedAt
	m.store[d.ID] = d
	m.byOwner[d.OwnerID] = d.ID
	return copyDoc(d), nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*birthplan.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		return copyDoc(d), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) GetByOwner(_ context.Context, ownerID string) (*birthplan.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byOwner[ownerID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDoc(m.store[id]), nil
}

func (m *MemoryRepo) Replace(_ context.Context, id string, fields birthplan.Fields) (*birthplan.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	d.Fields = fields.Clone()
	d.UpdatedAt = time.Now().UTC()
	return copyDoc(d), nil
}

func (m *MemoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.byOwner, d.OwnerID)
	delete(m.store, id)
	return nil
}

func copyDoc(d *birthplan.Document) *birthplan.Document {
	out := *d
	out.Fields = d.Fields.Clone()
	return &out
}
