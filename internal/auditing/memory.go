package auditing

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/certicredia/certicredia-platform/internal/cpf"
)

// memoryStore mirrors SQLStore semantics for tests and single-process demos.
type memoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]Assessment // keyed by organization id; one row per org
}

func NewInMemoryStore() Store {
	return &memoryStore{rows: map[int64]Assessment{}}
}

func (m *memoryStore) GetByOrganization(_ context.Context, orgID int64) (Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.rows[orgID]
	if !ok || a.DeletedAt != nil {
		return Assessment{}, ErrNotFound
	}
	return cloneAssessment(a), nil
}

func (m *memoryStore) Create(_ context.Context, orgID int64, data cpf.AssessmentDocument, metadata json.RawMessage) (Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.rows[orgID]; ok && a.DeletedAt == nil {
		return Assessment{}, ErrAlreadyExists
	}
	m.nextID++
	now := time.Now().UTC().Truncate(time.Second)
	a := Assessment{
		ID:                 m.nextID,
		OrganizationID:     orgID,
		Data:               cloneDoc(data),
		Metadata:           normalizeMeta(metadata),
		LastAssessmentDate: &now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	m.rows[orgID] = a
	return cloneAssessment(a), nil
}

func (m *memoryStore) Update(_ context.Context, orgID int64, data cpf.AssessmentDocument, metadata json.RawMessage) (Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[orgID]
	if !ok || a.DeletedAt != nil {
		return Assessment{}, ErrNotFound
	}
	now := time.Now().UTC().Truncate(time.Second)
	a.Data = cloneDoc(data)
	a.Metadata = normalizeMeta(metadata)
	a.LastAssessmentDate = &now
	a.UpdatedAt = now
	m.rows[orgID] = a
	return cloneAssessment(a), nil
}

func (m *memoryStore) SoftDelete(_ context.Context, orgID int64) (Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[orgID]
	if !ok || a.DeletedAt != nil {
		return Assessment{}, ErrNotFound
	}
	now := time.Now().UTC().Truncate(time.Second)
	a.DeletedAt = &now
	m.rows[orgID] = a
	return cloneAssessment(a), nil
}

func (m *memoryStore) Restore(_ context.Context, orgID int64) (Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[orgID]
	if !ok || a.DeletedAt == nil {
		return Assessment{}, ErrDeletedNotFound
	}
	a.DeletedAt = nil
	m.rows[orgID] = a
	return cloneAssessment(a), nil
}

func (m *memoryStore) PermanentDelete(_ context.Context, orgID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[orgID]; !ok {
		return false, nil
	}
	delete(m.rows, orgID)
	return true, nil
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var all []Assessment
	for _, a := range m.rows {
		if a.DeletedAt != nil && !opts.IncludeDeleted {
			continue
		}
		all = append(all, cloneAssessment(a))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].OrganizationID < all[j].OrganizationID })
	if opts.Offset >= len(all) {
		return nil, nil
	}
	all = all[opts.Offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memoryStore) Trash(_ context.Context) ([]Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Assessment
	for _, a := range m.rows {
		if a.DeletedAt != nil {
			out = append(out, cloneAssessment(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrganizationID < out[j].OrganizationID })
	return out, nil
}

func cloneDoc(d cpf.AssessmentDocument) cpf.AssessmentDocument {
	out := make(cpf.AssessmentDocument, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func cloneAssessment(a Assessment) Assessment {
	a.Data = cloneDoc(a.Data)
	a.Metadata = append(json.RawMessage(nil), a.Metadata...)
	return a
}

func normalizeMeta(m json.RawMessage) json.RawMessage {
	if len(m) == 0 {
		return json.RawMessage(`{}`)
	}
	return append(json.RawMessage(nil), m...)
}
