package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// ChangeLogStore is an in-memory implementation of ports.ChangeLogStore.
// AppendErr fails AppendEntry only.
type ChangeLogStore struct {
	Err       error
	AppendErr error

	mu      sync.Mutex
	entries []*entities.ChangeLogEntry
}

// NewChangeLogStore creates an empty change log.
func NewChangeLogStore() *ChangeLogStore {
	return &ChangeLogStore{}
}

// AppendEntry writes a new entry.
func (m *ChangeLogStore) AppendEntry(_ context.Context, entry *entities.ChangeLogEntry) error {
	if m.Err != nil {
		return m.Err
	}
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

// FindEntry returns a copy of the entry.
func (m *ChangeLogStore) FindEntry(_ context.Context, id string) (*entities.ChangeLogEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, entities.ErrEntryNotFound
}

// MarkReversed sets reversed_at when unset.
func (m *ChangeLogStore) MarkReversed(_ context.Context, id, reversedBy string, at time.Time) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID != id {
			continue
		}
		if e.ReversedAt != nil {
			return entities.ErrAlreadyReversed
		}
		e.ReversedAt = &at
		e.ReversedBy = reversedBy
		return nil
	}
	return entities.ErrEntryNotFound
}

// ClearReversed unsets reversed_at.
func (m *ChangeLogStore) ClearReversed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			e.ReversedAt = nil
			e.ReversedBy = ""
		}
	}
	return nil
}

// FindHistory lists entries for an entity, most recent first.
func (m *ChangeLogStore) FindHistory(_ context.Context, entityType, entityID string) ([]entities.ChangeLogEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.ChangeLogEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, *e)
		}
	}
	return out, nil
}

// All returns every entry in append order.
func (m *ChangeLogStore) All() []entities.ChangeLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entities.ChangeLogEntry, len(m.entries))
	for i, e := range m.entries {
		out[i] = *e
	}
	return out
}

// ChangeStore is a change log that owns its content store and implements
// ports.ChangeCommitter: a failed commit leaves both stores untouched.
type ChangeStore struct {
	*ChangeLogStore
	Content *ContentStore

	mu      sync.Mutex
	Commits int
}

// NewChangeStore creates a change store over log and content.
func NewChangeStore(log *ChangeLogStore, content *ContentStore) *ChangeStore {
	return &ChangeStore{ChangeLogStore: log, Content: content}
}

// CommitChange claims reverses, applies the mutation and appends entry, or
// undoes whatever part already happened.
func (m *ChangeStore) CommitChange(ctx context.Context, entry *entities.ChangeLogEntry, reverses string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commits++

	prior, err := m.Content.GetContent(ctx, entry.EntityType, entry.EntityID)
	if err != nil {
		return err
	}
	if reverses != "" {
		if err := m.MarkReversed(ctx, reverses, entry.Actor, entry.CreatedAt); err != nil {
			return err
		}
	}

	rollback := func() {
		if prior == nil {
			_ = m.Content.DeleteContent(ctx, entry.EntityType, entry.EntityID)
		} else {
			m.Content.mu.Lock()
			m.Content.Data[entry.EntityType+"/"+entry.EntityID] = prior
			m.Content.mu.Unlock()
		}
		if reverses != "" {
			_ = m.ClearReversed(ctx, reverses)
		}
	}

	if entry.Action == entities.ActionDelete {
		err = m.Content.DeleteContent(ctx, entry.EntityType, entry.EntityID)
	} else {
		err = m.Content.PutContent(ctx, entry.EntityType, entry.EntityID, entry.After)
	}
	if err != nil {
		rollback()
		return err
	}
	if err := m.AppendEntry(ctx, entry); err != nil {
		rollback()
		return err
	}
	return nil
}

// StatusStore is an in-memory implementation of ports.StatusStore.
type StatusStore struct {
	Err error

	mu      sync.Mutex
	Records map[string]entities.SyncStatusRecord
	Writes  int
}

// NewStatusStore creates an empty status store.
func NewStatusStore() *StatusStore {
	return &StatusStore{Records: make(map[string]entities.SyncStatusRecord)}
}

// UpsertStatus overwrites the row.
func (m *StatusStore) UpsertStatus(_ context.Context, rec entities.SyncStatusRecord) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes++
	m.Records[rec.EntityType+"/"+rec.EntityID] = rec
	return nil
}

// FindStatus returns the row or nil.
func (m *StatusStore) FindStatus(_ context.Context, entityType, entityID string) (*entities.SyncStatusRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Records[entityType+"/"+entityID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// CountByType aggregates rows for one type.
func (m *StatusStore) CountByType(ctx context.Context, entityType string) (entities.TypeCounts, error) {
	all, err := m.CountAll(ctx)
	if err != nil {
		return entities.TypeCounts{}, err
	}
	return all[entityType], nil
}

// CountAll aggregates rows for every type.
func (m *StatusStore) CountAll(_ context.Context) (map[string]entities.TypeCounts, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]entities.TypeCounts)
	for _, rec := range m.Records {
		c := out[rec.EntityType]
		c.Total++
		switch rec.Status {
		case entities.SyncVerified:
			c.Verified++
		case entities.SyncNeedsReview:
			c.NeedsReview++
		}
		out[rec.EntityType] = c
	}
	return out, nil
}

// Get returns the row for an entity and whether it exists.
func (m *StatusStore) Get(entityType, entityID string) (entities.SyncStatusRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Records[entityType+"/"+entityID]
	return rec, ok
}

// ContentStore is an in-memory implementation of ports.ContentStore.
type ContentStore struct {
	Err    error
	PutErr error

	mu   sync.Mutex
	Data map[string]map[string]any
}

// NewContentStore creates an empty content store.
func NewContentStore() *ContentStore {
	return &ContentStore{Data: make(map[string]map[string]any)}
}

// GetContent returns a copy of the data or nil.
func (m *ContentStore) GetContent(_ context.Context, entityType, entityID string) (map[string]any, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return entities.CloneData(m.Data[entityType+"/"+entityID]), nil
}

// PutContent stores a copy of the data.
func (m *ContentStore) PutContent(_ context.Context, entityType, entityID string, data map[string]any) error {
	if m.Err != nil {
		return m.Err
	}
	if m.PutErr != nil {
		return m.PutErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[entityType+"/"+entityID] = entities.CloneData(data)
	return nil
}

// DeleteContent removes the data.
func (m *ContentStore) DeleteContent(_ context.Context, entityType, entityID string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, entityType+"/"+entityID)
	return nil
}

// ListContent returns every entity of a type ordered by id.
func (m *ContentStore) ListContent(_ context.Context, entityType string) ([]entities.EntityRef, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := entityType + "/"
	var out []entities.EntityRef
	for key, data := range m.Data {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, entities.EntityRef{Type: entityType, ID: key[len(prefix):], Data: entities.CloneData(data)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// EntityTypeStore is a mock implementation of ports.EntityTypeStore.
type EntityTypeStore struct {
	Types map[string]*entities.EntityType
	Err   error
}

// NewEntityTypeStore creates a new mock EntityTypeStore.
func NewEntityTypeStore() *EntityTypeStore {
	return &EntityTypeStore{
		Types: make(map[string]*entities.EntityType),
	}
}

// SaveEntityType saves or updates a custom entity type.
func (m *EntityTypeStore) SaveEntityType(_ context.Context, et *entities.EntityType) error {
	if m.Err != nil {
		return m.Err
	}
	m.Types[et.Name] = et
	return nil
}

// FindEntityType finds a custom entity type by name.
func (m *EntityTypeStore) FindEntityType(_ context.Context, name string) (*entities.EntityType, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Types[name], nil
}

// ListEntityTypes lists all custom entity types.
func (m *EntityTypeStore) ListEntityTypes(_ context.Context) ([]entities.EntityType, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]entities.EntityType, 0, len(m.Types))
	for _, t := range m.Types {
		result = append(result, *t)
	}
	// Sort by name for deterministic test results
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// DeleteEntityType deletes a custom entity type by name.
func (m *EntityTypeStore) DeleteEntityType(_ context.Context, name string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.Types, name)
	return nil
}
