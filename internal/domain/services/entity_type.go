package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/domain/ports"
)

var typeNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// EntityTypeService manages the registry of entity types a sync run accepts.
type EntityTypeService struct {
	store ports.EntityTypeStore

	mu    sync.RWMutex
	known map[string]entities.EntityType
}

// NewEntityTypeService creates a new EntityTypeService.
func NewEntityTypeService(store ports.EntityTypeStore) *EntityTypeService {
	return &EntityTypeService{store: store}
}

// LoadDefaults registers the built-in types that are missing from the store.
func (s *EntityTypeService) LoadDefaults(ctx context.Context) error {
	existing, err := s.store.ListEntityTypes(ctx)
	if err != nil {
		return fmt.Errorf("listing entity types: %w", err)
	}

	have := make(map[string]bool, len(existing))
	for _, et := range existing {
		have[et.Name] = true
	}

	for _, et := range entities.DefaultEntityTypes {
		if have[et.Name] {
			continue
		}
		et.CreatedAt = timeNow().UTC()
		if err := s.store.SaveEntityType(ctx, &et); err != nil {
			return fmt.Errorf("seeding entity type %s: %w", et.Name, err)
		}
	}
	s.reset()
	return nil
}

// List returns every registered type ordered by name.
func (s *EntityTypeService) List(ctx context.Context) ([]entities.EntityType, error) {
	return s.store.ListEntityTypes(ctx)
}

// Add registers a custom type.
func (s *EntityTypeService) Add(ctx context.Context, name, description string) error {
	name = entities.NormalizeTypeName(name)
	if !typeNamePattern.MatchString(name) {
		return errors.New("invalid type name: must be lowercase alphanumeric with underscores, starting with a letter")
	}

	existing, err := s.store.FindEntityType(ctx, name)
	if err != nil {
		return fmt.Errorf("checking entity type: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("entity type '%s' already exists", name)
	}

	et := &entities.EntityType{
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   timeNow().UTC(),
	}
	if err := s.store.SaveEntityType(ctx, et); err != nil {
		return fmt.Errorf("saving entity type: %w", err)
	}
	s.reset()
	return nil
}

// Remove deletes a custom type. Built-in types cannot be removed.
func (s *EntityTypeService) Remove(ctx context.Context, name string) error {
	name = entities.NormalizeTypeName(name)
	if entities.IsDefaultType(name) {
		return fmt.Errorf("cannot remove default entity type '%s'", name)
	}

	existing, err := s.store.FindEntityType(ctx, name)
	if err != nil {
		return fmt.Errorf("checking entity type: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("%w: %s", entities.ErrUnknownEntityType, name)
	}

	if err := s.store.DeleteEntityType(ctx, name); err != nil {
		return fmt.Errorf("deleting entity type: %w", err)
	}
	s.reset()
	return nil
}

// Require returns ErrUnknownEntityType unless name is registered.
func (s *EntityTypeService) Require(ctx context.Context, name string) error {
	known, err := s.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := known[entities.NormalizeTypeName(name)]; !ok {
		return fmt.Errorf("%w: %s", entities.ErrUnknownEntityType, name)
	}
	return nil
}

// Describe returns the registered description of a type, or "" if unknown.
func (s *EntityTypeService) Describe(ctx context.Context, name string) string {
	known, err := s.load(ctx)
	if err != nil {
		return ""
	}
	return known[entities.NormalizeTypeName(name)].Description
}

// Names returns the registered type names in sorted order.
func (s *EntityTypeService) Names(ctx context.Context) ([]string, error) {
	known, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// load returns the cached registry, reading the store on first use.
func (s *EntityTypeService) load(ctx context.Context) (map[string]entities.EntityType, error) {
	s.mu.RLock()
	known := s.known
	s.mu.RUnlock()
	if known != nil {
		return known, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.known != nil {
		return s.known, nil
	}

	types, err := s.store.ListEntityTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing entity types: %w", err)
	}
	known = make(map[string]entities.EntityType, len(types))
	for _, et := range types {
		known[et.Name] = et
	}
	s.known = known
	return known, nil
}

func (s *EntityTypeService) reset() {
	s.mu.Lock()
	s.known = nil
	s.mu.Unlock()
}
