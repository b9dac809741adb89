package catalog

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"medchart/m/domain"
	"medchart/m/internal/store"
)

var (
	ErrMissingFields = errors.New("missing required fields: code, generic_name")
	ErrNotFound      = errors.New("medicine not found")
)

// Action reports what an upsert did.
type Action string

const (
	ActionAdded   Action = "added"
	ActionUpdated Action = "updated"
)

// Service applies one transformation per call to the stored collection:
// load everything, change it in memory, save everything.
type Service struct {
	store store.Store
	mu    *sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithSerializedAccess runs every load-mutate-save sequence under a single
// mutex. Without it concurrent writers can overwrite each other.
func WithSerializedAccess() Option {
	return func(s *Service) {
		s.mu = &sync.Mutex{}
	}
}

// NewService returns a Service on st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{store: st}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serialized reports whether access is guarded by a mutex.
func (s *Service) Serialized() bool {
	return s.mu != nil
}

func (s *Service) lock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// List returns the full collection.
func (s *Service) List() domain.Collection {
	unlock := s.lock()
	defer unlock()
	return s.store.Load()
}

// ReplaceAll overwrites the collection with items, unvalidated.
func (s *Service) ReplaceAll(items domain.Collection) (int, error) {
	unlock := s.lock()
	defer unlock()

	if err := s.store.Save(items); err != nil {
		return 0, fmt.Errorf("save medicines: %w", err)
	}
	return len(items), nil
}

// Upsert replaces the first record sharing candidate's code, or appends
// candidate when none does.
func (s *Service) Upsert(candidate *domain.Medicine) (Action, error) {
	if !candidate.HasRequiredFields() {
		return "", ErrMissingFields
	}

	unlock := s.lock()
	defer unlock()

	items := s.store.Load()
	action := ActionAdded
	if i := slices.IndexFunc(items, candidate.SameCode); i >= 0 {
		items[i] = candidate
		action = ActionUpdated
	} else {
		items = append(items, candidate)
	}

	if err := s.store.Save(items); err != nil {
		return "", fmt.Errorf("save medicines: %w", err)
	}
	return action, nil
}

// Update replaces the record keyed by code with body. The stored record
// always keeps code, whatever body says.
func (s *Service) Update(code string, body *domain.Medicine) (*domain.Medicine, error) {
	unlock := s.lock()
	defer unlock()

	items := s.store.Load()
	i := indexOf(items, code)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}

	updated := body.WithCode(code)
	items[i] = updated
	if err := s.store.Save(items); err != nil {
		return nil, fmt.Errorf("save medicines: %w", err)
	}
	return updated, nil
}

// Delete removes the record keyed by code and returns it.
func (s *Service) Delete(code string) (*domain.Medicine, error) {
	unlock := s.lock()
	defer unlock()

	items := s.store.Load()
	i := indexOf(items, code)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}

	removed := items[i]
	items = slices.Delete(items, i, i+1)
	if err := s.store.Save(items); err != nil {
		return nil, fmt.Errorf("save medicines: %w", err)
	}
	return removed, nil
}

func indexOf(items domain.Collection, code string) int {
	return slices.IndexFunc(items, func(m *domain.Medicine) bool {
		return m.HasCode(code)
	})
}
