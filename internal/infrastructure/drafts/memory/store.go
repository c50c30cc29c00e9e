package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

// Store keeps drafts in process memory. Drafts are copied on the way in and out.
type Store struct {
	mu     sync.Mutex
	drafts map[string]domain.Draft
	busy   map[string]struct{}
}

func New() *Store {
	return &Store{
		drafts: make(map[string]domain.Draft),
		busy:   make(map[string]struct{}),
	}
}

func (s *Store) Save(_ context.Context, draft *domain.Draft) error {
	if draft == nil || draft.ID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "save draft", fmt.Errorf("draft id is required"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.ID] = cloneDraft(*draft)
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*domain.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDraftNotFound, "get draft", fmt.Errorf("id %q", id))
	}
	out := cloneDraft(draft)
	return &out, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
	return nil
}

func (s *Store) Lock(_ context.Context, id string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.busy[id]; held {
		return nil, domain.WrapError(domain.ErrBusy, "lock draft", fmt.Errorf("id %q", id))
	}
	s.busy[id] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.busy, id)
			s.mu.Unlock()
		})
	}, nil
}

func cloneDraft(d domain.Draft) domain.Draft {
	out := d
	if d.Source != nil {
		src := *d.Source
		src.Data = append([]byte(nil), d.Source.Data...)
		out.Source = &src
	}
	out.Departments = make([]domain.Department, len(d.Departments))
	for i, dept := range d.Departments {
		dept.Categories = append([]string{}, dept.Categories...)
		out.Departments[i] = dept
	}
	out.Categories = append([]string{}, d.Categories...)
	if d.Warnings != nil {
		out.Warnings = append([]string(nil), d.Warnings...)
	}
	return out
}
