package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/nao1215/sheetql"
)

var errSessionNotFound = errors.New("session not found")

// registry owns the open sessions. Each session gets its own store from
// the builder, so with an in-memory DSN sessions never see each other's data.
type registry struct {
	mu          sync.RWMutex
	sessions    map[string]*sheetql.Session
	builder     *sheetql.Builder
	previewRows int
}

func newRegistry(builder *sheetql.Builder, previewRows int) *registry {
	return &registry{
		sessions:    make(map[string]*sheetql.Session),
		builder:     builder,
		previewRows: previewRows,
	}
}

func (r *registry) create(ctx context.Context) (*sheetql.Session, error) {
	store, err := r.builder.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	id := uuid.NewString()
	s := sheetql.NewSession(store, sheetql.WithSessionID(id), sheetql.WithPreviewRows(r.previewRows))

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s, nil
}

func (r *registry) get(id string) (*sheetql.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errSessionNotFound, id)
	}
	return s, nil
}

func (r *registry) remove(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", errSessionNotFound, id)
	}
	return s.Close()
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// closeAll closes every session and joins the failures.
func (r *registry) closeAll() error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*sheetql.Session)
	r.mu.Unlock()

	var errs []error
	for id, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close session %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
