package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/mailmesh/core"
)

// Options configures InMemoryStore.
type Options struct {
	// TTL expires entries this long after their last Put. Zero keeps them
	// for the life of the process.
	TTL time.Duration
	// Now is the clock, replaceable in tests.
	Now func() time.Time
}

type entry struct {
	value   any
	written time.Time
}

// InMemoryStore is a process-local MemoryStore guarded by an RWMutex.
type InMemoryStore struct {
	mu     sync.RWMutex
	scopes map[string]map[string]entry
	opts   Options
}

var _ core.MemoryStore = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &InMemoryStore{scopes: make(map[string]map[string]entry), opts: opts}
}

// Get returns a copy of the live entries of scope.
func (m *InMemoryStore) Get(ctx context.Context, scope string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.opts.Now()
	result := make(map[string]any, len(m.scopes[scope]))
	for k, e := range m.scopes[scope] {
		if m.expired(e, now) {
			continue
		}
		result[k] = e.value
	}

	return result, nil
}

// Put writes every pair of delta into scope, replacing previous values.
func (m *InMemoryStore) Put(ctx context.Context, scope string, delta map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.scopes[scope]
	if !ok {
		s = make(map[string]entry, len(delta))
		m.scopes[scope] = s
	}

	now := m.opts.Now()
	for k, v := range delta {
		s[k] = entry{value: v, written: now}
	}

	for k, e := range s {
		if m.expired(e, now) {
			delete(s, k)
		}
	}

	return nil
}

func (m *InMemoryStore) expired(e entry, now time.Time) bool {
	return m.opts.TTL > 0 && now.Sub(e.written) > m.opts.TTL
}
