package artifact

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/mailmesh/core"
)

// InMemoryStore keeps every saved version of every artifact in process
// memory. Data is copied on save and load.
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[core.SessionKey]map[string][][]byte // key -> name -> versions (index 0 is version 1)
}

var _ core.ArtifactStore = (*InMemoryStore)(nil)

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{artifacts: make(map[core.SessionKey]map[string][][]byte)}
}

// Save appends a new version and returns its number.
func (a *InMemoryStore) Save(ctx context.Context, key core.SessionKey, name string, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if name == "" {
		return 0, fmt.Errorf("artifact name is empty")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	m, ok := a.artifacts[key]
	if !ok {
		m = make(map[string][][]byte)
		a.artifacts[key] = m
	}

	m[name] = append(m[name], clone(data))

	return len(m[name]), nil
}

// Load returns the given version, or the latest for version 0.
func (a *InMemoryStore) Load(ctx context.Context, key core.SessionKey, name string, version int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	versions := a.artifacts[key][name]
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrArtifactNotFound, name)
	}

	if version == 0 {
		version = len(versions)
	}
	if version < 1 || version > len(versions) {
		return nil, fmt.Errorf("%w: %s version %d", core.ErrArtifactNotFound, name, version)
	}

	return clone(versions[version-1]), nil
}

// List returns the sorted artifact names of the session.
func (a *InMemoryStore) List(ctx context.Context, key core.SessionKey) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.artifacts[key]))
	for name := range a.artifacts[key] {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// Delete removes all versions of name.
func (a *InMemoryStore) Delete(ctx context.Context, key core.SessionKey, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	m := a.artifacts[key]
	if _, ok := m[name]; !ok {
		return fmt.Errorf("%w: %s", core.ErrArtifactNotFound, name)
	}
	delete(m, name)

	return nil
}

func clone(b []byte) []byte {
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
