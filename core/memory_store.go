package core

import "context"

// MemoryStore is a key/value memory scoped by an arbitrary string (mailmesh
// scopes it by user so cached lookups survive across that user's sessions).
type MemoryStore interface {
	Get(ctx context.Context, scope string) (map[string]any, error)
	Put(ctx context.Context, scope string, delta map[string]any) error
}
