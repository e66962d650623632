package core

import (
	"context"
	"errors"
)

// ErrArtifactNotFound is returned when no artifact matches name (and version).
var ErrArtifactNotFound = errors.New("artifact not found")

// ArtifactStore keeps named, versioned blobs per session. Save returns the
// new version (starting at 1); Load with version 0 returns the latest.
type ArtifactStore interface {
	Save(ctx context.Context, key SessionKey, name string, data []byte) (int, error)
	Load(ctx context.Context, key SessionKey, name string, version int) ([]byte, error)
	List(ctx context.Context, key SessionKey) ([]string, error)
	Delete(ctx context.Context, key SessionKey, name string) error
}
