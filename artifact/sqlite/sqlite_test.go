package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/internal/storetest"
)

func TestStore(t *testing.T) {
	storetest.ArtifactStore(t, func(t *testing.T) core.ArtifactStore {
		s, err := New(filepath.Join(t.TempDir(), "artifacts.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
