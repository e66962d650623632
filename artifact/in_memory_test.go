package artifact

import (
	"testing"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/internal/storetest"
)

func TestInMemoryStore(t *testing.T) {
	storetest.ArtifactStore(t, func(*testing.T) core.ArtifactStore { return NewInMemoryStore() })
}
