package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/internal/storetest"
)

func newStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStore(t *testing.T) {
	storetest.SessionStore(t, func(t *testing.T) core.SessionStore { return newStore(t) })
}

func TestStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")
	key := storetest.Key("persist")

	s, err := New(path)
	require.NoError(t, err)

	_, err = s.Create(ctx, key)
	require.NoError(t, err)
	require.NoError(t, s.ApplyDelta(ctx, key, map[string]any{"phase": "BRIEF_REVIEW"}))

	ev := core.NewFunctionCallEvent("refiner", core.FunctionCall{ID: "c1", Name: "finalize_email", Arguments: "{}"})
	require.NoError(t, s.AppendEvent(ctx, key, ev))
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "BRIEF_REVIEW", got.State["phase"])
	require.Len(t, got.Events, 1)
	require.Len(t, got.Events[0].GetFunctionCalls(), 1)
	assert.Equal(t, "finalize_email", got.Events[0].GetFunctionCalls()[0].Name)
}
