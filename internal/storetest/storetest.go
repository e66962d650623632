// Package storetest holds behavioural suites shared by every store backend.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mailmesh/core"
)

// Key returns a session key for tests.
func Key(id string) core.SessionKey {
	return core.SessionKey{AppName: "app", UserID: "user", ID: id}
}

// SessionStore exercises the core.SessionStore contract against a fresh store.
func SessionStore(t *testing.T, newStore func(t *testing.T) core.SessionStore) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)

		created, err := s.Create(ctx, Key("a"))
		require.NoError(t, err)
		assert.Equal(t, Key("a"), created.Key)

		got, err := s.Get(ctx, Key("a"))
		require.NoError(t, err)
		assert.Equal(t, Key("a"), got.Key)
		assert.Empty(t, got.State)
		assert.Empty(t, got.Events)
	})

	t.Run("duplicate create", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Create(ctx, Key("a"))
		require.NoError(t, err)

		_, err = s.Create(ctx, Key("a"))
		assert.ErrorIs(t, err, core.ErrSessionExists)
	})

	t.Run("incomplete key", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Create(ctx, core.SessionKey{AppName: "app", ID: "x"})
		assert.Error(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Get(ctx, Key("missing"))
		assert.ErrorIs(t, err, core.ErrSessionNotFound)
		assert.ErrorIs(t, s.ApplyDelta(ctx, Key("missing"), map[string]any{"k": "v"}), core.ErrSessionNotFound)
		assert.ErrorIs(t, s.AppendEvent(ctx, Key("missing"), core.NewUserMessageEvent("r", "hi")), core.ErrSessionNotFound)
	})

	t.Run("overwrite not merge", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, Key("a"))
		require.NoError(t, err)

		require.NoError(t, s.ApplyDelta(ctx, Key("a"), map[string]any{"email_draft": map[string]any{"Title": "one", "Body": "b"}}))
		require.NoError(t, s.ApplyDelta(ctx, Key("a"), map[string]any{"email_draft": map[string]any{"Title": "two"}}))
		require.NoError(t, s.ApplyDelta(ctx, Key("a"), map[string]any{"feedback": "APPROVED"}))

		got, err := s.Get(ctx, Key("a"))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"Title": "two"}, got.State["email_draft"])
		assert.Equal(t, "APPROVED", got.State["feedback"])
	})

	t.Run("events keep order", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, Key("a"))
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			require.NoError(t, s.AppendEvent(ctx, Key("a"), core.NewUserMessageEvent("run", fmt.Sprintf("m%d", i))))
		}

		got, err := s.Get(ctx, Key("a"))
		require.NoError(t, err)
		require.Len(t, got.Events, 5)
		for i, ev := range got.Events {
			assert.Equal(t, fmt.Sprintf("m%d", i), ev.Text())
			assert.Equal(t, core.AuthorUser, ev.Author)
		}
	})

	t.Run("isolation by key", func(t *testing.T) {
		s := newStore(t)
		other := core.SessionKey{AppName: "app", UserID: "someone-else", ID: "a"}

		_, err := s.Create(ctx, Key("a"))
		require.NoError(t, err)
		_, err = s.Create(ctx, other)
		require.NoError(t, err)

		require.NoError(t, s.ApplyDelta(ctx, Key("a"), map[string]any{"sender": "a@x.com"}))

		got, err := s.Get(ctx, other)
		require.NoError(t, err)
		_, ok := got.State["sender"]
		assert.False(t, ok)
	})

	t.Run("snapshot is detached", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, Key("a"))
		require.NoError(t, err)

		snap, err := s.Get(ctx, Key("a"))
		require.NoError(t, err)
		snap.SetState("local", true)

		got, err := s.Get(ctx, Key("a"))
		require.NoError(t, err)
		_, ok := got.State["local"]
		assert.False(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, Key("a"))
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, Key("a")))
		_, err = s.Get(ctx, Key("a"))
		assert.ErrorIs(t, err, core.ErrSessionNotFound)
	})

	t.Run("concurrent sessions", func(t *testing.T) {
		s := newStore(t)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			key := Key(fmt.Sprintf("s%d", i))
			_, err := s.Create(ctx, key)
			require.NoError(t, err)

			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					assert.NoError(t, s.ApplyDelta(ctx, key, map[string]any{"turns": j}))
					assert.NoError(t, s.AppendEvent(ctx, key, core.NewUserMessageEvent("r", "x")))
				}
			}()
		}
		wg.Wait()

		for i := 0; i < 8; i++ {
			got, err := s.Get(ctx, Key(fmt.Sprintf("s%d", i)))
			require.NoError(t, err)
			assert.Len(t, got.Events, 10)
			assert.EqualValues(t, 9, got.State["turns"])
		}
	})
}

// ArtifactStore exercises the core.ArtifactStore contract.
func ArtifactStore(t *testing.T, newStore func(t *testing.T) core.ArtifactStore) {
	ctx := context.Background()

	t.Run("versions", func(t *testing.T) {
		s := newStore(t)

		v1, err := s.Save(ctx, Key("a"), "brief.md", []byte("one"))
		require.NoError(t, err)
		assert.Equal(t, 1, v1)

		v2, err := s.Save(ctx, Key("a"), "brief.md", []byte("two"))
		require.NoError(t, err)
		assert.Equal(t, 2, v2)

		latest, err := s.Load(ctx, Key("a"), "brief.md", 0)
		require.NoError(t, err)
		assert.Equal(t, "two", string(latest))

		first, err := s.Load(ctx, Key("a"), "brief.md", 1)
		require.NoError(t, err)
		assert.Equal(t, "one", string(first))

		_, err = s.Load(ctx, Key("a"), "brief.md", 3)
		assert.ErrorIs(t, err, core.ErrArtifactNotFound)
	})

	t.Run("list and delete", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Save(ctx, Key("a"), "sent.json", []byte("{}"))
		require.NoError(t, err)
		_, err = s.Save(ctx, Key("a"), "brief.md", []byte("b"))
		require.NoError(t, err)
		_, err = s.Save(ctx, Key("b"), "other.txt", []byte("o"))
		require.NoError(t, err)

		names, err := s.List(ctx, Key("a"))
		require.NoError(t, err)
		assert.Equal(t, []string{"brief.md", "sent.json"}, names)

		require.NoError(t, s.Delete(ctx, Key("a"), "brief.md"))
		_, err = s.Load(ctx, Key("a"), "brief.md", 0)
		assert.ErrorIs(t, err, core.ErrArtifactNotFound)
		assert.ErrorIs(t, s.Delete(ctx, Key("a"), "brief.md"), core.ErrArtifactNotFound)
	})

	t.Run("data is copied", func(t *testing.T) {
		s := newStore(t)

		data := []byte("abc")
		_, err := s.Save(ctx, Key("a"), "x", data)
		require.NoError(t, err)
		data[0] = 'z'

		got, err := s.Load(ctx, Key("a"), "x", 0)
		require.NoError(t, err)
		assert.Equal(t, "abc", string(got))
	})
}
