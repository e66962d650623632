package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"", LevelInfo, false},
		{"INFO", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: LevelWarn, Format: "json", Output: &buf})

	l.Info("hidden.event")
	l.Warn("visible.event", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden.event")
	assert.Contains(t, out, "visible.event")
	assert.Contains(t, out, `"key":"value"`)
}

func TestWith(t *testing.T) {
	t.Run("slog", func(t *testing.T) {
		var buf bytes.Buffer
		l := With(New(&Config{Level: LevelDebug, Format: "text", Output: &buf}), "session_id", "s1")
		l.Debug("scoped.event")
		assert.Contains(t, buf.String(), "session_id=s1")
	})

	t.Run("custom", func(t *testing.T) {
		rec := &recorder{}
		l := With(rec, "a", 1)
		l.Info("evt", "b", 2)
		require.Len(t, rec.args, 1)
		assert.Equal(t, []any{"a", 1, "b", 2}, rec.args[0])
	})

	t.Run("nil", func(t *testing.T) {
		assert.Equal(t, NoOpLogger{}, With(nil, "a", 1))
	})
}

type recorder struct{ args [][]any }

func (r *recorder) Debug(_ string, args ...any) { r.args = append(r.args, args) }
func (r *recorder) Info(_ string, args ...any)  { r.args = append(r.args, args) }
func (r *recorder) Warn(_ string, args ...any)  { r.args = append(r.args, args) }
func (r *recorder) Error(_ string, args ...any) { r.args = append(r.args, args) }
