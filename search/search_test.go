package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultString(t *testing.T) {
	r := Result{
		Query:   "taylor swift songs about exes",
		Summary: "Several songs.",
		Sources: []Source{{Title: "Wiki", URL: "https://example.org/a"}, {Title: "Blog", URL: "https://example.org/b"}},
	}

	assert.Equal(t, "Several songs.\n\nSources:\n1. Wiki (https://example.org/a)\n2. Blog (https://example.org/b)", r.String())
	assert.Equal(t, "only summary", Result{Summary: "only summary"}.String())
}

func TestFunc(t *testing.T) {
	var s Searcher = Func(func(_ context.Context, q string) (Result, error) {
		return Result{Query: q, Summary: "ok"}, nil
	})

	r, err := s.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "q", r.Query)
}
