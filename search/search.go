// Package search defines the web search capability offered to drafting agents.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("empty search query")

// Source is one cited page.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Result is a summarized answer with the pages it was drawn from.
type Result struct {
	Query   string   `json:"query"`
	Summary string   `json:"summary"`
	Sources []Source `json:"sources,omitempty"`
}

// String renders the result the way tools hand it to a model.
func (r Result) String() string {
	var sb strings.Builder
	sb.WriteString(r.Summary)
	if len(r.Sources) > 0 {
		sb.WriteString("\n\nSources:")
		for i, s := range r.Sources {
			fmt.Fprintf(&sb, "\n%d. %s (%s)", i+1, s.Title, s.URL)
		}
	}
	return sb.String()
}

// Searcher answers a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string) (Result, error)
}

// Func adapts a function to Searcher.
type Func func(ctx context.Context, query string) (Result, error)

// Search implements Searcher.
func (f Func) Search(ctx context.Context, query string) (Result, error) { return f(ctx, query) }
