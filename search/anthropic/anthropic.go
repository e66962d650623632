// Package anthropic implements search.Searcher with the Anthropic server-side
// web search tool: the model runs the searches and answers with a summary.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	anthropicmodel "github.com/hupe1980/mailmesh/model/anthropic"
	"github.com/hupe1980/mailmesh/search"
)

const systemPrompt = "You research facts for an email writer. Search the web, then answer in at most five sentences. Plain text only."

// Options configures the searcher.
type Options struct {
	Model     anthropic.Model
	MaxTokens int64
	// MaxUses caps the number of searches per query.
	MaxUses int64
}

// Searcher implements search.Searcher.
type Searcher struct {
	client *anthropic.Client
	opts   Options
}

var _ search.Searcher = (*Searcher)(nil)

// NewSearcher creates a searcher sharing credentials with the model adapter.
func NewSearcher(modelOpts anthropicmodel.Options, optFns ...func(o *Options)) *Searcher {
	client := anthropic.NewClient(anthropicmodel.ClientOptions(modelOpts)...)

	s := NewSearcherFromClient(&client, optFns...)
	if modelOpts.UseBedrock {
		s.opts.Model = anthropicmodel.BedrockModel(s.opts.Model)
	}

	return s
}

// NewSearcherFromClient creates a searcher from an existing client.
func NewSearcherFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Searcher {
	opts := Options{
		Model:     anthropic.ModelClaudeSonnet4_20250514,
		MaxTokens: 1024,
		MaxUses:   3,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Searcher{client: client, opts: opts}
}

// Search runs one research request.
func (s *Searcher) Search(ctx context.Context, query string) (search.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return search.Result{}, search.ErrEmptyQuery
	}

	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     s.opts.Model,
		MaxTokens: s.opts.MaxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(query))},
		Tools: []anthropic.ToolUnionParam{{
			OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{MaxUses: anthropic.Int(s.opts.MaxUses)},
		}},
	})
	if err != nil {
		return search.Result{}, fmt.Errorf("anthropic web search: %w", err)
	}

	res := search.Result{Query: query}
	seen := map[string]bool{}

	var summary []string
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			if t := strings.TrimSpace(block.AsText().Text); t != "" {
				summary = append(summary, t)
			}
		case "web_search_tool_result":
			for _, r := range block.AsWebSearchToolResult().Content.OfWebSearchResultBlockArray {
				if r.URL == "" || seen[r.URL] {
					continue
				}
				seen[r.URL] = true
				res.Sources = append(res.Sources, search.Source{Title: r.Title, URL: r.URL})
			}
		}
	}

	res.Summary = strings.Join(summary, " ")
	if res.Summary == "" {
		return search.Result{}, fmt.Errorf("anthropic web search: no answer for %q", query)
	}

	return res, nil
}
