package tool

import (
	"strings"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/search"
)

// WebSearchToolName is the research tool offered to the drafters.
const WebSearchToolName = "web_search"

// SearchCachePrefix prefixes memory keys holding cached answers.
const SearchCachePrefix = "search:"

type webSearchArgs struct {
	Query string `json:"query" description:"What to look up on the web" validate:"nonblank"`
}

// NewWebSearchTool returns web_search backed by searcher. Answers are cached
// in the user's memory scope under "search:<query>"; a cache read or write
// failure only costs the cache.
func NewWebSearchTool(searcher search.Searcher) *FunctionTool {
	return NewFunctionToolFromStruct(
		WebSearchToolName,
		"Searches the web for references outside your knowledge, such as song lyrics, events or places, and returns a short summary with sources.",
		webSearchArgs{},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			query := strings.TrimSpace(args["query"].(string))
			key := SearchCachePrefix + strings.ToLower(query)

			if v, ok, err := tc.Recall(key); err != nil {
				tc.LogWarn("tool.web_search.cache_read_failed", "error", err)
			} else if ok {
				if s, isStr := v.(string); isStr {
					tc.LogDebug("tool.web_search.cache_hit", "query", query)
					return s, nil
				}
			}

			res, err := searcher.Search(tc.Context(), query)
			if err != nil {
				return nil, NewToolError(WebSearchToolName, err.Error(), CodeExecution)
			}

			out := res.String()
			if err := tc.Remember(key, out); err != nil {
				tc.LogWarn("tool.web_search.cache_write_failed", "error", err)
			}

			return out, nil
		},
	)
}
