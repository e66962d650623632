// Package model defines the provider-agnostic contract between agents and a
// language model: a Request (instructions, conversation contents, tool
// definitions) answered by a stream of Responses.
//
// Providers live in sub-packages (anthropic, openai). MockModel serves tests
// and offline runs.
package model
