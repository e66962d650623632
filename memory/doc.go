// Package memory contains the in-memory core.MemoryStore: a key/value map per
// scope that outlives individual sessions. mailmesh scopes it by user ID and
// uses it to cache web search answers.
package memory
