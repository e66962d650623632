// Package testutil contains helpers shared by package tests: session and
// event builders, a scripted model keyed by requesting agent, a recording
// mail sender and a run harness that commits events the way the runner does.
// Not intended for production usage.
package testutil
