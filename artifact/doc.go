// Package artifact provides the in-memory core.ArtifactStore. Approved
// briefs and sent emails are archived here by the orchestrator; see
// artifact/sqlite for the durable backend.
package artifact
