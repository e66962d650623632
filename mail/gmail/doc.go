// Package gmail delivers drafts through the Gmail API.
//
// Credentials are obtained out of band: Authorize runs the OAuth installed-app
// flow (PKCE, state check, loopback redirect served by chi) and stores the
// token with owner-only permissions. Sender reads that token file and never
// starts an interactive flow itself, so a missing token surfaces as
// mail.ErrNotAuthorized at send time.
package gmail
