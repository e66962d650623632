package gmail

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/hupe1980/mailmesh/mail"
)

// Scope is the single OAuth scope requested: create and send messages.
const Scope = gmailapi.GmailComposeScope

// LoadOAuthConfig reads a Google "installed application" client secrets file.
func LoadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("%w: no credentials file configured", mail.ErrNotAuthorized)
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	cfg, err := google.ConfigFromJSON(b, Scope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	return cfg, nil
}

// LoadToken reads a token saved by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no token at %s, run `mailmesh auth`", mail.ErrNotAuthorized, path)
		}
		return nil, fmt.Errorf("read token: %w", err)
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(b, tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}

	return tok, nil
}

// SaveToken writes tok as JSON with mode 0600, creating the parent directory
// with mode 0700 when needed.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	b, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}

	return os.Rename(tmp, path)
}

// persistingTokenSource saves refreshed tokens back to disk.
type persistingTokenSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func newPersistingTokenSource(base oauth2.TokenSource, path string, initial *oauth2.Token) *persistingTokenSource {
	return &persistingTokenSource{base: base, path: path, last: initial.AccessToken}
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if tok.AccessToken != p.last {
		if err := SaveToken(p.path, tok); err != nil {
			return nil, err
		}
		p.last = tok.AccessToken
	}

	return tok, nil
}
