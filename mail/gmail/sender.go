package gmail

import (
	"context"
	"encoding/base64"
	"fmt"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/hupe1980/mailmesh/logging"
	"github.com/hupe1980/mailmesh/mail"
)

// Options configures the Gmail sender.
type Options struct {
	CredentialsFile string
	TokenFile       string
	// ClientOptions replace the token based authentication when set.
	ClientOptions []option.ClientOption
	Logger        logging.Logger
}

// Sender implements mail.Sender on top of users.messages.send.
type Sender struct {
	opts Options
}

var _ mail.Sender = (*Sender)(nil)

// NewSender creates a Sender. Credentials are resolved on each Send so a
// token written by a concurrent `mailmesh auth` is picked up.
func NewSender(optFns ...func(o *Options)) *Sender {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Sender{opts: opts}
}

// Send composes d and sends it as the authorized user.
func (s *Sender) Send(ctx context.Context, d mail.Draft) (string, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return "", err
	}

	raw, err := mail.Compose(d)
	if err != nil {
		return "", err
	}

	msg, err := svc.Users.Messages.Send("me", &gmailapi.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail send: %w", err)
	}

	s.opts.Logger.Info("mail.send.success", "id", msg.Id, "to", d.Recipient)

	return msg.Id, nil
}

func (s *Sender) service(ctx context.Context) (*gmailapi.Service, error) {
	if len(s.opts.ClientOptions) > 0 {
		return gmailapi.NewService(ctx, s.opts.ClientOptions...)
	}

	cfg, err := LoadOAuthConfig(s.opts.CredentialsFile)
	if err != nil {
		return nil, err
	}

	tok, err := LoadToken(s.opts.TokenFile)
	if err != nil {
		return nil, err
	}

	ts := newPersistingTokenSource(cfg.TokenSource(ctx, tok), s.opts.TokenFile, tok)

	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return svc, nil
}
