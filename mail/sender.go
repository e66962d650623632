package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/mailmesh/logging"
)

// ErrNotAuthorized is returned by senders that have no usable credentials.
var ErrNotAuthorized = errors.New("mail transport not authorized")

// Sender delivers a draft and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, d Draft) (string, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, d Draft) (string, error)

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, d Draft) (string, error) { return f(ctx, d) }

// Compose renders d as an RFC 5322 plain-text message with a Q-encoded
// subject and a quoted-printable UTF-8 body.
func Compose(d Draft) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", headerValue(d.Sender))
	fmt.Fprintf(&buf, "To: %s\r\n", headerValue(d.Recipient))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(d.Title)))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(strings.ReplaceAll(d.Body, "\n", "\r\n"))); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}

	return buf.Bytes(), nil
}

// headerValue drops CR and LF so a value cannot inject extra headers.
func headerValue(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
}

// DryRunSender logs the message instead of delivering it.
type DryRunSender struct {
	logger logging.Logger
}

// NewDryRunSender creates a DryRunSender. A nil logger discards output.
func NewDryRunSender(logger logging.Logger) *DryRunSender {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &DryRunSender{logger: logger}
}

// Send composes the message, logs it and returns a synthetic id.
func (s *DryRunSender) Send(ctx context.Context, d Draft) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	raw, err := Compose(d)
	if err != nil {
		return "", err
	}

	id := "dry-run-" + uuid.NewString()
	s.logger.Info("mail.send.dry_run", "id", id, "from", d.Sender, "to", d.Recipient, "subject", d.Title, "bytes", len(raw))

	return id, nil
}
