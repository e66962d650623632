package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/mailmesh/mail"
)

// RecordingSender is a mail.Sender that records drafts instead of sending.
// A non-nil Err fails every send.
type RecordingSender struct {
	Err error

	mu     sync.Mutex
	drafts []mail.Draft
}

// Send implements mail.Sender.
func (s *RecordingSender) Send(ctx context.Context, d mail.Draft) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return "", s.Err
	}

	s.drafts = append(s.drafts, d)

	return fmt.Sprintf("msg-%d", len(s.drafts)), nil
}

// Sent returns the recorded drafts.
func (s *RecordingSender) Sent() []mail.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mail.Draft(nil), s.drafts...)
}
