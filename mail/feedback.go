package mail

import (
	"errors"
	"strings"
)

// ApprovalSentinel is the exact editor output that approves a draft.
const ApprovalSentinel = "APPROVED"

// ErrEmptyFeedback is returned by ValidateFeedback for blank editor output.
var ErrEmptyFeedback = errors.New("editor feedback is empty")

// Feedback is editor output: the approval sentinel or free-text critique.
type Feedback string

// IsApproval reports whether f is byte-for-byte the approval sentinel.
func (f Feedback) IsApproval() bool { return IsApproval(string(f)) }

// IsApproval reports whether s is byte-for-byte the approval sentinel.
// "approved", "APPROVED." and " APPROVED" are critique, not approval.
func IsApproval(s string) bool { return s == ApprovalSentinel }

// ValidateFeedback accepts any non-blank text. The text itself is kept as is.
func ValidateFeedback(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyFeedback
	}
	return nil
}
