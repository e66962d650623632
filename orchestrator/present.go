package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/mailmesh/mail"
)

func presentBrief(brief string) string {
	return "Here is the content brief for your email:\n\n" + brief +
		"\n\nDoes this capture what you want to say? Reply to approve it or tell me what to change."
}

func presentDraft(slots Slots) (string, error) {
	d, err := parseDraft(slots.EmailDraft)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Here is the email draft:\n\n")
	fmt.Fprintf(&sb, "From: %s\nTo: %s\nSubject: %s\n\n%s\n\n", d.Sender, d.Recipient, d.Title, d.Body)

	if !slots.RefineApproved {
		fmt.Fprintf(&sb, "The editor still had suggestions after %d rounds:\n%s\n\n", slots.RefineIterations, slots.Feedback)
	}

	sb.WriteString("Should I send it? Reply to approve it or tell me what to change.")

	return sb.String(), nil
}

func askAddresses(a Addresses) string {
	switch {
	case a.Sender == "" && a.Recipient == "":
		return "Which email addresses should I use? Reply with from: <your address> and to: <their address>."
	case a.Sender == "":
		return "Which email address should I send it from?"
	default:
		return "Which email address should I send it to?"
	}
}

// sentRecord is the archived form of a dispatched email.
func sentRecord(slots Slots) ([]byte, error) {
	d, err := parseDraft(slots.EmailDraft)
	if err != nil {
		return nil, err
	}

	return json.MarshalIndent(struct {
		mail.Draft
		Status string    `json:"Status"`
		SentAt time.Time `json:"SentAt"`
	}{Draft: d, Status: slots.SendResult, SentAt: time.Now().UTC()}, "", "  ")
}

func parseDraft(text string) (mail.Draft, error) {
	d, err := mail.ParseDraft(text)
	if err != nil {
		return mail.Draft{}, fmt.Errorf("stored draft: %w", err)
	}
	return d, nil
}
