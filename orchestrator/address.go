package orchestrator

import (
	"regexp"
	"strings"
)

const addrPattern = `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`

var (
	addrRe        = regexp.MustCompile(addrPattern)
	labeledFromRe = regexp.MustCompile(`(?i)\bfrom\s*:\s*<?(` + addrPattern + `)`)
	labeledToRe   = regexp.MustCompile(`(?i)\bto\s*:\s*<?(` + addrPattern + `)`)
)

// Addresses are the sender and recipient of the email.
type Addresses struct {
	Sender    string
	Recipient string

	// single is set when the text held exactly one unlabeled address.
	single bool
}

// Complete reports whether both addresses are known.
func (a Addresses) Complete() bool { return a.Sender != "" && a.Recipient != "" }

// ExtractAddresses finds email addresses in text. "from:" and "to:" labels
// win; otherwise the first unlabeled address is the sender and the second
// the recipient.
func ExtractAddresses(text string) Addresses {
	var a Addresses

	if m := labeledFromRe.FindStringSubmatch(text); m != nil {
		a.Sender = m[1]
	}
	if m := labeledToRe.FindStringSubmatch(text); m != nil {
		a.Recipient = m[1]
	}

	var unlabeled []string
	for _, m := range addrRe.FindAllString(text, -1) {
		if strings.EqualFold(m, a.Sender) || strings.EqualFold(m, a.Recipient) {
			continue
		}
		unlabeled = append(unlabeled, m)
	}

	a.single = len(unlabeled) == 1 && a.Sender == "" && a.Recipient == ""

	for _, addr := range unlabeled {
		switch {
		case a.Sender == "":
			a.Sender = addr
		case a.Recipient == "":
			a.Recipient = addr
		}
	}

	return a
}

// Merge returns a updated with the addresses in found. A lone unlabeled
// address answers whichever address is still missing.
func (a Addresses) Merge(found Addresses) Addresses {
	if found.single {
		switch {
		case a.Sender == "":
			a.Sender = found.Sender
		case a.Recipient == "":
			a.Recipient = found.Sender
		}
		return a
	}

	if found.Sender != "" {
		a.Sender = found.Sender
	}
	if found.Recipient != "" {
		a.Recipient = found.Recipient
	}

	return a
}
