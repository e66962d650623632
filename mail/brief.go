package mail

import (
	"errors"
	"fmt"
	"strings"
)

// BriefHeader opens every rendered content brief.
const BriefHeader = "--CONTENT BRIEF--"

const (
	labelAudience  = "Target audience of Email:"
	labelObjective = "Objective of Email:"
	labelTone      = "Tone:"
	labelMessage   = "Message:"
)

// ErrMalformedBrief is returned by ParseBrief for text that does not follow
// the brief format.
var ErrMalformedBrief = errors.New("malformed content brief")

// Brief is the structured summary of the email to write.
type Brief struct {
	Audience  string
	Objective string
	Tone      string
	// Points holds the message bullet lines in order, numbering included.
	Points []string
}

// String renders the brief in its canonical text form.
func (b Brief) String() string {
	var sb strings.Builder
	sb.WriteString(BriefHeader + "\n")
	sb.WriteString(labelAudience + " " + b.Audience + "\n")
	sb.WriteString(labelObjective + " " + b.Objective + "\n")
	sb.WriteString(labelTone + " " + b.Tone + "\n")
	sb.WriteString(labelMessage)
	for _, p := range b.Points {
		sb.WriteString("\n" + p)
	}
	return sb.String()
}

// ParseBrief reads a brief from model output. Text before the header is
// ignored. Message points may follow the label on the same line or on the
// lines below it. All four sections must be present and non-empty.
func ParseBrief(text string) (Brief, error) {
	idx := strings.Index(text, BriefHeader)
	if idx < 0 {
		return Brief{}, fmt.Errorf("%w: missing %q header", ErrMalformedBrief, BriefHeader)
	}

	var (
		b       Brief
		current *string
		inMsg   bool
	)

	for _, raw := range strings.Split(text[idx+len(BriefHeader):], "\n") {
		line := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "-"))
		line = strings.TrimSpace(strings.Trim(line, "*"))

		switch {
		case hasLabel(line, labelAudience):
			current, inMsg = &b.Audience, false
			b.Audience = valueAfter(line, labelAudience)
		case hasLabel(line, labelObjective):
			current, inMsg = &b.Objective, false
			b.Objective = valueAfter(line, labelObjective)
		case hasLabel(line, labelTone):
			current, inMsg = &b.Tone, false
			b.Tone = valueAfter(line, labelTone)
		case hasLabel(line, labelMessage):
			current, inMsg = nil, true
			if v := valueAfter(line, labelMessage); v != "" {
				b.Points = append(b.Points, v)
			}
		case line == "":
			continue
		case inMsg:
			b.Points = append(b.Points, line)
		case current != nil:
			*current = strings.TrimSpace(*current + " " + line)
		}
	}

	missing := make([]string, 0, 4)
	if b.Audience == "" {
		missing = append(missing, "target audience")
	}
	if b.Objective == "" {
		missing = append(missing, "objective")
	}
	if b.Tone == "" {
		missing = append(missing, "tone")
	}
	if len(b.Points) == 0 {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return Brief{}, fmt.Errorf("%w: missing %s", ErrMalformedBrief, strings.Join(missing, ", "))
	}

	return b, nil
}

func hasLabel(line, label string) bool {
	return len(line) >= len(label) && strings.EqualFold(line[:len(label)], label)
}

func valueAfter(line, label string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(line[len(label):]), "*"))
}
