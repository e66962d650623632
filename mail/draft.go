package mail

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformedDraft is returned by ParseDraft when the text is not a flat JSON
// object with exactly the four draft fields.
var ErrMalformedDraft = errors.New("malformed email draft")

var draftFields = []string{"Sender", "Recipient", "Title", "Body"}

// Draft is an email ready for review or sending.
type Draft struct {
	Sender    string `json:"Sender"`
	Recipient string `json:"Recipient"`
	Title     string `json:"Title"`
	Body      string `json:"Body"`
}

// JSON returns the canonical wire form: one flat object with keys in the
// order Sender, Recipient, Title, Body and no HTML escaping.
func (d Draft) JSON() string {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(d) // only string fields; cannot fail

	return strings.TrimRight(buf.String(), "\n")
}

// WithAddresses returns a copy with non-empty sender and recipient replaced.
func (d Draft) WithAddresses(sender, recipient string) Draft {
	if sender != "" {
		d.Sender = sender
	}
	if recipient != "" {
		d.Recipient = recipient
	}
	return d
}

// ParseDraft decodes model output into a Draft. A single surrounding Markdown
// code fence is stripped first. The object must contain exactly the keys
// Sender, Recipient, Title and Body (case-sensitive), each a non-blank string.
func ParseDraft(text string) (Draft, error) {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(stripFence(text)), &raw); err != nil {
		return Draft{}, fmt.Errorf("%w: %v", ErrMalformedDraft, err)
	}

	var problems []string

	for k := range raw {
		if !isDraftField(k) {
			problems = append(problems, fmt.Sprintf("unexpected key %q", k))
		}
	}

	values := make(map[string]string, len(draftFields))
	for _, f := range draftFields {
		v, ok := raw[f]
		if !ok {
			problems = append(problems, fmt.Sprintf("missing key %q", f))
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			problems = append(problems, fmt.Sprintf("key %q must be a string", f))
			continue
		}
		if strings.TrimSpace(s) == "" {
			problems = append(problems, fmt.Sprintf("key %q is empty", f))
			continue
		}
		values[f] = s
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return Draft{}, fmt.Errorf("%w: %s", ErrMalformedDraft, strings.Join(problems, "; "))
	}

	return Draft{
		Sender:    values["Sender"],
		Recipient: values["Recipient"],
		Title:     values["Title"],
		Body:      values["Body"],
	}, nil
}

func isDraftField(k string) bool {
	for _, f := range draftFields {
		if k == f {
			return true
		}
	}
	return false
}

// stripFence removes one ```lang ... ``` wrapper if the whole text is fenced.
func stripFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return t
	}

	t = strings.TrimSuffix(t[3:], "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		if lang := strings.TrimSpace(t[:nl]); !strings.ContainsAny(lang, "{}\"") {
			t = t[nl+1:]
		}
	}

	return strings.TrimSpace(t)
}
