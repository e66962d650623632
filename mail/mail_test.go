package mail

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBrief = `Here is the brief you asked for.

--CONTENT BRIEF--
Target audience of Email: Rob, former partner, broke up 3 months ago
Objective of Email: To convey an amicable farewell
**Tone:** bittersweet but kind
Message:
1. Apologise for not being available often
2. Wish the reader a good life`

func TestParseBrief(t *testing.T) {
	b, err := ParseBrief(sampleBrief)
	require.NoError(t, err)

	assert.Equal(t, "Rob, former partner, broke up 3 months ago", b.Audience)
	assert.Equal(t, "To convey an amicable farewell", b.Objective)
	assert.Equal(t, "bittersweet but kind", b.Tone)
	assert.Equal(t, []string{"1. Apologise for not being available often", "2. Wish the reader a good life"}, b.Points)

	again, err := ParseBrief(b.String())
	require.NoError(t, err)
	assert.Equal(t, b, again)
	assert.True(t, strings.HasPrefix(b.String(), BriefHeader+"\n"))
}

func TestParseBriefRejectsIncomplete(t *testing.T) {
	tests := map[string]string{
		"no header":     "Target audience of Email: x\nObjective of Email: y\nTone: z\nMessage: 1. a",
		"no tone":       BriefHeader + "\nTarget audience of Email: x\nObjective of Email: y\nMessage: 1. a",
		"empty message": BriefHeader + "\nTarget audience of Email: x\nObjective of Email: y\nTone: z\nMessage:",
	}

	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBrief(text)
			assert.ErrorIs(t, err, ErrMalformedBrief)
		})
	}
}

func TestParseDraft(t *testing.T) {
	valid := `{"Sender":"a@x.com","Recipient":"b@y.com","Title":"Hi","Body":"Hello"}`
	want := Draft{Sender: "a@x.com", Recipient: "b@y.com", Title: "Hi", Body: "Hello"}

	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{name: "valid", text: valid},
		{name: "fenced", text: "```json\n" + valid + "\n```"},
		{name: "bare fence", text: "```\n" + valid + "\n```"},
		{name: "missing body", text: `{"Sender":"a@x.com","Recipient":"b@y.com","Title":"Hi"}`, wantErr: true},
		{name: "empty title", text: `{"Sender":"a@x.com","Recipient":"b@y.com","Title":"  ","Body":"Hello"}`, wantErr: true},
		{name: "extra key", text: `{"Sender":"a@x.com","Recipient":"b@y.com","Title":"Hi","Body":"Hello","Cc":"c@z.com"}`, wantErr: true},
		{name: "lowercase key", text: `{"sender":"a@x.com","Recipient":"b@y.com","Title":"Hi","Body":"Hello"}`, wantErr: true},
		{name: "non-string", text: `{"Sender":"a@x.com","Recipient":"b@y.com","Title":1,"Body":"Hello"}`, wantErr: true},
		{name: "not json", text: "Dear Rob, ...", wantErr: true},
		{name: "array", text: `[1,2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDraft(tt.text)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedDraft)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, want, d)
		})
	}
}

func TestDraftJSON(t *testing.T) {
	d := Draft{Sender: "a@x.com", Recipient: "b@y.com", Title: "You & me", Body: "<3"}

	assert.Equal(t, `{"Sender":"a@x.com","Recipient":"b@y.com","Title":"You & me","Body":"<3"}`, d.JSON())

	back, err := ParseDraft(d.JSON())
	require.NoError(t, err)
	assert.Equal(t, d, back)

	pinned := d.WithAddresses("me@x.com", "")
	assert.Equal(t, "me@x.com", pinned.Sender)
	assert.Equal(t, "b@y.com", pinned.Recipient)
}

func TestIsApproval(t *testing.T) {
	assert.True(t, IsApproval("APPROVED"))
	assert.True(t, Feedback("APPROVED").IsApproval())

	for _, s := range []string{"approved", "APPROVED.", " APPROVED", "APPROVED\n", "Approved", ""} {
		assert.False(t, IsApproval(s), "%q", s)
	}
}

func TestValidateFeedback(t *testing.T) {
	assert.NoError(t, ValidateFeedback("1. Shorter opening"))
	assert.ErrorIs(t, ValidateFeedback(" \n"), ErrEmptyFeedback)
}

func TestCompose(t *testing.T) {
	raw, err := Compose(Draft{Sender: "a@x.com", Recipient: "b@y.com\r\nBcc: evil@z.com", Title: "Grüße", Body: "line one\nline two"})
	require.NoError(t, err)

	msg := string(raw)
	assert.Contains(t, msg, "From: a@x.com\r\n")
	assert.Contains(t, msg, "To: b@y.com Bcc: evil@z.com\r\n")
	assert.NotContains(t, msg, "\r\nBcc:")
	assert.Contains(t, msg, "Subject: =?utf-8?q?Gr=C3=BC=C3=9Fe?=\r\n")
	assert.Contains(t, msg, "line one\r\nline two")
}

func TestDryRunSender(t *testing.T) {
	s := NewDryRunSender(nil)

	id, err := s.Send(context.Background(), Draft{Sender: "a", Recipient: "b", Title: "t", Body: "b"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "dry-run-"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Send(ctx, Draft{})
	assert.ErrorIs(t, err, context.Canceled)
}
