package mailmesh

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mailmesh/conversation"
	"github.com/hupe1980/mailmesh/crew"
	"github.com/hupe1980/mailmesh/internal/testutil"
	"github.com/hupe1980/mailmesh/mail"
	"github.com/hupe1980/mailmesh/orchestrator"
	"github.com/hupe1980/mailmesh/tool"
)

const (
	testBrief = `--CONTENT BRIEF--
Target audience of Email: Rob, former lover
Objective of Email: To convey an amicable farewell
Tone: bittersweet
Message:
1. Thank him`
	testDraft = `{"Sender":"me@example.com","Recipient":"rob@example.com","Title":"Goodbye","Body":"Take care."}`
)

func scripted() *testutil.ScriptedModel {
	return testutil.NewScriptedModel().
		On(crew.NameBriefDrafter, testutil.Text(testBrief)).
		On(crew.NameEmailDrafter, testutil.Text(testDraft)).
		On(crew.NameEditor, testutil.Text(mail.ApprovalSentinel))
}

func TestMailMesh_EndToEnd(t *testing.T) {
	ctx := context.Background()
	sender := &testutil.RecordingSender{}

	m, err := New(scripted(), sender, func(o *Options) {
		o.Classifier = orchestrator.RuleClassifier{}
	})
	require.NoError(t, err)

	key, err := m.StartSession(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, DefaultAppName, key.AppName)
	assert.Equal(t, "alice", key.UserID)
	assert.NotEmpty(t, key.ID)

	steps := []struct {
		text  string
		phase orchestrator.Phase
	}{
		{"I want to write a bittersweet farewell to my ex Rob", orchestrator.PhaseBriefReview},
		{"yes", orchestrator.PhaseAddressCollection},
		{"from: me@example.com to: rob@example.com", orchestrator.PhaseEmailReview},
		{"looks good, send it", orchestrator.PhaseDone},
	}

	var reply orchestrator.Reply
	for _, s := range steps {
		reply, err = m.Send(ctx, key, s.text)
		require.NoError(t, err, s.text)
		assert.Equal(t, s.phase, reply.Phase, s.text)
	}

	assert.True(t, reply.Done)
	assert.Equal(t, tool.SendSuccess("msg-1"), reply.Text)
	require.Len(t, sender.Sent(), 1)
	assert.Equal(t, "rob@example.com", sender.Sent()[0].Recipient)

	brief, err := m.Artifact(ctx, key, orchestrator.ArtifactBrief)
	require.NoError(t, err)
	assert.Equal(t, testBrief, string(brief))

	require.NoError(t, m.EndSession(ctx, key))
	_, err = m.Phase(ctx, key)
	assert.Error(t, err)
}

func TestMailMesh_DefaultModelClassifier(t *testing.T) {
	ctx := context.Background()

	llm := scripted().On("classifier", testutil.Text(`{"purpose": true, "audience": true, "tone": true}`))

	m, err := New(llm, &testutil.RecordingSender{})
	require.NoError(t, err)

	key, err := m.StartSession(ctx, "bob")
	require.NoError(t, err)

	reply, err := m.Send(ctx, key, "something vague the rules would not accept")
	require.NoError(t, err)
	assert.Equal(t, orchestrator.PhaseBriefReview, reply.Phase)
	assert.Equal(t, 1, llm.Calls("classifier"))
}

func TestMailMesh_StartSessionRequiresUser(t *testing.T) {
	m, err := New(scripted(), &testutil.RecordingSender{})
	require.NoError(t, err)

	_, err = m.StartSession(context.Background(), "")
	assert.Error(t, err)
}

func TestMailMesh_Driver(t *testing.T) {
	ctx := context.Background()
	sender := &testutil.RecordingSender{}

	m, err := New(scripted(), sender, func(o *Options) {
		o.Classifier = orchestrator.RuleClassifier{}
	})
	require.NoError(t, err)

	key, err := m.StartSession(ctx, "carol")
	require.NoError(t, err)

	input := strings.Join([]string{
		"A bittersweet goodbye to my ex",
		"yes",
		"me@example.com rob@example.com",
		"yes, send it",
		"this line is never read",
	}, "\n")

	var out bytes.Buffer
	sum, err := conversation.NewDriver(m, key, func(o *conversation.Options) {
		o.In = strings.NewReader(input)
		o.Out = &out
	}).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, conversation.StopDone, sum.Reason)
	assert.Equal(t, 4, sum.Turns)
	assert.Len(t, sender.Sent(), 1)
	assert.Contains(t, out.String(), conversation.ReplyPrefix+tool.SendSuccess("msg-1"))
}
