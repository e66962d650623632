package core

import "testing"

func TestSessionKey_Validate(t *testing.T) {
	if err := testKey.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (SessionKey{AppName: "app", ID: "s"}).Validate(); err == nil {
		t.Fatal("expected error for missing user id")
	}
	if testKey.String() != "app/u1/s1" {
		t.Fatalf("unexpected key string %q", testKey.String())
	}
}

func TestSession_ApplyStateDeltaOverwritesAndClone(t *testing.T) {
	s := NewSession(testKey)

	s.ApplyStateDelta(map[string]any{"email_draft": `{"Title":"old"}`, "b": "x"})
	s.ApplyStateDelta(map[string]any{"email_draft": `{"Title":"new"}`})

	if v, _ := s.GetState("email_draft"); v != `{"Title":"new"}` {
		t.Fatalf("expected overwrite, got %v", v)
	}
	if v, _ := s.GetState("b"); v != "x" {
		t.Fatalf("untouched key changed: %v", v)
	}

	clone := s.Clone()
	if clone == s {
		t.Error("Clone should be a different pointer")
	}

	clone.SetState("c", 2)
	if _, exists := s.GetState("c"); exists {
		t.Error("Original should not have clone's new key")
	}
}

func TestSession_ConversationHistory(t *testing.T) {
	s := NewSession(testKey)
	s.AddEvent(NewUserMessageEvent("inv-1", "I want to thank my boss"))
	s.AddEvent(NewMessageEvent("clarifier", "internal"))
	s.AddEvent(NewMessageEvent(AuthorOrchestrator, "What tone?"))
	s.AddEvent(NewUserMessageEvent("inv-2", "warm"))

	all := s.GetEvents()
	if len(all) != 4 {
		t.Fatalf("expected 4 events, got %d", len(all))
	}
	all[0].Author = "changed"
	if s.GetEvents()[0].Author != AuthorUser {
		t.Error("events slice should be copied on read")
	}

	history := s.GetConversationHistory()
	if len(history) != 3 {
		t.Fatalf("expected 3 conversational events, got %d", len(history))
	}

	utterances := s.UserUtterances()
	if len(utterances) != 2 || utterances[1] != "warm" {
		t.Fatalf("unexpected utterances: %v", utterances)
	}
}
