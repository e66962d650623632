package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEvent_ConstructorsAndMethods(t *testing.T) {
	e := NewEvent("inv-123", "authorA")
	if e.Author != "authorA" || e.InvocationID != "inv-123" || e.ID == "" || e.Timestamp.IsZero() {
		t.Fatalf("NewEvent did not initialize fields correctly: %+v", e)
	}

	msg := NewMessageEvent("agent1", "hello world")
	if msg.Content == nil || msg.Content.Role != RoleAssistant || msg.Text() != "hello world" {
		t.Fatalf("NewMessageEvent malformed: %+v", msg)
	}

	fCall := NewFunctionCallEvent("agent2", FunctionCall{ID: "c1", Name: "send_email", Arguments: "{}"})
	calls := fCall.GetFunctionCalls()
	if len(calls) != 1 || calls[0].Name != "send_email" || calls[0].ID != "c1" {
		t.Fatalf("GetFunctionCalls extraction failed: %+v", calls)
	}

	fRespErr := NewFunctionResponseEvent("agent2", "c2", "send_email", nil, errors.New("boom"))
	resps := fRespErr.GetFunctionResponses()
	if len(resps) != 1 || resps[0].Error != "boom" {
		t.Fatalf("Expected error message in function response: %+v", resps)
	}
}

func TestEvent_IsFinalResponse(t *testing.T) {
	if !NewEvent("inv", "a").IsFinalResponse() {
		t.Error("Expected basic event to be final")
	}

	partial := true
	e2 := NewEvent("inv", "a")
	e2.Partial = &partial
	if e2.IsFinalResponse() {
		t.Error("Partial event should not be final")
	}

	if NewFunctionCallEvent("a", FunctionCall{Name: "f"}).IsFinalResponse() {
		t.Error("Event with function call should not be final")
	}

	resp := NewFunctionResponseEvent("a", "c", "f", "ok", nil)
	if resp.IsFinalResponse() {
		t.Error("Event with function response should not be final")
	}

	yes := true
	resp.Actions.Escalate = &yes
	if !resp.IsFinalResponse() || !resp.IsEscalation() {
		t.Error("escalating response should be final")
	}
}

func TestContent_JSONRoundTrip(t *testing.T) {
	ev := NewFunctionResponseEvent("refiner", "c1", "finalize_email", map[string]any{"status": "approved"}, nil)
	ev.Content.Parts = append(ev.Content.Parts, TextPart{Text: "note"}, FunctionCallPart{FunctionCall: FunctionCall{Name: "x"}})

	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Event
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(got.Content.Parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(got.Content.Parts))
	}
	if got.GetFunctionResponses()[0].Name != "finalize_email" || got.Text() != "note" {
		t.Fatalf("unexpected decoded event: %+v", got)
	}
}

func TestContent_UnmarshalUnknownPart(t *testing.T) {
	var c Content
	if err := json.Unmarshal([]byte(`{"parts":[{"type":"video"}]}`), &c); err == nil {
		t.Fatal("expected error for unknown part type")
	}
}
