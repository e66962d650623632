package core

import (
	"context"
	"errors"
	"testing"
)

func TestRunContext_EmitEventAttachesStagedState(t *testing.T) {
	rc, rec := newRunContextForTest(t)
	rc.SetState("content_brief", "v1")

	if v := rc.GetString("content_brief"); v != "v1" {
		t.Fatalf("staged value not visible: %q", v)
	}

	if err := rc.EmitEvent(NewMessageEvent("", "done")); err != nil {
		t.Fatalf("EmitEvent error: %v", err)
	}

	if len(rec.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(rec.events))
	}
	ev := rec.events[0]
	if ev.Author != "agent1" || ev.InvocationID != "run-1" {
		t.Fatalf("defaults not applied: %+v", ev)
	}
	if ev.Actions.StateDelta["content_brief"] != "v1" {
		t.Fatalf("delta not attached: %+v", ev.Actions)
	}
	if len(rc.StateDelta) != 0 {
		t.Error("delta should be cleared after emit")
	}
	if v, _ := rc.Session.GetState("content_brief"); v != "v1" {
		t.Error("committed value should be visible through the session snapshot")
	}
}

func TestRunContext_CommitStateDelta(t *testing.T) {
	rc, rec := newRunContextForTest(t)

	if err := rc.CommitStateDelta(); err != nil || len(rec.events) != 0 {
		t.Fatalf("empty commit should be a no-op: %v", err)
	}

	rc.SetState("k", 1)
	if err := rc.CommitStateDelta(); err != nil {
		t.Fatal(err)
	}
	if len(rec.events) != 1 || rec.events[0].Content != nil {
		t.Fatalf("expected one control event, got %+v", rec.events)
	}
}

func TestRunContext_ForAgentAndWithEmitter(t *testing.T) {
	rc, rec := newRunContextForTest(t)
	rc.SetState("parent_only", true)

	child := rc.ForAgent(AgentInfo{Name: "child"})
	if _, ok := child.StateDelta["parent_only"]; ok {
		t.Fatal("child must not inherit staged writes")
	}

	var seen int
	wrapped := child.WithEmitter(func(ev Event) error {
		seen++
		return rc.Emit(ev)
	})
	if err := wrapped.EmitEvent(NewMessageEvent("", "x")); err != nil {
		t.Fatal(err)
	}
	if seen != 1 || len(rec.events) != 1 || rec.events[0].Author != "child" {
		t.Fatalf("unexpected emission: seen=%d events=%+v", seen, rec.events)
	}
}

func TestRunContext_EmitWithoutEmitter(t *testing.T) {
	rc := NewRunContext(context.Background(), testKey, "r", AgentInfo{}, Content{}, NewSession(testKey), Stores{}, nil, nil, nil)
	if err := rc.EmitEvent(NewEvent("", "a")); !errors.Is(err, ErrNoEmitter) {
		t.Fatalf("expected ErrNoEmitter, got %v", err)
	}
}

func TestRunContext_CancelledEmit(t *testing.T) {
	rc, _ := newRunContextForTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc.Context = ctx
	if err := rc.EmitEvent(NewEvent("", "a")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunContext_Memory(t *testing.T) {
	rc, _ := newRunContextForTest(t)

	if _, ok, err := rc.Recall("search:q"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := rc.Remember("search:q", "result"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := rc.Recall("search:q")
	if err != nil || !ok || v != "result" {
		t.Fatalf("expected hit, got %v %v %v", v, ok, err)
	}
}

func TestModelLimiter(t *testing.T) {
	l := NewModelLimiter(1)
	if err := l.Increment(); err != nil {
		t.Fatal(err)
	}
	if err := l.Increment(); !errors.Is(err, ErrModelCallLimit) {
		t.Fatalf("expected ErrModelCallLimit, got %v", err)
	}
	if NewModelLimiter(0).Remaining() != -1 {
		t.Error("unlimited limiter should report -1")
	}
}
