package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LMSAIH/xhacks2026-sub000/pkg/core/llm"
)

type fakeGenerator struct {
	mu    sync.Mutex
	reply string
	err   error
	calls [][]llm.Message
}

func (f *fakeGenerator) Generate(ctx context.Context, req *llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := make([]llm.Message, len(req.Messages))
	copy(snap, req.Messages)
	f.calls = append(f.calls, snap)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGenerator) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeGenerator) call(i int) []llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestRegistry_TurnCreatesAndContinues(t *testing.T) {
	gen := &fakeGenerator{reply: "A derivative measures change."}
	r := NewRegistry(gen, Config{})

	out, err := r.Turn(context.Background(), TurnRequest{
		Message:      "What is a derivative?",
		Topic:        "Calculus",
		SectionTitle: "Derivatives",
	})
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if out.SessionID == "" || !out.Created {
		t.Fatalf("first turn result = %+v, want a new session", out)
	}
	if out.Reply != gen.reply {
		t.Fatalf("reply = %q", out.Reply)
	}

	first := gen.call(0)
	if len(first) != 2 {
		t.Fatalf("first snapshot = %d messages, want system + user", len(first))
	}
	if first[0].Role != llm.RoleSystem ||
		!strings.Contains(first[0].Content, "Calculus") ||
		!strings.Contains(first[0].Content, "Derivatives") {
		t.Fatalf("system prompt = %q", first[0].Content)
	}

	out2, err := r.Turn(context.Background(), TurnRequest{
		SessionID: out.SessionID,
		Message:   "Can you show an example?",
	})
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if out2.Created || out2.SessionID != out.SessionID {
		t.Fatalf("second turn result = %+v, want the same session", out2)
	}

	second := gen.call(1)
	if len(second) != 4 {
		t.Fatalf("second snapshot = %d messages, want prior turn retained", len(second))
	}
	if second[2].Role != llm.RoleAssistant || second[2].Content != gen.reply {
		t.Fatalf("assistant turn missing: %+v", second[2])
	}
	if r.Len() != 1 {
		t.Fatalf("registry len = %d, want 1", r.Len())
	}
}

func TestRegistry_UnknownSessionNotFound(t *testing.T) {
	r := NewRegistry(&fakeGenerator{reply: "x"}, Config{})
	_, err := r.Turn(context.Background(), TurnRequest{SessionID: "missing", Message: "hi"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRegistry_RejectsEmptyAndOversizedMessages(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	r := NewRegistry(gen, Config{MaxMessageChars: 10})

	if _, err := r.Turn(context.Background(), TurnRequest{Message: "   "}); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("blank message err = %v, want ErrEmptyMessage", err)
	}
	if _, err := r.Turn(context.Background(), TurnRequest{Message: strings.Repeat("a", 11)}); !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("long message err = %v, want ErrMessageTooLong", err)
	}
	if gen.callCount() != 0 {
		t.Fatalf("generator called for rejected input")
	}
}

func TestRegistry_FailedTurnLeavesNoTrace(t *testing.T) {
	gen := &fakeGenerator{reply: "First answer."}
	r := NewRegistry(gen, Config{})

	out, err := r.Turn(context.Background(), TurnRequest{Message: "First"})
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}

	gen.setErr(errors.New("upstream 500"))
	if _, err := r.Turn(context.Background(), TurnRequest{SessionID: out.SessionID, Message: "Doomed"}); err == nil {
		t.Fatalf("expected the failed turn to surface its error")
	}

	gen.setErr(nil)
	if _, err := r.Turn(context.Background(), TurnRequest{SessionID: out.SessionID, Message: "Retry"}); err != nil {
		t.Fatalf("retry turn: %v", err)
	}
	snap := gen.call(2)
	if len(snap) != 4 {
		t.Fatalf("retry snapshot = %d messages, want the failed turn absent", len(snap))
	}
	for _, m := range snap {
		if m.Content == "Doomed" {
			t.Fatalf("failed turn leaked into history: %+v", snap)
		}
	}
}

func TestRegistry_FailedCreateRegistersNothing(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream 500")}
	r := NewRegistry(gen, Config{})

	if _, err := r.Turn(context.Background(), TurnRequest{Message: "hello"}); err == nil {
		t.Fatalf("expected error")
	}
	if r.Len() != 0 {
		t.Fatalf("registry len = %d, want failed create removed", r.Len())
	}
}

func TestRegistry_CapacityEvictsOldest(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	r := NewRegistry(gen, Config{Capacity: 2})

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		out, err := r.Turn(context.Background(), TurnRequest{Message: "hello"})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		ids = append(ids, out.SessionID)
	}

	if r.Len() != 2 {
		t.Fatalf("registry len = %d, want capacity respected", r.Len())
	}
	if _, err := r.Turn(context.Background(), TurnRequest{SessionID: ids[0], Message: "still there?"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("oldest session err = %v, want ErrNotFound", err)
	}
	if _, err := r.Turn(context.Background(), TurnRequest{SessionID: ids[2], Message: "still there?"}); err != nil {
		t.Fatalf("newest session: %v", err)
	}
}

func TestRegistry_TTLExpiresIdleSessions(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	r := NewRegistry(gen, Config{TTL: 50 * time.Millisecond})

	out, err := r.Turn(context.Background(), TurnRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	if _, err := r.Turn(context.Background(), TurnRequest{SessionID: out.SessionID, Message: "anyone?"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired session err = %v, want ErrNotFound", err)
	}
}

func TestRegistry_DeleteRemovesSession(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	r := NewRegistry(gen, Config{})

	out, err := r.Turn(context.Background(), TurnRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !r.Delete(out.SessionID) {
		t.Fatalf("delete reported the session missing")
	}
	if r.Delete(out.SessionID) {
		t.Fatalf("second delete reported success")
	}
	if _, err := r.Turn(context.Background(), TurnRequest{SessionID: out.SessionID, Message: "hi"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted session err = %v, want ErrNotFound", err)
	}
}

func TestRegistry_WindowBoundsSnapshot(t *testing.T) {
	gen := &fakeGenerator{reply: "short"}
	r := NewRegistry(gen, Config{HistoryWindow: 2})

	out, err := r.Turn(context.Background(), TurnRequest{Message: "turn 0"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 1; i < 4; i++ {
		if _, err := r.Turn(context.Background(), TurnRequest{SessionID: out.SessionID, Message: "turn " + strings.Repeat("x", i)}); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
	}

	last := gen.call(gen.callCount() - 1)
	if len(last) != 3 {
		t.Fatalf("snapshot = %d messages, want system + 2 recent", len(last))
	}
	if last[0].Role != llm.RoleSystem {
		t.Fatalf("snapshot[0] = %+v, want the pinned system message", last[0])
	}
	if last[len(last)-1].Role != llm.RoleUser {
		t.Fatalf("snapshot tail = %+v, want the fresh user message", last[len(last)-1])
	}
}
