package session

import (
	"fmt"
	"testing"

	"github.com/LMSAIH/xhacks2026-sub000/pkg/core/llm"
)

func TestConversationHistory_SnapshotBoundedByWindow(t *testing.T) {
	h := newConversationHistory("be brief", 4)

	for i := 0; i < 20; i++ {
		h.append(llm.RoleUser, fmt.Sprintf("question %d", i))
		h.append(llm.RoleAssistant, fmt.Sprintf("answer %d", i))
	}

	snap := h.snapshot()
	if len(snap) != 5 {
		t.Fatalf("snapshot length = %d, want window+1 = 5", len(snap))
	}
	if snap[0].Role != llm.RoleSystem || snap[0].Content != "be brief" {
		t.Fatalf("snapshot[0] = %+v, want pinned system message", snap[0])
	}
	if snap[len(snap)-1].Content != "answer 19" {
		t.Fatalf("last snapshot message = %q, want most recent turn", snap[len(snap)-1].Content)
	}
	if snap[1].Content != "answer 17" {
		t.Fatalf("oldest windowed turn = %q, want answer 17", snap[1].Content)
	}
}

func TestConversationHistory_SnapshotShortHistory(t *testing.T) {
	h := newConversationHistory("sys", 8)
	h.append(llm.RoleUser, "hi")

	snap := h.snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot length = %d, want 2", len(snap))
	}
	if snap[1].Role != llm.RoleUser || snap[1].Content != "hi" {
		t.Fatalf("snapshot[1] = %+v", snap[1])
	}
}

func TestConversationHistory_SnapshotIsCopy(t *testing.T) {
	h := newConversationHistory("sys", 8)
	h.append(llm.RoleUser, "first")

	snap := h.snapshot()
	h.append(llm.RoleAssistant, "second")

	if len(snap) != 2 {
		t.Fatalf("earlier snapshot grew to %d messages", len(snap))
	}
}

func TestConversationHistory_ClearKeepsSystemMessage(t *testing.T) {
	h := newConversationHistory("sys", 8)
	h.append(llm.RoleUser, "hi")
	h.append(llm.RoleAssistant, "hello")

	h.clear()
	if h.len() != 1 {
		t.Fatalf("len after clear = %d, want 1", h.len())
	}
	if h.messages[0].Role != llm.RoleSystem {
		t.Fatalf("message surviving clear has role %q", h.messages[0].Role)
	}

	// Clearing again is a no-op.
	h.clear()
	if h.len() != 1 {
		t.Fatalf("len after second clear = %d, want 1", h.len())
	}
}

func TestConversationHistory_SetSystemPromptKeepsTurns(t *testing.T) {
	h := newConversationHistory("old prompt", 8)
	h.append(llm.RoleUser, "hi")
	h.append(llm.RoleAssistant, "hello")

	h.setSystemPrompt("new prompt")

	if h.messages[0].Content != "new prompt" {
		t.Fatalf("system prompt = %q, want new prompt", h.messages[0].Content)
	}
	if h.len() != 3 {
		t.Fatalf("len = %d, want turns preserved", h.len())
	}
	if h.messages[1].Content != "hi" || h.messages[2].Content != "hello" {
		t.Fatalf("turns mutated: %+v", h.messages[1:])
	}
}

func TestConversationHistory_AppendDropsBlankContent(t *testing.T) {
	h := newConversationHistory("sys", 8)
	h.append(llm.RoleUser, "")
	h.append(llm.RoleUser, "   \n\t")

	if h.len() != 1 {
		t.Fatalf("blank appends recorded: len = %d", h.len())
	}
}
