package session

import (
	"strings"

	"github.com/LMSAIH/xhacks2026-sub000/pkg/core/llm"
)

// conversationHistory holds the full transcript of a session. The system
// prompt is pinned at index 0 and survives clears; generation snapshots see
// only the system message plus the most recent turns, so the transcript can
// grow without growing the prompt.
type conversationHistory struct {
	messages []llm.Message
	window   int
}

func newConversationHistory(systemPrompt string, window int) *conversationHistory {
	if window <= 0 {
		window = 8
	}
	return &conversationHistory{
		messages: []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}},
		window:   window,
	}
}

// append records a completed turn. Blank content is dropped so a failed or
// empty stage can never poison later snapshots.
func (h *conversationHistory) append(role llm.Role, content string) {
	if strings.TrimSpace(content) == "" {
		return
	}
	h.messages = append(h.messages, llm.Message{Role: role, Content: content})
}

// snapshot returns the system message followed by at most window recent
// turns. The slice is freshly allocated; callers may hold it across await
// points without racing later appends.
func (h *conversationHistory) snapshot() []llm.Message {
	turns := h.messages[1:]
	if len(turns) > h.window {
		turns = turns[len(turns)-h.window:]
	}
	out := make([]llm.Message, 0, len(turns)+1)
	out = append(out, h.messages[0])
	out = append(out, turns...)
	return out
}

// clear drops every turn but keeps the pinned system message. Clearing an
// already empty history is a no-op.
func (h *conversationHistory) clear() {
	h.messages = h.messages[:1]
}

// setSystemPrompt replaces the pinned system message in place. Recorded
// turns are untouched.
func (h *conversationHistory) setSystemPrompt(prompt string) {
	h.messages[0] = llm.Message{Role: llm.RoleSystem, Content: prompt}
}

// len reports the total number of messages including the system message.
func (h *conversationHistory) len() int {
	return len(h.messages)
}
