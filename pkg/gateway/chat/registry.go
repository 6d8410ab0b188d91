// Package chat backs the auxiliary text endpoints with an in-memory session
// registry. Sessions are evicted by capacity (LRU) and by idle TTL, so an
// abandoned conversation can never pin memory the way an unbounded map would.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/LMSAIH/xhacks2026-sub000/pkg/core/llm"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/tutor"
)

var (
	ErrNotFound       = errors.New("chat session not found")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message exceeds maximum length")
)

// Config carries the registry tunables.
type Config struct {
	Capacity        int           // max live chat sessions before LRU eviction
	TTL             time.Duration // idle lifetime; each turn renews it
	HistoryWindow   int           // recent messages included in a generation snapshot
	MaxReplyTokens  int
	Temperature     float64
	MaxMessageChars int
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = 1024
	}
	if c.TTL <= 0 {
		c.TTL = 30 * time.Minute
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = 8
	}
	if c.MaxReplyTokens <= 0 {
		c.MaxReplyTokens = 256
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.7
	}
	if c.MaxMessageChars <= 0 {
		c.MaxMessageChars = 4000
	}
	return c
}

// TurnRequest is one client message. An empty SessionID starts a new session
// using the profile fields; on an existing session they are ignored.
type TurnRequest struct {
	SessionID      string
	Message        string
	Topic          string
	SectionTitle   string
	SectionContext string
}

// TurnResult carries the reply and the session id the client should reuse.
type TurnResult struct {
	SessionID string
	Reply     string
	Created   bool
}

// Registry owns the chat sessions and runs their turns against the
// generation gateway.
type Registry struct {
	gen      llm.Generator
	cfg      Config
	sessions *expirable.LRU[string, *chatSession]
}

func NewRegistry(gen llm.Generator, cfg Config) *Registry {
	cfg = cfg.withDefaults()
	return &Registry{
		gen:      gen,
		cfg:      cfg,
		sessions: expirable.NewLRU[string, *chatSession](cfg.Capacity, nil, cfg.TTL),
	}
}

// Turn appends the user message to the session, generates a reply, and
// records both. A completed turn renews the session's TTL and recency.
func (r *Registry) Turn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return TurnResult{}, ErrEmptyMessage
	}
	if len(message) > r.cfg.MaxMessageChars {
		return TurnResult{}, ErrMessageTooLong
	}

	id := strings.TrimSpace(req.SessionID)
	created := false
	var sess *chatSession
	if id == "" {
		id = uuid.NewString()
		created = true
		prompt := tutor.SystemPrompt("", "", req.Topic, req.SectionTitle, req.SectionContext)
		sess = newChatSession(prompt, r.cfg.HistoryWindow)
		r.sessions.Add(id, sess)
	} else {
		var ok bool
		sess, ok = r.sessions.Get(id)
		if !ok {
			return TurnResult{}, ErrNotFound
		}
	}

	reply, err := sess.turn(ctx, r.gen, message, r.cfg.MaxReplyTokens, r.cfg.Temperature)
	if err != nil {
		if created {
			r.sessions.Remove(id)
		}
		return TurnResult{}, err
	}

	// Re-adding renews the TTL, which Get alone does not.
	r.sessions.Add(id, sess)
	return TurnResult{SessionID: id, Reply: reply, Created: created}, nil
}

// Delete drops a session and reports whether it existed.
func (r *Registry) Delete(sessionID string) bool {
	return r.sessions.Remove(sessionID)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	return r.sessions.Len()
}

// chatSession is one bounded conversation. Its mutex serializes turns so
// concurrent posts against the same id cannot interleave their history
// writes.
type chatSession struct {
	mu       sync.Mutex
	window   int
	messages []llm.Message
}

func newChatSession(systemPrompt string, window int) *chatSession {
	return &chatSession{
		window:   window,
		messages: []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}},
	}
}

func (s *chatSession) turn(ctx context.Context, gen llm.Generator, text string, maxTokens int, temperature float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, llm.Message{Role: llm.RoleUser, Content: text})
	reply, err := gen.Generate(ctx, &llm.Request{
		Messages:    s.snapshotLocked(),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err == nil && strings.TrimSpace(reply) == "" {
		err = fmt.Errorf("generator returned an empty reply")
	}
	if err != nil {
		// A failed turn leaves no trace, so retrying it is safe.
		s.messages = s.messages[:len(s.messages)-1]
		return "", err
	}

	reply = strings.TrimSpace(reply)
	s.messages = append(s.messages, llm.Message{Role: llm.RoleAssistant, Content: reply})
	return reply, nil
}

// snapshotLocked returns the pinned system message plus the most recent
// window of turn messages.
func (s *chatSession) snapshotLocked() []llm.Message {
	turns := s.messages[1:]
	if len(turns) > s.window {
		turns = turns[len(turns)-s.window:]
	}
	out := make([]llm.Message, 0, len(turns)+1)
	out = append(out, s.messages[0])
	out = append(out, turns...)
	return out
}
