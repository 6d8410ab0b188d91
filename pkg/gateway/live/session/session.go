package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/LMSAIH/xhacks2026-sub000/pkg/core/llm"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/core/voice"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/core/voice/stt"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/core/voice/tts"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/live/protocol"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/tutor"
)

const (
	fallbackReply = "Sorry, I had trouble with that one. Could you say it again?"

	outboundPriorityQueueSize = 8
	eventQueueSize            = 16
	readQueueSize             = 64
)

var errBackpressure = errors.New("live outbound backpressure")
var errSuperseded = errors.New("utterance superseded")

// Conn is the subset of *websocket.Conn the session drives. Tests substitute
// an in-memory implementation.
type Conn interface {
	ReadMessage() (int, []byte, error)
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	wsWriter
}

// Gateways bundles the external services one utterance passes through:
// speech recognition, reply generation, and speech synthesis.
type Gateways struct {
	Recognizer  stt.Recognizer
	Generator   llm.Generator
	Synthesizer tts.Synthesizer
}

type Dependencies struct {
	Conn      Conn
	Logger    *slog.Logger
	Gateways  Gateways
	Voices    []protocol.VoiceInfo
	Config    Config
	SessionID string
	Now       func() time.Time
}

// LiveSession is a per-connection actor. The Run goroutine owns all session
// state; the reader and writer goroutines only move frames, and utterance
// pipelines report back through the events channel. Barge-in works by
// bumping the epoch: frames and events minted under an older epoch are
// discarded wherever they surface.
type LiveSession struct {
	conn    Conn
	logger  *slog.Logger
	gw      Gateways
	voices  []protocol.VoiceInfo
	id      string
	cfg     Config
	now     func() time.Time
	limiter *utteranceLimiter

	ctx    context.Context
	cancel context.CancelFunc

	outboundPriority chan outboundFrame
	outboundNormal   chan outboundFrame
	events           chan pipelineEvent

	epoch atomic.Int64
	wg    sync.WaitGroup

	// Owned by the Run goroutine.
	state           SessionState
	profile         *SessionConfig
	history         *conversationHistory
	utteranceCancel context.CancelFunc
}

type inboundFrame struct {
	messageType int
	data        []byte
	err         error
}

type eventKind int

const (
	evtTranscriptPartial eventKind = iota
	evtUserUtterance
	evtEmptyUtterance
	evtAssistantReply
	evtSpeechDone
	evtUtteranceFailed
)

// pipelineEvent carries a pipeline stage result into the actor loop. The
// snapshot and proceed channels let the pipeline pause until the actor has
// recorded a turn; the actor closes them without sending when the event
// arrived under a stale epoch, which tells the pipeline to stop.
type pipelineEvent struct {
	epoch    int64
	kind     eventKind
	text     string
	fallback bool // canned reply; spoken but kept out of history
	err      error
	snapshot chan []llm.Message
	proceed  chan struct{}
}

func New(deps Dependencies) (*LiveSession, error) {
	if deps.Conn == nil {
		return nil, fmt.Errorf("connection is required")
	}
	if deps.Gateways.Recognizer == nil {
		return nil, fmt.Errorf("recognizer is required")
	}
	if deps.Gateways.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if deps.Gateways.Synthesizer == nil {
		return nil, fmt.Errorf("synthesizer is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if strings.TrimSpace(deps.SessionID) == "" {
		deps.SessionID = uuid.NewString()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	cfg := deps.Config.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	return &LiveSession{
		conn:             deps.Conn,
		logger:           deps.Logger,
		gw:               deps.Gateways,
		voices:           deps.Voices,
		id:               deps.SessionID,
		cfg:              cfg,
		now:              deps.Now,
		limiter:          newUtteranceLimiter(deps.Now, cfg.UtteranceRate, cfg.UtteranceByteRate, cfg.UtteranceBurst),
		ctx:              ctx,
		cancel:           cancel,
		outboundPriority: make(chan outboundFrame, outboundPriorityQueueSize),
		outboundNormal:   make(chan outboundFrame, cfg.OutboundQueue),
		events:           make(chan pipelineEvent, eventQueueSize),
		state:            StateIdle,
	}, nil
}

func (s *LiveSession) ID() string {
	return s.id
}

// Cancel tears the session down from outside the actor, for example during
// server drain.
func (s *LiveSession) Cancel() {
	s.cancel()
}

// Warn pushes an error frame that does not close the session.
func (s *LiveSession) Warn(code, message string) error {
	return s.sendControl(protocol.ServerError{Type: "error", Code: code, Message: message})
}

// Run drives the session until the client disconnects, the idle timeout
// fires, or the context is canceled. It must be called exactly once.
func (s *LiveSession) Run() error {
	defer func() {
		s.cancel()
		s.wg.Wait()
	}()

	s.conn.SetReadLimit(s.maxInboundBytes())
	pongWait := 2 * s.cfg.PingInterval
	_ = s.conn.SetReadDeadline(s.now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writerErrCh := make(chan error, 1)
	go func() {
		w := outboundWriter{
			ws:       s.conn,
			ctx:      s.ctx,
			cfg:      s.cfg,
			priority: s.outboundPriority,
			normal:   s.outboundNormal,
			isStale:  s.isStaleEpoch,
		}
		writerErrCh <- w.Run()
		close(writerErrCh)
	}()

	readCh := make(chan inboundFrame, readQueueSize)
	go s.readLoop(readCh)

	_ = s.sendControl(protocol.ServerReady{
		Type:            "ready",
		SessionID:       s.id,
		AvailableVoices: s.voices,
	})

	idleTimer := time.NewTimer(s.cfg.IdleTimeout)
	defer idleTimer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return nil
		case err, ok := <-writerErrCh:
			if !ok || err == nil {
				return nil
			}
			return err
		case frame, ok := <-readCh:
			if !ok || frame.err != nil {
				return nil
			}
			resetIdleTimer(idleTimer, s.cfg.IdleTimeout)
			if frame.messageType != websocket.TextMessage {
				_ = s.sendControl(errorMessage("bad_request", "binary frames are not supported"))
				continue
			}
			s.handleClientMessage(frame.data)
		case evt := <-s.events:
			s.handleEvent(evt)
		case <-idleTimer.C:
			_ = s.sendControl(protocol.ServerError{
				Type:    "error",
				Code:    "idle_timeout",
				Message: "session closed after inactivity",
				Close:   true,
			})
			s.flushAndClose(writerErrCh)
			return nil
		}
	}
}

func (s *LiveSession) readLoop(out chan<- inboundFrame) {
	defer close(out)
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case out <- inboundFrame{err: err}:
			case <-s.ctx.Done():
			}
			return
		}
		select {
		case out <- inboundFrame{messageType: messageType, data: data}:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *LiveSession) handleClientMessage(data []byte) {
	msg, decErr := protocol.DecodeClientMessage(data)
	if decErr != nil {
		code := "bad_request"
		var de *protocol.DecodeError
		if errors.As(decErr, &de) {
			code = de.Code
		}
		_ = s.sendControl(errorMessage(code, decErr.Error()))
		return
	}

	switch m := msg.(type) {
	case protocol.ClientStartSession:
		s.handleStartSession(m)
	case protocol.ClientAudio:
		s.handleAudio(m)
	case protocol.ClientText:
		s.handleText(m)
	case protocol.ClientInterrupt:
		s.handleInterrupt()
	case protocol.ClientClearHistory:
		s.handleClearHistory()
	case protocol.ClientUpdateSection:
		s.handleUpdateSection(m)
	}
}

// handleStartSession establishes the tutoring profile. A second start_session
// abandons whatever was in flight and resets to a fresh session under the
// same connection.
func (s *LiveSession) handleStartSession(m protocol.ClientStartSession) {
	if s.profile != nil {
		s.epoch.Add(1)
		s.clearUtteranceCancel()
		s.state = StateIdle
	}

	personaName := strings.TrimSpace(m.PersonaName)
	if personaName == "" {
		personaName = tutor.DefaultPersonaName
	}
	personaStyle := strings.TrimSpace(m.PersonaStyle)
	if personaStyle == "" {
		personaStyle = tutor.DefaultPersonaStyle
	}
	voiceID := s.resolveVoice(m.Voice)

	s.profile = &SessionConfig{
		VoiceID:        voiceID,
		PersonaName:    personaName,
		PersonaStyle:   personaStyle,
		Topic:          strings.TrimSpace(m.Topic),
		SectionTitle:   strings.TrimSpace(m.SectionTitle),
		SectionContext: strings.TrimSpace(m.SectionContext),
	}
	s.history = newConversationHistory(s.systemPrompt(), s.cfg.HistoryWindow)

	_ = s.sendControl(protocol.ServerSessionStarted{
		Type:      "session_started",
		SessionID: s.id,
		Voice:     voiceID,
	})
}

func (s *LiveSession) handleAudio(m protocol.ClientAudio) {
	if s.profile == nil || s.state != StateIdle {
		return
	}
	audio, err := m.Payload()
	if err != nil {
		_ = s.sendControl(errorMessage("bad_request", "invalid audio.data"))
		return
	}
	if len(audio) > s.cfg.MaxAudioBytes {
		_ = s.sendControl(errorMessage("too_large", "audio exceeds maximum size"))
		return
	}
	if !s.limiter.Allow(len(audio)) {
		_ = s.sendControl(errorMessage("rate_limited", "too many utterances, slow down"))
		return
	}
	s.beginUtterance(audio, "")
}

func (s *LiveSession) handleText(m protocol.ClientText) {
	if s.profile == nil || s.state != StateIdle {
		return
	}
	text := strings.TrimSpace(m.Content)
	if text == "" {
		return
	}
	if len(text) > s.cfg.MaxTextChars {
		_ = s.sendControl(errorMessage("too_large", "text exceeds maximum length"))
		return
	}
	if !s.limiter.Allow(len(text)) {
		_ = s.sendControl(errorMessage("rate_limited", "too many utterances, slow down"))
		return
	}
	s.beginUtterance(nil, text)
}

// handleInterrupt is the barge-in path: bump the epoch so in-flight frames
// and events go stale, cancel the pipeline, and drop back to idle. With
// nothing in flight it only reaffirms the idle state.
func (s *LiveSession) handleInterrupt() {
	if s.profile == nil {
		return
	}
	if s.state == StateIdle {
		_ = s.sendControl(stateChangeMessage(StateIdle))
		return
	}
	s.epoch.Add(1)
	s.clearUtteranceCancel()
	s.state = StateIdle
	_ = s.sendControl(protocol.ServerInterrupted{Type: "interrupted"})
	_ = s.sendControl(stateChangeMessage(StateIdle))
}

func (s *LiveSession) handleClearHistory() {
	if s.profile == nil {
		_ = s.sendControl(errorMessage("bad_request", "session not started"))
		return
	}
	s.history.clear()
	_ = s.sendControl(protocol.ServerCleared{Type: "cleared"})
}

func (s *LiveSession) handleUpdateSection(m protocol.ClientUpdateSection) {
	if s.profile == nil {
		_ = s.sendControl(errorMessage("bad_request", "session not started"))
		return
	}
	s.profile.SectionTitle = strings.TrimSpace(m.SectionTitle)
	s.profile.SectionContext = strings.TrimSpace(m.SectionContext)
	s.history.setSystemPrompt(s.systemPrompt())
	_ = s.sendControl(protocol.ServerSectionUpdated{
		Type:         "section_updated",
		SectionTitle: s.profile.SectionTitle,
	})
}

func (s *LiveSession) beginUtterance(audio []byte, text string) {
	epoch := s.epoch.Add(1)
	utterCtx, cancel := context.WithCancel(s.ctx)
	s.utteranceCancel = cancel
	s.state = StateProcessing
	_ = s.sendUtterance(epoch, stateChangeMessage(StateProcessing))

	voiceID := s.profile.VoiceID
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runUtterance(utterCtx, epoch, audio, text, voiceID)
	}()
}

func (s *LiveSession) handleEvent(evt pipelineEvent) {
	fresh := evt.epoch == s.epoch.Load()
	switch evt.kind {
	case evtTranscriptPartial:
		if !fresh || s.state != StateProcessing {
			return
		}
		_ = s.sendUtterance(evt.epoch, protocol.ServerTranscriptPartial{Type: "transcript_partial", Text: evt.text})
	case evtUserUtterance:
		if !fresh || s.state != StateProcessing {
			close(evt.snapshot)
			return
		}
		s.history.append(llm.RoleUser, evt.text)
		_ = s.sendUtterance(evt.epoch, protocol.ServerTranscript{Type: "transcript", Text: evt.text, IsUser: true})
		evt.snapshot <- s.history.snapshot()
		close(evt.snapshot)
	case evtEmptyUtterance:
		if !fresh || s.state != StateProcessing {
			return
		}
		s.finishUtterance(evt.epoch)
	case evtAssistantReply:
		if !fresh || s.state != StateProcessing {
			close(evt.proceed)
			return
		}
		// A fallback reply is spoken but never recorded, so a transient
		// upstream failure cannot poison later generation snapshots.
		if !evt.fallback {
			s.history.append(llm.RoleAssistant, evt.text)
		}
		_ = s.sendUtterance(evt.epoch, protocol.ServerTranscript{Type: "transcript", Text: evt.text, IsUser: false})
		s.state = StateSpeaking
		_ = s.sendUtterance(evt.epoch, stateChangeMessage(StateSpeaking))
		evt.proceed <- struct{}{}
		close(evt.proceed)
	case evtSpeechDone:
		if !fresh || s.state != StateSpeaking {
			return
		}
		s.finishUtterance(evt.epoch)
	case evtUtteranceFailed:
		if !fresh {
			return
		}
		s.state = StateError
		s.logger.Warn("live utterance failed", "session_id", s.id, "error", evt.err)
		_ = s.sendControl(errorMessage("gateway_error", compactErrorMessage(evt.err, "utterance failed")))
		s.clearUtteranceCancel()
		s.state = StateIdle
		_ = s.sendControl(stateChangeMessage(StateIdle))
	}
}

func (s *LiveSession) finishUtterance(epoch int64) {
	s.clearUtteranceCancel()
	s.state = StateIdle
	_ = s.sendUtterance(epoch, stateChangeMessage(StateIdle))
}

func (s *LiveSession) clearUtteranceCancel() {
	if s.utteranceCancel != nil {
		s.utteranceCancel()
		s.utteranceCancel = nil
	}
}

// runUtterance is the recognition, generation, synthesis pipeline for one
// user turn. It runs off the actor goroutine and reports through events; it
// never touches actor-owned state directly.
func (s *LiveSession) runUtterance(ctx context.Context, epoch int64, audio []byte, typed, voiceID string) {
	userText := typed
	if len(audio) > 0 {
		text, ok := s.recognize(ctx, epoch, audio)
		if !ok {
			return
		}
		userText = text
	}
	if strings.TrimSpace(userText) == "" {
		s.postEvent(pipelineEvent{epoch: epoch, kind: evtEmptyUtterance})
		return
	}

	snapshotCh := make(chan []llm.Message, 1)
	s.postEvent(pipelineEvent{epoch: epoch, kind: evtUserUtterance, text: strings.TrimSpace(userText), snapshot: snapshotCh})
	var snapshot []llm.Message
	select {
	case snap, ok := <-snapshotCh:
		if !ok {
			return
		}
		snapshot = snap
	case <-ctx.Done():
		return
	}

	reply, fallback := s.generate(ctx, snapshot)
	if ctx.Err() != nil {
		return
	}

	proceed := make(chan struct{}, 1)
	s.postEvent(pipelineEvent{epoch: epoch, kind: evtAssistantReply, text: reply, fallback: fallback, proceed: proceed})
	select {
	case _, ok := <-proceed:
		if !ok {
			return
		}
	case <-ctx.Done():
		return
	}

	if err := s.speak(ctx, epoch, reply, voiceID); err != nil {
		if ctx.Err() != nil || errors.Is(err, errSuperseded) {
			return
		}
		s.postEvent(pipelineEvent{epoch: epoch, kind: evtUtteranceFailed, err: err})
		return
	}
	s.postEvent(pipelineEvent{epoch: epoch, kind: evtSpeechDone})
}

func (s *LiveSession) recognize(ctx context.Context, epoch int64, audio []byte) (string, bool) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()

	deltas, err := s.gw.Recognizer.RecognizeStream(callCtx, audio, stt.Options{})
	if err != nil {
		if ctx.Err() != nil {
			return "", false
		}
		s.postEvent(pipelineEvent{epoch: epoch, kind: evtUtteranceFailed, err: fmt.Errorf("recognition: %w", err)})
		return "", false
	}

	final := ""
	for delta := range deltas {
		if delta.Err != nil {
			if ctx.Err() != nil {
				return "", false
			}
			s.postEvent(pipelineEvent{epoch: epoch, kind: evtUtteranceFailed, err: fmt.Errorf("recognition: %w", delta.Err)})
			return "", false
		}
		if delta.IsFinal {
			final = delta.Text
			continue
		}
		if strings.TrimSpace(delta.Text) != "" {
			s.postEvent(pipelineEvent{epoch: epoch, kind: evtTranscriptPartial, text: delta.Text})
		}
	}
	return final, true
}

// generate asks the language model for a reply. Failures and empty output
// fall back to a canned phrase so the conversation keeps moving; the second
// return reports that case so the actor keeps it out of history.
func (s *LiveSession) generate(ctx context.Context, snapshot []llm.Message) (string, bool) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()

	reply, err := s.gw.Generator.Generate(callCtx, &llm.Request{
		Messages:    snapshot,
		MaxTokens:   s.cfg.MaxReplyTokens,
		Temperature: s.cfg.Temperature,
	})
	if ctx.Err() != nil {
		return "", false
	}
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			s.logger.Warn("live generation failed, using fallback", "session_id", s.id, "error", err)
		}
		return fallbackReply, true
	}
	return capReply(reply, s.cfg.MaxReplyChars), false
}

func (s *LiveSession) speak(ctx context.Context, epoch int64, reply, voiceID string) error {
	opts := tts.Options{Voice: voiceID, Format: s.cfg.AudioFormat, SampleRate: s.cfg.SampleRate}
	streamer := newAudioStreamer(s.cfg.AudioChunkBytes, func(chunk []byte, seq, total int) error {
		return s.sendAudioChunk(epoch, chunk, seq, total)
	})

	if !s.cfg.StreamSynthesis {
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
		defer cancel()
		syn, err := s.gw.Synthesizer.Synthesize(callCtx, reply, opts)
		if err != nil {
			return fmt.Errorf("synthesis: %w", err)
		}
		// One complete unit: a small reply goes out as a single audio
		// frame, a large one as chunks with an exact total count.
		if len(syn.Audio) <= s.cfg.AudioChunkBytes {
			if err := s.sendUtterance(epoch, protocol.ServerAudio{
				Type:       "audio",
				Data:       base64.StdEncoding.EncodeToString(syn.Audio),
				Format:     syn.Format,
				SampleRate: syn.SampleRate,
			}); err != nil {
				return err
			}
		} else if err := streamer.sendUnit(syn.Audio); err != nil {
			return err
		}
		return s.sendUtterance(epoch, protocol.ServerAudioComplete{Type: "audio_complete"})
	}
	for _, sentence := range voice.SplitSentences(reply) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.speakSentence(ctx, sentence, opts, streamer); err != nil {
			return err
		}
	}
	if err := streamer.flush(); err != nil {
		return err
	}
	return s.sendUtterance(epoch, protocol.ServerAudioComplete{Type: "audio_complete"})
}

func (s *LiveSession) speakSentence(ctx context.Context, sentence string, opts tts.Options, streamer *audioStreamer) error {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()

	stream, err := s.gw.Synthesizer.SynthesizeStream(callCtx, sentence, opts)
	if err != nil {
		return fmt.Errorf("synthesis: %w", err)
	}
	defer stream.Cancel()

	for {
		select {
		case chunk, ok := <-stream.Chunks():
			if !ok {
				if err := stream.Err(); err != nil {
					return fmt.Errorf("synthesis stream: %w", err)
				}
				return nil
			}
			if err := streamer.write(chunk); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *LiveSession) sendAudioChunk(epoch int64, chunk []byte, seq, total int) error {
	if epoch != s.epoch.Load() {
		return errSuperseded
	}
	return s.sendUtterance(epoch, protocol.ServerAudioChunk{
		Type:          "audio_chunk",
		Data:          base64.StdEncoding.EncodeToString(chunk),
		SequenceIndex: seq,
		TotalCount:    total,
	})
}

func (s *LiveSession) postEvent(evt pipelineEvent) {
	select {
	case s.events <- evt:
	case <-s.ctx.Done():
	}
}

// sendControl enqueues a session-control frame on the priority lane. Control
// frames are never scoped to an epoch.
func (s *LiveSession) sendControl(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.enqueuePriority(outboundFrame{payload: payload})
}

// sendUtterance enqueues an utterance-scoped frame on the normal lane. The
// writer drops it if the epoch has moved on by write time.
func (s *LiveSession) sendUtterance(epoch int64, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.enqueueNormal(outboundFrame{payload: payload, epoch: epoch, scoped: true})
}

func (s *LiveSession) enqueueNormal(frame outboundFrame) error {
	if frame.scoped && frame.epoch != s.epoch.Load() {
		return nil
	}
	select {
	case s.outboundNormal <- frame:
		return nil
	default:
		return errBackpressure
	}
}

func (s *LiveSession) enqueuePriority(frame outboundFrame) error {
	for i := 0; i < 4; i++ {
		select {
		case s.outboundPriority <- frame:
			return nil
		default:
		}
		select {
		case <-s.outboundPriority:
		default:
		}
	}
	select {
	case s.outboundPriority <- frame:
		return nil
	default:
		return errBackpressure
	}
}

func (s *LiveSession) flushAndClose(writerErrCh <-chan error) {
	s.cancel()
	wait := 100 * time.Millisecond
	if s.cfg.WriteTimeout > 0 && s.cfg.WriteTimeout < wait {
		wait = s.cfg.WriteTimeout
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-writerErrCh:
	case <-timer.C:
	}
}

func (s *LiveSession) isStaleEpoch(epoch int64) bool {
	return epoch != s.epoch.Load()
}

func (s *LiveSession) systemPrompt() string {
	return tutor.SystemPrompt(
		s.profile.PersonaName,
		s.profile.PersonaStyle,
		s.profile.Topic,
		s.profile.SectionTitle,
		s.profile.SectionContext,
	)
}

func (s *LiveSession) resolveVoice(requested string) string {
	requested = strings.TrimSpace(requested)
	for _, v := range s.voices {
		if v.ID == requested {
			return v.ID
		}
	}
	if len(s.voices) > 0 {
		return s.voices[0].ID
	}
	return requested
}

func (s *LiveSession) maxInboundBytes() int64 {
	// Base64 inflates audio by a third; leave generous headroom for the
	// JSON envelope.
	return int64(s.cfg.MaxAudioBytes)*2 + 64*1024
}

func resetIdleTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

func stateChangeMessage(st SessionState) protocol.ServerStateChange {
	return protocol.ServerStateChange{Type: "state_change", State: st.String()}
}

func errorMessage(code, message string) protocol.ServerError {
	return protocol.ServerError{Type: "error", Code: code, Message: message}
}

// capReply bounds a generated reply for spoken delivery, preferring to cut
// at a sentence boundary.
func capReply(text string, maxChars int) string {
	text = strings.TrimSpace(text)
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	out := ""
	for _, sentence := range voice.SplitSentences(text) {
		candidate := sentence
		if out != "" {
			candidate = out + " " + sentence
		}
		if len(candidate) > maxChars {
			break
		}
		out = candidate
	}
	if out != "" {
		return out
	}
	cut := text[:maxChars]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "."
}

func compactErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if len(msg) > 240 {
		msg = msg[:240] + "…"
	}
	if msg == "" {
		return fallback
	}
	return msg
}
