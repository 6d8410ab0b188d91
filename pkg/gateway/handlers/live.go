package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/apierror"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/config"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/lifecycle"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/live/protocol"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/live/session"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/live/sessions"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/tutor"
)

// LiveHandler upgrades /v1/live into a voice tutoring session.
type LiveHandler struct {
	Config    config.Config
	Logger    *slog.Logger
	Lifecycle *lifecycle.Lifecycle
	Tracker   *sessions.Tracker
	Gateways  session.Gateways
	Catalog   *tutor.Catalog
}

func (h LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Lifecycle.IsDraining() {
		writeError(w, r, apierror.CodeOverloaded, "gateway is draining")
		return
	}
	if !h.originAllowed(r) {
		writeError(w, r, apierror.CodeBadRequest, "origin is not allowed")
		return
	}

	upgrader := websocket.Upgrader{
		HandshakeTimeout: h.Config.LiveHandshakeTimeout,
		CheckOrigin:      func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake failure.
		return
	}
	defer conn.Close()

	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessionID := uuid.NewString()
	live, err := session.New(session.Dependencies{
		Conn:      conn,
		Logger:    logger,
		Gateways:  h.Gateways,
		Voices:    h.voiceInfos(),
		Config:    h.sessionConfig(),
		SessionID: sessionID,
	})
	if err != nil {
		logger.Error("live session setup failed", "error", err)
		return
	}

	unregister, err := h.Tracker.Register(sessionID, sessions.Handle{
		Cancel: live.Cancel,
		Warn:   live.Warn,
	})
	if err != nil {
		h.refuse(conn, "capacity", "no session slots available, try again shortly")
		return
	}
	defer unregister()

	logger.Info("live session opened", "session_id", sessionID, "remote", r.RemoteAddr)
	if err := live.Run(); err != nil {
		logger.Warn("live session ended with error", "session_id", sessionID, "error", err)
		return
	}
	logger.Info("live session closed", "session_id", sessionID)
}

// refuse reports a pre-session failure over the fresh socket and closes it.
func (h LiveHandler) refuse(conn *websocket.Conn, code, message string) {
	deadline := time.Now().Add(h.Config.LiveWSWriteTimeout)
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.WriteJSON(protocol.ServerError{Type: "error", Code: code, Message: message, Close: true})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseTryAgainLater, code), deadline)
}

func (h LiveHandler) originAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" || len(h.Config.CORSAllowedOrigins) == 0 {
		return true
	}
	_, ok := h.Config.CORSAllowedOrigins[origin]
	return ok
}

func (h LiveHandler) voiceInfos() []protocol.VoiceInfo {
	voices := h.Catalog.Voices()
	out := make([]protocol.VoiceInfo, 0, len(voices))
	for _, v := range voices {
		out = append(out, protocol.VoiceInfo{ID: v.ID, Name: v.Name, Description: v.Description})
	}
	return out
}

func (h LiveHandler) sessionConfig() session.Config {
	cfg := h.Config
	return session.Config{
		HistoryWindow:     cfg.LiveHistoryWindow,
		AudioChunkBytes:   cfg.LiveAudioChunkBytes,
		MaxReplyTokens:    cfg.LiveMaxReplyTokens,
		Temperature:       cfg.LiveTemperature,
		MaxReplyChars:     cfg.LiveMaxReplyChars,
		AudioFormat:       cfg.LiveAudioFormat,
		SampleRate:        cfg.LiveSampleRate,
		StreamSynthesis:   cfg.LiveStreamSynthesis,
		MaxAudioBytes:     cfg.LiveMaxAudioBytes,
		MaxTextChars:      cfg.LiveMaxTextChars,
		UtteranceRate:     cfg.LiveUtteranceRate,
		UtteranceByteRate: cfg.LiveUtteranceByteRate,
		UtteranceBurst:    cfg.LiveUtteranceBurstSeconds,
		GatewayTimeout:    cfg.LiveGatewayTimeout,
		IdleTimeout:       cfg.LiveIdleTimeout,
		PingInterval:      cfg.LiveWSPingInterval,
		WriteTimeout:      cfg.LiveWSWriteTimeout,
		OutboundQueue:     cfg.LiveOutboundQueue,
	}
}
